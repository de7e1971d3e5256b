package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/barcod/internal/models"
)

var _ list.Item = scanItem{}

// scanItem wraps [models.Scan] to implement [list.Item].
type scanItem struct {
	scan *models.Scan
}

func (i scanItem) FilterValue() string { return i.scan.Barcode() + " " + i.scan.Snippet() }
func (i scanItem) Title() string {
	barcode := i.scan.Barcode()
	if barcode == "" {
		barcode = "(no barcode)"
	}
	return fmt.Sprintf("#%d %s", i.scan.Sequence(), barcode)
}
func (i scanItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.scan.CreatedAt().Local().Format("Jan 2 15:04"), i.scan.Outcome())
	if i.scan.Snippet() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.scan.Snippet())
	}
	return desc
}

func scanItems(scans []*models.Scan) []list.Item {
	items := make([]list.Item, len(scans))
	for i, s := range scans {
		items[i] = scanItem{scan: s}
	}
	return items
}
