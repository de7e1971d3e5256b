// package formatter provides functions to export scan history to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
)

// Format names accepted by [ParseFormat].
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat maps a flag value to a [Format]; "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

const timeLayout = "2006-01-02 15:04:05"

// ScanRecord is the exported view of a [models.Scan].
type ScanRecord struct {
	Sequence  int       `json:"sequence"`
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Barcode   string    `json:"barcode"`
	Format    string    `json:"format"`
	Outcome   string    `json:"outcome"`
	Snippet   string    `json:"snippet,omitempty"`
	URL       string    `json:"url,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewScanRecord flattens scan for export.
func NewScanRecord(scan *models.Scan) ScanRecord {
	return ScanRecord{
		Sequence:  scan.Sequence(),
		ID:        scan.ID(),
		RunID:     scan.RunID(),
		Barcode:   scan.Barcode(),
		Format:    scan.Format(),
		Outcome:   scan.Outcome().String(),
		Snippet:   scan.Snippet(),
		URL:       scan.URL(),
		Source:    scan.Source(),
		CreatedAt: scan.CreatedAt(),
	}
}

// ExportToCSV converts scans to CSV with columns: Sequence, Created, Barcode, Format, Outcome, Snippet, URL, Source
func ExportToCSV(scans []*models.Scan) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Created", "Barcode", "Format", "Outcome", "Snippet", "URL", "Source"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, scan := range scans {
		record := []string{
			strconv.Itoa(scan.Sequence()),
			scan.CreatedAt().Local().Format(timeLayout),
			scan.Barcode(),
			scan.Format(),
			scan.Outcome().String(),
			scan.Snippet(),
			scan.URL(),
			scan.Source(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders scans as a Markdown table with product links
func ExportToMarkdown(scans []*models.Scan, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Scan History"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Scans**: %d\n\n", len(scans))

	if len(scans) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Scanned | Barcode | Outcome | Product |\n")
	buf.WriteString("|---|---------|---------|---------|---------|\n")
	for _, scan := range scans {
		product := escapeCell(scan.Snippet())
		if scan.URL() != "" {
			product = fmt.Sprintf("[%s](%s)", product, scan.URL())
		}
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s |\n",
			scan.Sequence(),
			scan.CreatedAt().Local().Format(timeLayout),
			codeCell(scan.Barcode()),
			scan.Outcome(),
			product,
		)
	}

	return buf.Bytes(), nil
}

// ExportToText converts scans to plain text, one line per scan
func ExportToText(scans []*models.Scan) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Scans: %d\n\n", len(scans))
	for _, scan := range scans {
		barcode := scan.Barcode()
		if barcode == "" {
			barcode = "-"
		}
		fmt.Fprintf(&buf, "#%d  %s  %-16s  %s", scan.Sequence(), scan.CreatedAt().Local().Format(timeLayout), barcode, scan.Outcome())
		if scan.Snippet() != "" {
			fmt.Fprintf(&buf, "  %s", scan.Snippet())
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts scans to an indented JSON array of [ScanRecord]
func ExportToJSON(scans []*models.Scan) ([]byte, error) {
	records := make([]ScanRecord, 0, len(scans))
	for _, scan := range scans {
		records = append(records, NewScanRecord(scan))
	}
	return MarshalJSON(records)
}

// MarshalJSON encodes v as indented JSON with a trailing newline
func MarshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders scans in format.
func Export(format Format, scans []*models.Scan) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(scans)
	case FormatMarkdown:
		return ExportToMarkdown(scans, "")
	case FormatJSON:
		return ExportToJSON(scans)
	case FormatText:
		return ExportToText(scans)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders scans in format and writes them to path.
//
// Defaults to scan_history{ext} as the filename.
func WriteExport(format Format, scans []*models.Scan, path string) (string, error) {
	if path == "" {
		path = "scan_history" + format.Extension()
	}

	data, err := Export(format, scans)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func codeCell(s string) string {
	if s == "" {
		return "-"
	}
	return "`" + s + "`"
}
