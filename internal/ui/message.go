package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStateChanged MsgKind = iota
	MsgSubscriptionClosed
	MsgHistoryLoaded
)

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg(s tasks.State) Msg {
	return Msg{kind: MsgStateChanged, data: s}
}

// subscriptionClosedMsg is the constructor for [MsgSubscriptionClosed]
func subscriptionClosedMsg() Msg {
	return Msg{kind: MsgSubscriptionClosed}
}

type historyResult struct {
	scans []*models.Scan
	err   error
}

// historyLoadedMsg is the constructor for [MsgHistoryLoaded]
func historyLoadedMsg(scans []*models.Scan, err error) Msg {
	return Msg{kind: MsgHistoryLoaded, data: historyResult{scans, err}}
}
