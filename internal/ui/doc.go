// Package ui implements the interactive scanning screen using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [ScanView] : status text, decoded barcode, and the product page affordance
//  2. [HistoryView] : recent scans from the history journal, when it is enabled
//
// The [Model] never mutates pipeline state. Key presses call the [Pipeline] (capture, reset, open) and
// state snapshots arrive through a subscription as [MsgStateChanged] messages.
//
// Keyboard bindings (c, o, r, h, q) are listed with charmbracelet/bubbles/help.
package ui
