package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ScanView ViewState = iota
	HistoryView
)

const historyLimit = 50

// Pipeline is the part of [tasks.Controller] the TUI drives.
type Pipeline interface {
	Capture() (string, error)
	Reset() error
	OpenProductPage() error
	State() tasks.State
	Subscribe(buffer int) (<-chan tasks.State, func())
}

// HistorySource lists recent scans, newest first.
type HistorySource interface {
	Recent(limit int) ([]*models.Scan, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	pipeline    Pipeline
	history     HistorySource
	states      <-chan tasks.State
	unsubscribe func()
	state       tasks.State
	spinner     spinner.Model
	historyList list.Model
	width       int
	height      int
	notice      string
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model. history may be nil when the journal is disabled.
func NewModel(ctx context.Context, pipeline Pipeline, history HistorySource) *Model {
	states, unsubscribe := pipeline.Subscribe(4)

	historyList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	historyList.Title = "Recent scans"
	historyList.SetShowHelp(false)

	return &Model{
		ctx:         ctx,
		view:        ScanView,
		pipeline:    pipeline,
		history:     history,
		states:      states,
		unsubscribe: unsubscribe,
		state:       pipeline.State(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.warn)),
		historyList: historyList,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the spinner and listens for pipeline state.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForState())
}

// waitForState blocks on the subscription until the next snapshot.
func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case s, ok := <-m.states:
			if !ok {
				return subscriptionClosedMsg()
			}
			return stateChangedMsg(s)
		case <-m.ctx.Done():
			return subscriptionClosedMsg()
		}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		scans, err := m.history.Recent(historyLimit)
		return historyLoadedMsg(scans, err)
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.historyList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && (m.view == ScanView || !m.historyList.SettingFilter()) {
			m.unsubscribe()
			return m, tea.Quit
		}
		switch m.view {
		case HistoryView:
			return m.handleHistoryKeys(msg)
		default:
			return m.handleScanKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgStateChanged:
			m.state = msg.data.(tasks.State)
			if m.state.Outcome.Terminal() || m.state.Phase == tasks.Idle {
				m.notice = ""
			}
			return m, m.waitForState()

		case MsgSubscriptionClosed:
			m.err = tasks.ErrNotStarted
			return m, nil

		case MsgHistoryLoaded:
			result := msg.data.(historyResult)
			if result.err != nil {
				m.err = result.err
				m.view = ScanView
				return m, nil
			}
			cmd := m.historyList.SetItems(scanItems(result.scans))
			m.view = HistoryView
			return m, cmd
		}
	}

	if m.view == HistoryView {
		var cmd tea.Cmd
		m.historyList, cmd = m.historyList.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleScanKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch {
	case key.Matches(msg, m.keys.capture):
		if _, err := m.pipeline.Capture(); err != nil {
			if errors.Is(err, tasks.ErrBusy) {
				m.notice = "Still working on the last scan…"
			} else {
				m.err = err
			}
		}

	case key.Matches(msg, m.keys.reset):
		m.notice = ""
		if err := m.pipeline.Reset(); err != nil {
			m.err = err
		}

	case key.Matches(msg, m.keys.open):
		if err := m.pipeline.OpenProductPage(); err != nil && !errors.Is(err, tasks.ErrNoProductPage) {
			m.err = err
		}

	case key.Matches(msg, m.keys.history):
		if m.history == nil {
			m.notice = "Scan history is disabled. Run `barcod setup database` to enable it."
			return m, nil
		}
		return m, m.loadHistory()

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.back) && !m.historyList.SettingFilter() {
		m.view = ScanView
		return m, nil
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

// View renders the current view.
func (m *Model) View() string {
	switch m.view {
	case HistoryView:
		return m.historyList.View() + "\n" + styles.help.Render("esc back • q quit")
	default:
		return m.scanView()
	}
}

func (m *Model) scanView() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("barcod"))
	b.WriteString("\n")

	phase := m.state.Phase.String()
	if m.state.Phase.InFlight() {
		phase = m.spinner.View() + " " + phase
	}
	b.WriteString(styles.help.Render(phase))
	b.WriteString("\n\n")

	b.WriteString(styles.status.Render(m.statusStyle().Render(m.state.Status)))
	b.WriteString("\n")

	if m.state.HasProductPage() {
		fmt.Fprintf(&b, "\n%s  %s\n", styles.ok.Render(tasks.ProductPageLabel), styles.link.Render(m.state.ProductURL))
	}

	if m.notice != "" {
		b.WriteString("\n" + styles.warn.Render(m.notice) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render("Error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) statusStyle() lipgloss.Style {
	switch {
	case m.state.Outcome == models.OutcomeLookupFound:
		return styles.ok
	case m.state.Outcome.Failed():
		return styles.err
	default:
		return styles.warn.UnsetForeground()
	}
}
