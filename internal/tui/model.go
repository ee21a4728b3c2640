// Package tui hosts the waterfall grid in a Bubble Tea program.
//
// The terminal stands in for the browser viewport: the window width times
// the configured cell width is the viewport width fed to the breakpoints,
// and the viewport's line offset, height and content length are the scroll
// metrics fed to the near-bottom trigger.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/grid"
	"github.com/idilsaglam/waterfall/internal/model"
	"github.com/idilsaglam/waterfall/internal/source"
	"github.com/idilsaglam/waterfall/internal/ui"
)

// chrome is the rows taken by the frame (2), message line, status bar and help.
const (
	chromeRows = 5
	chromeCols = 4
)

// Options configure a Model.
type Options struct {
	Source     source.Source
	Settings   grid.Settings
	CellWidth  int // pixels per terminal column
	CellHeight int // pixels per terminal row
	Logger     *log.Logger
}

// batchMsg carries a finished fetch back into the update loop.
type batchMsg struct {
	seq   uint64
	reqID string
	items []model.Item
	err   error
}

// Model is the Bubble Tea model of the grid.
type Model struct {
	state grid.State
	src   source.Source

	cellWidth, cellHeight int
	width, height         int
	ready                 bool

	vp      viewport.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
}

// New builds the model. Fetches run under a context that Quit cancels.
func New(opts Options) Model {
	if opts.CellWidth < 1 {
		opts.CellWidth = 8
	}
	if opts.CellHeight < 1 {
		opts.CellHeight = 20
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.Current().AccentStyle()

	h := help.New()
	h.Styles.ShortKey = ui.Current().MutedStyle()
	h.Styles.ShortDesc = ui.Current().MutedStyle()

	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true

	return Model{
		state:      grid.NewState(opts.Settings),
		src:        opts.Source,
		cellWidth:  opts.CellWidth,
		cellHeight: opts.CellHeight,
		vp:         vp,
		spinner:    sp,
		help:       h,
		keys:       newKeyMap(),
		ctx:        ctx,
		cancel:     cancel,
		logger:     opts.Logger,
	}
}

// State is the current grid state.
func (m Model) State() grid.State { return m.state }

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.cancel()
		fm.logger.Info("grid closed", "items", len(fm.state.Items), "phase", fm.state.Phase())
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.vp.Width = max(msg.Width-chromeCols, 1)
		m.vp.Height = max(msg.Height-chromeRows, 1)
		next, cmd := m.step(grid.Resized{Width: msg.Width * m.cellWidth})
		next.refresh()
		return next, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Retry):
			if !m.state.CanRetry() {
				return m, nil
			}
			return m.step(grid.LoadRequested{})
		case m.keys.isScroll(msg):
			return m.scroll(msg)
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Button != tea.MouseButtonWheelUp && msg.Button != tea.MouseButtonWheelDown {
			return m, nil
		}
		return m.scroll(msg)

	case batchMsg:
		if m.ctx.Err() != nil {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("fetch failed", "req", msg.reqID, "err", errors.UserMessage(msg.err))
			return m.step(grid.BatchFailed{Seq: msg.seq, Err: msg.err})
		}
		m.logger.Debug("fetched", "req", msg.reqID, "items", len(msg.items))
		return m.step(grid.BatchLoaded{Seq: msg.seq, Items: msg.items})

	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// scroll lets the viewport move, then reports the new position.
func (m Model) scroll(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	next, fetch := m.step(grid.Scrolled{
		Top:     m.vp.YOffset,
		Visible: m.vp.Height,
		Total:   m.vp.TotalLineCount(),
	})
	return next, tea.Batch(cmd, fetch)
}

// step applies ev and turns the resulting effects into commands.
func (m Model) step(ev grid.Event) (Model, tea.Cmd) {
	prev := m.state
	var effects []grid.FetchBatch
	m.state, effects = grid.Step(m.state, ev)

	if prev.Phase() != m.state.Phase() || prev.ColumnCount != m.state.ColumnCount {
		m.logger.Debug("transition", "from", prev.Phase(), "to", m.state.Phase(),
			"items", len(m.state.Items), "columns", m.state.ColumnCount)
	}
	if len(prev.Items) != len(m.state.Items) || prev.ColumnCount != m.state.ColumnCount {
		m.refresh()
	}

	var cmds []tea.Cmd
	for _, f := range effects {
		cmds = append(cmds, m.fetch(f))
	}
	if len(cmds) > 0 {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) fetch(f grid.FetchBatch) tea.Cmd {
	src, ctx, logger := m.src, m.ctx, m.logger
	return func() tea.Msg {
		reqID := uuid.NewString()
		logger.Debug("fetch", "req", reqID, "start", f.StartID, "count", f.Count)
		began := time.Now()
		items, err := src.Batch(ctx, f.Count, f.StartID)
		logger.Debug("fetch done", "req", reqID, "elapsed", time.Since(began).Round(time.Millisecond))
		return batchMsg{seq: f.Seq, reqID: reqID, items: items, err: err}
	}
}

// refresh re-derives the layout and hands it to the viewport.
func (m *Model) refresh() {
	cols, err := m.state.Columns()
	if err != nil {
		m.logger.Error("layout", "err", err)
		return
	}
	m.vp.SetContent(ui.Columns(cols, ui.Geometry{
		Width:      m.vp.Width,
		CellHeight: m.cellHeight,
		Gap:        1,
	}))
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return ""
	}
	t := ui.Current()
	inner := []string{
		m.vp.View(),
		m.message(),
		m.statusBar(),
		m.help.ShortHelpView(m.keys.ShortHelp()),
	}
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1).
		Render(strings.Join(inner, "\n"))
}

// message is the single status line under the grid.
func (m Model) message() string {
	t := ui.Current()
	s := m.state
	switch s.Phase() {
	case grid.Loading:
		return m.spinner.View() + " " + t.PendingStyle().Render("Loading items...")
	case grid.Failed:
		return t.ErrorStyle().Render(t.SymFail+" "+errors.UserMessage(s.Err)) +
			t.MutedStyle().Render("  press r to retry")
	case grid.Exhausted:
		if len(s.Items) >= s.Cap {
			return t.MutedStyle().Render("No more items.")
		}
	case grid.Idle:
		if len(s.Items) == 0 {
			return t.MutedStyle().Render("No items yet. Press r to load some.")
		}
	}
	return ""
}

func (m Model) statusBar() string {
	t := ui.Current()
	s := m.state
	return fmt.Sprintf("%s  %s  %s %d  %s %s",
		t.TitleStyle().Render("Waterfall"),
		t.MutedStyle().Render(ui.ProgressBar(len(s.Items), s.Cap, 12)),
		t.AccentStyle().Render("columns"), s.ColumnCount,
		t.AccentStyle().Render("phase"), s.Phase(),
	)
}
