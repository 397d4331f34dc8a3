// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/booktype/internal/layout"
	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/session"
)

const pageLines = 10

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	completeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A7BC8")).
			Padding(1, 3)
)

// Model implements the Bubble Tea typing UI.
type Model struct {
	config model.Config
	ctrl   *session.Controller
	logger *slog.Logger

	keys keyMap
	help help.Model

	indexer *layout.Indexer

	width  int
	height int

	fullWidth   bool
	following   bool
	displayLine int

	err error
}

// NewModel constructs a typing TUI model. The controller must be started.
func NewModel(cfg model.Config, ctrl *session.Controller, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Model{
		config:    cfg,
		ctrl:      ctrl,
		logger:    logger,
		keys:      defaultKeyMap(),
		help:      help.New(),
		following: true,
	}
}

// Err returns the error that stopped the program, if any.
func (m *Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if err := m.relayout(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleFull):
		m.fullWidth = !m.fullWidth
		if err := m.relayout(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.scroll(-pageLines)
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.scroll(pageLines)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.scroll(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.scroll(1)
		return m, nil
	case key.Matches(msg, m.keys.Follow):
		m.following = true
		return m, nil
	}

	switch msg.Type {
	case tea.KeySpace:
		return m, m.typeRunes([]rune{' '})
	case tea.KeyRunes:
		if msg.Alt {
			return m, nil
		}
		return m, m.typeRunes(msg.Runes)
	}
	return m, nil
}

func (m *Model) typeRunes(runes []rune) tea.Cmd {
	m.following = true
	for _, r := range runes {
		if m.ctrl.State().Done {
			return nil
		}
		out, err := m.ctrl.ApplyKeystroke(context.Background(), r)
		if errors.Is(err, session.ErrDone) {
			return nil
		}
		if err != nil {
			m.logger.Error("keystroke failed", "err", err)
			m.err = err
			return tea.Quit
		}
		if out.Attempt != nil {
			m.logger.Info("attempt recorded",
				"succeeded", out.Attempt.Succeeded,
				"start", out.Attempt.StartIndex,
				"end", out.Attempt.EndIndex,
				"duration", out.Attempt.Duration(),
			)
		}
		if out.BookComplete {
			m.logger.Info("book complete", "book", m.config.Book)
		}
	}
	return nil
}

func (m *Model) scroll(delta int) {
	m.following = false
	m.displayLine = max(m.displayLine+delta, 0)
	if m.indexer != nil {
		m.displayLine = min(m.displayLine, m.indexer.Layout().LineCount())
	}
}

func (m *Model) widthPct() int {
	if m.fullWidth {
		return m.config.FullWidthPct
	}
	return m.config.WidthPct
}

func (m *Model) textWidth() int {
	return max(m.width*m.widthPct()/100, 1)
}

func (m *Model) relayout() error {
	if m.width <= 0 {
		return nil
	}
	width := m.textWidth()
	if m.indexer == nil {
		ix, err := layout.NewIndexer(m.ctrl.Text(), width)
		if err != nil {
			return fmt.Errorf("failed to lay out book: %w", err)
		}
		m.indexer = ix
	} else if err := m.indexer.Resize(width); err != nil {
		return fmt.Errorf("failed to lay out book: %w", err)
	}
	m.logger.Debug("layout", "width", width, "lines", m.indexer.Layout().LineCount())
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 || m.indexer == nil {
		return ""
	}
	header := m.renderHeader()
	footer := m.help.View(m.keys)
	bodyHeight := max(m.height-2, 1)

	var body string
	if m.ctrl.State().Done {
		body = m.renderComplete(bodyHeight)
	} else {
		var err error
		body, err = m.renderText(bodyHeight)
		if err != nil {
			m.logger.Error("render failed", "err", err)
			body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, errorStyle.Render(err.Error()))
		}
	}
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) renderHeader() string {
	left := titleStyle.Render("booktype") + headerStyle.Render("  "+m.config.Book)
	text := m.ctrl.Text()
	progress := 0.0
	if len(text) > 0 {
		progress = float64(m.ctrl.State().Sample.Start) / float64(len(text)) * 100
	}
	right := headerStyle.Render(fmt.Sprintf("%.1f%%  avg ", progress)) + titleStyle.Render(fmt.Sprintf("%d", m.ctrl.RollingAverage()))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderText(rows int) (string, error) {
	l := m.indexer.Layout()
	st := m.ctrl.State()
	var b bounds
	var err error
	if b.start, err = l.Position(st.Sample.Start); err != nil {
		return "", err
	}
	if b.cursor, err = l.Position(st.Sample.Start + st.Cursor); err != nil {
		return "", err
	}
	if b.end, err = l.Position(st.Sample.End()); err != nil {
		return "", err
	}

	if m.following {
		m.displayLine = b.cursor.Line
	}
	vis := placeLines(rows, m.displayLine, l.LineCount())
	textWidth := m.textWidth()
	margin := strings.Repeat(" ", max((m.width-textWidth)/2, 0))

	out := make([]string, 0, rows)
	for i := 0; i < vis.blankTop && len(out) < rows; i++ {
		out = append(out, "")
	}
	lines := l.Lines()
	for row := vis.first; row < vis.last; row++ {
		out = append(out, margin+renderLine(lines[row], row, b, textWidth))
	}
	for len(out) < rows {
		out = append(out, "")
	}
	return strings.Join(out, "\n"), nil
}

func (m *Model) renderComplete(rows int) string {
	msg := titleStyle.Render("Book complete") + "\n\n" +
		headerStyle.Render(fmt.Sprintf("You typed %s to the end.", m.config.Book)) + "\n" +
		headerStyle.Render("Press ctrl+c to exit.")
	return lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center, completeStyle.Render(msg))
}
