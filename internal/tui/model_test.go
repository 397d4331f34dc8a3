package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/perflog"
	"github.com/verte-zerg/booktype/internal/session"
)

type nopKeys struct {
	err error
}

func (k nopKeys) AppendKeystroke(context.Context, model.Keystroke) error {
	return k.err
}

const fox = "the quick brown fox jumps over the lazy dog "

func newTestModel(t *testing.T, text string, keys session.KeystrokeSink) *Model {
	t.Helper()
	ctrl := session.New([]rune(text), perflog.New(nil, nil), keys)
	if err := ctrl.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	m := NewModel(model.Config{Book: "fox", WidthPct: 50, FullWidthPct: 100}, ctrl, nil)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	return m
}

func typeText(m *Model, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestModelTypingAdvancesCursor(t *testing.T) {
	m := newTestModel(t, fox, nopKeys{})
	typeText(m, "the qu")
	if got := m.ctrl.State().Cursor; got != 6 {
		t.Fatalf("expected cursor 6, got %d", got)
	}
	view := m.View()
	if !strings.Contains(view, "booktype") || !strings.Contains(view, "avg") {
		t.Fatalf("expected header in view:\n%s", view)
	}
}

func TestModelMistypeRestartsSample(t *testing.T) {
	m := newTestModel(t, fox, nopKeys{})
	typeText(m, "thx")
	st := m.ctrl.State()
	if st.Cursor != 0 || st.Sample.Start != 0 {
		t.Fatalf("expected restart at 0, got %+v", st)
	}
}

func TestModelToggleFullWidthRewraps(t *testing.T) {
	m := newTestModel(t, fox, nopKeys{})
	if got := m.indexer.Layout().Width(); got != 20 {
		t.Fatalf("expected width 20, got %d", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	if got := m.indexer.Layout().Width(); got != 40 {
		t.Fatalf("expected full width 40, got %d", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	if got := m.indexer.Layout().Width(); got != 20 {
		t.Fatalf("expected width 20 after toggling back, got %d", got)
	}
}

func TestModelScrollAndFollow(t *testing.T) {
	m := newTestModel(t, fox, nopKeys{})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.following || m.displayLine != 2 {
		t.Fatalf("expected manual scroll to line 2, got following=%v line=%d", m.following, m.displayLine)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlUp})
	if m.displayLine != 0 {
		t.Fatalf("expected scroll clamped at 0, got %d", m.displayLine)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlDown})
	if m.displayLine != m.indexer.Layout().LineCount() {
		t.Fatalf("expected scroll clamped at line count, got %d", m.displayLine)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	_ = m.View()
	if !m.following || m.displayLine != 0 {
		t.Fatalf("expected follow mode back on cursor line, got following=%v line=%d", m.following, m.displayLine)
	}
}

func TestModelTypingFollowsCursorAfterScroll(t *testing.T) {
	m := newTestModel(t, fox, nopKeys{})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.following {
		t.Fatalf("expected manual scroll to stop following")
	}
	typeText(m, "t")
	_ = m.View()
	if !m.following || m.displayLine != 0 {
		t.Fatalf("expected typing to follow the cursor line, got following=%v line=%d", m.following, m.displayLine)
	}
}

func TestModelBookComplete(t *testing.T) {
	m := newTestModel(t, "ab cd ", nopKeys{})
	typeText(m, "ab cd")
	if !m.ctrl.State().Done {
		t.Fatalf("expected book complete")
	}
	if !strings.Contains(m.View(), "Book complete") {
		t.Fatalf("expected completion screen:\n%s", m.View())
	}
	typeText(m, "x")
	if m.Err() != nil {
		t.Fatalf("expected keys after completion to be ignored, got %v", m.Err())
	}
}

func TestModelQuitsOnPersistError(t *testing.T) {
	m := newTestModel(t, fox, nopKeys{err: errors.New("disk full")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if !errors.Is(m.Err(), session.ErrPersist) {
		t.Fatalf("expected persist error, got %v", m.Err())
	}
}
