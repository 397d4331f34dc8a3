package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/store"
)

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct {
		in, next, prev int
	}{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{20, 25, 15},
	}
	for _, tc := range cases {
		if got := nextCurveWindow(tc.in); got != tc.next {
			t.Fatalf("next(%d): expected %d, got %d", tc.in, tc.next, got)
		}
		if got := prevCurveWindow(tc.in); got != tc.prev {
			t.Fatalf("prev(%d): expected %d, got %d", tc.in, tc.prev, got)
		}
	}
}

func TestParseFilter(t *testing.T) {
	cfg, err := parseFilter([4]string{"moby", "2024-02-01", "30", "10"})
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cfg.Book != "moby" || cfg.Last != 30 || cfg.CurveWindow != 10 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Since == nil || cfg.Since.Day() != 1 || cfg.Since.Month() != time.February {
		t.Fatalf("unexpected since: %v", cfg.Since)
	}

	bad := [][4]string{
		{"", "yesterday", "", ""},
		{"", "", "-1", ""},
		{"", "", "", "0"},
	}
	for _, values := range bad {
		if _, err := parseFilter(values); err == nil {
			t.Fatalf("expected error for %v", values)
		}
	}
}

func TestModelRendersOverview(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "booktype.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 3; i++ {
		a := model.Attempt{Succeeded: true, StartIndex: i * 40, EndIndex: i*40 + 40, StartedAt: now, CompletedAt: now.Add(20 * time.Second)}
		if _, err := st.InsertAttempt(ctx, "moby", "run", a); err != nil {
			t.Fatalf("insert attempt: %v", err)
		}
	}

	m := NewModel(st, model.StatsConfig{Book: "moby", CurveWindow: 5}, func(string) int { return 400 })
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	if !strings.Contains(view, "Attempts") || !strings.Contains(view, "book=moby") {
		t.Fatalf("expected overview cards and filter summary, got:\n%s", view)
	}
	if !strings.Contains(view, "30.0%") {
		t.Fatalf("expected progress card, got:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabKeyTable {
		t.Fatalf("expected key table tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "No key stats found.") {
		t.Fatalf("expected empty key table message")
	}
}
