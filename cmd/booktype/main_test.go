package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/booktype/internal/config"
	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/store"
)

func TestValidateConfig(t *testing.T) {
	good := model.Config{Book: "moby", WidthPct: 60, FullWidthPct: 95}
	if err := validateConfig(good); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	bad := []model.Config{
		{WidthPct: 60, FullWidthPct: 95},
		{Book: "moby", WidthPct: 5, FullWidthPct: 95},
		{Book: "moby", WidthPct: 60, FullWidthPct: 101},
	}
	for _, cfg := range bad {
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	uncommented := strings.ReplaceAll(defaultConfigTemplate(), "# book =", "book =")
	if err := os.WriteFile(path, []byte(uncommented), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Practice.Book == nil || *cfg.Practice.Book != "moby-dick" {
		t.Fatalf("expected book from template, got %+v", cfg.Practice)
	}
}

func TestLibraryAndHistoryCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	db := filepath.Join(dir, "booktype.db")
	lib := filepath.Join(dir, "books")
	src := filepath.Join(dir, "moby.txt")
	if err := os.WriteFile(src, []byte("Call me Ishmael. Some years ago, never mind how long."), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	run := func(args ...string) (string, error) {
		t.Helper()
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(append(args, "--db", db, "--library", lib))
		err := cmd.Execute()
		return out.String(), err
	}

	if _, err := run("import", src); err != nil {
		t.Fatalf("import: %v", err)
	}

	st, err := store.Open(db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	now := time.Now()
	a := model.Attempt{Succeeded: true, StartIndex: 0, EndIndex: 17, StartedAt: now, CompletedAt: now.Add(5 * time.Second)}
	if _, err := st.InsertAttempt(context.Background(), "moby", "run", a); err != nil {
		t.Fatalf("insert attempt: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, err := run("books")
	if err != nil {
		t.Fatalf("books: %v", err)
	}
	if !strings.Contains(out, "moby") || !strings.Contains(out, "%") {
		t.Fatalf("expected moby with progress in listing:\n%s", out)
	}

	out, err = run("stats", "moby", "--plain")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Attempts: 1") {
		t.Fatalf("expected summary in stats output:\n%s", out)
	}

	out, err = run("export", "moby", "--format", "yaml")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "end_index: 17") {
		t.Fatalf("expected attempt in yaml export:\n%s", out)
	}

	if _, err := run("reset", "moby"); err == nil {
		t.Fatalf("expected reset without --yes to fail")
	}
	if _, err := run("reset", "moby", "--yes"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	out, err = run("export", "moby")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty export after reset, got %q", out)
	}
}
