// Package main provides the CLI entrypoint for booktype.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/booktype/internal/book"
	"github.com/verte-zerg/booktype/internal/config"
	"github.com/verte-zerg/booktype/internal/logging"
	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/perflog"
	"github.com/verte-zerg/booktype/internal/session"
	"github.com/verte-zerg/booktype/internal/store"
	"github.com/verte-zerg/booktype/internal/tui"
)

const (
	defaultWidthPct     = 60
	defaultFullWidthPct = 95
	defaultCurveWindow  = 20
	defaultLogLevel     = "info"
)

var (
	dbPath   string
	libDir   string
	logLevel string

	practiceWidth     int
	practiceFullWidth int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "booktype [book]",
		Short:         "Practice typing by copying a book",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&libDir, "library", config.DefaultBookDir(), "directory holding imported books")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.Flags().IntVar(&practiceWidth, "width", defaultWidthPct, "text width in percent of the terminal")
	rootCmd.Flags().IntVar(&practiceFullWidth, "full-width", defaultFullWidthPct, "text width in percent when toggled with ctrl+f")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newBooksCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	title := ""
	if fileCfg.Practice.Book != nil {
		title = *fileCfg.Practice.Book
	}
	if len(args) > 0 {
		title = args[0]
	}
	applyIntConfig(cmd, "width", &practiceWidth, fileCfg.Practice.WidthPct)
	applyIntConfig(cmd, "full-width", &practiceFullWidth, fileCfg.Practice.FullWidthPct)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Practice.LogLevel)

	cfg := model.Config{
		Book:         title,
		WidthPct:     practiceWidth,
		FullWidthPct: practiceFullWidth,
		RunID:        uuid.NewString(),
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	text, err := book.Load(libDir, cfg.Book)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			logErrf("Import it first: booktype import <file>\n")
		}
		return fmt.Errorf("failed to load book: %w", err)
	}

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger, logFile, err := logging.OpenFile(config.DefaultLogPath(), level)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()
	logger = logger.With("book", cfg.Book, "run", cfg.RunID)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	bl := st.BookLog(cfg.Book, cfg.RunID)
	history := perflog.Load(ctx, bl, bl, logger)
	logger.Info("practice started", "chars", len(text), "attempts", history.Len())

	ctrl := session.New(text, history, bl, session.WithLogger(logger))
	if err := ctrl.Start(); err != nil {
		return fmt.Errorf("failed to start practice: %w", err)
	}

	m := tui.NewModel(cfg, ctrl, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if err := m.Err(); err != nil {
		return fmt.Errorf("practice stopped: %w", err)
	}
	logger.Info("practice finished", "attempts", history.Len(), "rolling_average", history.RollingAverage())
	return nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Book == "" {
		return fmt.Errorf("no book given (pass a title or set practice.book in the config; see: booktype books)")
	}
	if cfg.WidthPct < 10 || cfg.WidthPct > 100 {
		return fmt.Errorf("--width must be between 10 and 100")
	}
	if cfg.FullWidthPct < 10 || cfg.FullWidthPct > 100 {
		return fmt.Errorf("--full-width must be between 10 and 100")
	}
	return nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// cliLogger logs warnings of non-interactive commands to stderr.
func cliLogger() *slog.Logger {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return logging.New(os.Stderr, max(level, slog.LevelWarn))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# booktype configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# book = "moby-dick"      # Book practiced when no title is given
# width = %d              # Text width in percent of the terminal
# full-width = %d         # Text width in percent when toggled with ctrl+f
# log-level = %q       # debug, info, warn or error

[stats]
# curve-window = %d       # Moving average window for learning curves
`,
		defaultWidthPct,
		defaultFullWidthPct,
		defaultLogLevel,
		defaultCurveWindow,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func writeOut(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
