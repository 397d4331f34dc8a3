package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/booktype/internal/book"
	"github.com/verte-zerg/booktype/internal/config"
	"github.com/verte-zerg/booktype/internal/export"
	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/stats"
	"github.com/verte-zerg/booktype/internal/statsui"
)

var (
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	exportFormat string
	exportOutput string

	resetYes bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [book]",
		Short: "Show stats",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N attempts")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the TUI")
	return cmd
}

func statsConfig(args []string) (model.StatsConfig, error) {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	cfg := model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}
	if len(args) > 0 {
		cfg.Book = args[0]
	}
	return cfg, nil
}

func runStatsCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.CurveWindow)
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	cfg, err := statsConfig(args)
	if err != nil {
		return err
	}
	if cfg.Book == "" && fileCfg.Practice.Book != nil {
		cfg.Book = *fileCfg.Practice.Book
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	bookChars := func(title string) int {
		if title == "" {
			return 0
		}
		text, err := book.Load(libDir, title)
		if err != nil {
			cliLogger().Warn("book length unknown", "title", title, "err", err)
			return 0
		}
		return len(text)
	}

	out := cmd.OutOrStdout()
	if statsPlain || !isTerminal(out) {
		report, err := stats.BuildReport(context.Background(), st, cfg, bookChars(cfg.Book))
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return renderPlainStats(out, report, cfg.CurveWindow)
	}

	m := statsui.NewModel(st, cfg, bookChars)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainStats(w io.Writer, report stats.Report, window int) error {
	if err := stats.RenderSummary(w, report.Summary); err != nil {
		return err
	}
	if err := stats.RenderCurves(w, report.Rows, window, 0, 10, false); err != nil {
		return err
	}
	return stats.RenderKeyTable(w, report.KeysAll)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [book]",
		Short: "Export the attempt log as JSON or YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json, yaml)")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N attempts")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) (err error) {
	cfg, err := statsConfig(args)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	rows, err := st.ListAttemptRows(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to load attempts: %w", err)
	}

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, ferr := os.Create(exportOutput)
		if ferr != nil {
			return fmt.Errorf("failed to create output: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output: %w", cerr)
			}
		}()
		out = f
	}
	if err := export.Write(out, exportFormat, rows); err != nil {
		return err
	}
	if exportOutput != "" {
		logErrf("Exported %d attempts to %s\n", len(rows), exportOutput)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <book>",
		Short: "Delete the practice history of a book",
		Args:  cobra.ExactArgs(1),
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "confirm deletion")
	return cmd
}

func runResetCmd(_ *cobra.Command, args []string) error {
	title := args[0]
	if !resetYes {
		return fmt.Errorf("refusing to delete the history of %q without --yes", title)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	n, err := st.DeleteBook(context.Background(), title)
	if err != nil {
		return fmt.Errorf("failed to reset %s: %w", title, err)
	}
	logErrf("Deleted %d attempts of %q\n", n, title)
	return nil
}
