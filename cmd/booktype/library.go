package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/booktype/internal/book"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import .txt or .pdf books into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(_ *cobra.Command, args []string) error {
	for _, src := range args {
		logErrf("Importing %s...\n", src)
		title, err := book.Import(src, libDir)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", src, err)
		}
		logErrf("Imported %q. Practice with: booktype %s\n", title, title)
	}
	return nil
}

func newBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List imported books and progress",
		Args:  cobra.NoArgs,
		RunE:  runBooksCmd,
	}
}

func runBooksCmd(cmd *cobra.Command, _ []string) error {
	books, err := book.List(libDir)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		logErrln("No books found. Import one with: booktype import <file>")
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	furthest, err := st.FurthestByBook(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	logger := cliLogger()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if err := writeOut(w, "TITLE\tSIZE\tCHARS\tPROGRESS\tMODIFIED\n"); err != nil {
		return err
	}
	for _, b := range books {
		b.Progress = furthest[b.Title]
		pct := 0.0
		if b.Chars > 0 {
			pct = min(100, float64(b.Progress)/float64(b.Chars)*100)
		} else {
			logger.Warn("book has no text", "title", b.Title, "path", b.Path)
		}
		if err := writeOut(w, "%s\t%s\t%s\t%.1f%%\t%s\n",
			b.Title,
			humanize.Bytes(uint64(b.Size)),
			humanize.Comma(int64(b.Chars)),
			pct,
			humanize.Time(b.Modified),
		); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
