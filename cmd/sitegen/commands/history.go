package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/sitegen/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `name:"limit" default:"20" help:"Maximum number of builds to list"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	store, err := history.OpenAt(root.Site)
	if err != nil {
		return fmt.Errorf("open build history: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return fmt.Errorf("read build history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No builds recorded yet")
		return nil
	}
	printHistory(os.Stdout, records)
	return nil
}

// printHistory renders history rows newest-first as a fixed-width table.
func printHistory(w io.Writer, records []history.Record) {
	fmt.Fprintf(w, "%-20s %-9s %9s %6s %6s %6s  %s\n", "STARTED", "OUTCOME", "DURATION", "POSTS", "PAGES", "FILES", "BUILD ID")
	for _, rec := range records {
		fmt.Fprintf(w, "%-20s %-9s %7dms %6d %6d %6d  %s\n",
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Outcome,
			rec.DurationMS,
			rec.Posts,
			rec.Pages,
			rec.FilesRendered,
			rec.BuildID)
	}
}
