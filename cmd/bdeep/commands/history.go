package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	HistoryDB string        `name:"history-db" help:"SQLite database written by deploy --history-db" required:"" env:"BDEEP_HISTORY_DB"`
	Job       string        `name:"job" help:"Only show this job"`
	Mode      string        `name:"mode" help:"Only show this mode"`
	Limit     int           `name:"limit" short:"n" help:"Maximum rows" default:"50"`
	RunID     string        `name:"run" help:"Show every pair of one run"`
	Prune     time.Duration `name:"prune" help:"Delete records older than this duration and exit"`
}

func (h *HistoryCmd) Run(_ *Global, _ *CLI) error {
	if _, err := os.Stat(h.HistoryDB); err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "history database not found").
			WithContext("path", h.HistoryDB).
			Build()
	}
	store, err := history.NewSQLiteStore(h.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.Prune > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-h.Prune))
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d records\n", n)
		return nil
	}

	var records []history.Record
	if h.RunID != "" {
		records, err = store.ByRun(ctx, h.RunID)
	} else {
		records, err = store.Recent(ctx, history.Query{Job: h.Job, Mode: h.Mode, Limit: h.Limit})
	}
	if err != nil {
		return err
	}
	return writeRecords(os.Stdout, records)
}

func writeRecords(out io.Writer, records []history.Record) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tJOB\tMODE\tACTION\tBUILT\tDURATION\tRESULT")
	for _, r := range records {
		result := "ok"
		if !r.Succeeded() {
			result = r.Error
		}
		if r.DryRun {
			result = "dry-run " + result
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
			r.Started.Local().Format(time.DateTime),
			r.Job, r.Mode, r.Action, r.Built,
			r.Duration.Round(time.Millisecond), result)
	}
	return w.Flush()
}
