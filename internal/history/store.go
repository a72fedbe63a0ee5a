// Package history persists the outcome of every deployed job/mode pair.
package history

import (
	"context"
	"time"

	"git.home.luguber.info/inful/bdeep/internal/deploy"
)

// Record is one stored pair outcome.
type Record struct {
	ID       int64
	RunID    string
	Job      string
	Mode     string
	Action   string
	Built    bool
	Tag      string
	Entry    string
	DryRun   bool
	Started  time.Time
	Duration time.Duration
	// Error is empty for successful pairs.
	Error string
}

// Succeeded reports whether the pair completed without error.
func (r Record) Succeeded() bool { return r.Error == "" }

// Query narrows Recent. Zero fields match everything.
type Query struct {
	Job   string
	Mode  string
	Limit int
}

// Store is the deployment history contract.
type Store interface {
	RecordPair(ctx context.Context, result deploy.PairResult) error
	Recent(ctx context.Context, q Query) ([]Record, error)
	ByRun(ctx context.Context, runID string) ([]Record, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// FromPairResult converts a driver result into a record.
func FromPairResult(r deploy.PairResult) Record {
	rec := Record{
		RunID:    r.RunID,
		Job:      r.Job,
		Mode:     r.Mode,
		Action:   string(r.Action),
		Built:    r.Built,
		Tag:      r.Tag,
		Entry:    r.Entry,
		DryRun:   r.DryRun,
		Started:  r.Started,
		Duration: r.Duration,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}
