package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Action is what the driver did to a working copy.
type Action string

const (
	// ActionNone means the working copy was verified and up to date.
	ActionNone Action = "none"
	// ActionClone means no working copy existed and one was cloned.
	ActionClone Action = "clone"
	// ActionUpdate means the working copy was behind origin and was pulled.
	ActionUpdate Action = "update"
	// ActionReclone means a working copy with the wrong remote or branch was
	// removed and cloned again.
	ActionReclone Action = "reclone"
)

// Changed reports whether the action modified the working copy, which is
// exactly when the image must be rebuilt.
func (a Action) Changed() bool { return a != ActionNone && a != "" }

// FailurePolicy decides what happens to the remaining pairs after one fails.
type FailurePolicy string

const (
	// PolicyContinue logs the failure and moves on; the run fails at the end.
	PolicyContinue FailurePolicy = "continue"
	// PolicyAbort stops the run at the first failing pair.
	PolicyAbort FailurePolicy = "abort"
)

// ParseFailurePolicy parses a policy name; the empty string means PolicyContinue.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyContinue:
		return PolicyContinue, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (want continue or abort)", s)
	}
}

// ImageTag returns the image tag built for a job/branch combination.
func ImageTag(job, branch string) string {
	return "bdeep-" + job + "-" + branch
}

// PairResult is the outcome of processing one job/mode pair.
type PairResult struct {
	RunID    string
	Job      string
	Mode     string
	Path     string
	Tag      string
	Action   Action
	Built    bool
	Command  string
	Entry    string
	DryRun   bool
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Failed reports whether the pair failed.
func (r PairResult) Failed() bool { return r.Err != nil }

// Sink receives every pair result as soon as it is known. Sink errors are
// logged and never fail the run.
type Sink interface {
	RecordPair(ctx context.Context, result PairResult) error
}

// Report summarises a deploy run.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	DryRun   bool
	Pairs    []PairResult
	// Aborted is set when the run stopped before visiting every pair.
	Aborted bool
}

// Failed counts failed pairs.
func (r *Report) Failed() int {
	n := 0
	for _, p := range r.Pairs {
		if p.Failed() {
			n++
		}
	}
	return n
}

// Actions counts pairs per working copy action.
func (r *Report) Actions() map[Action]int {
	counts := map[Action]int{}
	for _, p := range r.Pairs {
		if p.Action != "" {
			counts[p.Action]++
		}
	}
	return counts
}

// Built counts pairs whose image was rebuilt.
func (r *Report) Built() int {
	n := 0
	for _, p := range r.Pairs {
		if p.Built {
			n++
		}
	}
	return n
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }
