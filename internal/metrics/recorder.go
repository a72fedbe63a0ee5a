package metrics

import "time"

// ResultLabel enumerates job/mode pair result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// RunOutcomeLabel enumerates the final status of a deploy run.
type RunOutcomeLabel string

const (
	RunOutcomeSuccess  RunOutcomeLabel = "success"
	RunOutcomePartial  RunOutcomeLabel = "partial"
	RunOutcomeFailed   RunOutcomeLabel = "failed"
	RunOutcomeCanceled RunOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for deploy runs.
type Recorder interface {
	ObservePairDuration(job, mode string, d time.Duration)
	IncPairResult(job, mode string, result ResultLabel)
	IncAction(action string)
	ObserveImageBuildDuration(job, mode string, d time.Duration, success bool)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcomeLabel)
	SetLastRun(t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePairDuration(string, string, time.Duration)             {}
func (NoopRecorder) IncPairResult(string, string, ResultLabel)                     {}
func (NoopRecorder) IncAction(string)                                              {}
func (NoopRecorder) ObserveImageBuildDuration(string, string, time.Duration, bool) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                              {}
func (NoopRecorder) IncRunOutcome(RunOutcomeLabel)                                 {}
func (NoopRecorder) SetLastRun(time.Time)                                          {}
