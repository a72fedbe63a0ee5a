package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "bdeep"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	registry      *prom.Registry
	pairDuration  *prom.HistogramVec
	pairResults   *prom.CounterVec
	actions       *prom.CounterVec
	buildDuration *prom.HistogramVec
	runDuration   prom.Histogram
	runOutcomes   *prom.CounterVec
	lastRun       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.pairDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pair_duration_seconds",
			Help:      "Duration of one job/mode synchronization, build and schedule pass",
			Buckets:   prom.DefBuckets,
		}, []string{"job", "mode"})
		pr.pairResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pair_results_total",
			Help:      "Job/mode pair results by outcome",
		}, []string{"job", "mode", "result"})
		pr.actions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "repository_actions_total",
			Help:      "Working copy actions taken (none, clone, update, reclone)",
		}, []string{"action"})
		pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "image_build_duration_seconds",
			Help:      "Duration of container image builds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"job", "mode", "result"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total deploy run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Deploy runs by final status",
		}, []string{"outcome"})
		pr.lastRun = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last deploy run finished",
		})
		reg.MustRegister(pr.pairDuration, pr.pairResults, pr.actions, pr.buildDuration, pr.runDuration, pr.runOutcomes, pr.lastRun)
	})
	return pr
}

// Registry returns the registry the collectors are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObservePairDuration(job, mode string, d time.Duration) {
	if p == nil || p.pairDuration == nil {
		return
	}
	p.pairDuration.WithLabelValues(job, mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPairResult(job, mode string, result ResultLabel) {
	if p == nil || p.pairResults == nil {
		return
	}
	p.pairResults.WithLabelValues(job, mode, string(result)).Inc()
}

func (p *PrometheusRecorder) IncAction(action string) {
	if p == nil || p.actions == nil {
		return
	}
	p.actions.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) ObserveImageBuildDuration(job, mode string, d time.Duration, success bool) {
	if p == nil || p.buildDuration == nil {
		return
	}
	res := string(ResultFailed)
	if success {
		res = string(ResultSuccess)
	}
	p.buildDuration.WithLabelValues(job, mode, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcomeLabel) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetLastRun(t time.Time) {
	if p == nil || p.lastRun == nil {
		return
	}
	p.lastRun.Set(float64(t.Unix()))
}
