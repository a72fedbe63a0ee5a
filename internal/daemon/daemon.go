package daemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/metrics"
)

// Trigger reasons reported to RunFunc.
const (
	ReasonStartup  = "startup"
	ReasonSchedule = "schedule"
	ReasonJobsFile = "jobs-file"
)

// RunFunc executes one deploy run. reason says what triggered it.
type RunFunc func(ctx context.Context, reason string) error

// Config controls when the daemon triggers runs.
type Config struct {
	// Every triggers a run at a fixed interval. Ignored when Cron is set.
	Every time.Duration
	// Cron triggers runs on a five-field cron expression.
	Cron string
	// WatchFile triggers a run when the file changes. Empty disables watching.
	WatchFile string
	Debounce  time.Duration
	// MetricsAddr serves /metrics and /healthz. Empty disables the listener.
	MetricsAddr string
	Registry    *prometheus.Registry
	RunOnStart  bool
}

// Status describes the most recent run.
type Status struct {
	Runs       int       `json:"runs"`
	Running    bool      `json:"running"`
	LastReason string    `json:"last_reason,omitempty"`
	LastStart  time.Time `json:"last_start,omitzero"`
	LastEnd    time.Time `json:"last_end,omitzero"`
	LastError  string    `json:"last_error,omitempty"`
}

// Daemon serializes deploy runs coming from the scheduler, the file watcher
// and startup.
type Daemon struct {
	cfg Config
	run RunFunc

	triggers chan string

	mu     sync.RWMutex
	status Status

	listenAddr string
	ready      chan struct{}
}

// New validates cfg and creates a daemon.
func New(cfg Config, run RunFunc) (*Daemon, error) {
	if run == nil {
		return nil, errors.InternalError("daemon requires a run function").Build()
	}
	if cfg.Cron == "" && cfg.Every <= 0 && cfg.WatchFile == "" {
		return nil, errors.DaemonError("daemon needs a schedule or a watched file").
			Fatal().
			Build()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Daemon{
		cfg: cfg,
		run: run,
		// capacity 1: a trigger that arrives while one is pending is dropped
		triggers: make(chan string, 1),
		ready:    make(chan struct{}),
	}, nil
}

// Trigger requests a run. It reports false when a run is already pending.
func (d *Daemon) Trigger(reason string) bool {
	select {
	case d.triggers <- reason:
		return true
	default:
		slog.Debug("Run already pending, trigger coalesced", "reason", reason)
		return false
	}
}

// Status returns a snapshot of the run state.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Ready is closed once all trigger sources are active.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// ListenAddr is the bound metrics address, available after Ready.
func (d *Daemon) ListenAddr() string { return d.listenAddr }

// Run starts the trigger sources and processes runs until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	sched, err := NewScheduler()
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to create scheduler").Fatal().Build()
	}
	if err := d.schedule(sched); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(context.Background()); err != nil {
			slog.Warn("Scheduler shutdown failed", "error", err)
		}
	}()

	if d.cfg.WatchFile != "" {
		watcher, err := NewFileWatcher(d.cfg.WatchFile, d.cfg.Debounce, func() { d.Trigger(ReasonJobsFile) })
		if err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "failed to create job list watcher").Fatal().Build()
		}
		if err := watcher.Start(ctx); err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "failed to watch job list").
				WithContext("path", d.cfg.WatchFile).
				Fatal().
				Build()
		}
		defer func() { _ = watcher.Stop() }()
	}

	var srv *http.Server
	if d.cfg.MetricsAddr != "" {
		srv, err = d.serve()
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if d.cfg.RunOnStart {
		d.Trigger(ReasonStartup)
	}
	close(d.ready)
	slog.Info("Daemon started",
		"every", d.cfg.Every.String(),
		"cron", d.cfg.Cron,
		"watch", d.cfg.WatchFile,
		"metrics_addr", d.listenAddr)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Daemon stopping")
			return nil
		case reason := <-d.triggers:
			d.execute(ctx, reason)
		}
	}
}

func (d *Daemon) schedule(sched *Scheduler) error {
	task := func() { d.Trigger(ReasonSchedule) }
	switch {
	case d.cfg.Cron != "":
		if _, err := sched.ScheduleCron("deploy", d.cfg.Cron, task); err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "invalid daemon cron expression").
				WithContext("cron", d.cfg.Cron).
				Fatal().
				Build()
		}
	case d.cfg.Every > 0:
		if _, err := sched.ScheduleEvery("deploy", d.cfg.Every, task); err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "invalid daemon interval").Fatal().Build()
		}
	}
	return nil
}

func (d *Daemon) execute(ctx context.Context, reason string) {
	d.mu.Lock()
	d.status.Running = true
	d.status.LastReason = reason
	d.status.LastStart = time.Now()
	d.mu.Unlock()

	slog.Info("Deploy run triggered", "reason", reason)
	err := d.run(ctx, reason)

	d.mu.Lock()
	d.status.Running = false
	d.status.Runs++
	d.status.LastEnd = time.Now()
	d.status.LastError = ""
	if err != nil {
		d.status.LastError = err.Error()
	}
	d.mu.Unlock()

	if err != nil {
		slog.Error("Deploy run failed", "reason", reason, "error", err)
	}
}

func (d *Daemon) serve() (*http.Server, error) {
	ln, err := net.Listen("tcp", d.cfg.MetricsAddr)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to listen for metrics").
			WithContext("addr", d.cfg.MetricsAddr).
			Fatal().
			Build()
	}
	d.listenAddr = ln.Addr().String()

	mux := http.NewServeMux()
	if d.cfg.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(d.cfg.Registry))
	}
	mux.HandleFunc("/healthz", d.handleHealth)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	return srv, nil
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := d.Status()
	w.Header().Set("Content-Type", "application/json")
	if status.LastError != "" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
