package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bdeep/internal/daemon"
	"git.home.luguber.info/inful/bdeep/internal/metrics"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	DeployFlags `embed:""`

	JobsFile    string        `arg:"" name:"jobs-file" help:"Job list (JSON or YAML)" type:"existingfile"`
	Every       time.Duration `name:"every" help:"Redeploy interval" default:"15m" env:"BDEEP_EVERY"`
	Cron        string        `name:"cron" help:"Redeploy on this cron expression instead of --every" env:"BDEEP_CRON"`
	NoWatch     bool          `name:"no-watch" help:"Do not redeploy when the job list changes"`
	Debounce    time.Duration `name:"debounce" help:"Quiet period before a job list change triggers a run" default:"2s"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve /metrics and /healthz on this address" env:"BDEEP_METRICS_ADDR"`
	NoStartRun  bool          `name:"no-start-run" help:"Wait for the first trigger instead of deploying at startup"`
}

func (d *DaemonCmd) Run(_ *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// fail fast on a broken job list; later reloads only log
	if _, err := d.loadJobs(d.JobsFile); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics.RegisterRuntimeCollectors(reg)
	recorder := metrics.NewPrometheusRecorder(reg)

	sinks, closeSinks, err := openSinks(&d.DeployFlags)
	if err != nil {
		return err
	}
	defer closeSinks()

	driver, err := d.newDriver(recorder, sinks)
	if err != nil {
		return err
	}

	cfg := daemon.Config{
		Every:       d.Every,
		Cron:        d.Cron,
		Debounce:    d.Debounce,
		MetricsAddr: d.MetricsAddr,
		Registry:    reg,
		RunOnStart:  !d.NoStartRun,
	}
	if !d.NoWatch {
		cfg.WatchFile = d.JobsFile
	}

	dmn, err := daemon.New(cfg, func(ctx context.Context, reason string) error {
		jobs, err := d.loadJobs(d.JobsFile)
		if err != nil {
			slog.Error("Job list reload failed, skipping run", "reason", reason, "error", err)
			return err
		}
		_, err = driver.Run(ctx, jobs)
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("Starting daemon mode", "jobs_file", d.JobsFile)
	if err := dmn.Run(ctx); err != nil {
		return err
	}
	slog.Info("Daemon stopped successfully")
	return nil
}
