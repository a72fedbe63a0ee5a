package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bdeep/internal/deploy"
	"git.home.luguber.info/inful/bdeep/internal/history"
	"git.home.luguber.info/inful/bdeep/internal/metrics"
	"git.home.luguber.info/inful/bdeep/internal/notify"
)

// DeployCmd implements the 'deploy' command.
type DeployCmd struct {
	DeployFlags `embed:""`

	JobsFile    string `arg:"" name:"jobs-file" help:"Job list (JSON or YAML)" type:"existingfile"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile after the run" env:"BDEEP_METRICS_FILE"`
}

func (d *DeployCmd) Run(_ *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	jobs, err := d.loadJobs(d.JobsFile)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if d.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	sinks, closeSinks, err := openSinks(&d.DeployFlags)
	if err != nil {
		return err
	}
	defer closeSinks()

	driver, err := d.newDriver(recorder, sinks)
	if err != nil {
		return err
	}
	_, runErr := driver.Run(ctx, jobs)

	if reg != nil {
		if err := metrics.WriteTextfile(reg, d.MetricsFile); err != nil {
			slog.Warn("Failed to write metrics textfile", "path", d.MetricsFile, "error", err)
		}
	}
	return runErr
}

// openSinks opens the history store and NATS publisher the flags ask for.
// The returned func closes whatever was opened.
func openSinks(f *DeployFlags) ([]deploy.Sink, func(), error) {
	var sinks []deploy.Sink
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if f.HistoryDB != "" {
		store, err := history.NewSQLiteStore(f.HistoryDB)
		if err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, store)
		closers = append(closers, func() { _ = store.Close() })
	}
	if f.NATSURL != "" {
		pub, err := notify.NewPublisher(f.NATSURL, f.NATSPrefix)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, pub)
		closers = append(closers, pub.Close)
	}
	return sinks, closeAll, nil
}
