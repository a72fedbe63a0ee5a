// Package commands holds the bdeep subcommands.
package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bdeep/internal/config"
	"git.home.luguber.info/inful/bdeep/internal/deploy"
	"git.home.luguber.info/inful/bdeep/internal/docker"
	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/git"
	"git.home.luguber.info/inful/bdeep/internal/metrics"
	"git.home.luguber.info/inful/bdeep/internal/schedule"
	"git.home.luguber.info/inful/bdeep/internal/workspace"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "BDEEP_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Deploy   DeployCmd   `cmd:"" help:"Synchronize checkouts, rebuild images and write cron entries"`
	Run      RunCmd      `cmd:"" help:"Run a job from its manifest inside the container"`
	Validate ValidateCmd `cmd:"" help:"Load and validate a job list"`
	Daemon   DaemonCmd   `cmd:"" help:"Redeploy on a schedule and when the job list changes"`
	History  HistoryCmd  `cmd:"" help:"Show recent deployment outcomes"`
	Init     InitCmd     `cmd:"" help:"Write an example job list"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if env := os.Getenv(LogLevelEnv); env != "" {
		level = parseLevel(env, level)
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return fallback
	}
	return level
}

// DeployFlags are shared by deploy and daemon.
type DeployFlags struct {
	ProjectsRoot  string   `name:"projects-root" help:"Directory holding working copies" default:"projects" env:"BDEEP_PROJECTS_ROOT"`
	CronDir       string   `name:"cron-dir" help:"Directory cron entries are written to" default:"/etc/cron.d" env:"BDEEP_CRON_DIR"`
	DockerBin     string   `name:"docker-bin" help:"Docker CLI binary" default:"docker" env:"BDEEP_DOCKER_BIN"`
	BuildArgs     []string `name:"build-arg" help:"Extra argument passed to docker build (repeatable)"`
	OnError       string   `name:"on-error" help:"Failure policy: continue or abort" default:"continue" enum:"continue,abort" env:"BDEEP_ON_ERROR"`
	OnlyJob       string   `name:"only-job" help:"Process only this job"`
	OnlyMode      string   `name:"only-mode" help:"Process only this mode"`
	DryRun        bool     `name:"dry-run" help:"Decide and log actions without changing anything"`
	HistoryDB     string   `name:"history-db" help:"SQLite database recording pair outcomes" env:"BDEEP_HISTORY_DB"`
	NATSURL       string   `name:"nats-url" help:"NATS server receiving deployment events" env:"BDEEP_NATS_URL"`
	NATSPrefix    string   `name:"nats-subject-prefix" help:"Subject prefix for deployment events" default:"bdeep.deploy"`
	GitToken      string   `name:"git-token" help:"Token for HTTPS remotes" env:"BDEEP_GIT_TOKEN"`
	GitUser       string   `name:"git-username" help:"Username for HTTPS remotes" env:"BDEEP_GIT_USERNAME"`
	GitPassword   string   `name:"git-password" help:"Password for HTTPS remotes" env:"BDEEP_GIT_PASSWORD"`
	SSHKey        string   `name:"ssh-key" help:"Private key for SSH remotes" env:"BDEEP_SSH_KEY"`
	SSHPassphrase string   `name:"ssh-passphrase" help:"Passphrase of the SSH key" env:"BDEEP_SSH_PASSPHRASE"`
}

func (f *DeployFlags) auth() git.AuthConfig {
	return git.AuthConfig{
		Token:         f.GitToken,
		Username:      f.GitUser,
		Password:      f.GitPassword,
		SSHKeyPath:    f.SSHKey,
		SSHPassphrase: f.SSHPassphrase,
	}
}

// loadJobs loads the job list and applies the --only-job/--only-mode filters.
func (f *DeployFlags) loadJobs(path string) ([]config.Job, error) {
	jobs, err := config.LoadJobs(path)
	if err != nil {
		return nil, err
	}
	return config.Filter(jobs, f.OnlyJob, f.OnlyMode), nil
}

// newDriver wires a deploy driver. Sinks and recorder are supplied by the caller.
func (f *DeployFlags) newDriver(recorder metrics.Recorder, sinks []deploy.Sink) (*deploy.Driver, error) {
	policy, err := deploy.ParseFailurePolicy(f.OnError)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid --on-error value").Fatal().Build()
	}
	ws := workspace.NewManager(f.ProjectsRoot)
	return deploy.New(deploy.Options{
		Workspace: ws,
		Repo:      git.NewClient(git.WithAuth(f.auth()), git.WithWorkspace(ws)),
		Builder:   docker.NewCLIBuilder(f.DockerBin, f.BuildArgs...),
		Schedules: schedule.NewWriter(f.CronDir),
		Recorder:  recorder,
		Sinks:     sinks,
		Policy:    policy,
		DryRun:    f.DryRun,
	})
}
