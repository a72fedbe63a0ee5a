package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/bdeep/internal/config"
	"git.home.luguber.info/inful/bdeep/internal/docker"
	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/logfields"
	"git.home.luguber.info/inful/bdeep/internal/metrics"
	"git.home.luguber.info/inful/bdeep/internal/schedule"
	"git.home.luguber.info/inful/bdeep/internal/workspace"
)

// Repo is the repository state contract the driver depends on.
type Repo interface {
	Exists(path string) bool
	Verify(path, remote, branch string) bool
	IsBehind(ctx context.Context, path string) (bool, error)
	Clone(ctx context.Context, path, remote, branch string) error
	Update(ctx context.Context, path string) error
	Remove(path string) error
}

// Options wires the driver's collaborators.
type Options struct {
	Workspace *workspace.Manager
	Repo      Repo
	Builder   docker.Builder
	Schedules *schedule.Writer
	Recorder  metrics.Recorder
	Sinks     []Sink
	Policy    FailurePolicy
	// DryRun decides and logs every pair without deleting, cloning, pulling,
	// building or writing entries.
	DryRun bool
	Logger *slog.Logger
}

// Driver runs the deploy loop.
type Driver struct {
	opts Options
}

// New validates opts and fills defaults.
func New(opts Options) (*Driver, error) {
	if opts.Repo == nil {
		return nil, errors.InternalError("deploy driver requires a repository client").Build()
	}
	if opts.Builder == nil {
		return nil, errors.InternalError("deploy driver requires an image builder").Build()
	}
	if opts.Workspace == nil {
		opts.Workspace = workspace.NewManager("")
	}
	if opts.Schedules == nil {
		opts.Schedules = schedule.NewWriter("")
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Policy == "" {
		opts.Policy = PolicyContinue
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Driver{opts: opts}, nil
}

// Run processes every job/mode pair in input order. The returned report is
// never nil. The error is non-nil when any pair failed, the run was aborted
// by policy, or ctx was cancelled between pairs.
func (d *Driver) Run(ctx context.Context, jobs []config.Job) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Started: time.Now(), DryRun: d.opts.DryRun}
	logger := d.opts.Logger.With(logfields.RunID(report.RunID))
	logger.Info("Deploy run starting",
		slog.Int("jobs", len(jobs)),
		slog.Int("pairs", config.Pairs(jobs)),
		slog.String("policy", string(d.opts.Policy)),
		slog.Bool("dry_run", d.opts.DryRun))

	var runErr error
	if !d.opts.DryRun {
		runErr = d.opts.Workspace.Create()
	}

loop:
	for _, job := range jobs {
		for _, mode := range job.Modes {
			if runErr != nil {
				break loop
			}
			if err := ctx.Err(); err != nil {
				runErr = errors.WrapError(err, errors.CategoryRuntime, "deploy run cancelled").Build()
				break loop
			}

			result := d.runPair(ctx, logger, report.RunID, job, mode)
			report.Pairs = append(report.Pairs, result)
			d.publish(ctx, logger, result)

			if result.Failed() && d.opts.Policy == PolicyAbort {
				runErr = result.Err
			}
		}
	}
	report.Finished = time.Now()
	report.Aborted = len(report.Pairs) < config.Pairs(jobs)

	if runErr == nil && report.Failed() > 0 {
		first := firstFailure(report)
		runErr = errors.WrapError(first, errors.GetCategory(first),
			fmt.Sprintf("%d of %d job/mode pairs failed", report.Failed(), len(report.Pairs))).
			WithContext("run_id", report.RunID).
			Build()
	}
	d.finish(logger, report, runErr)
	return report, runErr
}

func (d *Driver) runPair(ctx context.Context, logger *slog.Logger, runID string, job config.Job, mode config.Mode) PairResult {
	result := PairResult{
		RunID:   runID,
		Job:     job.Name,
		Mode:    mode.Name,
		Path:    d.opts.Workspace.WorkingCopyPath(mode.Name, job.Name),
		Tag:     ImageTag(job.Name, mode.Branch),
		DryRun:  d.opts.DryRun,
		Started: time.Now(),
	}
	logger = logger.With(logfields.Job(job.Name), logfields.Mode(mode.Name))

	result.Err = d.syncBuildSchedule(ctx, logger, mode, &result)
	result.Duration = time.Since(result.Started)

	d.opts.Recorder.ObservePairDuration(job.Name, mode.Name, result.Duration)
	if result.Action != "" {
		d.opts.Recorder.IncAction(string(result.Action))
	}
	switch {
	case result.Err == nil:
		d.opts.Recorder.IncPairResult(job.Name, mode.Name, metrics.ResultSuccess)
		logger.Info("Pair deployed",
			logfields.Action(string(result.Action)),
			slog.Bool("built", result.Built),
			logfields.Entry(result.Entry),
			logfields.DurationMS(float64(result.Duration.Milliseconds())))
	case ctx.Err() != nil:
		d.opts.Recorder.IncPairResult(job.Name, mode.Name, metrics.ResultCanceled)
		logger.Warn("Pair cancelled", logfields.Error(result.Err))
	default:
		d.opts.Recorder.IncPairResult(job.Name, mode.Name, metrics.ResultFailed)
		logger.Error("Pair failed", logfields.Action(string(result.Action)), logfields.Error(result.Err))
	}
	return result
}

// syncBuildSchedule is the per-pair pipeline: decide and sync the working
// copy, rebuild on change, then always rewrite the schedule entry.
func (d *Driver) syncBuildSchedule(ctx context.Context, logger *slog.Logger, mode config.Mode, result *PairResult) error {
	action, err := d.decide(ctx, logger, result.Path, mode)
	result.Action = action
	if err != nil {
		return err
	}

	buildDir := filepath.Join(result.Path, mode.RootDir)
	if action.Changed() {
		if d.opts.DryRun {
			logger.Info("Dry run: would build image", logfields.Tag(result.Tag), logfields.Path(buildDir))
		} else {
			start := time.Now()
			err := d.opts.Builder.Build(ctx, buildDir, result.Tag)
			d.opts.Recorder.ObserveImageBuildDuration(result.Job, result.Mode, time.Since(start), err == nil)
			if err != nil {
				return err
			}
			result.Built = true
		}
	}

	result.Command = schedule.BuildCommand(result.Tag, mode.DockerArgs)
	entry := schedule.EntryPath(d.opts.Schedules.Dir, result.Job, result.Mode)
	if d.opts.DryRun {
		result.Entry = entry
		logger.Info("Dry run: would write schedule entry", logfields.Entry(entry), logfields.Command(result.Command))
		return nil
	}

	content, err := schedule.Compose(mode, result.Path, result.Command)
	if err != nil {
		return err
	}
	result.Entry, err = d.opts.Schedules.Write(result.Job, result.Mode, content)
	return err
}

// decide inspects the working copy and brings it in line with the mode:
//
//  1. exists but wrong remote or branch: remove it
//  2. missing: clone
//  3. behind origin: update
//  4. otherwise: nothing
func (d *Driver) decide(ctx context.Context, logger *slog.Logger, path string, mode config.Mode) (Action, error) {
	repo := d.opts.Repo
	exists := repo.Exists(path)
	recloned := false

	if exists && !repo.Verify(path, mode.Remote, mode.Branch) {
		logger.Warn("Working copy does not match remote or branch; deleting",
			logfields.Path(path), logfields.Remote(mode.Remote), logfields.Branch(mode.Branch))
		if !d.opts.DryRun {
			if err := repo.Remove(path); err != nil {
				return ActionReclone, err
			}
		}
		exists = false
		recloned = true
	}

	if !exists {
		action := ActionClone
		if recloned {
			action = ActionReclone
		}
		if d.opts.DryRun {
			logger.Info("Dry run: would clone", logfields.Path(path), logfields.Remote(mode.Remote), logfields.Branch(mode.Branch))
			return action, nil
		}
		return action, repo.Clone(ctx, path, mode.Remote, mode.Branch)
	}

	behind, err := repo.IsBehind(ctx, path)
	if err != nil {
		return ActionNone, err
	}
	if !behind {
		logger.Debug("Working copy up to date", logfields.Path(path))
		return ActionNone, nil
	}
	if d.opts.DryRun {
		logger.Info("Dry run: would update", logfields.Path(path))
		return ActionUpdate, nil
	}
	return ActionUpdate, repo.Update(ctx, path)
}

func (d *Driver) publish(ctx context.Context, logger *slog.Logger, result PairResult) {
	for _, sink := range d.opts.Sinks {
		if err := sink.RecordPair(ctx, result); err != nil {
			logger.Warn("Failed to record pair result",
				logfields.Job(result.Job), logfields.Mode(result.Mode), logfields.Error(err))
		}
	}
}

func (d *Driver) finish(logger *slog.Logger, report *Report, runErr error) {
	outcome := metrics.RunOutcomeSuccess
	switch {
	case runErr != nil && errors.HasCategory(runErr, errors.CategoryRuntime):
		outcome = metrics.RunOutcomeCanceled
	case report.Failed() > 0 && report.Failed() < len(report.Pairs):
		outcome = metrics.RunOutcomePartial
	case runErr != nil:
		outcome = metrics.RunOutcomeFailed
	}
	d.opts.Recorder.ObserveRunDuration(report.Duration())
	d.opts.Recorder.IncRunOutcome(outcome)
	d.opts.Recorder.SetLastRun(report.Finished)

	actions := report.Actions()
	attrs := []any{
		slog.String("outcome", string(outcome)),
		slog.Int("pairs", len(report.Pairs)),
		slog.Int("failed", report.Failed()),
		slog.Int("built", report.Built()),
		slog.Int("cloned", actions[ActionClone]+actions[ActionReclone]),
		slog.Int("updated", actions[ActionUpdate]),
		logfields.DurationMS(float64(report.Duration().Milliseconds())),
	}
	if runErr != nil {
		logger.Error("Deploy run finished with errors", append(attrs, logfields.Error(runErr))...)
		return
	}
	logger.Info("Deploy run complete", attrs...)
}

func firstFailure(report *Report) error {
	for _, p := range report.Pairs {
		if p.Err != nil {
			return p.Err
		}
	}
	return nil
}
