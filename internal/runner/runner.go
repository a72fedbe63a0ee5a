package runner

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/logfields"
	"git.home.luguber.info/inful/bdeep/internal/version"
)

// Runner loads a job directory and launches its entry script.
type Runner struct {
	Installer Installer
	// HostVersion is checked against the manifest's bdeep constraint.
	// Empty or "unknown" skips the check.
	HostVersion string
	Logger      *slog.Logger

	entrypoints map[string]Entrypoint
	fallback    Entrypoint
}

// New creates a runner with the pip installer and the default entrypoints.
func New() *Runner {
	return &Runner{
		Installer:   NewCommandInstaller(""),
		HostVersion: version.Version,
		entrypoints: DefaultEntrypoints(),
		fallback:    ExecEntrypoint{},
	}
}

// Register sets the entrypoint used for scripts with extension ext (".py").
func (r *Runner) Register(ext string, ep Entrypoint) {
	if r.entrypoints == nil {
		r.entrypoints = make(map[string]Entrypoint)
	}
	r.entrypoints[strings.ToLower(ext)] = ep
}

// Entrypoint resolves the entrypoint for script.
func (r *Runner) Entrypoint(script string) Entrypoint {
	if ep, ok := r.entrypoints[strings.ToLower(filepath.Ext(script))]; ok {
		return ep
	}
	if r.fallback != nil {
		return r.fallback
	}
	return ExecEntrypoint{}
}

// Run executes the job in dir for mode: manifest, version check, config,
// dependency install, delegation.
func (r *Runner) Run(ctx context.Context, dir, mode string) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m, err := LoadManifest(dir)
	if err != nil {
		return err
	}
	logger = logger.With(logfields.Job(m.Name), logfields.Mode(mode))

	if err := r.checkVersion(m, logger); err != nil {
		return err
	}

	cfg, err := PrepareConfig(m, dir, mode)
	if err != nil {
		return err
	}

	if r.Installer != nil {
		if err := r.Installer.Install(ctx, dir, m); err != nil {
			return err
		}
	}

	script, err := filepath.Abs(filepath.Join(dir, m.Main))
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve entry script").
			WithContext("main", m.Main).
			Build()
	}
	logger.Info("Starting job", logfields.Path(script))
	return r.Entrypoint(script).Run(ctx, script, cfg)
}

func (r *Runner) checkVersion(m *Manifest, logger *slog.Logger) error {
	if m.Bdeep == "" {
		return nil
	}
	if r.HostVersion == "" || r.HostVersion == "unknown" {
		logger.Debug("Host version unknown, skipping manifest version check", "constraint", m.Bdeep)
		return nil
	}
	ok, err := version.Satisfies(r.HostVersion, m.Bdeep)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid manifest version constraint").
			WithContext("constraint", m.Bdeep).
			Fatal().
			Build()
	}
	if !ok {
		return errors.ConfigError("manifest requires a different bdeep version").
			WithContext("constraint", m.Bdeep).
			WithContext("version", r.HostVersion).
			Fatal().
			Build()
	}
	return nil
}
