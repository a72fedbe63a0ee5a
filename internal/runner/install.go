package runner

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/logfields"
)

// DefaultPip installs requirements files when the manifest has no install command.
const DefaultPip = "pip"

// Installer makes a job's dependencies available before it runs.
type Installer interface {
	Install(ctx context.Context, dir string, m *Manifest) error
}

// CommandInstaller runs the manifest's install argv, or
// `pip install -q -r <requirements>` when only a requirements file is set.
type CommandInstaller struct {
	Pip    string
	Logger *slog.Logger
}

// NewCommandInstaller creates an installer using pip (DefaultPip when empty).
func NewCommandInstaller(pip string) *CommandInstaller {
	if pip == "" {
		pip = DefaultPip
	}
	return &CommandInstaller{Pip: pip}
}

// Command returns the argv to run for m, or nil when there is nothing to install.
func (i *CommandInstaller) Command(dir string, m *Manifest) ([]string, error) {
	if len(m.Install) > 0 {
		return append([]string(nil), m.Install...), nil
	}
	if m.Requirements == "" {
		return nil, nil
	}
	req, err := filepath.Abs(filepath.Join(dir, m.Requirements))
	if err != nil {
		return nil, err
	}
	return []string{i.Pip, "install", "-q", "-r", req}, nil
}

// Install runs the install command in dir and streams its output at debug level.
func (i *CommandInstaller) Install(ctx context.Context, dir string, m *Manifest) error {
	argv, err := i.Command(dir, m)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve requirements file").
			WithContext("requirements", m.Requirements).
			Build()
	}
	logger := i.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if argv == nil {
		logger.Debug("No dependencies to install", logfields.Job(m.Name))
		return nil
	}
	logger.Info("Installing dependencies", logfields.Job(m.Name), logfields.Command(strings.Join(argv, " ")))

	// #nosec G204 - install command comes from the job manifest
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	var last string
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			last = scanner.Text()
			logger.Debug("install", slog.String("line", last))
		}
		_, _ = io.Copy(io.Discard, pr)
	}()

	err = cmd.Start()
	if err == nil {
		err = cmd.Wait()
	}
	_ = pw.Close()
	wg.Wait()

	if err != nil {
		builder := errors.WrapError(err, errors.CategoryRuntime, "dependency install failed").
			WithContext("job", m.Name).
			WithContext("command", strings.Join(argv, " "))
		if last != "" {
			builder = builder.WithContext("output", last)
		}
		return builder.Build()
	}
	return nil
}
