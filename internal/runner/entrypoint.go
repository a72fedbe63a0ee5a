package runner

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

// ConfigEnv carries the JSON-encoded Config to job code.
const ConfigEnv = "BDEEP_CONFIG"

const waitDelay = 2 * time.Second

// Entrypoint hands control to job code.
type Entrypoint interface {
	Run(ctx context.Context, script string, cfg Config) error
}

// ExecEntrypoint runs the script as a child process. With no Interpreter the
// script itself is executed.
type ExecEntrypoint struct {
	Interpreter []string
	Stdout      io.Writer
	Stderr      io.Writer
}

// Run starts the script in its own directory and waits for it.
func (e ExecEntrypoint) Run(ctx context.Context, script string, cfg Config) error {
	encoded, err := cfg.JSON()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode job config").Build()
	}

	argv := append(append([]string(nil), e.Interpreter...), script)
	// #nosec G204 - script path comes from the job manifest
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = filepath.Dir(script)
	cmd.Env = append(os.Environ(), ConfigEnv+"="+encoded)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "job exited with error").
			WithContext("script", script).
			Build()
	}
	return nil
}

// DefaultEntrypoints maps script extensions to interpreters.
func DefaultEntrypoints() map[string]Entrypoint {
	return map[string]Entrypoint{
		".py": ExecEntrypoint{Interpreter: []string{"python3"}},
		".sh": ExecEntrypoint{Interpreter: []string{"sh"}},
	}
}
