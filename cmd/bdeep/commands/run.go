package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/bdeep/internal/runner"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Dir         string `arg:"" help:"Job directory containing manifest.json" type:"existingdir"`
	Mode        string `arg:"" help:"Mode block to run (for example PROD or TEST)"`
	Pip         string `name:"pip" help:"pip binary used for requirements files" default:"pip" env:"BDEEP_PIP"`
	SkipInstall bool   `name:"skip-install" help:"Do not install dependencies before running"`
}

func (r *RunCmd) Run(_ *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	jobRunner := runner.New()
	if r.SkipInstall {
		jobRunner.Installer = nil
	} else {
		jobRunner.Installer = runner.NewCommandInstaller(r.Pip)
	}
	return jobRunner.Run(ctx, r.Dir, r.Mode)
}
