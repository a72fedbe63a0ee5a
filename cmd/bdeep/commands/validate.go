package commands

import (
	"fmt"

	"git.home.luguber.info/inful/bdeep/internal/config"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	JobsFile string `arg:"" name:"jobs-file" help:"Job list (JSON or YAML)" type:"existingfile"`
}

func (v *ValidateCmd) Run(_ *Global, _ *CLI) error {
	jobs, err := config.LoadJobs(v.JobsFile)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d jobs, %d job/mode pairs OK\n", v.JobsFile, len(jobs), config.Pairs(jobs))
	return nil
}
