package commands

import (
	"fmt"

	"git.home.luguber.info/inful/bdeep/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Path  string `arg:"" optional:"" help:"Job list to create (.json, .yaml or .yml)" default:"jobs.yaml"`
	Force bool   `help:"Overwrite an existing job list"`
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	fmt.Printf("Writing example job list to %s\n", i.Path)
	if err := config.Init(i.Path, i.Force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}
