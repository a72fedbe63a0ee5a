package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bdeep/cmd/bdeep/commands"
	"git.home.luguber.info/inful/bdeep/internal/config"
	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/version"
)

func main() {
	if _, err := config.LoadEnvFiles(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("bdeep"),
		kong.Description("Keep job checkouts, container images and cron entries in sync with their repositories."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
