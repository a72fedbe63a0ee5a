package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/workspace"
)

// ExampleJobs is the job list written by Init.
func ExampleJobs() []Job {
	return []Job{
		{
			Name: "reports",
			Modes: []Mode{
				{
					Name:         "PROD",
					Remote:       "https://git.example.com/ops/reports.git",
					Branch:       "main",
					RootDir:      ".",
					DockerArgs:   []string{"--rm"},
					CronTemplate: "cron.tpl",
				},
				{
					Name:       "TEST",
					Remote:     "https://git.example.com/ops/reports.git",
					Branch:     "develop",
					RootDir:    ".",
					DockerArgs: []string{"--rm", "-e", "REPORTS_DRY_RUN=1"},
					Cron:       &CronSchedule{Schedule: "*/30 * * * *", User: "root"},
				},
			},
		},
	}
}

// Init writes an example job list in the format chosen by the file extension.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("job list already exists: %s (use --force to overwrite)", path)).Build()
	}

	var (
		data []byte
		err  error
	)
	switch FormatFor(path) {
	case FormatYAML:
		data, err = yaml.Marshal(ExampleJobs())
	default:
		data, err = json.MarshalIndent(ExampleJobs(), "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example job list").Build()
	}
	return workspace.WriteFile(path, data, 0o644)
}
