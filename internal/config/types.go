package config

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Job is a named deployable unit with one or more modes.
type Job struct {
	Name  string `json:"name" yaml:"name"`
	Modes []Mode `json:"modes" yaml:"modes"`
}

// Mode is an environment-specific variant of a job: which remote and branch to
// check out, where the image build is rooted and how its cron entry is produced.
type Mode struct {
	Name       string   `json:"name" yaml:"name"`
	Remote     string   `json:"remote" yaml:"remote"`
	Branch     string   `json:"branch" yaml:"branch"`
	RootDir    string   `json:"rootDir" yaml:"rootDir"`
	DockerArgs []string `json:"dockerArgs,omitempty" yaml:"dockerArgs,omitempty"`
	// CronTemplate is a template path relative to RootDir inside the working copy.
	CronTemplate string        `json:"cronTpl,omitempty" yaml:"cronTpl,omitempty"`
	Cron         *CronSchedule `json:"cron,omitempty" yaml:"cron,omitempty"`
}

// CronSchedule is the fixed-format schedule: "<schedule> <user> <command>".
type CronSchedule struct {
	Schedule string `json:"schedule" yaml:"schedule"`
	User     string `json:"user" yaml:"user"`
}

// UsesTemplate reports whether the mode renders its entry from a template.
func (m Mode) UsesTemplate() bool { return m.CronTemplate != "" }

// modeDocument accepts both the short keys (cronTpl, cron) and the
// long spellings (cronTemplate, cronSchedule).
type modeDocument struct {
	Name         string        `json:"name" yaml:"name"`
	Remote       string        `json:"remote" yaml:"remote"`
	Branch       string        `json:"branch" yaml:"branch"`
	RootDir      string        `json:"rootDir" yaml:"rootDir"`
	DockerArgs   []string      `json:"dockerArgs" yaml:"dockerArgs"`
	CronTpl      string        `json:"cronTpl" yaml:"cronTpl"`
	CronTemplate string        `json:"cronTemplate" yaml:"cronTemplate"`
	Cron         *CronSchedule `json:"cron" yaml:"cron"`
	CronSchedule *CronSchedule `json:"cronSchedule" yaml:"cronSchedule"`
}

func (d modeDocument) mode() Mode {
	m := Mode{
		Name:         d.Name,
		Remote:       d.Remote,
		Branch:       d.Branch,
		RootDir:      d.RootDir,
		DockerArgs:   d.DockerArgs,
		CronTemplate: d.CronTpl,
		Cron:         d.Cron,
	}
	if m.CronTemplate == "" {
		m.CronTemplate = d.CronTemplate
	}
	if m.Cron == nil {
		m.Cron = d.CronSchedule
	}
	return m
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var doc modeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*m = doc.mode()
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Mode) UnmarshalYAML(node *yaml.Node) error {
	var doc modeDocument
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*m = doc.mode()
	return nil
}
