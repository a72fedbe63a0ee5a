package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

func validMode() Mode {
	return Mode{
		Name:    "PROD",
		Remote:  "https://git.example.com/app.git",
		Branch:  "main",
		RootDir: ".",
		Cron:    &CronSchedule{Schedule: "*/5 * * * *", User: "root"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(jobs []Job) []Job
		wantErr string
	}{
		{name: "valid", mutate: func(j []Job) []Job { return j }},
		{name: "empty list", mutate: func([]Job) []Job { return nil }, wantErr: "job list is empty"},
		{name: "empty job name", mutate: func(j []Job) []Job { j[0].Name = ""; return j }, wantErr: "job name cannot be empty"},
		{name: "bad job name", mutate: func(j []Job) []Job { j[0].Name = "../etc"; return j }, wantErr: "job name must match"},
		{name: "duplicate job", mutate: func(j []Job) []Job { return append(j, j[0]) }, wantErr: "duplicate job name"},
		{name: "no modes", mutate: func(j []Job) []Job { j[0].Modes = nil; return j }, wantErr: "at least one mode"},
		{name: "duplicate mode", mutate: func(j []Job) []Job { j[0].Modes = append(j[0].Modes, j[0].Modes[0]); return j }, wantErr: "duplicate mode name"},
		{name: "bad mode name", mutate: func(j []Job) []Job { j[0].Modes[0].Name = "a/b"; return j }, wantErr: "mode name must match"},
		{name: "empty remote", mutate: func(j []Job) []Job { j[0].Modes[0].Remote = " "; return j }, wantErr: "remote cannot be empty"},
		{name: "empty branch", mutate: func(j []Job) []Job { j[0].Modes[0].Branch = ""; return j }, wantErr: "branch cannot be empty"},
		{name: "absolute rootDir", mutate: func(j []Job) []Job { j[0].Modes[0].RootDir = "/srv"; return j }, wantErr: "must be relative"},
		{name: "escaping rootDir", mutate: func(j []Job) []Job { j[0].Modes[0].RootDir = "sub/../../x"; return j }, wantErr: "escapes the working copy"},
		{name: "template and cron", mutate: func(j []Job) []Job { j[0].Modes[0].CronTemplate = "cron.tpl"; return j }, wantErr: "mutually exclusive"},
		{name: "neither template nor cron", mutate: func(j []Job) []Job { j[0].Modes[0].Cron = nil; return j }, wantErr: "one of cronTpl or cron is required"},
		{name: "bad cron expression", mutate: func(j []Job) []Job { j[0].Modes[0].Cron.Schedule = "61 * * * *"; return j }, wantErr: "invalid cron schedule"},
		{name: "reboot accepted", mutate: func(j []Job) []Job { j[0].Modes[0].Cron.Schedule = "@reboot"; return j }},
		{name: "descriptor accepted", mutate: func(j []Job) []Job { j[0].Modes[0].Cron.Schedule = "@hourly"; return j }},
		{name: "empty cron user", mutate: func(j []Job) []Job { j[0].Modes[0].Cron.User = ""; return j }, wantErr: "cron user"},
		{name: "escaping template", mutate: func(j []Job) []Job {
			j[0].Modes[0].Cron = nil
			j[0].Modes[0].CronTemplate = "../cron.tpl"
			return j
		}, wantErr: "cronTpl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := tt.mutate([]Job{{Name: "app", Modes: []Mode{validMode()}}})
			err := Validate(jobs)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
		})
	}
}

func TestValidate_ReportsJobAndMode(t *testing.T) {
	m := validMode()
	m.Branch = ""
	err := Validate([]Job{{Name: "app", Modes: []Mode{m}}})
	require.Error(t, err)

	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	job, _ := classified.Context().GetString("job")
	mode, _ := classified.Context().GetString("mode")
	assert.Equal(t, "app", job)
	assert.Equal(t, "PROD", mode)
}

func TestValidateCronSchedule(t *testing.T) {
	require.NoError(t, ValidateCronSchedule("0 3 * * 1-5"))
	require.NoError(t, ValidateCronSchedule("@reboot"))
	require.NoError(t, ValidateCronSchedule("@daily"))
	require.Error(t, ValidateCronSchedule(""))
	require.Error(t, ValidateCronSchedule("* * *"))
	require.Error(t, ValidateCronSchedule("0 0 1 * * *"))
}

func TestValidateCronSchedule_CronDDialect(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"0 0 * * 7", true},
		{"0 0 * * 0", true},
		{"30 6 * * 5-7", true},
		{"0 12 * * 1,7", true},
		{"0 0 * * SUN", true},
		{"*/15 * * * 0-7/2", true},
		{"0 0 * * 8", false},
		{"@every 10m", false},
		{"@fortnightly", false},
	}
	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
