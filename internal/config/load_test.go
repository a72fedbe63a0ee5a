package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

const jsonJobs = `[
  {
    "name": "reports",
    "modes": [
      {
        "name": "PROD",
        "remote": "https://git.example.com/reports.git",
        "branch": "main",
        "rootDir": "deploy",
        "dockerArgs": ["--rm"],
        "cronTpl": "cron.tpl"
      },
      {
        "name": "TEST",
        "remote": "https://git.example.com/reports.git",
        "branch": "develop",
        "cron": {"schedule": "0 * * * *", "user": "root"}
      }
    ]
  }
]`

func writeJobs(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJobs_JSON(t *testing.T) {
	jobs, err := LoadJobs(writeJobs(t, "jobs.json", jsonJobs))
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, "reports", job.Name)
	require.Len(t, job.Modes, 2)

	prod := job.Modes[0]
	assert.Equal(t, "PROD", prod.Name)
	assert.Equal(t, "deploy", prod.RootDir)
	assert.Equal(t, []string{"--rm"}, prod.DockerArgs)
	assert.Equal(t, "cron.tpl", prod.CronTemplate)
	assert.True(t, prod.UsesTemplate())
	assert.Nil(t, prod.Cron)

	test := job.Modes[1]
	assert.Equal(t, DefaultRootDir, test.RootDir)
	assert.NotNil(t, test.DockerArgs)
	assert.Empty(t, test.DockerArgs)
	require.NotNil(t, test.Cron)
	assert.Equal(t, "0 * * * *", test.Cron.Schedule)
	assert.Equal(t, "root", test.Cron.User)
}

func TestLoadJobs_YAMLWithAliases(t *testing.T) {
	content := `
- name: backup
  modes:
    - name: PROD
      remote: git@example.com:ops/backup.git
      branch: main
      cronTemplate: ops/cron.tpl
    - name: TEST
      remote: git@example.com:ops/backup.git
      branch: test
      cronSchedule:
        schedule: "@daily"
        user: backup
`
	jobs, err := LoadJobs(writeJobs(t, "jobs.yaml", content))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "ops/cron.tpl", jobs[0].Modes[0].CronTemplate)
	require.NotNil(t, jobs[0].Modes[1].Cron)
	assert.Equal(t, "@daily", jobs[0].Modes[1].Cron.Schedule)
}

func TestLoadJobs_ExpandsEnvironment(t *testing.T) {
	t.Setenv("BDEEP_TEST_REMOTE", "file:///srv/git/app.git")
	content := `[{"name":"app","modes":[{"name":"PROD","remote":"${BDEEP_TEST_REMOTE}","branch":"main","cron":{"schedule":"@reboot","user":"root"}}]}]`

	jobs, err := LoadJobs(writeJobs(t, "jobs.json", content))
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/git/app.git", jobs[0].Modes[0].Remote)
}

func TestLoadJobs_LeavesPlainDollarForCron(t *testing.T) {
	t.Setenv("BDEEP_TEST_HOME", "/deploy-time")
	content := `[{"name":"app","modes":[{"name":"PROD","remote":"r","branch":"main",` +
		`"dockerArgs":["-e","HOME=$BDEEP_TEST_HOME","-e","DATA=${BDEEP_TEST_HOME}/data","-e","GONE=${BDEEP_TEST_UNSET}"],` +
		`"cron":{"schedule":"@reboot","user":"root"}}]}]`

	jobs, err := LoadJobs(writeJobs(t, "jobs.json", content))
	require.NoError(t, err)
	assert.Equal(t, []string{"-e", "HOME=$BDEEP_TEST_HOME", "-e", "DATA=/deploy-time/data", "-e", "GONE="},
		jobs[0].Modes[0].DockerArgs)
}

func TestLoadJobs_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadJobs(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := LoadJobs(writeJobs(t, "jobs.json", `[{"name":`))
		require.Error(t, err)
		classified, ok := errors.AsClassified(err)
		require.True(t, ok)
		assert.Equal(t, errors.CategoryConfig, classified.Category())
		assert.True(t, classified.IsFatal())
		file, _ := classified.Context().GetString("file")
		assert.Contains(t, file, "jobs.json")
	})

	t.Run("invalid content", func(t *testing.T) {
		_, err := LoadJobs(writeJobs(t, "jobs.json", `[{"name":"app","modes":[]}]`))
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	})
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("jobs.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("JOBS.YML"))
	assert.Equal(t, FormatJSON, FormatFor("jobs.json"))
	assert.Equal(t, FormatJSON, FormatFor("jobs"))
}
