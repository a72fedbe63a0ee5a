package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bdeep/internal/config"
	"git.home.luguber.info/inful/bdeep/internal/deploy"
	"git.home.luguber.info/inful/bdeep/internal/history"
	"git.home.luguber.info/inful/bdeep/internal/testutil/testutils"
)

func writeJobsFile(t *testing.T, remote, branch string) string {
	t.Helper()
	jobs := []map[string]any{{
		"name": "reports",
		"modes": []map[string]any{{
			"name":       "PROD",
			"remote":     remote,
			"branch":     branch,
			"dockerArgs": []string{"--rm"},
			"cron":       map[string]string{"schedule": "0 3 * * *", "user": "root"},
		}},
	}}
	data, err := json.Marshal(jobs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestCLI_DeployDefaults(t *testing.T) {
	jobsFile := writeJobsFile(t, "https://git.example.com/ops/reports.git", "main")

	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	kctx, err := parser.Parse([]string{"deploy", jobsFile, "--dry-run", "--only-mode", "PROD"})
	require.NoError(t, err)

	assert.Equal(t, "deploy <jobs-file>", kctx.Command())
	assert.Equal(t, jobsFile, cli.Deploy.JobsFile)
	assert.Equal(t, "projects", cli.Deploy.ProjectsRoot)
	assert.Equal(t, "/etc/cron.d", cli.Deploy.CronDir)
	assert.Equal(t, "docker", cli.Deploy.DockerBin)
	assert.Equal(t, "continue", cli.Deploy.OnError)
	assert.Equal(t, "PROD", cli.Deploy.OnlyMode)
	assert.True(t, cli.Deploy.DryRun)
}

func TestCLI_RejectsUnknownPolicy(t *testing.T) {
	jobsFile := writeJobsFile(t, "https://git.example.com/ops/reports.git", "main")

	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse([]string{"deploy", jobsFile, "--on-error", "retry"})
	require.Error(t, err)
}

func TestCLI_DaemonDefaults(t *testing.T) {
	jobsFile := writeJobsFile(t, "https://git.example.com/ops/reports.git", "main")

	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse([]string{"daemon", jobsFile})
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cli.Daemon.Every)
	assert.Equal(t, 2*time.Second, cli.Daemon.Debounce)
	assert.False(t, cli.Daemon.NoWatch)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug", slog.LevelInfo))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN ", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty", slog.LevelInfo))
}

func TestDeployCmd_DryRunRecordsHistory(t *testing.T) {
	remote := testutils.SetupRemote(t, "main")
	jobsFile := writeJobsFile(t, remote.URL, "main")
	dir := t.TempDir()

	cmd := &DeployCmd{
		DeployFlags: DeployFlags{
			ProjectsRoot: filepath.Join(dir, "projects"),
			CronDir:      filepath.Join(dir, "cron.d"),
			DockerBin:    "docker",
			OnError:      "continue",
			DryRun:       true,
			HistoryDB:    filepath.Join(dir, "history.db"),
		},
		JobsFile:    jobsFile,
		MetricsFile: filepath.Join(dir, "bdeep.prom"),
	}
	require.NoError(t, cmd.Run(&Global{}, &CLI{}))

	assert.NoDirExists(t, filepath.Join(dir, "projects"))
	assert.NoFileExists(t, filepath.Join(dir, "cron.d", "reports-PROD"))

	metricsText, err := os.ReadFile(cmd.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), "bdeep_")

	store, err := history.NewSQLiteStore(cmd.HistoryDB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	records, err := store.Recent(context.Background(), history.Query{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "reports", records[0].Job)
	assert.Equal(t, string(deploy.ActionClone), records[0].Action)
	assert.True(t, records[0].DryRun)
	assert.True(t, records[0].Succeeded())
}

func TestValidateAndInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, (&InitCmd{Path: path}).Run(&Global{}, &CLI{}))
	require.Error(t, (&InitCmd{Path: path}).Run(&Global{}, &CLI{}))
	require.NoError(t, (&InitCmd{Path: path, Force: true}).Run(&Global{}, &CLI{}))

	require.NoError(t, (&ValidateCmd{JobsFile: path}).Run(&Global{}, &CLI{}))

	jobs, err := config.LoadJobs(path)
	require.NoError(t, err)
	assert.Equal(t, config.ExampleJobs()[0].Name, jobs[0].Name)
}

func TestWriteRecords(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, []history.Record{
		{Job: "reports", Mode: "PROD", Action: "update", Built: true, Started: started, Duration: 1500 * time.Millisecond},
		{Job: "reports", Mode: "TEST", Action: "clone", Started: started, Error: "docker build failed"},
	}))

	out := buf.String()
	assert.Contains(t, out, "STARTED")
	assert.Contains(t, out, "2026-03-01 12:00:00")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "docker build failed")
}
