package schedule

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bdeep/internal/config"
	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/testutil/testutils"
)

func TestBuildCommand(t *testing.T) {
	assert.Equal(t,
		"docker run -e BDEEP_RUN_LOGGING_ROOT=/var/log/bdeep -v /var/log/bdeep:/var/log/bdeep bdeep-app-main",
		BuildCommand("bdeep-app-main", nil))

	got := BuildCommand("bdeep-app-main", []string{"--rm", "-v /data:/data", "--rm"})
	assert.Equal(t,
		"docker run -e BDEEP_RUN_LOGGING_ROOT=/var/log/bdeep -v /var/log/bdeep:/var/log/bdeep --rm -v /data:/data --rm bdeep-app-main",
		got)
	assert.True(t, strings.HasSuffix(got, " bdeep-app-main"))

	// empty elements are joined like any other argument
	assert.Equal(t,
		"docker run -e BDEEP_RUN_LOGGING_ROOT=/var/log/bdeep -v /var/log/bdeep:/var/log/bdeep --rm  bdeep-app-main",
		BuildCommand("bdeep-app-main", []string{"--rm", ""}))
}

func TestFixedLine(t *testing.T) {
	assert.Equal(t, "*/5 * * * * root docker run x", FixedLine("*/5 * * * *", "root", "docker run x"))
}

func TestRenderString(t *testing.T) {
	out, err := RenderString("cron.tpl", "0 * * * * root {{ .command }}\n", "docker run img")
	require.NoError(t, err)
	assert.Equal(t, "0 * * * * root docker run img\n", out)

	out, err = RenderString("cron.tpl", "@daily root {{ command }}", "docker run img")
	require.NoError(t, err)
	assert.Equal(t, "@daily root docker run img", out)
}

func TestRenderString_OnlyCommandIsBound(t *testing.T) {
	_, err := RenderString("cron.tpl", "{{ .tag }}", "docker run img")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategorySchedule))

	_, err = RenderString("cron.tpl", "{{ .command ", "docker run img")
	require.Error(t, err)
}

func TestRender_MissingTemplate(t *testing.T) {
	_, err := Render(filepath.Join(t.TempDir(), "cron.tpl"), "cmd")
	require.Error(t, err)
	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategorySchedule, classified.Category())
}

func TestWriter_OverwritesVerbatim(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.Write("app", "PROD", "old content that is longer than the new one\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "app-PROD"), path)

	_, err = w.Write("app", "PROD", "0 * * * * root cmd")
	require.NoError(t, err)

	testutils.NewFileAssertions(t, dir).AssertFileEquals("app-PROD", "0 * * * * root cmd")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriter_MissingDir(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "missing"))
	_, err := w.Write("app", "PROD", "x")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategorySchedule))
}

func TestCompose(t *testing.T) {
	wc := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(wc, "deploy"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(wc, "deploy", "cron.tpl"), []byte("15 2 * * * app {{ .command }}\n"), 0o600))

	templated := config.Mode{Name: "PROD", RootDir: "deploy", CronTemplate: "cron.tpl"}
	out, err := Compose(templated, wc, "docker run img")
	require.NoError(t, err)
	assert.Equal(t, "15 2 * * * app docker run img\n", out)

	fixed := config.Mode{Name: "TEST", RootDir: ".", Cron: &config.CronSchedule{Schedule: "@hourly", User: "root"}}
	out, err = Compose(fixed, wc, "docker run img")
	require.NoError(t, err)
	assert.Equal(t, "@hourly root docker run img", out)

	_, err = Compose(config.Mode{Name: "BROKEN"}, wc, "cmd")
	require.Error(t, err)
}

func TestEntryPath(t *testing.T) {
	assert.Equal(t, filepath.Join(DefaultDir, "reports-PROD"), EntryPath(DefaultDir, "reports", "PROD"))
	assert.Equal(t, DefaultDir, NewWriter("").Dir)
}
