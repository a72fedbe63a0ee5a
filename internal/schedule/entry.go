package schedule

import (
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/bdeep/internal/config"
	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/logfields"
	"git.home.luguber.info/inful/bdeep/internal/workspace"
)

// DefaultDir is the system cron drop-in directory.
const DefaultDir = "/etc/cron.d"

// entryPerm is the mode cron requires for drop-in files.
const entryPerm = 0o644

// EntryPath returns the entry file for a job/mode pair.
func EntryPath(dir, job, mode string) string {
	return filepath.Join(dir, job+"-"+mode)
}

// Writer writes schedule entries into a cron directory.
type Writer struct {
	Dir string
}

// NewWriter creates a writer for dir (DefaultDir when empty).
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{Dir: dir}
}

// Write replaces the entry for job/mode with content, verbatim.
func (w *Writer) Write(job, mode, content string) (string, error) {
	path := EntryPath(w.Dir, job, mode)
	if err := workspace.WriteFile(path, []byte(content), entryPerm); err != nil {
		return "", errors.WrapError(err, errors.CategorySchedule, "failed to write schedule entry").
			WithContext("entry", path).
			Build()
	}
	slog.Info("Schedule entry written", logfields.Entry(path), logfields.Job(job), logfields.Mode(mode))
	return path, nil
}

// Compose produces the entry content for a mode. Templated modes render the
// template found under rootDir of the working copy; fixed modes format the
// schedule line.
func Compose(mode config.Mode, workingCopy, command string) (string, error) {
	if mode.UsesTemplate() {
		return Render(TemplatePath(mode, workingCopy), command)
	}
	if mode.Cron == nil {
		return "", errors.ScheduleError("mode declares neither cronTpl nor cron").
			WithContext("mode", mode.Name).
			Build()
	}
	return FixedLine(mode.Cron.Schedule, mode.Cron.User, command), nil
}

// TemplatePath resolves a mode's template inside the working copy.
func TemplatePath(mode config.Mode, workingCopy string) string {
	return filepath.Join(workingCopy, mode.RootDir, mode.CronTemplate)
}
