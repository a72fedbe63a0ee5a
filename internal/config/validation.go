package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

var (
	jobNamePattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	modeNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	userPattern     = regexp.MustCompile(`^\S+$`)
)

// cronParser checks the five time fields of a cron.d line.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// cronDescriptors are the @ shorthands cron.d understands.
var cronDescriptors = map[string]bool{
	"@reboot":   true,
	"@yearly":   true,
	"@annually": true,
	"@monthly":  true,
	"@weekly":   true,
	"@daily":    true,
	"@midnight": true,
	"@hourly":   true,
}

// Validate checks a decoded job list. The first problem found is returned as a
// fatal validation error naming the offending job and mode.
func Validate(jobs []Job) error {
	return newJobListValidator(jobs).validate()
}

// jobListValidator coordinates validation across the job list.
type jobListValidator struct {
	jobs []Job
}

func newJobListValidator(jobs []Job) *jobListValidator {
	return &jobListValidator{jobs: jobs}
}

func (v *jobListValidator) validate() error {
	if len(v.jobs) == 0 {
		return errors.ValidationError("job list is empty").Fatal().Build()
	}
	seen := make(map[string]bool, len(v.jobs))
	for _, job := range v.jobs {
		if err := v.validateJob(job); err != nil {
			return err
		}
		if seen[job.Name] {
			return invalid(job.Name, "", "duplicate job name")
		}
		seen[job.Name] = true
	}
	return nil
}

func (v *jobListValidator) validateJob(job Job) error {
	if job.Name == "" {
		return invalid("", "", "job name cannot be empty")
	}
	// Names end up in file paths, image tags and cron entry names.
	if !jobNamePattern.MatchString(job.Name) {
		return invalid(job.Name, "", fmt.Sprintf("job name must match %s", jobNamePattern))
	}
	if len(job.Modes) == 0 {
		return invalid(job.Name, "", "job must declare at least one mode")
	}
	modes := make(map[string]bool, len(job.Modes))
	for _, mode := range job.Modes {
		if err := v.validateMode(job.Name, mode); err != nil {
			return err
		}
		if modes[mode.Name] {
			return invalid(job.Name, mode.Name, "duplicate mode name")
		}
		modes[mode.Name] = true
	}
	return nil
}

func (v *jobListValidator) validateMode(job string, mode Mode) error {
	if mode.Name == "" {
		return invalid(job, "", "mode name cannot be empty")
	}
	if !modeNamePattern.MatchString(mode.Name) {
		return invalid(job, mode.Name, fmt.Sprintf("mode name must match %s", modeNamePattern))
	}
	if strings.TrimSpace(mode.Remote) == "" {
		return invalid(job, mode.Name, "remote cannot be empty")
	}
	if strings.TrimSpace(mode.Branch) == "" {
		return invalid(job, mode.Name, "branch cannot be empty")
	}
	if strings.ContainsAny(mode.Branch, " \t:") {
		return invalid(job, mode.Name, fmt.Sprintf("invalid branch name %q", mode.Branch))
	}
	if err := validateRootDir(mode.RootDir); err != nil {
		return invalid(job, mode.Name, err.Error())
	}
	return v.validateSchedule(job, mode)
}

func (v *jobListValidator) validateSchedule(job string, mode Mode) error {
	switch {
	case mode.CronTemplate != "" && mode.Cron != nil:
		return invalid(job, mode.Name, "cronTpl and cron are mutually exclusive")
	case mode.CronTemplate == "" && mode.Cron == nil:
		return invalid(job, mode.Name, "one of cronTpl or cron is required")
	case mode.CronTemplate != "":
		if err := validateRelative(mode.CronTemplate); err != nil {
			return invalid(job, mode.Name, "cronTpl: "+err.Error())
		}
		return nil
	}

	if err := ValidateCronSchedule(mode.Cron.Schedule); err != nil {
		return invalid(job, mode.Name, err.Error())
	}
	if !userPattern.MatchString(mode.Cron.User) {
		return invalid(job, mode.Name, "cron user must be a single non-empty word")
	}
	return nil
}

// ValidateCronSchedule checks the time fields of a cron.d line: five fields
// or one of the @ shorthands cron.d accepts. Day of week 7 is Sunday.
func ValidateCronSchedule(schedule string) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return fmt.Errorf("cron schedule cannot be empty")
	}
	if strings.HasPrefix(schedule, "@") {
		if !cronDescriptors[strings.ToLower(schedule)] {
			return fmt.Errorf("invalid cron schedule %q: unsupported shorthand", schedule)
		}
		return nil
	}
	fields := strings.Fields(schedule)
	if len(fields) != 5 {
		return fmt.Errorf("invalid cron schedule %q: expected 5 fields, got %d", schedule, len(fields))
	}
	fields[4] = normalizeDow(fields[4])
	if _, err := cronParser.Parse(strings.Join(fields, " ")); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// normalizeDow rewrites day of week 7 into the 0-6 range the parser knows:
// a lone or starting 7 becomes 0, a range ending in 7 ends in 6.
func normalizeDow(field string) string {
	items := strings.Split(field, ",")
	for i, item := range items {
		rng, step, hasStep := strings.Cut(item, "/")
		lo, hi, isRange := strings.Cut(rng, "-")
		if lo == "7" {
			lo = "0"
		}
		if isRange && hi == "7" {
			hi = "6"
		}
		out := lo
		if isRange {
			out += "-" + hi
		}
		if hasStep {
			out += "/" + step
		}
		items[i] = out
	}
	return strings.Join(items, ",")
}

func validateRootDir(rootDir string) error {
	if rootDir == "" || rootDir == DefaultRootDir {
		return nil
	}
	if err := validateRelative(rootDir); err != nil {
		return fmt.Errorf("rootDir: %w", err)
	}
	return nil
}

// validateRelative rejects absolute paths and paths escaping their base.
func validateRelative(p string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("%q must be relative", p)
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%q escapes the working copy", p)
	}
	return nil
}

func invalid(job, mode, message string) error {
	b := errors.ValidationError(message)
	if job != "" {
		b = b.WithContext("job", job)
	}
	if mode != "" {
		b = b.WithContext("mode", mode)
	}
	return b.Fatal().Build()
}
