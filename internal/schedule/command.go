package schedule

import "strings"

// LogRoot is the host directory job containers log to.
const LogRoot = "/var/log/bdeep"

// BaselineArgs precede the per-mode docker arguments of every run command.
var BaselineArgs = []string{
	"-e", "BDEEP_RUN_LOGGING_ROOT=" + LogRoot,
	"-v", LogRoot + ":" + LogRoot,
}

// BuildCommand returns the shell command that runs the image:
//
//	docker run <baseline> <extraArgs...> <tag>
//
// Extra arguments are appended in order, unfiltered and never deduplicated.
func BuildCommand(tag string, extraArgs []string) string {
	parts := make([]string, 0, len(BaselineArgs)+len(extraArgs)+3)
	parts = append(parts, "docker", "run")
	parts = append(parts, BaselineArgs...)
	parts = append(parts, extraArgs...)
	parts = append(parts, tag)
	return strings.Join(parts, " ")
}

// FixedLine formats a fixed-strategy entry: "<schedule> <user> <command>".
func FixedLine(schedule, user, command string) string {
	return schedule + " " + user + " " + command
}
