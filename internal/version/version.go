package version

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/bdeep/internal/version.Version=v1.2.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Known reports whether Version was stamped at build time.
func Known() bool {
	return Version != "" && Version != "unknown"
}

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("bdeep %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

// Satisfies checks current against a go-version constraint such as ">= 1.2, < 2".
func Satisfies(current, constraint string) (bool, error) {
	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	v, err := goversion.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", current, err)
	}
	return c.Check(v), nil
}
