package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

// DefaultRootDir is used for modes that do not declare a build root.
const DefaultRootDir = "."

// Format identifies the encoding of a job list file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the job list encoding from the file extension. JSON is the default.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadJobs reads, decodes, defaults and validates a job list. Any failure is a
// fatal configuration error: nothing is deployed from a partially valid list.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read job list").
			WithContext("file", path).
			Fatal().
			Build()
	}
	jobs, err := ParseJobs(data, FormatFor(path))
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			return nil, classified.WithContext("file", path)
		}
		return nil, err
	}
	return jobs, nil
}

// ParseJobs decodes a job list in the given format. Braced environment
// references (${VAR}) are expanded before decoding.
func ParseJobs(data []byte, format Format) ([]Job, error) {
	expanded := ExpandEnv(data)

	var jobs []Job
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(expanded, &jobs)
	default:
		dec := json.NewDecoder(bytes.NewReader(expanded))
		err = dec.Decode(&jobs)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("failed to parse %s job list", format)).
			Fatal().
			Build()
	}

	applyDefaults(jobs)
	if err := Validate(jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

var bracedEnvRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} with the value of VAR (empty when unset). Plain
// $VAR is left alone so it reaches the cron entry and expands when the job runs.
func ExpandEnv(data []byte) []byte {
	return bracedEnvRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name := bracedEnvRef.FindSubmatch(ref)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func applyDefaults(jobs []Job) {
	for i := range jobs {
		for j := range jobs[i].Modes {
			m := &jobs[i].Modes[j]
			if m.RootDir == "" {
				m.RootDir = DefaultRootDir
			}
			if m.DockerArgs == nil {
				m.DockerArgs = []string{}
			}
		}
	}
}
