package runner

import (
	"encoding/json"
	"maps"
	"path/filepath"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/workspace"
)

// LogLevel is the level job code is asked to log at when a log root is set.
const LogLevel = "debug"

// Config is the merged configuration handed to job code.
type Config map[string]any

// JSON encodes cfg for the BDEEP_CONFIG environment variable.
func (c Config) JSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PrepareConfig merges the mode block of m with the job directory, the mode
// name and the job name. When the manifest declares a log root, the log
// directory <root>/<mode> is created and its file is added under "logging".
func PrepareConfig(m *Manifest, dir, mode string) (Config, error) {
	block, ok := m.Modes[mode]
	if !ok {
		return nil, errors.ConfigError("mode not declared in manifest").
			WithContext("mode", mode).
			WithContext("job", m.Name).
			Fatal().
			Build()
	}
	if block.Config == nil {
		return nil, errors.ConfigError("mode block has no config").
			WithContext("mode", mode).
			WithContext("job", m.Name).
			Fatal().
			Build()
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve job directory").
			WithContext("dir", dir).
			Build()
	}

	cfg := make(Config, len(block.Config)+4)
	maps.Copy(cfg, block.Config)
	cfg["mainPath"] = absDir
	cfg["environment"] = mode
	cfg["name"] = m.Name

	if m.Logging != nil && m.Logging.Root != "" {
		logDir := filepath.Join(m.Logging.Root, mode)
		if err := workspace.MakePath(logDir); err != nil {
			return nil, err
		}
		cfg["logging"] = map[string]any{
			"file":  filepath.Join(logDir, m.Name+".log"),
			"level": LogLevel,
		}
	}
	return cfg, nil
}
