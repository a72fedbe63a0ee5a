package runner

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

// ManifestFile is the manifest name inside a job directory.
const ManifestFile = "manifest.json"

// Manifest describes a job's runtime. Every top-level object key other than
// the known fields is a mode block.
type Manifest struct {
	Name         string           `json:"name"`
	Main         string           `json:"main"`
	Requirements string           `json:"requirements,omitempty"`
	Logging      *Logging         `json:"logging,omitempty"`
	Install      []string         `json:"install,omitempty"`
	Bdeep        string           `json:"bdeep,omitempty"`
	Modes        map[string]*Mode `json:"-"`
}

// Logging configures the per-mode log file handed to job code.
type Logging struct {
	Root string `json:"root"`
}

// Mode is the block selected by the mode argument.
type Mode struct {
	Config map[string]any `json:"config"`
}

var knownKeys = map[string]bool{
	"name":         true,
	"main":         true,
	"requirements": true,
	"logging":      true,
	"install":      true,
	"bdeep":        true,
}

// UnmarshalJSON decodes the known fields and collects object-valued
// remaining keys as mode blocks.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type plain Manifest
	var base plain
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	base.Modes = make(map[string]*Mode)
	for key, value := range raw {
		if knownKeys[key] {
			continue
		}
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}
		var mode Mode
		if err := json.Unmarshal(trimmed, &mode); err != nil {
			return err
		}
		base.Modes[key] = &mode
	}
	*m = Manifest(base)
	return nil
}

// LoadManifest reads dir/manifest.json. Any failure is a fatal config error.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	// #nosec G304 - the job directory is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read manifest").
			WithContext("file", path).
			Fatal().
			Build()
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse manifest").
			WithContext("file", path).
			Fatal().
			Build()
	}
	if m.Name == "" || m.Main == "" {
		return nil, errors.ConfigError("manifest requires name and main").
			WithContext("file", path).
			Fatal().
			Build()
	}
	return &m, nil
}
