package schedule

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

// Render renders the schedule template at path. The template sees a single
// key, "command", reachable as {{ .command }} or {{ command }}.
func Render(path, command string) (string, error) {
	// #nosec G304 - template path is resolved inside the managed working copy
	body, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WrapError(err, errors.CategorySchedule, "failed to read schedule template").
			WithContext("template", path).
			Build()
	}
	out, err := RenderString(filepath.Base(path), string(body), command)
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			return "", classified.WithContext("template", path)
		}
		return "", err
	}
	return out, nil
}

// RenderString renders a template body with the command bound.
func RenderString(name, body, command string) (string, error) {
	funcs := template.FuncMap{
		"command": func() string { return command },
	}
	tpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(body)
	if err != nil {
		return "", errors.WrapError(err, errors.CategorySchedule, "failed to parse schedule template").Build()
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]any{"command": command}); err != nil {
		return "", errors.WrapError(err, errors.CategorySchedule, "failed to render schedule template").Build()
	}
	return buf.String(), nil
}
