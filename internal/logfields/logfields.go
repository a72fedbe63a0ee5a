package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyJob        = "job"
	KeyMode       = "mode"
	KeyPath       = "path"
	KeyRemote     = "remote"
	KeyBranch     = "branch"
	KeyTag        = "tag"
	KeyAction     = "action"
	KeyCommand    = "command"
	KeyEntry      = "entry"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Job(name string) slog.Attr       { return slog.String(KeyJob, name) }
func Mode(name string) slog.Attr      { return slog.String(KeyMode, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Remote(url string) slog.Attr     { return slog.String(KeyRemote, url) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func Action(a string) slog.Attr       { return slog.String(KeyAction, a) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Entry(p string) slog.Attr        { return slog.String(KeyEntry, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
