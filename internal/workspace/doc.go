// Package workspace owns the on-disk layout bdeep works in: the projects root
// holding one working copy per job/mode pair, plus the small filesystem
// helpers (idempotent directory creation, replace-by-rename writes) the rest
// of the tool builds on.
//
// Working copies live at <root>/<mode>/<job>. The layout is deterministic so
// a re-run finds the checkout it left behind.
package workspace
