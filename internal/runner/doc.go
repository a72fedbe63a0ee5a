// Package runner launches job code inside a deployed container.
//
// A job directory carries a manifest.json naming the entry script, its
// dependency list and one config block per mode. Run merges the mode block
// with the job directory, the mode name and the job name, installs the
// dependencies and hands the config to an Entrypoint.
package runner
