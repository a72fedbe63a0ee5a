// Package config loads and validates bdeep job lists.
//
// A job list is a JSON (or YAML, by extension) array of jobs. Each job names
// one or more modes; each mode pins a remote and branch and declares exactly
// one schedule strategy: a template inside the working copy (cronTpl) or a
// fixed schedule and user (cron).
package config
