// Package daemon keeps a host converged by repeating deploy runs.
//
// Runs are triggered by a gocron schedule (fixed interval or cron
// expression) and by changes to the job list file. Triggers are coalesced
// and a single worker executes runs one at a time, so two deploys never
// touch the same working copies concurrently.
package daemon
