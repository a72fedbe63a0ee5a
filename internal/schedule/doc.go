// Package schedule produces the cron.d entries that launch job containers.
//
// Every job/mode pair owns exactly one entry file named "<job>-<mode>" in the
// cron directory. The file is rewritten on every deploy run, either from a
// template shipped in the job's repository or from a fixed schedule line.
package schedule
