// Package deploy drives the synchronize, build and schedule loop over a job list.
//
// For every job and every mode, in input order, the driver makes sure the
// working copy is a clone of the mode's remote with its branch checked out,
// rebuilds the image when the working copy changed, and rewrites the cron
// entry that runs the image. Pairs are processed strictly one at a time.
package deploy
