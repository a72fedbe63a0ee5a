// Package errors provides the classified error primitives used across bdeep.
//
// A ClassifiedError carries a category (config, git, build, schedule, ...), a
// severity and a small context map. Commands surface them through the
// CLIErrorAdapter, which maps categories to process exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryGit, "clone failed").
//		WithContext("remote", remote).
//		WithContext("path", path).
//		Build()
package errors
