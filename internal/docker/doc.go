// Package docker triggers container image builds for checked-out jobs.
package docker
