// Package git inspects and synchronizes the working copies bdeep deploys from.
//
// A working copy is a plain non-bare repository with an "origin" remote and a
// single checked-out branch that tracks origin/<branch>. The client answers
// four questions about it (exists, verified, behind) and changes it in two
// ways (clone, update). All remote traffic goes through go-git; no git binary
// is required on the host.
package git
