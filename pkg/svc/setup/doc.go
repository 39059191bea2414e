// Package setup plans the filesystem preparation commands run on a host
// before a node launches. Planning is pure: flags and paths in, an ordered
// sequence of argument-vector commands out. Execution is the caller's job.
package setup
