package session

import "errors"

// ErrMaxTimeExceeded is returned when a command's total wall-clock budget expires.
var ErrMaxTimeExceeded = errors.New("remote command exceeded max time")

// ErrNoOutputTimeout is returned when a command produces no output for longer
// than its inactivity budget.
var ErrNoOutputTimeout = errors.New("remote command produced no output within timeout")

// ErrSessionClosed is returned when an operation is attempted on a closed session.
var ErrSessionClosed = errors.New("session is closed")

// ErrExitStatusUnknown is returned when the remote side completes without
// reporting an exit status.
var ErrExitStatusUnknown = errors.New("remote command finished without an exit status")
