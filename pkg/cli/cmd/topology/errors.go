package topology

import "errors"

var (
	// ErrUnsupportedTransport is returned for an unknown --transport value.
	ErrUnsupportedTransport = errors.New("unsupported transport")
	// ErrPrepareFailed is returned when host preparation reports failure.
	ErrPrepareFailed = errors.New("host preparation failed")
	// ErrLaunchFailed is returned when the topology fails to launch or to
	// confirm itself up.
	ErrLaunchFailed = errors.New("topology failed to launch")
	// ErrShutdownFailed is returned when one or more processes survive shutdown.
	ErrShutdownFailed = errors.New("topology failed to shut down")
	// ErrDestroyFailed is returned when the force-kill pass reports failure.
	ErrDestroyFailed = errors.New("topology failed to be destroyed")
	// ErrCreateUsersFailed is returned when default user creation reports failure.
	ErrCreateUsersFailed = errors.New("failed to create default users")
)
