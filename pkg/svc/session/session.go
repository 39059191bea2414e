package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// NetworkIdentity is the addressing information a transport needs to reach a node.
type NetworkIdentity struct {
	PublicAddress  string
	PrivateAddress string
	Port           int
}

// String returns the identity as "publicAddress:port".
func (id NetworkIdentity) String() string {
	return fmt.Sprintf("%s:%d", id.PublicAddress, id.Port)
}

// ExecOptions bounds a single Execute call. Both budgets are independent and a
// zero value disables the corresponding budget.
type ExecOptions struct {
	// MaxTime is the total wall-clock budget for the command.
	MaxTime time.Duration
	// NoOutput is the inactivity budget: the command fails once this much time
	// passes without any line forwarded to the sinks.
	NoOutput time.Duration
}

// Session is a persistent remote connection to one node.
//
// Execute runs a shell command without a pseudo-terminal, streaming stdout and
// stderr lines into the provided sinks, and returns the remote exit code. When
// a configured budget expires first, it returns an error matching
// ErrMaxTimeExceeded or ErrNoOutputTimeout via errors.Is. All channel handles
// are released on every exit path.
type Session interface {
	Execute(
		ctx context.Context,
		command string,
		stdout, stderr io.Writer,
		opts ExecOptions,
	) (int, error)

	// Put creates or overwrites a remote file with the given content and mode,
	// creating parent directories as needed.
	Put(ctx context.Context, path string, data []byte, mode os.FileMode) error

	// Close releases the connection. Closing an already-closed session is a no-op.
	Close() error
}

// Factory opens ready sessions for node identities. The authenticated flag
// selects an authenticated transport where the implementation distinguishes one.
type Factory interface {
	NewSession(ctx context.Context, identity NetworkIdentity, authenticated bool) (Session, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, identity NetworkIdentity, authenticated bool) (Session, error)

// NewSession implements Factory.
func (f FactoryFunc) NewSession(
	ctx context.Context,
	identity NetworkIdentity,
	authenticated bool,
) (Session, error) {
	return f(ctx, identity, authenticated)
}
