package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetdb/topoctl/pkg/svc/session"
	"github.com/sirupsen/logrus"
)

// pollDelay paces every retry loop in the tree.
var pollDelay = time.Second

const (
	// nodeUpAttempts bounds a single node's health confirmation.
	nodeUpAttempts = 10
	// primaryAttempts bounds the wait for a replica set's highest-priority
	// member to become primary.
	primaryAttempts = 120
	// secondaryAttempts bounds the per-member wait for primary-or-secondary state.
	secondaryAttempts = 20
	// shutdownRetries bounds the shutdown script-then-probe loop.
	shutdownRetries = 20
	// shardCountAttempts bounds a router's registered-shard polling.
	shardCountAttempts = 10

	// launchLogTail is how many process-log lines are dumped when a launch fails.
	launchLogTail = 100
)

// Topology is the lifecycle contract shared by nodes, replica sets and
// sharded clusters. Boolean results encode "reported, non-fatal": a failing
// child is logged and aggregated, never raised, so siblings always run to
// completion. Destroy alone returns an error because a failed kill probe
// leaves process and data state ambiguous.
type Topology interface {
	// Prepare force-kills stray processes and runs the planned filesystem
	// preparation commands on every host.
	Prepare(ctx context.Context) bool

	// Launch uploads configuration, starts processes and confirms the
	// topology reports itself up.
	Launch(ctx context.Context, opts LaunchOptions) bool

	// ConfirmUp polls the topology until it reports itself healthy.
	ConfirmUp(ctx context.Context) bool

	// Shutdown asks every process to stop through the administrative shell,
	// probing and retrying until it is gone or retries are exhausted.
	Shutdown(ctx context.Context, maxTime time.Duration, auth bool) bool

	// Destroy escalates terminate signals for up to maxTime, then
	// unconditionally force-kills.
	Destroy(ctx context.Context, maxTime time.Duration) (bool, error)

	// RunAdminScript runs an administrative-shell script against the
	// topology's primary path.
	RunAdminScript(ctx context.Context, script string) bool

	// AddDefaultUsers creates the administrative users. Only valid while the
	// topology still runs unauthenticated.
	AddDefaultUsers(ctx context.Context) bool

	// Close releases every session in the tree.
	Close() error
}

// NodeLister is implemented by topologies that can enumerate their leaf
// nodes in declared order. All three implementations support it.
type NodeLister interface {
	Nodes() []*Node
}

// AuthToggler is the optional interface for switching a topology's
// administrative-shell calls to authenticated connections once default users
// exist. All three implementations support it.
type AuthToggler interface {
	EnableAuth()
}

// LaunchOptions configures one launch pass over the tree.
type LaunchOptions struct {
	// Initialize runs replica-set initialization and shard registration after
	// the processes start.
	Initialize bool
	// UseProcessPinning prepends the descriptor's process-pinning tokens to
	// data-node launch commands.
	UseProcessPinning bool
}

// Deps carries the collaborators every topology in a tree shares.
type Deps struct {
	Sessions session.Factory
	Logger   *logrus.Logger
}

func (d Deps) logger() *logrus.Logger {
	if d.Logger != nil {
		return d.Logger
	}

	return logrus.StandardLogger()
}

// PinningTokens normalizes the untyped process-pinning prefix carried by the
// descriptor. A populated value that is not an ordered sequence of string
// tokens is a contract violation, not a recoverable error.
func PinningTokens(raw any) []string {
	switch value := raw.(type) {
	case nil:
		return nil
	case []string:
		return value
	case []any:
		tokens := make([]string, 0, len(value))

		for _, item := range value {
			token, ok := item.(string)
			if !ok {
				panic(fmt.Sprintf(
					"process-pinning prefix must be a list of string tokens, got %T in %v",
					item, raw,
				))
			}

			tokens = append(tokens, token)
		}

		return tokens
	default:
		panic(fmt.Sprintf(
			"process-pinning prefix must be a list of string tokens, got %T", raw,
		))
	}
}

// waitFor runs check up to attempts times, interval apart, stopping early on
// success or context cancellation.
func waitFor(ctx context.Context, attempts int, interval time.Duration, check func() bool) bool {
	for attempt := 1; attempt <= attempts; attempt++ {
		if check() {
			return true
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}

	return false
}
