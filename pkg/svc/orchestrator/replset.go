package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fleetdb/topoctl/pkg/apis/topology/v1alpha1"
	"github.com/sirupsen/logrus"
)

// defaultMemberPriority is the election priority members get when the
// descriptor does not assign one.
const defaultMemberPriority = 1.0

// ReplicaSet drives a group of member nodes as one replica set. Fan-out
// operations run members concurrently; state probes that depend on a primary
// run sequentially through the highest-priority member.
type ReplicaSet struct {
	name    string
	nodes   []*Node
	members []v1alpha1.MemberConfig
	logger  *logrus.Entry
}

func newReplicaSet(spec *v1alpha1.ReplicaSetSpec, shared sharedConfig, deps Deps) *ReplicaSet {
	nodes := make([]*Node, 0, len(spec.Members))
	for _, member := range spec.Members {
		nodes = append(nodes, newNode(member, shared, deps))
	}

	// Pad member settings so every node has an entry to carry its priority.
	members := make([]v1alpha1.MemberConfig, len(spec.Members))
	copy(members, spec.MemberConfig)

	return &ReplicaSet{
		name:    spec.Name,
		nodes:   nodes,
		members: members,
		logger:  deps.logger().WithField("replset", spec.Name),
	}
}

// assignPriorities fills in election priorities for members the descriptor
// left unset. The first member gets a bump so elections are deterministic
// unless the descriptor says otherwise.
func (r *ReplicaSet) assignPriorities() {
	for index := range r.members {
		if r.members[index].Priority != nil {
			continue
		}

		priority := defaultMemberPriority
		if index == 0 {
			priority = defaultMemberPriority + 1
		}

		r.members[index].Priority = &priority
	}
}

// highestPriorityNode returns the member with the maximum election priority.
// Ties resolve to the first member seen.
func (r *ReplicaSet) highestPriorityNode() *Node {
	best := 0
	bestPriority := -1.0

	for index, member := range r.members {
		priority := defaultMemberPriority
		if member.Priority != nil {
			priority = *member.Priority
		}

		if priority > bestPriority {
			best = index
			bestPriority = priority
		}
	}

	return r.nodes[best]
}

// privateConnectionString is the replSetName/host:port,... form other
// components use to address this replica set.
func (r *ReplicaSet) privateConnectionString() string {
	hosts := make([]string, 0, len(r.nodes))
	for _, node := range r.nodes {
		hosts = append(hosts, node.privateHostPort())
	}

	return r.name + "/" + strings.Join(hosts, ",")
}

func (r *ReplicaSet) initiateConfig() replSetConfig {
	members := make([]replSetMember, 0, len(r.nodes))

	for index, node := range r.nodes {
		member := replSetMember{
			ID:       index,
			Host:     node.privateHostPort(),
			Priority: r.members[index].Priority,
			Hidden:   r.members[index].Hidden,
			Votes:    r.members[index].Votes,
		}
		members = append(members, member)
	}

	return replSetConfig{ID: r.name, Members: members}
}

// Prepare fans host preparation out to every member.
func (r *ReplicaSet) Prepare(ctx context.Context) bool {
	ops := make([]func() bool, 0, len(r.nodes))
	for _, node := range r.nodes {
		ops = append(ops, func() bool { return node.Prepare(ctx) })
	}

	return AllOf(FanOut(ops))
}

// Launch starts every member concurrently, then initializes the replica set
// through the highest-priority member when asked to, and finally confirms the
// set reports itself up.
func (r *ReplicaSet) Launch(ctx context.Context, opts LaunchOptions) bool {
	logger := r.logger.WithField("op", "launch")
	logger.Info("launching replica set")

	ops := make([]func() bool, 0, len(r.nodes))
	for _, node := range r.nodes {
		ops = append(ops, func() bool { return node.Launch(ctx, opts) })
	}

	if !AllOf(FanOut(ops)) {
		logger.Error("one or more members failed to launch")

		return false
	}

	if opts.Initialize {
		r.assignPriorities()

		if !r.highestPriorityNode().RunAdminScript(ctx, initiateScript(r.initiateConfig())) {
			logger.Error("replica set initialization failed")

			return false
		}
	}

	return r.ConfirmUp(ctx)
}

// ConfirmUp waits for the highest-priority member to become primary, then for
// every member in declared order to report primary-or-secondary state.
func (r *ReplicaSet) ConfirmUp(ctx context.Context) bool {
	logger := r.logger.WithField("op", "confirmUp")

	primary := r.highestPriorityNode()

	elected := waitFor(ctx, primaryAttempts, pollDelay, func() bool {
		return primary.RunAdminScript(ctx, isPrimaryScript)
	})
	if !elected {
		logger.Error("highest-priority member never became primary")

		return false
	}

	for _, node := range r.nodes {
		settled := waitFor(ctx, secondaryAttempts, pollDelay, func() bool {
			return node.RunAdminScript(ctx, primaryOrSecondaryScript)
		})
		if !settled {
			logger.WithField("member", node.privateHostPort()).
				Error("member never reached primary or secondary state")

			return false
		}
	}

	return true
}

// Shutdown stops every member concurrently. All members are always attempted.
func (r *ReplicaSet) Shutdown(ctx context.Context, maxTime time.Duration, auth bool) bool {
	ops := make([]func() bool, 0, len(r.nodes))
	for _, node := range r.nodes {
		ops = append(ops, func() bool { return node.Shutdown(ctx, maxTime, auth) })
	}

	return AllOf(FanOut(ops))
}

// Destroy force-kills every member concurrently, joining probe errors.
func (r *ReplicaSet) Destroy(ctx context.Context, maxTime time.Duration) (bool, error) {
	ops := make([]func() destroyOutcome, 0, len(r.nodes))
	for _, node := range r.nodes {
		ops = append(ops, func() destroyOutcome {
			ok, err := node.Destroy(ctx, maxTime)

			return destroyOutcome{ok: ok, err: err}
		})
	}

	return collectDestroy(FanOut(ops))
}

// RunAdminScript evaluates a script against the highest-priority member.
func (r *ReplicaSet) RunAdminScript(ctx context.Context, script string) bool {
	return r.highestPriorityNode().RunAdminScript(ctx, script)
}

// AddDefaultUsers creates the administrative user once through the primary,
// with a write concern covering every member.
func (r *ReplicaSet) AddDefaultUsers(ctx context.Context) bool {
	return r.highestPriorityNode().addUsers(ctx, len(r.nodes))
}

// EnableAuth switches every member's administrative shell to authenticated
// connections.
func (r *ReplicaSet) EnableAuth() {
	for _, node := range r.nodes {
		node.EnableAuth()
	}
}

// Reset restarts every member concurrently.
func (r *ReplicaSet) Reset(ctx context.Context) bool {
	ops := make([]func() bool, 0, len(r.nodes))
	for _, node := range r.nodes {
		ops = append(ops, func() bool { return node.Reset(ctx) })
	}

	return AllOf(FanOut(ops))
}

// EstablishDelays applies each member's configured replication delay through
// one reconfig on the primary. A set without delayed members is a no-op.
func (r *ReplicaSet) EstablishDelays(ctx context.Context) bool {
	delays := make([]int, 0, len(r.members))
	delayed := false

	for _, member := range r.members {
		delays = append(delays, member.DelaySecs)

		if member.DelaySecs > 0 {
			delayed = true
		}
	}

	if !delayed {
		return true
	}

	return r.highestPriorityNode().RunAdminScript(ctx, establishDelaysScript(delays))
}

// Nodes returns the member nodes in declared order.
func (r *ReplicaSet) Nodes() []*Node {
	return append([]*Node(nil), r.nodes...)
}

// Close releases every member's session.
func (r *ReplicaSet) Close() error {
	var errs []error

	for _, node := range r.nodes {
		if err := node.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close replica set %s: %w", r.name, err)
	}

	return nil
}
