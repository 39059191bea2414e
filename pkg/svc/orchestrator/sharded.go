package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ShardedCluster drives a config-server replica set, a list of shards and a
// list of router nodes as one cluster. Shards are full topologies themselves,
// standalone nodes or replica sets.
type ShardedCluster struct {
	configServer     *ReplicaSet
	shards           []Topology
	shardConnStrings []string
	routers          []*Node
	disableBalancer  bool
	logger           *logrus.Entry
}

// children walks the cluster in a fixed order: config server, shards, routers.
func (c *ShardedCluster) children() []Topology {
	children := make([]Topology, 0, 1+len(c.shards)+len(c.routers))
	children = append(children, c.configServer)
	children = append(children, c.shards...)

	for _, router := range c.routers {
		children = append(children, router)
	}

	return children
}

// Prepare fans host preparation out across the whole cluster at once.
func (c *ShardedCluster) Prepare(ctx context.Context) bool {
	children := c.children()

	ops := make([]func() bool, 0, len(children))
	for _, child := range children {
		ops = append(ops, func() bool { return child.Prepare(ctx) })
	}

	return AllOf(FanOut(ops))
}

// Launch starts the config server first, then shards and routers
// concurrently, registers the shards, optionally stops the balancer and
// confirms every router sees the full cluster.
func (c *ShardedCluster) Launch(ctx context.Context, opts LaunchOptions) bool {
	logger := c.logger.WithField("op", "launch")
	logger.Info("launching sharded cluster")

	// Config servers are never pinned; routers cannot start without them.
	if !c.configServer.Launch(ctx, LaunchOptions{Initialize: opts.Initialize}) {
		logger.Error("config server failed to launch")

		return false
	}

	ops := make([]func() bool, 0, len(c.shards)+len(c.routers))
	for _, shard := range c.shards {
		ops = append(ops, func() bool { return shard.Launch(ctx, opts) })
	}

	for _, router := range c.routers {
		ops = append(ops, func() bool { return router.Launch(ctx, LaunchOptions{}) })
	}

	if !AllOf(FanOut(ops)) {
		logger.Error("one or more shards or routers failed to launch")

		return false
	}

	if opts.Initialize {
		if !c.routers[0].RunAdminScript(ctx, addShardsScript(c.shardConnStrings)) {
			logger.Error("shard registration failed")

			return false
		}
	}

	if c.disableBalancer {
		if !c.routers[0].RunAdminScript(ctx, stopBalancerScript) {
			logger.Error("failed to stop the balancer")

			return false
		}
	}

	return c.ConfirmUp(ctx)
}

// ConfirmUp polls every router in declared order until each reports the
// expected number of registered shards.
func (c *ShardedCluster) ConfirmUp(ctx context.Context) bool {
	logger := c.logger.WithField("op", "confirmUp")
	script := shardCountScript(len(c.shards))

	for _, router := range c.routers {
		settled := waitFor(ctx, shardCountAttempts, pollDelay, func() bool {
			return router.RunAdminScript(ctx, script)
		})
		if !settled {
			logger.WithField("router", router.privateHostPort()).
				Error("router never reported the expected shard count")

			return false
		}
	}

	return true
}

// Shutdown stops every part of the cluster concurrently.
func (c *ShardedCluster) Shutdown(ctx context.Context, maxTime time.Duration, auth bool) bool {
	children := c.children()

	ops := make([]func() bool, 0, len(children))
	for _, child := range children {
		ops = append(ops, func() bool { return child.Shutdown(ctx, maxTime, auth) })
	}

	return AllOf(FanOut(ops))
}

// Destroy force-kills every part of the cluster concurrently.
func (c *ShardedCluster) Destroy(ctx context.Context, maxTime time.Duration) (bool, error) {
	children := c.children()

	ops := make([]func() destroyOutcome, 0, len(children))
	for _, child := range children {
		ops = append(ops, func() destroyOutcome {
			ok, err := child.Destroy(ctx, maxTime)

			return destroyOutcome{ok: ok, err: err}
		})
	}

	return collectDestroy(FanOut(ops))
}

// RunAdminScript evaluates a script through the first router.
func (c *ShardedCluster) RunAdminScript(ctx context.Context, script string) bool {
	return c.routers[0].RunAdminScript(ctx, script)
}

// AddDefaultUsers creates the administrative user at the cluster level
// through a router, then independently on the config server and every shard.
// Shard-local users are required because shard servers do not consult the
// cluster's user catalog for direct connections.
func (c *ShardedCluster) AddDefaultUsers(ctx context.Context) bool {
	ok := c.routers[0].addUsers(ctx, 1)
	ok = c.configServer.AddDefaultUsers(ctx) && ok

	for _, shard := range c.shards {
		ok = shard.AddDefaultUsers(ctx) && ok
	}

	return ok
}

// EnableAuth switches the whole cluster's administrative shells to
// authenticated connections.
func (c *ShardedCluster) EnableAuth() {
	for _, child := range c.children() {
		if toggler, ok := child.(AuthToggler); ok {
			toggler.EnableAuth()
		}
	}
}

// Nodes flattens the cluster's leaf nodes: config server, shards, routers.
func (c *ShardedCluster) Nodes() []*Node {
	nodes := c.configServer.Nodes()

	for _, shard := range c.shards {
		if lister, ok := shard.(NodeLister); ok {
			nodes = append(nodes, lister.Nodes()...)
		}
	}

	return append(nodes, c.routers...)
}

// Close releases every session in the cluster.
func (c *ShardedCluster) Close() error {
	var errs []error

	for _, child := range c.children() {
		if err := child.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close sharded cluster: %w", err)
	}

	return nil
}
