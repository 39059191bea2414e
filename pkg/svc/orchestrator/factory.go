package orchestrator

import (
	"fmt"

	"github.com/fleetdb/topoctl/pkg/apis/topology/v1alpha1"
	"github.com/jinzhu/copier"
)

// Build constructs the topology tree for a resolved descriptor. The
// descriptor is expected to be validated already; a kind Build does not
// recognize is a contract violation and terminates the run.
func Build(topo *v1alpha1.Topology, deps Deps) Topology {
	shared := sharedConfig{
		setup:   topo.Setup,
		auth:    topo.Auth,
		pinning: topo.ProcessPinning,
	}

	return build(topo, shared, deps)
}

func build(topo *v1alpha1.Topology, shared sharedConfig, deps Deps) Topology {
	switch topo.Kind {
	case v1alpha1.TopologyKindStandalone:
		return newNode(*topo.Node, shared, deps)
	case v1alpha1.TopologyKindReplicaSet:
		return newReplicaSet(topo.ReplicaSet, shared, deps)
	case v1alpha1.TopologyKindShardedCluster:
		return newShardedCluster(topo.ShardedCluster, shared, deps)
	default:
		panic(fmt.Sprintf("unknown topology kind %q", topo.Kind))
	}
}

func newShardedCluster(spec *v1alpha1.ShardedClusterSpec, shared sharedConfig, deps Deps) *ShardedCluster {
	configServer := newReplicaSet(&spec.ConfigServer, shared, deps)

	shards := make([]Topology, 0, len(spec.Shards))
	shardConnStrings := make([]string, 0, len(spec.Shards))

	for index := range spec.Shards {
		shard := build(&spec.Shards[index], shared, deps)
		shards = append(shards, shard)
		shardConnStrings = append(shardConnStrings, shardConnectionString(shard))
	}

	configDB := configServer.privateConnectionString()

	routers := make([]*Node, 0, len(spec.Routers))
	for index := range spec.Routers {
		routers = append(routers, newNode(routerSpec(spec.Routers[index], configDB), shared, deps))
	}

	return &ShardedCluster{
		configServer:     configServer,
		shards:           shards,
		shardConnStrings: shardConnStrings,
		routers:          routers,
		disableBalancer:  spec.DisableBalancer,
		logger:           deps.logger().WithField("cluster", "sharded"),
	}
}

// shardConnectionString addresses one shard for registration: host:port for a
// standalone shard, replSetName/host,... for a replica set shard.
func shardConnectionString(shard Topology) string {
	switch shard := shard.(type) {
	case *Node:
		return shard.privateHostPort()
	case *ReplicaSet:
		return shard.privateConnectionString()
	default:
		panic(fmt.Sprintf("shard type %T cannot be addressed as a shard", shard))
	}
}

// routerSpec derives a router's node spec from the descriptor entry: a deep
// copy forced to the router kind with the config server wired into its
// sharding section.
func routerSpec(spec v1alpha1.NodeSpec, configDB string) v1alpha1.NodeSpec {
	var router v1alpha1.NodeSpec

	err := copier.CopyWithOption(&router, &spec, copier.Option{DeepCopy: true})
	if err != nil {
		panic(fmt.Sprintf("failed to derive router spec: %v", err))
	}

	router.Kind = v1alpha1.NodeKindMongos

	if router.ConfigContent == nil {
		router.ConfigContent = map[string]any{}
	}

	sharding, ok := router.ConfigContent["sharding"].(map[string]any)
	if !ok {
		sharding = map[string]any{}
		router.ConfigContent["sharding"] = sharding
	}

	sharding["configDB"] = configDB

	return router
}
