package v1alpha1

// --- Topology Kinds ---

// TopologyKind discriminates the closed set of topology variants.
type TopologyKind string

const (
	// TopologyKindStandalone is a single database node.
	TopologyKindStandalone TopologyKind = "standalone"
	// TopologyKindReplicaSet is an ordered replica set of database nodes.
	TopologyKindReplicaSet TopologyKind = "replset"
	// TopologyKindShardedCluster is a sharded cluster: config servers, shards and routers.
	TopologyKindShardedCluster TopologyKind = "sharded_cluster"
)

// ValidValues returns all valid string values for TopologyKind.
func (k TopologyKind) ValidValues() []string {
	return []string{
		string(TopologyKindStandalone),
		string(TopologyKindReplicaSet),
		string(TopologyKindShardedCluster),
	}
}

// --- Node Kinds ---

// NodeKind identifies the process a node runs.
type NodeKind string

const (
	// NodeKindMongod is a data-bearing database process.
	NodeKindMongod NodeKind = "mongod"
	// NodeKindMongos is a router process in a sharded cluster.
	NodeKindMongos NodeKind = "mongos"
)

// ValidValues returns all valid string values for NodeKind.
func (k NodeKind) ValidValues() []string {
	return []string{string(NodeKindMongod), string(NodeKindMongos)}
}

// IsRouter returns true for router processes.
func (k NodeKind) IsRouter() bool {
	return k == NodeKindMongos
}
