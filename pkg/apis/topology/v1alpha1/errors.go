package v1alpha1

import "errors"

// ErrInvalidTopologyKind is returned when an unrecognized topology kind is specified.
var ErrInvalidTopologyKind = errors.New("invalid topology kind")

// ErrInvalidNodeKind is returned when an unrecognized node kind is specified.
var ErrInvalidNodeKind = errors.New("invalid node kind")

// ErrMissingNodeSpec is returned when a standalone topology has no node entry.
var ErrMissingNodeSpec = errors.New("standalone topology requires a node entry")

// ErrMissingReplicaSetSpec is returned when a replica-set topology has no replica-set entry.
var ErrMissingReplicaSetSpec = errors.New("replica-set topology requires a replicaSet entry")

// ErrMissingShardedClusterSpec is returned when a sharded topology has no sharded-cluster entry.
var ErrMissingShardedClusterSpec = errors.New(
	"sharded-cluster topology requires a shardedCluster entry",
)

// ErrNoMembers is returned when a replica set declares no members.
var ErrNoMembers = errors.New("replica set requires at least one member")

// ErrNoShards is returned when a sharded cluster declares no shards.
var ErrNoShards = errors.New("sharded cluster requires at least one shard")

// ErrNoRouters is returned when a sharded cluster declares no routers.
var ErrNoRouters = errors.New("sharded cluster requires at least one router")

// ErrMissingAddress is returned when a node lacks a public or private address.
var ErrMissingAddress = errors.New("node requires public and private addresses")

// ErrMissingPort is returned when a node lacks a port.
var ErrMissingPort = errors.New("node requires a port")
