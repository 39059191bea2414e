package v1alpha1

// --- Core Types ---

// Topology is the resolved, variable-free descriptor for one node or group to
// orchestrate. Exactly one of Node, ReplicaSet or ShardedCluster is populated,
// selected by Kind. All variable substitution and override merging has already
// happened upstream; the orchestrator consumes these values as-is.
type Topology struct {
	Kind TopologyKind `json:"kind,omitzero"`

	Node           *NodeSpec           `json:"node,omitzero"`
	ReplicaSet     *ReplicaSetSpec     `json:"replicaSet,omitzero"`
	ShardedCluster *ShardedClusterSpec `json:"shardedCluster,omitzero"`

	// Setup carries the host-preparation flags applied to every node in the tree.
	Setup SetupSpec `json:"setup,omitzero"`

	// Auth is the administrative credential pair propagated down the tree.
	// Nil means the topology runs unauthenticated.
	Auth *AuthSpec `json:"auth,omitzero"`

	// ProcessPinning is the launch-command prefix binding processes to specific
	// CPU/memory resources (e.g. ["numactl", "--interleave=all"]). It arrives
	// untyped from the resolved configuration; a populated value that is not an
	// ordered sequence of string tokens is a contract violation.
	ProcessPinning any `json:"processPinning,omitzero"`
}

// NodeSpec describes a single database or router process on one machine.
type NodeSpec struct {
	PublicAddress  string `json:"publicAddress,omitzero"`
	PrivateAddress string `json:"privateAddress,omitzero"`
	Port           int    `json:"port,omitzero"`

	Kind   NodeKind `json:"kind,omitzero"`
	BinDir string   `json:"binDir,omitzero"`

	// ConfigContent is the fully-resolved content of the process configuration
	// file, rendered to YAML and uploaded verbatim at launch.
	ConfigContent map[string]any `json:"config,omitzero"`

	Shutdown ShutdownOptions `json:"shutdown,omitzero"`

	DBDir           string `json:"dbDir,omitzero"`
	LogDir          string `json:"logDir,omitzero"`
	JournalDir      string `json:"journalDir,omitzero"`
	UseJournalMount bool   `json:"useJournalMount,omitzero"`
}

// ReplicaSetSpec describes an ordered replica set of nodes.
// Members and MemberConfig are parallel sequences: MemberConfig[i] overrides
// the replica-set member document generated for Members[i].
type ReplicaSetSpec struct {
	Name         string         `json:"name,omitzero"`
	Members      []NodeSpec     `json:"members,omitzero"`
	MemberConfig []MemberConfig `json:"memberConfig,omitzero"`
}

// MemberConfig carries per-member replica-set configuration overrides.
// A nil Priority means "no explicit priority"; the orchestrator assigns one
// before initializing the set.
type MemberConfig struct {
	Priority  *float64 `json:"priority,omitzero"`
	Hidden    *bool    `json:"hidden,omitzero"`
	Votes     *int     `json:"votes,omitzero"`
	DelaySecs int      `json:"delaySecs,omitzero"`
}

// ShardedClusterSpec describes a sharded cluster: one config-server replica
// set, an ordered sequence of shard topologies (each a standalone node or a
// replica set), and an ordered sequence of router nodes.
type ShardedClusterSpec struct {
	ConfigServer    ReplicaSetSpec `json:"configServer,omitzero"`
	Shards          []Topology     `json:"shards,omitzero"`
	Routers         []NodeSpec     `json:"routers,omitzero"`
	DisableBalancer bool           `json:"disableBalancer,omitzero"`
}

// SetupSpec selects which host-preparation steps run before launch.
type SetupSpec struct {
	CleanDBDir bool `json:"cleanDbDir,omitzero"`
	CleanLogs  bool `json:"cleanLogs,omitzero"`
}

// AuthSpec is the administrative username/password pair used when default
// users are created and, afterwards, for authenticated admin-shell calls.
type AuthSpec struct {
	Username string `json:"username,omitzero"`
	Password string `json:"password,omitzero"`
}

// ShutdownOptions configures the administrative shutdownServer call issued to
// a node. A zero TimeoutSecs falls back to DefaultShutdownTimeoutSecs.
type ShutdownOptions struct {
	TimeoutSecs int  `json:"timeoutSecs,omitzero"`
	Force       bool `json:"force,omitzero"`
}

// DefaultShutdownTimeoutSecs is the shutdownServer timeout used when a node
// does not configure one.
const DefaultShutdownTimeoutSecs = 5
