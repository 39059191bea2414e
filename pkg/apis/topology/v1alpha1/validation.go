package v1alpha1

import (
	"fmt"
	"slices"
)

// Validate checks that the descriptor is structurally complete: the kind is
// recognized, the matching sub-spec is present, and every node carries the
// identity fields the orchestrator needs to open a session.
func (t *Topology) Validate() error {
	if !slices.Contains(t.Kind.ValidValues(), string(t.Kind)) {
		return fmt.Errorf("%w: %q", ErrInvalidTopologyKind, t.Kind)
	}

	switch t.Kind {
	case TopologyKindStandalone:
		if t.Node == nil {
			return ErrMissingNodeSpec
		}

		return t.Node.Validate()
	case TopologyKindReplicaSet:
		if t.ReplicaSet == nil {
			return ErrMissingReplicaSetSpec
		}

		return t.ReplicaSet.Validate()
	case TopologyKindShardedCluster:
		if t.ShardedCluster == nil {
			return ErrMissingShardedClusterSpec
		}

		return t.ShardedCluster.Validate()
	}

	return nil
}

// Validate checks a node entry for the fields required to reach and run it.
func (n *NodeSpec) Validate() error {
	if n.Kind != "" && !slices.Contains(n.Kind.ValidValues(), string(n.Kind)) {
		return fmt.Errorf("%w: %q", ErrInvalidNodeKind, n.Kind)
	}

	if n.PublicAddress == "" || n.PrivateAddress == "" {
		return fmt.Errorf("%w: %s:%d", ErrMissingAddress, n.PublicAddress, n.Port)
	}

	if n.Port == 0 {
		return fmt.Errorf("%w: %s", ErrMissingPort, n.PublicAddress)
	}

	return nil
}

// Validate checks a replica-set entry and all of its members.
func (r *ReplicaSetSpec) Validate() error {
	if len(r.Members) == 0 {
		return fmt.Errorf("%w: %s", ErrNoMembers, r.Name)
	}

	for i := range r.Members {
		err := r.Members[i].Validate()
		if err != nil {
			return fmt.Errorf("replica set %s member %d: %w", r.Name, i, err)
		}
	}

	return nil
}

// Validate checks a sharded-cluster entry, recursing into config servers and shards.
func (s *ShardedClusterSpec) Validate() error {
	err := s.ConfigServer.Validate()
	if err != nil {
		return fmt.Errorf("config server: %w", err)
	}

	if len(s.Shards) == 0 {
		return ErrNoShards
	}

	if len(s.Routers) == 0 {
		return ErrNoRouters
	}

	for i := range s.Shards {
		err := s.Shards[i].Validate()
		if err != nil {
			return fmt.Errorf("shard %d: %w", i, err)
		}
	}

	for i := range s.Routers {
		err := s.Routers[i].Validate()
		if err != nil {
			return fmt.Errorf("router %d: %w", i, err)
		}
	}

	return nil
}
