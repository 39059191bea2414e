package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/fleetdb/topoctl/pkg/apis/topology/v1alpha1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReplicaSetSpec(name, publicAddr, privateAddr string, ports ...int) *v1alpha1.ReplicaSetSpec {
	members := make([]v1alpha1.NodeSpec, 0, len(ports))
	for _, port := range ports {
		members = append(members, v1alpha1.NodeSpec{
			PublicAddress:  publicAddr,
			PrivateAddress: privateAddr,
			Port:           port,
			DBDir:          "/data/db",
			LogDir:         "/data/logs",
		})
	}

	return &v1alpha1.ReplicaSetSpec{Name: name, Members: members}
}

func floatPtr(value float64) *float64 { return &value }

func TestReplicaSetAssignsDefaultPriorities(t *testing.T) {
	t.Parallel()

	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018, 27019, 27020)
	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(newFakeFleet()))

	replicaSet.assignPriorities()

	got := make([]float64, 0, len(replicaSet.members))
	for _, member := range replicaSet.members {
		require.NotNil(t, member.Priority)
		got = append(got, *member.Priority)
	}

	// The first member gets the bump so elections are deterministic.
	assert.Equal(t, []float64{2, 1, 1, 1}, got)
	assert.Same(t, replicaSet.nodes[0], replicaSet.highestPriorityNode())
}

func TestReplicaSetKeepsExplicitPriorities(t *testing.T) {
	t.Parallel()

	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018, 27019, 27020)
	spec.MemberConfig = []v1alpha1.MemberConfig{
		{}, {Priority: floatPtr(5)}, {}, {},
	}

	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(newFakeFleet()))
	replicaSet.assignPriorities()

	got := make([]float64, 0, len(replicaSet.members))
	for _, member := range replicaSet.members {
		require.NotNil(t, member.Priority)
		got = append(got, *member.Priority)
	}

	assert.Equal(t, []float64{2, 5, 1, 1}, got)
	assert.Same(t, replicaSet.nodes[1], replicaSet.highestPriorityNode())
}

func TestReplicaSetHighestPriorityNode(t *testing.T) {
	t.Parallel()

	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018, 27019, 27020)
	spec.MemberConfig = []v1alpha1.MemberConfig{
		{Priority: floatPtr(1)}, {Priority: floatPtr(2)}, {Priority: floatPtr(3)}, {Priority: floatPtr(5)},
	}

	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(newFakeFleet()))

	assert.Same(t, replicaSet.nodes[3], replicaSet.highestPriorityNode())
}

func TestReplicaSetHighestPriorityTieResolvesToFirst(t *testing.T) {
	t.Parallel()

	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018, 27019)
	spec.MemberConfig = []v1alpha1.MemberConfig{
		{Priority: floatPtr(3)}, {Priority: floatPtr(3)}, {Priority: floatPtr(1)},
	}

	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(newFakeFleet()))

	assert.Same(t, replicaSet.nodes[0], replicaSet.highestPriorityNode())
}

func TestReplicaSetLaunchInitiatesOnHighestPriorityMember(t *testing.T) {
	t.Parallel()

	fleet := newFakeFleet()
	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018, 27019)
	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(fleet))

	require.True(t, replicaSet.Launch(context.Background(), LaunchOptions{Initialize: true}))

	assert.Len(t, fleet.calls("mongod --config"), 3)

	initiations := fleet.calls("rs.initiate")
	require.Len(t, initiations, 1)
	assert.Equal(t, "10.0.0.1:27017", initiations[0].host)
	assert.Contains(t, initiations[0].command, `\"priority\":2`)
	assert.Contains(t, initiations[0].command, "10.1.0.1:27018")

	// Every launch finishes before the set is initiated.
	assert.Less(t, fleet.firstIndex("mongod --config"), fleet.firstIndex("rs.initiate"))
}

func TestReplicaSetLaunchAbortsWhenMemberFails(t *testing.T) {
	t.Parallel()

	fleet := newFakeFleet()
	fleet.respond = func(_, command string) (int, error) {
		if strings.HasPrefix(command, "mongod --config") && strings.Contains(command, "27018") {
			return 1, nil
		}

		return 0, nil
	}

	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018, 27019)
	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(fleet))

	assert.False(t, replicaSet.Launch(context.Background(), LaunchOptions{Initialize: true}))
	assert.Empty(t, fleet.calls("rs.initiate"))
	// Siblings still launched despite the failure.
	assert.Len(t, fleet.calls("mongod --config"), 3)
}

func TestReplicaSetConfirmUpProbesPrimaryThenEveryMember(t *testing.T) {
	t.Parallel()

	fleet := newFakeFleet()
	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018, 27019)
	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(fleet))

	require.True(t, replicaSet.ConfirmUp(context.Background()))

	primaryProbes := fleet.calls("db.isMaster().ismaster)")
	require.Len(t, primaryProbes, 1)
	assert.Equal(t, "10.0.0.1:27017", primaryProbes[0].host)

	memberProbes := fleet.calls("state.ismaster || state.secondary")
	require.Len(t, memberProbes, 3)
	assert.Equal(t, "10.0.0.1:27017", memberProbes[0].host)
	assert.Equal(t, "10.0.0.1:27018", memberProbes[1].host)
	assert.Equal(t, "10.0.0.1:27019", memberProbes[2].host)
}

func TestReplicaSetEstablishDelaysReconfiguresDelayedMembers(t *testing.T) {
	t.Parallel()

	fleet := newFakeFleet()
	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018, 27019)
	spec.MemberConfig = []v1alpha1.MemberConfig{{}, {}, {DelaySecs: 300}}
	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(fleet))

	require.True(t, replicaSet.EstablishDelays(context.Background()))

	reconfigs := fleet.calls("rs.reconfig")
	require.Len(t, reconfigs, 1)
	assert.Contains(t, reconfigs[0].command, "members[2].slaveDelay = 300")
	assert.Contains(t, reconfigs[0].command, "members[2].hidden = true")
	assert.NotContains(t, reconfigs[0].command, "members[0].slaveDelay")
}

func TestReplicaSetEstablishDelaysWithoutDelayedMembersIsNoOp(t *testing.T) {
	t.Parallel()

	fleet := newFakeFleet()
	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018)
	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(fleet))

	require.True(t, replicaSet.EstablishDelays(context.Background()))
	assert.Empty(t, fleet.calls("rs.reconfig"))
}

func TestReplicaSetAddDefaultUsersWritesToEveryMember(t *testing.T) {
	t.Parallel()

	fleet := newFakeFleet()
	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018, 27019)
	replicaSet := newReplicaSet(spec, sharedConfig{
		auth: &v1alpha1.AuthSpec{Username: "admin", Password: "secret"},
	}, testDeps(fleet))

	require.True(t, replicaSet.AddDefaultUsers(context.Background()))

	created := fleet.calls("createUser")
	require.Len(t, created, 1)
	assert.Equal(t, "10.0.0.1:27017", created[0].host)
	assert.Contains(t, created[0].command, "{w: 3}")
}

func TestReplicaSetPrivateConnectionString(t *testing.T) {
	t.Parallel()

	spec := testReplicaSetSpec("rs0", "10.0.0.1", "10.1.0.1", 27017, 27018)
	replicaSet := newReplicaSet(spec, sharedConfig{}, testDeps(newFakeFleet()))

	assert.Equal(t, "rs0/10.1.0.1:27017,10.1.0.1:27018", replicaSet.privateConnectionString())
}
