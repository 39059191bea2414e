package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fleetdb/topoctl/pkg/apis/topology/v1alpha1"
)

// Administrative-shell probes. Each asserts so the shell exits nonzero when
// the condition does not hold, which is what the retry loops key on.
const (
	healthyScript            = "assert(db.isMaster().ok)"
	isPrimaryScript          = "assert(db.isMaster().ismaster)"
	primaryOrSecondaryScript = "var state = db.isMaster(); assert(state.ismaster || state.secondary)"
	stopBalancerScript       = "sh.stopBalancer()"
)

// replSetMember mirrors one member entry of the replSetInitiate document.
type replSetMember struct {
	ID         int      `json:"_id"`
	Host       string   `json:"host"`
	Priority   *float64 `json:"priority,omitempty"`
	Hidden     *bool    `json:"hidden,omitempty"`
	Votes      *int     `json:"votes,omitempty"`
	SlaveDelay int      `json:"slaveDelay,omitempty"`
}

type replSetConfig struct {
	ID      string          `json:"_id"`
	Members []replSetMember `json:"members"`
}

func initiateScript(config replSetConfig) string {
	doc, err := json.Marshal(config)
	if err != nil {
		panic(fmt.Sprintf("replica set config is not serializable: %v", err))
	}

	return fmt.Sprintf("assert.commandWorked(rs.initiate(%s))", doc)
}

// shutdownScript builds the shutdownServer call for one node. A zero timeout
// in the descriptor falls back to the default grace period.
func shutdownScript(opts v1alpha1.ShutdownOptions) string {
	timeoutSecs := opts.TimeoutSecs
	if timeoutSecs == 0 {
		timeoutSecs = v1alpha1.DefaultShutdownTimeoutSecs
	}

	return fmt.Sprintf(
		"db.getSiblingDB('admin').shutdownServer({timeoutSecs: %d, force: %t})",
		timeoutSecs, opts.Force,
	)
}

// addShardsScript registers every shard in one script, one statement per
// shard. Any failing registration aborts the remaining ones.
func addShardsScript(connectionStrings []string) string {
	statements := make([]string, 0, len(connectionStrings))

	for _, connectionString := range connectionStrings {
		statements = append(statements,
			fmt.Sprintf("assert.commandWorked(sh.addShard(%s));", jsString(connectionString)),
		)
	}

	return strings.Join(statements, "\n")
}

func shardCountScript(expected int) string {
	return fmt.Sprintf("assert.eq(db.getSiblingDB('config').shards.count(), %d)", expected)
}

// createUserScript creates the root administrative user. writeConcern must
// cover every data-bearing member so the user is durable before auth flips on.
func createUserScript(auth v1alpha1.AuthSpec, writeConcern int) string {
	return fmt.Sprintf(
		"db.getSiblingDB('admin').createUser({user: %s, pwd: %s, "+
			"roles: [{role: 'root', db: 'admin'}]}, {w: %d})",
		jsString(auth.Username), jsString(auth.Password), writeConcern,
	)
}

// establishDelaysScript reconfigures delayed members in place on the primary.
// Delayed members must be hidden and priority zero per server rules.
func establishDelaysScript(delaySecs []int) string {
	var builder strings.Builder

	builder.WriteString("var config = rs.conf();\n")

	for index, delay := range delaySecs {
		if delay <= 0 {
			continue
		}

		fmt.Fprintf(&builder, "config.members[%d].slaveDelay = %d;\n", index, delay)
		fmt.Fprintf(&builder, "config.members[%d].priority = 0;\n", index)
		fmt.Fprintf(&builder, "config.members[%d].hidden = true;\n", index)
	}

	builder.WriteString("assert.commandWorked(rs.reconfig(config, {force: true}))")

	return builder.String()
}

// jsString renders a Go string as a JavaScript string literal.
func jsString(value string) string {
	literal, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("string is not serializable: %v", err))
	}

	return string(literal)
}
