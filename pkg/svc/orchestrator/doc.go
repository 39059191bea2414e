// Package orchestrator builds and drives topology trees: single nodes,
// replica sets and sharded clusters sharing one lifecycle contract. Groups
// fan operations out to their children and aggregate boolean results; leaves
// talk to their machines through owned remote execution sessions.
package orchestrator
