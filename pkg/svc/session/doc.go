// Package session defines the remote execution session contract and the
// dual-timeout streaming loop shared by every transport implementation.
//
// A session is a persistent per-node connection. It is owned by exactly one
// topology node, created lazily, reused for the node's remaining lifetime and
// released by an explicit Close. Sessions are never shared between nodes, so
// implementations need no internal locking.
package session
