// Package topology contains the versioned API types for resolved topology
// descriptors consumed by the orchestrator.
package topology
