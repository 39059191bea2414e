// Package v1alpha1 defines the resolved topology descriptor types consumed by
// the orchestrator. Descriptors are produced by an external
// configuration-resolution engine; this package performs no variable
// substitution or override merging.
package v1alpha1
