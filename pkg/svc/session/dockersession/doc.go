// Package dockersession implements the remote execution session against
// local containers via the Docker API. It exists for development topologies
// where every "machine" is a container; the orchestrator cannot tell it apart
// from the SSH transport.
package dockersession
