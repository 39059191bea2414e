package dockersession

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
	"github.com/fleetdb/topoctl/pkg/svc/session"
)

// Resolver maps a node identity to the name or ID of its container.
type Resolver func(identity session.NetworkIdentity) string

// Factory opens docker-exec sessions against a shared Docker API client.
type Factory struct {
	api     client.APIClient
	resolve Resolver
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithResolver overrides how identities map to containers. The default uses
// the node's private address as the container name.
func WithResolver(resolve Resolver) FactoryOption {
	return func(f *Factory) { f.resolve = resolve }
}

// NewFactory creates a docker session factory around an existing API client.
func NewFactory(api client.APIClient, opts ...FactoryOption) *Factory {
	factory := &Factory{
		api: api,
		resolve: func(identity session.NetworkIdentity) string {
			return identity.PrivateAddress
		},
	}

	for _, opt := range opts {
		opt(factory)
	}

	return factory
}

// NewSession verifies the container exists and returns a session bound to it.
// The authenticated flag only matters to database-level transports and is ignored.
func (f *Factory) NewSession(
	ctx context.Context,
	identity session.NetworkIdentity,
	_ bool,
) (session.Session, error) {
	name := f.resolve(identity)

	inspect, err := f.api.ContainerInspect(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("inspect container %s for %s: %w", name, identity, err)
	}

	return &Session{api: f.api, containerID: inspect.ID, identity: identity}, nil
}
