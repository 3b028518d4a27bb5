// Package registry defines the narrow capability a credential instance
// consumes from an external agent registry, plus the resolver that binds
// registry addresses to clients.
//
// The instance never assumes anything about a registry beyond the facts
// queried here: who owns an agent, whether an actor is a standing operator
// for an owner, and whether a one-time approval is live. A registry is a
// weak reference — swapping the bound address immediately changes which
// agents are considered known.
package registry

import (
	"context"
	"sync"

	"github.com/nxt3d/smart-credentials/pkg/domain"
	"github.com/nxt3d/smart-credentials/pkg/platform/sentinel"
)

// DefaultAddress is the well-known registry substituted whenever a caller
// supplies the null address, both at construction and at rebind time. An
// instance is never left without a registry.
const DefaultAddress domain.Address = "registry/default"

// Registry is the minimum contract the credential core requires.
type Registry interface {
	// OwnerOf resolves the current owner of an agent. Returns
	// sentinel.ErrNotFound (possibly wrapped) when the agent is unknown;
	// the core maps any error here to its NotFound outcome.
	OwnerOf(ctx context.Context, agentID domain.AgentID) (domain.Address, error)

	// IsOperator reports whether actor holds a standing, reusable grant to
	// act for owner across all of owner's agents.
	IsOperator(ctx context.Context, owner, actor domain.Address) (bool, error)

	// Allowance reports whether a live one-time approval exists for actor on
	// exactly this agent. Read-only; it does not consume the approval.
	Allowance(ctx context.Context, owner, actor domain.Address, agentID domain.AgentID) (bool, error)

	// ConsumeApproval atomically checks for a live one-time approval and, if
	// present, revokes it. Returns whether an approval was consumed. Check
	// and consumption are one operation so two callers can never both
	// observe the same approval as live.
	ConsumeApproval(ctx context.Context, owner, actor domain.Address, agentID domain.AgentID) (bool, error)
}

// Resolver maps registry addresses to bound clients. Instances rebind
// registries by address (owner-gated SetRegistry); the resolver is where an
// address becomes a live capability.
type Resolver struct {
	mu         sync.RWMutex
	registries map[domain.Address]Registry
}

// NewResolver creates a resolver with the given default registry bound at
// DefaultAddress.
func NewResolver(defaultRegistry Registry) *Resolver {
	r := &Resolver{registries: make(map[domain.Address]Registry)}
	r.registries[DefaultAddress] = defaultRegistry
	return r
}

// Register binds a registry client at an address, replacing any previous
// binding.
func (r *Resolver) Register(addr domain.Address, reg Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registries[addr] = reg
}

// Resolve returns the registry bound at addr. The null address resolves to
// the default registry. An unbound address returns sentinel.ErrNotFound.
func (r *Resolver) Resolve(addr domain.Address) (Registry, error) {
	if addr.IsNull() {
		addr = DefaultAddress
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registries[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return reg, nil
}
