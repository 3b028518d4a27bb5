package credential

import (
	"context"

	"github.com/nxt3d/smart-credentials/internal/credential/events"
	"github.com/nxt3d/smart-credentials/pkg/domain"
	dErrors "github.com/nxt3d/smart-credentials/pkg/domain-errors"
)

// Capability names a structural interface an instance can report support
// for. External callers introspect compatibility before invoking operations.
type Capability string

const (
	CapabilityAgentMetadata    Capability = "agent-metadata"
	CapabilityInstanceMetadata Capability = "instance-metadata"
	CapabilityReviews          Capability = "reviews"
	CapabilityInstanceOps      Capability = "instance-operations"
)

var supportedCapabilities = map[Capability]bool{
	CapabilityAgentMetadata:    true,
	CapabilityInstanceMetadata: true,
	CapabilityReviews:          true,
	CapabilityInstanceOps:      true,
}

// Supports reports whether the instance implements the named capability.
// Unrecognized queries return false rather than failing.
func (i *Instance) Supports(capability Capability) bool {
	return supportedCapabilities[capability]
}

// SetRegistry swaps the bound registry. Owner-only. The null address is
// rejected — an instance may never be left without a registry — and an
// address the resolver cannot bind is rejected before any state change.
// Swapping takes effect immediately: agents known only to the old registry
// stop resolving.
func (i *Instance) SetRegistry(ctx context.Context, actor, newRegistryAddr domain.Address) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.requireOwner(actor); err != nil {
		return err
	}
	if newRegistryAddr.IsNull() {
		return dErrors.New(dErrors.CodeInvalidRegistry, "registry address cannot be null")
	}

	old := i.registryAddr
	if err := i.bindRegistry(newRegistryAddr); err != nil {
		return err
	}

	i.emit(ctx, events.Event{
		Type:     events.TypeRegistryUpdated,
		Instance: i.addr,
		Old:      old,
		New:      i.registryAddr,
	})
	return nil
}

// TransferOwnership hands the instance to a new owner. Owner-only. The null
// address is rejected; RenounceOwnership is the explicit path to no owner.
func (i *Instance) TransferOwnership(ctx context.Context, actor, newOwner domain.Address) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.requireOwner(actor); err != nil {
		return err
	}
	if newOwner.IsNull() {
		return dErrors.New(dErrors.CodeInvalidInput, "new owner cannot be the null address; use RenounceOwnership")
	}

	old := i.owner
	i.owner = newOwner

	i.emit(ctx, events.Event{
		Type:     events.TypeOwnershipTransferred,
		Instance: i.addr,
		Old:      old,
		New:      newOwner,
	})
	return nil
}

// RenounceOwnership sets the owner to the null address. Owner-only and
// irreversible: no owner-gated operation can ever succeed again.
func (i *Instance) RenounceOwnership(ctx context.Context, actor domain.Address) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.requireOwner(actor); err != nil {
		return err
	}

	old := i.owner
	i.owner = domain.NullAddress

	i.emit(ctx, events.Event{
		Type:     events.TypeOwnershipTransferred,
		Instance: i.addr,
		Old:      old,
		New:      domain.NullAddress,
	})
	return nil
}
