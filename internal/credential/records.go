package credential

import (
	"context"

	"github.com/nxt3d/smart-credentials/internal/credential/events"
	"github.com/nxt3d/smart-credentials/internal/credential/gate"
	"github.com/nxt3d/smart-credentials/internal/credential/storage"
	"github.com/nxt3d/smart-credentials/pkg/domain"
	dErrors "github.com/nxt3d/smart-credentials/pkg/domain-errors"
)

// SetAgentMetadata writes a metadata entry for an agent. The actor must be
// authorized for agentID through the bound registry: owner, standing
// operator, or holder of a one-time approval (which this call consumes).
func (i *Instance) SetAgentMetadata(ctx context.Context, actor domain.Address, agentID domain.AgentID, key string, value []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.requireInitialized(); err != nil {
		return err
	}

	switch i.gate.Authorize(ctx, i.registry, actor, agentID) {
	case gate.NotFound:
		return dErrors.New(dErrors.CodeAgentNotFound, "agent is not registered")
	case gate.Forbidden:
		return dErrors.New(dErrors.CodeNotAuthorized, "actor lacks standing for agent")
	}

	if err := i.store.Set(ctx, storage.NamespaceAgentMetadata, storage.AgentMetadataKey(agentID, key), value); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store agent metadata")
	}

	i.emit(ctx, events.Event{
		Type:     events.TypeMetadataChanged,
		Instance: i.addr,
		AgentID:  &agentID,
		Key:      key,
		Value:    value,
	})
	if i.metrics != nil {
		i.metrics.IncMetadataWrite()
	}
	return nil
}

// GetAgentMetadata reads a metadata entry. No authorization: reads are
// public. A never-written key returns a zero-length value.
func (i *Instance) GetAgentMetadata(ctx context.Context, agentID domain.AgentID, key string) ([]byte, error) {
	value, err := i.store.Get(ctx, storage.NamespaceAgentMetadata, storage.AgentMetadataKey(agentID, key))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read agent metadata")
	}
	return value, nil
}

// SubmitReview writes the review entry for the ordered (reviewer, reviewed)
// pair. Authorization is resolved for the reviewer — the acting address must
// have standing for reviewerID, not for the reviewed party. Overwriting an
// existing entry is the update path.
func (i *Instance) SubmitReview(ctx context.Context, actor domain.Address, reviewerID, reviewedID domain.AgentID, data []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.requireInitialized(); err != nil {
		return err
	}

	switch i.gate.Authorize(ctx, i.registry, actor, reviewerID) {
	case gate.NotFound:
		return dErrors.New(dErrors.CodeReviewerNotAgent, "reviewer is not a registered agent")
	case gate.Forbidden:
		return dErrors.New(dErrors.CodeNotAuthorized, "actor lacks standing for reviewer")
	}

	if err := i.store.Set(ctx, storage.NamespaceReviews, storage.ReviewKey(reviewerID, reviewedID), data); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store review")
	}

	i.emit(ctx, events.Event{
		Type:       events.TypeReviewSubmitted,
		Instance:   i.addr,
		ReviewerID: &reviewerID,
		ReviewedID: &reviewedID,
		Data:       data,
	})
	if i.metrics != nil {
		i.metrics.IncReviewSubmitted()
	}
	return nil
}

// GetReview reads the review for the ordered (reviewer, reviewed) pair.
// Directional: (a,b) and (b,a) are distinct entries.
func (i *Instance) GetReview(ctx context.Context, reviewerID, reviewedID domain.AgentID) ([]byte, error) {
	value, err := i.store.Get(ctx, storage.NamespaceReviews, storage.ReviewKey(reviewerID, reviewedID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read review")
	}
	return value, nil
}

// SetInstanceMetadata writes an instance-scoped metadata entry. Owner-only:
// a direct equality check against the current owner, never delegated to the
// registry.
func (i *Instance) SetInstanceMetadata(ctx context.Context, actor domain.Address, key string, value []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.requireOwner(actor); err != nil {
		return err
	}

	if err := i.store.Set(ctx, storage.NamespaceInstanceMetadata, storage.InstanceMetadataKey(key), value); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store instance metadata")
	}

	i.emit(ctx, events.Event{
		Type:     events.TypeMetadataChanged,
		Instance: i.addr,
		Key:      key,
		Value:    value,
	})
	if i.metrics != nil {
		i.metrics.IncMetadataWrite()
	}
	return nil
}

// GetInstanceMetadata reads an instance-scoped metadata entry.
func (i *Instance) GetInstanceMetadata(ctx context.Context, key string) ([]byte, error) {
	value, err := i.store.Get(ctx, storage.NamespaceInstanceMetadata, storage.InstanceMetadataKey(key))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read instance metadata")
	}
	return value, nil
}
