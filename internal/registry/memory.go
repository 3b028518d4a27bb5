package registry

import (
	"context"
	"sync"

	"github.com/nxt3d/smart-credentials/pkg/domain"
	"github.com/nxt3d/smart-credentials/pkg/platform/sentinel"
)

type approvalKey struct {
	owner   domain.Address
	actor   domain.Address
	agentID domain.AgentID
}

type operatorKey struct {
	owner domain.Address
	actor domain.Address
}

// InMemory is a mutex-guarded agent registry. It backs the well-known
// default registry and doubles as the test double for the authorization
// gate, since it exposes the owner/operator/approval setters an external
// registry service would own.
type InMemory struct {
	mu        sync.Mutex
	owners    map[domain.AgentID]domain.Address
	operators map[operatorKey]bool
	approvals map[approvalKey]bool
}

// NewInMemory creates an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{
		owners:    make(map[domain.AgentID]domain.Address),
		operators: make(map[operatorKey]bool),
		approvals: make(map[approvalKey]bool),
	}
}

// RegisterAgent records the owner of an agent, creating it if unknown.
func (r *InMemory) RegisterAgent(agentID domain.AgentID, owner domain.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[agentID] = owner
}

// SetOperator grants or revokes a standing operator for an owner.
func (r *InMemory) SetOperator(owner, actor domain.Address, granted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if granted {
		r.operators[operatorKey{owner: owner, actor: actor}] = true
		return
	}
	delete(r.operators, operatorKey{owner: owner, actor: actor})
}

// Approve grants a one-time approval for actor on exactly one agent.
func (r *InMemory) Approve(owner, actor domain.Address, agentID domain.AgentID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approvals[approvalKey{owner: owner, actor: actor, agentID: agentID}] = true
}

// OwnerOf resolves the owner of an agent.
func (r *InMemory) OwnerOf(_ context.Context, agentID domain.AgentID) (domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[agentID]
	if !ok {
		return domain.NullAddress, sentinel.ErrNotFound
	}
	return owner, nil
}

// IsOperator reports a standing operator grant.
func (r *InMemory) IsOperator(_ context.Context, owner, actor domain.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.operators[operatorKey{owner: owner, actor: actor}], nil
}

// Allowance reports a live one-time approval without consuming it.
func (r *InMemory) Allowance(_ context.Context, owner, actor domain.Address, agentID domain.AgentID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.approvals[approvalKey{owner: owner, actor: actor, agentID: agentID}], nil
}

// ConsumeApproval checks and revokes a one-time approval under one lock
// acquisition, guaranteeing exactly one consumer per approval.
func (r *InMemory) ConsumeApproval(_ context.Context, owner, actor domain.Address, agentID domain.AgentID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := approvalKey{owner: owner, actor: actor, agentID: agentID}
	if !r.approvals[key] {
		return false, nil
	}
	delete(r.approvals, key)
	return true, nil
}
