// Package credential implements the credential instance: an independently
// owned unit of storage executing one shared logic body.
//
// Instances keep third-party-attested records about agents (metadata and
// reviews) and delegate "may actor X act for agent S" to an external agent
// registry. One Instance type serves three construction states: the
// template (the shared logic body, never usable directly), uninitialized
// clones, and initialized instances.
package credential

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nxt3d/smart-credentials/internal/credential/events"
	"github.com/nxt3d/smart-credentials/internal/credential/gate"
	"github.com/nxt3d/smart-credentials/internal/credential/metrics"
	"github.com/nxt3d/smart-credentials/internal/credential/storage"
	"github.com/nxt3d/smart-credentials/internal/registry"
	"github.com/nxt3d/smart-credentials/pkg/domain"
	dErrors "github.com/nxt3d/smart-credentials/pkg/domain-errors"
	"github.com/nxt3d/smart-credentials/pkg/requestcontext"
)

// LogicVersion identifies the logic body every instance executes. It feeds
// the factory's deterministic address derivation: two factories cloning the
// same logic predict the same address for the same salt.
const LogicVersion = "smartcredentials.credential-logic.v1"

// NameKey is the reserved instance-metadata key the display name lands on.
const NameKey = "name"

// State tags an instance's construction state.
//
// StateTemplate is permanent: the template is barred from initialization at
// construction so nobody can take over the logic body clones delegate to.
// StateUninitialized becomes StateInitialized exactly once and the
// transition is terminal.
type State int

const (
	StateTemplate State = iota
	StateUninitialized
	StateInitialized
)

func (s State) String() string {
	switch s {
	case StateTemplate:
		return "template"
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	default:
		return "unknown"
	}
}

// Instance is a credential instance (or the template, per State).
//
// Every mutating operation is serialized by the instance mutex and either
// fully applies its writes and notifications or has no effect: validation
// and authorization complete before the first write.
type Instance struct {
	mu sync.Mutex

	state        State
	addr         domain.Address
	owner        domain.Address
	registryAddr domain.Address
	registry     registry.Registry

	store    storage.Store
	stores   storage.Provider
	resolver *registry.Resolver
	gate     *gate.Gate
	events   events.Sink
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures an Instance at construction.
type Option func(*Instance)

// WithEvents sets the notification sink.
func WithEvents(sink events.Sink) Option {
	return func(i *Instance) {
		i.events = sink
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Instance) {
		i.metrics = m
	}
}

// WithLogger sets a logger for notification-emission failures.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Instance) {
		i.logger = logger
	}
}

// WithGate overrides the authorization gate (tests inject an instrumented
// one; the default is fine for production).
func WithGate(g *gate.Gate) Option {
	return func(i *Instance) {
		i.gate = g
	}
}

// NewTemplate constructs the shared logic body. The template is permanently
// non-initializable; its only use is Clone.
func NewTemplate(resolver *registry.Resolver, stores storage.Provider, opts ...Option) *Instance {
	t := &Instance{
		state:    StateTemplate,
		addr:     domain.Address("template/" + LogicVersion),
		stores:   stores,
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.gate == nil {
		t.gate = newGate(t.metrics)
	}
	t.store = stores.StoreFor(t.addr)
	return t
}

func newGate(m *metrics.Metrics) *gate.Gate {
	if m != nil {
		return gate.New(gate.WithMetrics(m))
	}
	return gate.New()
}

// New constructs an instance directly: eagerly and permanently bound to one
// owner and one registry at construction. The null registry address selects
// the well-known default registry.
func New(addr, owner, registryAddr domain.Address, resolver *registry.Resolver, stores storage.Provider, opts ...Option) (*Instance, error) {
	i := &Instance{
		state:    StateInitialized,
		addr:     addr,
		owner:    owner,
		stores:   stores,
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.gate == nil {
		i.gate = newGate(i.metrics)
	}
	if err := i.bindRegistry(registryAddr); err != nil {
		return nil, err
	}
	i.store = stores.StoreFor(addr)
	return i, nil
}

// Clone derives a new uninitialized instance from the template. The clone
// executes the same logic but owns a private store; it is unusable for
// owner-gated operations until Initialize succeeds.
func (i *Instance) Clone(addr domain.Address) (*Instance, error) {
	if i.state != StateTemplate {
		return nil, dErrors.New(dErrors.CodeConflict, "only the template can be cloned")
	}
	clone := &Instance{
		state:    StateUninitialized,
		addr:     addr,
		stores:   i.stores,
		resolver: i.resolver,
		gate:     i.gate,
		events:   i.events,
		metrics:  i.metrics,
		logger:   i.logger,
	}
	clone.store = i.stores.StoreFor(addr)
	return clone, nil
}

// Initialize binds registry, owner, and optional display name. It succeeds
// exactly once per cloned instance; any repeat, and any attempt on the
// template, fails with an AlreadyInitialized error. A non-empty displayName
// is written to instance metadata under NameKey; an empty one is a no-op for
// that field, not an error.
func (i *Instance) Initialize(ctx context.Context, registryAddr, owner domain.Address, displayName string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case StateTemplate:
		return dErrors.New(dErrors.CodeAlreadyInitialized, "the template cannot be initialized")
	case StateInitialized:
		return dErrors.New(dErrors.CodeAlreadyInitialized, "instance is already initialized")
	}

	// Binding has no external effects, and the name write precedes the
	// owner/state commit: a failed write leaves the instance uninitialized
	// and the whole call retryable.
	if err := i.bindRegistry(registryAddr); err != nil {
		return err
	}
	if displayName != "" {
		if err := i.store.Set(ctx, storage.NamespaceInstanceMetadata, storage.InstanceMetadataKey(NameKey), []byte(displayName)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store display name")
		}
	}

	i.owner = owner
	i.state = StateInitialized

	if displayName != "" {
		i.emit(ctx, events.Event{
			Type:     events.TypeMetadataChanged,
			Instance: i.addr,
			Key:      NameKey,
			Value:    []byte(displayName),
		})
	}
	return nil
}

// bindRegistry resolves and swaps in the registry for addr. Callers hold
// the instance mutex.
func (i *Instance) bindRegistry(addr domain.Address) error {
	if addr.IsNull() {
		addr = registry.DefaultAddress
	}
	reg, err := i.resolver.Resolve(addr)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidRegistry, "registry address does not resolve")
	}
	i.registryAddr = addr
	i.registry = reg
	return nil
}

// requireInitialized guards owner- and registry-dependent operations.
// Callers hold the instance mutex.
func (i *Instance) requireInitialized() error {
	if i.state != StateInitialized {
		return dErrors.New(dErrors.CodeConflict, "instance is not initialized")
	}
	return nil
}

// requireOwner enforces the direct owner equality check. A renounced
// instance (null owner) authorizes nobody. Callers hold the instance mutex.
func (i *Instance) requireOwner(actor domain.Address) error {
	if err := i.requireInitialized(); err != nil {
		return err
	}
	if i.owner.IsNull() || actor != i.owner {
		return dErrors.New(dErrors.CodeNotAuthorized, "caller is not the instance owner")
	}
	return nil
}

// emit sends a notification, stamping the request time. Emission failures
// are logged and swallowed: notifications are for external indexers, not
// correctness.
func (i *Instance) emit(ctx context.Context, event events.Event) {
	if i.events == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	if err := i.events.Emit(ctx, event); err != nil && i.logger != nil {
		i.logger.WarnContext(ctx, "failed to emit credential event",
			"type", string(event.Type),
			"instance", i.addr.String(),
			"error", err,
		)
	}
}

// Address returns the instance identity. Stable for the instance's lifetime;
// neither ownership transfer nor registry swap changes it.
func (i *Instance) Address() domain.Address {
	return i.addr
}

// Owner returns the current owner (null after renounce).
func (i *Instance) Owner() domain.Address {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.owner
}

// RegistryAddress returns the currently bound registry address.
func (i *Instance) RegistryAddress() domain.Address {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.registryAddr
}

// State returns the construction state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}
