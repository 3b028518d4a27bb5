// Package factory stamps out credential instances from the shared template.
//
// All instances execute the template's logic body; each owns private storage
// regions. The factory supports unpredictable addressing (fresh identity per
// creation) and deterministic addressing (the address is computable before
// the instance exists). Both paths route through the same Initialize call,
// so no instance can exist in an uninitialized-but-owned state.
package factory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nxt3d/smart-credentials/internal/credential"
	"github.com/nxt3d/smart-credentials/internal/credential/events"
	"github.com/nxt3d/smart-credentials/internal/credential/metrics"
	"github.com/nxt3d/smart-credentials/pkg/domain"
	dErrors "github.com/nxt3d/smart-credentials/pkg/domain-errors"
	"github.com/nxt3d/smart-credentials/pkg/platform/sentinel"
	"github.com/nxt3d/smart-credentials/pkg/requestcontext"
)

// Factory creates credential instances from one immutable template
// reference and tracks every instance it has created, globally and per
// creator.
type Factory struct {
	addr     domain.Address
	template *credential.Instance

	mu        sync.Mutex
	instances map[domain.Address]*credential.Instance
	all       []domain.Address
	byCreator map[domain.Address][]domain.Address

	events  events.Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures the Factory.
type Option func(*Factory)

// WithEvents sets the notification sink for instance-created events.
func WithEvents(sink events.Sink) Option {
	return func(f *Factory) {
		f.events = sink
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Factory) {
		f.metrics = m
	}
}

// WithLogger sets a logger for notification-emission failures.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// New creates a factory bound to the given template.
func New(addr domain.Address, template *credential.Instance, opts ...Option) *Factory {
	f := &Factory{
		addr:      addr,
		template:  template,
		instances: make(map[domain.Address]*credential.Instance),
		byCreator: make(map[domain.Address][]domain.Address),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create clones and initializes a new instance at an unpredictable address.
// The creator becomes the instance owner.
func (f *Factory) Create(ctx context.Context, creator, registryAddr domain.Address, displayName string) (*credential.Instance, error) {
	nonce := uuid.New()
	addr := contentAddress([]byte(f.addr), []byte(credential.LogicVersion), nonce[:])
	return f.deploy(ctx, creator, registryAddr, displayName, addr)
}

// CreateDeterministic clones and initializes a new instance at the address
// PredictAddress(salt) computes. Reusing a salt whose address is already
// occupied fails instead of overwriting or aliasing the live instance.
func (f *Factory) CreateDeterministic(ctx context.Context, creator, registryAddr domain.Address, displayName, salt string) (*credential.Instance, error) {
	return f.deploy(ctx, creator, registryAddr, displayName, f.PredictAddress(salt))
}

// PredictAddress computes the address CreateDeterministic will produce for
// salt: a pure function of the factory address, the template's logic
// identity, and the salt. Read-only.
func (f *Factory) PredictAddress(salt string) domain.Address {
	return contentAddress([]byte(f.addr), []byte(credential.LogicVersion), []byte(salt))
}

// deploy is the single creation path: reserve, clone, initialize, track,
// notify. The address is reserved before any work so two concurrent creations
// can never both claim it; a failed initialization releases the reservation
// and nothing is tracked.
func (f *Factory) deploy(ctx context.Context, creator, registryAddr domain.Address, displayName string, addr domain.Address) (*credential.Instance, error) {
	start := time.Now()

	if err := f.reserve(addr); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, "salt already produced a live instance at this address")
	}

	instance, err := f.template.Clone(addr)
	if err != nil {
		f.release(addr)
		return nil, err
	}
	if err := instance.Initialize(ctx, registryAddr, creator, displayName); err != nil {
		f.release(addr)
		return nil, err
	}

	f.mu.Lock()
	f.instances[addr] = instance
	f.all = append(f.all, addr)
	f.byCreator[creator] = append(f.byCreator[creator], addr)
	f.mu.Unlock()

	f.emit(ctx, events.Event{
		Type:     events.TypeInstanceCreated,
		Instance: addr,
		Registry: instance.RegistryAddress(),
		Name:     displayName,
		Creator:  creator,
	})
	if f.metrics != nil {
		f.metrics.IncInstanceCreated()
		f.metrics.ObserveCreate(start)
	}
	return instance, nil
}

// reserve claims addr under one lock acquisition. A nil map entry marks an
// in-flight creation; both live and in-flight addresses refuse a second
// claim, so check and reservation cannot interleave.
func (f *Factory) reserve(addr domain.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.instances[addr]; taken {
		return sentinel.ErrAlreadyUsed
	}
	f.instances[addr] = nil
	return nil
}

func (f *Factory) release(addr domain.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.instances, addr)
}

// Instance returns the tracked instance at addr. An in-flight reservation is
// not yet an instance.
func (f *Factory) Instance(addr domain.Address) (*credential.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	instance, ok := f.instances[addr]
	if !ok || instance == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no instance at this address")
	}
	return instance, nil
}

// ListAll returns every created instance address in creation order.
func (f *Factory) ListAll() []domain.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Address, len(f.all))
	copy(out, f.all)
	return out
}

// ListByCreator returns the addresses created by creator, in creation order.
func (f *Factory) ListByCreator(creator domain.Address) []domain.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	addrs := f.byCreator[creator]
	out := make([]domain.Address, len(addrs))
	copy(out, addrs)
	return out
}

// Count returns the total number of created instances.
func (f *Factory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.all)
}

// CountByCreator returns how many instances creator has created.
func (f *Factory) CountByCreator(creator domain.Address) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byCreator[creator])
}

func (f *Factory) emit(ctx context.Context, event events.Event) {
	if f.events == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	if err := f.events.Emit(ctx, event); err != nil && f.logger != nil {
		f.logger.WarnContext(ctx, "failed to emit factory event",
			"type", string(event.Type),
			"instance", event.Instance.String(),
			"error", err,
		)
	}
}
