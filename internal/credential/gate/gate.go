// Package gate resolves whether an acting address may act for an agent by
// consulting the instance's currently bound registry.
package gate

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nxt3d/smart-credentials/internal/registry"
	"github.com/nxt3d/smart-credentials/pkg/domain"
)

// Decision is the outcome of an authorization check. NotFound ("agent does
// not resolve") and Forbidden ("actor lacks standing") are distinct so
// callers can surface different failures.
type Decision int

const (
	Authorized Decision = iota
	NotFound
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Metrics receives a count per decision. Nil-safe at the call site.
type Metrics interface {
	IncAuthorization(decision string)
}

// Gate runs the delegated-authorization algorithm. It holds no registry of
// its own: the caller passes whichever registry is currently bound, so a
// registry swap immediately changes outcomes.
type Gate struct {
	metrics Metrics
	tracer  trace.Tracer
}

// Option configures the Gate.
type Option func(*Gate)

// WithMetrics sets the decision counter.
func WithMetrics(m Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// New creates a Gate.
func New(opts ...Option) *Gate {
	g := &Gate{
		tracer: otel.Tracer("smartcredentials/gate"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize resolves actor's standing for agentID against reg.
//
// Order: owner match, standing operator grant, one-time approval. The
// one-time approval is consumed as a side effect of a successful check —
// authorization and consumption are fused into one operation, so a second
// use of the same approval fails. Any registry error is treated as "agent
// unknown" and maps to NotFound; the registry's internal failures never
// surface raw.
func (g *Gate) Authorize(ctx context.Context, reg registry.Registry, actor domain.Address, agentID domain.AgentID) Decision {
	ctx, span := g.tracer.Start(ctx, "gate.Authorize",
		trace.WithAttributes(attribute.String("agent.id", agentID.String())),
	)
	defer span.End()

	decision := g.resolve(ctx, reg, actor, agentID)

	span.SetAttributes(attribute.String("gate.decision", decision.String()))
	if g.metrics != nil {
		g.metrics.IncAuthorization(decision.String())
	}
	return decision
}

func (g *Gate) resolve(ctx context.Context, reg registry.Registry, actor domain.Address, agentID domain.AgentID) Decision {
	owner, err := reg.OwnerOf(ctx, agentID)
	if err != nil {
		return NotFound
	}

	if actor == owner {
		return Authorized
	}

	isOperator, err := reg.IsOperator(ctx, owner, actor)
	if err != nil {
		return NotFound
	}
	if isOperator {
		return Authorized
	}

	consumed, err := reg.ConsumeApproval(ctx, owner, actor, agentID)
	if err != nil {
		return NotFound
	}
	if consumed {
		return Authorized
	}

	return Forbidden
}
