// Package events carries the change notifications credential instances and
// the factory emit for external indexers.
//
// Notifications are observability, not correctness: a sink failure is logged
// and swallowed, never propagated into the emitting operation.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/nxt3d/smart-credentials/pkg/domain"
)

// Type discriminates the notification kinds of the credential surface.
type Type string

const (
	TypeMetadataChanged      Type = "metadata_changed"
	TypeReviewSubmitted      Type = "review_submitted"
	TypeOwnershipTransferred Type = "ownership_transferred"
	TypeRegistryUpdated      Type = "registry_updated"
	TypeInstanceCreated      Type = "instance_created"
)

// Event is one notification. Fields are populated per type; Instance and
// Timestamp are always set.
type Event struct {
	Type      Type           `json:"type"`
	Instance  domain.Address `json:"instance"`
	Timestamp time.Time      `json:"timestamp"`

	// MetadataChanged. AgentID is nil for instance-scoped metadata.
	AgentID *domain.AgentID `json:"agent_id,omitempty"`
	Key     string          `json:"key,omitempty"`
	Value   []byte          `json:"value,omitempty"`

	// ReviewSubmitted.
	ReviewerID *domain.AgentID `json:"reviewer_id,omitempty"`
	ReviewedID *domain.AgentID `json:"reviewed_id,omitempty"`
	Data       []byte          `json:"data,omitempty"`

	// OwnershipTransferred / RegistryUpdated.
	Old domain.Address `json:"old,omitempty"`
	New domain.Address `json:"new,omitempty"`

	// InstanceCreated.
	Registry domain.Address `json:"registry,omitempty"`
	Name     string         `json:"name,omitempty"`
	Creator  domain.Address `json:"creator,omitempty"`
}

// Sink receives notifications.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// LogSink writes every notification to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink over the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, event Event) error {
	attrs := []any{
		"type", string(event.Type),
		"instance", event.Instance.String(),
	}
	if event.AgentID != nil {
		attrs = append(attrs, "agent_id", event.AgentID.String())
	}
	if event.Key != "" {
		attrs = append(attrs, "key", event.Key)
	}
	if event.ReviewerID != nil {
		attrs = append(attrs, "reviewer_id", event.ReviewerID.String(), "reviewed_id", event.ReviewedID.String())
	}
	s.logger.InfoContext(ctx, "credential event", attrs...)
	return nil
}

// Multi fans one notification out to several sinks, reporting the first
// failure after every sink has seen the event.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
