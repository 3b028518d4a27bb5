package events

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxt3d/smart-credentials/pkg/domain"
)

type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Emit(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return s.err
}

func TestMultiFansOutToEverySink(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("sink b down")}
	c := &recordingSink{}

	event := Event{Type: TypeInstanceCreated, Instance: domain.Address("instance-1")}
	err := Multi{a, b, c}.Emit(context.Background(), event)

	require.Error(t, err)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Len(t, c.events, 1, "a failing sink must not stop fan-out")
}

func TestLogSinkEmit(t *testing.T) {
	agentID := domain.AgentID(7)
	sink := NewLogSink(slog.Default())

	err := sink.Emit(context.Background(), Event{
		Type:     TypeMetadataChanged,
		Instance: domain.Address("instance-1"),
		AgentID:  &agentID,
		Key:      "k",
		Value:    []byte("v"),
	})
	require.NoError(t, err)
}
