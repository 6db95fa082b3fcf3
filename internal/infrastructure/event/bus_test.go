package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/shared"
	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
)

type capturingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
	panics   bool
}

func (h *capturingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.received = append(h.received, event)
	return h.err
}

func (h *capturingHandler) EventTypes() []string {
	return h.types
}

func completedEvent(t *testing.T) shared.DomainEvent {
	t.Helper()
	batch := syncdomain.NewSyncBatch(uuid.New(), syncdomain.SyncFull, syncdomain.TriggerManual)
	require.NoError(t, batch.Start())
	require.NoError(t, batch.Complete(syncdomain.Counters{Total: 3, Processed: 3, Valid: 3}))

	events := batch.GetDomainEvents()
	require.Len(t, events, 1)
	return events[0]
}

func TestInMemoryEventBus_PublishToTypedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &capturingHandler{types: []string{syncdomain.EventSyncCompleted}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), completedEvent(t)))

	require.Len(t, handler.received, 1)
	assert.Equal(t, syncdomain.EventSyncCompleted, handler.received[0].EventType())
}

func TestInMemoryEventBus_TypedHandlerIgnoresOtherEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &capturingHandler{types: []string{syncdomain.EventSyncFailed}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), completedEvent(t)))

	assert.Empty(t, handler.received)
}

func TestInMemoryEventBus_WildcardHandlerReceivesAll(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &capturingHandler{}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), completedEvent(t)))

	assert.Len(t, handler.received, 1)
}

func TestInMemoryEventBus_FailingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &capturingHandler{
		types: []string{syncdomain.EventSyncCompleted},
		err:   errors.New("boom"),
	}
	healthy := &capturingHandler{types: []string{syncdomain.EventSyncCompleted}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), completedEvent(t)))

	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_PanickingHandlerIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &capturingHandler{
		types:  []string{syncdomain.EventSyncCompleted},
		panics: true,
	}
	healthy := &capturingHandler{types: []string{syncdomain.EventSyncCompleted}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), completedEvent(t)))

	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &capturingHandler{types: []string{syncdomain.EventSyncCompleted}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), completedEvent(t)))

	assert.Empty(t, handler.received)
}
