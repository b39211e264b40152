package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tokokriya/storefront/internal/events"
)

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	n := LogNotifier{Logger: zerolog.Nop()}
	err := n.Notify(context.Background(), events.Event{
		ID:          "ev1",
		Topic:       events.TopicCartItemAdded,
		AggregateID: "c1",
		Payload:     json.RawMessage(`{"productId":"p1"}`),
		OccurredAt:  time.Now(),
	})
	require.NoError(t, err)
}

func TestHandleDomainEventRejectsGarbage(t *testing.T) {
	t.Parallel()

	handler := HandleDomainEvent(zerolog.Nop())
	err := handler(context.Background(), asynq.NewTask(TypeDomainEvent, []byte("{broken")))
	require.Error(t, err)
}

func TestHandleDomainEvent(t *testing.T) {
	t.Parallel()

	ev := events.Event{ID: "ev1", Topic: events.TopicCheckoutConfirmed, AggregateID: "c1", Payload: json.RawMessage(`{}`)}
	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	handler := HandleDomainEvent(zerolog.Nop())
	require.NoError(t, handler(context.Background(), asynq.NewTask(TypeDomainEvent, payload)))
}
