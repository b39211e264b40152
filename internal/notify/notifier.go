// Package notify bridges domain events to out-of-process consumers. The API
// process enqueues events as background tasks; the worker process turns them
// into metrics and log entries.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/tokokriya/storefront/internal/events"
)

// TypeDomainEvent is the asynq task type carrying a serialized domain event.
const TypeDomainEvent = "events:domain"

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify logs the event at info level.
func (n LogNotifier) Notify(_ context.Context, ev events.Event) error {
	n.Logger.Info().
		Str("event_id", ev.ID).
		Str("topic", ev.Topic).
		Str("aggregate_id", ev.AggregateID).
		RawJSON("payload", ev.Payload).
		Msg("domain_event")
	return nil
}

// TaskNotifier enqueues events for asynchronous processing by the worker.
type TaskNotifier struct {
	Client *asynq.Client
	Queue  string
}

// Notify serializes the event into an asynq task.
func (n TaskNotifier) Notify(_ context.Context, ev events.Event) error {
	if n.Client == nil {
		return fmt.Errorf("notify: asynq client not configured")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	queue := n.Queue
	if queue == "" {
		queue = "events"
	}
	_, err = n.Client.Enqueue(asynq.NewTask(TypeDomainEvent, payload), asynq.Queue(queue), asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("notify: enqueue event: %w", err)
	}
	return nil
}

// HandleDomainEvent is the worker-side handler for enqueued events.
func HandleDomainEvent(logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var ev events.Event
		if err := json.Unmarshal(task.Payload(), &ev); err != nil {
			return fmt.Errorf("notify: decode event: %w", err)
		}
		logger.Info().
			Str("event_id", ev.ID).
			Str("topic", ev.Topic).
			Str("aggregate_id", ev.AggregateID).
			Msg("domain_event_processed")
		return nil
	}
}
