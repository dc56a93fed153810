package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"cleanmarket/internal/infra/outbox"
)

// EventHandler reacts to one decoded integration event.
type EventHandler interface {
	HandleEvent(ctx context.Context, name string, data []byte) error
}

// Inbox reports whether an event id was already consumed and remembers it otherwise.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// RescoringHandler feeds relayed booking, dispute and review events into the
// reliability scorer at most once per event id. A rescore that fails after the
// inbox accepted the id is left to the periodic batch.
type RescoringHandler struct {
	Events EventHandler
	Inbox  Inbox
	Logger *slog.Logger
}

func (h RescoringHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	evt, err := outbox.Unwrap(msg.Value)
	if err != nil {
		h.logger().Warn("dropping undecodable message", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return fmt.Errorf("inbox %s: %w", evt.ID, err)
		}
		if seen {
			return nil
		}
	}
	if err := h.Events.HandleEvent(ctx, evt.EventName(), evt.Data); err != nil {
		return fmt.Errorf("handle %s %s: %w", evt.EventName(), evt.ID, err)
	}
	return nil
}

func (h RescoringHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// RescoringTopics lists the streams carrying rescoring triggers.
func RescoringTopics(prefix string) []string {
	return []string{prefix + "booking.events.v1", prefix + "dispute.events.v1", prefix + "review.events.v1"}
}
