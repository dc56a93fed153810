package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"

	appoutbox "cleanmarket/internal/app/outbox"
	"cleanmarket/internal/infra/outbox"
	"cleanmarket/internal/infra/storage/memory"
)

type recordingHandler struct {
	calls []string
}

func (r *recordingHandler) HandleEvent(_ context.Context, name string, data []byte) error {
	r.calls = append(r.calls, name+" "+string(data))
	return nil
}

func envelope(t *testing.T, id, name, payload string) *sarama.ConsumerMessage {
	t.Helper()
	value, _, err := outbox.Wrap(appoutbox.EventRecord{
		ID:         id,
		Name:       name,
		Payload:    []byte(payload),
		OccurredAt: time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC),
		Aggregate:  "b1",
	}, "")
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "booking.events.v1", Value: value}
}

func TestRescoringHandlerDeduplicates(t *testing.T) {
	t.Parallel()

	events := &recordingHandler{}
	h := RescoringHandler{Events: events, Inbox: memory.NewInbox()}
	msg := envelope(t, "e1", "booking.completed", `{"worker_id":"w1"}`)

	for i := 0; i < 2; i++ {
		if err := h.Handle(context.Background(), msg); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	if len(events.calls) != 1 || events.calls[0] != `booking.completed {"worker_id":"w1"}` {
		t.Fatalf("calls = %v", events.calls)
	}
}

func TestRescoringHandlerDropsForeignPayloads(t *testing.T) {
	t.Parallel()

	events := &recordingHandler{}
	h := RescoringHandler{Events: events}
	if err := h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(`garbage`)}); err != nil {
		t.Fatalf("undecodable messages are dropped, got %v", err)
	}
	if len(events.calls) != 0 {
		t.Fatalf("unexpected calls %v", events.calls)
	}
}

func TestRescoringTopics(t *testing.T) {
	t.Parallel()

	got := RescoringTopics("prod.")
	if len(got) != 3 || got[0] != "prod.booking.events.v1" {
		t.Fatalf("topics = %v", got)
	}
}
