package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "cleanmarket/internal/app/outbox"
)

// Sink receives flushed records, e.g. an in-process event dispatcher.
type Sink func(ctx context.Context, record appoutbox.EventRecord) error

// Outbox keeps events in memory until flushed, then hands them to the sink.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	sink    Sink
}

func NewOutbox(sink Sink) *Outbox {
	return &Outbox{sink: sink}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()
	if o.sink == nil {
		return nil
	}
	var errs []error
	for _, rec := range pending {
		if err := o.sink(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
