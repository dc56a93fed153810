// Package idempotency defines the replay store behind client-supplied request keys.
package idempotency

import (
	"context"
	"time"
)

// Record is a completed response kept for replay under Key.
type Record struct {
	Key         string
	Fingerprint string
	StatusCode  int
	Payload     []byte
	OccurredAt  time.Time
}

type Store interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Save(ctx context.Context, rec Record) error
}
