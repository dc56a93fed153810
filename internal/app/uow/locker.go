package uow

import (
	"context"
	"errors"
	"fmt"

	"cleanmarket/internal/domain/shared/calendar"
)

var ErrLockTimeout = errors.New("uow: slot lock not acquired")

// SlotLocker serializes the check-then-write sequence for one worker day.
// Two booking writes for the same (worker, date) never interleave while the lock is held.
type SlotLocker interface {
	Lock(ctx context.Context, workerID string, date calendar.Date) (release func(), err error)
}

// SlotKey is the lock name shared by every locker implementation.
func SlotKey(workerID string, date calendar.Date) string {
	return fmt.Sprintf("slot:%s:%s", workerID, date)
}
