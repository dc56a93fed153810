package memory

import (
	"context"
	"fmt"
	"sync"

	"cleanmarket/internal/app/uow"
	"cleanmarket/internal/domain/shared/calendar"
)

// SlotLocker is an in-process keyed mutex per (worker, date). Waiting honours ctx.
type SlotLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	held chan struct{}
	refs int
}

func NewSlotLocker() *SlotLocker {
	return &SlotLocker{slots: make(map[string]*slot)}
}

func (l *SlotLocker) Lock(ctx context.Context, workerID string, date calendar.Date) (func(), error) {
	key := uow.SlotKey(workerID, date)
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{held: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.held <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, fmt.Errorf("%w: %s: %v", uow.ErrLockTimeout, key, ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.held
			l.unref(key, s)
		})
	}, nil
}

func (l *SlotLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

var _ uow.SlotLocker = (*SlotLocker)(nil)
