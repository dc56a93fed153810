package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cleanmarket/internal/app/idempotency"
	"cleanmarket/internal/app/uow"
	"cleanmarket/internal/domain/shared/calendar"
)

var day = calendar.Date{Year: 2025, Month: time.March, Day: 13}

func TestSlotLocker_SerializesSameSlot(t *testing.T) {
	t.Parallel()
	l := NewSlotLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(context.Background(), "w1", day)
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max holders = %d", maxSeen)
	}
	if len(l.slots) != 0 {
		t.Fatalf("slots leaked: %d", len(l.slots))
	}
}

func TestSlotLocker_TimeoutAndIndependentKeys(t *testing.T) {
	t.Parallel()
	l := NewSlotLocker()
	release, err := l.Lock(context.Background(), "w1", day)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer release()

	other, err := l.Lock(context.Background(), "w1", day.AddDays(1))
	if err != nil {
		t.Fatalf("other day should not block: %v", err)
	}
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "w1", day); !errors.Is(err, uow.ErrLockTimeout) {
		t.Fatalf("err = %v, want ErrLockTimeout", err)
	}
}

func TestIdempotencyStore_Expires(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s := NewIdempotencyStore(time.Hour)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Save(ctx, idempotency.Record{Key: "k", Fingerprint: "f", StatusCode: 201, OccurredAt: now}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec, ok, _ := s.Get(ctx, "k"); !ok || rec.StatusCode != 201 {
		t.Fatalf("fresh record missing: %+v %v", rec, ok)
	}
	now = now.Add(2 * time.Hour)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expired record returned")
	}
}

func TestInbox_Seen(t *testing.T) {
	t.Parallel()
	in := NewInbox()
	first, _ := in.Seen(context.Background(), "evt-1")
	second, _ := in.Seen(context.Background(), "evt-1")
	if first || !second {
		t.Fatalf("first=%v second=%v", first, second)
	}
}
