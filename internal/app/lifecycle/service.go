// Package lifecycle orchestrates booking state changes: it loads the aggregate,
// runs the availability check under the worker-day lock where a slot is taken,
// saves the result and records outbox events in one unit of work.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appavailability "cleanmarket/internal/app/availability"
	"cleanmarket/internal/app/outbox"
	"cleanmarket/internal/app/uow"
	domainavailability "cleanmarket/internal/domain/availability"
	domainbooking "cleanmarket/internal/domain/booking"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/events"
	"cleanmarket/internal/domain/shared/faults"
)

var ErrLockerRequired = errors.New("lifecycle: slot locker required")

type Service struct {
	units   uow.UoWFactory
	locker  uow.SlotLocker
	box     outbox.Outbox
	encoder outbox.EventEncoder
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

type Deps struct {
	Units   uow.UoWFactory
	Locker  uow.SlotLocker
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
	Now     func() time.Time
	NewID   func() string
}

func NewService(deps Deps) *Service {
	s := &Service{
		units:   deps.Units,
		locker:  deps.Locker,
		box:     deps.Outbox,
		encoder: deps.Encoder,
		logger:  deps.Logger,
		now:     deps.Now,
		newID:   deps.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("service", "lifecycle")
	if s.encoder == nil {
		s.encoder = outbox.JSONEventEncoder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// withSlotLock holds the (worker, date) critical section around fn.
func (s *Service) withSlotLock(ctx context.Context, workerID string, date calendar.Date, fn func() error) error {
	if s.locker == nil {
		return ErrLockerRequired
	}
	release, err := s.locker.Lock(ctx, workerID, date)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// mutate loads a booking, applies fn and saves it with its events in one unit.
func (s *Service) mutate(ctx context.Context, op string, id domainbooking.ID, fn func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error) (*domainbooking.Booking, error) {
	var out *domainbooking.Booking
	err := uow.Within(ctx, s.units, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, unit, b, s.now().UTC()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := s.record(ctx, b.Drain()); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, s.finish(ctx, op, string(id), err)
}

func (s *Service) record(ctx context.Context, evs []events.DomainEvent) error {
	return outbox.RecordDomainEvents(ctx, s.box, s.encoder, evs)
}

// finish flushes the outbox after a committed write and logs rejections.
func (s *Service) finish(ctx context.Context, op, bookingID string, err error) error {
	log := s.logger.With("operation", op, "booking_id", bookingID)
	if err != nil {
		kind := faults.Kind(err)
		if kind == faults.KindUnexpected {
			log.Error("booking operation failed", "error_kind", kind, "error", err)
		} else {
			log.Info("booking operation rejected", "error_kind", kind, "error", err)
		}
		return err
	}
	if s.box != nil {
		if ferr := s.box.Flush(ctx); ferr != nil {
			log.Warn("outbox flush failed", "error", ferr)
		}
	}
	log.Debug("booking operation applied")
	return nil
}

// availabilityError re-runs the slot check inside the unit and maps a rejection.
func availabilityError(ctx context.Context, unit uow.UnitOfWork, req domainavailability.Request) error {
	res, err := appavailability.Evaluate(ctx, unit, req)
	if err != nil {
		return err
	}
	return appavailability.RejectionError(res)
}
