// Package availability answers slot questions against stored schedules and bookings.
package availability

import (
	"context"
	"fmt"
	"log/slog"

	"cleanmarket/internal/app/uow"
	domainavailability "cleanmarket/internal/domain/availability"
	domainbooking "cleanmarket/internal/domain/booking"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
)

// Query is a CheckAvailability request expressed in hours.
type Query struct {
	WorkerID         string
	Date             calendar.Date
	StartTime        calendar.TimeOfDay
	DurationHours    float64
	ExcludeBookingID string
}

type Resolver struct {
	units  uow.UoWFactory
	logger *slog.Logger
}

func NewResolver(units uow.UoWFactory, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{units: units, logger: logger.With("service", "availability")}
}

// CheckAvailability validates a requested slot and returns every conflicting booking.
func (r *Resolver) CheckAvailability(ctx context.Context, q Query) (domainavailability.Result, error) {
	minutes, err := domainavailability.HoursToMinutes(q.DurationHours)
	if err != nil {
		return domainavailability.Result{}, err
	}
	req := domainavailability.Request{
		WorkerID:         q.WorkerID,
		Date:             q.Date,
		Start:            q.StartTime,
		DurationMinutes:  minutes,
		ExcludeBookingID: q.ExcludeBookingID,
	}
	if err := req.Validate(); err != nil {
		return domainavailability.Result{}, err
	}
	var res domainavailability.Result
	err = uow.Within(ctx, r.units, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if _, err := unit.Workers().ByID(ctx, q.WorkerID); err != nil {
			return err
		}
		var err error
		res, err = Evaluate(ctx, unit, req)
		return err
	})
	if err != nil {
		return domainavailability.Result{}, err
	}
	r.logger.Debug("availability checked", "worker_id", q.WorkerID, "date", q.Date.String(), "available", res.Available, "conflicts", len(res.Conflicts))
	return res, nil
}

// GetAvailableSlots lists 30-minute-aligned starts that fit durationHours.
func (r *Resolver) GetAvailableSlots(ctx context.Context, workerID string, date calendar.Date, durationHours float64) ([]domainavailability.Slot, error) {
	minutes, err := domainavailability.HoursToMinutes(durationHours)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, faults.Validation("date", "required")
	}
	var slots []domainavailability.Slot
	err = uow.Within(ctx, r.units, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if _, err := unit.Workers().ByID(ctx, workerID); err != nil {
			return err
		}
		schedule, occupied, err := load(ctx, unit, workerID, date)
		if err != nil {
			return err
		}
		slots, err = domainavailability.Slots(schedule, occupied, date, minutes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// Evaluate runs the slot check with the unit's repositories. Callers that go on
// to write must hold the worker-day lock across Evaluate and the write.
func Evaluate(ctx context.Context, unit uow.UnitOfWork, req domainavailability.Request) (domainavailability.Result, error) {
	schedule, occupied, err := load(ctx, unit, req.WorkerID, req.Date)
	if err != nil {
		return domainavailability.Result{}, err
	}
	return domainavailability.Check(schedule, occupied, req)
}

func load(ctx context.Context, unit uow.UnitOfWork, workerID string, date calendar.Date) (domainavailability.Weekly, []domainavailability.Occupied, error) {
	schedule, err := unit.Availability().WeeklyAvailability(ctx, workerID)
	if err != nil {
		return domainavailability.Weekly{}, nil, fmt.Errorf("load weekly availability: %w", err)
	}
	bookings, err := unit.Bookings().FindByWorkerDate(ctx, workerID, date, domainbooking.ActiveStatuses())
	if err != nil {
		return domainavailability.Weekly{}, nil, fmt.Errorf("load bookings: %w", err)
	}
	occupied := make([]domainavailability.Occupied, 0, len(bookings))
	for _, b := range bookings {
		occupied = append(occupied, b.Occupied())
	}
	return schedule, occupied, nil
}

// RejectionError maps a negative result to the error taxonomy: overlaps are
// conflicts, schedule rules are policy violations.
func RejectionError(res domainavailability.Result) error {
	if res.Available {
		return nil
	}
	if len(res.Conflicts) > 0 {
		return domainavailability.NewConflictError(res)
	}
	return faults.Policy("availability", res.Reason)
}
