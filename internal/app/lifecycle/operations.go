package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"cleanmarket/internal/app/uow"
	domainavailability "cleanmarket/internal/domain/availability"
	domainbooking "cleanmarket/internal/domain/booking"
	domaindisputes "cleanmarket/internal/domain/disputes"
	"cleanmarket/internal/domain/escrow"
	"cleanmarket/internal/domain/geofence"
	domainreviews "cleanmarket/internal/domain/reviews"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
)

type CreateBookingInput struct {
	ClientID       string
	WorkerID       string
	Date           calendar.Date
	StartTime      calendar.TimeOfDay
	EstimatedHours float64
	Address        string
	JobLocation    geofence.Point
	CleaningType   escrow.CleaningType
	Addons         []escrow.Selection
}

// CreateBooking checks the slot, prices the hold from the worker's current
// prices and stores the booking, all under the worker-day lock.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*domainbooking.Booking, error) {
	minutes, err := domainavailability.HoursToMinutes(in.EstimatedHours)
	if err != nil {
		return nil, s.finish(ctx, "create", "", err)
	}
	if strings.TrimSpace(in.WorkerID) == "" {
		return nil, s.finish(ctx, "create", "", faults.Validation("worker_id", "required"))
	}
	if in.Date.IsZero() {
		return nil, s.finish(ctx, "create", "", faults.Validation("date", "required"))
	}
	var created *domainbooking.Booking
	err = s.withSlotLock(ctx, in.WorkerID, in.Date, func() error {
		return uow.Within(ctx, s.units, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
			profile, err := unit.Workers().ByID(ctx, in.WorkerID)
			if err != nil {
				return err
			}
			if !profile.Verified() {
				return faults.Policy("verification", "worker has not passed verification")
			}
			if err := profile.ValidateRate(); err != nil {
				return err
			}
			now := s.now().UTC()
			b, err := domainbooking.NewBooking(domainbooking.CreateParams{
				ID:               domainbooking.ID(s.newID()),
				ClientID:         in.ClientID,
				WorkerID:         in.WorkerID,
				Date:             in.Date,
				StartTime:        in.StartTime,
				TimeZone:         profile.TimeZone,
				EstimatedMinutes: minutes,
				Address:          in.Address,
				JobLocation:      in.JobLocation,
				Prices:           profile.Prices,
				CleaningType:     in.CleaningType,
				Addons:           in.Addons,
				CreatedAt:        now,
			})
			if err != nil {
				return err
			}
			if !b.ScheduledStart().After(now) {
				return faults.Validation("start_time", "booking must start in the future")
			}
			if err := availabilityError(ctx, unit, availabilityRequest(b, "")); err != nil {
				return err
			}
			if err := unit.Bookings().Create(ctx, b); err != nil {
				return err
			}
			if err := s.record(ctx, b.Drain()); err != nil {
				return err
			}
			created = b
			return nil
		})
	})
	id := ""
	if created != nil {
		id = string(created.ID)
	}
	if err := s.finish(ctx, "create", id, err); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) Booking(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var out *domainbooking.Booking
	err := uow.Within(ctx, s.units, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		out, err = unit.Bookings().ByID(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) Accept(ctx context.Context, id domainbooking.ID, actorID string) (*domainbooking.Booking, error) {
	return s.mutate(ctx, "accept", id, func(_ context.Context, _ uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
		return b.Accept(actorID, now)
	})
}

func (s *Service) Decline(ctx context.Context, id domainbooking.ID, actorID, reason string) (*domainbooking.Booking, error) {
	return s.mutate(ctx, "decline", id, func(_ context.Context, _ uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
		return b.Decline(actorID, reason, now)
	})
}

func (s *Service) Schedule(ctx context.Context, id domainbooking.ID, actorID string) (*domainbooking.Booking, error) {
	return s.mutate(ctx, "schedule", id, func(_ context.Context, _ uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
		if !b.IsParticipant(actorID) {
			return faults.Policy("participant", "only the client or worker may schedule the booking")
		}
		return b.Schedule(now)
	})
}

func (s *Service) StartTrip(ctx context.Context, id domainbooking.ID, actorID string) (*domainbooking.Booking, error) {
	return s.mutate(ctx, "on_the_way", id, func(_ context.Context, _ uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
		return b.StartTrip(actorID, now)
	})
}

// PresenceResult pairs the booking with the geofence verdict so callers can surface accuracy warnings.
type PresenceResult struct {
	Booking  *domainbooking.Booking
	Geofence geofence.Result
}

func (s *Service) CheckIn(ctx context.Context, id domainbooking.ID, actorID string, reading *geofence.Reading) (PresenceResult, error) {
	var res geofence.Result
	b, err := s.mutate(ctx, "check_in", id, func(_ context.Context, _ uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
		var err error
		res, err = b.RecordCheckIn(actorID, reading, now)
		return err
	})
	return PresenceResult{Booking: b, Geofence: res}, err
}

type CheckOutResult struct {
	PresenceResult
	Settlement escrow.Settlement
}

func (s *Service) CheckOut(ctx context.Context, id domainbooking.ID, actorID string, reading *geofence.Reading) (CheckOutResult, error) {
	var (
		res        geofence.Result
		settlement escrow.Settlement
	)
	b, err := s.mutate(ctx, "check_out", id, func(_ context.Context, _ uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
		var err error
		res, settlement, err = b.RecordCheckOut(actorID, reading, now)
		return err
	})
	return CheckOutResult{PresenceResult: PresenceResult{Booking: b, Geofence: res}, Settlement: settlement}, err
}

func (s *Service) Approve(ctx context.Context, id domainbooking.ID, actorID string) (*domainbooking.Booking, error) {
	return s.mutate(ctx, "approve", id, func(_ context.Context, _ uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
		return b.Approve(actorID, now)
	})
}

func (s *Service) Cancel(ctx context.Context, id domainbooking.ID, actorID, reason string) (domainbooking.CancellationQuote, error) {
	var quote domainbooking.CancellationQuote
	_, err := s.mutate(ctx, "cancel", id, func(_ context.Context, _ uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
		var err error
		quote, err = b.Cancel(actorID, reason, now)
		return err
	})
	return quote, err
}

// QuoteCancellation prices a cancellation at the current time without applying it.
func (s *Service) QuoteCancellation(ctx context.Context, id domainbooking.ID) (domainbooking.CancellationQuote, error) {
	b, err := s.Booking(ctx, id)
	if err != nil {
		return domainbooking.CancellationQuote{}, err
	}
	return b.QuoteCancellation(s.now().UTC())
}

// DisputeWindow is recomputed from the stored booking on every call.
func (s *Service) DisputeWindow(ctx context.Context, id domainbooking.ID) (domainbooking.DisputeWindow, error) {
	b, err := s.Booking(ctx, id)
	if err != nil {
		return domainbooking.DisputeWindow{}, err
	}
	return b.DisputeWindow(s.now().UTC()), nil
}

type RescheduleInput struct {
	BookingID domainbooking.ID
	ActorID   string
	Date      calendar.Date
	StartTime calendar.TimeOfDay
	AllowPaid bool
}

// Reschedule applies the reschedule policy, re-runs the availability check for
// the new slot under the target day's lock, then moves the booking.
func (s *Service) Reschedule(ctx context.Context, in RescheduleInput) (domainbooking.RescheduleOutcome, error) {
	current, err := s.Booking(ctx, in.BookingID)
	if err != nil {
		return domainbooking.RescheduleOutcome{}, s.finish(ctx, "reschedule", string(in.BookingID), err)
	}
	if in.Date.IsZero() {
		return domainbooking.RescheduleOutcome{}, s.finish(ctx, "reschedule", string(in.BookingID), faults.Validation("date", "required"))
	}
	req := domainbooking.RescheduleRequest{ActorID: in.ActorID, Date: in.Date, StartTime: in.StartTime, AllowPaid: in.AllowPaid}
	var outcome domainbooking.RescheduleOutcome
	err = s.withSlotLock(ctx, current.WorkerID, in.Date, func() error {
		_, err := s.mutate(ctx, "reschedule", in.BookingID, func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
			if _, err := b.CheckReschedule(req, now); err != nil {
				return err
			}
			target := availabilityRequest(b, string(b.ID))
			target.Date, target.Start = in.Date, in.StartTime
			if err := availabilityError(ctx, unit, target); err != nil {
				return err
			}
			var err error
			outcome, err = b.Reschedule(req, now)
			return err
		})
		return err
	})
	return outcome, err
}

type FileDisputeInput struct {
	BookingID   domainbooking.ID
	ActorID     string
	Category    domaindisputes.Category
	Description string
}

// FileDispute opens the single dispute a booking may carry while its window is open.
// The booking is saved before the dispute is stored so a version conflict
// leaves neither a dispute nor its events behind.
func (s *Service) FileDispute(ctx context.Context, in FileDisputeInput) (*domaindisputes.Dispute, error) {
	var filed *domaindisputes.Dispute
	err := uow.Within(ctx, s.units, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, in.BookingID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		d, err := domaindisputes.Open(domaindisputes.OpenParams{
			ID:          domaindisputes.DisputeID(s.newID()),
			BookingID:   string(b.ID),
			ClientID:    b.ClientID,
			WorkerID:    b.WorkerID,
			Category:    in.Category,
			Description: in.Description,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		if err := b.FileDispute(in.ActorID, string(d.ID), now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := unit.Disputes().Create(ctx, d); err != nil {
			return err
		}
		if err := s.record(ctx, append(b.Drain(), d.Drain()...)); err != nil {
			return err
		}
		filed = d
		return nil
	})
	if err := s.finish(ctx, "file_dispute", string(in.BookingID), err); err != nil {
		return nil, err
	}
	return filed, nil
}

type SubmitReviewInput struct {
	BookingID domainbooking.ID
	ActorID   string
	Rating    int
	Comment   string
}

// SubmitReview stores the client's star rating for a checked-out booking.
// A booking takes one review; the rating feeds the worker's next rescoring.
func (s *Service) SubmitReview(ctx context.Context, in SubmitReviewInput) (*domainreviews.Review, error) {
	var submitted *domainreviews.Review
	err := uow.Within(ctx, s.units, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if err := b.CanReview(in.ActorID); err != nil {
			return err
		}
		_, err = unit.Reviews().ByBooking(ctx, string(b.ID))
		switch {
		case err == nil:
			return domainreviews.ErrAlreadyReviewed
		case !errors.Is(err, faults.ErrNotFound):
			return err
		}
		r, err := domainreviews.Submit(domainreviews.SubmitParams{
			ID:        domainreviews.ReviewID(s.newID()),
			BookingID: string(b.ID),
			WorkerID:  b.WorkerID,
			ClientID:  b.ClientID,
			Rating:    in.Rating,
			Comment:   in.Comment,
			CreatedAt: s.now(),
		})
		if err != nil {
			return err
		}
		if err := unit.Reviews().Save(ctx, r); err != nil {
			return err
		}
		if err := s.record(ctx, r.Drain()); err != nil {
			return err
		}
		submitted = r
		return nil
	})
	if err := s.finish(ctx, "submit_review", string(in.BookingID), err); err != nil {
		return nil, err
	}
	return submitted, nil
}

func availabilityRequest(b *domainbooking.Booking, exclude string) domainavailability.Request {
	return domainavailability.Request{
		WorkerID:         b.WorkerID,
		Date:             b.Date,
		Start:            b.StartTime,
		DurationMinutes:  b.EstimatedMinutes,
		ExcludeBookingID: exclude,
	}
}
