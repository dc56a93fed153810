package booking

import (
	"context"
	"strings"
	"time"

	"cleanmarket/internal/domain/availability"
	"cleanmarket/internal/domain/escrow"
	"cleanmarket/internal/domain/geofence"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/credits"
	"cleanmarket/internal/domain/shared/events"
	"cleanmarket/internal/domain/shared/faults"
)

type ID string

// Presence is a geofenced check-in or check-out.
type Presence struct {
	At             time.Time
	Reading        geofence.Reading
	DistanceMeters float64
	PoorAccuracy   bool
}

type Booking struct {
	ID               ID
	ClientID         string
	WorkerID         string
	Date             calendar.Date
	StartTime        calendar.TimeOfDay
	TimeZone         string
	EstimatedMinutes int
	ActualHours      *float64
	Status           Status
	Address          string
	JobLocation      geofence.Point
	CheckIn          *Presence
	CheckOut         *Presence
	CleanerConfirmed *bool

	Prices                 escrow.PriceList
	Hold                   escrow.Hold
	TotalCredits           credits.Credits
	EscrowCreditsReserved  credits.Credits
	Settlement             *escrow.Settlement
	CancellationFeeCredits *credits.Credits
	CancelledBy            string
	CancelReason           string
	RescheduleCount        int
	DisputeID              string

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

// Repository is the persistence the lifecycle reads and writes through.
type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	FindByWorkerDate(ctx context.Context, workerID string, date calendar.Date, statuses []Status) ([]*Booking, error)
	ListByWorker(ctx context.Context, workerID string) ([]*Booking, error)
	Create(ctx context.Context, booking *Booking) error
	Save(ctx context.Context, booking *Booking) error
}

type CreateParams struct {
	ID               ID
	ClientID         string
	WorkerID         string
	Date             calendar.Date
	StartTime        calendar.TimeOfDay
	TimeZone         string
	EstimatedMinutes int
	Address          string
	JobLocation      geofence.Point
	Prices           escrow.PriceList
	CleaningType     escrow.CleaningType
	Addons           []escrow.Selection
	CreatedAt        time.Time
}

func (p CreateParams) validate() error {
	switch {
	case strings.TrimSpace(p.ClientID) == "":
		return faults.Validation("client_id", "required")
	case strings.TrimSpace(p.WorkerID) == "":
		return faults.Validation("worker_id", "required")
	case p.ClientID == p.WorkerID:
		return faults.Validation("client_id", "client and worker must differ")
	case p.Date.IsZero():
		return faults.Validation("date", "required")
	case p.StartTime < 0 || p.StartTime.Minutes() >= calendar.MinutesPerDay:
		return faults.Validation("start_time", "must be within the day")
	case p.EstimatedMinutes <= 0:
		return faults.Validation("estimated_hours", "must be positive")
	case strings.TrimSpace(p.Address) == "":
		return faults.Validation("address", "required")
	case p.JobLocation == (geofence.Point{}):
		return faults.Validation("job_location", "required")
	case !p.JobLocation.Valid():
		return faults.Validation("job_location", "coordinates out of range")
	}
	if _, err := loadLocation(p.TimeZone); err != nil {
		return faults.Validation("time_zone", err.Error())
	}
	return nil
}

// NewBooking prices the hold from a snapshot of the worker's prices and leaves
// the booking waiting for the worker's response.
func NewBooking(params CreateParams) (*Booking, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	prices := params.Prices.Clone()
	hold, err := escrow.ComputeHold(escrow.HoldInput{
		Prices:           prices,
		CleaningType:     params.CleaningType,
		EstimatedMinutes: params.EstimatedMinutes,
		Addons:           params.Addons,
	})
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:                    params.ID,
		ClientID:              params.ClientID,
		WorkerID:              params.WorkerID,
		Date:                  params.Date,
		StartTime:             params.StartTime,
		TimeZone:              params.TimeZone,
		EstimatedMinutes:      params.EstimatedMinutes,
		Status:                StatusCreated,
		Address:               strings.TrimSpace(params.Address),
		JobLocation:           params.JobLocation,
		Prices:                prices,
		Hold:                  hold,
		TotalCredits:          hold.Total,
		EscrowCreditsReserved: hold.Total,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	b.Record(BookingCreated{
		BookingID: b.ID,
		ClientID:  b.ClientID,
		WorkerID:  b.WorkerID,
		Date:      b.Date,
		StartTime: b.StartTime,
		Minutes:   b.EstimatedMinutes,
		Hold:      hold.Total,
		At:        now,
	})
	if hold.Total > 0 {
		if err := b.transition(StatusPaymentHold, now); err != nil {
			return nil, err
		}
		b.Record(EscrowHeld{BookingID: b.ID, ClientID: b.ClientID, Credits: hold.Total, At: now})
	}
	if err := b.transition(StatusAwaitingCleanerResponse, now); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Booking) transition(to Status, now time.Time) error {
	if !b.Status.CanTransitionTo(to) {
		return &TransitionError{From: b.Status, To: to}
	}
	b.Status = to
	b.UpdatedAt = now.UTC()
	return nil
}

func (b *Booking) location() *time.Location {
	loc, err := loadLocation(b.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ScheduledStart is the date and start time in the worker's time zone.
func (b *Booking) ScheduledStart() time.Time {
	return b.Date.At(b.StartTime, b.location())
}

func (b *Booking) Window() calendar.Window {
	return calendar.Window{Start: b.StartTime.Minutes(), End: b.StartTime.Minutes() + b.EstimatedMinutes}
}

// Occupied describes the slot this booking holds on the worker's calendar.
func (b *Booking) Occupied() availability.Occupied {
	return availability.Occupied{
		BookingID:       string(b.ID),
		Start:           b.StartTime,
		DurationMinutes: b.EstimatedMinutes,
		Address:         b.Address,
		Status:          string(b.Status),
	}
}

func (b *Booking) respond(actorID string) error {
	if actorID != b.WorkerID {
		return notParticipant(actorID, "worker")
	}
	if b.CleanerConfirmed != nil {
		return ErrAlreadyResponded
	}
	if b.Status != StatusAwaitingCleanerResponse {
		return &TransitionError{From: b.Status, To: StatusAccepted}
	}
	return nil
}

func (b *Booking) Accept(actorID string, now time.Time) error {
	if err := b.respond(actorID); err != nil {
		return err
	}
	if err := b.transition(StatusAccepted, now); err != nil {
		return err
	}
	confirmed := true
	b.CleanerConfirmed = &confirmed
	b.Record(BookingAccepted{BookingID: b.ID, WorkerID: b.WorkerID, At: b.UpdatedAt})
	return nil
}

// Decline is terminal; re-matching happens outside the core and the hold is released.
func (b *Booking) Decline(actorID, reason string, now time.Time) error {
	if err := b.respond(actorID); err != nil {
		return err
	}
	if err := b.transition(StatusDeclinedByCleaner, now); err != nil {
		return err
	}
	confirmed := false
	b.CleanerConfirmed = &confirmed
	released := b.EscrowCreditsReserved
	b.EscrowCreditsReserved = 0
	b.Record(BookingDeclined{BookingID: b.ID, ClientID: b.ClientID, WorkerID: b.WorkerID, Reason: reason, Released: released, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Schedule(now time.Time) error {
	if err := b.transition(StatusScheduled, now); err != nil {
		return err
	}
	b.Record(BookingScheduled{BookingID: b.ID, WorkerID: b.WorkerID, Start: b.ScheduledStart(), At: b.UpdatedAt})
	return nil
}

func (b *Booking) StartTrip(actorID string, now time.Time) error {
	if actorID != b.WorkerID {
		return notParticipant(actorID, "worker")
	}
	if err := b.transition(StatusOnTheWay, now); err != nil {
		return err
	}
	b.Record(WorkerOnTheWay{BookingID: b.ID, WorkerID: b.WorkerID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) presence(actorID string, reading *geofence.Reading, now time.Time) (*Presence, geofence.Result, error) {
	if actorID != b.WorkerID {
		return nil, geofence.Result{}, notParticipant(actorID, "worker")
	}
	job := b.JobLocation
	res := geofence.Validate(reading, &job)
	switch res.Reason {
	case geofence.ReasonMissingCoordinates:
		return nil, res, faults.Validation("location", res.Message)
	case geofence.ReasonTooFar:
		return nil, res, faults.Policy("geofence", res.Message)
	}
	return &Presence{At: now.UTC(), Reading: *reading, DistanceMeters: res.DistanceMeters, PoorAccuracy: res.PoorAccuracy}, res, nil
}

// RecordCheckIn starts the job once the worker is inside the geofence.
func (b *Booking) RecordCheckIn(actorID string, reading *geofence.Reading, now time.Time) (geofence.Result, error) {
	if b.Status != StatusScheduled && b.Status != StatusOnTheWay {
		return geofence.Result{}, &TransitionError{From: b.Status, To: StatusInProgress}
	}
	p, res, err := b.presence(actorID, reading, now)
	if err != nil {
		return res, err
	}
	if err := b.transition(StatusInProgress, now); err != nil {
		return res, err
	}
	b.CheckIn = p
	b.Record(CheckInRecorded{BookingID: b.ID, WorkerID: b.WorkerID, DistanceMeters: p.DistanceMeters, At: p.At})
	return res, nil
}

// RecordCheckOut completes the job, records actual hours once and settles against the hold.
// A job that ran past the hold moves on to awaiting_client for an explicit top-up decision.
func (b *Booking) RecordCheckOut(actorID string, reading *geofence.Reading, now time.Time) (geofence.Result, escrow.Settlement, error) {
	if b.Status != StatusInProgress {
		return geofence.Result{}, escrow.Settlement{}, &TransitionError{From: b.Status, To: StatusCompleted}
	}
	if b.ActualHours != nil {
		return geofence.Result{}, escrow.Settlement{}, ErrActualHoursSet
	}
	if b.CheckIn == nil {
		return geofence.Result{}, escrow.Settlement{}, faults.Validation("check_in_at", "booking has no check-in")
	}
	p, res, err := b.presence(actorID, reading, now)
	if err != nil {
		return res, escrow.Settlement{}, err
	}
	settlement, err := escrow.Settle(b.Hold, b.CheckIn.At, p.At)
	if err != nil {
		return res, escrow.Settlement{}, err
	}
	if err := b.transition(StatusCompleted, now); err != nil {
		return res, escrow.Settlement{}, err
	}
	hours := settlement.ActualHours
	b.CheckOut = p
	b.ActualHours = &hours
	b.Settlement = &settlement
	b.EscrowCreditsReserved = 0
	b.Record(BookingCompleted{
		BookingID:    b.ID,
		ClientID:     b.ClientID,
		WorkerID:     b.WorkerID,
		ActualHours:  hours,
		ActualCharge: settlement.ActualCharge,
		Captured:     settlement.Captured,
		Refund:       settlement.Refund,
		Shortfall:    settlement.Shortfall,
		At:           p.At,
	})
	if settlement.RequiresTopUp() {
		if err := b.transition(StatusAwaitingClient, now); err != nil {
			return res, settlement, err
		}
		b.Record(TopUpRequested{BookingID: b.ID, ClientID: b.ClientID, Shortfall: settlement.Shortfall, At: b.UpdatedAt})
	}
	return res, settlement, nil
}

// Approve is the client's sign-off. Approving from awaiting_client accepts the top-up.
func (b *Booking) Approve(actorID string, now time.Time) error {
	if actorID != b.ClientID {
		return notParticipant(actorID, "client")
	}
	if b.Status != StatusCompleted && b.Status != StatusAwaitingClient {
		return &TransitionError{From: b.Status, To: StatusApproved}
	}
	var topUp credits.Credits
	if b.Status == StatusAwaitingClient && b.Settlement != nil {
		topUp = b.Settlement.Shortfall
	}
	if err := b.transition(StatusApproved, now); err != nil {
		return err
	}
	b.Record(BookingApproved{BookingID: b.ID, WorkerID: b.WorkerID, TopUp: topUp, At: b.UpdatedAt})
	return nil
}

// IsParticipant reports whether the actor is the booking's client or worker.
func (b *Booking) IsParticipant(actorID string) bool {
	return actorID != "" && (actorID == b.ClientID || actorID == b.WorkerID)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrUnknownTimeZone
	}
	return loc, nil
}
