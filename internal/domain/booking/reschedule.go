package booking

import (
	"time"

	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
)

// FreeRescheduleLead is how far ahead of the current start a free reschedule must be requested.
const FreeRescheduleLead = 24 * time.Hour

// RescheduleRequest moves a booking to a new slot on the same duration.
type RescheduleRequest struct {
	ActorID   string
	Date      calendar.Date
	StartTime calendar.TimeOfDay
	// AllowPaid opts into a reschedule that is not free instead of rejecting it.
	AllowPaid bool
}

// RescheduleOutcome reports whether the move was free.
type RescheduleOutcome struct {
	Free            bool      `json:"free"`
	FeeRequired     bool      `json:"fee_required"`
	RescheduleCount int       `json:"reschedule_count"`
	PreviousStart   time.Time `json:"previous_start"`
	NewStart        time.Time `json:"new_start"`
}

// CheckReschedule applies the reschedule policy without mutating the booking.
// Callers re-run the availability check between this and Reschedule.
func (b *Booking) CheckReschedule(req RescheduleRequest, now time.Time) (RescheduleOutcome, error) {
	if req.ActorID != b.ClientID && req.ActorID != b.WorkerID {
		return RescheduleOutcome{}, notParticipant(req.ActorID, "client or worker")
	}
	if !b.Status.Reschedulable() {
		return RescheduleOutcome{}, faults.Policy("reschedule_state", "only pending or confirmed bookings can be rescheduled")
	}
	if req.Date.IsZero() {
		return RescheduleOutcome{}, faults.Validation("date", "required")
	}
	if req.StartTime < 0 || req.StartTime.Minutes() >= calendar.MinutesPerDay {
		return RescheduleOutcome{}, faults.Validation("start_time", "must be within the day")
	}
	newStart := req.Date.At(req.StartTime, b.location())
	if !newStart.After(now) {
		return RescheduleOutcome{}, faults.Validation("start_time", "new slot must be in the future")
	}
	current := b.ScheduledStart()
	free := b.RescheduleCount == 0 && current.Sub(now) >= FreeRescheduleLead
	if !free && !req.AllowPaid {
		reason := "the free reschedule has already been used"
		if b.RescheduleCount == 0 {
			reason = "free reschedules must be requested at least 24 hours before the scheduled start"
		}
		return RescheduleOutcome{}, faults.Policy("free_reschedule", reason)
	}
	return RescheduleOutcome{
		Free:            free,
		FeeRequired:     !free,
		RescheduleCount: b.RescheduleCount + 1,
		PreviousStart:   current,
		NewStart:        newStart,
	}, nil
}

// Reschedule moves the booking. The status is unchanged.
func (b *Booking) Reschedule(req RescheduleRequest, now time.Time) (RescheduleOutcome, error) {
	outcome, err := b.CheckReschedule(req, now)
	if err != nil {
		return RescheduleOutcome{}, err
	}
	prevDate, prevStart := b.Date, b.StartTime
	b.Date = req.Date
	b.StartTime = req.StartTime
	b.RescheduleCount = outcome.RescheduleCount
	b.UpdatedAt = now.UTC()
	b.Record(BookingRescheduled{
		BookingID:     b.ID,
		WorkerID:      b.WorkerID,
		PreviousDate:  prevDate,
		PreviousStart: prevStart,
		Date:          b.Date,
		StartTime:     b.StartTime,
		Free:          outcome.Free,
		FeeRequired:   outcome.FeeRequired,
		At:            b.UpdatedAt,
	})
	return outcome, nil
}
