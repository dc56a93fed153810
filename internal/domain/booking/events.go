package booking

import (
	"time"

	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/credits"
)

type BookingCreated struct {
	BookingID ID                 `json:"booking_id"`
	ClientID  string             `json:"client_id"`
	WorkerID  string             `json:"worker_id"`
	Date      calendar.Date      `json:"date"`
	StartTime calendar.TimeOfDay `json:"start_time"`
	Minutes   int                `json:"estimated_minutes"`
	Hold      credits.Credits    `json:"hold_credits"`
	At        time.Time          `json:"at"`
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type EscrowHeld struct {
	BookingID ID              `json:"booking_id"`
	ClientID  string          `json:"client_id"`
	Credits   credits.Credits `json:"credits"`
	At        time.Time       `json:"at"`
}

func (e EscrowHeld) EventName() string     { return "booking.escrow_held" }
func (e EscrowHeld) AggregateID() string   { return string(e.BookingID) }
func (e EscrowHeld) OccurredAt() time.Time { return e.At }

type BookingAccepted struct {
	BookingID ID        `json:"booking_id"`
	WorkerID  string    `json:"worker_id"`
	At        time.Time `json:"at"`
}

func (e BookingAccepted) EventName() string     { return "booking.accepted" }
func (e BookingAccepted) AggregateID() string   { return string(e.BookingID) }
func (e BookingAccepted) OccurredAt() time.Time { return e.At }

type BookingDeclined struct {
	BookingID ID              `json:"booking_id"`
	ClientID  string          `json:"client_id"`
	WorkerID  string          `json:"worker_id"`
	Reason    string          `json:"reason,omitempty"`
	Released  credits.Credits `json:"released_credits"`
	At        time.Time       `json:"at"`
}

func (e BookingDeclined) EventName() string     { return "booking.declined" }
func (e BookingDeclined) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeclined) OccurredAt() time.Time { return e.At }

type BookingScheduled struct {
	BookingID ID        `json:"booking_id"`
	WorkerID  string    `json:"worker_id"`
	Start     time.Time `json:"start"`
	At        time.Time `json:"at"`
}

func (e BookingScheduled) EventName() string     { return "booking.scheduled" }
func (e BookingScheduled) AggregateID() string   { return string(e.BookingID) }
func (e BookingScheduled) OccurredAt() time.Time { return e.At }

type WorkerOnTheWay struct {
	BookingID ID        `json:"booking_id"`
	WorkerID  string    `json:"worker_id"`
	At        time.Time `json:"at"`
}

func (e WorkerOnTheWay) EventName() string     { return "booking.on_the_way" }
func (e WorkerOnTheWay) AggregateID() string   { return string(e.BookingID) }
func (e WorkerOnTheWay) OccurredAt() time.Time { return e.At }

type CheckInRecorded struct {
	BookingID      ID        `json:"booking_id"`
	WorkerID       string    `json:"worker_id"`
	DistanceMeters float64   `json:"distance_m"`
	At             time.Time `json:"at"`
}

func (e CheckInRecorded) EventName() string     { return "booking.checked_in" }
func (e CheckInRecorded) AggregateID() string   { return string(e.BookingID) }
func (e CheckInRecorded) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID    ID              `json:"booking_id"`
	ClientID     string          `json:"client_id"`
	WorkerID     string          `json:"worker_id"`
	ActualHours  float64         `json:"actual_hours"`
	ActualCharge credits.Credits `json:"actual_charge"`
	Captured     credits.Credits `json:"captured"`
	Refund       credits.Credits `json:"refund"`
	Shortfall    credits.Credits `json:"shortfall"`
	At           time.Time       `json:"at"`
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type TopUpRequested struct {
	BookingID ID              `json:"booking_id"`
	ClientID  string          `json:"client_id"`
	Shortfall credits.Credits `json:"shortfall"`
	At        time.Time       `json:"at"`
}

func (e TopUpRequested) EventName() string     { return "booking.top_up_requested" }
func (e TopUpRequested) AggregateID() string   { return string(e.BookingID) }
func (e TopUpRequested) OccurredAt() time.Time { return e.At }

type BookingApproved struct {
	BookingID ID              `json:"booking_id"`
	WorkerID  string          `json:"worker_id"`
	TopUp     credits.Credits `json:"top_up"`
	At        time.Time       `json:"at"`
}

func (e BookingApproved) EventName() string     { return "booking.approved" }
func (e BookingApproved) AggregateID() string   { return string(e.BookingID) }
func (e BookingApproved) OccurredAt() time.Time { return e.At }

type BookingDisputed struct {
	BookingID ID        `json:"booking_id"`
	WorkerID  string    `json:"worker_id"`
	DisputeID string    `json:"dispute_id"`
	At        time.Time `json:"at"`
}

func (e BookingDisputed) EventName() string     { return "booking.disputed" }
func (e BookingDisputed) AggregateID() string   { return string(e.BookingID) }
func (e BookingDisputed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID  ID              `json:"booking_id"`
	WorkerID   string          `json:"worker_id"`
	ClientID   string          `json:"client_id"`
	ByActor    string          `json:"by_actor"`
	Reason     string          `json:"reason,omitempty"`
	FeePercent int             `json:"fee_percent"`
	Fee        credits.Credits `json:"fee"`
	Refund     credits.Credits `json:"refund"`
	At         time.Time       `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingRescheduled struct {
	BookingID     ID                 `json:"booking_id"`
	WorkerID      string             `json:"worker_id"`
	PreviousDate  calendar.Date      `json:"previous_date"`
	PreviousStart calendar.TimeOfDay `json:"previous_start_time"`
	Date          calendar.Date      `json:"date"`
	StartTime     calendar.TimeOfDay `json:"start_time"`
	Free          bool               `json:"free"`
	FeeRequired   bool               `json:"fee_required"`
	At            time.Time          `json:"at"`
}

func (e BookingRescheduled) EventName() string     { return "booking.rescheduled" }
func (e BookingRescheduled) AggregateID() string   { return string(e.BookingID) }
func (e BookingRescheduled) OccurredAt() time.Time { return e.At }
