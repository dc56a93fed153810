package booking

import (
	"fmt"
	"time"

	"cleanmarket/internal/domain/shared/faults"
)

// DisputeWindowLength is how long after completion a client may dispute.
const DisputeWindowLength = 48 * time.Hour

// DisputeWindow is derived on every read from the booking and the current time.
type DisputeWindow struct {
	Open      bool          `json:"open"`
	ClosesAt  time.Time     `json:"closes_at,omitempty"`
	Remaining time.Duration `json:"-"`
	Reason    string        `json:"reason,omitempty"`
}

// DisputeWindow evaluates whether a dispute may be filed at now.
func (b *Booking) DisputeWindow(now time.Time) DisputeWindow {
	if b.DisputeID != "" || b.Status == StatusDisputed {
		return DisputeWindow{Reason: "a dispute has already been filed"}
	}
	switch b.Status {
	case StatusCompleted, StatusAwaitingClient, StatusApproved:
	default:
		return DisputeWindow{Reason: "the job has not been completed"}
	}
	ref := b.UpdatedAt
	if b.CheckOut != nil && !b.CheckOut.At.IsZero() {
		ref = b.CheckOut.At
	}
	closes := ref.Add(DisputeWindowLength)
	elapsed := now.Sub(ref)
	if elapsed >= DisputeWindowLength {
		return DisputeWindow{ClosesAt: closes, Reason: "the 48 hour dispute window has expired"}
	}
	return DisputeWindow{Open: true, ClosesAt: closes, Remaining: closes.Sub(now)}
}

// FileDispute links a dispute to the booking. Only the client may file, once, inside the window.
func (b *Booking) FileDispute(actorID, disputeID string, now time.Time) error {
	if actorID != b.ClientID {
		return notParticipant(actorID, "client")
	}
	if disputeID == "" {
		return faults.Validation("dispute_id", "required")
	}
	if b.DisputeID != "" {
		return faults.Policy("duplicate_dispute", "a dispute has already been filed for this booking")
	}
	if w := b.DisputeWindow(now); !w.Open {
		return faults.Policy("dispute_window", w.Reason)
	}
	if err := b.transition(StatusDisputed, now); err != nil {
		return err
	}
	b.DisputeID = disputeID
	b.Record(BookingDisputed{BookingID: b.ID, WorkerID: b.WorkerID, DisputeID: disputeID, At: b.UpdatedAt})
	return nil
}

// CanReview reports whether actorID may rate the worker. Only the client may,
// and only once the work has been checked out.
func (b *Booking) CanReview(actorID string) error {
	if actorID != b.ClientID {
		return notParticipant(actorID, "client")
	}
	switch b.Status {
	case StatusAwaitingClient, StatusApproved, StatusCompleted, StatusDisputed:
		return nil
	default:
		return faults.Policy("review", fmt.Sprintf("a %s booking cannot be reviewed", b.Status))
	}
}
