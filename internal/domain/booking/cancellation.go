package booking

import (
	"fmt"
	"time"

	"cleanmarket/internal/domain/shared/credits"
	"cleanmarket/internal/domain/shared/faults"
)

const (
	FreeCancellationLead = 24 * time.Hour
	HalfFeeLead          = 12 * time.Hour

	halfFeePercent = 50
	fullFeePercent = 100
)

// CancellationQuote is the fee for cancelling at a given moment.
type CancellationQuote struct {
	LeadTime   time.Duration   `json:"-"`
	LeadHours  float64         `json:"lead_hours"`
	FeePercent int             `json:"fee_percent"`
	Fee        credits.Credits `json:"fee_credits"`
	Refund     credits.Credits `json:"refund_credits"`
}

// FeePercent is a step function of the time left before the scheduled start.
// A negative lead means the job has started and cancellation is refused.
func FeePercent(lead time.Duration) (int, error) {
	switch {
	case lead >= FreeCancellationLead:
		return 0, nil
	case lead >= HalfFeeLead:
		return halfFeePercent, nil
	case lead >= 0:
		return fullFeePercent, nil
	default:
		return 0, faults.Policy("cancellation_after_start", "the scheduled start has passed; contact support to cancel")
	}
}

// QuoteCancellation prices a cancellation against the booking total, not the escrow reserve.
func (b *Booking) QuoteCancellation(now time.Time) (CancellationQuote, error) {
	if b.Status == StatusInProgress {
		return CancellationQuote{}, faults.Policy("cancellation_after_start", "the job is in progress; contact support to cancel")
	}
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return CancellationQuote{}, &TransitionError{From: b.Status, To: StatusCancelled}
	}
	lead := b.ScheduledStart().Sub(now)
	percent, err := FeePercent(lead)
	if err != nil {
		return CancellationQuote{}, err
	}
	fee := b.TotalCredits.PercentOf(percent)
	return CancellationQuote{
		LeadTime:   lead,
		LeadHours:  lead.Hours(),
		FeePercent: percent,
		Fee:        fee,
		Refund:     (b.EscrowCreditsReserved - fee).NonNegative(),
	}, nil
}

// Cancel records the fee and moves the booking to cancelled.
func (b *Booking) Cancel(actorID, reason string, now time.Time) (CancellationQuote, error) {
	if actorID != b.ClientID && actorID != b.WorkerID {
		return CancellationQuote{}, notParticipant(actorID, "client or worker")
	}
	quote, err := b.QuoteCancellation(now)
	if err != nil {
		return CancellationQuote{}, err
	}
	fee := quote.Fee
	b.CancellationFeeCredits = &fee
	b.CancelledBy = actorID
	b.CancelReason = reason
	if err := b.transition(StatusCancelled, now); err != nil {
		return CancellationQuote{}, err
	}
	b.Record(BookingCancelled{
		BookingID:  b.ID,
		WorkerID:   b.WorkerID,
		ClientID:   b.ClientID,
		ByActor:    actorID,
		Reason:     reason,
		FeePercent: quote.FeePercent,
		Fee:        quote.Fee,
		Refund:     quote.Refund,
		At:         b.UpdatedAt,
	})
	return quote, nil
}

func (q CancellationQuote) String() string {
	return fmt.Sprintf("%d%% fee (%d credits) with %.1fh lead", q.FeePercent, q.Fee, q.LeadHours)
}
