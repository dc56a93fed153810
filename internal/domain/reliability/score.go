// Package reliability turns a worker's history into a bounded 0–100 score.
package reliability

import (
	"context"
	"math"
	"time"

	"cleanmarket/internal/domain/shared/calendar"
)

const (
	// DefaultScore is assigned to workers without completed bookings.
	DefaultScore = 75
	baseScore    = 50.0

	weightOnTime     = 25.0
	weightRating     = 15.0
	weightPhotos     = 5.0
	weightSupportSLA = 5.0
	weightDisputes   = -10.0
	weightNoShows    = -25.0

	OnTimeTolerance = 15 * time.Minute
	SupportSLA      = 24 * time.Hour
)

// BookingRecord is the slice of a booking the scorer reads.
type BookingRecord struct {
	ID             string
	Date           calendar.Date
	ScheduledStart time.Time
	CheckInAt      *time.Time
	Completed      bool
	Cancelled      bool
	Disputed       bool
}

// TicketStatus is the lifecycle of a support ticket.
type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketResolved TicketStatus = "resolved"
	TicketClosed   TicketStatus = "closed"
)

// SupportTicket is a worker-facing support request.
type SupportTicket struct {
	ID         string
	Status     TicketStatus
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// PhotoPair is a before/after photo set uploaded for a booking.
type PhotoPair struct {
	BookingID string
	BeforeURL string
	AfterURL  string
}

// History is everything known about a worker at scoring time.
type History struct {
	Bookings           []BookingRecord
	Ratings            []int
	PhotoPairs         []PhotoPair
	Tickets            []SupportTicket
	DisputedBookingIDs []string
}

// Inputs are counts derived from History. They are computed once per run.
type Inputs struct {
	TotalBookings      int `json:"total_bookings"`
	CompletedBookings  int `json:"completed_bookings"`
	CheckedInCompleted int `json:"checked_in_completed"`
	OnTime             int `json:"on_time"`
	RatingCount        int `json:"rating_count"`
	RatingSum          int `json:"rating_sum"`
	PhotoPairs         int `json:"photo_pairs"`
	ResolvedTickets    int `json:"resolved_tickets"`
	TicketsWithinSLA   int `json:"tickets_within_sla"`
	Disputed           int `json:"disputed"`
	NoShows            int `json:"no_shows"`
}

// Signals are the normalized [0,1] components. A signal whose population is
// empty is reported as absent and contributes nothing.
type Signals struct {
	OnTimeRate      *float64 `json:"on_time_rate,omitempty"`
	AverageRating   *float64 `json:"average_rating,omitempty"`
	PhotoCompliance *float64 `json:"photo_compliance,omitempty"`
	SupportSLA      *float64 `json:"support_sla,omitempty"`
	DisputeRate     *float64 `json:"dispute_rate,omitempty"`
	NoShowRate      *float64 `json:"no_show_rate,omitempty"`
}

// Assessment is a scoring outcome.
type Assessment struct {
	Score     int     `json:"score"`
	Tier      Tier    `json:"tier"`
	IsDefault bool    `json:"is_default"`
	Inputs    Inputs  `json:"inputs"`
	Signals   Signals `json:"signals"`
}

// Derive counts the populations each signal is defined over.
func Derive(h History, today calendar.Date) Inputs {
	in := Inputs{TotalBookings: len(h.Bookings)}
	disputed := make(map[string]struct{}, len(h.DisputedBookingIDs))
	for _, id := range h.DisputedBookingIDs {
		disputed[id] = struct{}{}
	}
	for _, b := range h.Bookings {
		if b.Disputed {
			disputed[b.ID] = struct{}{}
		}
		if b.Completed {
			in.CompletedBookings++
			if b.CheckInAt != nil {
				in.CheckedInCompleted++
				if absDuration(b.CheckInAt.Sub(b.ScheduledStart)) <= OnTimeTolerance {
					in.OnTime++
				}
			}
		}
		if b.Cancelled && b.CheckInAt == nil && b.Date.Before(today) {
			in.NoShows++
		}
	}
	known := make(map[string]struct{}, len(h.Bookings))
	for _, b := range h.Bookings {
		known[b.ID] = struct{}{}
	}
	for id := range disputed {
		if _, ok := known[id]; ok {
			in.Disputed++
		}
	}
	for _, r := range h.Ratings {
		if r < 1 || r > 5 {
			continue
		}
		in.RatingCount++
		in.RatingSum += r
	}
	in.PhotoPairs = len(h.PhotoPairs)
	for _, t := range h.Tickets {
		if t.Status != TicketResolved && t.Status != TicketClosed {
			continue
		}
		in.ResolvedTickets++
		if t.ResolvedAt != nil && t.ResolvedAt.Sub(t.CreatedAt) <= SupportSLA {
			in.TicketsWithinSLA++
		}
	}
	return in
}

// Signals normalizes the counts.
func (in Inputs) Signals() Signals {
	var s Signals
	if in.CheckedInCompleted > 0 {
		s.OnTimeRate = ratio(in.OnTime, in.CheckedInCompleted)
	}
	if in.RatingCount > 0 {
		avg := float64(in.RatingSum) / float64(in.RatingCount) / 5
		s.AverageRating = &avg
	}
	if in.CompletedBookings > 0 {
		photos := math.Min(float64(in.PhotoPairs)/float64(in.CompletedBookings), 1)
		s.PhotoCompliance = &photos
	}
	if in.ResolvedTickets > 0 {
		s.SupportSLA = ratio(in.TicketsWithinSLA, in.ResolvedTickets)
	}
	if in.TotalBookings > 0 {
		s.DisputeRate = ratio(in.Disputed, in.TotalBookings)
		s.NoShowRate = ratio(in.NoShows, in.TotalBookings)
	}
	return s
}

// Assess scores the inputs. Workers with no completed bookings get DefaultScore.
func Assess(in Inputs) Assessment {
	if in.CompletedBookings == 0 {
		return Assessment{Score: DefaultScore, Tier: TierFor(DefaultScore), IsDefault: true, Inputs: in}
	}
	s := in.Signals()
	raw := baseScore +
		weighted(s.OnTimeRate, weightOnTime) +
		weighted(s.AverageRating, weightRating) +
		weighted(s.PhotoCompliance, weightPhotos) +
		weighted(s.SupportSLA, weightSupportSLA) +
		weighted(s.DisputeRate, weightDisputes) +
		weighted(s.NoShowRate, weightNoShows)
	score := clamp(int(math.Round(raw)), 0, 100)
	return Assessment{Score: score, Tier: TierFor(score), Inputs: in, Signals: s}
}

// Score is a convenience for Assess(Derive(h, today)).Score.
func Score(h History, today calendar.Date) int {
	return Assess(Derive(h, today)).Score
}

func weighted(v *float64, weight float64) float64 {
	if v == nil {
		return 0
	}
	return *v * weight
}

func ratio(num, den int) *float64 {
	v := float64(num) / float64(den)
	return &v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// EvidenceRepository reads the non-booking history a score is built from.
type EvidenceRepository interface {
	PhotoPairs(ctx context.Context, workerID string) ([]PhotoPair, error)
	SupportTickets(ctx context.Context, workerID string) ([]SupportTicket, error)
}
