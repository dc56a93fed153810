package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cleanmarket/internal/domain/shared/events"
	"cleanmarket/internal/domain/shared/faults"
)

var ErrAlreadyReviewed = fmt.Errorf("reviews: booking already reviewed: %w", faults.ErrPolicy)

const (
	MinRating = 1
	MaxRating = 5
)

type ReviewID string

// Review is a client's star rating of a worker for one booking.
type Review struct {
	ID        ReviewID  `json:"id" bson:"_id"`
	BookingID string    `json:"booking_id" bson:"booking_id"`
	WorkerID  string    `json:"worker_id" bson:"worker_id"`
	ClientID  string    `json:"client_id" bson:"client_id"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	events.EventRecorder
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID string) (*Review, error)
	ListByWorker(ctx context.Context, workerID string) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
}

type SubmitParams struct {
	ID        ReviewID
	BookingID string
	WorkerID  string
	ClientID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < MinRating || params.Rating > MaxRating {
		return nil, faults.Validation("rating", "must be between 1 and 5")
	}
	if params.BookingID == "" || params.WorkerID == "" {
		return nil, faults.Validation("booking_id", "review must reference a booking and worker")
	}
	review := &Review{
		ID:        params.ID,
		BookingID: params.BookingID,
		WorkerID:  params.WorkerID,
		ClientID:  params.ClientID,
		Rating:    params.Rating,
		Comment:   strings.TrimSpace(params.Comment),
		CreatedAt: params.CreatedAt.UTC(),
	}
	review.Record(ReviewSubmitted{ReviewID: review.ID, BookingID: review.BookingID, WorkerID: review.WorkerID, Rating: review.Rating, At: review.CreatedAt})
	return review, nil
}

// Ratings extracts the star values a scoring run consumes.
func Ratings(list []*Review) []int {
	out := make([]int, 0, len(list))
	for _, r := range list {
		if r == nil {
			continue
		}
		out = append(out, r.Rating)
	}
	return out
}

type ReviewSubmitted struct {
	ReviewID  ReviewID  `json:"review_id"`
	BookingID string    `json:"booking_id"`
	WorkerID  string    `json:"worker_id"`
	Rating    int       `json:"rating"`
	At        time.Time `json:"at"`
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }
