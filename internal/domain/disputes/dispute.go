package disputes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cleanmarket/internal/domain/shared/events"
	"cleanmarket/internal/domain/shared/faults"
)

type DisputeID string

// Category is the closed set of dispute reasons a client may pick.
type Category string

const (
	CategoryQuality    Category = "quality"
	CategoryIncomplete Category = "incomplete"
	CategoryDamage     Category = "damage"
	CategoryBilling    Category = "billing"
	CategoryConduct    Category = "conduct"
	CategoryOther      Category = "other"
)

var categories = []Category{CategoryQuality, CategoryIncomplete, CategoryDamage, CategoryBilling, CategoryConduct, CategoryOther}

func Categories() []Category {
	return append([]Category(nil), categories...)
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range categories {
		if c == known {
			return c, nil
		}
	}
	return "", faults.Validation("category", fmt.Sprintf("unknown dispute category %q", raw))
}

type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

// Dispute is a client's claim against a completed booking. At most one exists per booking.
type Dispute struct {
	ID          DisputeID `json:"id" bson:"_id"`
	BookingID   string    `json:"booking_id" bson:"booking_id"`
	ClientID    string    `json:"client_id" bson:"client_id"`
	WorkerID    string    `json:"worker_id" bson:"worker_id"`
	Category    Category  `json:"category" bson:"category"`
	Description string    `json:"description" bson:"description"`
	Status      Status    `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	events.EventRecorder
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID string) (*Dispute, error)
	ListByWorker(ctx context.Context, workerID string) ([]*Dispute, error)
	Create(ctx context.Context, dispute *Dispute) error
}

type OpenParams struct {
	ID          DisputeID
	BookingID   string
	ClientID    string
	WorkerID    string
	Category    Category
	Description string
	CreatedAt   time.Time
}

func Open(params OpenParams) (*Dispute, error) {
	if _, err := ParseCategory(string(params.Category)); err != nil {
		return nil, err
	}
	desc := strings.TrimSpace(params.Description)
	if desc == "" {
		return nil, faults.Validation("description", "required")
	}
	d := &Dispute{
		ID:          params.ID,
		BookingID:   params.BookingID,
		ClientID:    params.ClientID,
		WorkerID:    params.WorkerID,
		Category:    params.Category,
		Description: desc,
		Status:      StatusOpen,
		CreatedAt:   params.CreatedAt.UTC(),
	}
	d.Record(DisputeFiled{DisputeID: d.ID, BookingID: d.BookingID, WorkerID: d.WorkerID, Category: d.Category, At: d.CreatedAt})
	return d, nil
}

// BookingIDs lists the bookings the disputes were filed against.
func BookingIDs(list []*Dispute) []string {
	out := make([]string, 0, len(list))
	for _, d := range list {
		if d != nil {
			out = append(out, d.BookingID)
		}
	}
	return out
}

type DisputeFiled struct {
	DisputeID DisputeID `json:"dispute_id"`
	BookingID string    `json:"booking_id"`
	WorkerID  string    `json:"worker_id"`
	Category  Category  `json:"category"`
	At        time.Time `json:"at"`
}

func (e DisputeFiled) EventName() string     { return "dispute.filed" }
func (e DisputeFiled) AggregateID() string   { return string(e.DisputeID) }
func (e DisputeFiled) OccurredAt() time.Time { return e.At }
