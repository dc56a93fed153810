package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domaindisputes "cleanmarket/internal/domain/disputes"
	domainreviews "cleanmarket/internal/domain/reviews"
	"cleanmarket/internal/domain/shared/faults"
)

type ReviewsRepository struct {
	col *mongo.Collection
}

func NewReviewsRepository(db *mongo.Database) *ReviewsRepository {
	return &ReviewsRepository{col: db.Collection(colReviews)}
}

type reviewDocument struct {
	ID        string    `bson:"_id"`
	BookingID string    `bson:"booking_id"`
	WorkerID  string    `bson:"worker_id"`
	ClientID  string    `bson:"client_id"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:        domainreviews.ReviewID(d.ID),
		BookingID: d.BookingID,
		WorkerID:  d.WorkerID,
		ClientID:  d.ClientID,
		Rating:    d.Rating,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func (r *ReviewsRepository) ByBooking(ctx context.Context, bookingID string) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, faults.NotFound("review", bookingID)
		}
		return nil, fmt.Errorf("mongo: load review for booking %s: %w", bookingID, err)
	}
	return doc.toAggregate(), nil
}

func (r *ReviewsRepository) ListByWorker(ctx context.Context, workerID string) ([]*domainreviews.Review, error) {
	cur, err := r.col.Find(ctx, bson.M{"worker_id": workerID})
	if err != nil {
		return nil, fmt.Errorf("mongo: find reviews: %w", err)
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainreviews.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *ReviewsRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	doc := reviewDocument{
		ID:        string(review.ID),
		BookingID: review.BookingID,
		WorkerID:  review.WorkerID,
		ClientID:  review.ClientID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainreviews.ErrAlreadyReviewed
		}
		return fmt.Errorf("mongo: insert review: %w", err)
	}
	return nil
}

type DisputeRepository struct {
	col *mongo.Collection
}

func NewDisputeRepository(db *mongo.Database) *DisputeRepository {
	return &DisputeRepository{col: db.Collection(colDisputes)}
}

type disputeDocument struct {
	ID          string    `bson:"_id"`
	BookingID   string    `bson:"booking_id"`
	ClientID    string    `bson:"client_id"`
	WorkerID    string    `bson:"worker_id"`
	Category    string    `bson:"category"`
	Description string    `bson:"description"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d disputeDocument) toAggregate() *domaindisputes.Dispute {
	return &domaindisputes.Dispute{
		ID:          domaindisputes.DisputeID(d.ID),
		BookingID:   d.BookingID,
		ClientID:    d.ClientID,
		WorkerID:    d.WorkerID,
		Category:    domaindisputes.Category(d.Category),
		Description: d.Description,
		Status:      domaindisputes.Status(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (r *DisputeRepository) ByBooking(ctx context.Context, bookingID string) (*domaindisputes.Dispute, error) {
	var doc disputeDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, faults.NotFound("dispute", bookingID)
		}
		return nil, fmt.Errorf("mongo: load dispute for booking %s: %w", bookingID, err)
	}
	return doc.toAggregate(), nil
}

func (r *DisputeRepository) ListByWorker(ctx context.Context, workerID string) ([]*domaindisputes.Dispute, error) {
	cur, err := r.col.Find(ctx, bson.M{"worker_id": workerID})
	if err != nil {
		return nil, fmt.Errorf("mongo: find disputes: %w", err)
	}
	var docs []disputeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domaindisputes.Dispute, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

// Create relies on the unique booking_id index for the one-dispute-per-booking rule.
func (r *DisputeRepository) Create(ctx context.Context, d *domaindisputes.Dispute) error {
	doc := disputeDocument{
		ID:          string(d.ID),
		BookingID:   d.BookingID,
		ClientID:    d.ClientID,
		WorkerID:    d.WorkerID,
		Category:    string(d.Category),
		Description: d.Description,
		Status:      string(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return faults.Policy("duplicate_dispute", "booking already has a dispute")
		}
		return fmt.Errorf("mongo: insert dispute: %w", err)
	}
	return nil
}
