package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "cleanmarket/internal/domain/availability"
	domainreliability "cleanmarket/internal/domain/reliability"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
	domainworkers "cleanmarket/internal/domain/workers"
)

type WorkerRepository struct {
	col *mongo.Collection
}

func NewWorkerRepository(db *mongo.Database) *WorkerRepository {
	return &WorkerRepository{col: db.Collection(colWorkers)}
}

func (r *WorkerRepository) ByID(ctx context.Context, id string) (*domainworkers.Profile, error) {
	var profile domainworkers.Profile
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, faults.NotFound("worker", id)
		}
		return nil, fmt.Errorf("mongo: load worker %s: %w", id, err)
	}
	return &profile, nil
}

func (r *WorkerRepository) ListIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list workers: %w", err)
	}
	defer cur.Close(ctx)
	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

func (r *WorkerRepository) SaveReliability(ctx context.Context, id string, rel domainworkers.Reliability) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"reliability": rel}})
	if err != nil {
		return fmt.Errorf("mongo: save reliability %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return faults.NotFound("worker", id)
	}
	return nil
}

// Save upserts a profile. Onboarding owns profiles; the core uses this for seeding.
func (r *WorkerRepository) Save(ctx context.Context, profile domainworkers.Profile) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile, options.Replace().SetUpsert(true))
	return err
}

type AvailabilityRepository struct {
	col *mongo.Collection
}

func NewAvailabilityRepository(db *mongo.Database) *AvailabilityRepository {
	return &AvailabilityRepository{col: db.Collection(colAvailability)}
}

// WeeklyAvailability returns an empty schedule for workers that never set one.
func (r *AvailabilityRepository) WeeklyAvailability(ctx context.Context, workerID string) (domainavailability.Weekly, error) {
	var doc weeklyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": workerID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainavailability.Weekly{WorkerID: workerID}, nil
		}
		return domainavailability.Weekly{}, fmt.Errorf("mongo: load availability %s: %w", workerID, err)
	}
	return doc.toWeekly(), nil
}

func (r *AvailabilityRepository) Save(ctx context.Context, weekly domainavailability.Weekly) error {
	doc := newWeeklyDocument(weekly)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.WorkerID}, doc, options.Replace().SetUpsert(true))
	return err
}

type weeklyDocument struct {
	WorkerID string        `bson:"_id"`
	Days     []dayDocument `bson:"days"`
}

type dayDocument struct {
	Day       int  `bson:"day_of_week"`
	Available bool `bson:"is_available"`
	Start     *int `bson:"start_minute,omitempty"`
	End       *int `bson:"end_minute,omitempty"`
}

func newWeeklyDocument(w domainavailability.Weekly) weeklyDocument {
	doc := weeklyDocument{WorkerID: w.WorkerID}
	for _, d := range w.Days {
		day := dayDocument{Day: int(d.Day), Available: d.Available}
		if d.Start != nil && d.End != nil {
			start, end := d.Start.Minutes(), d.End.Minutes()
			day.Start, day.End = &start, &end
		}
		doc.Days = append(doc.Days, day)
	}
	return doc
}

func (d weeklyDocument) toWeekly() domainavailability.Weekly {
	w := domainavailability.Weekly{WorkerID: d.WorkerID}
	for _, day := range d.Days {
		ds := domainavailability.DaySchedule{Day: time.Weekday(day.Day), Available: day.Available}
		if day.Start != nil && day.End != nil {
			start, end := calendar.TimeOfDay(*day.Start), calendar.TimeOfDay(*day.End)
			ds.Start, ds.End = &start, &end
		}
		w.Days = append(w.Days, ds)
	}
	return w
}

// EvidenceRepository reads photo uploads and support tickets written by other services.
type EvidenceRepository struct {
	photos  *mongo.Collection
	tickets *mongo.Collection
}

func NewEvidenceRepository(db *mongo.Database) *EvidenceRepository {
	return &EvidenceRepository{photos: db.Collection(colPhotoPairs), tickets: db.Collection(colTickets)}
}

type photoPairDocument struct {
	WorkerID  string `bson:"worker_id"`
	BookingID string `bson:"booking_id"`
	BeforeURL string `bson:"before_url"`
	AfterURL  string `bson:"after_url"`
}

type ticketDocument struct {
	ID         string     `bson:"_id"`
	WorkerID   string     `bson:"worker_id"`
	Status     string     `bson:"status"`
	CreatedAt  time.Time  `bson:"created_at"`
	ResolvedAt *time.Time `bson:"resolved_at,omitempty"`
}

func (r *EvidenceRepository) PhotoPairs(ctx context.Context, workerID string) ([]domainreliability.PhotoPair, error) {
	cur, err := r.photos.Find(ctx, bson.M{"worker_id": workerID})
	if err != nil {
		return nil, fmt.Errorf("mongo: find photo pairs: %w", err)
	}
	var docs []photoPairDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domainreliability.PhotoPair, 0, len(docs))
	for _, d := range docs {
		out = append(out, domainreliability.PhotoPair{BookingID: d.BookingID, BeforeURL: d.BeforeURL, AfterURL: d.AfterURL})
	}
	return out, nil
}

func (r *EvidenceRepository) SupportTickets(ctx context.Context, workerID string) ([]domainreliability.SupportTicket, error) {
	cur, err := r.tickets.Find(ctx, bson.M{"worker_id": workerID})
	if err != nil {
		return nil, fmt.Errorf("mongo: find support tickets: %w", err)
	}
	var docs []ticketDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domainreliability.SupportTicket, 0, len(docs))
	for _, d := range docs {
		out = append(out, domainreliability.SupportTicket{
			ID:         d.ID,
			Status:     domainreliability.TicketStatus(d.Status),
			CreatedAt:  d.CreatedAt.UTC(),
			ResolvedAt: d.ResolvedAt,
		})
	}
	return out, nil
}
