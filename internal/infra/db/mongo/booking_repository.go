package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "cleanmarket/internal/domain/booking"
	"cleanmarket/internal/domain/escrow"
	"cleanmarket/internal/domain/geofence"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/credits"
	"cleanmarket/internal/domain/shared/faults"
)

// ErrConcurrentUpdate is reported when the stored version moved underneath a save.
var ErrConcurrentUpdate = fmt.Errorf("mongo: concurrent update detected: %w", domainbooking.ErrVersionConflict)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(colBookings)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, faults.NotFound("booking", string(id))
		}
		return nil, fmt.Errorf("mongo: load booking %s: %w", id, err)
	}
	return doc.toAggregate()
}

func (r *BookingRepository) FindByWorkerDate(ctx context.Context, workerID string, date calendar.Date, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	filter := bson.M{"worker_id": workerID, "date": date.String()}
	if len(statuses) > 0 {
		names := make([]string, 0, len(statuses))
		for _, s := range statuses {
			names = append(names, string(s))
		}
		filter["status"] = bson.M{"$in": names}
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_minute", Value: 1}}))
}

func (r *BookingRepository) ListByWorker(ctx context.Context, workerID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start_minute", Value: 1}})
	return r.find(ctx, bson.M{"worker_id": workerID}, opts)
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find bookings: %w", err)
	}
	defer cur.Close(ctx)
	out := make([]*domainbooking.Booking, 0)
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return fmt.Errorf("mongo: insert booking %s: %w", b.ID, err)
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("mongo: save booking %s: %w", b.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

type bookingDocument struct {
	ID                     string             `bson:"_id"`
	ClientID               string             `bson:"client_id"`
	WorkerID               string             `bson:"worker_id"`
	Date                   string             `bson:"date"`
	StartMinute            int                `bson:"start_minute"`
	TimeZone               string             `bson:"time_zone,omitempty"`
	EstimatedMinutes       int                `bson:"estimated_minutes"`
	ActualHours            *float64           `bson:"actual_hours,omitempty"`
	Status                 string             `bson:"status"`
	Address                string             `bson:"address"`
	JobLocation            pointDocument      `bson:"job_location"`
	CheckIn                *presenceDocument  `bson:"check_in,omitempty"`
	CheckOut               *presenceDocument  `bson:"check_out,omitempty"`
	CleanerConfirmed       *bool              `bson:"cleaner_confirmed,omitempty"`
	Prices                 escrow.PriceList   `bson:"prices"`
	Hold                   escrow.Hold        `bson:"hold"`
	TotalCredits           int64              `bson:"total_credits"`
	EscrowCreditsReserved  int64              `bson:"escrow_credits_reserved"`
	Settlement             *escrow.Settlement `bson:"settlement,omitempty"`
	CancellationFeeCredits *int64             `bson:"cancellation_fee_credits,omitempty"`
	CancelledBy            string             `bson:"cancelled_by,omitempty"`
	CancelReason           string             `bson:"cancel_reason,omitempty"`
	RescheduleCount        int                `bson:"reschedule_count"`
	DisputeID              string             `bson:"dispute_id,omitempty"`
	CreatedAt              int64              `bson:"created_at"`
	UpdatedAt              int64              `bson:"updated_at"`
	Version                int64              `bson:"version"`
}

type pointDocument struct {
	Latitude  float64 `bson:"lat"`
	Longitude float64 `bson:"lng"`
}

type presenceDocument struct {
	At             int64         `bson:"at"`
	Reading        pointDocument `bson:"reading"`
	AccuracyMeters float64       `bson:"accuracy_m"`
	DistanceMeters float64       `bson:"distance_m"`
	PoorAccuracy   bool          `bson:"poor_accuracy"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:                    string(b.ID),
		ClientID:              b.ClientID,
		WorkerID:              b.WorkerID,
		Date:                  b.Date.String(),
		StartMinute:           b.StartTime.Minutes(),
		TimeZone:              b.TimeZone,
		EstimatedMinutes:      b.EstimatedMinutes,
		ActualHours:           b.ActualHours,
		Status:                string(b.Status),
		Address:               b.Address,
		JobLocation:           newPointDocument(b.JobLocation),
		CheckIn:               newPresenceDocument(b.CheckIn),
		CheckOut:              newPresenceDocument(b.CheckOut),
		CleanerConfirmed:      b.CleanerConfirmed,
		Prices:                b.Prices,
		Hold:                  b.Hold,
		TotalCredits:          int64(b.TotalCredits),
		EscrowCreditsReserved: int64(b.EscrowCreditsReserved),
		Settlement:            b.Settlement,
		CancelledBy:           b.CancelledBy,
		CancelReason:          b.CancelReason,
		RescheduleCount:       b.RescheduleCount,
		DisputeID:             b.DisputeID,
		CreatedAt:             b.CreatedAt.UnixMilli(),
		UpdatedAt:             b.UpdatedAt.UnixMilli(),
		Version:               b.Version,
	}
	if b.CancellationFeeCredits != nil {
		fee := int64(*b.CancellationFeeCredits)
		doc.CancellationFeeCredits = &fee
	}
	return doc
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	date, err := calendar.ParseDate(d.Date)
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %s: %w", d.ID, err)
	}
	status, err := domainbooking.ParseStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %s: %w", d.ID, err)
	}
	agg := &domainbooking.Booking{
		ID:                    domainbooking.ID(d.ID),
		ClientID:              d.ClientID,
		WorkerID:              d.WorkerID,
		Date:                  date,
		StartTime:             calendar.TimeOfDay(d.StartMinute),
		TimeZone:              d.TimeZone,
		EstimatedMinutes:      d.EstimatedMinutes,
		ActualHours:           d.ActualHours,
		Status:                status,
		Address:               d.Address,
		JobLocation:           d.JobLocation.toPoint(),
		CheckIn:               d.CheckIn.toPresence(),
		CheckOut:              d.CheckOut.toPresence(),
		CleanerConfirmed:      d.CleanerConfirmed,
		Prices:                d.Prices,
		Hold:                  d.Hold,
		TotalCredits:          credits.Credits(d.TotalCredits),
		EscrowCreditsReserved: credits.Credits(d.EscrowCreditsReserved),
		Settlement:            d.Settlement,
		CancelledBy:           d.CancelledBy,
		CancelReason:          d.CancelReason,
		RescheduleCount:       d.RescheduleCount,
		DisputeID:             d.DisputeID,
		CreatedAt:             timestampToTime(d.CreatedAt),
		UpdatedAt:             timestampToTime(d.UpdatedAt),
		Version:               d.Version,
	}
	if d.CancellationFeeCredits != nil {
		fee := credits.Credits(*d.CancellationFeeCredits)
		agg.CancellationFeeCredits = &fee
	}
	return agg, nil
}

func newPointDocument(p geofence.Point) pointDocument {
	return pointDocument{Latitude: p.Latitude, Longitude: p.Longitude}
}

func (p pointDocument) toPoint() geofence.Point {
	return geofence.Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

func newPresenceDocument(p *domainbooking.Presence) *presenceDocument {
	if p == nil {
		return nil
	}
	return &presenceDocument{
		At:             p.At.UnixMilli(),
		Reading:        newPointDocument(p.Reading.Point),
		AccuracyMeters: p.Reading.AccuracyMeters,
		DistanceMeters: p.DistanceMeters,
		PoorAccuracy:   p.PoorAccuracy,
	}
}

func (p *presenceDocument) toPresence() *domainbooking.Presence {
	if p == nil {
		return nil
	}
	return &domainbooking.Presence{
		At:             timestampToTime(p.At),
		Reading:        geofence.Reading{Point: p.Reading.toPoint(), AccuracyMeters: p.AccuracyMeters},
		DistanceMeters: p.DistanceMeters,
		PoorAccuracy:   p.PoorAccuracy,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
