package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colBookings     = "agg_booking"
	colWorkers      = "agg_worker"
	colAvailability = "worker_availability"
	colReviews      = "agg_review"
	colDisputes     = "agg_dispute"
	colPhotoPairs   = "evidence_photo_pairs"
	colTickets      = "evidence_support_tickets"
	colOutbox       = "app_outbox"
	colInbox        = "app_inbox"
	colIdempotency  = "app_idempotency"
)

type Client struct {
	DB *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories query by. Booking
// uniqueness per dispute and review is enforced here, not in code.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colBookings: {
			{Keys: bson.D{{Key: "worker_id", Value: 1}, {Key: "date", Value: 1}, {Key: "status", Value: 1}}},
		},
		colReviews: {
			{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "worker_id", Value: 1}}},
		},
		colDisputes: {
			{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "worker_id", Value: 1}}},
		},
		colPhotoPairs: {
			{Keys: bson.D{{Key: "worker_id", Value: 1}}},
		},
		colTickets: {
			{Keys: bson.D{{Key: "worker_id", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
