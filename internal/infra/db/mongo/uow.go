package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"cleanmarket/internal/app/uow"
	domainavailability "cleanmarket/internal/domain/availability"
	domainbooking "cleanmarket/internal/domain/booking"
	domaindisputes "cleanmarket/internal/domain/disputes"
	domainreliability "cleanmarket/internal/domain/reliability"
	domainreviews "cleanmarket/internal/domain/reviews"
	domainworkers "cleanmarket/internal/domain/workers"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	BookingRepo      domainbooking.Repository
	AvailabilityRepo domainavailability.Repository
	WorkerRepo       domainworkers.Repository
	ReviewsRepo      domainreviews.Repository
	DisputeRepo      domaindisputes.Repository
	EvidenceRepo     domainreliability.EvidenceRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds every repository over db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:               db,
		BookingRepo:      NewBookingRepository(db),
		AvailabilityRepo: NewAvailabilityRepository(db),
		WorkerRepo:       NewWorkerRepository(db),
		ReviewsRepo:      NewReviewsRepository(db),
		DisputeRepo:      NewDisputeRepository(db),
		EvidenceRepo:     NewEvidenceRepository(db),
	}
}

// Begin starts a MongoDB session/transaction. Read-only units take a snapshot.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:      session,
		bookings:     f.BookingRepo,
		availability: f.AvailabilityRepo,
		workers:      f.WorkerRepo,
		reviews:      f.ReviewsRepo,
		disputes:     f.DisputeRepo,
		evidence:     f.EvidenceRepo,
	}, nil
}

type Unit struct {
	session mongo.Session
	ended   bool

	bookings     domainbooking.Repository
	availability domainavailability.Repository
	workers      domainworkers.Repository
	reviews      domainreviews.Repository
	disputes     domaindisputes.Repository
	evidence     domainreliability.EvidenceRepository
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Availability() domainavailability.Repository {
	return u.availability
}

func (u *Unit) Workers() domainworkers.Repository {
	return u.workers
}

func (u *Unit) Reviews() domainreviews.Repository {
	return u.reviews
}

func (u *Unit) Disputes() domaindisputes.Repository {
	return u.disputes
}

func (u *Unit) Evidence() domainreliability.EvidenceRepository {
	return u.evidence
}

func (u *Unit) Commit(ctx context.Context) error {
	u.ended = true
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

// Rollback aborts the transaction. The session is already closed once Commit ran.
func (u *Unit) Rollback(ctx context.Context) error {
	if u.ended {
		return nil
	}
	u.ended = true
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
