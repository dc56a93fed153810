package memory

import (
	"context"
	"errors"

	"cleanmarket/internal/app/uow"
	domainavailability "cleanmarket/internal/domain/availability"
	domainbooking "cleanmarket/internal/domain/booking"
	domaindisputes "cleanmarket/internal/domain/disputes"
	domainreliability "cleanmarket/internal/domain/reliability"
	domainreviews "cleanmarket/internal/domain/reviews"
	domainworkers "cleanmarket/internal/domain/workers"
)

// Store bundles the in-memory repositories so tests and local runs can seed them.
type Store struct {
	Bookings     *BookingRepository
	Availability *AvailabilityRepository
	Workers      *WorkerRepository
	Reviews      *ReviewsRepository
	Disputes     *DisputeRepository
	Evidence     *EvidenceRepository
}

func NewStore() *Store {
	return &Store{
		Bookings:     NewBookingRepository(),
		Availability: NewAvailabilityRepository(),
		Workers:      NewWorkerRepository(),
		Reviews:      NewReviewsRepository(),
		Disputes:     NewDisputeRepository(),
		Evidence:     NewEvidenceRepository(),
	}
}

func (s *Store) Factory() Factory {
	return Factory{
		BookingRepo:      s.Bookings,
		AvailabilityRepo: s.Availability,
		WorkerRepo:       s.Workers,
		ReviewsRepo:      s.Reviews,
		DisputeRepo:      s.Disputes,
		EvidenceRepo:     s.Evidence,
	}
}

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	BookingRepo      domainbooking.Repository
	AvailabilityRepo domainavailability.Repository
	WorkerRepo       domainworkers.Repository
	ReviewsRepo      domainreviews.Repository
	DisputeRepo      domaindisputes.Repository
	EvidenceRepo     domainreliability.EvidenceRepository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided;
// booking writes rely on the slot locker and optimistic versions instead.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BookingRepo == nil || f.AvailabilityRepo == nil || f.WorkerRepo == nil ||
		f.ReviewsRepo == nil || f.DisputeRepo == nil || f.EvidenceRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		bookings:     f.BookingRepo,
		availability: f.AvailabilityRepo,
		workers:      f.WorkerRepo,
		reviews:      f.ReviewsRepo,
		disputes:     f.DisputeRepo,
		evidence:     f.EvidenceRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
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
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
