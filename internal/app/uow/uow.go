package uow

import (
	"context"

	domainavailability "cleanmarket/internal/domain/availability"
	domainbooking "cleanmarket/internal/domain/booking"
	domaindisputes "cleanmarket/internal/domain/disputes"
	domainreliability "cleanmarket/internal/domain/reliability"
	domainreviews "cleanmarket/internal/domain/reviews"
	domainworkers "cleanmarket/internal/domain/workers"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Availability() domainavailability.Repository
	Workers() domainworkers.Repository
	Reviews() domainreviews.Repository
	Disputes() domaindisputes.Repository
	Evidence() domainreliability.EvidenceRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
