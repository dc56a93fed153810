package memory

import (
	"context"
	"sort"
	"sync"

	domainavailability "cleanmarket/internal/domain/availability"
	domainbooking "cleanmarket/internal/domain/booking"
	domaindisputes "cleanmarket/internal/domain/disputes"
	domainreliability "cleanmarket/internal/domain/reliability"
	domainreviews "cleanmarket/internal/domain/reviews"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
	domainworkers "cleanmarket/internal/domain/workers"
)

// BookingRepository stores booking copies so callers never share state with the store.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.ID]domainbooking.Booking
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.ID]domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, faults.NotFound("booking", string(id))
	}
	return &b, nil
}

func (r *BookingRepository) FindByWorkerDate(ctx context.Context, workerID string, date calendar.Date, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	wanted := make(map[domainbooking.Status]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.WorkerID != workerID || b.Date != date {
			continue
		}
		if _, ok := wanted[b.Status]; len(wanted) > 0 && !ok {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *BookingRepository) ListByWorker(ctx context.Context, workerID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.WorkerID != workerID {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BookingRepository) Create(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[booking.ID]; exists {
		return domainbooking.ErrVersionConflict
	}
	booking.Version = 1
	r.store(booking)
	return nil
}

// Save applies optimistic concurrency on Version.
func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[booking.ID]
	if !ok {
		return faults.NotFound("booking", string(booking.ID))
	}
	if current.Version != booking.Version {
		return domainbooking.ErrVersionConflict
	}
	booking.Version++
	r.store(booking)
	return nil
}

func (r *BookingRepository) store(booking *domainbooking.Booking) {
	cp := *booking
	cp.ClearEvents()
	r.items[booking.ID] = cp
}

// AvailabilityRepository keeps weekly schedules in memory.
type AvailabilityRepository struct {
	mu        sync.RWMutex
	schedules map[string]domainavailability.Weekly
}

func NewAvailabilityRepository() *AvailabilityRepository {
	return &AvailabilityRepository{schedules: make(map[string]domainavailability.Weekly)}
}

// WeeklyAvailability returns an empty schedule for workers that never set one.
func (r *AvailabilityRepository) WeeklyAvailability(ctx context.Context, workerID string) (domainavailability.Weekly, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if w, ok := r.schedules[workerID]; ok {
		return w, nil
	}
	return domainavailability.Weekly{WorkerID: workerID}, nil
}

func (r *AvailabilityRepository) Save(ctx context.Context, weekly domainavailability.Weekly) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[weekly.WorkerID] = weekly
	return nil
}

type WorkerRepository struct {
	mu    sync.RWMutex
	items map[string]domainworkers.Profile
}

func NewWorkerRepository() *WorkerRepository {
	return &WorkerRepository{items: make(map[string]domainworkers.Profile)}
}

func (r *WorkerRepository) ByID(ctx context.Context, id string) (*domainworkers.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, faults.NotFound("worker", id)
	}
	p.Prices = p.Prices.Clone()
	return &p, nil
}

func (r *WorkerRepository) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *WorkerRepository) SaveReliability(ctx context.Context, id string, rel domainworkers.Reliability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return faults.NotFound("worker", id)
	}
	p.Reliability = rel
	r.items[id] = p
	return nil
}

func (r *WorkerRepository) Save(ctx context.Context, profile domainworkers.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.Prices = profile.Prices.Clone()
	r.items[profile.ID] = profile
	return nil
}

// ReviewsRepository is a lightweight in-memory review store.
type ReviewsRepository struct {
	mu    sync.RWMutex
	items map[string]*domainreviews.Review
}

func NewReviewsRepository() *ReviewsRepository {
	return &ReviewsRepository{items: make(map[string]*domainreviews.Review)}
}

func (r *ReviewsRepository) ByBooking(ctx context.Context, bookingID string) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if review, ok := r.items[bookingID]; ok {
		return review, nil
	}
	return nil, faults.NotFound("review", bookingID)
}

func (r *ReviewsRepository) ListByWorker(ctx context.Context, workerID string) ([]*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.WorkerID == workerID {
			out = append(out, review)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Save keeps one review per booking.
func (r *ReviewsRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[review.BookingID]; ok && existing.ID != review.ID {
		return domainreviews.ErrAlreadyReviewed
	}
	r.items[review.BookingID] = review
	return nil
}

type DisputeRepository struct {
	mu    sync.RWMutex
	items map[string]*domaindisputes.Dispute
}

func NewDisputeRepository() *DisputeRepository {
	return &DisputeRepository{items: make(map[string]*domaindisputes.Dispute)}
}

func (r *DisputeRepository) ByBooking(ctx context.Context, bookingID string) (*domaindisputes.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.items[bookingID]; ok {
		return d, nil
	}
	return nil, faults.NotFound("dispute", bookingID)
}

func (r *DisputeRepository) ListByWorker(ctx context.Context, workerID string) ([]*domaindisputes.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domaindisputes.Dispute, 0)
	for _, d := range r.items {
		if d.WorkerID == workerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Create enforces one dispute per booking.
func (r *DisputeRepository) Create(ctx context.Context, dispute *domaindisputes.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[dispute.BookingID]; ok {
		return faults.Policy("duplicate_dispute", "a dispute has already been filed for this booking")
	}
	r.items[dispute.BookingID] = dispute
	return nil
}

// EvidenceRepository holds photo pairs and support tickets per worker.
type EvidenceRepository struct {
	mu      sync.RWMutex
	photos  map[string][]domainreliability.PhotoPair
	tickets map[string][]domainreliability.SupportTicket
}

func NewEvidenceRepository() *EvidenceRepository {
	return &EvidenceRepository{
		photos:  make(map[string][]domainreliability.PhotoPair),
		tickets: make(map[string][]domainreliability.SupportTicket),
	}
}

func (r *EvidenceRepository) PhotoPairs(ctx context.Context, workerID string) ([]domainreliability.PhotoPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domainreliability.PhotoPair(nil), r.photos[workerID]...), nil
}

func (r *EvidenceRepository) SupportTickets(ctx context.Context, workerID string) ([]domainreliability.SupportTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domainreliability.SupportTicket(nil), r.tickets[workerID]...), nil
}

func (r *EvidenceRepository) AddPhotoPair(workerID string, pair domainreliability.PhotoPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.photos[workerID] = append(r.photos[workerID], pair)
}

func (r *EvidenceRepository) AddSupportTicket(workerID string, ticket domainreliability.SupportTicket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[workerID] = append(r.tickets[workerID], ticket)
}

var (
	_ domainbooking.Repository             = (*BookingRepository)(nil)
	_ domainavailability.Repository        = (*AvailabilityRepository)(nil)
	_ domainworkers.Repository             = (*WorkerRepository)(nil)
	_ domainreviews.Repository             = (*ReviewsRepository)(nil)
	_ domaindisputes.Repository            = (*DisputeRepository)(nil)
	_ domainreliability.EvidenceRepository = (*EvidenceRepository)(nil)
)
