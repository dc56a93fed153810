// Package reliability runs worker scoring against stored history and writes the result back.
package reliability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cleanmarket/internal/app/uow"
	domainbooking "cleanmarket/internal/domain/booking"
	domaindisputes "cleanmarket/internal/domain/disputes"
	domainreliability "cleanmarket/internal/domain/reliability"
	domainreviews "cleanmarket/internal/domain/reviews"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
	domainworkers "cleanmarket/internal/domain/workers"
)

const defaultConcurrency = 4

// Change is one worker's before/after for the audit trail.
type Change struct {
	WorkerID string                 `json:"worker_id"`
	OldScore int                    `json:"old_score"`
	OldTier  domainreliability.Tier `json:"old_tier"`
	NewScore int                    `json:"new_score"`
	NewTier  domainreliability.Tier `json:"new_tier"`
	Changed  bool                   `json:"changed"`
}

type Failure struct {
	WorkerID string `json:"worker_id"`
	Error    string `json:"error"`
}

// BatchReport is the audit diff of a RecomputeAll run. Changes lists only workers whose score or tier moved.
type BatchReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scored     int       `json:"scored"`
	Changes    []Change  `json:"changes"`
	Failures   []Failure `json:"failures"`
}

type Scorer struct {
	units       uow.UoWFactory
	logger      *slog.Logger
	now         func() time.Time
	concurrency int
}

func NewScorer(units uow.UoWFactory, logger *slog.Logger, now func() time.Time, concurrency int) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Scorer{units: units, logger: logger.With("service", "reliability"), now: now, concurrency: concurrency}
}

// Score computes a worker's assessment without writing it back.
func (s *Scorer) Score(ctx context.Context, workerID string) (domainreliability.Assessment, error) {
	var out domainreliability.Assessment
	err := uow.Within(ctx, s.units, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		profile, err := unit.Workers().ByID(ctx, workerID)
		if err != nil {
			return err
		}
		out, err = s.assess(ctx, unit, profile)
		return err
	})
	return out, err
}

// Recompute scores a worker and replaces the stored score and tier.
func (s *Scorer) Recompute(ctx context.Context, workerID string) (Change, error) {
	var change Change
	err := uow.Within(ctx, s.units, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		profile, err := unit.Workers().ByID(ctx, workerID)
		if err != nil {
			return err
		}
		assessment, err := s.assess(ctx, unit, profile)
		if err != nil {
			return err
		}
		change = Change{
			WorkerID: workerID,
			OldScore: profile.Reliability.Score,
			OldTier:  profile.Reliability.Tier,
			NewScore: assessment.Score,
			NewTier:  assessment.Tier,
		}
		change.Changed = change.OldScore != change.NewScore || change.OldTier != change.NewTier
		return unit.Workers().SaveReliability(ctx, workerID, domainworkers.Reliability{
			Score:      assessment.Score,
			Tier:       assessment.Tier,
			ComputedAt: s.now().UTC(),
		})
	})
	if err != nil {
		s.logger.Warn("reliability recompute failed", "worker_id", workerID, "error_kind", faults.Kind(err), "error", err)
		return Change{}, err
	}
	if change.Changed {
		s.logger.Info("reliability changed", "worker_id", workerID, "old_score", change.OldScore, "new_score", change.NewScore, "old_tier", change.OldTier, "new_tier", change.NewTier)
	}
	return change, nil
}

// RecomputeAll rescores every worker with bounded concurrency. A failing
// worker is reported and does not stop the batch.
func (s *Scorer) RecomputeAll(ctx context.Context) (BatchReport, error) {
	report := BatchReport{StartedAt: s.now().UTC(), Changes: []Change{}, Failures: []Failure{}}
	var ids []string
	err := uow.Within(ctx, s.units, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		ids, err = unit.Workers().ListIDs(ctx)
		return err
	})
	if err != nil {
		return BatchReport{}, fmt.Errorf("list workers: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			change, err := s.Recompute(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, Failure{WorkerID: id, Error: err.Error()})
				return nil
			}
			report.Scored++
			if change.Changed {
				report.Changes = append(report.Changes, change)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchReport{}, err
	}
	sort.Slice(report.Changes, func(i, j int) bool { return report.Changes[i].WorkerID < report.Changes[j].WorkerID })
	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].WorkerID < report.Failures[j].WorkerID })
	report.FinishedAt = s.now().UTC()
	s.logger.Info("reliability batch finished", "workers", len(ids), "scored", report.Scored, "changed", len(report.Changes), "failed", len(report.Failures))
	return report, nil
}

var rescoreTriggers = map[string]struct{}{
	"booking.completed": {},
	"booking.cancelled": {},
	"booking.disputed":  {},
	"dispute.filed":     {},
	"review.submitted":  {},
}

// HandleEvent rescores the worker named in an integration event that affects reliability.
// Other events are ignored.
func (s *Scorer) HandleEvent(ctx context.Context, name string, data []byte) error {
	if _, ok := rescoreTriggers[name]; !ok {
		return nil
	}
	var body struct {
		WorkerID string `json:"worker_id"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if body.WorkerID == "" {
		return nil
	}
	_, err := s.Recompute(ctx, body.WorkerID)
	return err
}

func (s *Scorer) assess(ctx context.Context, unit uow.UnitOfWork, profile *domainworkers.Profile) (domainreliability.Assessment, error) {
	history, err := loadHistory(ctx, unit, profile.ID)
	if err != nil {
		return domainreliability.Assessment{}, err
	}
	loc, err := profile.Location()
	if err != nil {
		loc = time.UTC
	}
	today := calendar.DateOf(s.now().In(loc))
	return domainreliability.Assess(domainreliability.Derive(history, today)), nil
}

func loadHistory(ctx context.Context, unit uow.UnitOfWork, workerID string) (domainreliability.History, error) {
	bookings, err := unit.Bookings().ListByWorker(ctx, workerID)
	if err != nil {
		return domainreliability.History{}, fmt.Errorf("load bookings: %w", err)
	}
	reviews, err := unit.Reviews().ListByWorker(ctx, workerID)
	if err != nil {
		return domainreliability.History{}, fmt.Errorf("load reviews: %w", err)
	}
	photos, err := unit.Evidence().PhotoPairs(ctx, workerID)
	if err != nil {
		return domainreliability.History{}, fmt.Errorf("load photo pairs: %w", err)
	}
	tickets, err := unit.Evidence().SupportTickets(ctx, workerID)
	if err != nil {
		return domainreliability.History{}, fmt.Errorf("load support tickets: %w", err)
	}
	disputes, err := unit.Disputes().ListByWorker(ctx, workerID)
	if err != nil {
		return domainreliability.History{}, fmt.Errorf("load disputes: %w", err)
	}
	return domainreliability.History{
		Bookings:           bookingRecords(bookings),
		Ratings:            domainreviews.Ratings(reviews),
		PhotoPairs:         photos,
		Tickets:            tickets,
		DisputedBookingIDs: domaindisputes.BookingIDs(disputes),
	}, nil
}

func bookingRecords(list []*domainbooking.Booking) []domainreliability.BookingRecord {
	out := make([]domainreliability.BookingRecord, 0, len(list))
	for _, b := range list {
		rec := domainreliability.BookingRecord{
			ID:             string(b.ID),
			Date:           b.Date,
			ScheduledStart: b.ScheduledStart(),
			Completed:      b.Status.Completed(),
			Cancelled:      b.Status == domainbooking.StatusCancelled,
			Disputed:       b.Status == domainbooking.StatusDisputed || b.DisputeID != "",
		}
		if b.CheckIn != nil {
			at := b.CheckIn.At
			rec.CheckInAt = &at
		}
		out = append(out, rec)
	}
	return out
}
