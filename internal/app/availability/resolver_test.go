package availability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appavailability "cleanmarket/internal/app/availability"
	domainavailability "cleanmarket/internal/domain/availability"
	domainbooking "cleanmarket/internal/domain/booking"
	"cleanmarket/internal/domain/escrow"
	"cleanmarket/internal/domain/geofence"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
	"cleanmarket/internal/domain/workers"
	"cleanmarket/internal/infra/storage/memory"
)

var (
	thursday = calendar.Date{Year: 2025, Month: time.March, Day: 13}
	sunday   = calendar.Date{Year: 2025, Month: time.March, Day: 16}
)

func tod(h, m int) calendar.TimeOfDay { return calendar.TimeOfDay(h*60 + m) }

func newResolver(t *testing.T) *appavailability.Resolver {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	start, end := tod(8, 0), tod(18, 0)
	var days []domainavailability.DaySchedule
	for d := time.Monday; d <= time.Friday; d++ {
		days = append(days, domainavailability.DaySchedule{Day: d, Available: true, Start: &start, End: &end})
	}
	weekly, err := domainavailability.NewWeekly("w1", days)
	if err != nil {
		t.Fatalf("NewWeekly: %v", err)
	}
	if err := store.Availability.Save(ctx, weekly); err != nil {
		t.Fatalf("seed availability: %v", err)
	}
	prices := escrow.PriceList{BaseRate: 300}
	if err := store.Workers.Save(ctx, workers.Profile{ID: "w1", Verification: workers.VerificationApproved, Prices: prices}); err != nil {
		t.Fatalf("seed worker: %v", err)
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:               "b-1",
		ClientID:         "c1",
		WorkerID:         "w1",
		Date:             thursday,
		StartTime:        tod(9, 0),
		EstimatedMinutes: 180,
		Address:          "12 Elm St",
		JobLocation:      geofence.Point{Latitude: 38.5816, Longitude: -121.4944},
		Prices:           prices,
		CleaningType:     escrow.CleaningStandard,
		CreatedAt:        time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	if err := store.Bookings.Create(ctx, b); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return appavailability.NewResolver(store.Factory(), nil)
}

func TestCheckAvailability(t *testing.T) {
	t.Parallel()
	r := newResolver(t)

	cases := []struct {
		name      string
		q         appavailability.Query
		available bool
		conflicts int
		policy    bool
	}{
		{name: "overlap", q: appavailability.Query{WorkerID: "w1", Date: thursday, StartTime: tod(10, 0), DurationHours: 2}, conflicts: 1},
		{name: "back to back", q: appavailability.Query{WorkerID: "w1", Date: thursday, StartTime: tod(12, 0), DurationHours: 2}, available: true},
		{name: "own booking excluded", q: appavailability.Query{WorkerID: "w1", Date: thursday, StartTime: tod(10, 0), DurationHours: 2, ExcludeBookingID: "b-1"}, available: true},
		{name: "past closing", q: appavailability.Query{WorkerID: "w1", Date: thursday, StartTime: tod(17, 0), DurationHours: 2}, policy: true},
		{name: "day off", q: appavailability.Query{WorkerID: "w1", Date: sunday, StartTime: tod(10, 0), DurationHours: 2}, policy: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := r.CheckAvailability(context.Background(), tc.q)
			if err != nil {
				t.Fatalf("CheckAvailability: %v", err)
			}
			if res.Available != tc.available || len(res.Conflicts) != tc.conflicts {
				t.Fatalf("result = %+v", res)
			}
			rejection := appavailability.RejectionError(res)
			switch {
			case tc.available:
				if rejection != nil {
					t.Fatalf("unexpected rejection %v", rejection)
				}
			case tc.policy:
				if !errors.Is(rejection, faults.ErrPolicy) || res.Reason == "" {
					t.Fatalf("want policy rejection with reason, got %v %q", rejection, res.Reason)
				}
			default:
				if !errors.Is(rejection, faults.ErrConflict) || res.Conflicts[0].BookingID != "b-1" {
					t.Fatalf("want conflict with b-1, got %v %+v", rejection, res.Conflicts)
				}
			}
		})
	}
}

func TestCheckAvailability_Errors(t *testing.T) {
	t.Parallel()
	r := newResolver(t)

	cases := []struct {
		name string
		q    appavailability.Query
		want error
	}{
		{name: "unknown worker", q: appavailability.Query{WorkerID: "ghost", Date: thursday, StartTime: tod(10, 0), DurationHours: 2}, want: faults.ErrNotFound},
		{name: "zero duration", q: appavailability.Query{WorkerID: "w1", Date: thursday, StartTime: tod(10, 0)}, want: faults.ErrValidation},
		{name: "negative duration", q: appavailability.Query{WorkerID: "w1", Date: thursday, StartTime: tod(10, 0), DurationHours: -1}, want: faults.ErrValidation},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := r.CheckAvailability(context.Background(), tc.q); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestGetAvailableSlots(t *testing.T) {
	t.Parallel()
	r := newResolver(t)
	ctx := context.Background()

	slots, err := r.GetAvailableSlots(ctx, "w1", thursday, 2)
	if err != nil {
		t.Fatalf("GetAvailableSlots: %v", err)
	}
	if len(slots) != 9 {
		t.Fatalf("got %d slots, want 9: %+v", len(slots), slots)
	}
	if slots[0].Start != tod(12, 0) || slots[len(slots)-1].End != tod(18, 0) {
		t.Fatalf("slot range %v..%v", slots[0].Start, slots[len(slots)-1].End)
	}

	off, err := r.GetAvailableSlots(ctx, "w1", sunday, 2)
	if err != nil || len(off) != 0 {
		t.Fatalf("day off: %v %v", off, err)
	}

	if _, err := r.GetAvailableSlots(ctx, "ghost", thursday, 2); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("unknown worker: %v", err)
	}
}
