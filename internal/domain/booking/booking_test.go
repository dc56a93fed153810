package booking

import (
	"errors"
	"testing"
	"time"

	"cleanmarket/internal/domain/escrow"
	"cleanmarket/internal/domain/geofence"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/credits"
	"cleanmarket/internal/domain/shared/faults"
)

var (
	jobSite   = geofence.Point{Latitude: 38.5816, Longitude: -121.4944}
	nearby    = &geofence.Reading{Point: geofence.Point{Latitude: 38.5820, Longitude: -121.4950}, AccuracyMeters: 20}
	farAway   = &geofence.Reading{Point: geofence.Point{Latitude: 38.6000, Longitude: -121.4944}, AccuracyMeters: 5}
	jobDate   = calendar.Date{Year: 2025, Month: time.March, Day: 13}
	nineSharp = calendar.TimeOfDay(9 * 60)
	startUTC  = time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(CreateParams{
		ID:               "b1",
		ClientID:         "client",
		WorkerID:         "worker",
		Date:             jobDate,
		StartTime:        nineSharp,
		EstimatedMinutes: 180,
		Address:          "12 Elm St",
		JobLocation:      jobSite,
		Prices:           escrow.PriceList{BaseRate: 300},
		CleaningType:     escrow.CleaningStandard,
		CreatedAt:        startUTC.Add(-5 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	b.ClearEvents()
	return b
}

func acceptedBooking(t *testing.T) *Booking {
	t.Helper()
	b := newTestBooking(t)
	if err := b.Accept("worker", startUTC.Add(-72*time.Hour)); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	b.ClearEvents()
	return b
}

func scheduledBooking(t *testing.T) *Booking {
	t.Helper()
	b := newTestBooking(t)
	at := startUTC.Add(-72 * time.Hour)
	if err := b.Accept("worker", at); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := b.Schedule(at); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	b.ClearEvents()
	return b
}

func TestTransitionTable_CoversEveryStatus(t *testing.T) {
	t.Parallel()

	if len(transitions) != len(allStatuses) {
		t.Fatalf("transition table has %d entries for %d statuses", len(transitions), len(allStatuses))
	}
	terminal := map[Status]bool{StatusDeclinedByCleaner: true, StatusDisputed: true, StatusCancelled: true}
	for _, s := range allStatuses {
		next, ok := transitions[s]
		if !ok {
			t.Fatalf("status %s missing from transition table", s)
		}
		for _, n := range next {
			if !n.Valid() {
				t.Fatalf("%s lists unknown target %s", s, n)
			}
		}
		if s.Terminal() != terminal[s] {
			t.Fatalf("Terminal(%s) = %v", s, s.Terminal())
		}
	}
	for _, s := range activeStatuses {
		if !s.Valid() || s.Terminal() {
			t.Fatalf("active status %s must be a live status", s)
		}
	}
	for _, s := range []Status{StatusCreated, StatusPaymentHold, StatusAwaitingCleanerResponse, StatusAccepted, StatusScheduled, StatusOnTheWay} {
		if !s.CanTransitionTo(StatusCancelled) {
			t.Fatalf("%s should be cancellable", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]Status{
		"pending_confirmation": StatusAwaitingCleanerResponse,
		"confirmed":            StatusAccepted,
		"IN_PROGRESS":          StatusInProgress,
		"on_the_way":           StatusOnTheWay,
	}
	for raw, want := range cases {
		got, err := ParseStatus(raw)
		if err != nil || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseStatus("pending"); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewBooking(t *testing.T) {
	t.Parallel()

	live := escrow.PriceList{BaseRate: 300, Addons: map[string]credits.Credits{"oven": 150}}
	b, err := NewBooking(CreateParams{
		ID: "b1", ClientID: "client", WorkerID: "worker",
		Date: jobDate, StartTime: nineSharp, EstimatedMinutes: 180,
		Address: "12 Elm St", JobLocation: jobSite,
		Prices: live, CleaningType: escrow.CleaningStandard,
		Addons:    []escrow.Selection{{Code: "oven", Quantity: 1}},
		CreatedAt: startUTC.Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	if b.Status != StatusAwaitingCleanerResponse {
		t.Fatalf("status = %s", b.Status)
	}
	if b.TotalCredits != 1050 || b.EscrowCreditsReserved != 1050 {
		t.Fatalf("total=%d reserved=%d, want 1050", b.TotalCredits, b.EscrowCreditsReserved)
	}
	names := eventNames(b)
	if len(names) != 2 || names[0] != "booking.created" || names[1] != "booking.escrow_held" {
		t.Fatalf("events = %v", names)
	}
	live.Addons["oven"] = 999
	if b.Prices.Addons["oven"] != 150 {
		t.Fatalf("snapshot changed with the live price list")
	}
	if !b.ScheduledStart().Equal(startUTC) {
		t.Fatalf("ScheduledStart = %s", b.ScheduledStart())
	}
}

func TestNewBooking_Validation(t *testing.T) {
	t.Parallel()

	base := CreateParams{
		ID: "b1", ClientID: "client", WorkerID: "worker",
		Date: jobDate, StartTime: nineSharp, EstimatedMinutes: 120,
		Address: "12 Elm St", JobLocation: jobSite,
		Prices: escrow.PriceList{BaseRate: 300}, CreatedAt: startUTC,
	}
	cases := map[string]func(p *CreateParams){
		"negative hours":  func(p *CreateParams) { p.EstimatedMinutes = -60 },
		"missing worker":  func(p *CreateParams) { p.WorkerID = "" },
		"same parties":    func(p *CreateParams) { p.WorkerID = "client" },
		"missing address": func(p *CreateParams) { p.Address = " " },
		"bad time zone":   func(p *CreateParams) { p.TimeZone = "Nowhere/Land" },
		"unpriced addon":  func(p *CreateParams) { p.Addons = []escrow.Selection{{Code: "fridge", Quantity: 1}} },
		"no job location": func(p *CreateParams) { p.JobLocation = geofence.Point{} },
		"latitude range":  func(p *CreateParams) { p.JobLocation.Latitude = 91 },
		"longitude range": func(p *CreateParams) { p.JobLocation.Longitude = -180.5 },
	}
	for name, mutate := range cases {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := base
			mutate(&p)
			if _, err := NewBooking(p); !errors.Is(err, faults.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAcceptDecline(t *testing.T) {
	t.Parallel()

	b := newTestBooking(t)
	now := startUTC.Add(-72 * time.Hour)
	if err := b.Accept("client", now); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("client accepting should be a policy violation, got %v", err)
	}
	if err := b.Accept("worker", now); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if b.Status != StatusAccepted || b.CleanerConfirmed == nil || !*b.CleanerConfirmed {
		t.Fatalf("unexpected state after accept: %s", b.Status)
	}
	if err := b.Decline("worker", "busy", now); !errors.Is(err, ErrAlreadyResponded) {
		t.Fatalf("expected ErrAlreadyResponded, got %v", err)
	}

	d := newTestBooking(t)
	if err := d.Decline("worker", "too far", now); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if d.Status != StatusDeclinedByCleaner || !d.Status.Terminal() {
		t.Fatalf("decline should be terminal, got %s", d.Status)
	}
	if d.EscrowCreditsReserved != 0 {
		t.Fatalf("hold not released: %d", d.EscrowCreditsReserved)
	}
	if err := d.Schedule(now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCancellationFeeTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		lead    time.Duration
		percent int
		fee     int64
		refused bool
	}{
		{name: "exactly 24h", lead: 24 * time.Hour, percent: 0, fee: 0},
		{name: "23h59m", lead: 23*time.Hour + 59*time.Minute, percent: 50, fee: 450},
		{name: "exactly 12h", lead: 12 * time.Hour, percent: 50, fee: 450},
		{name: "11h59m", lead: 11*time.Hour + 59*time.Minute, percent: 100, fee: 900},
		{name: "at start", lead: 0, percent: 100, fee: 900},
		{name: "one minute late", lead: -time.Minute, refused: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := scheduledBooking(t)
			quote, err := b.Cancel("client", "plans changed", startUTC.Add(-tc.lead))
			if tc.refused {
				if !errors.Is(err, faults.ErrPolicy) {
					t.Fatalf("expected policy violation, got %v", err)
				}
				if b.Status != StatusScheduled {
					t.Fatalf("refused cancellation mutated status to %s", b.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("Cancel: %v", err)
			}
			if quote.FeePercent != tc.percent || int64(quote.Fee) != tc.fee {
				t.Fatalf("quote = %+v, want %d%% / %d", quote, tc.percent, tc.fee)
			}
			if b.Status != StatusCancelled || b.CancellationFeeCredits == nil || int64(*b.CancellationFeeCredits) != tc.fee {
				t.Fatalf("booking not cancelled with fee: %s", b.Status)
			}
		})
	}
}

func TestCancel_RefusedOnceInProgress(t *testing.T) {
	t.Parallel()

	b := scheduledBooking(t)
	if _, err := b.RecordCheckIn("worker", nearby, startUTC); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if _, err := b.QuoteCancellation(startUTC.Add(time.Hour)); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("expected policy violation, got %v", err)
	}
}

func TestCheckInCheckOut(t *testing.T) {
	t.Parallel()

	b := scheduledBooking(t)
	if err := b.StartTrip("worker", startUTC.Add(-30*time.Minute)); err != nil {
		t.Fatalf("StartTrip: %v", err)
	}
	if _, err := b.RecordCheckIn("worker", farAway, startUTC); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("far check-in should be a policy violation, got %v", err)
	}
	if _, err := b.RecordCheckIn("worker", nil, startUTC); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("missing coordinates should be a validation error, got %v", err)
	}
	res, err := b.RecordCheckIn("worker", nearby, startUTC)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if !res.Valid || b.Status != StatusInProgress {
		t.Fatalf("check-in result %+v status %s", res, b.Status)
	}

	_, settlement, err := b.RecordCheckOut("worker", nearby, startUTC.Add(3*time.Hour+10*time.Minute))
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if b.ActualHours == nil || *b.ActualHours != 3.25 {
		t.Fatalf("actual hours = %v, want 3.25", b.ActualHours)
	}
	if settlement.Shortfall != 75 || settlement.Captured != 900 || settlement.Refund != 0 {
		t.Fatalf("settlement = %+v", settlement)
	}
	if b.Status != StatusAwaitingClient {
		t.Fatalf("shortfall should await the client, got %s", b.Status)
	}
	if _, _, err := b.RecordCheckOut("worker", nearby, startUTC.Add(4*time.Hour)); err == nil {
		t.Fatalf("second check-out must fail")
	}
	if err := b.Approve("worker", startUTC.Add(4*time.Hour)); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("worker cannot approve, got %v", err)
	}
	if err := b.Approve("client", startUTC.Add(4*time.Hour)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if b.Status != StatusApproved {
		t.Fatalf("status = %s", b.Status)
	}
}

func TestCheckOut_WithinHoldCompletes(t *testing.T) {
	t.Parallel()

	b := scheduledBooking(t)
	if _, err := b.RecordCheckIn("worker", nearby, startUTC); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	_, s, err := b.RecordCheckOut("worker", nearby, startUTC.Add(2*time.Hour+16*time.Minute))
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if s.Refund != 150 || s.Shortfall != 0 || b.Status != StatusCompleted {
		t.Fatalf("settlement %+v status %s", s, b.Status)
	}
}

func completedAt(t *testing.T, checkOut time.Time) *Booking {
	t.Helper()
	b := newTestBooking(t)
	b.Status = StatusCompleted
	b.CheckIn = &Presence{At: checkOut.Add(-3 * time.Hour)}
	b.CheckOut = &Presence{At: checkOut}
	b.UpdatedAt = checkOut
	return b
}

func TestDisputeWindow(t *testing.T) {
	t.Parallel()

	out := time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC)
	b := completedAt(t, out)
	if w := b.DisputeWindow(out.Add(47 * time.Hour)); !w.Open {
		t.Fatalf("window should be open at 47h: %+v", w)
	}
	if w := b.DisputeWindow(out.Add(49 * time.Hour)); w.Open {
		t.Fatalf("window should be closed at 49h: %+v", w)
	}
	if w := b.DisputeWindow(out.Add(48 * time.Hour)); w.Open {
		t.Fatalf("window should be closed at exactly 48h")
	}
	if err := b.FileDispute("client", "d1", out.Add(49*time.Hour)); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("late dispute should be a policy violation, got %v", err)
	}
	if err := b.FileDispute("client", "d1", out.Add(47*time.Hour)); err != nil {
		t.Fatalf("FileDispute: %v", err)
	}
	if b.Status != StatusDisputed || b.DisputeID != "d1" {
		t.Fatalf("status %s dispute %q", b.Status, b.DisputeID)
	}
	if err := b.FileDispute("client", "d2", out.Add(47*time.Hour)); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("duplicate dispute should be a policy violation, got %v", err)
	}
	if w := b.DisputeWindow(out.Add(time.Hour)); w.Open {
		t.Fatalf("window is irrelevant once a dispute exists")
	}
}

func TestDisputeWindow_FallsBackToLastUpdate(t *testing.T) {
	t.Parallel()

	out := time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC)
	b := completedAt(t, out)
	b.CheckOut = nil
	b.Status = StatusApproved
	b.UpdatedAt = out.Add(10 * time.Hour)
	if w := b.DisputeWindow(out.Add(57 * time.Hour)); !w.Open {
		t.Fatalf("window should use the last update when check-out is missing")
	}
	b.Status = StatusScheduled
	if w := b.DisputeWindow(out); w.Open {
		t.Fatalf("window must stay closed before completion")
	}
}

func TestReschedule_FreeOnce(t *testing.T) {
	t.Parallel()

	b := acceptedBooking(t)
	now := startUTC.Add(-72 * time.Hour)
	to := RescheduleRequest{ActorID: "client", Date: jobDate.AddDays(1), StartTime: calendar.TimeOfDay(10 * 60)}
	outcome, err := b.Reschedule(to, now)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !outcome.Free || outcome.FeeRequired || b.RescheduleCount != 1 {
		t.Fatalf("outcome %+v count %d", outcome, b.RescheduleCount)
	}
	if b.Date != jobDate.AddDays(1) || b.StartTime != calendar.TimeOfDay(10*60) || b.Status != StatusAccepted {
		t.Fatalf("booking not moved: %s %s %s", b.Date, b.StartTime, b.Status)
	}

	again := RescheduleRequest{ActorID: "client", Date: jobDate.AddDays(2), StartTime: nineSharp}
	if _, err := b.Reschedule(again, now); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("second reschedule should be a policy violation, got %v", err)
	}
	again.AllowPaid = true
	outcome, err = b.Reschedule(again, now)
	if err != nil {
		t.Fatalf("paid reschedule: %v", err)
	}
	if outcome.Free || !outcome.FeeRequired || b.RescheduleCount != 2 {
		t.Fatalf("paid outcome %+v count %d", outcome, b.RescheduleCount)
	}
}

func TestReschedule_LateIsNotFree(t *testing.T) {
	t.Parallel()

	b := acceptedBooking(t)
	to := RescheduleRequest{ActorID: "worker", Date: jobDate.AddDays(1), StartTime: nineSharp}
	if _, err := b.CheckReschedule(to, startUTC.Add(-23*time.Hour)); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("late reschedule should be a policy violation, got %v", err)
	}
	to.ActorID = "stranger"
	if _, err := b.CheckReschedule(to, startUTC.Add(-72*time.Hour)); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("stranger reschedule should be a policy violation, got %v", err)
	}
}

func TestReschedule_OnlyBeforeScheduling(t *testing.T) {
	t.Parallel()

	now := startUTC.Add(-72 * time.Hour)
	to := RescheduleRequest{ActorID: "client", Date: jobDate.AddDays(1), StartTime: nineSharp}
	if _, err := newTestBooking(t).CheckReschedule(to, now); err != nil {
		t.Fatalf("pending booking should be reschedulable: %v", err)
	}
	b := scheduledBooking(t)
	if _, err := b.Reschedule(to, now); !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("scheduled booking should refuse a reschedule, got %v", err)
	}
	if b.Date != jobDate || b.RescheduleCount != 0 {
		t.Fatalf("refused reschedule moved the booking: %s count %d", b.Date, b.RescheduleCount)
	}
}

func eventNames(b *Booking) []string {
	var names []string
	for _, e := range b.PendingEvents() {
		names = append(names, e.EventName())
	}
	return names
}
