package availability

import (
	"errors"
	"testing"
	"time"

	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
)

func tod(t *testing.T, raw string) calendar.TimeOfDay {
	t.Helper()
	v, err := calendar.ParseTimeOfDay(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return v
}

func todPtr(t *testing.T, raw string) *calendar.TimeOfDay {
	v := tod(t, raw)
	return &v
}

// 2025-03-10 is a Monday.
var monday = calendar.Date{Year: 2025, Month: time.March, Day: 10}

func weekdaySchedule(t *testing.T) Weekly {
	t.Helper()
	w, err := NewWeekly("worker-1", []DaySchedule{
		{Day: time.Monday, Available: true, Start: todPtr(t, "08:00"), End: todPtr(t, "18:00")},
		{Day: time.Tuesday, Available: true},
		{Day: time.Wednesday, Available: false, Start: todPtr(t, "08:00"), End: todPtr(t, "18:00")},
	})
	if err != nil {
		t.Fatalf("NewWeekly: %v", err)
	}
	return w
}

func TestCheck_ConflictScenario(t *testing.T) {
	t.Parallel()

	occupied := []Occupied{{BookingID: "b-1", Start: tod(t, "09:00"), DurationMinutes: 180, Address: "12 Elm St"}}
	res, err := Check(weekdaySchedule(t), occupied, Request{WorkerID: "worker-1", Date: monday, Start: tod(t, "10:00"), DurationMinutes: 120})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Available {
		t.Fatalf("expected unavailable")
	}
	if len(res.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(res.Conflicts))
	}
	c := res.Conflicts[0]
	if c.BookingID != "b-1" || c.Start.String() != "09:00" || c.End.String() != "12:00" || c.Hours != 3 || c.Address != "12 Elm St" {
		t.Fatalf("unexpected conflict detail %+v", c)
	}
	if res.Reason != ReasonConflict {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
}

func TestCheck_ReturnsAllConflicts(t *testing.T) {
	t.Parallel()

	occupied := []Occupied{
		{BookingID: "b-1", Start: tod(t, "09:00"), DurationMinutes: 60},
		{BookingID: "b-2", Start: tod(t, "11:00"), DurationMinutes: 60},
		{BookingID: "b-3", Start: tod(t, "15:00"), DurationMinutes: 60},
	}
	res, err := Check(weekdaySchedule(t), occupied, Request{WorkerID: "worker-1", Date: monday, Start: tod(t, "09:30"), DurationMinutes: 120})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(res.Conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %+v", res.Conflicts)
	}
}

func TestCheck_HalfOpenBoundaries(t *testing.T) {
	t.Parallel()

	occupied := []Occupied{{BookingID: "b-1", Start: tod(t, "09:00"), DurationMinutes: 180}}
	cases := []struct {
		name      string
		start     string
		minutes   int
		available bool
	}{
		{"starts before working window", "07:00", 120, false},
		{"ends exactly at existing start inside window", "08:00", 60, true},
		{"starts exactly at existing end", "12:00", 60, true},
		{"one minute overlap at end", "11:59", 60, false},
		{"contains existing", "08:30", 300, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := Check(weekdaySchedule(t), occupied, Request{WorkerID: "worker-1", Date: monday, Start: tod(t, tc.start), DurationMinutes: tc.minutes})
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if res.Available != tc.available {
				t.Fatalf("available = %v, want %v (%+v)", res.Available, tc.available, res)
			}
		})
	}
}

func TestCheck_DayRules(t *testing.T) {
	t.Parallel()

	sched := weekdaySchedule(t)
	t.Run("no entry for weekday", func(t *testing.T) {
		res, err := Check(sched, nil, Request{WorkerID: "worker-1", Date: monday.AddDays(3), Start: tod(t, "10:00"), DurationMinutes: 60})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if res.Available || res.Reason != ReasonNotAvailableThisDay {
			t.Fatalf("unexpected result %+v", res)
		}
	})
	t.Run("day disabled", func(t *testing.T) {
		res, _ := Check(sched, nil, Request{WorkerID: "worker-1", Date: monday.AddDays(2), Start: tod(t, "10:00"), DurationMinutes: 60})
		if res.Available || res.Reason != ReasonNotAvailableThisDay {
			t.Fatalf("unexpected result %+v", res)
		}
	})
	t.Run("outside working window", func(t *testing.T) {
		res, _ := Check(sched, nil, Request{WorkerID: "worker-1", Date: monday, Start: tod(t, "17:00"), DurationMinutes: 120})
		if res.Available || res.Reason != ReasonOutsideHours {
			t.Fatalf("unexpected result %+v", res)
		}
	})
	t.Run("available day without window is open all day", func(t *testing.T) {
		res, _ := Check(sched, nil, Request{WorkerID: "worker-1", Date: monday.AddDays(1), Start: tod(t, "05:00"), DurationMinutes: 120})
		if !res.Available {
			t.Fatalf("expected available, got %+v", res)
		}
	})
}

func TestCheck_ExcludesBooking(t *testing.T) {
	t.Parallel()

	occupied := []Occupied{{BookingID: "b-1", Start: tod(t, "09:00"), DurationMinutes: 180}}
	res, err := Check(weekdaySchedule(t), occupied, Request{WorkerID: "worker-1", Date: monday, Start: tod(t, "10:00"), DurationMinutes: 60, ExcludeBookingID: "b-1"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Available {
		t.Fatalf("excluded booking should not conflict: %+v", res)
	}
}

func TestCheck_RejectsNonPositiveDuration(t *testing.T) {
	t.Parallel()

	for _, minutes := range []int{0, -30} {
		_, err := Check(weekdaySchedule(t), nil, Request{WorkerID: "worker-1", Date: monday, Start: tod(t, "10:00"), DurationMinutes: minutes})
		if !errors.Is(err, faults.ErrValidation) {
			t.Fatalf("duration %d: expected validation error, got %v", minutes, err)
		}
	}
	for _, hours := range []float64{0, -1} {
		if _, err := HoursToMinutes(hours); !errors.Is(err, faults.ErrValidation) {
			t.Fatalf("hours %v: expected validation error, got %v", hours, err)
		}
	}
	if m, err := HoursToMinutes(2.5); err != nil || m != 150 {
		t.Fatalf("HoursToMinutes(2.5) = %d, %v", m, err)
	}
}

func TestSlots(t *testing.T) {
	t.Parallel()

	sched := weekdaySchedule(t)
	occupied := []Occupied{{BookingID: "b-1", Start: tod(t, "09:00"), DurationMinutes: 180}}
	slots, err := Slots(sched, occupied, monday, 120)
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	var starts []string
	for _, s := range slots {
		starts = append(starts, s.Start.String())
	}
	want := []string{"12:00", "12:30", "13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00"}
	if len(starts) != len(want) {
		t.Fatalf("starts = %v, want %v", starts, want)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("starts = %v, want %v", starts, want)
		}
	}

	// Every generated slot must pass Check.
	for _, s := range slots {
		res, err := Check(sched, occupied, Request{WorkerID: "worker-1", Date: monday, Start: s.Start, DurationMinutes: 120})
		if err != nil || !res.Available {
			t.Fatalf("slot %s rejected by Check: %+v %v", s.Start, res, err)
		}
	}
}

func TestSlots_UnavailableDayAndAllDay(t *testing.T) {
	t.Parallel()

	sched := weekdaySchedule(t)
	slots, err := Slots(sched, nil, monday.AddDays(2), 60)
	if err != nil || len(slots) != 0 {
		t.Fatalf("expected no slots, got %v %v", slots, err)
	}
	slots, err = Slots(sched, nil, monday.AddDays(1), 60)
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	if len(slots) != 47 {
		t.Fatalf("expected 47 all-day slots, got %d", len(slots))
	}
	if _, err := Slots(sched, nil, monday, 0); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewWeekly_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewWeekly("w", []DaySchedule{{Day: time.Monday}, {Day: time.Monday}}); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected duplicate day rejection, got %v", err)
	}
	if _, err := NewWeekly("w", []DaySchedule{{Day: time.Monday, Available: true, Start: todPtr(t, "10:00")}}); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected half-set window rejection, got %v", err)
	}
	if _, err := NewWeekly("w", []DaySchedule{{Day: time.Monday, Available: true, Start: todPtr(t, "10:00"), End: todPtr(t, "09:00")}}); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected inverted window rejection, got %v", err)
	}
}
