package availability

import (
	"fmt"
	"math"
	"strings"

	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
)

// SlotStepMinutes is the granularity of generated slots.
const SlotStepMinutes = 30

const (
	ReasonNotAvailableThisDay = "not available this day"
	ReasonOutsideHours        = "requested time is outside working hours"
	ReasonConflict            = "requested time conflicts with an existing booking"
)

// Occupied is an existing active booking on the requested day.
type Occupied struct {
	BookingID       string
	Start           calendar.TimeOfDay
	DurationMinutes int
	Address         string
	Status          string
}

func (o Occupied) Window() calendar.Window {
	return calendar.Window{Start: o.Start.Minutes(), End: o.Start.Minutes() + o.DurationMinutes}
}

// ConflictRef explains why a requested slot was rejected.
type ConflictRef struct {
	BookingID string             `json:"booking_id"`
	Start     calendar.TimeOfDay `json:"start_time"`
	End       calendar.TimeOfDay `json:"end_time"`
	Hours     float64            `json:"hours"`
	Address   string             `json:"address,omitempty"`
}

// Request asks whether a worker can take a job at Start for DurationMinutes on Date.
type Request struct {
	WorkerID         string
	Date             calendar.Date
	Start            calendar.TimeOfDay
	DurationMinutes  int
	ExcludeBookingID string
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.WorkerID) == "" {
		return faults.Validation("worker_id", "required")
	}
	if r.Date.IsZero() {
		return faults.Validation("date", "required")
	}
	if r.Start < 0 || r.Start.Minutes() >= calendar.MinutesPerDay {
		return faults.Validation("start_time", "must be within the day")
	}
	if r.DurationMinutes <= 0 {
		return faults.Validation("duration_hours", "must be positive")
	}
	return nil
}

func (r Request) Window() calendar.Window {
	return calendar.Window{Start: r.Start.Minutes(), End: r.Start.Minutes() + r.DurationMinutes}
}

// Result is the outcome of a slot check.
type Result struct {
	Available bool          `json:"available"`
	Conflicts []ConflictRef `json:"conflicts"`
	Reason    string        `json:"reason,omitempty"`
}

// Slot is a bookable start time.
type Slot struct {
	Start calendar.TimeOfDay `json:"start_time"`
	End   calendar.TimeOfDay `json:"end_time"`
}

// HoursToMinutes converts a duration in hours to whole minutes.
// Zero, negative and non-finite durations are rejected, never clamped.
func HoursToMinutes(hours float64) (int, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return 0, faults.Validation("duration_hours", fmt.Sprintf("must be positive, got %v", hours))
	}
	minutes := int(math.Round(hours * 60))
	if minutes <= 0 {
		return 0, faults.Validation("duration_hours", "must be at least one minute")
	}
	return minutes, nil
}

// Check applies the weekly schedule, the optional working window and the
// conflict predicate. occupied must already be limited to active bookings on the date.
func Check(schedule Weekly, occupied []Occupied, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	day, ok := schedule.ForDay(req.Date.Weekday())
	if !ok || !day.Available {
		return Result{Available: false, Conflicts: []ConflictRef{}, Reason: ReasonNotAvailableThisDay}, nil
	}
	requested := req.Window()
	if window, constrained := day.Window(); constrained && !window.Contains(requested) {
		return Result{Available: false, Conflicts: []ConflictRef{}, Reason: ReasonOutsideHours}, nil
	}
	conflicts := findConflicts(occupied, requested, req.ExcludeBookingID)
	if len(conflicts) > 0 {
		return Result{Available: false, Conflicts: conflicts, Reason: ReasonConflict}, nil
	}
	return Result{Available: true, Conflicts: []ConflictRef{}}, nil
}

// Slots walks the day's window in SlotStepMinutes steps and returns every
// start whose [start, start+duration) is free.
func Slots(schedule Weekly, occupied []Occupied, date calendar.Date, durationMinutes int) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, faults.Validation("duration_hours", "must be positive")
	}
	day, ok := schedule.ForDay(date.Weekday())
	if !ok || !day.Available {
		return []Slot{}, nil
	}
	window, _ := day.Window()
	slots := make([]Slot, 0)
	for step := window.Start; step+durationMinutes <= window.End; step += SlotStepMinutes {
		candidate := calendar.Window{Start: step, End: step + durationMinutes}
		if len(findConflicts(occupied, candidate, "")) > 0 {
			continue
		}
		slots = append(slots, Slot{Start: calendar.TimeOfDay(candidate.Start), End: calendar.TimeOfDay(candidate.End)})
	}
	return slots, nil
}

func findConflicts(occupied []Occupied, requested calendar.Window, exclude string) []ConflictRef {
	var out []ConflictRef
	for _, o := range occupied {
		if exclude != "" && o.BookingID == exclude {
			continue
		}
		existing := o.Window()
		if !requested.Overlaps(existing) {
			continue
		}
		out = append(out, ConflictRef{
			BookingID: o.BookingID,
			Start:     calendar.TimeOfDay(existing.Start),
			End:       calendar.TimeOfDay(existing.End),
			Hours:     float64(o.DurationMinutes) / 60,
			Address:   o.Address,
		})
	}
	return out
}
