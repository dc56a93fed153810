package availability

import (
	"context"
	"fmt"
	"time"

	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/faults"
)

// DaySchedule is a worker's declared availability for one weekday.
// A nil Start and End means the worker is available all day.
type DaySchedule struct {
	Day       time.Weekday
	Available bool
	Start     *calendar.TimeOfDay
	End       *calendar.TimeOfDay
}

// Window returns the working window for the day and whether one is declared.
func (d DaySchedule) Window() (calendar.Window, bool) {
	if d.Start == nil || d.End == nil {
		return calendar.Window{Start: 0, End: calendar.MinutesPerDay}, false
	}
	return calendar.Window{Start: d.Start.Minutes(), End: d.End.Minutes()}, true
}

// Weekly holds at most one DaySchedule per weekday.
type Weekly struct {
	WorkerID string
	Days     []DaySchedule
}

// Repository reads weekly schedules. Schedules are mutated by workers elsewhere.
type Repository interface {
	WeeklyAvailability(ctx context.Context, workerID string) (Weekly, error)
}

func NewWeekly(workerID string, days []DaySchedule) (Weekly, error) {
	seen := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		if d.Day < time.Sunday || d.Day > time.Saturday {
			return Weekly{}, faults.Validation("day_of_week", fmt.Sprintf("unknown weekday %d", d.Day))
		}
		if _, dup := seen[d.Day]; dup {
			return Weekly{}, faults.Validation("day_of_week", "duplicate entry for "+d.Day.String())
		}
		seen[d.Day] = struct{}{}
		if (d.Start == nil) != (d.End == nil) {
			return Weekly{}, faults.Validation("window", d.Day.String()+": start and end must be set together")
		}
		if d.Start != nil {
			w, _ := d.Window()
			if err := w.Validate(); err != nil {
				return Weekly{}, faults.Validation("window", d.Day.String()+": end must be after start")
			}
		}
	}
	return Weekly{WorkerID: workerID, Days: append([]DaySchedule(nil), days...)}, nil
}

func (w Weekly) ForDay(day time.Weekday) (DaySchedule, bool) {
	for _, d := range w.Days {
		if d.Day == day {
			return d, true
		}
	}
	return DaySchedule{}, false
}
