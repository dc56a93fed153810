package availability

import (
	"fmt"
	"strings"

	"cleanmarket/internal/domain/shared/faults"
)

// ConflictError is returned when a booking would overlap existing ones.
type ConflictError struct {
	Reason    string
	Conflicts []ConflictRef
}

func NewConflictError(res Result) *ConflictError {
	return &ConflictError{Reason: res.Reason, Conflicts: res.Conflicts}
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return "availability: " + e.Reason
	}
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s %s-%s", c.BookingID, c.Start, c.End))
	}
	return fmt.Sprintf("availability: %s (%s)", e.Reason, strings.Join(parts, ", "))
}

func (e *ConflictError) Is(target error) bool { return target == faults.ErrConflict }
