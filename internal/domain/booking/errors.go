package booking

import (
	"errors"
	"fmt"

	"cleanmarket/internal/domain/shared/faults"
)

var (
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrAlreadyResponded = errors.New("booking: worker already responded")
	ErrActualHoursSet   = errors.New("booking: actual hours already recorded")
	ErrUnknownTimeZone  = errors.New("booking: unknown time zone")
	ErrVersionConflict  = fmt.Errorf("booking: concurrent modification: %w", faults.ErrConflict)
)

// TransitionError is returned when the transition table forbids a move.
// It matches ErrInvalidState and is reported as a policy violation.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("booking: invalid state transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidState || target == faults.ErrPolicy
}

func notParticipant(actorID, role string) error {
	return faults.Policy("participant", fmt.Sprintf("actor %q is not the booking's %s", actorID, role))
}
