package booking

import (
	"fmt"
	"strings"

	"cleanmarket/internal/domain/shared/faults"
)

// Status is the closed set of booking states.
type Status string

const (
	StatusCreated                 Status = "created"
	StatusPaymentHold             Status = "payment_hold"
	StatusAwaitingCleanerResponse Status = "awaiting_cleaner_response"
	StatusAccepted                Status = "accepted"
	StatusDeclinedByCleaner       Status = "declined_by_cleaner"
	StatusScheduled               Status = "scheduled"
	StatusOnTheWay                Status = "on_the_way"
	StatusInProgress              Status = "in_progress"
	StatusCompleted               Status = "completed"
	StatusAwaitingClient          Status = "awaiting_client"
	StatusApproved                Status = "approved"
	StatusDisputed                Status = "disputed"
	StatusCancelled               Status = "cancelled"
)

// Legacy names still written by older clients.
const (
	legacyPendingConfirmation = "pending_confirmation"
	legacyConfirmed           = "confirmed"
)

var allStatuses = []Status{
	StatusCreated, StatusPaymentHold, StatusAwaitingCleanerResponse, StatusAccepted,
	StatusDeclinedByCleaner, StatusScheduled, StatusOnTheWay, StatusInProgress,
	StatusCompleted, StatusAwaitingClient, StatusApproved, StatusDisputed, StatusCancelled,
}

// transitions lists every status. Terminal states map to nil.
var transitions = map[Status][]Status{
	StatusCreated:                 {StatusPaymentHold, StatusAwaitingCleanerResponse, StatusCancelled},
	StatusPaymentHold:             {StatusAwaitingCleanerResponse, StatusCancelled},
	StatusAwaitingCleanerResponse: {StatusAccepted, StatusDeclinedByCleaner, StatusCancelled},
	StatusAccepted:                {StatusScheduled, StatusCancelled},
	StatusDeclinedByCleaner:       nil,
	StatusScheduled:               {StatusOnTheWay, StatusInProgress, StatusCancelled},
	StatusOnTheWay:                {StatusInProgress, StatusCancelled},
	StatusInProgress:              {StatusCompleted},
	StatusCompleted:               {StatusAwaitingClient, StatusApproved, StatusDisputed},
	StatusAwaitingClient:          {StatusApproved, StatusDisputed},
	StatusApproved:                {StatusDisputed},
	StatusDisputed:                nil,
	StatusCancelled:               nil,
}

// activeStatuses occupy the worker's calendar.
var activeStatuses = []Status{
	StatusPaymentHold, StatusAwaitingCleanerResponse, StatusAccepted, StatusScheduled,
	StatusOnTheWay, StatusInProgress, StatusCompleted, StatusAwaitingClient,
}

func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ActiveStatuses returns the statuses counted by the conflict check.
func ActiveStatuses() []Status {
	return append([]Status(nil), activeStatuses...)
}

// ParseStatus accepts canonical and legacy names.
func ParseStatus(raw string) (Status, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case legacyPendingConfirmation:
		return StatusAwaitingCleanerResponse, nil
	case legacyConfirmed:
		return StatusAccepted, nil
	}
	if _, ok := transitions[Status(s)]; ok {
		return Status(s), nil
	}
	return "", faults.Validation("status", fmt.Sprintf("unknown booking status %q", raw))
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s Status) Active() bool {
	for _, a := range activeStatuses {
		if a == s {
			return true
		}
	}
	return false
}

// PreCompletion reports whether the job has not yet finished.
func (s Status) PreCompletion() bool {
	switch s {
	case StatusCreated, StatusPaymentHold, StatusAwaitingCleanerResponse, StatusAccepted,
		StatusScheduled, StatusOnTheWay, StatusInProgress:
		return true
	}
	return false
}

// Reschedulable covers the pending-confirmation and confirmed stages. Once the
// job is scheduled it can only be cancelled.
func (s Status) Reschedulable() bool {
	switch s {
	case StatusAwaitingCleanerResponse, StatusAccepted:
		return true
	}
	return false
}

// Completed reports whether the job was finished, regardless of later review.
func (s Status) Completed() bool {
	switch s {
	case StatusCompleted, StatusAwaitingClient, StatusApproved, StatusDisputed:
		return true
	}
	return false
}
