package scheduling

import "github.com/clinic/exams/internal/platform/apperr"

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no other state can follow s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// StatusChange is a request to move an appointment to Status. Nil flags
// leave the stored columns untouched.
type StatusChange struct {
	Status         Status `json:"status"`
	DocumentsOK    *bool  `json:"documents_ok,omitempty"`
	RequirementsOK *bool  `json:"requirements_ok,omitempty"`
}

// CheckTransition validates moving an appointment from its current status
// as described by change. Writing the current status again is allowed.
func CheckTransition(from Status, change StatusChange) error {
	if !change.Status.Valid() {
		return apperr.Validation("invalid status: %q", change.Status)
	}
	if from.Terminal() && change.Status != from {
		return apperr.Validation("appointment is %s and cannot move to %s", from, change.Status)
	}
	if change.Status == StatusCompleted {
		if !isTrue(change.DocumentsOK) || !isTrue(change.RequirementsOK) {
			return apperr.Validation("documents and requirements must both be confirmed to complete an appointment")
		}
	}
	return nil
}

func isTrue(b *bool) bool { return b != nil && *b }
