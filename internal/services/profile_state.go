package services

import (
	"fmt"

	"github.com/mistriconnect/technician-backend/internal/models"
)

// allowedTransitions is the verification state machine. Every status change
// in the workflow goes through Transition; anything not listed here is a
// Conflict, so a stray or replayed request can never corrupt an aggregate.
//
//	pending              -> verification_pending   (onboarding completed)
//	verification_pending -> verified               (application approved)
//	verification_pending -> rejected               (application rejected)
//	rejected             -> verification_pending   (resubmission)
var allowedTransitions = map[models.VerificationStatus][]models.VerificationStatus{
	models.VerificationPending:  {models.VerificationInReview},
	models.VerificationInReview: {models.VerificationVerified, models.VerificationRejected},
	models.VerificationRejected: {models.VerificationInReview},
	models.VerificationVerified: {},
}

// CanTransition reports whether from -> to is a legal verification transition
func CanTransition(from, to models.VerificationStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a verification status change. It returns a Conflict
// with code INVALID_TRANSITION when the change is not in the state machine,
// which also covers double decisions (verified -> verified) and decisions on
// technicians who never finished onboarding (pending -> verified).
func Transition(from, to models.VerificationStatus) error {
	if !CanTransition(from, to) {
		return models.NewConflictError(models.CodeInvalidTransition,
			fmt.Sprintf("cannot transition verification status from %s to %s", from, to))
	}
	return nil
}
