// Package capturesync maps connector capture-sync outcomes onto internal
// capture-state transitions and merges them into the capture set.
package capturesync

import (
	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/flows"
)

// UpdateKind discriminates a state transition derived from a sync outcome.
type UpdateKind string

const (
	// ResponseUpdate carries the connector's reported state for a capture.
	ResponseUpdate UpdateKind = "response_update"
	// ErrorUpdate records a failed sync call; transient connector errors
	// keep the capture pending for the next sync round.
	ErrorUpdate UpdateKind = "error_update"
)

// Update is one capture-state transition keyed by internal capture id.
type Update struct {
	CaptureID string
	Kind      UpdateKind
	Status    domain.CaptureStatus

	// ConnectorCaptureID is nil when the connector returned only encoded
	// data instead of a usable id.
	ConnectorCaptureID *string

	ErrorCode    *string
	ErrorMessage *string
	ErrorReason  *string
}

// SyncOutcome is the normalized result of one capture-sync connector call.
// Exactly one of Response or Error is set.
type SyncOutcome struct {
	Response *flows.TransactionResponse
	Status   domain.CaptureStatus
	Error    *flows.ErrorResponse
}

// transientStatusRange marks connector HTTP statuses treated as retryable:
// the capture stays pending and the next sync round tries again.
func transient(statusCode int) bool {
	return statusCode >= 500 && statusCode <= 511
}

// FromSyncOutcome derives the state transition for one capture.
func FromSyncOutcome(captureID string, outcome SyncOutcome) Update {
	if outcome.Error != nil {
		status := domain.CaptureStatusFailed
		if transient(outcome.Error.StatusCode) {
			status = domain.CaptureStatusPending
		}
		return Update{
			CaptureID:    captureID,
			Kind:         ErrorUpdate,
			Status:       status,
			ErrorCode:    &outcome.Error.Code,
			ErrorMessage: &outcome.Error.Message,
			ErrorReason:  outcome.Error.Reason,
		}
	}

	update := Update{
		CaptureID: captureID,
		Kind:      ResponseUpdate,
		Status:    outcome.Status,
	}
	if outcome.Response != nil {
		if id, err := outcome.Response.ResourceID.TransactionID(); err == nil {
			update.ConnectorCaptureID = &id
		}
	}
	return update
}

// ReconcileAll applies per-capture sync outcomes to a capture set. Updates
// are keyed by capture id, so the merge is order-independent: concurrent
// sync calls can complete in any order and produce the same result. The
// input slice is not mutated; unmatched captures pass through unchanged.
func ReconcileAll(captures []domain.Capture, outcomes map[string]SyncOutcome) []domain.Capture {
	merged := make([]domain.Capture, len(captures))
	copy(merged, captures)
	for i := range merged {
		outcome, ok := outcomes[merged[i].CaptureID]
		if !ok {
			continue
		}
		update := FromSyncOutcome(merged[i].CaptureID, outcome)
		merged[i].Status = update.Status
		if update.ConnectorCaptureID != nil {
			merged[i].ConnectorCaptureID = update.ConnectorCaptureID
		}
		merged[i].ErrorCode = update.ErrorCode
		merged[i].ErrorMessage = update.ErrorMessage
		merged[i].ErrorReason = update.ErrorReason
	}
	return merged
}
