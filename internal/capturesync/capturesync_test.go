package capturesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/flows"
)

func TestFromSyncOutcomeErrors(t *testing.T) {
	t.Run("503 is transient and stays pending", func(t *testing.T) {
		update := FromSyncOutcome("cap_1", SyncOutcome{
			Error: &flows.ErrorResponse{Code: "GW_TIMEOUT", Message: "upstream timeout", StatusCode: 503},
		})
		assert.Equal(t, ErrorUpdate, update.Kind)
		assert.Equal(t, domain.CaptureStatusPending, update.Status)
	})
	t.Run("402 is terminal and fails", func(t *testing.T) {
		update := FromSyncOutcome("cap_1", SyncOutcome{
			Error: &flows.ErrorResponse{Code: "CARD_DECLINED", Message: "declined", StatusCode: 402},
		})
		assert.Equal(t, ErrorUpdate, update.Kind)
		assert.Equal(t, domain.CaptureStatusFailed, update.Status)
	})
	t.Run("range boundaries", func(t *testing.T) {
		for code, want := range map[int]domain.CaptureStatus{
			499: domain.CaptureStatusFailed,
			500: domain.CaptureStatusPending,
			511: domain.CaptureStatusPending,
			512: domain.CaptureStatusFailed,
		} {
			update := FromSyncOutcome("cap_1", SyncOutcome{
				Error: &flows.ErrorResponse{Code: "X", Message: "x", StatusCode: code},
			})
			assert.Equal(t, want, update.Status, "status code %d", code)
		}
	})
}

func TestFromSyncOutcomeResponses(t *testing.T) {
	t.Run("transaction id is carried", func(t *testing.T) {
		update := FromSyncOutcome("cap_1", SyncOutcome{
			Response: &flows.TransactionResponse{ResourceID: flows.ConnectorTransactionID("cc_9")},
			Status:   domain.CaptureStatusCharged,
		})
		assert.Equal(t, ResponseUpdate, update.Kind)
		assert.Equal(t, domain.CaptureStatusCharged, update.Status)
		require.NotNil(t, update.ConnectorCaptureID)
		assert.Equal(t, "cc_9", *update.ConnectorCaptureID)
	})
	t.Run("encoded-data-only response carries no id", func(t *testing.T) {
		update := FromSyncOutcome("cap_1", SyncOutcome{
			Response: &flows.TransactionResponse{ResourceID: flows.EncodedData("blob")},
			Status:   domain.CaptureStatusCharged,
		})
		assert.Equal(t, ResponseUpdate, update.Kind)
		assert.Nil(t, update.ConnectorCaptureID)
	})
}

func TestReconcileAllIsOrderIndependent(t *testing.T) {
	captures := []domain.Capture{
		{CaptureID: "cap_1", Sequence: 1, Status: domain.CaptureStatusPending},
		{CaptureID: "cap_2", Sequence: 2, Status: domain.CaptureStatusPending},
		{CaptureID: "cap_3", Sequence: 3, Status: domain.CaptureStatusPending},
	}
	outcomes := map[string]SyncOutcome{
		"cap_1": {Response: &flows.TransactionResponse{ResourceID: flows.ConnectorTransactionID("cc_1")}, Status: domain.CaptureStatusCharged},
		"cap_3": {Error: &flows.ErrorResponse{Code: "GW", Message: "down", StatusCode: 503}},
	}

	first := ReconcileAll(captures, outcomes)

	// Same outcomes applied against a reversed capture slice must produce
	// the same per-capture states.
	reversed := []domain.Capture{captures[2], captures[1], captures[0]}
	second := ReconcileAll(reversed, outcomes)

	byID := func(set []domain.Capture) map[string]domain.Capture {
		m := make(map[string]domain.Capture, len(set))
		for _, c := range set {
			m[c.CaptureID] = c
		}
		return m
	}
	f, s := byID(first), byID(second)
	assert.Equal(t, f["cap_1"], s["cap_1"])
	assert.Equal(t, f["cap_2"], s["cap_2"])
	assert.Equal(t, f["cap_3"], s["cap_3"])

	assert.Equal(t, domain.CaptureStatusCharged, f["cap_1"].Status)
	assert.Equal(t, "cc_1", *f["cap_1"].ConnectorCaptureID)
	assert.Equal(t, domain.CaptureStatusPending, f["cap_2"].Status, "unmatched capture passes through")
	assert.Equal(t, domain.CaptureStatusPending, f["cap_3"].Status, "transient error keeps pending")
	require.NotNil(t, f["cap_3"].ErrorCode)
	assert.Equal(t, "GW", *f["cap_3"].ErrorCode)
}

func TestReconcileAllDoesNotMutateInput(t *testing.T) {
	captures := []domain.Capture{{CaptureID: "cap_1", Status: domain.CaptureStatusPending}}
	_ = ReconcileAll(captures, map[string]SyncOutcome{
		"cap_1": {Response: &flows.TransactionResponse{ResourceID: flows.ConnectorTransactionID("cc_1")}, Status: domain.CaptureStatusCharged},
	})
	assert.Equal(t, domain.CaptureStatusPending, captures[0].Status)
	assert.Nil(t, captures[0].ConnectorCaptureID)
}
