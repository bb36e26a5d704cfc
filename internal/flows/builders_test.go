package flows

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-router/internal/card"
	"github.com/yourorg/payment-router/internal/connector"
	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/metrics"
	"github.com/yourorg/payment-router/internal/payerrors"
	"github.com/yourorg/payment-router/internal/storage"
)

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64   { return &n }

func testContext(t *testing.T, connectorName string) *BuilderContext {
	t.Helper()
	account := domain.MerchantConnectorAccount{
		MerchantConnectorID: "mca_1",
		ConnectorName:       connectorName,
		AuthDetails:         json.RawMessage(`{"auth_type":"HeaderKey","api_key":"sk_test"}`),
	}
	c, err := NewBuilderContext("https://pay.example.com", account, connector.DefaultRegistry(), storage.NewInMemoryConfigStore(nil))
	require.NoError(t, err)
	return c
}

func testRecord() *domain.PaymentRecord {
	return &domain.PaymentRecord{
		Intent: domain.PaymentIntent{
			PaymentID:  "pay_1",
			MerchantID: "m_1",
			Status:     domain.IntentStatusRequiresConfirmation,
			Amount:     1000,
			Currency:   domain.CurrencyUSD,
		},
		Attempt: domain.PaymentAttempt{
			AttemptID:  "att_1",
			PaymentID:  "pay_1",
			MerchantID: "m_1",
			Status:     domain.AttemptStatusPending,
			Amount:     1000,
			Currency:   domain.CurrencyUSD,
			Connector:  "stripe",
			Confirm:    true,
		},
		Address: domain.Address{Billing: &domain.AddressWithPhone{
			Address: &domain.AddressDetails{Country: strPtr("US")},
		}},
		PaymentMethodData: &domain.PaymentMethodData{
			Kind: domain.PaymentMethodDataCard,
			Card: &domain.Card{Number: "4242424242424242", ExpiryMonth: "03", ExpiryYear: "27", CVC: "123"},
		},
	}
}

func TestBuildAuthorize(t *testing.T) {
	ctx := context.Background()
	c := testContext(t, "stripe")

	t.Run("missing billing country names the dotted path", func(t *testing.T) {
		record := testRecord()
		record.Address = domain.Address{}
		_, err := BuildAuthorize(ctx, c, record, nil)
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "billing.address.country", path)
	})

	t.Run("builds envelope and callback urls", func(t *testing.T) {
		rd, err := BuildAuthorize(ctx, c, testRecord(), nil)
		require.NoError(t, err)
		assert.Equal(t, FlowAuthorize, rd.Flow)
		assert.Equal(t, "stripe", rd.Connector)
		assert.Equal(t, int64(1000), rd.Request.Amount)
		assert.Equal(t, "US", rd.Request.BillingCountry)
		assert.Equal(t, "https://pay.example.com/payments/pay_1/m_1/redirect/response/stripe", rd.Request.RouterReturnURL)
		assert.Equal(t, "https://pay.example.com/webhooks/m_1/mca_1", rd.Request.WebhookURL)
		assert.Equal(t, "https://pay.example.com/payments/pay_1/m_1/redirect/complete/stripe", rd.Request.CompleteAuthorizeURL)
		assert.Equal(t, connector.AuthHeaderKey, rd.AuthType.Kind)
		require.NotNil(t, rd.Request.CardIssuer)
		assert.Equal(t, card.IssuerVisa, *rd.Request.CardIssuer)
		require.NotNil(t, rd.Request.CardExpiry)
		assert.Equal(t, "03/27", *rd.Request.CardExpiry)
	})

	t.Run("out-of-range expiry month fails", func(t *testing.T) {
		record := testRecord()
		record.PaymentMethodData.Card.ExpiryMonth = "13"
		_, err := BuildAuthorize(ctx, c, record, nil)
		var invalid *payerrors.InvalidDataValueError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "card_exp_month", invalid.FieldName)
	})

	t.Run("surcharge adjusts the effective amount", func(t *testing.T) {
		record := testRecord()
		record.SurchargeDetails = &domain.SurchargeDetails{SurchargeAmount: 50, FinalAmount: 1050}
		rd, err := BuildAuthorize(ctx, c, record, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1050), rd.Request.Amount)
	})

	t.Run("mandate payment without fresh method data gets a placeholder", func(t *testing.T) {
		record := testRecord()
		record.PaymentMethodData = nil
		record.MandateID = strPtr("man_1")
		rd, err := BuildAuthorize(ctx, c, record, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentMethodDataMandate, rd.Request.PaymentMethodData.Kind)
	})

	t.Run("no method data and no mandate fails", func(t *testing.T) {
		record := testRecord()
		record.PaymentMethodData = nil
		_, err := BuildAuthorize(ctx, c, record, nil)
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "payment_method_data", path)
	})

	t.Run("malformed order detail fails the whole operation", func(t *testing.T) {
		record := testRecord()
		record.Intent.OrderDetails = []json.RawMessage{
			json.RawMessage(`{"product_name":"widget","quantity":1,"amount":500}`),
			json.RawMessage(`{"quantity":"two"}`),
		}
		_, err := BuildAuthorize(ctx, c, record, nil)
		var parseErr *payerrors.ParsingFailedError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("malformed order category metadata is tolerated", func(t *testing.T) {
		record := testRecord()
		record.Intent.ConnectorMetadata = json.RawMessage(`not-json`)
		rd, err := BuildAuthorize(ctx, c, record, nil)
		require.NoError(t, err)
		assert.Nil(t, rd.Request.OrderCategory)
	})

	t.Run("malformed browser info is a hard error", func(t *testing.T) {
		record := testRecord()
		record.Attempt.BrowserInfo = json.RawMessage(`{"screen_width":"wide"}`)
		_, err := BuildAuthorize(ctx, c, record, nil)
		var parseErr *payerrors.ParsingFailedError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("snapshot supplies customer name and email", func(t *testing.T) {
		snap := &domain.CustomerSnapshot{Name: strPtr("Jane Doe"), Email: strPtr("jane@example.com")}
		rd, err := BuildAuthorize(ctx, c, testRecord(), snap)
		require.NoError(t, err)
		require.NotNil(t, rd.Request.CustomerName)
		assert.Equal(t, "Jane Doe", *rd.Request.CustomerName)
		require.NotNil(t, rd.Request.Email)
		assert.Equal(t, "jane@example.com", *rd.Request.Email)
	})
}

func TestBuildFailureCounter(t *testing.T) {
	ctx := context.Background()
	c := testContext(t, "stripe")
	counter := metrics.BuildFailures.WithLabelValues(string(FlowAuthorize))
	before := testutil.ToFloat64(counter)

	record := testRecord()
	record.Address = domain.Address{}
	_, err := BuildAuthorize(ctx, c, record, nil)
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	_, err = BuildAuthorize(ctx, c, testRecord(), nil)
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestDisabledAccountFailsBeforeValidation(t *testing.T) {
	ctx := context.Background()
	c := testContext(t, "stripe")
	c.MerchantAccount.Disabled = true

	// Record is also missing billing country; the disabled check must win.
	record := testRecord()
	record.Address = domain.Address{}

	_, err := BuildAuthorize(ctx, c, record, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, payerrors.ErrMerchantConnectorAccountDisabled))
}

func TestBuildSync(t *testing.T) {
	ctx := context.Background()
	c := testContext(t, "stripe")

	t.Run("acknowledged attempt carries the transaction id", func(t *testing.T) {
		record := testRecord()
		record.Attempt.ConnectorTransactionID = strPtr("pi_123")
		rd, err := BuildSync(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, ConnectorTransactionID("pi_123"), rd.Request.ResourceID)
		assert.Equal(t, SyncSingle, rd.Request.Mode)
	})

	t.Run("encoded data stands in when no id exists", func(t *testing.T) {
		record := testRecord()
		record.Attempt.EncodedData = strPtr("blob")
		rd, err := BuildSync(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, ResponseIDEncoded, rd.Request.ResourceID.Kind)
		_, err = rd.Request.ResourceID.TransactionID()
		assert.True(t, errors.Is(err, payerrors.ErrResourceIDNotFound))
	})

	t.Run("capture tracking switches to multiple-capture mode", func(t *testing.T) {
		record := testRecord()
		record.Attempt.ConnectorTransactionID = strPtr("pi_123")
		record.MultipleCaptureData = &domain.MultipleCaptureData{Captures: []domain.Capture{
			{CaptureID: "cap_1", Sequence: 1, Status: domain.CaptureStatusPending, ConnectorCaptureID: strPtr("cc_1")},
			{CaptureID: "cap_2", Sequence: 2, Status: domain.CaptureStatusCharged, ConnectorCaptureID: strPtr("cc_2")},
		}}
		rd, err := BuildSync(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, SyncMultipleCaptures, rd.Request.Mode)
		assert.Equal(t, []string{"cc_1"}, rd.Request.PendingConnectorCaptureIDs)
	})
}

func TestBuildCapture(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an acknowledged transaction", func(t *testing.T) {
		c := testContext(t, "stripe")
		_, err := BuildCapture(ctx, c, testRecord())
		require.Error(t, err)
		assert.True(t, errors.Is(err, payerrors.ErrResourceIDNotFound))
	})

	t.Run("metadata connector resolves id through its capability hook", func(t *testing.T) {
		c := testContext(t, "helcim")
		record := testRecord()
		record.Attempt.Connector = "helcim"
		record.Attempt.ConnectorMetadata = json.RawMessage(`{"preauth_transaction_id":"9001"}`)
		rd, err := BuildCapture(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, "9001", rd.Request.ConnectorTransactionID)
	})

	t.Run("multi-capture computes sequence and latest reference", func(t *testing.T) {
		c := testContext(t, "stripe")
		record := testRecord()
		record.Attempt.ConnectorTransactionID = strPtr("pi_123")
		record.Attempt.AmountToCapture = i64Ptr(400)
		record.MultipleCaptureData = &domain.MultipleCaptureData{Captures: []domain.Capture{
			{CaptureID: "cap_1", Sequence: 1, Status: domain.CaptureStatusCharged, ConnectorCaptureID: strPtr("cc_1")},
		}}
		rd, err := BuildCapture(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, int64(400), rd.Request.AmountToCapture)
		assert.Equal(t, 2, rd.Request.CaptureSequence)
		require.NotNil(t, rd.Request.LatestCaptureID)
		assert.Equal(t, "cc_1", *rd.Request.LatestCaptureID)
	})
}

func TestBuildCancelApproveReject(t *testing.T) {
	ctx := context.Background()
	c := testContext(t, "stripe")
	record := testRecord()
	record.Attempt.ConnectorTransactionID = strPtr("pi_123")
	record.Attempt.CancellationReason = strPtr("requested_by_customer")

	t.Run("cancel carries reason and id", func(t *testing.T) {
		rd, err := BuildCancel(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, "pi_123", rd.Request.ConnectorTransactionID)
		assert.Equal(t, "requested_by_customer", *rd.Request.CancellationReason)
	})
	t.Run("approve is minimal", func(t *testing.T) {
		rd, err := BuildApprove(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), rd.Request.Amount)
		assert.Equal(t, domain.CurrencyUSD, rd.Request.Currency)
	})
	t.Run("reject is minimal", func(t *testing.T) {
		rd, err := BuildReject(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, FlowReject, rd.Flow)
	})
}

func TestBuildCompleteAuthorize(t *testing.T) {
	ctx := context.Background()
	c := testContext(t, "stripe")
	record := testRecord()
	record.Attempt.ConnectorTransactionID = strPtr("pi_123")
	record.RedirectResponse = &domain.RedirectResponse{
		Params:      strPtr("paymentId=abc"),
		JSONPayload: json.RawMessage(`{"status":"ok"}`),
	}

	rd, err := BuildCompleteAuthorize(ctx, c, record, nil)
	require.NoError(t, err)
	require.NotNil(t, rd.Request.RedirectParams)
	assert.Equal(t, "paymentId=abc", *rd.Request.RedirectParams)
	assert.JSONEq(t, `{"status":"ok"}`, string(rd.Request.RedirectPayload))
	require.NotNil(t, rd.Request.ConnectorTransactionID)
	assert.Equal(t, "pi_123", *rd.Request.ConnectorTransactionID)
}

func TestBuildIncrementalAuthorization(t *testing.T) {
	ctx := context.Background()
	c := testContext(t, "stripe")

	t.Run("absent details is an internal contract violation", func(t *testing.T) {
		record := testRecord()
		record.Attempt.ConnectorTransactionID = strPtr("pi_123")
		_, err := BuildIncrementalAuthorization(ctx, c, record)
		require.Error(t, err)
		assert.True(t, errors.Is(err, payerrors.ErrInternal))
	})

	t.Run("carries total and additional amounts", func(t *testing.T) {
		record := testRecord()
		record.Attempt.ConnectorTransactionID = strPtr("pi_123")
		record.IncrementalAuthorizationDetails = &domain.IncrementalAuthorizationDetails{
			TotalAmount: 1500, AdditionalAmount: 500,
		}
		rd, err := BuildIncrementalAuthorization(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), rd.Request.TotalAmount)
		assert.Equal(t, int64(500), rd.Request.AdditionalAmount)
	})
}

func TestBuildSessionUpdate(t *testing.T) {
	ctx := context.Background()
	c := testContext(t, "paypal")

	t.Run("net amount adds order tax", func(t *testing.T) {
		record := testRecord()
		record.SessionID = strPtr("sess_1")
		record.Intent.TaxDetails = &domain.TaxDetails{
			PaymentMethodType: &domain.OrderTaxDetail{OrderTaxAmount: 90},
		}
		rd, err := BuildSessionUpdate(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, int64(90), rd.Request.OrderTaxAmount)
		assert.Equal(t, int64(1090), rd.Request.NetAmount)
	})

	t.Run("missing tax for active method fails", func(t *testing.T) {
		record := testRecord()
		record.SessionID = strPtr("sess_1")
		record.Intent.TaxDetails = &domain.TaxDetails{}
		_, err := BuildSessionUpdate(ctx, c, record)
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "tax_details.payment_method_type", path)
	})

	t.Run("default tax applies when no method-specific entry exists", func(t *testing.T) {
		record := testRecord()
		record.SessionID = strPtr("sess_1")
		record.Intent.TaxDetails = &domain.TaxDetails{Default: &domain.OrderTaxDetail{OrderTaxAmount: 40}}
		rd, err := BuildSessionUpdate(ctx, c, record)
		require.NoError(t, err)
		assert.Equal(t, int64(1040), rd.Request.NetAmount)
	})
}

func TestAPIVersionPinFromConfigStore(t *testing.T) {
	ctx := context.Background()
	account := domain.MerchantConnectorAccount{
		MerchantConnectorID: "mca_2",
		ConnectorName:       "cybersource",
		AuthDetails:         json.RawMessage(`{"auth_type":"SignatureKey","api_key":"k","key1":"m","api_secret":"s"}`),
	}
	configs := storage.NewInMemoryConfigStore(map[string]string{
		"connector_api_version_cybersource": "v2",
	})
	c, err := NewBuilderContext("https://pay.example.com", account, connector.DefaultRegistry(), configs)
	require.NoError(t, err)

	record := testRecord()
	record.Attempt.Connector = "cybersource"
	rd, err := BuildAuthorize(ctx, c, record, nil)
	require.NoError(t, err)
	require.NotNil(t, rd.APIVersion)
	assert.Equal(t, "v2", *rd.APIVersion)

	t.Run("missing pin means connector default", func(t *testing.T) {
		c2, err := NewBuilderContext("https://pay.example.com", account, connector.DefaultRegistry(), storage.NewInMemoryConfigStore(nil))
		require.NoError(t, err)
		rd, err := BuildAuthorize(ctx, c2, record, nil)
		require.NoError(t, err)
		assert.Nil(t, rd.APIVersion)
	})
}

func TestCredsIdentifierExtendsReturnURL(t *testing.T) {
	c := testContext(t, "stripe")
	record := testRecord()
	record.CredsIdentifier = strPtr("creds_7")
	assert.Equal(t,
		"https://pay.example.com/payments/pay_1/m_1/redirect/response/stripe/creds_7",
		c.RouterReturnURL(record))
}
