// Package response assembles the externally visible payments response from
// the canonical record, sub-records and the resolved next action.
package response

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/yourorg/payment-router/internal/crypto"
	"github.com/yourorg/payment-router/internal/currency"
	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/fields"
	"github.com/yourorg/payment-router/internal/flows"
	"github.com/yourorg/payment-router/internal/metrics"
	"github.com/yourorg/payment-router/internal/nextaction"
)

// Response header names for the metadata side channel. They ride next to
// the body, never inside it.
const (
	HeaderConnectorHTTPStatusCode = "connector_http_status_code"
	HeaderPaymentConfirmSource    = "payment_confirm_source"
	HeaderExternalLatency         = "external_latency"
)

// OutputKind discriminates a JSON body from a full-page redirect form.
type OutputKind string

const (
	OutputJSON OutputKind = "json"
	OutputForm OutputKind = "form"
)

// Output is the unified operation result: either a payments response body or
// a redirect form, plus the header side channel.
type Output struct {
	Kind    OutputKind
	Body    *PaymentsResponse
	Form    *flows.RedirectForm
	Headers map[string]string
}

// PaymentsResponse is the canonical externally visible payment view.
type PaymentsResponse struct {
	PaymentID  string              `json:"payment_id"`
	MerchantID string              `json:"merchant_id"`
	Status     domain.IntentStatus `json:"status"`

	Amount int64 `json:"amount"`
	// AmountDisplay is the derived base-unit string; the minor-unit Amount
	// stays canonical.
	AmountDisplay    *string         `json:"amount_display,omitempty"`
	NetAmount        int64           `json:"net_amount"`
	AmountCaptured   *int64          `json:"amount_captured,omitempty"`
	AmountCapturable int64           `json:"amount_capturable"`
	OrderTaxAmount   *int64          `json:"order_tax_amount,omitempty"`
	ShippingCost     *int64          `json:"shipping_cost,omitempty"`
	Currency         domain.Currency `json:"currency"`

	SurchargeDetails *domain.SurchargeDetails `json:"surcharge_details,omitempty"`

	Connector              *string `json:"connector,omitempty"`
	MerchantConnectorID    *string `json:"merchant_connector_id,omitempty"`
	ConnectorTransactionID *string `json:"connector_transaction_id,omitempty"`
	ConnectorReferenceID   *string `json:"connector_reference_id,omitempty"`

	PaymentMethod      domain.PaymentMethod       `json:"payment_method,omitempty"`
	PaymentMethodType  *domain.PaymentMethodType  `json:"payment_method_type,omitempty"`
	CaptureMethod      *domain.CaptureMethod      `json:"capture_method,omitempty"`
	AuthenticationType *domain.AuthenticationType `json:"authentication_type,omitempty"`

	Customer    *domain.CustomerDetailsResponse `json:"customer,omitempty"`
	Description *string                         `json:"description,omitempty"`
	ReturnURL   *string                         `json:"return_url,omitempty"`
	Metadata    json.RawMessage                 `json:"metadata,omitempty"`

	MandateID        *string             `json:"mandate_id,omitempty"`
	SetupFutureUsage *domain.FutureUsage `json:"setup_future_usage,omitempty"`
	OffSession       *bool               `json:"off_session,omitempty"`

	NextAction *nextaction.NextAction `json:"next_action,omitempty"`

	Charges *ChargesResponse `json:"charges,omitempty"`

	ErrorCode      *string `json:"error_code,omitempty"`
	ErrorMessage   *string `json:"error_message,omitempty"`
	UnifiedCode    *string `json:"unified_code,omitempty"`
	UnifiedMessage *string `json:"unified_message,omitempty"`

	Refunds        []domain.Refund                   `json:"refunds,omitempty"`
	Disputes       []domain.Dispute                  `json:"disputes,omitempty"`
	Attempts       []domain.PaymentAttempt           `json:"attempts,omitempty"`
	Captures       []domain.Capture                  `json:"captures,omitempty"`
	Authorizations []domain.IncrementalAuthorization `json:"incremental_authorizations,omitempty"`

	ExternalAuthenticationDetails *domain.ExternalAuthentication `json:"external_authentication_details,omitempty"`

	AttemptCount                    int     `json:"attempt_count"`
	ManualRetryAllowed              *bool   `json:"manual_retry_allowed,omitempty"`
	IncrementalAuthorizationAllowed *bool   `json:"incremental_authorization_allowed,omitempty"`
	AuthorizationCount              *int    `json:"authorization_count,omitempty"`
	MerchantOrderReferenceID        *string `json:"merchant_order_reference_id,omitempty"`
	FingerprintID                   *string `json:"fingerprint_id,omitempty"`
}

// Unifier builds Outputs. It owns no state beyond its collaborators and is
// safe for concurrent use.
type Unifier struct {
	enc      crypto.EncryptionService
	resolver *nextaction.Resolver
	logger   *zap.Logger
}

// NewUnifier assembles a Unifier.
func NewUnifier(enc crypto.EncryptionService, resolver *nextaction.Resolver, logger *zap.Logger) *Unifier {
	if enc == nil {
		panic("response: nil encryption service")
	}
	if resolver == nil {
		panic("response: nil next action resolver")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Unifier{enc: enc, resolver: resolver, logger: logger}
}

// Input is everything one unification run consumes. The record and its
// sub-records are read-only; Generate never mutates them.
type Input struct {
	Operation    nextaction.Operation
	Record       *domain.PaymentRecord
	LiveCustomer *domain.Customer

	ConnectorHTTPStatusCode *int
	ExternalLatency         *time.Duration
}

// Generate produces the unified output for one operation. A start-pay
// operation with stored authentication data short-circuits into a full-page
// redirect form before any body construction.
func (u *Unifier) Generate(ctx context.Context, in Input) (*Output, error) {
	ctx, span := otel.Tracer("response").Start(ctx, "generate_response")
	defer span.End()

	record := in.Record
	headers := u.headers(in)

	if in.Operation == nextaction.OperationStartPay && len(record.Attempt.AuthenticationData) > 0 {
		form, err := fields.ParseStruct[flows.RedirectForm](record.Attempt.AuthenticationData, "RedirectForm")
		if err != nil {
			return nil, err
		}
		u.count(in)
		return &Output{Kind: OutputForm, Form: &form, Headers: headers}, nil
	}

	action, err := u.resolver.Resolve(in.Operation, record)
	if err != nil {
		return nil, err
	}
	charges, err := chargesResponse(record.Intent)
	if err != nil {
		return nil, err
	}

	body := u.body(ctx, in)
	body.NextAction = action
	body.Charges = charges

	u.count(in)
	return &Output{Kind: OutputJSON, Body: body, Headers: headers}, nil
}

func (u *Unifier) headers(in Input) map[string]string {
	headers := map[string]string{}
	if in.ConnectorHTTPStatusCode != nil {
		headers[HeaderConnectorHTTPStatusCode] = strconv.Itoa(*in.ConnectorHTTPStatusCode)
	}
	if src := in.Record.Intent.PaymentConfirmSource; src != nil {
		headers[HeaderPaymentConfirmSource] = *src
	}
	if in.ExternalLatency != nil {
		headers[HeaderExternalLatency] = strconv.FormatInt(in.ExternalLatency.Milliseconds(), 10)
		if in.Record.Attempt.Connector != "" {
			metrics.ConnectorLatency.WithLabelValues(in.Record.Attempt.Connector).Observe(in.ExternalLatency.Seconds())
		}
	}
	return headers
}

func (u *Unifier) count(in Input) {
	metrics.PaymentOps.WithLabelValues(
		string(in.Operation),
		in.Record.Intent.MerchantID,
		string(in.Record.Attempt.PaymentMethod),
	).Inc()
}

// resolveCustomer applies the precedence: live record, overlaid by the
// intent's encrypted snapshot when it decrypts and parses. A broken
// historical snapshot degrades to the live record and is logged, never
// surfaced to the caller.
func (u *Unifier) resolveCustomer(ctx context.Context, in Input) *domain.CustomerDetailsResponse {
	record := in.Record
	var snapshot *domain.CustomerSnapshot
	if len(record.Intent.CustomerDetails) > 0 {
		plaintext, err := u.enc.Decrypt(ctx, record.Intent.CustomerDetails)
		if err != nil {
			u.logger.Warn("customer snapshot decrypt failed, serving live record only",
				zap.String("payment_id", record.Intent.PaymentID),
				zap.Error(err))
		} else {
			var snap domain.CustomerSnapshot
			if err := json.Unmarshal(plaintext, &snap); err != nil {
				u.logger.Warn("customer snapshot unparsable, serving live record only",
					zap.String("payment_id", record.Intent.PaymentID),
					zap.Error(err))
			} else {
				snapshot = &snap
			}
		}
	}
	return domain.OverlaySnapshot(in.LiveCustomer, snapshot)
}

// manualRetryAllowed reports whether the merchant may retry the payment
// manually: only a failed intent whose last attempt failed qualifies.
func manualRetryAllowed(record *domain.PaymentRecord) *bool {
	if record.Intent.Status != domain.IntentStatusFailed {
		return nil
	}
	allowed := false
	switch record.Attempt.Status {
	case domain.AttemptStatusAuthorizationFailed, domain.AttemptStatusCaptureFailed, domain.AttemptStatusFailure:
		allowed = true
	}
	return &allowed
}

// orderTaxAmount surfaces the applied tax when tax details exist; its
// absence here is fine, unlike in the session-update builder.
func orderTaxAmount(intent domain.PaymentIntent) *int64 {
	td := intent.TaxDetails
	if td == nil {
		return nil
	}
	if td.PaymentMethodType != nil {
		return &td.PaymentMethodType.OrderTaxAmount
	}
	if td.Default != nil {
		return &td.Default.OrderTaxAmount
	}
	return nil
}

// ChargesResponse is the split-payment fee routing echoed back to the
// merchant.
type ChargesResponse struct {
	ChargeID          *string `json:"charge_id,omitempty"`
	ChargeType        string  `json:"charge_type"`
	ApplicationFee    int64   `json:"application_fees"`
	TransferAccountID string  `json:"transfer_account_id"`
}

// chargesResponse parses the intent's charge blob. Unlike the heuristic
// metadata probes this parse is strict: a present-but-unreadable charge
// record would misreport fee routing.
func chargesResponse(intent domain.PaymentIntent) (*ChargesResponse, error) {
	if len(intent.Charges) == 0 {
		return nil, nil
	}
	charges, err := fields.ParseStruct[ChargesResponse](intent.Charges, "PaymentCharges")
	if err != nil {
		return nil, err
	}
	return &charges, nil
}

// displayAmount renders the intent amount in base units for human consumption.
// Amounts outside the convertible range simply omit the display string.
func displayAmount(intent domain.PaymentIntent) *string {
	s, err := currency.ToBaseUnit(intent.Amount, intent.Currency)
	if err != nil {
		return nil
	}
	return &s
}

func (u *Unifier) body(ctx context.Context, in Input) *PaymentsResponse {
	record := in.Record
	intent := record.Intent
	attempt := record.Attempt

	netAmount := record.EffectiveAmount()
	if tax := orderTaxAmount(intent); tax != nil {
		netAmount += *tax
	}

	var connectorName *string
	if attempt.Connector != "" {
		connectorName = &attempt.Connector
	}

	var captures []domain.Capture
	if record.MultipleCaptureData != nil && record.MultipleCaptureData.ExpandCaptures {
		captures = record.MultipleCaptureData.Captures
	}

	return &PaymentsResponse{
		PaymentID:  intent.PaymentID,
		MerchantID: intent.MerchantID,
		Status:     intent.Status,

		Amount:           intent.Amount,
		AmountDisplay:    displayAmount(intent),
		NetAmount:        netAmount,
		AmountCaptured:   intent.AmountCaptured,
		AmountCapturable: attempt.AmountCapturable,
		OrderTaxAmount:   orderTaxAmount(intent),
		ShippingCost:     intent.ShippingCost,
		Currency:         intent.Currency,
		SurchargeDetails: record.SurchargeDetails,

		Connector:              connectorName,
		MerchantConnectorID:    attempt.MerchantConnectorID,
		ConnectorTransactionID: attempt.ConnectorTransactionID,
		ConnectorReferenceID:   attempt.ConnectorResponseReferenceID,

		PaymentMethod:      attempt.PaymentMethod,
		PaymentMethodType:  attempt.PaymentMethodType,
		CaptureMethod:      attempt.CaptureMethod,
		AuthenticationType: attempt.AuthenticationType,

		Customer:    u.resolveCustomer(ctx, in),
		Description: intent.Description,
		ReturnURL:   intent.ReturnURL,
		Metadata:    intent.Metadata,

		MandateID:        record.MandateID,
		SetupFutureUsage: intent.SetupFutureUsage,
		OffSession:       intent.OffSession,

		ErrorCode:      attempt.ErrorCode,
		ErrorMessage:   attempt.ErrorMessage,
		UnifiedCode:    attempt.UnifiedCode,
		UnifiedMessage: attempt.UnifiedMessage,

		Refunds:        record.Refunds,
		Disputes:       record.Disputes,
		Attempts:       record.Attempts,
		Captures:       captures,
		Authorizations: record.Authorizations,

		ExternalAuthenticationDetails: record.Authentication,

		AttemptCount:                    intent.AttemptCount,
		ManualRetryAllowed:              manualRetryAllowed(record),
		IncrementalAuthorizationAllowed: intent.IncrementalAuthorizationAllowed,
		AuthorizationCount:              intent.AuthorizationCount,
		MerchantOrderReferenceID:        intent.MerchantOrderReferenceID,
		FingerprintID:                   intent.FingerprintID,
	}
}
