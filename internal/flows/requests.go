package flows

import (
	"encoding/json"

	"github.com/yourorg/payment-router/internal/card"
	"github.com/yourorg/payment-router/internal/domain"
)

// AuthorizeRequest asks the connector to authorize (and, under automatic
// capture, settle) a payment.
type AuthorizeRequest struct {
	PaymentMethodData domain.PaymentMethodData `json:"payment_method_data"`
	Amount            int64                    `json:"amount"`
	Currency          domain.Currency          `json:"currency"`
	Confirm           bool                     `json:"confirm"`
	BillingCountry    string                   `json:"billing_country"`
	// CardIssuer is the network classified from the card number; unknown
	// BIN ranges leave it unset.
	CardIssuer *card.Issuer `json:"card_issuer,omitempty"`
	// CardExpiry is the normalized MM/YY expiry; card payments with an
	// out-of-range month fail the build.
	CardExpiry *string `json:"card_expiry,omitempty"`

	CaptureMethod      *domain.CaptureMethod      `json:"capture_method,omitempty"`
	AuthenticationType *domain.AuthenticationType `json:"authentication_type,omitempty"`
	SetupFutureUsage   *domain.FutureUsage        `json:"setup_future_usage,omitempty"`
	OffSession         *bool                      `json:"off_session,omitempty"`
	MandateID          *string                    `json:"mandate_id,omitempty"`
	SetupMandate       *domain.MandateData        `json:"setup_mandate_details,omitempty"`

	BrowserInfo  *domain.BrowserInformation `json:"browser_info,omitempty"`
	OrderDetails []OrderDetail              `json:"order_details,omitempty"`
	// OrderCategory is a connector-metadata hint; absence or malformed
	// metadata leaves it empty.
	OrderCategory *string `json:"order_category,omitempty"`

	Email        *string `json:"email,omitempty"`
	CustomerName *string `json:"customer_name,omitempty"`
	CustomerID   *string `json:"customer_id,omitempty"`

	StatementDescriptor       *string `json:"statement_descriptor,omitempty"`
	StatementDescriptorSuffix *string `json:"statement_descriptor_suffix,omitempty"`

	RouterReturnURL        string  `json:"router_return_url"`
	WebhookURL             string  `json:"webhook_url"`
	CompleteAuthorizeURL   string  `json:"complete_authorize_url"`
	MerchantOrderReference *string `json:"merchant_order_reference_id,omitempty"`

	SurchargeDetails                *domain.SurchargeDetails `json:"surcharge_details,omitempty"`
	RequestIncrementalAuthorization bool                     `json:"request_incremental_authorization"`
	Metadata                        json.RawMessage          `json:"metadata,omitempty"`
	ShippingCost                    *int64                   `json:"shipping_cost,omitempty"`
}

// SyncMode selects single- versus multiple-capture reconciliation.
type SyncMode string

const (
	SyncSingle           SyncMode = "single"
	SyncMultipleCaptures SyncMode = "multiple_captures"
)

// SyncRequest asks the connector for the current state of a transaction.
type SyncRequest struct {
	ResourceID  ResponseID `json:"resource_id"`
	EncodedData *string    `json:"encoded_data,omitempty"`
	Mode        SyncMode   `json:"mode"`
	// PendingConnectorCaptureIDs lists the captures still awaiting a
	// terminal state; populated only in multiple-capture mode.
	PendingConnectorCaptureIDs []string `json:"pending_connector_capture_ids,omitempty"`

	Amount        int64                 `json:"amount"`
	Currency      domain.Currency       `json:"currency"`
	MandateID     *string               `json:"mandate_id,omitempty"`
	CaptureMethod *domain.CaptureMethod `json:"capture_method,omitempty"`
	PaymentMethod domain.PaymentMethod  `json:"payment_method,omitempty"`
}

// CaptureRequest settles a previously authorized amount.
type CaptureRequest struct {
	ConnectorTransactionID string          `json:"connector_transaction_id"`
	AmountToCapture        int64           `json:"amount_to_capture"`
	PaymentAmount          int64           `json:"payment_amount"`
	Currency               domain.Currency `json:"currency"`

	// CaptureSequence and LatestCaptureID drive multi-capture connectors;
	// both are zero-valued in single-capture mode.
	CaptureSequence int     `json:"capture_sequence,omitempty"`
	LatestCaptureID *string `json:"latest_capture_id,omitempty"`

	ConnectorMetadata json.RawMessage `json:"connector_metadata,omitempty"`
	MultipleCaptureID *string         `json:"multiple_capture_id,omitempty"`
}

// CancelRequest voids an uncaptured authorization.
type CancelRequest struct {
	ConnectorTransactionID string          `json:"connector_transaction_id"`
	Amount                 int64           `json:"amount"`
	Currency               domain.Currency `json:"currency"`
	CancellationReason     *string         `json:"cancellation_reason,omitempty"`
}

// ApproveRequest releases a payment held for merchant review.
type ApproveRequest struct {
	Amount   int64           `json:"amount"`
	Currency domain.Currency `json:"currency"`
}

// RejectRequest declines a payment held for merchant review.
type RejectRequest struct {
	Amount   int64           `json:"amount"`
	Currency domain.Currency `json:"currency"`
}

// SetupMandateRequest registers a zero-amount mandate with the connector.
type SetupMandateRequest struct {
	PaymentMethodData domain.PaymentMethodData `json:"payment_method_data"`
	Currency          domain.Currency          `json:"currency"`
	Confirm           bool                     `json:"confirm"`

	CustomerAcceptance json.RawMessage     `json:"customer_acceptance,omitempty"`
	MandateID          *string             `json:"mandate_id,omitempty"`
	SetupFutureUsage   *domain.FutureUsage `json:"setup_future_usage,omitempty"`
	OffSession         *bool               `json:"off_session,omitempty"`
	SetupMandate       *domain.MandateData `json:"setup_mandate_details,omitempty"`

	BrowserInfo *domain.BrowserInformation `json:"browser_info,omitempty"`
	Email       *string                    `json:"email,omitempty"`
	CustomerID  *string                    `json:"customer_id,omitempty"`

	RouterReturnURL      string `json:"router_return_url"`
	WebhookURL           string `json:"webhook_url"`
	CompleteAuthorizeURL string `json:"complete_authorize_url"`

	StatementDescriptor *string `json:"statement_descriptor,omitempty"`
}

// CompleteAuthorizeRequest resumes an authorization after the customer
// returns from an off-site redirect.
type CompleteAuthorizeRequest struct {
	Amount   int64           `json:"amount"`
	Currency domain.Currency `json:"currency"`

	PaymentMethodData      *domain.PaymentMethodData  `json:"payment_method_data,omitempty"`
	BrowserInfo            *domain.BrowserInformation `json:"browser_info,omitempty"`
	ConnectorTransactionID *string                    `json:"connector_transaction_id,omitempty"`

	RedirectParams       *string         `json:"redirect_params,omitempty"`
	RedirectPayload      json.RawMessage `json:"redirect_payload,omitempty"`
	ConnectorMetadata    json.RawMessage `json:"connector_metadata,omitempty"`
	CompleteAuthorizeURL string          `json:"complete_authorize_url"`

	Email            *string               `json:"email,omitempty"`
	SetupFutureUsage *domain.FutureUsage   `json:"setup_future_usage,omitempty"`
	OffSession       *bool                 `json:"off_session,omitempty"`
	MandateID        *string               `json:"mandate_id,omitempty"`
	CaptureMethod    *domain.CaptureMethod `json:"capture_method,omitempty"`
}

// PreProcessingRequest runs a connector's pre-authorization step (session
// creation, enrollment checks) before the main authorize call.
type PreProcessingRequest struct {
	Amount   *int64           `json:"amount,omitempty"`
	Currency *domain.Currency `json:"currency,omitempty"`

	PaymentMethodData *domain.PaymentMethodData  `json:"payment_method_data,omitempty"`
	PaymentMethodType *domain.PaymentMethodType  `json:"payment_method_type,omitempty"`
	BrowserInfo       *domain.BrowserInformation `json:"browser_info,omitempty"`
	OrderDetails      []OrderDetail              `json:"order_details,omitempty"`
	Email             *string                    `json:"email,omitempty"`

	ConnectorTransactionID *string         `json:"connector_transaction_id,omitempty"`
	RedirectParams         *string         `json:"redirect_params,omitempty"`
	RedirectPayload        json.RawMessage `json:"redirect_payload,omitempty"`
	ConnectorMetadata      json.RawMessage `json:"connector_metadata,omitempty"`

	RouterReturnURL      string                   `json:"router_return_url"`
	WebhookURL           string                   `json:"webhook_url"`
	CompleteAuthorizeURL string                   `json:"complete_authorize_url"`
	SurchargeDetails     *domain.SurchargeDetails `json:"surcharge_details,omitempty"`
	MandateID            *string                  `json:"mandate_id,omitempty"`
	CaptureMethod        *domain.CaptureMethod    `json:"capture_method,omitempty"`
	SetupMandate         *domain.MandateData      `json:"setup_mandate_details,omitempty"`
}

// IncrementalAuthorizationRequest raises the authorized amount of an open
// authorization.
type IncrementalAuthorizationRequest struct {
	ConnectorTransactionID string          `json:"connector_transaction_id"`
	TotalAmount            int64           `json:"total_amount"`
	AdditionalAmount       int64           `json:"additional_amount"`
	Currency               domain.Currency `json:"currency"`
	Reason                 *string         `json:"reason,omitempty"`
}

// SessionUpdateRequest pushes a recomputed order total (amount plus order
// tax) into an open connector session.
type SessionUpdateRequest struct {
	Amount         int64           `json:"amount"`
	OrderTaxAmount int64           `json:"order_tax_amount"`
	NetAmount      int64           `json:"net_amount"`
	Currency       domain.Currency `json:"currency"`
	SessionID      string          `json:"session_id"`
}

// SessionRequest creates a wallet or SDK session token at the connector.
type SessionRequest struct {
	Amount   int64           `json:"amount"`
	Currency domain.Currency `json:"currency"`

	CountryCode  *string       `json:"country_code,omitempty"`
	OrderDetails []OrderDetail `json:"order_details,omitempty"`
	Email        *string       `json:"email,omitempty"`

	SurchargeDetails *domain.SurchargeDetails `json:"surcharge_details,omitempty"`
}
