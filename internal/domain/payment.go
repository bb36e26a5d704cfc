package domain

import (
	"encoding/json"
	"time"
)

// OrderTaxDetail is the order-level tax computed for one payment-method type
// or as the intent-wide default.
type OrderTaxDetail struct {
	PaymentMethodType *PaymentMethodType `json:"pmt,omitempty"`
	OrderTaxAmount    int64              `json:"order_tax_amount"`
}

// TaxDetails holds the tax amounts attached to an intent by a tax-calculation
// session. PaymentMethodType carries the amount for the active method;
// Default applies when no method-specific amount exists.
type TaxDetails struct {
	PaymentMethodType *OrderTaxDetail `json:"payment_method_type,omitempty"`
	Default           *OrderTaxDetail `json:"default,omitempty"`
}

// SurchargeDetails is the surcharge applied to an attempt. FinalAmount is the
// surcharge-adjusted total in minor units and takes precedence over the
// intent amount wherever a builder computes an effective amount.
type SurchargeDetails struct {
	SurchargeAmount int64  `json:"surcharge_amount"`
	TaxAmount       *int64 `json:"tax_amount,omitempty"`
	FinalAmount     int64  `json:"final_amount"`
}

// PaymentIntent is the merchant-visible, connector-agnostic order. Amounts
// are integer minor units. Once the status is terminal the record is only
// extended with refund/dispute linkage, never mutated.
type PaymentIntent struct {
	PaymentID    string       `json:"payment_id"`
	MerchantID   string       `json:"merchant_id"`
	Status       IntentStatus `json:"status"`
	Amount       int64        `json:"amount"`
	Currency     Currency     `json:"currency"`
	Description  *string      `json:"description,omitempty"`
	ReturnURL    *string      `json:"return_url,omitempty"`
	ClientSecret *string      `json:"client_secret,omitempty"`

	AmountCaptured *int64      `json:"amount_captured,omitempty"`
	ShippingCost   *int64      `json:"shipping_cost,omitempty"`
	TaxDetails     *TaxDetails `json:"tax_details,omitempty"`

	// CustomerDetails is the encrypted customer snapshot captured at intent
	// creation. Decryption failures degrade the response to the live
	// customer record; they never fail unification.
	CustomerDetails []byte  `json:"customer_details,omitempty"`
	CustomerID      *string `json:"customer_id,omitempty"`

	Metadata          json.RawMessage   `json:"metadata,omitempty"`
	ConnectorMetadata json.RawMessage   `json:"connector_metadata,omitempty"`
	FeatureMetadata   json.RawMessage   `json:"feature_metadata,omitempty"`
	OrderDetails      []json.RawMessage `json:"order_details,omitempty"`
	// Charges is the split-payment charge blob recorded at confirm time;
	// when present it must parse, since fee routing depends on it.
	Charges json.RawMessage `json:"charges,omitempty"`

	SetupFutureUsage          *FutureUsage `json:"setup_future_usage,omitempty"`
	OffSession                *bool        `json:"off_session,omitempty"`
	StatementDescriptorName   *string      `json:"statement_descriptor_name,omitempty"`
	StatementDescriptorSuffix *string      `json:"statement_descriptor_suffix,omitempty"`

	RequestIncrementalAuthorization bool   `json:"request_incremental_authorization,omitempty"`
	IncrementalAuthorizationAllowed *bool  `json:"incremental_authorization_allowed,omitempty"`
	AuthorizationCount              *int   `json:"authorization_count,omitempty"`
	AttemptCount                    int    `json:"attempt_count"`
	ProfileID                       string `json:"profile_id,omitempty"`

	BusinessCountry *string `json:"business_country,omitempty"`
	BusinessLabel   *string `json:"business_label,omitempty"`

	PaymentConfirmSource     *string    `json:"payment_confirm_source,omitempty"`
	MerchantOrderReferenceID *string    `json:"merchant_order_reference_id,omitempty"`
	FingerprintID            *string    `json:"fingerprint_id,omitempty"`
	SessionExpiry            *time.Time `json:"session_expiry,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	ModifiedAt               time.Time  `json:"modified_at"`
}

// PaymentAttempt is one connector-routed execution attempt against an
// intent. ConnectorTransactionID stays nil until the connector acknowledges
// the attempt.
type PaymentAttempt struct {
	AttemptID  string        `json:"attempt_id"`
	PaymentID  string        `json:"payment_id"`
	MerchantID string        `json:"merchant_id"`
	Status     AttemptStatus `json:"status"`
	Amount     int64         `json:"amount"`
	Currency   Currency      `json:"currency"`

	Connector              string  `json:"connector,omitempty"`
	MerchantConnectorID    *string `json:"merchant_connector_id,omitempty"`
	ConnectorTransactionID *string `json:"connector_transaction_id,omitempty"`

	PaymentMethod     PaymentMethod      `json:"payment_method,omitempty"`
	PaymentMethodType *PaymentMethodType `json:"payment_method_type,omitempty"`
	PaymentMethodID   *string            `json:"payment_method_id,omitempty"`
	PaymentToken      *string            `json:"payment_token,omitempty"`
	PaymentExperience *string            `json:"payment_experience,omitempty"`

	CaptureMethod      *CaptureMethod      `json:"capture_method,omitempty"`
	AuthenticationType *AuthenticationType `json:"authentication_type,omitempty"`
	Confirm            bool                `json:"confirm"`

	// AuthenticationData holds the redirect form produced by the connector
	// for 3-D Secure style flows; parsed only when a redirect is emitted.
	AuthenticationData json.RawMessage `json:"authentication_data,omitempty"`

	// BrowserInfo and ConnectorMetadata are connector-opaque structured
	// blobs. BrowserInfo is parsed strictly at builder time;
	// ConnectorMetadata sub-structures are heuristic and parsed leniently.
	BrowserInfo       json.RawMessage `json:"browser_info,omitempty"`
	ConnectorMetadata json.RawMessage `json:"connector_metadata,omitempty"`
	EncodedData       *string         `json:"encoded_data,omitempty"`

	AmountToCapture    *int64  `json:"amount_to_capture,omitempty"`
	SurchargeAmount    *int64  `json:"surcharge_amount,omitempty"`
	TaxAmount          *int64  `json:"tax_amount,omitempty"`
	NetAmount          *int64  `json:"net_amount,omitempty"`
	AmountCapturable   int64   `json:"amount_capturable"`
	OrderTaxAmount     *int64  `json:"order_tax_amount,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	MandateID          *string `json:"mandate_id,omitempty"`

	ErrorCode      *string `json:"error_code,omitempty"`
	ErrorMessage   *string `json:"error_message,omitempty"`
	ErrorReason    *string `json:"error_reason,omitempty"`
	UnifiedCode    *string `json:"unified_code,omitempty"`
	UnifiedMessage *string `json:"unified_message,omitempty"`

	PreprocessingStepID          *string `json:"preprocessing_step_id,omitempty"`
	ConnectorResponseReferenceID *string `json:"connector_response_reference_id,omitempty"`
	BusinessSubLabel             *string `json:"business_sub_label,omitempty"`

	ExternalThreeDSAuthenticationAttempted *bool `json:"external_3ds_authentication_attempted,omitempty"`
}

// Capture is one (possibly partial) capture attempt. Sequence orders the
// captures of an attempt in multi-capture mode.
type Capture struct {
	CaptureID          string        `json:"capture_id"`
	AttemptID          string        `json:"attempt_id"`
	Status             CaptureStatus `json:"status"`
	Amount             int64         `json:"amount"`
	Currency           Currency      `json:"currency"`
	Sequence           int           `json:"capture_sequence"`
	ConnectorCaptureID *string       `json:"connector_capture_id,omitempty"`
	ErrorCode          *string       `json:"error_code,omitempty"`
	ErrorMessage       *string       `json:"error_message,omitempty"`
	ErrorReason        *string       `json:"error_reason,omitempty"`
}

// Refund is the response-facing view of one refund against an intent.
type Refund struct {
	RefundID          string    `json:"refund_id"`
	PaymentID         string    `json:"payment_id"`
	Amount            int64     `json:"amount"`
	Currency          Currency  `json:"currency"`
	Status            string    `json:"status"`
	Reason            *string   `json:"reason,omitempty"`
	ConnectorRefundID *string   `json:"connector_refund_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Dispute is the response-facing view of one dispute against an intent.
type Dispute struct {
	DisputeID          string    `json:"dispute_id"`
	PaymentID          string    `json:"payment_id"`
	Amount             int64     `json:"amount"`
	Currency           Currency  `json:"currency"`
	Stage              string    `json:"dispute_stage"`
	Status             string    `json:"dispute_status"`
	ConnectorDisputeID *string   `json:"connector_dispute_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// IncrementalAuthorization is one granted or attempted authorization bump.
type IncrementalAuthorization struct {
	AuthorizationID string   `json:"authorization_id"`
	PaymentID       string   `json:"payment_id"`
	Amount          int64    `json:"amount"`
	Currency        Currency `json:"currency"`
	Status          string   `json:"status"`
	ErrorCode       *string  `json:"error_code,omitempty"`
	ErrorMessage    *string  `json:"error_message,omitempty"`
}

// IncrementalAuthorizationDetails is the pending bump a builder turns into a
// connector request. Its absence on an incremental-authorization operation is
// a programming-contract violation.
type IncrementalAuthorizationDetails struct {
	TotalAmount      int64   `json:"total_amount"`
	AdditionalAmount int64   `json:"additional_amount"`
	Reason           *string `json:"reason,omitempty"`
}

// ExternalAuthentication is the 3-D Secure authentication record attached to
// an attempt when a separate authentication provider is in use. A set CAVV
// means the challenge already completed.
type ExternalAuthentication struct {
	AuthenticationID        string  `json:"authentication_id"`
	CAVV                    *string `json:"cavv,omitempty"`
	ThreeDSMethodURL        *string `json:"three_ds_method_url,omitempty"`
	ThreeDSMethodData       *string `json:"three_ds_method_data,omitempty"`
	MessageVersion          *string `json:"message_version,omitempty"`
	DirectoryServerID       *string `json:"directory_server_id,omitempty"`
	AuthenticationConnector *string `json:"authentication_connector,omitempty"`
	Status                  string  `json:"status,omitempty"`
}

// SeparateAuthenticationRequired reports whether a pre-authentication step
// through a separate authentication provider is still required.
func (a *ExternalAuthentication) SeparateAuthenticationRequired() bool {
	return a != nil && a.AuthenticationConnector != nil
}

// PollConfig controls how a client polls for an external 3-D Secure result.
type PollConfig struct {
	DelayInSecs int `json:"delay_in_secs"`
	Frequency   int `json:"frequency"`
}

// DefaultPollConfig is used when no merchant override exists.
func DefaultPollConfig() PollConfig {
	return PollConfig{DelayInSecs: 2, Frequency: 5}
}

// MerchantConnectorAccount is the merchant's configuration of one connector:
// auth material, opaque metadata forwarded on every request, and flags.
type MerchantConnectorAccount struct {
	MerchantConnectorID string          `json:"merchant_connector_id"`
	ConnectorName       string          `json:"connector_name"`
	Disabled            bool            `json:"disabled"`
	TestMode            bool            `json:"test_mode"`
	AuthDetails         json.RawMessage `json:"connector_account_details"`
	Metadata            json.RawMessage `json:"metadata,omitempty"`
}

// MultipleCaptureData tracks the partial captures of an attempt in
// multi-capture mode. Captures are kept sequence-ordered.
type MultipleCaptureData struct {
	Captures       []Capture `json:"captures"`
	ExpandCaptures bool      `json:"expand_captures,omitempty"`
}

// CapturesCount is the number of captures issued so far, which doubles as
// the sequence number of the next capture.
func (m *MultipleCaptureData) CapturesCount() int {
	return len(m.Captures)
}

// LatestCapture returns the highest-sequence capture, or nil when none exist.
func (m *MultipleCaptureData) LatestCapture() *Capture {
	if len(m.Captures) == 0 {
		return nil
	}
	latest := &m.Captures[0]
	for i := range m.Captures {
		if m.Captures[i].Sequence > latest.Sequence {
			latest = &m.Captures[i]
		}
	}
	return latest
}

// PendingConnectorCaptureIDs lists the connector capture ids still awaiting
// a terminal state, for multi-capture sync requests.
func (m *MultipleCaptureData) PendingConnectorCaptureIDs() []string {
	var ids []string
	for _, c := range m.Captures {
		if c.Status == CaptureStatusPending && c.ConnectorCaptureID != nil {
			ids = append(ids, *c.ConnectorCaptureID)
		}
	}
	return ids
}

// RedirectResponse carries the query parameters and JSON payload returned by
// a connector redirect, consumed by the complete-authorize builder.
type RedirectResponse struct {
	Params      *string         `json:"params,omitempty"`
	JSONPayload json.RawMessage `json:"json_payload,omitempty"`
}

// PaymentRecord is the canonical payment record a single operation works on:
// the intent, its active attempt, and the sub-records the operation needs.
// Builders treat the record as read-only; derived state is returned as new
// request values.
type PaymentRecord struct {
	Intent  PaymentIntent  `json:"intent"`
	Attempt PaymentAttempt `json:"attempt"`
	Address Address        `json:"address"`

	PaymentMethodData  *PaymentMethodData `json:"payment_method_data,omitempty"`
	MandateID          *string            `json:"mandate_id,omitempty"`
	SetupMandate       *MandateData       `json:"setup_mandate,omitempty"`
	CustomerAcceptance json.RawMessage    `json:"customer_acceptance,omitempty"`
	Email              *string            `json:"email,omitempty"`

	SurchargeDetails                *SurchargeDetails                `json:"surcharge_details,omitempty"`
	MultipleCaptureData             *MultipleCaptureData             `json:"multiple_capture_data,omitempty"`
	IncrementalAuthorizationDetails *IncrementalAuthorizationDetails `json:"incremental_authorization_details,omitempty"`
	RedirectResponse                *RedirectResponse                `json:"redirect_response,omitempty"`

	Refunds        []Refund                   `json:"refunds,omitempty"`
	Disputes       []Dispute                  `json:"disputes,omitempty"`
	Attempts       []PaymentAttempt           `json:"attempts,omitempty"`
	Authorizations []IncrementalAuthorization `json:"authorizations,omitempty"`
	Authentication *ExternalAuthentication    `json:"authentication,omitempty"`

	SessionTokens []json.RawMessage `json:"session_tokens,omitempty"`
	SessionID     *string           `json:"session_id,omitempty"`
	PollConfig    *PollConfig       `json:"poll_config,omitempty"`

	// CredsIdentifier distinguishes merchant-supplied connector credentials
	// from platform ones in derived redirect URLs.
	CredsIdentifier *string `json:"creds_identifier,omitempty"`
}

// MandateData is a customer's standing authorization for future charges.
type MandateData struct {
	CustomerAcceptance *CustomerAcceptance `json:"customer_acceptance,omitempty"`
	SingleUse          *MandateAmountData  `json:"single_use,omitempty"`
	MultiUse           *MandateAmountData  `json:"multi_use,omitempty"`
	UpdateMandateID    *string             `json:"update_mandate_id,omitempty"`
}

// CustomerAcceptance records how the customer accepted a mandate.
type CustomerAcceptance struct {
	AcceptanceType string     `json:"acceptance_type"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	IPAddress      *string    `json:"ip_address,omitempty"`
	UserAgent      *string    `json:"user_agent,omitempty"`
}

// MandateAmountData bounds the amount and validity window of a mandate.
type MandateAmountData struct {
	Amount    int64      `json:"amount"`
	Currency  Currency   `json:"currency"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// EffectiveAmount is the amount a request builder should charge: the
// surcharge-adjusted final amount when surcharge details exist, the intent
// amount otherwise.
func (r *PaymentRecord) EffectiveAmount() int64 {
	if r.SurchargeDetails != nil {
		return r.SurchargeDetails.FinalAmount
	}
	return r.Intent.Amount
}
