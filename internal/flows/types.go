// Package flows builds the per-operation request structures a connector
// client consumes, from the canonical payment record plus merchant and
// connector context.
package flows

import (
	"encoding/json"
	"time"

	"github.com/yourorg/payment-router/internal/connector"
	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/payerrors"
)

// Flow names one core payment operation.
type Flow string

const (
	FlowAuthorize                Flow = "Authorize"
	FlowSync                     Flow = "PSync"
	FlowCapture                  Flow = "Capture"
	FlowCancel                   Flow = "Void"
	FlowApprove                  Flow = "Approve"
	FlowReject                   Flow = "Reject"
	FlowSetupMandate             Flow = "SetupMandate"
	FlowCompleteAuthorize        Flow = "CompleteAuthorize"
	FlowPreProcessing            Flow = "PreProcessing"
	FlowIncrementalAuthorization Flow = "IncrementalAuthorization"
	FlowSessionUpdate            Flow = "SessionUpdate"
	FlowSession                  Flow = "Session"
)

// ResponseIDKind discriminates how a connector identified a transaction.
type ResponseIDKind string

const (
	// ResponseIDNone means the connector returned no usable id.
	ResponseIDNone ResponseIDKind = "no_response_id"
	// ResponseIDTransaction is a plain connector transaction id.
	ResponseIDTransaction ResponseIDKind = "connector_transaction_id"
	// ResponseIDEncoded is an opaque encoded blob that stands in for an id
	// on connectors that never expose one directly.
	ResponseIDEncoded ResponseIDKind = "encoded_data"
)

// ResponseID is a connector's identifier for a transaction.
type ResponseID struct {
	Kind  ResponseIDKind `json:"kind"`
	Value string         `json:"value,omitempty"`
}

// NoResponseID is the absent identifier.
func NoResponseID() ResponseID { return ResponseID{Kind: ResponseIDNone} }

// ConnectorTransactionID wraps a plain transaction id.
func ConnectorTransactionID(id string) ResponseID {
	return ResponseID{Kind: ResponseIDTransaction, Value: id}
}

// EncodedData wraps an opaque encoded identifier.
func EncodedData(data string) ResponseID {
	return ResponseID{Kind: ResponseIDEncoded, Value: data}
}

// TransactionID returns the plain connector transaction id, failing with
// ResourceIDNotFound for absent or encoded identifiers.
func (r ResponseID) TransactionID() (string, error) {
	if r.Kind != ResponseIDTransaction {
		return "", payerrors.ErrResourceIDNotFound
	}
	return r.Value, nil
}

// RedirectForm is a connector-provided form the client must submit (or be
// redirected through) to continue authentication.
type RedirectForm struct {
	Endpoint   string            `json:"endpoint"`
	Method     string            `json:"method"`
	FormFields map[string]string `json:"form_fields,omitempty"`
}

// TransactionResponse is the success half of a connector's reply, already
// normalized out of connector-specific shapes.
type TransactionResponse struct {
	ResourceID                      ResponseID      `json:"resource_id"`
	Redirection                     *RedirectForm   `json:"redirection,omitempty"`
	ConnectorMetadata               json.RawMessage `json:"connector_metadata,omitempty"`
	NetworkTransactionID            *string         `json:"network_txn_id,omitempty"`
	ConnectorResponseReferenceID    *string         `json:"connector_response_reference_id,omitempty"`
	MandateReference                *string         `json:"mandate_reference,omitempty"`
	IncrementalAuthorizationAllowed *bool           `json:"incremental_authorization_allowed,omitempty"`
}

// ErrorResponse is the failure half of a connector's reply.
type ErrorResponse struct {
	Code          string                `json:"code"`
	Message       string                `json:"message"`
	Reason        *string               `json:"reason,omitempty"`
	StatusCode    int                   `json:"status_code"`
	AttemptStatus *domain.AttemptStatus `json:"attempt_status,omitempty"`
}

// RouterData is the envelope handed to a connector client: routing identity,
// parsed credentials, the flow-specific request, and after dispatch, the
// normalized response.
type RouterData[Req any] struct {
	Flow       Flow                 `json:"flow"`
	MerchantID string               `json:"merchant_id"`
	PaymentID  string               `json:"payment_id"`
	AttemptID  string               `json:"attempt_id"`
	Connector  string               `json:"connector"`
	Status     domain.AttemptStatus `json:"status"`

	AuthType          connector.AuthType `json:"-"`
	ConnectorMetadata json.RawMessage    `json:"connector_metadata,omitempty"`
	Address           domain.Address     `json:"address"`
	ReturnURL         *string            `json:"return_url,omitempty"`
	TestMode          bool               `json:"test_mode"`

	// APIVersion pins the connector API generation for connectors that run
	// more than one concurrently; nil means the connector default.
	APIVersion *string `json:"api_version,omitempty"`

	Request Req `json:"request"`

	Response      *TransactionResponse `json:"response,omitempty"`
	ErrorResponse *ErrorResponse       `json:"error_response,omitempty"`

	ConnectorHTTPStatusCode *int           `json:"connector_http_status_code,omitempty"`
	ExternalLatency         *time.Duration `json:"external_latency,omitempty"`
}

// OrderDetail is one third-party order line. Every entry on an intent must
// parse; one malformed line fails the whole operation.
type OrderDetail struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Amount      int64   `json:"amount"`
	ProductID   *string `json:"product_id,omitempty"`
	Category    *string `json:"category,omitempty"`
	Brand       *string `json:"brand,omitempty"`
	ProductType *string `json:"product_type,omitempty"`
}
