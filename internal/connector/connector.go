// Package connector models the gateway's view of a payment processor
// integration: its identity, auth material shape, and the per-connector
// capabilities request builders need.
package connector

import (
	"encoding/json"
	"fmt"

	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/payerrors"
)

// AuthKind discriminates the credential shapes connectors accept.
type AuthKind string

const (
	AuthHeaderKey    AuthKind = "HeaderKey"
	AuthBodyKey      AuthKind = "BodyKey"
	AuthSignatureKey AuthKind = "SignatureKey"
	AuthMultiAuthKey AuthKind = "MultiAuthKey"
	AuthNoKey        AuthKind = "NoKey"
)

// AuthType is the parsed credential block of a merchant connector account.
// Which fields are populated depends on Kind.
type AuthType struct {
	Kind      AuthKind `json:"auth_type"`
	APIKey    string   `json:"api_key,omitempty"`
	Key1      string   `json:"key1,omitempty"`
	APISecret string   `json:"api_secret,omitempty"`
	Key2      string   `json:"key2,omitempty"`
}

// ParseAuthType strictly parses the stored credential blob. Builders call
// this before anything touches the connector, so bad credentials fail the
// operation up front.
func ParseAuthType(raw json.RawMessage) (AuthType, error) {
	if len(raw) == 0 {
		return AuthType{}, payerrors.MissingField("connector_account_details")
	}
	var auth AuthType
	if err := json.Unmarshal(raw, &auth); err != nil {
		return AuthType{}, &payerrors.ParsingFailedError{FromType: "connector_account_details", ToType: "AuthType", Err: err}
	}
	if auth.Kind == "" {
		return AuthType{}, payerrors.InvalidDataValue("connector_account_details.auth_type")
	}
	return auth, nil
}

// TransactionIDResolver extracts the connector's transaction id from an
// attempt. Most connectors store it directly on the attempt; a few only
// return it inside their connector metadata.
type TransactionIDResolver interface {
	// ResolveTransactionID returns nil when the connector has not yet
	// acknowledged the attempt.
	ResolveTransactionID(attempt domain.PaymentAttempt) (*string, error)
}

// DirectResolver reads the id straight off the attempt record.
type DirectResolver struct{}

func (DirectResolver) ResolveTransactionID(attempt domain.PaymentAttempt) (*string, error) {
	return attempt.ConnectorTransactionID, nil
}

// MetadataResolver reads the id from a named field of the attempt's
// connector metadata. Absent metadata means no acknowledgment yet; present
// but unreadable metadata is a data error.
type MetadataResolver struct {
	Field string
}

func (r MetadataResolver) ResolveTransactionID(attempt domain.PaymentAttempt) (*string, error) {
	if len(attempt.ConnectorMetadata) == 0 {
		return nil, nil
	}
	var meta map[string]json.RawMessage
	if err := json.Unmarshal(attempt.ConnectorMetadata, &meta); err != nil {
		return nil, payerrors.InvalidDataValue("connector_metadata")
	}
	raw, ok := meta[r.Field]
	if !ok {
		return nil, payerrors.InvalidDataValue("connector_metadata." + r.Field)
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, payerrors.InvalidDataValue("connector_metadata." + r.Field)
	}
	return &id, nil
}

// DirectThenMetadataResolver prefers the attempt's own id and falls back to
// metadata, for connectors that migrated between the two schemes.
type DirectThenMetadataResolver struct {
	Metadata MetadataResolver
}

func (r DirectThenMetadataResolver) ResolveTransactionID(attempt domain.PaymentAttempt) (*string, error) {
	if attempt.ConnectorTransactionID != nil {
		return attempt.ConnectorTransactionID, nil
	}
	return r.Metadata.ResolveTransactionID(attempt)
}

// Handle is the registry's view of one connector integration.
type Handle struct {
	// Name is the canonical connector identifier ("stripe", "helcim", ...).
	Name string
	// TransactionID resolves the connector transaction id for this
	// connector's metadata scheme.
	TransactionID TransactionIDResolver
	// APIVersionConfigKey, when set, names the config-store key pinning
	// which connector API version request builders target.
	APIVersionConfigKey string
}

// Registry maps connector names to handles.
type Registry struct {
	handles map[string]Handle
}

// NewRegistry builds a registry from the given handles. A handle without a
// resolver defaults to direct resolution.
func NewRegistry(handles ...Handle) *Registry {
	r := &Registry{handles: make(map[string]Handle, len(handles))}
	for _, h := range handles {
		if h.TransactionID == nil {
			h.TransactionID = DirectResolver{}
		}
		r.handles[h.Name] = h
	}
	return r
}

// DefaultRegistry returns the built-in connector set. Connectors absent from
// the list still resolve through Get with direct-id semantics.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Handle{Name: "stripe"},
		Handle{Name: "adyen"},
		Handle{Name: "cybersource", APIVersionConfigKey: "connector_api_version_cybersource"},
		Handle{Name: "helcim", TransactionID: DirectThenMetadataResolver{Metadata: MetadataResolver{Field: "preauth_transaction_id"}}},
		Handle{Name: "nexinets", TransactionID: DirectThenMetadataResolver{Metadata: MetadataResolver{Field: "transaction_id"}}},
		Handle{Name: "trustpay"},
		Handle{Name: "payme"},
		Handle{Name: "plaid"},
		Handle{Name: "paypal"},
	)
}

// Get returns the handle for a connector name. Unknown names get a
// direct-resolution handle so new connectors work without registration.
func (r *Registry) Get(name string) Handle {
	if h, ok := r.handles[name]; ok {
		return h
	}
	return Handle{Name: name, TransactionID: DirectResolver{}}
}

// RequireConnector resolves the attempt's connector name, failing when the
// attempt has not been routed yet.
func RequireConnector(r *Registry, attempt domain.PaymentAttempt) (Handle, error) {
	if attempt.Connector == "" {
		return Handle{}, fmt.Errorf("attempt %s has no connector: %w", attempt.AttemptID, payerrors.ErrInternal)
	}
	return r.Get(attempt.Connector), nil
}
