// Package monitor validates inbound payment request bodies against JSON
// schemas before they reach the flow builders.
package monitor

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// paymentRequestSchema is the built-in contract for payment create/confirm
// bodies. Field-level semantics (dotted-path requirements, mandate rules)
// are enforced later by the builders; this gate rejects structurally broken
// payloads early.
const paymentRequestSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "PaymentRequest",
	"type": "object",
	"properties": {
		"amount": { "type": "integer", "minimum": 0 },
		"currency": { "type": "string", "minLength": 3, "maxLength": 3 },
		"payment_method": { "type": "string" },
		"payment_method_type": { "type": "string" },
		"confirm": { "type": "boolean" },
		"capture_method": { "enum": ["automatic", "manual", "manual_multiple"] },
		"customer_id": { "type": "string" },
		"description": { "type": "string" },
		"return_url": { "type": "string", "format": "uri" },
		"card": { "type": "object" },
		"email": { "type": "string", "format": "email" },
		"billing": { "type": "object" },
		"shipping": { "type": "object" },
		"payment_method_billing": { "type": "object" },
		"order_details": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"product_name": { "type": "string" },
					"quantity": { "type": "integer", "minimum": 1 },
					"amount": { "type": "integer", "minimum": 0 }
				},
				"required": ["product_name", "quantity", "amount"]
			}
		}
	},
	"required": ["amount", "currency"]
}`

// RequestValidator validates request bodies against a compiled JSON schema.
type RequestValidator struct {
	schema *gojsonschema.Schema
}

// NewPaymentRequestValidator compiles the built-in payment request schema.
func NewPaymentRequestValidator() (*RequestValidator, error) {
	return NewRequestValidator(paymentRequestSchema)
}

// NewRequestValidator compiles a caller-supplied schema document, for
// deployments that tighten the contract per merchant.
func NewRequestValidator(schemaJSON string) (*RequestValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &RequestValidator{schema: schema}, nil
}

// Validate checks a request body. It returns true when the body conforms,
// or false with the per-field violation descriptions.
func (v *RequestValidator) Validate(requestBody []byte) (bool, []string, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(requestBody))
	if err != nil {
		return false, nil, fmt.Errorf("validate request body: %w", err)
	}
	if result.Valid() {
		return true, nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return false, violations, nil
}

// FormatViolations joins violation descriptions into one message suitable
// for an error response body.
func FormatViolations(violations []string) string {
	if len(violations) == 0 {
		return ""
	}
	return "validation errors: " + strings.Join(violations, "; ")
}
