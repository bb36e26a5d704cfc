// Package payerrors defines the error taxonomy shared by the request
// builders, response unification and the collaborator interfaces.
// Every error that crosses a package boundary in this core is one of the
// types below, so callers can classify failures with errors.As/errors.Is
// without string matching.
package payerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra payload.
var (
	// ErrRequestEncodingFailed indicates a value could not be encoded into a
	// connector-facing representation (e.g. a minor-unit amount outside the
	// unsigned 32-bit range).
	ErrRequestEncodingFailed = errors.New("request encoding failed")

	// ErrResourceIDNotFound indicates the connector transaction id could not
	// be resolved for the current operation.
	ErrResourceIDNotFound = errors.New("resource id not found")

	// ErrMerchantConnectorAccountDisabled is returned before any request is
	// built when the selected merchant connector account is disabled.
	ErrMerchantConnectorAccountDisabled = errors.New("merchant connector account is disabled")

	// ErrEncryptionFailed indicates the encryption service could not encrypt
	// the given plaintext.
	ErrEncryptionFailed = errors.New("failed to encrypt input data")

	// ErrDecryptionFailed indicates the encryption service could not decrypt
	// the given ciphertext.
	ErrDecryptionFailed = errors.New("failed to decrypt input data")

	// ErrNotFound is returned by store lookups when the key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInternal marks a programming-contract violation rather than a user
	// error, e.g. an incremental authorization requested without
	// incremental-authorization details on the record.
	ErrInternal = errors.New("internal server error")
)

// MissingRequiredFieldError reports a required field that was absent from the
// canonical payment record. FieldPath is the dotted path of the missing
// field, e.g. "billing.address.country". Always recoverable by the caller
// correcting its input.
type MissingRequiredFieldError struct {
	FieldPath string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.FieldPath)
}

// MissingField builds a MissingRequiredFieldError for the given dotted path.
func MissingField(fieldPath string) error {
	return &MissingRequiredFieldError{FieldPath: fieldPath}
}

// InvalidDataValueError reports malformed structured data on a required
// field (e.g. a browser_info blob that does not parse). Never produced for
// optional heuristic metadata, which degrades to absence instead.
type InvalidDataValueError struct {
	FieldName string
}

func (e *InvalidDataValueError) Error() string {
	return fmt.Sprintf("invalid data value for field: %s", e.FieldName)
}

// InvalidDataValue builds an InvalidDataValueError for the given field.
func InvalidDataValue(fieldName string) error {
	return &InvalidDataValueError{FieldName: fieldName}
}

// ParsingFailedError reports a failure to decode stored or
// connector-supplied structured data into a typed value.
type ParsingFailedError struct {
	FromType string
	ToType   string
	Err      error
}

func (e *ParsingFailedError) Error() string {
	return fmt.Sprintf("failed to parse %s into %s: %v", e.FromType, e.ToType, e.Err)
}

func (e *ParsingFailedError) Unwrap() error { return e.Err }

// NotImplementedError reports an input for which no implementation exists,
// e.g. a card number matching no known issuer pattern.
type NotImplementedError struct {
	Message string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("not implemented: %s", e.Message)
}

// NotImplemented builds a NotImplementedError with the given message.
func NotImplemented(message string) error {
	return &NotImplementedError{Message: message}
}

// IsMissingRequiredField reports whether err is a MissingRequiredFieldError
// and returns its field path if so.
func IsMissingRequiredField(err error) (string, bool) {
	var mf *MissingRequiredFieldError
	if errors.As(err, &mf) {
		return mf.FieldPath, true
	}
	return "", false
}
