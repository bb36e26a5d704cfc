// Package fields provides typed, fallible accessors over the canonical
// payment record. Every accessor fails with a missing-field error carrying
// the dotted path of the absent field, so all builders report gaps in one
// format.
package fields

import (
	"encoding/json"

	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/payerrors"
)

func requireString(v *string, path string) (string, error) {
	if v == nil || *v == "" {
		return "", payerrors.MissingField(path)
	}
	return *v, nil
}

// BillingCountry returns the billing address country.
func BillingCountry(a domain.Address) (string, error) {
	b := a.EffectiveBilling()
	if b == nil || b.Address == nil {
		return "", payerrors.MissingField("billing.address.country")
	}
	return requireString(b.Address.Country, "billing.address.country")
}

// BillingCity returns the billing address city.
func BillingCity(a domain.Address) (string, error) {
	b := a.EffectiveBilling()
	if b == nil || b.Address == nil {
		return "", payerrors.MissingField("billing.address.city")
	}
	return requireString(b.Address.City, "billing.address.city")
}

// BillingLine1 returns the first billing address line.
func BillingLine1(a domain.Address) (string, error) {
	b := a.EffectiveBilling()
	if b == nil || b.Address == nil {
		return "", payerrors.MissingField("billing.address.line1")
	}
	return requireString(b.Address.Line1, "billing.address.line1")
}

// BillingZip returns the billing postal code.
func BillingZip(a domain.Address) (string, error) {
	b := a.EffectiveBilling()
	if b == nil || b.Address == nil {
		return "", payerrors.MissingField("billing.address.zip")
	}
	return requireString(b.Address.Zip, "billing.address.zip")
}

// BillingFullName returns the billing first name, required by connectors
// that validate cardholder identity.
func BillingFullName(a domain.Address) (string, error) {
	b := a.EffectiveBilling()
	if b == nil || b.Address == nil {
		return "", payerrors.MissingField("billing.address.first_name")
	}
	return requireString(b.Address.FirstName, "billing.address.first_name")
}

// BillingPhoneNumber returns the billing phone number.
func BillingPhoneNumber(a domain.Address) (string, error) {
	b := a.EffectiveBilling()
	if b == nil || b.Phone == nil {
		return "", payerrors.MissingField("billing.phone.number")
	}
	return requireString(b.Phone.Number, "billing.phone.number")
}

// BillingPhoneCountryCode returns the billing phone country code.
func BillingPhoneCountryCode(a domain.Address) (string, error) {
	b := a.EffectiveBilling()
	if b == nil || b.Phone == nil {
		return "", payerrors.MissingField("billing.phone.country_code")
	}
	return requireString(b.Phone.CountryCode, "billing.phone.country_code")
}

// BillingEmail returns the billing email address.
func BillingEmail(a domain.Address) (string, error) {
	b := a.EffectiveBilling()
	if b == nil {
		return "", payerrors.MissingField("billing.email")
	}
	return requireString(b.Email, "billing.email")
}

// Email returns the payment-level email, falling back to the billing email.
func Email(r *domain.PaymentRecord) (string, error) {
	if r.Email != nil && *r.Email != "" {
		return *r.Email, nil
	}
	return BillingEmail(r.Address)
}

// Description returns the intent description.
func Description(r *domain.PaymentRecord) (string, error) {
	return requireString(r.Intent.Description, "description")
}

// ReturnURL returns the merchant return URL.
func ReturnURL(r *domain.PaymentRecord) (string, error) {
	return requireString(r.Intent.ReturnURL, "return_url")
}

// CustomerID returns the customer id attached to the intent.
func CustomerID(r *domain.PaymentRecord) (string, error) {
	return requireString(r.Intent.CustomerID, "customer_id")
}

// ConnectorTransactionID returns the attempt's connector transaction id,
// which stays absent until connector acknowledgment.
func ConnectorTransactionID(attempt domain.PaymentAttempt) (string, error) {
	return requireString(attempt.ConnectorTransactionID, "connector_transaction_id")
}

// CardFrom returns the card payload of the payment-method data.
func CardFrom(r *domain.PaymentRecord) (*domain.Card, error) {
	if r.PaymentMethodData == nil || r.PaymentMethodData.Kind != domain.PaymentMethodDataCard || r.PaymentMethodData.Card == nil {
		return nil, payerrors.MissingField("payment_method_data.card")
	}
	return r.PaymentMethodData.Card, nil
}

// BrowserInfo parses the attempt's browser-information blob. Absence is a
// missing field; malformed content is a parse failure.
func BrowserInfo(attempt domain.PaymentAttempt) (*domain.BrowserInformation, error) {
	if len(attempt.BrowserInfo) == 0 {
		return nil, payerrors.MissingField("browser_info")
	}
	var info domain.BrowserInformation
	if err := json.Unmarshal(attempt.BrowserInfo, &info); err != nil {
		return nil, &payerrors.ParsingFailedError{FromType: "browser_info", ToType: "BrowserInformation", Err: err}
	}
	return &info, nil
}

// ToConnectorMeta parses the attempt's connector metadata into T. Missing
// metadata is reported as a missing connector_meta_data field.
func ToConnectorMeta[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, payerrors.MissingField("connector_meta_data")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, payerrors.InvalidDataValue("connector_meta_data")
	}
	return out, nil
}

// ParseStruct strictly parses an opaque JSON blob into T, naming the target
// type in the failure.
func ParseStruct[T any](raw json.RawMessage, typeName string) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, payerrors.MissingField(typeName)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &payerrors.ParsingFailedError{FromType: "json", ToType: typeName, Err: err}
	}
	return out, nil
}

// ParseStructLenient parses an opaque JSON blob into T, treating both
// absence and malformed content as "not present". Used for heuristic
// next-action probes over connector metadata.
func ParseStructLenient[T any](raw json.RawMessage) *T {
	if len(raw) == 0 {
		return nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}
