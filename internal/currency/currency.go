// Package currency converts integer minor-unit amounts into the base-unit
// decimal strings connectors expect on the wire.
package currency

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/payerrors"
)

// Exponent returns the number of minor-unit digits for a currency: 0 for
// zero-decimal currencies, 3 for three-decimal ones, 2 otherwise.
func Exponent(c domain.Currency) int32 {
	switch c {
	case domain.CurrencyJPY, domain.CurrencyKRW:
		return 0
	case domain.CurrencyBHD, domain.CurrencyJOD, domain.CurrencyKWD, domain.CurrencyOMR:
		return 3
	default:
		return 2
	}
}

// ToBaseUnit converts a minor-unit amount to its base-unit decimal string
// with exactly the currency's exponent digits after the point. Amounts
// outside [0, math.MaxUint32] are rejected before any arithmetic.
func ToBaseUnit(amount int64, c domain.Currency) (string, error) {
	if amount < 0 || amount > math.MaxUint32 {
		return "", fmt.Errorf("amount %d out of range for %s: %w", amount, c, payerrors.ErrRequestEncodingFailed)
	}
	exp := Exponent(c)
	return decimal.New(amount, -exp).StringFixed(exp), nil
}

// ToBaseUnitFromOptional is ToBaseUnit for an optional amount. A nil amount
// is a missing "amount" field, not a zero.
func ToBaseUnitFromOptional(amount *int64, c domain.Currency) (string, error) {
	if amount == nil {
		return "", payerrors.MissingField("amount")
	}
	return ToBaseUnit(*amount, c)
}

// ToMinorUnit converts a base-unit decimal string back into minor units,
// rejecting values with more precision than the currency carries.
func ToMinorUnit(baseAmount string, c domain.Currency) (int64, error) {
	d, err := decimal.NewFromString(baseAmount)
	if err != nil {
		return 0, &payerrors.ParsingFailedError{FromType: "string", ToType: "decimal", Err: err}
	}
	exp := Exponent(c)
	minor := d.Shift(exp)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %q exceeds %s precision: %w", baseAmount, c, payerrors.ErrRequestEncodingFailed)
	}
	return minor.IntPart(), nil
}

// DisplayAmount pairs a minor-unit amount with its wire representation, for
// logging and responses that carry both.
type DisplayAmount struct {
	Minor int64  `json:"minor"`
	Base  string `json:"base"`
}

// NewDisplayAmount builds a DisplayAmount for the given currency.
func NewDisplayAmount(amount int64, c domain.Currency) (DisplayAmount, error) {
	base, err := ToBaseUnit(amount, c)
	if err != nil {
		return DisplayAmount{}, err
	}
	return DisplayAmount{Minor: amount, Base: base}, nil
}
