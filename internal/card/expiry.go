package card

import (
	"fmt"
	"strings"

	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/payerrors"
)

// ExpiryYear2Digit returns the last two digits of the card's expiry year.
func ExpiryYear2Digit(c domain.Card) string {
	y := c.ExpiryYear
	if len(y) > 2 {
		return y[len(y)-2:]
	}
	return y
}

// ExpiryYear4Digit returns the four-digit expiry year, assuming the 2000s
// for two-digit input.
func ExpiryYear4Digit(c domain.Card) string {
	if len(c.ExpiryYear) == 2 {
		return "20" + c.ExpiryYear
	}
	return c.ExpiryYear
}

// ExpiryMonth2Digit returns the zero-padded expiry month, rejecting values
// outside 01..12.
func ExpiryMonth2Digit(c domain.Card) (string, error) {
	m := strings.TrimSpace(c.ExpiryMonth)
	switch m {
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return "0" + m, nil
	case "01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12":
		return m, nil
	default:
		return "", payerrors.InvalidDataValue("card_exp_month")
	}
}

// ExpiryDate returns the expiry as MMYY joined by the given separator, the
// format most card connectors accept.
func ExpiryDate(c domain.Card, separator string) (string, error) {
	month, err := ExpiryMonth2Digit(c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%s", month, separator, ExpiryYear2Digit(c)), nil
}
