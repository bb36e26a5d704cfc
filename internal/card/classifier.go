// Package card classifies card numbers into issuer networks by BIN pattern.
package card

import (
	"regexp"
	"strings"

	"github.com/yourorg/payment-router/internal/payerrors"
)

// Issuer is a card network identified from the leading BIN digits.
type Issuer string

const (
	IssuerVisa            Issuer = "Visa"
	IssuerMastercard      Issuer = "Mastercard"
	IssuerAmericanExpress Issuer = "AmericanExpress"
	IssuerDiscover        Issuer = "Discover"
	IssuerMaestro         Issuer = "Maestro"
)

type issuerPattern struct {
	issuer  Issuer
	pattern *regexp.Regexp
}

// issuerPatterns is evaluated in order and the first match wins, so
// classification is deterministic even where BIN ranges overlap.
var issuerPatterns = []issuerPattern{
	{IssuerVisa, regexp.MustCompile(`^4[0-9]{12}(?:[0-9]{3})?$`)},
	{IssuerMastercard, regexp.MustCompile(`^5[1-5][0-9]{14}$`)},
	{IssuerAmericanExpress, regexp.MustCompile(`^3[47][0-9]{13}$`)},
	{IssuerDiscover, regexp.MustCompile(`^65[4-9][0-9]{13}$|^64[4-9][0-9]{13}$|^6011[0-9]{12}$|^622(?:12[6-9]|1[3-9][0-9]|[2-8][0-9][0-9]|9[01][0-9]|92[0-5])[0-9]{10}$`)},
	{IssuerMaestro, regexp.MustCompile(`^(?:5018|5020|5038|5893|6304|6759|6761|6762|6763)[0-9]{8,15}$`)},
}

// ClassifyNumber returns the issuer for a card number. Spaces and hyphens in
// the number are ignored. An unrecognized BIN fails with a NotImplemented
// error rather than a guess.
func ClassifyNumber(number string) (Issuer, error) {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	for _, ip := range issuerPatterns {
		if ip.pattern.MatchString(digits) {
			return ip.issuer, nil
		}
	}
	return "", payerrors.NotImplemented("Card Type")
}
