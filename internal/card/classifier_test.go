package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/payerrors"
)

func TestClassifyNumber(t *testing.T) {
	cases := []struct {
		name   string
		number string
		want   Issuer
	}{
		{"visa 16 digits", "4242424242424242", IssuerVisa},
		{"visa 13 digits", "4222222222222", IssuerVisa},
		{"mastercard", "5555555555554444", IssuerMastercard},
		{"amex", "378282246310005", IssuerAmericanExpress},
		{"discover 6011", "6011111111111117", IssuerDiscover},
		{"discover 65x", "6559906559906557", IssuerDiscover},
		{"maestro", "6759649826438453", IssuerMaestro},
		{"spaces stripped", "4242 4242 4242 4242", IssuerVisa},
		{"hyphens stripped", "5555-5555-5555-4444", IssuerMastercard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ClassifyNumber(tc.number)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyNumberUnknown(t *testing.T) {
	_, err := ClassifyNumber("9999999999999999")
	var notImpl *payerrors.NotImplementedError
	require.ErrorAs(t, err, &notImpl)
	assert.Equal(t, "Card Type", notImpl.Message)
}

func TestClassifyNumberDeterministicOrder(t *testing.T) {
	// Maestro's 5018 prefix shares the leading-5 space with Mastercard;
	// the priority list must resolve it the same way every run.
	for i := 0; i < 10; i++ {
		got, err := ClassifyNumber("5018000000000009")
		require.NoError(t, err)
		assert.Equal(t, IssuerMaestro, got)
	}
}

func TestExpiryHelpers(t *testing.T) {
	c := domain.Card{Number: "4242424242424242", ExpiryMonth: "3", ExpiryYear: "2027", CVC: "123"}

	t.Run("two digit year", func(t *testing.T) {
		assert.Equal(t, "27", ExpiryYear2Digit(c))
	})
	t.Run("four digit year from short input", func(t *testing.T) {
		short := c
		short.ExpiryYear = "27"
		assert.Equal(t, "2027", ExpiryYear4Digit(short))
	})
	t.Run("month padded", func(t *testing.T) {
		m, err := ExpiryMonth2Digit(c)
		require.NoError(t, err)
		assert.Equal(t, "03", m)
	})
	t.Run("bad month rejected", func(t *testing.T) {
		bad := c
		bad.ExpiryMonth = "13"
		_, err := ExpiryMonth2Digit(bad)
		var invalid *payerrors.InvalidDataValueError
		require.ErrorAs(t, err, &invalid)
	})
	t.Run("joined expiry", func(t *testing.T) {
		d, err := ExpiryDate(c, "/")
		require.NoError(t, err)
		assert.Equal(t, "03/27", d)
	})
}
