package fields

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/payerrors"
)

func strPtr(s string) *string { return &s }

func TestBillingAccessorsReportDottedPaths(t *testing.T) {
	t.Run("missing country on present address", func(t *testing.T) {
		addr := domain.Address{Billing: &domain.AddressWithPhone{
			Address: &domain.AddressDetails{City: strPtr("Berlin")},
		}}
		_, err := BillingCountry(addr)
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "billing.address.country", path)
	})
	t.Run("missing whole billing block", func(t *testing.T) {
		_, err := BillingPhoneNumber(domain.Address{})
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "billing.phone.number", path)
	})
	t.Run("present country resolves", func(t *testing.T) {
		addr := domain.Address{Billing: &domain.AddressWithPhone{
			Address: &domain.AddressDetails{Country: strPtr("DE")},
		}}
		got, err := BillingCountry(addr)
		require.NoError(t, err)
		assert.Equal(t, "DE", got)
	})
	t.Run("payment method billing takes precedence", func(t *testing.T) {
		addr := domain.Address{
			Billing: &domain.AddressWithPhone{
				Address: &domain.AddressDetails{Country: strPtr("DE")},
			},
			PaymentMethodBilling: &domain.AddressWithPhone{
				Address: &domain.AddressDetails{Country: strPtr("FR")},
			},
		}
		got, err := BillingCountry(addr)
		require.NoError(t, err)
		assert.Equal(t, "FR", got)
	})
}

func TestRecordAccessors(t *testing.T) {
	record := &domain.PaymentRecord{
		Intent: domain.PaymentIntent{
			PaymentID:   "pay_1",
			Description: strPtr("order 42"),
		},
	}

	t.Run("description", func(t *testing.T) {
		got, err := Description(record)
		require.NoError(t, err)
		assert.Equal(t, "order 42", got)
	})
	t.Run("return url missing", func(t *testing.T) {
		_, err := ReturnURL(record)
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "return_url", path)
	})
	t.Run("email falls back to billing", func(t *testing.T) {
		withBilling := &domain.PaymentRecord{
			Address: domain.Address{Billing: &domain.AddressWithPhone{Email: strPtr("c@example.com")}},
		}
		got, err := Email(withBilling)
		require.NoError(t, err)
		assert.Equal(t, "c@example.com", got)
	})
	t.Run("connector transaction id absent until acknowledgment", func(t *testing.T) {
		_, err := ConnectorTransactionID(domain.PaymentAttempt{})
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "connector_transaction_id", path)
	})
}

func TestCardFrom(t *testing.T) {
	t.Run("wallet data has no card", func(t *testing.T) {
		record := &domain.PaymentRecord{
			PaymentMethodData: &domain.PaymentMethodData{Kind: domain.PaymentMethodDataWallet},
		}
		_, err := CardFrom(record)
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "payment_method_data.card", path)
	})
	t.Run("card data resolves", func(t *testing.T) {
		record := &domain.PaymentRecord{
			PaymentMethodData: &domain.PaymentMethodData{
				Kind: domain.PaymentMethodDataCard,
				Card: &domain.Card{Number: "4242424242424242"},
			},
		}
		card, err := CardFrom(record)
		require.NoError(t, err)
		assert.Equal(t, "4242424242424242", card.Number)
	})
}

func TestBrowserInfoStrictParse(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		_, err := BrowserInfo(domain.PaymentAttempt{})
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "browser_info", path)
	})
	t.Run("malformed fails loudly", func(t *testing.T) {
		_, err := BrowserInfo(domain.PaymentAttempt{BrowserInfo: json.RawMessage(`{"screen_width":"wide"}`)})
		var parseErr *payerrors.ParsingFailedError
		require.ErrorAs(t, err, &parseErr)
	})
	t.Run("valid parses", func(t *testing.T) {
		info, err := BrowserInfo(domain.PaymentAttempt{
			BrowserInfo: json.RawMessage(`{"user_agent":"Mozilla/5.0","screen_width":1920}`),
		})
		require.NoError(t, err)
		require.NotNil(t, info.UserAgent)
		assert.Equal(t, "Mozilla/5.0", *info.UserAgent)
	})
}

func TestConnectorMetaParsing(t *testing.T) {
	type meta struct {
		SessionID string `json:"session_id"`
	}
	t.Run("strict parse surfaces invalid data", func(t *testing.T) {
		_, err := ToConnectorMeta[meta](json.RawMessage(`not-json`))
		var invalid *payerrors.InvalidDataValueError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "connector_meta_data", invalid.FieldName)
	})
	t.Run("lenient parse returns nil on garbage", func(t *testing.T) {
		assert.Nil(t, ParseStructLenient[meta](json.RawMessage(`not-json`)))
		assert.Nil(t, ParseStructLenient[meta](nil))
	})
	t.Run("lenient parse returns value", func(t *testing.T) {
		got := ParseStructLenient[meta](json.RawMessage(`{"session_id":"s1"}`))
		require.NotNil(t, got)
		assert.Equal(t, "s1", got.SessionID)
	})
}
