package currency

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/payerrors"
)

func TestToBaseUnit(t *testing.T) {
	cases := []struct {
		name     string
		amount   int64
		currency domain.Currency
		want     string
	}{
		{"zero decimal keeps integer", 1500, domain.CurrencyJPY, "1500"},
		{"korean won keeps integer", 999, domain.CurrencyKRW, "999"},
		{"three decimal divides by 1000", 1500, domain.CurrencyBHD, "1.500"},
		{"kuwaiti dinar divides by 1000", 1, domain.CurrencyKWD, "0.001"},
		{"default divides by 100", 1500, domain.CurrencyUSD, "15.00"},
		{"euro cents", 1, domain.CurrencyEUR, "0.01"},
		{"zero amount", 0, domain.CurrencyUSD, "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToBaseUnit(tc.amount, tc.currency)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToBaseUnitRejectsOutOfRange(t *testing.T) {
	t.Run("negative amount", func(t *testing.T) {
		_, err := ToBaseUnit(-1, domain.CurrencyUSD)
		require.Error(t, err)
		assert.True(t, errors.Is(err, payerrors.ErrRequestEncodingFailed))
	})
	t.Run("above uint32 max", func(t *testing.T) {
		_, err := ToBaseUnit(math.MaxUint32+1, domain.CurrencyUSD)
		require.Error(t, err)
		assert.True(t, errors.Is(err, payerrors.ErrRequestEncodingFailed))
	})
	t.Run("uint32 max is accepted", func(t *testing.T) {
		got, err := ToBaseUnit(math.MaxUint32, domain.CurrencyJPY)
		require.NoError(t, err)
		assert.Equal(t, "4294967295", got)
	})
}

func TestToBaseUnitFromOptional(t *testing.T) {
	t.Run("nil amount is a missing field", func(t *testing.T) {
		_, err := ToBaseUnitFromOptional(nil, domain.CurrencyUSD)
		require.Error(t, err)
		path, ok := payerrors.IsMissingRequiredField(err)
		require.True(t, ok)
		assert.Equal(t, "amount", path)
	})
	t.Run("set amount converts", func(t *testing.T) {
		amount := int64(250)
		got, err := ToBaseUnitFromOptional(&amount, domain.CurrencyGBP)
		require.NoError(t, err)
		assert.Equal(t, "2.50", got)
	})
}

func TestToMinorUnit(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		got, err := ToMinorUnit("15.00", domain.CurrencyUSD)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), got)
	})
	t.Run("rejects excess precision", func(t *testing.T) {
		_, err := ToMinorUnit("15.001", domain.CurrencyUSD)
		require.Error(t, err)
		assert.True(t, errors.Is(err, payerrors.ErrRequestEncodingFailed))
	})
	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ToMinorUnit("fifteen", domain.CurrencyUSD)
		var parseErr *payerrors.ParsingFailedError
		require.ErrorAs(t, err, &parseErr)
	})
}
