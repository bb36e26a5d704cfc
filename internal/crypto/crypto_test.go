package crypto

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-router/internal/payerrors"
)

func testService(t *testing.T) *AESGCMService {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	svc, err := NewAESGCMService(key)
	require.NoError(t, err)
	return svc
}

func TestAESGCMRoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	ct, err := svc.Encrypt(ctx, []byte("Jane Doe"))
	require.NoError(t, err)
	assert.NotEqual(t, []byte("Jane Doe"), ct)

	pt, err := svc.Decrypt(ctx, ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("Jane Doe"), pt)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	ct, err := svc.Encrypt(ctx, []byte("Jane Doe"))
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xFF

	_, err = svc.Decrypt(ctx, ct)
	require.Error(t, err)
	assert.True(t, errors.Is(err, payerrors.ErrDecryptionFailed))
}

func TestDecryptBatchIsAllOrNothing(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	name, err := svc.Encrypt(ctx, []byte("Jane Doe"))
	require.NoError(t, err)
	phone, err := svc.Encrypt(ctx, []byte("5550100"))
	require.NoError(t, err)

	t.Run("all entries decrypt", func(t *testing.T) {
		out, err := svc.DecryptBatch(ctx, map[string][]byte{"name": name, "phone": phone})
		require.NoError(t, err)
		assert.Equal(t, []byte("Jane Doe"), out["name"])
		assert.Equal(t, []byte("5550100"), out["phone"])
	})
	t.Run("one bad entry fails all", func(t *testing.T) {
		_, err := svc.DecryptBatch(ctx, map[string][]byte{"name": name, "phone": []byte("junk")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, payerrors.ErrDecryptionFailed))
	})
}

func TestLoadCustomerBatchDecrypts(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	name, err := svc.Encrypt(ctx, []byte("Jane Doe"))
	require.NoError(t, err)
	phone, err := svc.Encrypt(ctx, []byte("5550100"))
	require.NoError(t, err)
	email := "jane@example.com"

	customer, err := LoadCustomer(ctx, svc, EncryptedCustomer{
		CustomerID: "cus_1",
		MerchantID: "m_1",
		Name:       name,
		Phone:      phone,
		Email:      &email,
	})
	require.NoError(t, err)
	require.NotNil(t, customer.Name)
	require.NotNil(t, customer.Phone)
	assert.Equal(t, "Jane Doe", *customer.Name)
	assert.Equal(t, "5550100", *customer.Phone)
	assert.Equal(t, "jane@example.com", *customer.Email)
}

func TestLoadCustomerWithoutEncryptedFields(t *testing.T) {
	svc := testService(t)
	customer, err := LoadCustomer(context.Background(), svc, EncryptedCustomer{
		CustomerID: "cus_2",
		MerchantID: "m_1",
	})
	require.NoError(t, err)
	assert.Nil(t, customer.Name)
	assert.Nil(t, customer.Phone)
}

func TestNewAESGCMServiceRejectsShortKey(t *testing.T) {
	_, err := NewAESGCMService([]byte("short"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, payerrors.ErrEncryptionFailed))
}
