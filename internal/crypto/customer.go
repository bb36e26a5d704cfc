package crypto

import (
	"context"
	"fmt"

	"github.com/yourorg/payment-router/internal/domain"
)

// EncryptedCustomer is a customer row as stored: name and phone encrypted,
// everything else in the clear.
type EncryptedCustomer struct {
	CustomerID       string
	MerchantID       string
	Name             []byte
	Email            *string
	Phone            []byte
	PhoneCountryCode *string
	Description      *string
}

// LoadCustomer decrypts an encrypted customer row into the domain record.
// Name and phone are decrypted in one batch call so a single round trip to
// the key backend covers the whole record.
func LoadCustomer(ctx context.Context, enc EncryptionService, row EncryptedCustomer) (*domain.Customer, error) {
	batch := map[string][]byte{}
	if len(row.Name) > 0 {
		batch["name"] = row.Name
	}
	if len(row.Phone) > 0 {
		batch["phone"] = row.Phone
	}

	customer := &domain.Customer{
		CustomerID:       row.CustomerID,
		MerchantID:       row.MerchantID,
		Email:            row.Email,
		PhoneCountryCode: row.PhoneCountryCode,
		Description:      row.Description,
	}
	if len(batch) == 0 {
		return customer, nil
	}

	decrypted, err := enc.DecryptBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("decrypt customer %s: %w", row.CustomerID, err)
	}
	if name, ok := decrypted["name"]; ok {
		s := string(name)
		customer.Name = &s
	}
	if phone, ok := decrypted["phone"]; ok {
		s := string(phone)
		customer.Phone = &s
	}
	return customer, nil
}
