package domain

import "time"

// Customer is the live stored customer record. Name and Phone arrive
// encrypted at rest and are populated here post-decryption.
type Customer struct {
	CustomerID       string    `json:"customer_id"`
	MerchantID       string    `json:"merchant_id"`
	Name             *string   `json:"name,omitempty"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	PhoneCountryCode *string   `json:"phone_country_code,omitempty"`
	Description      *string   `json:"description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// CustomerSnapshot is the customer data captured on the intent at creation
// time. When present and decryptable it overrides the live record
// field-by-field in the unified response.
type CustomerSnapshot struct {
	Name             *string `json:"name,omitempty"`
	Email            *string `json:"email,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	PhoneCountryCode *string `json:"phone_country_code,omitempty"`
}

// CustomerDetailsResponse is the customer block emitted on the unified
// payments response.
type CustomerDetailsResponse struct {
	ID               *string `json:"id,omitempty"`
	Name             *string `json:"name,omitempty"`
	Email            *string `json:"email,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	PhoneCountryCode *string `json:"phone_country_code,omitempty"`
}

// OverlaySnapshot merges a decrypted snapshot over the live record. Snapshot
// fields win when set; the live record fills the gaps.
func OverlaySnapshot(live *Customer, snap *CustomerSnapshot) *CustomerDetailsResponse {
	if live == nil && snap == nil {
		return nil
	}
	out := &CustomerDetailsResponse{}
	if live != nil {
		out.ID = &live.CustomerID
		out.Name = live.Name
		out.Email = live.Email
		out.Phone = live.Phone
		out.PhoneCountryCode = live.PhoneCountryCode
	}
	if snap != nil {
		if snap.Name != nil {
			out.Name = snap.Name
		}
		if snap.Email != nil {
			out.Email = snap.Email
		}
		if snap.Phone != nil {
			out.Phone = snap.Phone
		}
		if snap.PhoneCountryCode != nil {
			out.PhoneCountryCode = snap.PhoneCountryCode
		}
	}
	return out
}
