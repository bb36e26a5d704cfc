package domain

// AddressDetails is the street-level portion of an address. All fields are
// optional at the type level; required-ness is enforced by the field
// extraction accessors at builder time.
type AddressDetails struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Line1     *string `json:"line1,omitempty"`
	Line2     *string `json:"line2,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	Zip       *string `json:"zip,omitempty"`
	Country   *string `json:"country,omitempty"`
}

// PhoneDetails is a phone number with its dialing country code.
type PhoneDetails struct {
	Number      *string `json:"number,omitempty"`
	CountryCode *string `json:"country_code,omitempty"`
}

// AddressWithPhone combines street details with a contact phone, matching how
// connectors consume billing and shipping data.
type AddressWithPhone struct {
	Address *AddressDetails `json:"address,omitempty"`
	Phone   *PhoneDetails   `json:"phone,omitempty"`
	Email   *string         `json:"email,omitempty"`
}

// Address carries the billing/shipping addresses attached to a payment,
// including a payment-method-level billing override supplied at confirm time.
type Address struct {
	Billing              *AddressWithPhone `json:"billing,omitempty"`
	Shipping             *AddressWithPhone `json:"shipping,omitempty"`
	PaymentMethodBilling *AddressWithPhone `json:"payment_method_billing,omitempty"`
}

// UnifyWithPaymentMethodBilling overlays a payment-method-level billing
// address onto the payment-level one. The payment-method address wins where
// present; the receiver is not mutated.
func (a Address) UnifyWithPaymentMethodBilling(pmBilling *AddressWithPhone) Address {
	if pmBilling == nil {
		return a
	}
	unified := a
	unified.PaymentMethodBilling = pmBilling
	if unified.Billing == nil {
		unified.Billing = pmBilling
	}
	return unified
}

// EffectiveBilling returns the billing address a request builder should use:
// the payment-method-level override when present, the payment-level billing
// otherwise.
func (a Address) EffectiveBilling() *AddressWithPhone {
	if a.PaymentMethodBilling != nil {
		return a.PaymentMethodBilling
	}
	return a.Billing
}
