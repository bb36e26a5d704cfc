package domain

import "encoding/json"

// PaymentMethodDataKind discriminates the concrete payment-method payload.
type PaymentMethodDataKind string

const (
	PaymentMethodDataCard         PaymentMethodDataKind = "card"
	PaymentMethodDataWallet       PaymentMethodDataKind = "wallet"
	PaymentMethodDataBankTransfer PaymentMethodDataKind = "bank_transfer"
	PaymentMethodDataBankRedirect PaymentMethodDataKind = "bank_redirect"
	PaymentMethodDataVoucher      PaymentMethodDataKind = "voucher"
	PaymentMethodDataOpenBanking  PaymentMethodDataKind = "open_banking"
	PaymentMethodDataMandate      PaymentMethodDataKind = "mandate_payment"
)

// PaymentMethodData is the tagged union of instrument payloads. Card is
// populated for the card kind; every other kind keeps its connector-shaped
// payload opaque in Raw.
type PaymentMethodData struct {
	Kind PaymentMethodDataKind `json:"kind"`
	Card *Card                 `json:"card,omitempty"`
	Raw  json.RawMessage       `json:"raw,omitempty"`
}

// Card is the primary card instrument. The number is stored as presented,
// whitespace included; classification strips separators before matching.
type Card struct {
	Number      string  `json:"card_number"`
	ExpiryMonth string  `json:"card_exp_month"`
	ExpiryYear  string  `json:"card_exp_year"`
	CVC         string  `json:"card_cvc"`
	HolderName  *string `json:"card_holder_name,omitempty"`
	Network     *string `json:"card_network,omitempty"`
	Issuer      *string `json:"card_issuer,omitempty"`
	NickName    *string `json:"nick_name,omitempty"`
}

// BrowserInformation is the device fingerprint forwarded to connectors for
// 3-D Secure risk decisions. Builders parse it strictly from the attempt's
// browser_info blob.
type BrowserInformation struct {
	ColorDepth        *uint8  `json:"color_depth,omitempty"`
	JavaEnabled       *bool   `json:"java_enabled,omitempty"`
	JavaScriptEnabled *bool   `json:"java_script_enabled,omitempty"`
	Language          *string `json:"language,omitempty"`
	ScreenHeight      *uint32 `json:"screen_height,omitempty"`
	ScreenWidth       *uint32 `json:"screen_width,omitempty"`
	TimeZone          *int32  `json:"time_zone,omitempty"`
	IPAddress         *string `json:"ip_address,omitempty"`
	AcceptHeader      *string `json:"accept_header,omitempty"`
	UserAgent         *string `json:"user_agent,omitempty"`
	OSType            *string `json:"os_type,omitempty"`
	OSVersion         *string `json:"os_version,omitempty"`
	DeviceModel       *string `json:"device_model,omitempty"`
	AcceptLanguage    *string `json:"accept_language,omitempty"`
}
