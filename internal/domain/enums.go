package domain

// IntentStatus is the merchant-visible lifecycle state of a payment intent.
type IntentStatus string

const (
	IntentStatusRequiresPaymentMethod  IntentStatus = "requires_payment_method"
	IntentStatusRequiresConfirmation   IntentStatus = "requires_confirmation"
	IntentStatusRequiresCustomerAction IntentStatus = "requires_customer_action"
	IntentStatusRequiresCapture        IntentStatus = "requires_capture"
	IntentStatusProcessing             IntentStatus = "processing"
	IntentStatusSucceeded              IntentStatus = "succeeded"
	IntentStatusPartiallyCaptured      IntentStatus = "partially_captured"
	IntentStatusFailed                 IntentStatus = "failed"
	IntentStatusCancelled              IntentStatus = "cancelled"
)

// AttemptStatus is the state of a single connector-routed attempt.
type AttemptStatus string

const (
	AttemptStatusStarted               AttemptStatus = "started"
	AttemptStatusPending               AttemptStatus = "pending"
	AttemptStatusAuthenticationPending AttemptStatus = "authentication_pending"
	AttemptStatusAuthorized            AttemptStatus = "authorized"
	AttemptStatusCharged               AttemptStatus = "charged"
	AttemptStatusPartialCharged        AttemptStatus = "partial_charged"
	AttemptStatusAuthorizationFailed   AttemptStatus = "authorization_failed"
	AttemptStatusCaptureFailed         AttemptStatus = "capture_failed"
	AttemptStatusFailure               AttemptStatus = "failure"
	AttemptStatusVoided                AttemptStatus = "voided"
)

// CaptureStatus is the state of a single (possibly partial) capture.
type CaptureStatus string

const (
	CaptureStatusStarted          CaptureStatus = "started"
	CaptureStatusPending          CaptureStatus = "pending"
	CaptureStatusCharged          CaptureStatus = "charged"
	CaptureStatusPartiallyCharged CaptureStatus = "partially_charged"
	CaptureStatusFailed           CaptureStatus = "failed"
)

// Currency is an ISO 4217 alphabetic currency code.
type Currency string

// Currencies referenced by the minor-unit conversion policy. Any ISO code is
// a valid Currency value; only the exponent exceptions are enumerated.
const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
	CurrencyKRW Currency = "KRW"
	CurrencyBHD Currency = "BHD"
	CurrencyJOD Currency = "JOD"
	CurrencyKWD Currency = "KWD"
	CurrencyOMR Currency = "OMR"
)

// PaymentMethod is the coarse payment-method family of an attempt.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodWallet       PaymentMethod = "wallet"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodBankRedirect PaymentMethod = "bank_redirect"
	PaymentMethodVoucher      PaymentMethod = "voucher"
	PaymentMethodOpenBanking  PaymentMethod = "open_banking"
	PaymentMethodPayLater     PaymentMethod = "pay_later"
	PaymentMethodCrypto       PaymentMethod = "crypto"
)

// PaymentMethodType is the fine-grained payment-method variant.
type PaymentMethodType string

const (
	PaymentMethodTypeCredit         PaymentMethodType = "credit"
	PaymentMethodTypeDebit          PaymentMethodType = "debit"
	PaymentMethodTypeApplePay       PaymentMethodType = "apple_pay"
	PaymentMethodTypeGooglePay      PaymentMethodType = "google_pay"
	PaymentMethodTypePaypal         PaymentMethodType = "paypal"
	PaymentMethodTypePix            PaymentMethodType = "pix"
	PaymentMethodTypeBoleto         PaymentMethodType = "boleto"
	PaymentMethodTypeOpenBankingPIS PaymentMethodType = "open_banking_pis"
)

// CaptureMethod selects automatic or deferred capture for an attempt.
type CaptureMethod string

const (
	CaptureMethodAutomatic      CaptureMethod = "automatic"
	CaptureMethodManual         CaptureMethod = "manual"
	CaptureMethodManualMultiple CaptureMethod = "manual_multiple"
)

// AuthenticationType selects the 3-D Secure posture requested for an attempt.
type AuthenticationType string

const (
	AuthenticationTypeThreeDS   AuthenticationType = "three_ds"
	AuthenticationTypeNoThreeDS AuthenticationType = "no_three_ds"
)

// FutureUsage indicates whether the payment method is stored for later use.
type FutureUsage string

const (
	FutureUsageOnSession  FutureUsage = "on_session"
	FutureUsageOffSession FutureUsage = "off_session"
)
