// Package nextaction resolves the single client-facing next step of a
// payment response. The decision is stateless and recomputed on every
// response assembly.
package nextaction

import (
	"encoding/json"
	"fmt"

	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/fields"
	"github.com/yourorg/payment-router/internal/payerrors"
)

// Kind names one next-action variant. A response carries at most one.
type Kind string

const (
	KindRedirectToURL        Kind = "redirect_to_url"
	KindBankTransfer         Kind = "display_bank_transfer_information"
	KindVoucher              Kind = "display_voucher_information"
	KindQRCode               Kind = "qr_code_information"
	KindFetchQRCodeURL       Kind = "fetch_qr_code_information"
	KindInvokeSDK            Kind = "invoke_sdk_client"
	KindWaitScreen           Kind = "wait_screen_information"
	KindThreeDSInvoke        Kind = "three_ds_invoke"
	KindThirdPartySDKSession Kind = "third_party_sdk_session_token"
)

// BankTransferInstructions tells the customer where to push funds.
type BankTransferInstructions struct {
	BankName      *string `json:"bank_name,omitempty"`
	AccountNumber *string `json:"account_number,omitempty"`
	RoutingNumber *string `json:"routing_number,omitempty"`
	IBAN          *string `json:"iban,omitempty"`
	BIC           *string `json:"bic,omitempty"`
	Reference     *string `json:"reference,omitempty"`
	ExpiresAt     *int64  `json:"expires_at,omitempty"`
}

// VoucherDetails points the customer at a printable payment voucher.
type VoucherDetails struct {
	Reference       string  `json:"reference"`
	ExpiresAt       *int64  `json:"expires_at,omitempty"`
	DownloadURL     *string `json:"download_url,omitempty"`
	InstructionsURL *string `json:"instructions_url,omitempty"`
}

// QRCodeInformation carries an inline QR image or a URL rendering one.
type QRCodeInformation struct {
	QRCodeURL          *string `json:"qr_code_url,omitempty"`
	ImageDataURL       *string `json:"image_data_url,omitempty"`
	DisplayToTimestamp *int64  `json:"display_to_timestamp,omitempty"`
}

// FetchQRCodeInformation defers QR rendering to a connector-hosted URL.
type FetchQRCodeInformation struct {
	QRCodeFetchURL string `json:"qr_code_fetch_url"`
}

// WaitScreenInformation keeps the customer on a holding screen while the
// connector finishes asynchronously.
type WaitScreenInformation struct {
	DisplayFromTimestamp int64  `json:"display_from_timestamp"`
	DisplayToTimestamp   *int64 `json:"display_to_timestamp,omitempty"`
}

// SDKNextAction instructs a client-side SDK which step to run next.
type SDKNextAction struct {
	NextAction string `json:"next_action"`
}

// RedirectToURL sends the customer's browser to a hosted continuation page.
type RedirectToURL struct {
	RedirectToURL string `json:"redirect_to_url"`
}

// ThreeDSMethodDetails is the hidden-iframe device-fingerprinting step of a
// 3-D Secure challenge.
type ThreeDSMethodDetails struct {
	ThreeDSMethodKey            string  `json:"three_ds_method_key"`
	ThreeDSMethodDataSubmission bool    `json:"three_ds_method_data_submission"`
	ThreeDSMethodData           *string `json:"three_ds_method_data,omitempty"`
	ThreeDSMethodURL            *string `json:"three_ds_method_url,omitempty"`
}

// PollConfigResponse tells the client how to poll for the challenge result.
type PollConfigResponse struct {
	PollID      string `json:"poll_id"`
	DelayInSecs int    `json:"delay_in_secs"`
	Frequency   int    `json:"frequency"`
}

// ThreeDSInvoke carries everything a client needs to run an external
// 3-D Secure challenge.
type ThreeDSInvoke struct {
	ThreeDSAuthenticationURL string               `json:"three_ds_authentication_url"`
	ThreeDSAuthorizeURL      string               `json:"three_ds_authorize_url"`
	ThreeDSMethodDetails     ThreeDSMethodDetails `json:"three_ds_method_details"`
	PollConfig               PollConfigResponse   `json:"poll_config"`
	MessageVersion           *string              `json:"message_version,omitempty"`
	DirectoryServerID        *string              `json:"directory_server_id,omitempty"`
}

// NextAction is the resolved variant. Exactly one payload field matching
// Kind is populated.
type NextAction struct {
	Kind           Kind                      `json:"type"`
	RedirectToURL  *RedirectToURL            `json:"redirect_to_url,omitempty"`
	BankTransfer   *BankTransferInstructions `json:"bank_transfer_steps_and_charges_details,omitempty"`
	Voucher        *VoucherDetails           `json:"voucher_details,omitempty"`
	QRCode         *QRCodeInformation        `json:"qr_code_information,omitempty"`
	FetchQRCodeURL *FetchQRCodeInformation   `json:"fetch_qr_code_information,omitempty"`
	InvokeSDK      *SDKNextAction            `json:"sdk_next_action,omitempty"`
	WaitScreen     *WaitScreenInformation    `json:"wait_screen_information,omitempty"`
	ThreeDSInvoke  *ThreeDSInvoke            `json:"three_ds_data,omitempty"`
	SessionToken   json.RawMessage           `json:"session_token,omitempty"`
}

// Operation tags the API operation a response is being assembled for; the
// decision procedure branches on it.
type Operation string

const (
	OperationConfirm  Operation = "PaymentConfirm"
	OperationStartPay Operation = "PaymentStart"
	OperationStatus   Operation = "PaymentStatus"
	OperationUpdate   Operation = "PaymentUpdate"
)

// metadata wrapper shapes probed out of the attempt's connector metadata.
type bankTransferMeta struct {
	BankTransferInstructions *BankTransferInstructions `json:"bank_transfer_instructions"`
}
type voucherMeta struct {
	VoucherDetails *VoucherDetails `json:"voucher_details"`
}
type qrMeta struct {
	QRCodeInformation *QRCodeInformation `json:"qr_code_information"`
}
type fetchQRMeta struct {
	FetchQRCodeInformation *FetchQRCodeInformation `json:"fetch_qr_code_information"`
}
type sdkMeta struct {
	SDKNextAction *SDKNextAction `json:"sdk_next_action"`
}
type waitMeta struct {
	WaitScreenInformation *WaitScreenInformation `json:"wait_screen_information"`
}

// bankTransferProbe is the one strict probe: a bank-transfer payment (other
// than Pix, which completes in-app) with unreadable metadata is a data
// error, not a missing hint.
func bankTransferProbe(attempt domain.PaymentAttempt) (*BankTransferInstructions, error) {
	if attempt.PaymentMethod != domain.PaymentMethodBankTransfer {
		return nil, nil
	}
	if attempt.PaymentMethodType != nil && *attempt.PaymentMethodType == domain.PaymentMethodTypePix {
		return nil, nil
	}
	if len(attempt.ConnectorMetadata) == 0 {
		return nil, nil
	}
	var meta bankTransferMeta
	if err := json.Unmarshal(attempt.ConnectorMetadata, &meta); err != nil {
		return nil, &payerrors.ParsingFailedError{FromType: "connector_metadata", ToType: "BankTransferInstructions", Err: err}
	}
	return meta.BankTransferInstructions, nil
}

// voucherProbe is lenient but applies only to voucher payments; other
// methods may carry a voucher_details key in pass-through metadata without
// owing the customer a voucher screen.
func voucherProbe(attempt domain.PaymentAttempt) *VoucherDetails {
	if attempt.PaymentMethod != domain.PaymentMethodVoucher {
		return nil
	}
	meta := fields.ParseStructLenient[voucherMeta](attempt.ConnectorMetadata)
	if meta == nil {
		return nil
	}
	return meta.VoucherDetails
}

// Resolver computes the next action for a payment response.
type Resolver struct {
	baseURL string
	rules   *SessionTokenRules
}

// NewResolver builds a Resolver. The base URL anchors derived poll and
// authentication URLs; rules gate the third-party SDK session override.
func NewResolver(baseURL string, rules *SessionTokenRules) *Resolver {
	if rules == nil {
		panic("nextaction: nil session token rules")
	}
	return &Resolver{baseURL: baseURL, rules: rules}
}

// Resolve evaluates the decision procedure and returns at most one next
// action. Returning (nil, nil) means the payment needs nothing from the
// client.
func (r *Resolver) Resolve(op Operation, record *domain.PaymentRecord) (*NextAction, error) {
	resolved, err := r.resolveBase(record)
	if err != nil {
		return nil, err
	}

	// The confirm-time third-party SDK session override is independent of
	// the base resolution and replaces it outright, even when no session
	// token has been collected yet.
	if op == OperationConfirm && r.rules.Eligible(record.Attempt) {
		action := &NextAction{Kind: KindThirdPartySDKSession}
		if len(record.SessionTokens) > 0 {
			action.SessionToken = record.SessionTokens[0]
		}
		return action, nil
	}
	return resolved, nil
}

func (r *Resolver) resolveBase(record *domain.PaymentRecord) (*NextAction, error) {
	attempt := record.Attempt

	bankTransfer, err := bankTransferProbe(attempt)
	if err != nil {
		return nil, err
	}
	voucher := voucherProbe(attempt)
	qr := fields.ParseStructLenient[qrMeta](attempt.ConnectorMetadata)
	fetchQR := fields.ParseStructLenient[fetchQRMeta](attempt.ConnectorMetadata)
	sdk := fields.ParseStructLenient[sdkMeta](attempt.ConnectorMetadata)
	wait := fields.ParseStructLenient[waitMeta](attempt.ConnectorMetadata)

	switch {
	case bankTransfer != nil:
		return &NextAction{Kind: KindBankTransfer, BankTransfer: bankTransfer}, nil
	case voucher != nil:
		return &NextAction{Kind: KindVoucher, Voucher: voucher}, nil
	case qr != nil && qr.QRCodeInformation != nil:
		return &NextAction{Kind: KindQRCode, QRCode: qr.QRCodeInformation}, nil
	case fetchQR != nil && fetchQR.FetchQRCodeInformation != nil:
		return &NextAction{Kind: KindFetchQRCodeURL, FetchQRCodeURL: fetchQR.FetchQRCodeInformation}, nil
	case sdk != nil && sdk.SDKNextAction != nil:
		return &NextAction{Kind: KindInvokeSDK, InvokeSDK: sdk.SDKNextAction}, nil
	case wait != nil && wait.WaitScreenInformation != nil:
		return &NextAction{Kind: KindWaitScreen, WaitScreen: wait.WaitScreenInformation}, nil
	case len(attempt.AuthenticationData) > 0:
		return &NextAction{
			Kind: KindRedirectToURL,
			RedirectToURL: &RedirectToURL{
				RedirectToURL: fmt.Sprintf("%s/payments/redirect/%s/%s/%s",
					r.baseURL, record.Intent.PaymentID, record.Intent.MerchantID, attempt.AttemptID),
			},
		}, nil
	}

	return r.threeDSInvoke(record)
}

// threeDSInvoke fires only for an intent awaiting customer action whose
// external challenge has not yet produced a CAVV.
func (r *Resolver) threeDSInvoke(record *domain.PaymentRecord) (*NextAction, error) {
	auth := record.Authentication
	if record.Intent.Status != domain.IntentStatusRequiresCustomerAction ||
		auth == nil || auth.CAVV != nil || !auth.SeparateAuthenticationRequired() {
		return nil, nil
	}
	if record.Attempt.Connector == "" {
		return nil, payerrors.MissingField("connector")
	}

	poll := domain.DefaultPollConfig()
	if record.PollConfig != nil {
		poll = *record.PollConfig
	}
	invoke := &ThreeDSInvoke{
		ThreeDSAuthenticationURL: fmt.Sprintf("%s/payments/%s/3ds/authentication", r.baseURL, record.Intent.PaymentID),
		ThreeDSAuthorizeURL:      fmt.Sprintf("%s/payments/%s/%s/authorize/%s", r.baseURL, record.Intent.PaymentID, record.Intent.MerchantID, record.Attempt.Connector),
		ThreeDSMethodDetails: ThreeDSMethodDetails{
			ThreeDSMethodKey:            "threeDSMethodData",
			ThreeDSMethodDataSubmission: auth.ThreeDSMethodURL != nil,
			ThreeDSMethodData:           auth.ThreeDSMethodData,
			ThreeDSMethodURL:            auth.ThreeDSMethodURL,
		},
		PollConfig: PollConfigResponse{
			PollID:      "external_authentication_" + record.Attempt.AttemptID,
			DelayInSecs: poll.DelayInSecs,
			Frequency:   poll.Frequency,
		},
		MessageVersion:    auth.MessageVersion,
		DirectoryServerID: auth.DirectoryServerID,
	}
	return &NextAction{Kind: KindThreeDSInvoke, ThreeDSInvoke: invoke}, nil
}
