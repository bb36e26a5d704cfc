package flows

import (
	"context"
	"fmt"

	"github.com/yourorg/payment-router/internal/card"
	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/fields"
	"github.com/yourorg/payment-router/internal/metrics"
	"github.com/yourorg/payment-router/internal/payerrors"
)

// countBuildFailure feeds the build-failure counter from a builder's named
// error return.
func countBuildFailure(flow Flow, err *error) {
	if *err != nil {
		metrics.BuildFailures.WithLabelValues(string(flow)).Inc()
	}
}

// paymentMethodData resolves the instrument for an authorize-family flow.
// A recurring charge against a stored mandate may arrive without fresh
// method data; it gets a mandate placeholder instead of failing.
func paymentMethodData(record *domain.PaymentRecord) (domain.PaymentMethodData, error) {
	if record.PaymentMethodData != nil {
		return *record.PaymentMethodData, nil
	}
	if record.MandateID != nil {
		return domain.PaymentMethodData{Kind: domain.PaymentMethodDataMandate}, nil
	}
	return domain.PaymentMethodData{}, payerrors.MissingField("payment_method_data")
}

// cardIssuer classifies the card network from the number. Unrecognized BIN
// ranges are tolerated here; connectors that need the network fail later.
func cardIssuer(pmd domain.PaymentMethodData) *card.Issuer {
	if pmd.Kind != domain.PaymentMethodDataCard || pmd.Card == nil {
		return nil
	}
	issuer, err := card.ClassifyNumber(pmd.Card.Number)
	if err != nil {
		return nil
	}
	return &issuer
}

// cardExpiry normalizes a card's expiry to MM/YY. Unlike the issuer hint
// this is strict: an out-of-range month is merchant-supplied bad data.
func cardExpiry(pmd domain.PaymentMethodData) (*string, error) {
	if pmd.Kind != domain.PaymentMethodDataCard || pmd.Card == nil {
		return nil, nil
	}
	exp, err := card.ExpiryDate(*pmd.Card, "/")
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// optionalBrowserInfo parses browser info strictly when the attempt carries
// it; absence is fine for non-3DS flows.
func optionalBrowserInfo(attempt domain.PaymentAttempt) (*domain.BrowserInformation, error) {
	if len(attempt.BrowserInfo) == 0 {
		return nil, nil
	}
	return fields.BrowserInfo(attempt)
}

// orderDetails parses the intent's order lines. Any malformed line fails the
// operation; connectors reject partial order data anyway.
func orderDetails(intent domain.PaymentIntent) ([]OrderDetail, error) {
	if len(intent.OrderDetails) == 0 {
		return nil, nil
	}
	out := make([]OrderDetail, 0, len(intent.OrderDetails))
	for i, raw := range intent.OrderDetails {
		detail, err := fields.ParseStruct[OrderDetail](raw, "order_details")
		if err != nil {
			return nil, fmt.Errorf("order_details[%d]: %w", i, err)
		}
		out = append(out, detail)
	}
	return out, nil
}

type orderCategoryMeta struct {
	OrderCategory *string `json:"order_category,omitempty"`
}

// orderCategory is a heuristic connector-metadata hint; malformed metadata
// yields no category rather than an error.
func orderCategory(intent domain.PaymentIntent) *string {
	meta := fields.ParseStructLenient[orderCategoryMeta](intent.ConnectorMetadata)
	if meta == nil {
		return nil
	}
	return meta.OrderCategory
}

// requireConnectorTransactionID resolves the connector transaction id
// through the connector's capability hook and fails when the connector has
// not acknowledged the attempt.
func requireConnectorTransactionID(c *BuilderContext, attempt domain.PaymentAttempt) (string, error) {
	handle := c.Registry.Get(c.MerchantAccount.ConnectorName)
	id, err := handle.TransactionID.ResolveTransactionID(attempt)
	if err != nil {
		return "", err
	}
	if id == nil {
		return "", fmt.Errorf("attempt %s: %w", attempt.AttemptID, payerrors.ErrResourceIDNotFound)
	}
	return *id, nil
}

func optionalConnectorTransactionID(c *BuilderContext, attempt domain.PaymentAttempt) (*string, error) {
	handle := c.Registry.Get(c.MerchantAccount.ConnectorName)
	return handle.TransactionID.ResolveTransactionID(attempt)
}

func coalesceEmail(record *domain.PaymentRecord, snapshot *domain.CustomerSnapshot) *string {
	if record.Email != nil {
		return record.Email
	}
	if snapshot != nil && snapshot.Email != nil {
		return snapshot.Email
	}
	if b := record.Address.EffectiveBilling(); b != nil && b.Email != nil {
		return b.Email
	}
	return nil
}

// BuildAuthorize constructs the authorize request for a confirmed intent.
func BuildAuthorize(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord, snapshot *domain.CustomerSnapshot) (_ *RouterData[AuthorizeRequest], err error) {
	defer countBuildFailure(FlowAuthorize, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	billingCountry, err := fields.BillingCountry(record.Address)
	if err != nil {
		return nil, err
	}
	pmd, err := paymentMethodData(record)
	if err != nil {
		return nil, err
	}
	expiry, err := cardExpiry(pmd)
	if err != nil {
		return nil, err
	}
	browserInfo, err := optionalBrowserInfo(record.Attempt)
	if err != nil {
		return nil, err
	}
	details, err := orderDetails(record.Intent)
	if err != nil {
		return nil, err
	}

	var customerName *string
	if snapshot != nil {
		customerName = snapshot.Name
	}

	request := AuthorizeRequest{
		PaymentMethodData:  pmd,
		Amount:             record.EffectiveAmount(),
		Currency:           record.Intent.Currency,
		Confirm:            record.Attempt.Confirm,
		BillingCountry:     billingCountry,
		CardIssuer:         cardIssuer(pmd),
		CardExpiry:         expiry,
		CaptureMethod:      record.Attempt.CaptureMethod,
		AuthenticationType: record.Attempt.AuthenticationType,
		SetupFutureUsage:   record.Intent.SetupFutureUsage,
		OffSession:         record.Intent.OffSession,
		MandateID:          record.MandateID,
		SetupMandate:       record.SetupMandate,
		BrowserInfo:        browserInfo,
		OrderDetails:       details,
		OrderCategory:      orderCategory(record.Intent),
		Email:              coalesceEmail(record, snapshot),
		CustomerName:       customerName,
		CustomerID:         record.Intent.CustomerID,

		StatementDescriptor:       record.Intent.StatementDescriptorName,
		StatementDescriptorSuffix: record.Intent.StatementDescriptorSuffix,

		RouterReturnURL:        c.RouterReturnURL(record),
		WebhookURL:             c.WebhookURL(record.Intent.MerchantID),
		CompleteAuthorizeURL:   c.CompleteAuthorizeURL(record),
		MerchantOrderReference: record.Intent.MerchantOrderReferenceID,

		SurchargeDetails:                record.SurchargeDetails,
		RequestIncrementalAuthorization: record.Intent.RequestIncrementalAuthorization,
		Metadata:                        record.Intent.Metadata,
		ShippingCost:                    record.Intent.ShippingCost,
	}
	return BuildRouterData(ctx, c, FlowAuthorize, record, request)
}

// BuildSync constructs the payment-sync request, switching to
// multiple-capture mode when capture tracking data exists.
func BuildSync(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord) (_ *RouterData[SyncRequest], err error) {
	defer countBuildFailure(FlowSync, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	id, err := optionalConnectorTransactionID(c, record.Attempt)
	if err != nil {
		return nil, err
	}
	resourceID := NoResponseID()
	switch {
	case id != nil:
		resourceID = ConnectorTransactionID(*id)
	case record.Attempt.EncodedData != nil:
		resourceID = EncodedData(*record.Attempt.EncodedData)
	}

	request := SyncRequest{
		ResourceID:    resourceID,
		EncodedData:   record.Attempt.EncodedData,
		Mode:          SyncSingle,
		Amount:        record.EffectiveAmount(),
		Currency:      record.Intent.Currency,
		MandateID:     record.MandateID,
		CaptureMethod: record.Attempt.CaptureMethod,
		PaymentMethod: record.Attempt.PaymentMethod,
	}
	if record.MultipleCaptureData != nil {
		request.Mode = SyncMultipleCaptures
		request.PendingConnectorCaptureIDs = record.MultipleCaptureData.PendingConnectorCaptureIDs()
	}
	return BuildRouterData(ctx, c, FlowSync, record, request)
}

// BuildCapture constructs the capture request. In multi-capture mode the
// request carries the next sequence number and the latest capture reference.
func BuildCapture(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord) (_ *RouterData[CaptureRequest], err error) {
	defer countBuildFailure(FlowCapture, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	txnID, err := requireConnectorTransactionID(c, record.Attempt)
	if err != nil {
		return nil, err
	}

	amountToCapture := record.EffectiveAmount()
	if record.Attempt.AmountToCapture != nil {
		amountToCapture = *record.Attempt.AmountToCapture
	}

	request := CaptureRequest{
		ConnectorTransactionID: txnID,
		AmountToCapture:        amountToCapture,
		PaymentAmount:          record.EffectiveAmount(),
		Currency:               record.Intent.Currency,
		ConnectorMetadata:      record.Attempt.ConnectorMetadata,
	}
	if mc := record.MultipleCaptureData; mc != nil {
		request.CaptureSequence = mc.CapturesCount() + 1
		if latest := mc.LatestCapture(); latest != nil {
			request.LatestCaptureID = latest.ConnectorCaptureID
			request.MultipleCaptureID = &latest.CaptureID
		}
	}
	return BuildRouterData(ctx, c, FlowCapture, record, request)
}

// BuildCancel constructs the void request for an uncaptured authorization.
func BuildCancel(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord) (_ *RouterData[CancelRequest], err error) {
	defer countBuildFailure(FlowCancel, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	txnID, err := requireConnectorTransactionID(c, record.Attempt)
	if err != nil {
		return nil, err
	}
	request := CancelRequest{
		ConnectorTransactionID: txnID,
		Amount:                 record.EffectiveAmount(),
		Currency:               record.Intent.Currency,
		CancellationReason:     record.Attempt.CancellationReason,
	}
	return BuildRouterData(ctx, c, FlowCancel, record, request)
}

// BuildApprove constructs the approve request for a payment held in review.
func BuildApprove(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord) (_ *RouterData[ApproveRequest], err error) {
	defer countBuildFailure(FlowApprove, &err)
	request := ApproveRequest{
		Amount:   record.EffectiveAmount(),
		Currency: record.Intent.Currency,
	}
	return BuildRouterData(ctx, c, FlowApprove, record, request)
}

// BuildReject constructs the reject request for a payment held in review.
func BuildReject(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord) (_ *RouterData[RejectRequest], err error) {
	defer countBuildFailure(FlowReject, &err)
	request := RejectRequest{
		Amount:   record.EffectiveAmount(),
		Currency: record.Intent.Currency,
	}
	return BuildRouterData(ctx, c, FlowReject, record, request)
}

// BuildSetupMandate constructs the zero-amount mandate registration request.
func BuildSetupMandate(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord, snapshot *domain.CustomerSnapshot) (_ *RouterData[SetupMandateRequest], err error) {
	defer countBuildFailure(FlowSetupMandate, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	pmd, err := paymentMethodData(record)
	if err != nil {
		return nil, err
	}
	browserInfo, err := optionalBrowserInfo(record.Attempt)
	if err != nil {
		return nil, err
	}
	request := SetupMandateRequest{
		PaymentMethodData:  pmd,
		Currency:           record.Intent.Currency,
		Confirm:            record.Attempt.Confirm,
		CustomerAcceptance: record.CustomerAcceptance,
		MandateID:          record.MandateID,
		SetupFutureUsage:   record.Intent.SetupFutureUsage,
		OffSession:         record.Intent.OffSession,
		SetupMandate:       record.SetupMandate,
		BrowserInfo:        browserInfo,
		Email:              coalesceEmail(record, snapshot),
		CustomerID:         record.Intent.CustomerID,

		RouterReturnURL:      c.RouterReturnURL(record),
		WebhookURL:           c.WebhookURL(record.Intent.MerchantID),
		CompleteAuthorizeURL: c.CompleteAuthorizeURL(record),

		StatementDescriptor: record.Intent.StatementDescriptorName,
	}
	return BuildRouterData(ctx, c, FlowSetupMandate, record, request)
}

// BuildCompleteAuthorize constructs the redirect-resume request.
func BuildCompleteAuthorize(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord, snapshot *domain.CustomerSnapshot) (_ *RouterData[CompleteAuthorizeRequest], err error) {
	defer countBuildFailure(FlowCompleteAuthorize, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	browserInfo, err := optionalBrowserInfo(record.Attempt)
	if err != nil {
		return nil, err
	}
	txnID, err := optionalConnectorTransactionID(c, record.Attempt)
	if err != nil {
		return nil, err
	}
	request := CompleteAuthorizeRequest{
		Amount:                 record.EffectiveAmount(),
		Currency:               record.Intent.Currency,
		PaymentMethodData:      record.PaymentMethodData,
		BrowserInfo:            browserInfo,
		ConnectorTransactionID: txnID,
		ConnectorMetadata:      record.Attempt.ConnectorMetadata,
		CompleteAuthorizeURL:   c.CompleteAuthorizeURL(record),
		Email:                  coalesceEmail(record, snapshot),
		SetupFutureUsage:       record.Intent.SetupFutureUsage,
		OffSession:             record.Intent.OffSession,
		MandateID:              record.MandateID,
		CaptureMethod:          record.Attempt.CaptureMethod,
	}
	if rr := record.RedirectResponse; rr != nil {
		request.RedirectParams = rr.Params
		request.RedirectPayload = rr.JSONPayload
	}
	return BuildRouterData(ctx, c, FlowCompleteAuthorize, record, request)
}

// BuildPreProcessing constructs the pre-authorization step request.
func BuildPreProcessing(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord, snapshot *domain.CustomerSnapshot) (_ *RouterData[PreProcessingRequest], err error) {
	defer countBuildFailure(FlowPreProcessing, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	browserInfo, err := optionalBrowserInfo(record.Attempt)
	if err != nil {
		return nil, err
	}
	details, err := orderDetails(record.Intent)
	if err != nil {
		return nil, err
	}
	txnID, err := optionalConnectorTransactionID(c, record.Attempt)
	if err != nil {
		return nil, err
	}

	amount := record.EffectiveAmount()
	currency := record.Intent.Currency
	request := PreProcessingRequest{
		Amount:            &amount,
		Currency:          &currency,
		PaymentMethodData: record.PaymentMethodData,
		PaymentMethodType: record.Attempt.PaymentMethodType,
		BrowserInfo:       browserInfo,
		OrderDetails:      details,
		Email:             coalesceEmail(record, snapshot),

		ConnectorTransactionID: txnID,
		ConnectorMetadata:      record.Attempt.ConnectorMetadata,

		RouterReturnURL:      c.RouterReturnURL(record),
		WebhookURL:           c.WebhookURL(record.Intent.MerchantID),
		CompleteAuthorizeURL: c.CompleteAuthorizeURL(record),
		SurchargeDetails:     record.SurchargeDetails,
		MandateID:            record.MandateID,
		CaptureMethod:        record.Attempt.CaptureMethod,
		SetupMandate:         record.SetupMandate,
	}
	if rr := record.RedirectResponse; rr != nil {
		request.RedirectParams = rr.Params
		request.RedirectPayload = rr.JSONPayload
	}
	return BuildRouterData(ctx, c, FlowPreProcessing, record, request)
}

// BuildIncrementalAuthorization constructs the authorization-bump request.
// Missing bump details are a programming-contract violation upstream, not a
// merchant input error.
func BuildIncrementalAuthorization(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord) (_ *RouterData[IncrementalAuthorizationRequest], err error) {
	defer countBuildFailure(FlowIncrementalAuthorization, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	details := record.IncrementalAuthorizationDetails
	if details == nil {
		return nil, fmt.Errorf("incremental authorization on %s without pending details: %w",
			record.Intent.PaymentID, payerrors.ErrInternal)
	}
	txnID, err := requireConnectorTransactionID(c, record.Attempt)
	if err != nil {
		return nil, err
	}
	request := IncrementalAuthorizationRequest{
		ConnectorTransactionID: txnID,
		TotalAmount:            details.TotalAmount,
		AdditionalAmount:       details.AdditionalAmount,
		Currency:               record.Intent.Currency,
		Reason:                 details.Reason,
	}
	return BuildRouterData(ctx, c, FlowIncrementalAuthorization, record, request)
}

// resolveOrderTaxAmount picks the tax amount for the active payment-method
// type, falling back to the intent-wide default.
func resolveOrderTaxAmount(intent domain.PaymentIntent) (int64, error) {
	td := intent.TaxDetails
	if td == nil {
		return 0, payerrors.MissingField("tax_details")
	}
	if td.PaymentMethodType != nil {
		return td.PaymentMethodType.OrderTaxAmount, nil
	}
	if td.Default != nil {
		return td.Default.OrderTaxAmount, nil
	}
	return 0, payerrors.MissingField("tax_details.payment_method_type")
}

// BuildSessionUpdate constructs the order-total update for an open connector
// session: net amount is the intent amount plus order tax.
func BuildSessionUpdate(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord) (_ *RouterData[SessionUpdateRequest], err error) {
	defer countBuildFailure(FlowSessionUpdate, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	if record.SessionID == nil {
		return nil, payerrors.MissingField("session_id")
	}
	tax, err := resolveOrderTaxAmount(record.Intent)
	if err != nil {
		return nil, err
	}
	request := SessionUpdateRequest{
		Amount:         record.Intent.Amount,
		OrderTaxAmount: tax,
		NetAmount:      record.Intent.Amount + tax,
		Currency:       record.Intent.Currency,
		SessionID:      *record.SessionID,
	}
	return BuildRouterData(ctx, c, FlowSessionUpdate, record, request)
}

// BuildSession constructs the session-token creation request for wallet and
// SDK flows. Billing country is optional here; wallets supply their own.
func BuildSession(ctx context.Context, c *BuilderContext, record *domain.PaymentRecord, snapshot *domain.CustomerSnapshot) (_ *RouterData[SessionRequest], err error) {
	defer countBuildFailure(FlowSession, &err)
	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	details, err := orderDetails(record.Intent)
	if err != nil {
		return nil, err
	}
	var country *string
	if b := record.Address.EffectiveBilling(); b != nil && b.Address != nil {
		country = b.Address.Country
	}
	request := SessionRequest{
		Amount:           record.EffectiveAmount(),
		Currency:         record.Intent.Currency,
		CountryCode:      country,
		OrderDetails:     details,
		Email:            coalesceEmail(record, snapshot),
		SurchargeDetails: record.SurchargeDetails,
	}
	return BuildRouterData(ctx, c, FlowSession, record, request)
}
