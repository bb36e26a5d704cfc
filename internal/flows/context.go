package flows

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/yourorg/payment-router/internal/connector"
	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/payerrors"
	"github.com/yourorg/payment-router/internal/storage"
)

// BuilderContext carries the injected collaborators every flow builder
// needs. The context is shared across builders and never mutated by them.
type BuilderContext struct {
	// BaseURL is the externally reachable gateway origin used to derive
	// redirect and webhook callback URLs.
	BaseURL         string
	MerchantAccount domain.MerchantConnectorAccount
	Registry        *connector.Registry
	Configs         storage.ConfigStore
}

// NewBuilderContext validates and assembles a BuilderContext.
func NewBuilderContext(baseURL string, account domain.MerchantConnectorAccount, registry *connector.Registry, configs storage.ConfigStore) (*BuilderContext, error) {
	if registry == nil {
		panic("flows: nil connector registry")
	}
	if configs == nil {
		panic("flows: nil config store")
	}
	if baseURL == "" {
		return nil, payerrors.MissingField("base_url")
	}
	return &BuilderContext{
		BaseURL:         baseURL,
		MerchantAccount: account,
		Registry:        registry,
		Configs:         configs,
	}, nil
}

// RouterReturnURL is the URL the connector redirects the customer back to
// after off-site authentication. A creds identifier distinguishes
// merchant-supplied connector credentials in the resume path.
func (c *BuilderContext) RouterReturnURL(record *domain.PaymentRecord) string {
	base := fmt.Sprintf("%s/payments/%s/%s/redirect/response/%s",
		c.BaseURL, record.Intent.PaymentID, record.Intent.MerchantID, c.MerchantAccount.ConnectorName)
	if record.CredsIdentifier != nil {
		return base + "/" + *record.CredsIdentifier
	}
	return base
}

// WebhookURL is where the connector posts asynchronous events for this
// merchant connector account.
func (c *BuilderContext) WebhookURL(merchantID string) string {
	return fmt.Sprintf("%s/webhooks/%s/%s", c.BaseURL, merchantID, c.MerchantAccount.MerchantConnectorID)
}

// CompleteAuthorizeURL is the resume endpoint for connectors that require a
// second authorize call after redirect completion.
func (c *BuilderContext) CompleteAuthorizeURL(record *domain.PaymentRecord) string {
	return fmt.Sprintf("%s/payments/%s/%s/redirect/complete/%s",
		c.BaseURL, record.Intent.PaymentID, record.Intent.MerchantID, c.MerchantAccount.ConnectorName)
}

// StartPayURL is the hosted page that replays a stored redirect form to the
// customer's browser.
func (c *BuilderContext) StartPayURL(record *domain.PaymentRecord) string {
	return fmt.Sprintf("%s/payments/redirect/%s/%s/%s",
		c.BaseURL, record.Intent.PaymentID, record.Intent.MerchantID, record.Attempt.AttemptID)
}

// PollStatusURL is where a client polls for an external authentication
// result.
func (c *BuilderContext) PollStatusURL(pollID string) string {
	return fmt.Sprintf("%s/poll/status/%s", c.BaseURL, pollID)
}

// ensureAccountActive fails fast on a disabled merchant connector account,
// before any request construction or field validation runs.
func (c *BuilderContext) ensureAccountActive() error {
	if c.MerchantAccount.Disabled {
		return fmt.Errorf("merchant connector %s: %w",
			c.MerchantAccount.MerchantConnectorID, payerrors.ErrMerchantConnectorAccountDisabled)
	}
	return nil
}

// apiVersion resolves the connector API-version pin from the config store.
// An unset pin is the connector default, not an error.
func (c *BuilderContext) apiVersion(ctx context.Context, handle connector.Handle) (*string, error) {
	if handle.APIVersionConfigKey == "" {
		return nil, nil
	}
	v, err := c.Configs.FindConfigByKey(ctx, handle.APIVersionConfigKey)
	if errors.Is(err, payerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve api version: %w", err)
	}
	return &v, nil
}

// BuildRouterData assembles the dispatch envelope around an already-built
// flow request. The merchant connector account's disabled flag is checked
// before anything else so disabled accounts fail fast.
func BuildRouterData[Req any](ctx context.Context, c *BuilderContext, flow Flow, record *domain.PaymentRecord, request Req) (*RouterData[Req], error) {
	_, span := otel.Tracer("flows").Start(ctx, "build_router_data")
	defer span.End()

	if err := c.ensureAccountActive(); err != nil {
		return nil, err
	}
	auth, err := connector.ParseAuthType(c.MerchantAccount.AuthDetails)
	if err != nil {
		return nil, fmt.Errorf("parse connector auth: %w", err)
	}
	handle := c.Registry.Get(c.MerchantAccount.ConnectorName)
	apiVersion, err := c.apiVersion(ctx, handle)
	if err != nil {
		return nil, err
	}

	return &RouterData[Req]{
		Flow:              flow,
		MerchantID:        record.Intent.MerchantID,
		PaymentID:         record.Intent.PaymentID,
		AttemptID:         record.Attempt.AttemptID,
		Connector:         c.MerchantAccount.ConnectorName,
		Status:            record.Attempt.Status,
		AuthType:          auth,
		ConnectorMetadata: c.MerchantAccount.Metadata,
		Address:           record.Address,
		ReturnURL:         record.Intent.ReturnURL,
		TestMode:          c.MerchantAccount.TestMode,
		APIVersion:        apiVersion,
		Request:           request,
	}, nil
}
