package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/yourorg/payment-router/internal/connector"
	"github.com/yourorg/payment-router/internal/crypto"
	"github.com/yourorg/payment-router/internal/domain"
	"github.com/yourorg/payment-router/internal/flows"
	"github.com/yourorg/payment-router/internal/logging"
	"github.com/yourorg/payment-router/internal/monitor"
	"github.com/yourorg/payment-router/internal/nextaction"
	"github.com/yourorg/payment-router/internal/response"
	"github.com/yourorg/payment-router/internal/storage"
)

type server struct {
	logger    *zap.Logger
	validator *monitor.RequestValidator
	unifier   *response.Unifier
	builder   *flows.BuilderContext
	records   *recordStore
}

// recordStore is the demo in-memory payment record holder; a real
// deployment replaces it with the persistence collaborator.
type recordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.PaymentRecord
}

func (s *recordStore) get(paymentID string) (*domain.PaymentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[paymentID]
	return r, ok
}

func (s *recordStore) put(r *domain.PaymentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.Intent.PaymentID] = r
}

type confirmRequest struct {
	Amount        int64                    `json:"amount"`
	Currency      domain.Currency          `json:"currency"`
	PaymentMethod domain.PaymentMethod     `json:"payment_method"`
	CaptureMethod *domain.CaptureMethod    `json:"capture_method,omitempty"`
	Card          *domain.Card             `json:"card,omitempty"`
	Billing       *domain.AddressWithPhone `json:"billing,omitempty"`
	// PaymentMethodBilling overrides Billing for this confirm, field by field.
	PaymentMethodBilling *domain.AddressWithPhone `json:"payment_method_billing,omitempty"`
	Description          *string                  `json:"description,omitempty"`
	ReturnURL            *string                  `json:"return_url,omitempty"`
	Email                *string                  `json:"email,omitempty"`
}

func (s *server) confirmPayment(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
		return
	}
	ok, violations, err := s.validator.Validate(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatViolations(violations)})
		return
	}

	var req confirmRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format: " + err.Error()})
		return
	}

	now := time.Now().UTC()
	record := &domain.PaymentRecord{
		Intent: domain.PaymentIntent{
			PaymentID:   c.Param("payment_id"),
			MerchantID:  c.GetHeader("X-Merchant-Id"),
			Status:      domain.IntentStatusRequiresConfirmation,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Description: req.Description,
			ReturnURL:   req.ReturnURL,
			CreatedAt:   now,
			ModifiedAt:  now,
		},
		Attempt: domain.PaymentAttempt{
			AttemptID:     uuid.NewString(),
			PaymentID:     c.Param("payment_id"),
			Status:        domain.AttemptStatusStarted,
			Amount:        req.Amount,
			Currency:      req.Currency,
			Connector:     s.builder.MerchantAccount.ConnectorName,
			PaymentMethod: req.PaymentMethod,
			CaptureMethod: req.CaptureMethod,
			Confirm:       true,
		},
		Address: domain.Address{Billing: req.Billing}.UnifyWithPaymentMethodBilling(req.PaymentMethodBilling),
		Email:   req.Email,
	}
	if req.Card != nil {
		record.PaymentMethodData = &domain.PaymentMethodData{
			Kind: domain.PaymentMethodDataCard,
			Card: req.Card,
		}
	}

	routerData, err := flows.BuildAuthorize(c.Request.Context(), s.builder, record, nil)
	if err != nil {
		s.logger.Warn("authorize build failed",
			zap.String("payment_id", record.Intent.PaymentID),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("authorize request built",
		zap.String("payment_id", routerData.PaymentID),
		zap.String("connector", routerData.Connector),
		zap.Int64("amount", routerData.Request.Amount))

	// Connector dispatch lives outside this core; the demo acknowledges the
	// attempt inline. Manual capture stops at authorization.
	txnID := "txn_" + uuid.NewString()
	record.Attempt.ConnectorTransactionID = &txnID
	if req.CaptureMethod != nil && *req.CaptureMethod != domain.CaptureMethodAutomatic {
		record.Attempt.Status = domain.AttemptStatusAuthorized
		record.Attempt.AmountCapturable = req.Amount
		record.Intent.Status = domain.IntentStatusRequiresCapture
	} else {
		record.Attempt.Status = domain.AttemptStatusCharged
		record.Intent.Status = domain.IntentStatusSucceeded
	}
	s.records.put(record)

	s.writeUnified(c, nextaction.OperationConfirm, record)
}

func (s *server) capturePayment(c *gin.Context) {
	record, ok := s.records.get(c.Param("payment_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	routerData, err := flows.BuildCapture(c.Request.Context(), s.builder, record)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("capture request built",
		zap.String("payment_id", routerData.PaymentID),
		zap.Int64("amount", routerData.Request.AmountToCapture))

	captured := routerData.Request.AmountToCapture
	record.Attempt.Status = domain.AttemptStatusCharged
	record.Attempt.AmountCapturable = 0
	record.Intent.Status = domain.IntentStatusSucceeded
	record.Intent.AmountCaptured = &captured
	s.records.put(record)

	s.writeUnified(c, nextaction.OperationStatus, record)
}

type cancelRequest struct {
	CancellationReason *string `json:"cancellation_reason,omitempty"`
}

func (s *server) cancelPayment(c *gin.Context) {
	record, ok := s.records.get(c.Param("payment_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}
	record.Attempt.CancellationReason = req.CancellationReason

	routerData, err := flows.BuildCancel(c.Request.Context(), s.builder, record)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("cancel request built",
		zap.String("payment_id", routerData.PaymentID),
		zap.String("connector_transaction_id", routerData.Request.ConnectorTransactionID))

	record.Attempt.Status = domain.AttemptStatusVoided
	record.Intent.Status = domain.IntentStatusCancelled
	s.records.put(record)

	s.writeUnified(c, nextaction.OperationStatus, record)
}

func (s *server) syncPayment(c *gin.Context) {
	record, ok := s.records.get(c.Param("payment_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	routerData, err := flows.BuildSync(c.Request.Context(), s.builder, record)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("sync request built",
		zap.String("payment_id", routerData.PaymentID),
		zap.String("sync_mode", string(routerData.Request.Mode)))

	s.writeUnified(c, nextaction.OperationStatus, record)
}

func (s *server) getPayment(c *gin.Context) {
	record, ok := s.records.get(c.Param("payment_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	s.writeUnified(c, nextaction.OperationStatus, record)
}

func (s *server) writeUnified(c *gin.Context, op nextaction.Operation, record *domain.PaymentRecord) {
	out, err := s.unifier.Generate(c.Request.Context(), response.Input{
		Operation: op,
		Record:    record,
	})
	if err != nil {
		s.logger.Error("response unification failed",
			zap.String("payment_id", record.Intent.PaymentID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for name, value := range out.Headers {
		c.Header(name, value)
	}
	if out.Kind == response.OutputForm {
		c.JSON(http.StatusOK, out.Form)
		return
	}
	c.JSON(http.StatusOK, out.Body)
}

// routes wires the HTTP surface: health, metrics and the payment demo
// endpoints.
func (s *server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware("payment-router"))
	engine.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.POST("/payments/:payment_id/confirm", s.confirmPayment)
	engine.POST("/payments/:payment_id/capture", s.capturePayment)
	engine.POST("/payments/:payment_id/cancel", s.cancelPayment)
	engine.GET("/payments/:payment_id/sync", s.syncPayment)
	engine.GET("/payments/:payment_id", s.getPayment)
	return engine
}

func initTracing(ctx context.Context, logger *zap.Logger) func() {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		logger.Fatal("init trace exporter", zap.Error(err))
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("trace provider shutdown", zap.Error(err))
		}
	}
}

// newConfigStore picks the Redis-backed config store when REDIS_URL is set,
// falling back to the in-memory store for single-instance runs.
func newConfigStore(logger *zap.Logger) storage.ConfigStore {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return storage.NewInMemoryConfigStore(nil)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Fatal("parse redis url", zap.Error(err))
	}
	logger.Info("config store backed by redis", zap.String("addr", opts.Addr))
	return storage.NewRedisConfigStore(redis.NewClient(opts), "payment_router:config")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.New(logging.Config{
		ServiceName: "payment-router",
		Env:         envOr("APP_ENV", "dev"),
		Level:       envOr("LOG_LEVEL", "info"),
		Format:      envOr("LOG_FORMAT", "json"),
	})
	defer logging.Sync(logger)

	shutdownTracing := initTracing(context.Background(), logger)
	defer shutdownTracing()

	validator, err := monitor.NewPaymentRequestValidator()
	if err != nil {
		logger.Fatal("compile request schema", zap.Error(err))
	}

	enc, err := crypto.NewAESGCMService([]byte(envOr("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")))
	if err != nil {
		logger.Fatal("init encryption service", zap.Error(err))
	}

	baseURL := envOr("BASE_URL", "http://localhost:8080")
	account := domain.MerchantConnectorAccount{
		MerchantConnectorID: envOr("MERCHANT_CONNECTOR_ID", "mca_demo"),
		ConnectorName:       envOr("CONNECTOR", "stripe"),
		TestMode:            true,
		AuthDetails:         json.RawMessage(`{"auth_type":"HeaderKey","api_key":"` + envOr("CONNECTOR_API_KEY", "sk_test_demo") + `"}`),
	}
	builder, err := flows.NewBuilderContext(baseURL, account, connector.DefaultRegistry(), newConfigStore(logger))
	if err != nil {
		logger.Fatal("init builder context", zap.Error(err))
	}

	resolver := nextaction.NewResolver(baseURL, nextaction.DefaultSessionTokenRules())
	srv := &server{
		logger:    logger,
		validator: validator,
		unifier:   response.NewUnifier(enc, resolver, logger),
		builder:   builder,
		records:   &recordStore{records: map[string]*domain.PaymentRecord{}},
	}

	engine := srv.routes()

	addr := ":" + envOr("PORT", "8080")
	logger.Info("starting server", zap.String("addr", addr))
	if err := engine.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
