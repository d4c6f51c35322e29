package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/banking/risk-engine/internal/alerting"
	"github.com/banking/risk-engine/internal/analysis"
	"github.com/banking/risk-engine/internal/cache"
	"github.com/banking/risk-engine/internal/config"
	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/pkg/logger"
	"github.com/banking/risk-engine/internal/pkg/metrics"
	"github.com/banking/risk-engine/internal/storage"
)

// Handler exposes the risk analysis engine over HTTP
type Handler struct {
	engine    *analysis.Engine
	source    storage.Source
	cache     *cache.Client
	publisher alerting.Publisher
	metrics   *metrics.Collector
	cfg       *config.Config
	log       *logger.Logger
}

// NewHandler creates the API handler with its dependencies
func NewHandler(
	engine *analysis.Engine,
	source storage.Source,
	cacheClient *cache.Client,
	publisher alerting.Publisher,
	collector *metrics.Collector,
	cfg *config.Config,
	log *logger.Logger,
) *Handler {
	return &Handler{
		engine:    engine,
		source:    source,
		cache:     cacheClient,
		publisher: publisher,
		metrics:   collector,
		cfg:       cfg,
		log:       log.Named("api"),
	}
}

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
}

func errorBody(msg, code string) ErrorResponse {
	return ErrorResponse{Status: "error", Error: msg, Code: code}
}

// RegisterRoutes attaches all endpoints to the echo instance
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/ping", h.Ping)

	api := e.Group("/api")
	api.POST("/risk-analysis", h.RiskAnalysis)
	api.GET("/stats", h.Stats)
	api.GET("/recent-transactions", h.RecentTransactions)
}

// RiskAnalysis runs a risk-correlation query. Absent request fields keep
// their defaults; explicit zeros are honored.
func (h *Handler) RiskAnalysis(c echo.Context) error {
	ctx := c.Request().Context()

	req := domain.DefaultAnalysisRequest()
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body", "INVALID_REQUEST"))
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error(), "VALIDATION_ERROR"))
	}
	req.Normalize(h.cfg.Analysis.DefaultLimit, h.cfg.Analysis.MaxLimit)

	// Cache key covers the normalized request, so equivalent queries share
	// one entry
	key := cache.AnalysisKey(req)
	if body, ok := h.cache.Get(ctx, key); ok {
		h.metrics.RecordCache(true)
		h.metrics.RecordQuery(0, "cached")
		return c.JSONBlob(http.StatusOK, body)
	}
	h.metrics.RecordCache(false)

	start := time.Now()
	resp, err := h.engine.Analyze(ctx, req)
	if err != nil {
		h.metrics.RecordQuery(time.Since(start), "error")
		return h.sendError(c, err)
	}
	h.metrics.RecordQuery(time.Since(start), "success")
	h.recordOutcome(resp)

	if body, err := json.Marshal(resp); err == nil {
		h.cache.Set(ctx, key, body, h.cfg.Redis.AnalysisTTL)
	}

	go h.publishAlerts(resp.QueryID, resp.Transactions)

	return c.JSON(http.StatusOK, resp)
}

// Stats returns data source summary counts
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	if body, ok := h.cache.Get(ctx, cache.StatsKey); ok {
		h.metrics.RecordCache(true)
		return c.JSONBlob(http.StatusOK, body)
	}
	h.metrics.RecordCache(false)

	threshold := decimal.NewFromInt(h.cfg.Analysis.LargeAmountThreshold)
	stats, err := h.source.Stats(ctx, threshold)
	if err != nil {
		return h.sendError(c, err)
	}

	body, err := json.Marshal(stats)
	if err != nil {
		return c.JSON(http.StatusOK, stats)
	}
	h.cache.Set(ctx, cache.StatsKey, body, h.cfg.Redis.StatsTTL)
	return c.JSONBlob(http.StatusOK, body)
}

// RecentTransactions returns the latest transactions, newest first
func (h *Handler) RecentTransactions(c echo.Context) error {
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, errorBody("limit must be a positive integer", "INVALID_LIMIT"))
		}
		limit = n
	}
	if limit > 100 {
		limit = 100
	}

	txs, err := h.source.RecentTransactions(c.Request().Context(), limit)
	if err != nil {
		return h.sendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// Health reports service and data source health
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := map[string]interface{}{
		"status":    "healthy",
		"service":   "risk-engine",
		"database":  "up",
		"timestamp": time.Now().UTC(),
	}
	if err := h.source.Ping(ctx); err != nil {
		resp["status"] = "degraded"
		resp["database"] = "down"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// Ping is a liveness probe
func (h *Handler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// publishAlerts emits one alert per high-tier record. Runs detached from
// the request so a slow broker never delays the response.
func (h *Handler) publishAlerts(queryID uuid.UUID, records []domain.RiskRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := range records {
		rec := &records[i]
		if !rec.IsHighRisk() {
			continue
		}
		alert := domain.NewRiskAlert(queryID, rec)
		if err := h.publisher.Publish(ctx, alert); err != nil {
			h.log.Warn("alert publish failed",
				logger.StringField("alert_id", alert.ID.String()),
				logger.Int64Field("transaction_id", rec.TransactionID),
				logger.ErrorField(err),
			)
			continue
		}
		h.log.AlertPublished(alert.ID.String(), rec.TransactionID, rec.SuspiciousAccount.AccountID, string(rec.RiskLevel))
	}
}

// recordOutcome tracks per-tier record counts and truncation
func (h *Handler) recordOutcome(resp *domain.AnalysisResponse) {
	counts := make(map[string]int, 3)
	for i := range resp.Transactions {
		counts[string(resp.Transactions[i].RiskLevel)]++
	}
	for tier, n := range counts {
		h.metrics.RecordTier(tier, n)
	}
	if resp.Truncated {
		h.metrics.RecordTruncation()
	}
}

// sendError maps engine and storage errors to HTTP statuses
func (h *Handler) sendError(c echo.Context, err error) error {
	status, code := classifyError(err)
	h.log.Warn("request failed",
		logger.StringField("path", c.Path()),
		logger.IntField("status", status),
		logger.StringField("code", code),
		logger.ErrorField(err),
	)
	return c.JSON(status, errorBody(err.Error(), code))
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, analysis.ErrInvalidWindow):
		return http.StatusBadRequest, "INVALID_WINDOW"
	case errors.Is(err, analysis.ErrSourceUnavailable), errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "QUERY_TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
