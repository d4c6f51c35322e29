package logger

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with risk-analysis-specific functionality
type Logger struct {
	*zap.Logger
	serviceName string
}

// ContextKey for request context values
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	QueryIDKey   ContextKey = "query_id"
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
)

// New creates a new logger instance
func New(serviceName, environment string, debug bool) (*Logger, error) {
	var config zap.Config

	if environment == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	// Add service metadata
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
		"env":     environment,
		"pid":     os.Getpid(),
	}

	zapLogger, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger:      zapLogger,
		serviceName: serviceName,
	}, nil
}

// NewNop returns a no-op logger for tests
func NewNop() *Logger {
	return &Logger{
		Logger:      zap.NewNop(),
		serviceName: "nop",
	}
}

// Named returns a named sub-logger
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		Logger:      l.Logger.Named(name),
		serviceName: l.serviceName,
	}
}

// WithContext returns a logger with context values
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := []zap.Field{}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if queryID, ok := ctx.Value(QueryIDKey).(string); ok && queryID != "" {
		fields = append(fields, zap.String("query_id", queryID))
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if spanID, ok := ctx.Value(SpanIDKey).(string); ok && spanID != "" {
		fields = append(fields, zap.String("span_id", spanID))
	}

	return &Logger{
		Logger:      l.With(fields...),
		serviceName: l.serviceName,
	}
}

// WithQuery returns a logger with analysis query context
func (l *Logger) WithQuery(queryID string) *Logger {
	return &Logger{
		Logger: l.With(
			zap.String("query_id", queryID),
		),
		serviceName: l.serviceName,
	}
}

// WithAccount returns a logger with account context
func (l *Logger) WithAccount(accountID int64) *Logger {
	return &Logger{
		Logger: l.With(
			zap.Int64("account_id", accountID),
		),
		serviceName: l.serviceName,
	}
}

// AnalysisStarted logs the start of a risk analysis query
func (l *Logger) AnalysisStarted(queryID, timeRange string, minA, minB int) {
	l.Info("risk analysis started",
		zap.String("query_id", queryID),
		zap.String("time_range", timeRange),
		zap.Int("min_metric_a", minA),
		zap.Int("min_metric_b", minB),
	)
}

// AnalysisCompleted logs the completion of a risk analysis query
func (l *Logger) AnalysisCompleted(queryID string, totalCount, candidates int, durationMs int64) {
	l.Info("risk analysis completed",
		zap.String("query_id", queryID),
		zap.Int("total_count", totalCount),
		zap.Int("candidates", candidates),
		zap.Int64("duration_ms", durationMs),
	)
}

// MetricComputed logs completion of one metric engine
func (l *Logger) MetricComputed(queryID, metric string, accounts int, durationMs int64) {
	l.Debug("metric computed",
		zap.String("query_id", queryID),
		zap.String("metric", metric),
		zap.Int("accounts", accounts),
		zap.Int64("duration_ms", durationMs),
	)
}

// WorkingSetTruncated logs when the candidate working set hits its cap
func (l *Logger) WorkingSetTruncated(queryID string, cap int) {
	l.Warn("candidate working set truncated",
		zap.String("query_id", queryID),
		zap.Int("cap", cap),
	)
}

// AccountIdentityMissing logs a transaction whose account lookup failed
func (l *Logger) AccountIdentityMissing(txID, accountID int64) {
	l.Warn("account identity missing, using placeholder",
		zap.Int64("transaction_id", txID),
		zap.Int64("account_id", accountID),
	)
}

// AlertPublished logs a published risk alert
func (l *Logger) AlertPublished(alertID string, txID, accountID int64, tier string) {
	l.Info("risk alert published",
		zap.String("alert_id", alertID),
		zap.Int64("transaction_id", txID),
		zap.Int64("account_id", accountID),
		zap.String("tier", tier),
	)
}

// SlowQuery logs when an analysis query exceeds the expected latency
func (l *Logger) SlowQuery(queryID string, durationMs, thresholdMs int64) {
	l.Warn("slow analysis query",
		zap.String("query_id", queryID),
		zap.Int64("duration_ms", durationMs),
		zap.Int64("threshold_ms", thresholdMs),
	)
}

// CacheHit logs a response cache hit
func (l *Logger) CacheHit(key string) {
	l.Debug("cache hit",
		zap.String("key", key),
	)
}

// Helper field functions

// ErrorField creates an error field
func ErrorField(err error) zap.Field {
	return zap.Error(err)
}

// DurationField creates a duration field
func DurationField(name string, d time.Duration) zap.Field {
	return zap.Duration(name, d)
}

// StringField creates a string field
func StringField(key, value string) zap.Field {
	return zap.String(key, value)
}

// IntField creates an int field
func IntField(key string, value int) zap.Field {
	return zap.Int(key, value)
}

// Int64Field creates an int64 field
func Int64Field(key string, value int64) zap.Field {
	return zap.Int64(key, value)
}

// Float64Field creates a float64 field
func Float64Field(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

// BoolField creates a bool field
func BoolField(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}
