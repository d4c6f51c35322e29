package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeRangeToken selects the reporting window of an analysis query
type TimeRangeToken string

const (
	Range24H TimeRangeToken = "24h"
	Range3D  TimeRangeToken = "3d"
	Range7D  TimeRangeToken = "7d"
	Range30D TimeRangeToken = "30d"
	Range6M  TimeRangeToken = "6m"
	Range1Y  TimeRangeToken = "1y"
)

// Fixed token to hour mapping
var rangeHours = map[TimeRangeToken]int{
	Range24H: 24,
	Range3D:  72,
	Range7D:  168,
	Range30D: 720,
	Range6M:  4320,
	Range1Y:  8760,
}

// Hours returns the window length in hours, false for unknown tokens
func (t TimeRangeToken) Hours() (int, bool) {
	h, ok := rangeHours[t]
	return h, ok
}

// Duration returns the window length, false for unknown tokens
func (t TimeRangeToken) Duration() (time.Duration, bool) {
	h, ok := rangeHours[t]
	if !ok {
		return 0, false
	}
	return time.Duration(h) * time.Hour, true
}

// Valid returns true for a known token
func (t TimeRangeToken) Valid() bool {
	_, ok := rangeHours[t]
	return ok
}

var validate = validator.New()

// AnalysisRequest is the typed query request. Zero-valued fields are
// overlaid onto DefaultAnalysisRequest by the API layer, so an omitted
// field gets its default while an explicit zero stays zero.
type AnalysisRequest struct {
	TimeRange  TimeRangeToken  `json:"time_range" validate:"required,oneof=24h 3d 7d 30d 6m 1y"`
	MinMetricA int             `json:"min_metric_a" validate:"min=0"`
	MinMetricB int             `json:"min_metric_b" validate:"min=0"`
	MaxMetricC decimal.Decimal `json:"max_metric_c" validate:"-"`
	Limit      int             `json:"limit" validate:"min=0"`
	Offset     int             `json:"offset" validate:"min=0"`
}

// DefaultAnalysisRequest returns the request defaults: last 24 hours,
// at least one occurrence of each chain signal, no inbound value on the
// receiving side.
func DefaultAnalysisRequest() AnalysisRequest {
	return AnalysisRequest{
		TimeRange:  Range24H,
		MinMetricA: 1,
		MinMetricB: 1,
		MaxMetricC: decimal.Zero,
	}
}

// Validate checks the request against its constraints
func (r *AnalysisRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.MaxMetricC.IsNegative() {
		return fmt.Errorf("max_metric_c must not be negative, got %s", r.MaxMetricC)
	}
	return nil
}

// Normalize clamps pagination to the configured bounds
func (r *AnalysisRequest) Normalize(defaultLimit, maxLimit int) {
	if r.Limit <= 0 {
		r.Limit = defaultLimit
	}
	if r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// Criteria returns the echoed threshold criteria for response metadata
func (r *AnalysisRequest) Criteria() AnalysisCriteria {
	return AnalysisCriteria{
		MinMetricA: r.MinMetricA,
		MinMetricB: r.MinMetricB,
		MaxMetricC: r.MaxMetricC,
	}
}

// AnalysisCriteria echoes the metric thresholds a query ran with
type AnalysisCriteria struct {
	MinMetricA int             `json:"min_metric_a"`
	MinMetricB int             `json:"min_metric_b"`
	MaxMetricC decimal.Decimal `json:"max_metric_c"`
}

// AnalysisResponse is the full query response
type AnalysisResponse struct {
	Status      string         `json:"status"`
	QueryID     uuid.UUID      `json:"query_id"`
	QueryTimeMs int64          `json:"query_time_ms"`
	TimeRange   TimeRangeToken `json:"time_range"`

	// TotalCount counts classified survivors within the capped working
	// set; Truncated reports when the cap cut the candidate scan short.
	TotalCount int  `json:"total_count"`
	Truncated  bool `json:"truncated"`

	Criteria AnalysisCriteria `json:"criteria"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`

	Transactions []RiskRecord `json:"transactions"`
}
