package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/banking/risk-engine/internal/domain"
)

func TestAnalysisKeyIsStable(t *testing.T) {
	req := domain.DefaultAnalysisRequest()
	req.Limit = 100

	assert.Equal(t, AnalysisKey(req), AnalysisKey(req))
	assert.Equal(t, "risk:analysis:24h:1:1:0:100:0", AnalysisKey(req))
}

func TestAnalysisKeySeparatesCriteria(t *testing.T) {
	base := domain.DefaultAnalysisRequest()
	base.Limit = 100

	variants := []func(r *domain.AnalysisRequest){
		func(r *domain.AnalysisRequest) { r.TimeRange = domain.Range7D },
		func(r *domain.AnalysisRequest) { r.MinMetricA = 2 },
		func(r *domain.AnalysisRequest) { r.MinMetricB = 0 },
		func(r *domain.AnalysisRequest) { r.MaxMetricC = decimal.NewFromInt(500) },
		func(r *domain.AnalysisRequest) { r.Offset = 10 },
	}

	seen := map[string]bool{AnalysisKey(base): true}
	for _, mutate := range variants {
		req := base
		mutate(&req)
		key := AnalysisKey(req)
		assert.False(t, seen[key], "key %q collides", key)
		seen[key] = true
	}
}

// A nil client must behave like a cache that never hits
func TestNilClientDisablesCaching(t *testing.T) {
	var c *Client
	ctx := context.Background()

	_, ok := c.Get(ctx, "any")
	assert.False(t, ok)

	c.Set(ctx, "any", []byte("value"), time.Second)

	_, ok = c.Get(ctx, "any")
	assert.False(t, ok)

	assert.NoError(t, c.Close())
}
