package analysis

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/banking/risk-engine/internal/config"
	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/pkg/logger"
	"github.com/banking/risk-engine/internal/storage"
)

// Engine is the risk-correlation engine. It orchestrates the candidate
// scan, the three metric computations, classification and assembly for
// one query invocation at a time; invocations share nothing, so the
// engine is safe for concurrent queries.
type Engine struct {
	source     storage.Source
	selector   *CandidateSelector
	metricA    *MetricAEngine
	metricB    *MetricBEngine
	metricC    *MetricCAggregator
	classifier *Classifier
	assembler  *ResultAssembler

	cfg    *config.AnalysisConfig
	log    *logger.Logger
	tracer trace.Tracer

	threshold decimal.Decimal
	now       func() time.Time

	// Metrics
	queryCount   int64
	avgLatencyMs float64
	latencyMu    sync.RWMutex
}

// NewEngine creates the engine and its pipeline components
func NewEngine(source storage.Source, cfg *config.AnalysisConfig, log *logger.Logger) *Engine {
	workers := cfg.ParallelWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	threshold := decimal.NewFromInt(cfg.LargeAmountThreshold)

	return &Engine{
		source:     source,
		selector:   NewCandidateSelector(source, threshold),
		metricA:    NewMetricAEngine(cfg.MetricALag, workers),
		metricB:    NewMetricBEngine(source, cfg.MetricBLag, workers),
		metricC:    NewMetricCAggregator(source),
		classifier: NewClassifier(),
		assembler:  NewResultAssembler(source, log),
		cfg:        cfg,
		log:        log.Named("analysis_engine"),
		tracer:     otel.Tracer("analysis"),
		threshold:  threshold,
		now:        time.Now,
	}
}

// queryState holds the intermediates of one analysis invocation. Each
// field is written by exactly one goroutine; errgroup.Wait is the sync
// point before anything reads them.
type queryState struct {
	QueryID   uuid.UUID
	StartTime time.Time
	Window    storage.TimeRange
	Horizon   storage.TimeRange

	ws      *workingSet
	streams *eventStreams
	metricA map[int64]int
	metricB map[int64]int
	metricC map[int64]decimal.Decimal
}

// Analyze runs one risk-correlation query end to end. Adapter failures
// abort the whole query; the per-query timeout turns a hung scan into an
// error instead of a stalled caller.
func (e *Engine) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
	startTime := e.now()
	queryID := uuid.New()

	req.Normalize(e.cfg.DefaultLimit, e.cfg.MaxLimit)
	e.log.AnalysisStarted(queryID.String(), string(req.TimeRange), req.MinMetricA, req.MinMetricB)

	ctx, span := e.tracer.Start(ctx, "analysis.query", trace.WithAttributes(
		attribute.String("query.id", queryID.String()),
		attribute.String("query.time_range", string(req.TimeRange)),
	))
	defer span.End()

	window, err := queryWindow(startTime, req.TimeRange)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	qs := &queryState{
		QueryID:   queryID,
		StartTime: startTime,
		Window:    window,
		Horizon:   lookbackHorizon(window.End, e.cfg.Lookback()),
		ws:        newWorkingSet(e.cfg.MaxWorkingSet),
	}

	queryCtx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()

	// 1. Scan phase: candidates, horizon event streams, inbound sums
	if err := e.runScanPhase(queryCtx, qs); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 2. Join phase: metrics A and B over the shared event streams
	if err := e.runJoinPhase(queryCtx, qs); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 3. Classification with caller thresholds
	classified := e.classifier.Apply(qs.ws.candidates, qs.metricA, qs.metricB, qs.metricC, Thresholds{
		MinMetricA: req.MinMetricA,
		MinMetricB: req.MinMetricB,
		MaxMetricC: req.MaxMetricC,
	})

	// 4. Result assembly
	records, total, err := e.assembler.Assemble(queryCtx, classified, req.Limit, req.Offset)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if qs.ws.truncated {
		e.log.WorkingSetTruncated(queryID.String(), e.cfg.MaxWorkingSet)
	}

	durationMs := e.now().Sub(startTime).Milliseconds()
	e.recordLatency(durationMs)
	if slow := e.cfg.QueryTimeout.Milliseconds() / 2; slow > 0 && durationMs > slow {
		e.log.SlowQuery(queryID.String(), durationMs, slow)
	}
	e.log.AnalysisCompleted(queryID.String(), total, qs.ws.size(), durationMs)

	span.SetAttributes(
		attribute.Int("query.candidates", qs.ws.size()),
		attribute.Int("query.total_count", total),
		attribute.Bool("query.truncated", qs.ws.truncated),
	)

	return &domain.AnalysisResponse{
		Status:       "success",
		QueryID:      queryID,
		QueryTimeMs:  durationMs,
		TimeRange:    req.TimeRange,
		TotalCount:   total,
		Truncated:    qs.ws.truncated,
		Criteria:     req.Criteria(),
		Limit:        req.Limit,
		Offset:       req.Offset,
		Transactions: records,
	}, nil
}

// runScanPhase runs the three independent source scans concurrently
func (e *Engine) runScanPhase(ctx context.Context, qs *queryState) error {
	ctx, span := e.tracer.Start(ctx, "analysis.scan")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.selector.Select(gctx, qs.Window, qs.ws)
	})
	g.Go(func() error {
		streams, err := buildEventStreams(gctx, e.source, qs.Horizon, e.threshold)
		if err != nil {
			return err
		}
		qs.streams = streams
		return nil
	})
	g.Go(func() error {
		sums, err := e.metricC.Compute(gctx, qs.Horizon)
		if err != nil {
			return err
		}
		qs.metricC = sums
		return nil
	})

	return g.Wait()
}

// runJoinPhase computes metrics A and B concurrently over the streams
func (e *Engine) runJoinPhase(ctx context.Context, qs *queryState) error {
	ctx, span := e.tracer.Start(ctx, "analysis.join")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		counts, err := e.metricA.Compute(gctx, qs.streams)
		if err != nil {
			return err
		}
		qs.metricA = counts
		e.log.MetricComputed(qs.QueryID.String(), "metric_a", len(counts), time.Since(start).Milliseconds())
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		counts, err := e.metricB.Compute(gctx, qs.Horizon, qs.streams)
		if err != nil {
			return err
		}
		qs.metricB = counts
		e.log.MetricComputed(qs.QueryID.String(), "metric_b", len(counts), time.Since(start).Milliseconds())
		return nil
	})

	return g.Wait()
}

// recordLatency tracks a moving average of query latency
func (e *Engine) recordLatency(durationMs int64) {
	e.latencyMu.Lock()
	defer e.latencyMu.Unlock()

	e.queryCount++
	// Exponential moving average
	e.avgLatencyMs = e.avgLatencyMs*0.9 + float64(durationMs)*0.1
}

// AverageLatencyMs returns the average query latency
func (e *Engine) AverageLatencyMs() float64 {
	e.latencyMu.RLock()
	defer e.latencyMu.RUnlock()
	return e.avgLatencyMs
}

// QueryCount returns the number of queries served
func (e *Engine) QueryCount() int64 {
	e.latencyMu.RLock()
	defer e.latencyMu.RUnlock()
	return e.queryCount
}
