package indexer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"conditionScope/internal/model"
	"conditionScope/internal/odds"
)

// EventSource returns ConditionCreated events in ascending chain order.
type EventSource interface {
	QueryEvents(ctx context.Context, r model.BlockRange) ([]model.ConditionCreatedEvent, error)
}

// StateReader reads the current on-chain record of a condition.
type StateReader interface {
	ReadCondition(ctx context.Context, conditionID uint64) (model.ConditionRecord, error)
}

// HeadReader resolves the latest block number.
type HeadReader interface {
	CurrentBlockNumber(ctx context.Context) (uint64, error)
}

// ConditionSource bundles the chain capabilities a sync needs.
type ConditionSource interface {
	EventSource
	StateReader
	HeadReader
}

// Filters selects which settled conditions are kept.
type Filters struct {
	Resolved bool
	Canceled bool
}

// DefaultFilters keeps resolved and canceled conditions.
func DefaultFilters() Filters {
	return Filters{Resolved: true, Canceled: true}
}

// SyncOptions configures a single sync run.
// A nil From queries the source's default range instead of chunking.
type SyncOptions struct {
	Filters    *Filters
	From       *uint64
	RangeWidth int64
}

// PipelineConfig holds runtime settings for the pipeline.
type PipelineConfig struct {
	// Parallelism caps concurrent condition reads. Zero means one per event.
	Parallelism int
	Now         func() time.Time
}

// Pipeline syncs actionable conditions from the core contract.
// It keeps no state between runs.
type Pipeline struct {
	cfg    PipelineConfig
	source ConditionSource
	odds   odds.Func
	logger *zap.Logger
}

// NewPipeline builds a Pipeline with its dependencies.
func NewPipeline(cfg PipelineConfig, source ConditionSource, oddsFn odds.Func, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		cfg:    cfg,
		source: source,
		odds:   oddsFn,
		logger: logger,
	}
}

type dropReason string

const (
	keepCondition  dropReason = ""
	dropStarted    dropReason = "started"
	dropResolved   dropReason = "resolved"
	dropCanceled   dropReason = "canceled"
	dropEnrichment dropReason = "enrichment_failed"
)

type enrichment struct {
	event     model.ConditionCreatedEvent
	condition model.Condition
	drop      dropReason
	err       error
}

// Sync fetches ConditionCreated events, reads each condition and returns the
// ones still actionable, in event order. A failed event query fails the run;
// a failed condition is logged and dropped.
func (p *Pipeline) Sync(ctx context.Context, opts SyncOptions) (model.SyncResult, error) {
	if p.source == nil {
		return model.SyncResult{}, fmt.Errorf("condition source is nil: %w", ErrInvalidConfig)
	}
	if p.odds == nil {
		return model.SyncResult{}, fmt.Errorf("odds func is nil: %w", ErrInvalidConfig)
	}
	width, err := rangeWidth(opts.RangeWidth)
	if err != nil {
		return model.SyncResult{}, err
	}
	filters := DefaultFilters()
	if opts.Filters != nil {
		filters = *opts.Filters
	}

	logger := p.logger.With(zap.String("run_id", uuid.New().String()))
	start := time.Now()

	events, err := p.fetchEvents(ctx, opts.From, width, logger)
	if err != nil {
		return model.SyncResult{}, err
	}

	result := model.SyncResult{Conditions: make([]model.Condition, 0, len(events))}
	if len(events) == 0 {
		logger.Info("sync complete", zap.Int("events", 0), zap.Duration("elapsed", time.Since(start)))
		return result, nil
	}
	latest := events[len(events)-1].BlockNumber
	result.LatestBlock = &latest

	enriched, err := p.enrichAll(ctx, events, filters)
	if err != nil {
		return model.SyncResult{}, err
	}

	counts := make(map[dropReason]int)
	for _, item := range enriched {
		if item.err != nil {
			logger.Warn("condition dropped",
				zap.Uint64("condition_id", item.event.ConditionID),
				zap.Uint64("block_number", item.event.BlockNumber),
				zap.Error(item.err),
			)
		}
		if item.drop != keepCondition {
			counts[item.drop]++
			continue
		}
		result.Conditions = append(result.Conditions, item.condition)
	}

	logger.Info("sync complete",
		zap.Int("events", len(events)),
		zap.Int("conditions", len(result.Conditions)),
		zap.Int("started", counts[dropStarted]),
		zap.Int("resolved_filtered", counts[dropResolved]),
		zap.Int("canceled_filtered", counts[dropCanceled]),
		zap.Int("failed", counts[dropEnrichment]),
		zap.Uint64("latest_block", latest),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

func rangeWidth(width int64) (uint64, error) {
	switch {
	case width < 0:
		return 0, fmt.Errorf("range width %d is negative: %w", width, ErrInvalidConfig)
	case width == 0:
		return DefaultRangeWidth, nil
	default:
		return uint64(width), nil
	}
}

func (p *Pipeline) fetchEvents(ctx context.Context, from *uint64, width uint64, logger *zap.Logger) ([]model.ConditionCreatedEvent, error) {
	if from == nil {
		r := model.BlockRange{From: 0, To: model.LatestBlock}
		logger.Debug("fetch events", zap.String("range", "default"))
		events, err := p.source.QueryEvents(ctx, r)
		if err != nil {
			return nil, &RangeFetchError{Range: r, Err: err}
		}
		return events, nil
	}

	latest, err := p.source.CurrentBlockNumber(ctx)
	if err != nil {
		return nil, &RangeFetchError{Range: model.BlockRange{From: *from, To: model.LatestBlock}, Err: fmt.Errorf("get latest block: %w", err)}
	}

	ranges, err := Chunk(*from, latest, width)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		logger.Info("nothing to sync", zap.Uint64("from", *from), zap.Uint64("latest", latest))
		return nil, nil
	}

	perRange := make([][]model.ConditionCreatedEvent, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			logger.Debug("fetch events", zap.Uint64("from", r.From), zap.Uint64("to", r.To))
			events, err := p.source.QueryEvents(gctx, r)
			if err != nil {
				return &RangeFetchError{Range: r, Err: err}
			}
			perRange[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, events := range perRange {
		total += len(events)
	}
	events := make([]model.ConditionCreatedEvent, 0, total)
	for _, chunk := range perRange {
		events = append(events, chunk...)
	}
	return events, nil
}

func (p *Pipeline) enrichAll(ctx context.Context, events []model.ConditionCreatedEvent, filters Filters) ([]enrichment, error) {
	workers := p.cfg.Parallelism
	if workers <= 0 || workers > len(events) {
		workers = len(events)
	}

	pool := pond.NewPool(workers)
	defer pool.StopAndWait()

	results := make([]enrichment, len(events))
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for i, event := range events {
		i, event := i, event
		group.Submit(func() {
			results[i] = p.enrichSafe(groupCtx, event, filters)
			results[i].event = event
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("enrich conditions: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrich conditions: %w", err)
	}
	return results, nil
}

// enrichSafe turns a panic in a single enrichment into a dropped condition.
func (p *Pipeline) enrichSafe(ctx context.Context, event model.ConditionCreatedEvent, filters Filters) (out enrichment) {
	defer func() {
		if r := recover(); r != nil {
			out = failed(event, fmt.Errorf("panic: %v", r))
		}
	}()
	return p.enrich(ctx, event, filters)
}

func (p *Pipeline) enrich(ctx context.Context, event model.ConditionCreatedEvent, filters Filters) enrichment {
	record, err := p.source.ReadCondition(ctx, event.ConditionID)
	if err != nil {
		return failed(event, fmt.Errorf("read condition: %w", err))
	}

	if record.TimestampSeconds > math.MaxInt64/1000 {
		return failed(event, fmt.Errorf("timestamp out of range: %d", record.TimestampSeconds))
	}
	startsAt := int64(record.TimestampSeconds) * 1000
	if startsAt <= p.cfg.Now().UnixMilli() {
		return enrichment{drop: dropStarted}
	}
	if record.State == model.ConditionResolved && !filters.Resolved {
		return enrichment{drop: dropResolved}
	}
	if record.State == model.ConditionCanceled && !filters.Canceled {
		return enrichment{drop: dropCanceled}
	}

	computed, err := odds.Compute(record.FundBank, record.Margin, p.odds)
	if err != nil {
		return failed(event, err)
	}

	return enrichment{
		condition: model.Condition{
			ID:       event.ConditionID,
			Odds:     computed,
			Outcomes: append([]uint64(nil), record.Outcomes...),
			GameData: model.GameData{
				ID:          record.ScopeID,
				State:       record.State,
				StartsAt:    startsAt,
				IPFSHashHex: record.IPFSHashHex,
			},
		},
	}
}

func failed(event model.ConditionCreatedEvent, err error) enrichment {
	return enrichment{
		drop: dropEnrichment,
		err: &EnrichmentError{
			ConditionID: event.ConditionID,
			BlockNumber: event.BlockNumber,
			Err:         err,
		},
	}
}
