package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"conditionScope/internal/model"
	"conditionScope/internal/storage"
)

// Syncer runs one condition sync.
type Syncer interface {
	Sync(ctx context.Context, opts SyncOptions) (model.SyncResult, error)
}

// RunConfig holds runtime settings for the runner.
type RunConfig struct {
	From       *uint64
	RangeWidth int64
	Filters    Filters
}

// Runner resumes syncs from a cursor and writes the results to storage.
type Runner struct {
	cfg     RunConfig
	syncer  Syncer
	storage storage.Storage
	cursor  CursorStore
	logger  *zap.Logger
}

// NewRunner builds a Runner with its dependencies. cursor may be nil.
func NewRunner(cfg RunConfig, syncer Syncer, storageSink storage.Storage, cursor CursorStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		syncer:  syncer,
		storage: storageSink,
		cursor:  cursor,
		logger:  logger,
	}
}

// RunOnce syncs from the saved cursor (or the configured start), stores the
// conditions and advances the cursor to the last seen event block.
func (r *Runner) RunOnce(ctx context.Context) (model.SyncResult, error) {
	if r.syncer == nil {
		return model.SyncResult{}, fmt.Errorf("syncer is nil")
	}
	if r.storage == nil {
		return model.SyncResult{}, fmt.Errorf("storage is nil")
	}

	from := r.cfg.From
	if r.cursor != nil {
		last, ok, err := r.cursor.Load(ctx)
		if err != nil {
			return model.SyncResult{}, fmt.Errorf("load cursor: %w", err)
		}
		if ok && (from == nil || last >= *from) {
			next := last + 1
			from = &next
			r.logger.Info("resume from cursor", zap.Uint64("latest_block", last), zap.Uint64("from", next))
		}
	}

	filters := r.cfg.Filters
	result, err := r.syncer.Sync(ctx, SyncOptions{
		Filters:    &filters,
		From:       from,
		RangeWidth: r.cfg.RangeWidth,
	})
	if err != nil {
		return model.SyncResult{}, err
	}

	if err := r.storage.PutConditions(ctx, result.Conditions); err != nil {
		return model.SyncResult{}, fmt.Errorf("store conditions: %w", err)
	}

	if result.LatestBlock != nil && r.cursor != nil {
		if err := r.cursor.Save(ctx, *result.LatestBlock); err != nil {
			return model.SyncResult{}, fmt.Errorf("save cursor: %w", err)
		}
	}

	return result, nil
}
