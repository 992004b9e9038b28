package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"conditionScope/internal/chain"
	"conditionScope/internal/config"
	"conditionScope/internal/contract"
	"conditionScope/internal/indexer"
	"conditionScope/internal/model"
	"conditionScope/internal/odds"
	"conditionScope/internal/storage"
	"conditionScope/internal/storage/postgres"
	"conditionScope/internal/storage/redis"
)

type app struct {
	cfg     config.Config
	logger  *zap.Logger
	runner  *indexer.Runner
	closers []func()
}

func newApp(ctx context.Context, cmd *cobra.Command) (_ *app, err error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		_ = logger.Sync()
		return nil, err
	}

	address, err := contract.ParseAddress(cfg.CoreAddress)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("core address: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.RetryBackoff,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	a.closers = append(a.closers, chainClient.Close)

	if cfg.ChainID != 0 {
		chainID, err := chainClient.GetChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("get chain id: %w", err)
		}
		if !chainID.IsUint64() || chainID.Uint64() != cfg.ChainID {
			return nil, fmt.Errorf("rpc chain id %s does not match configured %d: %w", chainID, cfg.ChainID, indexer.ErrInvalidConfig)
		}
	}

	core, err := contract.NewCore(chainClient, address, cfg.DeployBlock)
	if err != nil {
		return nil, err
	}

	pipeline := indexer.NewPipeline(indexer.PipelineConfig{
		Parallelism: cfg.Parallelism,
	}, core, odds.Default, logger)

	var pg *postgres.Store
	if cfg.HasSink(config.SinkPostgres) || cfg.Cursor == config.CursorPostgres {
		pg, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	sinks := make(storage.Multi, 0, len(cfg.Sinks))
	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkJSONL:
			sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
		case config.SinkPostgres:
			sinks = append(sinks, pg)
		case config.SinkRedis:
			rdb, err := redis.NewClient(ctx, redis.ClientConfig{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err != nil {
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			sinks = append(sinks, redis.NewConditionCache(rdb))
		}
	}

	var cursor indexer.CursorStore
	switch cfg.Cursor {
	case config.CursorPostgres:
		cursor = &indexer.DBCursorStore{Store: pg, Name: "conditions:" + address.Hex()}
	default:
		cursor = indexer.NewFileCursorStore(cfg.Checkpoint, cfg.CheckpointEnabled)
	}

	a.runner = indexer.NewRunner(indexer.RunConfig{
		From:       cfg.From,
		RangeWidth: cfg.RangeWidth,
		Filters: indexer.Filters{
			Resolved: cfg.Resolved,
			Canceled: cfg.Canceled,
		},
	}, pipeline, sinks, cursor, logger)

	fields := []zap.Field{
		zap.String("rpc", cfg.RPCURL),
		zap.String("core", address.Hex()),
		zap.Uint64("deploy_block", cfg.DeployBlock),
		zap.Int64("range_width", cfg.RangeWidth),
		zap.Strings("sinks", cfg.Sinks),
		zap.String("cursor", cfg.Cursor),
	}
	if cfg.From != nil {
		fields = append(fields, zap.Uint64("from", *cfg.From))
	}
	logger.Info("syncer start", fields...)

	return a, nil
}

func (a *app) runOnce(ctx context.Context) (model.SyncResult, error) {
	start := time.Now()
	result, err := a.runner.RunOnce(ctx)
	if err != nil {
		a.logger.Error("sync failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return result, err
	}

	fields := []zap.Field{
		zap.Int("conditions", len(result.Conditions)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if result.LatestBlock != nil {
		fields = append(fields, zap.Uint64("latest_block", *result.LatestBlock))
	}
	a.logger.Info("sync done", fields...)
	return result, nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}
