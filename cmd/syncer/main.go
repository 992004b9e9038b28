package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"conditionScope/internal/indexer"
)

func main() {
	root := &cobra.Command{
		Use:          "syncer",
		Short:        "Condition sync for the prediction market core contract",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a single condition sync",
		RunE:  runSync,
	}
	addSyncFlags(syncCmd)
	root.AddCommand(syncCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run condition syncs on a cron schedule",
		RunE:  runWatch,
	}
	addSyncFlags(watchCmd)
	watchCmd.Flags().String("schedule", "@every 1m", "cron schedule (standard 5-field spec or @every)")
	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "JSON-RPC URL")
	cmd.Flags().Uint64("chain-id", 0, "expected chain id, 0 skips the check")
	cmd.Flags().String("core-address", "", "core contract address")
	cmd.Flags().Uint64("deploy-block", 0, "core contract deployment block")
	cmd.Flags().Uint64("from", 0, "start block (inclusive); unset queries the whole history in one call")
	cmd.Flags().Int64("range-width", int64(indexer.DefaultRangeWidth), "blocks per event query")
	cmd.Flags().Bool("resolved", true, "include resolved conditions")
	cmd.Flags().Bool("canceled", true, "include canceled conditions")
	cmd.Flags().Int("parallelism", 0, "concurrent condition reads, 0 means one per event")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts per rpc call")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().StringSlice("sink", []string{"jsonl"}, "condition sinks (jsonl, postgres, redis)")
	cmd.Flags().String("out", "./data/conditions.jsonl", "output JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("redis-addr", "", "Redis address")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")
	cmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	cmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	cmd.Flags().String("cursor", "file", "cursor store (file, postgres)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.runOnce(ctx)
	return err
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
