package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{a.logger}),
		cron.SkipIfStillRunning(cronLogger{a.logger}),
	))
	if _, err := c.AddFunc(a.cfg.Schedule, func() {
		_, _ = a.runOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", a.cfg.Schedule, err)
	}

	a.logger.Info("watch start", zap.String("schedule", a.cfg.Schedule))
	c.Start()

	<-ctx.Done()
	a.logger.Info("watch stopping")
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
