package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/orgforge/pkg/cli"
	"github.com/platinummonkey/orgforge/pkg/config"
	"github.com/platinummonkey/orgforge/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := setupLogger(cfg.Observability.LogLevel)
	defer func() {
		if err := observability.MustRecover(recover()); err != nil {
			logger.WithError(err).Error("orgadmin crashed")
			code = 1
		}
	}()

	tp, err := observability.InitOTel(ctx, cfg.OTelConfig(), logger)
	if err != nil {
		logger.Warnf("Tracing disabled: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = observability.ShutdownOTel(shutdownCtx, tp, logger)
	}()

	env, err := cli.NewEnv(cfg, logger)
	if err != nil {
		logger.Errorf("Failed to initialize: %v", err)
		return 1
	}

	if err := cli.NewRootCommand(env).Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func setupLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	return logger
}
