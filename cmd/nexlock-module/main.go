package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/app"
	"github.com/Nexlock/nexlock-module/internal/config"
	"github.com/Nexlock/nexlock-module/libs/logging"
)

// restartExitCode tells the supervisor to start the process again so the
// locker registry is rebuilt against the new configuration.
const restartExitCode = 3

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // best-effort flush

	application, err := app.New(cfg, app.Capabilities{}, logger)
	if err != nil {
		logger.Fatal("failed to initialize module", zap.Error(err))
	}

	err = application.Run(ctx)
	if errors.Is(err, app.ErrRestartRequested) {
		stop()
		_ = logger.Sync()
		os.Exit(restartExitCode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("module stopped with error", zap.Error(err))
	}
}
