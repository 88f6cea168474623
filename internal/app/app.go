package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/openreel/gateway/internal/config"
	"github.com/openreel/gateway/internal/db"
	"github.com/openreel/gateway/internal/handlers"
	"github.com/openreel/gateway/internal/httpserver"
	"github.com/openreel/gateway/internal/logging"
	"github.com/openreel/gateway/internal/wallet"
)

// Run bootstraps the OpenReel gateway.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, warmer, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}

	warmCtx, stopWarmer := context.WithCancel(ctx)
	defer stopWarmer()
	go warmer.Run(warmCtx)

	srv := httpserver.New(cfg.Port, handlers.NewRouter(deps))

	logger.Info("starting http server",
		"port", cfg.Port,
		"supportedChains", wallet.NewNetworks(cfg.SupportedChainIDs).IDs(),
		"actorConfigured", cfg.ActorURL != "",
		"redisConfigured", cfg.RedisURL != "",
		"mirrorEnabled", cfg.ObjectStore.Enabled(),
	)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
			defer cancel()
			_ = cleanup(shutdownCtx)
			return err
		}
	}

	stopWarmer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := cleanup(shutdownCtx); err != nil {
		logger.Warn("cleanup after shutdown failed", "error", err)
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	return shutdownErr
}
