package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roniherschmann/biolink/internal/config"
	"github.com/roniherschmann/biolink/internal/core"
	httpapi "github.com/roniherschmann/biolink/internal/http"
	"github.com/roniherschmann/biolink/internal/store"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg := loadConfig(c.globals)
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, c.version)
}

func serve(ctx context.Context, cfg config.Config, version string) error {
	// Both stay nil interfaces when no store is configured.
	var (
		events store.Store
		ready  httpapi.Pinger
	)
	st, err := store.Open(cfg.DBDSN)
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		log.Warn().Msg("DB_DSN not set, events will be accepted but not stored")
	case err != nil:
		return err
	default:
		defer st.Close()
		if cfg.AutoMigrate {
			mctx, cancel := context.WithTimeout(ctx, time.Minute)
			err := st.Migrate(mctx)
			cancel()
			if err != nil {
				return fmt.Errorf("migrate schema: %w", err)
			}
		}
		events, ready = st, st
		log.Info().Str("dialect", st.Dialect().String()).Bool("auto_migrate", cfg.AutoMigrate).Msg("event store open")
	}

	svc := core.NewService(events, core.Options{
		WriteTimeout:    cfg.WriteTimeout,
		IngestRateRPS:   cfg.IngestRateRPS,
		IngestRateBurst: cfg.IngestRateBurst,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	})
	agg := core.NewAggregator(events, nil)
	gate := httpapi.NewSessionGate(cfg.AdminPassword, cfg.AdminSessionKey, cfg.Production())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpapi.NewRouter(cfg, svc, agg, gate, ready),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("version", version).Str("env", cfg.AppEnv).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("bye")
	return nil
}
