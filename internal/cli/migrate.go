package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roniherschmann/biolink/internal/store"
)

// Execute implements the go-flags Commander interface for MigrateCommand.
func (c *MigrateCommand) Execute(args []string) error {
	cfg := loadConfig(c.globals)
	setupLogging(cfg.LogLevel)
	return migrate(context.Background(), cfg.DBDSN)
}

func migrate(ctx context.Context, dsn string) error {
	st, err := store.Open(dsn)
	if errors.Is(err, store.ErrNotConfigured) {
		return fmt.Errorf("set DB_DSN or --dsn: %w", err)
	}
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	log.Info().Str("dialect", st.Dialect().String()).Msg("schema applied")
	return nil
}
