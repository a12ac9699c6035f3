package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roniherschmann/biolink/internal/config"
)

// loadConfig reads the environment and applies global flag overrides.
func loadConfig(globals *GlobalFlags) config.Config {
	cfg := config.Load()
	if globals != nil && globals.DSN != "" {
		cfg.DBDSN = globals.DSN
	}
	return cfg
}

// setupLogging uses JSON logs by default and pretty output on a TTY.
func setupLogging(level string) {
	if isatty() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func isatty() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
