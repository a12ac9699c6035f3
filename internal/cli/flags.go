package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	DSN     string `long:"dsn" description:"Event store DSN (overrides DB_DSN)"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand runs the HTTP server.
type ServeCommand struct {
	Port     int    `long:"port" description:"Override PORT"`
	LogLevel string `long:"log-level" description:"Override LOG_LEVEL"`

	globals *GlobalFlags
	version string
}

// MigrateCommand applies the schema.
type MigrateCommand struct {
	globals *GlobalFlags
}

// VerifyCommand prints a setup checklist and fails if any check fails.
type VerifyCommand struct {
	globals *GlobalFlags
	out     io.Writer
}
