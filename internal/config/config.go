package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        int    `validate:"min=1,max=65535"`
	DBDSN       string // empty disables event storage
	AutoMigrate bool
	AppEnv      string `validate:"oneof=local development production test"`
	LogLevel    string `validate:"oneof=trace debug info warn error"`

	AdminPassword   string
	AdminSessionKey string

	CORSAllowedOrigins []string

	IngestRateRPS   float64       `validate:"gt=0"`
	IngestRateBurst int           `validate:"min=1"`
	LoginRateLimit  int           `validate:"min=1"`
	LoginRateWindow time.Duration `validate:"min=1s"`

	WriteTimeout  time.Duration `validate:"min=100ms"`
	ReportTimeout time.Duration `validate:"min=100ms"`

	BreakerFailures uint32        `validate:"min=1"`
	BreakerCooldown time.Duration `validate:"min=1s"`
}

func (c Config) Production() bool { return c.AppEnv == "production" }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getlist(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads the environment, after merging an optional .env file.
func Load() Config {
	_ = godotenv.Load() // missing .env is fine

	return Config{
		Port:               getint("PORT", 8080),
		DBDSN:              getenv("DB_DSN", ""),
		AutoMigrate:        getbool("AUTO_MIGRATE", true),
		AppEnv:             getenv("APP_ENV", "local"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		AdminPassword:      getenv("ADMIN_PASSWORD", ""),
		AdminSessionKey:    getenv("ADMIN_SESSION_KEY", ""),
		CORSAllowedOrigins: getlist("CORS_ALLOWED_ORIGINS"),
		IngestRateRPS:      getfloat("INGEST_RATE_RPS", 5.0),
		IngestRateBurst:    getint("INGEST_RATE_BURST", 20),
		LoginRateLimit:     getint("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow:    getduration("LOGIN_RATE_WINDOW", time.Minute),
		WriteTimeout:       getduration("WRITE_TIMEOUT", 3*time.Second),
		ReportTimeout:      getduration("REPORT_TIMEOUT", 10*time.Second),
		BreakerFailures:    uint32(getint("BREAKER_FAILURES", 5)),
		BreakerCooldown:    getduration("BREAKER_COOLDOWN", 30*time.Second),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
