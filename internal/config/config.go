// Package config loads server settings from BALLOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "BALLOT_"

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"` // postgres://... or sqlite://path
	Owner       string `env:"OWNER"`                  // initializes an empty ledger at startup
	GRPCAddr    string `env:"GRPC_ADDR" envDefault:":9090"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	NATSURL     string `env:"NATS_URL"` // empty = no bus

	// Caller identity. With JWTSecret set, callers present signed tokens;
	// otherwise the caller header is trusted, gated by AuthToken when set.
	AuthToken string `env:"AUTH_TOKEN"`
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"ballot"`

	// Mutations per minute per caller; 0 disables limiting. RedisURL makes
	// the limit shared between replicas.
	RateLimit int    `env:"RATE_LIMIT" envDefault:"0"`
	RedisURL  string `env:"REDIS_URL"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"` // OTLP/HTTP traces; empty = off

	// Sync settings
	SyncInterval   time.Duration `env:"SYNC_INTERVAL" envDefault:"3m"` // 0 = disabled
	SyncS3Bucket   string        `env:"SYNC_S3_BUCKET"`                // enables S3 when set
	SyncS3Endpoint string        `env:"SYNC_S3_ENDPOINT"`              // custom endpoint for MinIO
	SyncS3Region   string        `env:"SYNC_S3_REGION" envDefault:"us-east-1"`
	SyncS3Key      string        `env:"SYNC_S3_KEY" envDefault:"ballot/ledger.jsonl"`
	SyncGCSBucket  string        `env:"SYNC_GCS_BUCKET"` // enables GCS when set
	SyncGCSObject  string        `env:"SYNC_GCS_OBJECT" envDefault:"ballot/ledger.jsonl"`
	SyncGitRepo    string        `env:"SYNC_GIT_REPO"` // enables git when set; path to clone
	SyncGitFile    string        `env:"SYNC_GIT_FILE" envDefault:"ballot.jsonl"`
	SyncGitBranch  string        `env:"SYNC_GIT_BRANCH" envDefault:"main"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that parse but cannot be served.
func (c *Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") &&
		!strings.HasPrefix(c.DatabaseURL, "sqlite://") {
		errs = append(errs, fmt.Errorf("%sDATABASE_URL: unsupported scheme in %q", EnvPrefix, c.DatabaseURL))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%sRATE_LIMIT: must not be negative", EnvPrefix))
	}
	if c.SyncInterval < 0 {
		errs = append(errs, fmt.Errorf("%sSYNC_INTERVAL: must not be negative", EnvPrefix))
	}
	if c.AuthToken != "" && c.JWTSecret != "" {
		errs = append(errs, fmt.Errorf("%sAUTH_TOKEN and %sJWT_SECRET are mutually exclusive", EnvPrefix, EnvPrefix))
	}
	return errors.Join(errs...)
}

// SyncEnabled reports whether any sync destination is configured.
func (c *Config) SyncEnabled() bool {
	return c.SyncInterval > 0 && (c.SyncS3Bucket != "" || c.SyncGCSBucket != "" || c.SyncGitRepo != "")
}
