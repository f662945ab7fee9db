package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// allEnvVars lists every variable Load reads.
var allEnvVars = []string{
	"DATABASE_URL", "OWNER", "GRPC_ADDR", "HTTP_ADDR", "NATS_URL",
	"AUTH_TOKEN", "JWT_SECRET", "JWT_ISSUER", "RATE_LIMIT", "REDIS_URL", "OTEL_ENDPOINT",
	"SYNC_INTERVAL", "SYNC_S3_BUCKET", "SYNC_S3_ENDPOINT", "SYNC_S3_REGION", "SYNC_S3_KEY",
	"SYNC_GCS_BUCKET", "SYNC_GCS_OBJECT", "SYNC_GIT_REPO", "SYNC_GIT_FILE", "SYNC_GIT_BRANCH",
}

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(EnvPrefix+key, "") // restores the original value after the test
		os.Unsetenv(EnvPrefix + key)
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      string
		wantGRPCAddr string
		wantHTTPAddr string
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: "DATABASE_URL",
		},
		{
			name:         "DefaultAddresses",
			env:          map[string]string{"BALLOT_DATABASE_URL": "postgres://localhost/ballot"},
			wantGRPCAddr: ":9090",
			wantHTTPAddr: ":8080",
		},
		{
			name: "CustomAddresses",
			env: map[string]string{
				"BALLOT_DATABASE_URL": "sqlite:///var/lib/ballot.db",
				"BALLOT_GRPC_ADDR":    ":5050",
				"BALLOT_HTTP_ADDR":    ":3000",
			},
			wantGRPCAddr: ":5050",
			wantHTTPAddr: ":3000",
		},
		{
			name:    "UnsupportedScheme",
			env:     map[string]string{"BALLOT_DATABASE_URL": "mysql://localhost/ballot"},
			wantErr: "unsupported scheme",
		},
		{
			name: "NegativeRateLimit",
			env: map[string]string{
				"BALLOT_DATABASE_URL": "postgres://localhost/ballot",
				"BALLOT_RATE_LIMIT":   "-1",
			},
			wantErr: "RATE_LIMIT",
		},
		{
			name: "BadRateLimit",
			env: map[string]string{
				"BALLOT_DATABASE_URL": "postgres://localhost/ballot",
				"BALLOT_RATE_LIMIT":   "lots",
			},
			wantErr: "RATE_LIMIT",
		},
		{
			name: "TokenAndJWT",
			env: map[string]string{
				"BALLOT_DATABASE_URL": "postgres://localhost/ballot",
				"BALLOT_AUTH_TOKEN":   "a",
				"BALLOT_JWT_SECRET":   "b",
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "BadSyncInterval",
			env: map[string]string{
				"BALLOT_DATABASE_URL":  "postgres://localhost/ballot",
				"BALLOT_SYNC_INTERVAL": "soon",
			},
			wantErr: "SYNC_INTERVAL",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			setEnv(t, tc.env)

			cfg, err := Load()
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("Load() error = %v, want containing %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.GRPCAddr != tc.wantGRPCAddr || cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("addrs = %q, %q; want %q, %q", cfg.GRPCAddr, cfg.HTTPAddr, tc.wantGRPCAddr, tc.wantHTTPAddr)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"BALLOT_DATABASE_URL": "postgres://localhost/ballot"})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SyncInterval != 3*time.Minute {
		t.Errorf("SyncInterval = %v, want 3m", cfg.SyncInterval)
	}
	if cfg.SyncS3Region != "us-east-1" || cfg.SyncS3Key != "ballot/ledger.jsonl" {
		t.Errorf("S3 defaults = %q, %q", cfg.SyncS3Region, cfg.SyncS3Key)
	}
	if cfg.SyncGitFile != "ballot.jsonl" || cfg.SyncGitBranch != "main" {
		t.Errorf("git defaults = %q, %q", cfg.SyncGitFile, cfg.SyncGitBranch)
	}
	if cfg.JWTIssuer != "ballot" || cfg.RateLimit != 0 {
		t.Errorf("JWTIssuer=%q RateLimit=%d", cfg.JWTIssuer, cfg.RateLimit)
	}
	if cfg.SyncEnabled() {
		t.Error("sync should be disabled without destinations")
	}
}

func TestLoad_Sync(t *testing.T) {
	setEnv(t, map[string]string{
		"BALLOT_DATABASE_URL":    "postgres://localhost/ballot",
		"BALLOT_SYNC_INTERVAL":   "30s",
		"BALLOT_SYNC_GCS_BUCKET": "ballots",
		"BALLOT_RATE_LIMIT":      "60",
		"BALLOT_OWNER":           "alice",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SyncInterval != 30*time.Second || !cfg.SyncEnabled() {
		t.Errorf("SyncInterval=%v enabled=%v", cfg.SyncInterval, cfg.SyncEnabled())
	}
	if cfg.RateLimit != 60 || cfg.Owner != "alice" {
		t.Errorf("RateLimit=%d Owner=%q", cfg.RateLimit, cfg.Owner)
	}
}

func TestSyncEnabled_ZeroInterval(t *testing.T) {
	cfg := &Config{SyncGitRepo: "/tmp/repo"}
	if cfg.SyncEnabled() {
		t.Fatal("interval 0 disables sync")
	}
}
