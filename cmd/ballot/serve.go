package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alfredjeanlab/ballot/internal/config"
	"github.com/alfredjeanlab/ballot/internal/events"
	"github.com/alfredjeanlab/ballot/internal/identity"
	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/server"
	"github.com/alfredjeanlab/ballot/internal/store"
	"github.com/alfredjeanlab/ballot/internal/store/postgres"
	"github.com/alfredjeanlab/ballot/internal/store/sqlite"
	ballotsync "github.com/alfredjeanlab/ballot/internal/sync"
	"github.com/alfredjeanlab/ballot/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the ballot gRPC and HTTP servers",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// Override PersistentPreRunE so we don't create a client connection.
	PersistentPreRunE: localCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, version)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		if cfg.OTelEndpoint != "" {
			logger.Info("tracing enabled", "endpoint", cfg.OTelEndpoint)
		}

		st, err := openStore(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (BALLOT_NATS_URL not set)")
		}

		var opts []server.Option
		var redisClient *redis.Client
		if cfg.RateLimit > 0 {
			if cfg.RedisURL != "" {
				ropts, err := redis.ParseURL(cfg.RedisURL)
				if err != nil {
					publisher.Close()
					st.Close()
					return fmt.Errorf("parsing BALLOT_REDIS_URL: %w", err)
				}
				redisClient = redis.NewClient(ropts)
				opts = append(opts, server.WithLimiter(server.NewRedisLimiter(redisClient, cfg.RateLimit)))
				logger.Info("rate limiting enabled", "per_minute", cfg.RateLimit, "backend", "redis")
			} else {
				opts = append(opts, server.WithLimiter(server.NewLocalLimiter(cfg.RateLimit)))
				logger.Info("rate limiting enabled", "per_minute", cfg.RateLimit, "backend", "local")
			}
		}

		ledgerServer, err := server.NewLedgerServer(ctx, st, publisher, opts...)
		if err != nil {
			publisher.Close()
			st.Close()
			return fmt.Errorf("loading ledger: %w", err)
		}

		if cfg.Owner != "" {
			err := ledgerServer.Ledger().Init(ctx, model.Identity(cfg.Owner))
			switch {
			case err == nil:
				logger.Info("ledger initialized", "owner", cfg.Owner)
			case errors.Is(err, model.ErrAlreadyInitialized):
			default:
				publisher.Close()
				st.Close()
				return fmt.Errorf("initializing ledger: %w", err)
			}
		}

		resolver := newResolver(cfg)
		grpcServer := server.NewGRPCServer(ledgerServer, resolver)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			publisher.Close()
			st.Close()
			return err
		}

		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           ledgerServer.NewHTTPHandler(resolver),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		var scheduler *ballotsync.Scheduler
		var closers []io.Closer
		if cfg.SyncEnabled() {
			dests, c := syncDestinations(ctx, cfg, logger)
			closers = c
			if len(dests) > 0 {
				scheduler = ballotsync.NewScheduler(ledgerServer.Ledger(), dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		logger.Info("ballot server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"version", version,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Error("error closing sync destination", "err", err)
			}
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Error("error closing redis client", "err", err)
			}
		}
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("error flushing traces", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// openStore picks the store implementation from the URL scheme.
func openStore(databaseURL string) (store.Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		s, err := postgres.New(databaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return nil, errors.New("sqlite URL has no path")
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database URL %q", databaseURL)
	}
}

// newResolver returns the caller identity resolver for cfg. A JWT secret
// takes precedence; otherwise the caller header is trusted, optionally
// behind a shared bearer token.
func newResolver(cfg *config.Config) identity.Resolver {
	if cfg.JWTSecret != "" {
		return identity.NewJWTResolver(cfg.JWTSecret, cfg.JWTIssuer)
	}
	return identity.HeaderResolver{Token: cfg.AuthToken}
}

// syncDestinations builds the configured destinations. A destination that
// fails to initialize is logged and skipped.
func syncDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]ballotsync.Destination, []io.Closer) {
	var (
		dests   []ballotsync.Destination
		closers []io.Closer
	)

	if cfg.SyncS3Bucket != "" {
		d, err := ballotsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, d)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}

	if cfg.SyncGCSBucket != "" {
		d, err := ballotsync.NewGCSDestination(ctx, cfg.SyncGCSBucket, cfg.SyncGCSObject)
		if err != nil {
			logger.Error("failed to create GCS sync destination", "err", err)
		} else {
			dests = append(dests, d)
			closers = append(closers, d)
			logger.Info("sync GCS destination enabled", "bucket", cfg.SyncGCSBucket, "object", cfg.SyncGCSObject)
		}
	}

	if cfg.SyncGitRepo != "" {
		dests = append(dests, ballotsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}

	return dests, closers
}
