// Package main is the entry point for the quote server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotegen/internal/adapters/clients"
	"github.com/jsamuelsen/quotegen/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotegen/internal/adapters/events"
	"github.com/jsamuelsen/quotegen/internal/adapters/http"
	"github.com/jsamuelsen/quotegen/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotegen/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotegen/internal/adapters/storage"
	"github.com/jsamuelsen/quotegen/internal/app"
	"github.com/jsamuelsen/quotegen/internal/platform/config"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
	"github.com/jsamuelsen/quotegen/internal/platform/telemetry"
	"github.com/jsamuelsen/quotegen/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

//nolint:funlen // linear wiring is easier to follow in one place
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting quotegen",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Storage.Driver),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Open storage: durable per config, sessions in a bounded expiring cache
	durable, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	defer func() {
		if closeErr := durable.Close(); closeErr != nil {
			logger.Error("storage close error", slog.Any("error", closeErr))
		}
	}()

	session := storage.NewSessionStore(cfg.Storage.Session.MaxEntries, cfg.Storage.Session.TTL)

	// 6. Observers: websocket clients and the log
	hub, err := events.NewHub(events.HubConfig{
		Logger:             logger,
		SessionFromContext: middleware.SessionIDFromContext,
	})
	if err != nil {
		return fmt.Errorf("creating event hub: %w", err)
	}

	observers := ports.Observers{hub, app.NewLogObserver(logger)}

	// 7. Create and load the quote store
	store := app.NewQuoteStore(app.QuoteStoreConfig{
		Durable:  durable,
		Session:  session,
		Observer: observers,
		Keys: app.StoreKeys{
			Quotes:               cfg.Storage.Keys.Quotes,
			LastSelectedCategory: cfg.Storage.Keys.LastSelectedCategory,
			LastViewedQuote:      cfg.Storage.Keys.LastViewedQuote,
		},
		Logger: logger,
	})

	logger.Info("quotes loaded", slog.Int("count", len(store.Load(ctx))))

	if _, err := telemetry.RegisterCollectionGauge(nil, store.Len); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	// 8. Create the remote quote source (ACL pattern)
	httpClient, err := clients.New(clients.Config{
		BaseURL:     cfg.Sync.Source.BaseURL,
		ServiceName: cfg.Sync.Source.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	source := acl.NewPostsSource(acl.PostsSourceConfig{
		Client:     httpClient,
		Path:       cfg.Sync.Source.Path,
		MaxRecords: cfg.Sync.MaxRecords,
		Author:     cfg.Sync.Author,
		Category:   cfg.Sync.Category,
		Logger:     logger,
	})

	// 9. Health: storage is critical, the quote server is not
	healthRegistry := ports.NewHealthRegistry()

	if err := healthRegistry.Register(durable); err != nil {
		return fmt.Errorf("registering storage health check: %w", err)
	}

	if err := healthRegistry.RegisterOptional(source); err != nil {
		return fmt.Errorf("registering quote source health check: %w", err)
	}

	// 10. Create the syncer
	syncer, err := app.NewSyncer(app.SyncerConfig{
		Store:    store,
		Source:   source,
		Observer: observers,
		Interval: cfg.Sync.Interval,
		Timeout:  cfg.Sync.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating syncer: %w", err)
	}

	// 11. Create HTTP server and router
	server := http.New(&cfg.Server, logger)
	server.OnShutdown(func() {
		if closeErr := hub.Close(); closeErr != nil {
			logger.Error("event hub close error", slog.Any("error", closeErr))
		}
	})

	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:        logger,
		AppName:       cfg.App.Name,
		Store:         store,
		Syncer:        syncer,
		Events:        hub,
		HealthHandler: handlers.NewHealthHandler(healthRegistry, buildInfo).WithCollection(store),
		Timeout:       http.DefaultRequestTimeout,
	})

	// 12. Run until a signal or a server error
	if cfg.Sync.Enabled {
		syncer.Start(ctx)
		defer syncer.Stop()
	}

	return serve(ctx, logger, server, cfg.Server.ShutdownTimeout)
}

// serve runs the server until ctx ends or the server fails, then shuts it down
// within shutdownTimeout.
func serve(ctx context.Context, logger *slog.Logger, server *http.Server, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := <-server.Start(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		if ctx.Err() != nil {
			logger.Info("received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		logger.Info("initiating graceful shutdown", slog.Duration("timeout", shutdownTimeout))

		// Stop accepting new requests, drain in-flight
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}
