package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contactcenter_backend/internal/adapters/storage"
	"contactcenter_backend/internal/dialer"
	apphttp "contactcenter_backend/internal/http"
	"contactcenter_backend/internal/http/router"
	"contactcenter_backend/internal/origination"
	"contactcenter_backend/internal/realtime"
	"contactcenter_backend/internal/scheduler"
	"contactcenter_backend/migrations"
	"contactcenter_backend/platform/bus"
	"contactcenter_backend/platform/config"
	"contactcenter_backend/platform/db"
	"contactcenter_backend/platform/logger"
	"contactcenter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Redis event bus. Every process publishes its own mutations here and the
	// realtime gateway relays them to connected sessions.
	eventBus, err := bus.New(cfg, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = eventBus.Close() }()
	log.Info("event bus connected")

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	dialerModule := dialer.NewModule(pool, eventBus, val, log)

	if cfg.IsMinIOEnabled() {
		archive, err := storage.NewArchive(cfg)
		if err != nil {
			log.Error("failed to initialize import archive", "error", err)
			panic("failed to initialize import archive: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure import archive bucket", 5, 2*time.Second, func() error {
			return archive.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure import archive bucket", "error", err)
			panic("failed to ensure import archive bucket: " + err.Error())
		}
		dialerModule.SetImportArchiver(archive)
		log.Info("import archive initialized", "bucket", cfg.GetMinioBucketContactImports())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; import payloads will not be archived")
	}

	recycleClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Warn("deferred recycling disabled", "error", err)
	} else {
		defer func() { _ = recycleClient.Close() }()
		dialerModule.SetRecycleScheduler(recycleClient)
	}

	originationModule := origination.NewModule(pool, cfg, log)

	realtimeModule := realtime.NewModule(cfg, eventBus, log)
	realtimeModule.Start(ctx)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Bus:    eventBus,
		Modules: []apphttp.Module{
			dialerModule,
			originationModule,
			realtimeModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
