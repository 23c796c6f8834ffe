package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/cache"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/config"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/database"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/extractor"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/gateway"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/logging"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/metrics"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/middleware"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/process"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/tracing"
)

func main() {
	// Load configuration; an empty path means defaults plus environment
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize tracing
	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			logger.ErrorWithErr("Failed to initialize tracing, continuing without it", err)
		} else {
			defer closer.Close()
		}
	}

	// Initialize metadata cache
	var infoCache extractor.InfoCache
	if cfg.Cache.Enabled {
		c, err := cache.NewCache(cfg.Cache.Host, cfg.Cache.Port, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			logger.ErrorWithErr("Metadata cache unavailable, continuing without it", err)
		} else {
			defer c.Close()
			infoCache = c
			logger.Infof("Metadata cache enabled (ttl %v)", cfg.Cache.TTL)
		}
	}

	// Initialize download history
	var (
		recorder gateway.Recorder
		health   healthChecker
	)
	if cfg.Database.Enabled {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		history := database.NewHistoryRepository(db.Pool)
		if err := history.EnsureSchema(ctx); err != nil {
			logger.Fatalf("Failed to prepare database: %v", err)
		}
		recorder = history
		health = db
		logger.Info("Download history enabled")
	}

	// Start metrics server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			logger.Infof("Starting metrics server on :%d", metricsServer.Port())
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server stopped", err)
			}
		}()
		defer shutdownWithTimeout(metricsServer.Shutdown, cfg.Server.ShutdownTimeout)
	}

	runner := process.NewRunner(cfg.Extractor.Path)
	runner.WaitDelay = cfg.Extractor.WaitDelay

	api := &API{
		resolver: extractor.NewResolver(runner, extractor.ResolverConfig{
			BaseArgs:     cfg.Extractor.ExtraArgs,
			Timeout:      cfg.Extractor.InfoTimeout,
			MaxInfoBytes: cfg.Extractor.MaxInfoBytes,
			CacheTTL:     cfg.Cache.TTL,
		}, infoCache, logger),
		gateway: gateway.New(runner, gateway.Config{
			BaseArgs:  cfg.Extractor.ExtraArgs,
			ChunkSize: cfg.Extractor.ChunkSize,
		}, recorder, logger),
		health: health,
		logger: logger,
	}

	opts := routerOptions{PublicDir: cfg.Server.PublicDir}
	if cfg.RateLimit.Enabled {
		opts.Limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		go opts.Limiter.Cleanup(ctx, 10*time.Minute)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      setupRouter(api, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting API server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		logger.Fatalf("Failed to start server: %v", err)
	}

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownWithTimeout(srv.Shutdown, cfg.Server.ShutdownTimeout)

	logger.Info("Server stopped")
}

func shutdownWithTimeout(shutdown func(context.Context) error, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}
