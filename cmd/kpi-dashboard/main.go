package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/radiusdt/kpi-dashboard/internal/config"
	"github.com/radiusdt/kpi-dashboard/internal/dashboard"
	"github.com/radiusdt/kpi-dashboard/internal/database"
	"github.com/radiusdt/kpi-dashboard/internal/googleads"
	"github.com/radiusdt/kpi-dashboard/internal/httpserver"
	"github.com/radiusdt/kpi-dashboard/internal/metrics"
	"github.com/radiusdt/kpi-dashboard/internal/middleware"
	"github.com/radiusdt/kpi-dashboard/internal/storage"
	"github.com/radiusdt/kpi-dashboard/internal/synthetic"
)

const (
	startupTimeout      = 30 * time.Second
	limiterCleanupEvery = 5 * time.Minute
	dbStatsEvery        = 15 * time.Second
)

// backends holds the optional connections opened for the configured source.
type backends struct {
	db         *database.PostgresDB
	redis      *database.RedisDB
	clickhouse *database.ClickHouseDB
}

func (b *backends) close() {
	if b.db != nil {
		b.db.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.clickhouse != nil {
		_ = b.clickhouse.Close()
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := middleware.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting KPI dashboard",
		zap.String("env", cfg.Server.Env),
		zap.String("addr", cfg.Server.Addr),
		zap.String("source", cfg.Source.Kind),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(cfg.Metrics.Namespace, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	b := &backends{}
	source, err := newSource(startCtx, cfg, b, logger, m)
	cancel()
	if err != nil {
		b.close()
		logger.Fatal("failed to initialize data source", zap.Error(err))
	}
	defer b.close()

	state := dashboard.NewState(source, dashboard.Options{
		DefaultTimeRange: cfg.DefaultTimeRange(),
		FetchDelay:       cfg.Dashboard.FetchDelay,
		RefreshTimeout:   cfg.Dashboard.RefreshTimeout,
	}, logger, m)

	// An unavailable source at start is not fatal; the first API call retries.
	if err := state.LoadCampaigns(ctx); err != nil {
		logger.Warn("initial campaign load failed", zap.Error(err))
	}

	rl := middleware.NewRateLimitMiddleware(cfg.RateLimit, logger, m)
	handler := httpserver.NewServer(&httpserver.Dependencies{
		State:       state,
		DB:          b.db,
		Redis:       b.redis,
		ClickHouse:  b.clickhouse,
		Config:      cfg,
		Logger:      logger,
		Metrics:     m,
		Gatherer:    reg,
		RateLimiter: rl,
	})

	go runEvery(ctx, limiterCleanupEvery, func() {
		if n := rl.CleanupIPLimiters(); n > 0 {
			logger.Debug("removed idle ip limiters", zap.Int("count", n))
		}
	})
	if b.db != nil {
		go runEvery(ctx, dbStatsEvery, func() { m.UpdateDBStats(b.db.Stats()) })
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// newSource builds the configured data source and opens the connections it
// needs into b.
func newSource(ctx context.Context, cfg *config.Config, b *backends, logger *zap.Logger, m *metrics.Metrics) (dashboard.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceGoogleAds:
		return newGoogleAdsSource(ctx, cfg, b, logger, m)

	case config.SourcePostgres:
		db, err := database.NewPostgresDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		b.db = db
		repo := storage.NewPostgresMetricsRepo(db.Pool, logger, m)
		return repo, prepareWarehouse(ctx, cfg, repo, logger, m)

	case config.SourceClickHouse:
		ch, err := database.NewClickHouseDB(ctx, cfg.ClickHouse, logger)
		if err != nil {
			return nil, err
		}
		b.clickhouse = ch
		repo := storage.NewClickHouseMetricsRepo(ch.Conn, logger, m)
		return repo, prepareWarehouse(ctx, cfg, repo, logger, m)

	default:
		logger.Info("using synthetic data", zap.Int64("seed", cfg.Source.Seed))
		return synthetic.NewSource(cfg.Source.Seed, logger, m), nil
	}
}

func newGoogleAdsSource(ctx context.Context, cfg *config.Config, b *backends, logger *zap.Logger, m *metrics.Metrics) (dashboard.Source, error) {
	g := cfg.GoogleAds

	var store googleads.TokenStore
	if g.TokenCache {
		rdb, err := database.NewRedisDB(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis not available, access tokens are not shared", zap.Error(err))
		} else {
			b.redis = rdb
			store = storage.NewRedisTokenCache(rdb.Client, cfg.Redis.KeyPrefix, g.ClientID)
		}
	}

	tokens := googleads.NewTokenSource(googleads.OAuthConfig{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RefreshToken: g.RefreshToken,
		TokenURL:     g.TokenURL,
	}, &http.Client{Timeout: g.Timeout}, store, logger, m)

	client := googleads.NewClient(googleads.Config{
		BaseURL:         g.BaseURL,
		APIVersion:      g.APIVersion,
		CustomerID:      g.CustomerID,
		LoginCustomerID: g.LoginCustomerID,
		DeveloperToken:  g.DeveloperToken,
		RequestsPerMin:  g.RequestsPerMin,
		Timeout:         g.Timeout,
	}, tokens, logger, m)

	logger.Info("using Google Ads",
		zap.String("customer_id", g.CustomerID),
		zap.String("api_version", g.APIVersion),
		zap.Int("requests_per_min", g.RequestsPerMin),
	)
	return googleads.NewSource(client, g.DetailsCacheMax, g.DetailsCacheTTL, logger, m), nil
}

// prepareWarehouse migrates the warehouse and optionally seeds it with
// synthetic data.
func prepareWarehouse(ctx context.Context, cfg *config.Config, w storage.Warehouse, logger *zap.Logger, m *metrics.Metrics) error {
	if err := w.Migrate(ctx); err != nil {
		return err
	}
	if cfg.Source.WarehouseSeedDays <= 0 {
		return nil
	}
	src := synthetic.NewSource(cfg.Source.Seed, logger, m)
	_, err := storage.Seed(ctx, w, src, cfg.Source.WarehouseSeedDays, time.Now(), logger)
	return err
}

func runEvery(ctx context.Context, every time.Duration, fn func()) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}
