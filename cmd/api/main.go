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

	"tradebook/internal/config"
	"tradebook/internal/database"
	"tradebook/internal/events"
	"tradebook/internal/logger"
	"tradebook/internal/quotes"
	"tradebook/internal/scheduler"
	"tradebook/internal/server"
	"tradebook/internal/services"
	"tradebook/internal/validator"
)

// @title           Tradebook API
// @version         1.0
// @description     Tradebook is a trading journal that tracks positions, a focus-stock watchlist and team trade books with derived P&L.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	validator.Register()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(appConfig.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	var sink events.Sink = events.NewLogSink()
	if len(appConfig.KafkaBrokers) > 0 {
		sink = events.NewKafkaSink(appConfig.KafkaBrokers, appConfig.KafkaTopic)
		log.Infow("publishing position events to kafka", "brokers", appConfig.KafkaBrokers, "topic", appConfig.KafkaTopic)
	}
	defer sink.Close()

	// Initialize services
	db := dbManager.DB()
	clock := services.ClockIn(appConfig.Timezone)
	userService := services.NewUserService(db, clock)
	positionService := services.NewPositionService(db, sink, clock)
	focusStockService := services.NewFocusStockService(db, sink, clock)
	teamService := services.NewTeamService(db, positionService, sink)
	reportService := services.NewReportService(positionService, teamService)
	auditService := services.NewAuditService(db)

	provider, closeCache, err := buildQuoteProvider(appConfig)
	if err != nil {
		return err
	}
	defer closeCache()
	refresher := quotes.NewRefresher(positionService, focusStockService, provider, time.Minute)

	sched := scheduler.New()
	if appConfig.QuoteSchedule != "" {
		if err := sched.AddJob(appConfig.QuoteSchedule, refresher); err != nil {
			return fmt.Errorf("failed to schedule quote refresh: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	deps := server.Deps{
		JWTSecret:      appConfig.JWTSecret,
		TokenTTL:       appConfig.JWTExpirationDur,
		RequestTimeout: appConfig.RequestTimeout,
		OpsAPIKey:      appConfig.OpsAPIKey,
		Users:          userService,
		Positions:      positionService,
		FocusStocks:    focusStockService,
		Teams:          teamService,
		Reports:        reportService,
		Audit:          auditService,
		Refresher:      refresher,
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Tradebook backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// buildQuoteProvider wires the Yahoo provider, fronted by Redis when
// REDIS_URL is set. The returned func releases the cache.
func buildQuoteProvider(cfg *config.Config) (quotes.Provider, func(), error) {
	opts := []quotes.YahooOption{quotes.WithRateLimit(cfg.QuoteRateLimit)}
	if cfg.QuoteBaseURL != "" {
		opts = append(opts, quotes.WithBaseURL(cfg.QuoteBaseURL))
	}
	if cfg.QuoteSymbolSuffix != "" {
		opts = append(opts, quotes.WithSymbolSuffix(cfg.QuoteSymbolSuffix))
	}
	var provider quotes.Provider = quotes.NewYahooProvider(opts...)

	if cfg.RedisURL == "" {
		return provider, func() {}, nil
	}
	cache, err := quotes.NewRedisCache(cfg.RedisURL, cfg.QuoteCacheTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect quote cache: %w", err)
	}
	return quotes.NewCachedProvider(provider, cache), func() { _ = cache.Close() }, nil
}
