package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-fomo-bot/internal/bot"
	"crypto-fomo-bot/internal/cache"
	"crypto-fomo-bot/internal/config"
	"crypto-fomo-bot/internal/db"
	"crypto-fomo-bot/internal/fomo"
	"crypto-fomo-bot/internal/handler"
	"crypto-fomo-bot/internal/job"
	"crypto-fomo-bot/internal/ledger"
	"crypto-fomo-bot/internal/provider"
	"crypto-fomo-bot/internal/ratelimit"
	"crypto-fomo-bot/internal/repository"
	"crypto-fomo-bot/internal/service"
	"crypto-fomo-bot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "crypto-fomo-bot/docs"
)

// marketProvider is everything the scan service and the background
// scanner need from the market data source.
type marketProvider interface {
	service.SnapshotProvider
	job.MarketSource
}

var (
	loadEnvFunc              = godotenv.Load
	loadConfigFunc           = config.Load
	initPostgresFunc         = db.InitPostgres
	initRedisFunc            = cache.InitRedis
	initTracerFunc           = tracing.InitTracer
	newCoinGeckoProviderFunc = func(tracer trace.Tracer) marketProvider {
		return provider.NewCoinGeckoProvider(tracer)
	}
	startScannerFunc       = func(s *job.FomoScanner, ctx context.Context) { go s.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Crypto FOMO Bot API
// @version         1.0
// @description     FOMO scoring, token quotas, and market scan alerts over Telegram and HTTP.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Create repositories and run migrations. Without Postgres the
	// repositories stay constructed but every call reports
	// repository.ErrNoDatabase, which the ledger surfaces as a
	// transient failure rather than a crash.
	var pool repository.PgxPool
	if db.Pool != nil {
		pool = db.Pool
	}
	accountRepo := repository.NewAccountRepository(pool, tracer)
	subscriberRepo := repository.NewSubscriberRepository(pool, tracer)
	alertRepo := repository.NewAlertRepository(pool, tracer)
	if db.Pool != nil {
		if err := accountRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run user migrations: %v", err)
		}
		if err := subscriberRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run subscriber migrations: %v", err)
		}
		if err := alertRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run alert migrations: %v", err)
		}
	}

	// Core scan pipeline: engine, ledger, rate limiter, service
	engine := fomo.NewEngine(cfg.LargeCapRankThreshold)
	quota := ledger.New(accountRepo, tracer, cfg.DailyFreeLimit, cfg.BonusLimit)
	limiter := ratelimit.New(quota, tracer, time.Duration(cfg.MinRequestIntervalSecs)*time.Second)

	cgProvider := newCoinGeckoProviderFunc(tracer)
	fomoService := service.NewFomoService(tracer, cgProvider, engine, quota, limiter, cache.Client)

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	tgBot := startTelegramBotFunc(fomoService, subscriberRepo)
	if tgBot != nil && db.Pool != nil && cfg.BroadcastChatID != 0 {
		if err := subscriberRepo.Add(ctx, cfg.BroadcastChatID); err != nil {
			log.Printf("failed to register broadcast chat %d: %v", cfg.BroadcastChatID, err)
		}
	}

	// Start market scanner (background goroutine, stopped by ctx cancel)
	var alertSink job.AlertSink
	var alertReader handler.AlertReader
	if db.Pool != nil {
		alertSink = alertRepo
		alertReader = alertRepo
	}
	var notifier job.AlertNotifier
	if tgBot != nil {
		notifier = tgBot
	}
	scanner := job.NewFomoScanner(tracer, cgProvider, engine, alertSink, notifier, job.ScanConfig{
		IntervalSecs: cfg.FomoScanIntervalSecs,
		MinScore:     cfg.AlertMinScore,
		TopNExclude:  cfg.ScanTopNExclude,
		MaxDetail:    cfg.ScanMaxDetail,
	})
	startScannerFunc(scanner, ctx)

	// Create handlers and routes
	h := newHandlerFunc(tracer, fomoService, alertReader, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("crypto-fomo-bot"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
