package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"crypto-fomo-bot/internal/bot"
	"crypto-fomo-bot/internal/config"
	"crypto-fomo-bot/internal/domain"
	"crypto-fomo-bot/internal/job"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewProvider := newCoinGeckoProviderFunc
	origStartScanner := startScannerFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			RedisURL:               "",
			DatabaseURL:            "",
			DailyFreeLimit:         5,
			BonusLimit:             3,
			MinRequestIntervalSecs: 1,
			FomoScanIntervalSecs:   3600,
			AlertMinScore:          75,
			ScanMaxDetail:          25,
		}
	}
	initPostgresFunc = func(context.Context, string) {}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newCoinGeckoProviderFunc = func(trace.Tracer) marketProvider { return stubMarketProvider{} }
	startScannerFunc = func(*job.FomoScanner, context.Context) {}
	startTelegramBotFunc = func(bot.ScanService, bot.Subscribers) *bot.Bot { return nil }
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newCoinGeckoProviderFunc = origNewProvider
		startScannerFunc = origStartScanner
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

type stubMarketProvider struct{}

func (stubMarketProvider) Snapshot(ctx context.Context, coinQuery string) (*domain.MarketSnapshot, error) {
	return &domain.MarketSnapshot{CoinID: coinQuery, VolumeSpikeRatio: 1}, nil
}

func (stubMarketProvider) Markets(ctx context.Context, page, perPage int) ([]*domain.MarketSnapshot, error) {
	return nil, nil
}

func (stubMarketProvider) BaselineSpikeRatio(ctx context.Context, coinID string, currentVolume float64) float64 {
	return 1
}
