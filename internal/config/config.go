package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string
	APIKey           string

	DailyFreeLimit         int
	BonusLimit             int
	MinRequestIntervalSecs int
	LargeCapRankThreshold  int

	FomoScanIntervalSecs int
	AlertMinScore        int
	ScanTopNExclude      int
	ScanMaxDetail        int
	BroadcastChatID      int64
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.DailyFreeLimit = 5
	if v := os.Getenv("DAILY_FREE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DailyFreeLimit = n
		}
	}

	cfg.BonusLimit = 3
	if v := os.Getenv("BONUS_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BonusLimit = n
		}
	}

	cfg.MinRequestIntervalSecs = 1
	if v := os.Getenv("MIN_REQUEST_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MinRequestIntervalSecs = n
		}
	}

	cfg.LargeCapRankThreshold = 50
	if v := os.Getenv("LARGE_CAP_RANK_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LargeCapRankThreshold = n
		}
	}

	cfg.FomoScanIntervalSecs = 2 * 3600
	if v := os.Getenv("FOMO_SCAN_INTERVAL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FomoScanIntervalSecs = n
		}
	}

	cfg.AlertMinScore = 75
	if v := os.Getenv("ALERT_MIN_SCORE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			cfg.AlertMinScore = n
		}
	}

	cfg.ScanTopNExclude = 15
	if v := os.Getenv("SCAN_TOP_N_EXCLUDE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ScanTopNExclude = n
		}
	}

	cfg.ScanMaxDetail = 25
	if v := os.Getenv("SCAN_MAX_DETAIL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ScanMaxDetail = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("BROADCAST_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.BroadcastChatID = n
		}
	}

	return cfg
}
