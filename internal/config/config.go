package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	SheetsAPIKey    string
	SheetID         string
	SheetsBaseURL   string
	RedisAddr       string
	RedisPassword   string
	ServerPort      string
	LogLevel        string
	RefreshSchedule string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		SheetsAPIKey:    getEnv("SHEETS_API_KEY", ""),
		SheetID:         getEnv("SHEET_ID", ""),
		SheetsBaseURL:   getEnv("SHEETS_BASE_URL", "https://sheets.googleapis.com/v4/spreadsheets"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "Sun 06:00,Wed 06:00,Fri 06:00"),
	}

	if cfg.SheetsAPIKey == "" {
		return nil, fmt.Errorf("SHEETS_API_KEY is required")
	}
	if cfg.SheetID == "" {
		return nil, fmt.Errorf("SHEET_ID is required")
	}

	logger.Info().
		Str("sheet_id", cfg.SheetID).
		Str("redis_addr", cfg.RedisAddr).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("refresh_schedule", cfg.RefreshSchedule).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
