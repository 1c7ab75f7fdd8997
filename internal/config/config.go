package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/checkout"
)

type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	StockPolicy        checkout.StockPolicy
	DefaultShippingFee decimal.Decimal
	IdempotencyTTL     time.Duration

	LogLevel      slog.Level
	AdminEmail    string
	AdminPassword string
	CORSOrigins   string
}

// Load reads the configuration from the environment. Unset variables fall back
// to development defaults; an empty DATABASE_URL selects the in-memory store.
func Load() (Config, error) {
	cfg := Config{
		Addr:          getenv("SHOP_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		CORSOrigins:   getenv("CORS_ORIGINS", "*"),
	}

	policy, err := checkout.ParseStockPolicy(os.Getenv("STOCK_POLICY"))
	if err != nil {
		return Config{}, fmt.Errorf("STOCK_POLICY: %w", err)
	}
	cfg.StockPolicy = policy

	fee, err := decimal.NewFromString(getenv("DEFAULT_SHIPPING_FEE", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("DEFAULT_SHIPPING_FEE: %w", err)
	}
	if fee.IsNegative() {
		return Config{}, errors.New("DEFAULT_SHIPPING_FEE: must not be negative")
	}
	cfg.DefaultShippingFee = fee

	cfg.IdempotencyTTL, err = time.ParseDuration(getenv("IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("IDEMPOTENCY_TTL: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
