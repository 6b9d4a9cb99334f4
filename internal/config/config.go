package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pos-backend/internal/stock"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=pos port=5432 sslmode=disable"

type Config struct {
	HTTPPort       string
	DatabaseDriver string // postgres | sqlite
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	StockPolicy    stock.Policy // strict | clamp
	ReportTimezone string
}

// Load .env dosyasını (varsa) okur ve environment'tan config oluşturur.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		StockPolicy:    stock.Policy(strings.ToLower(getEnv("STOCK_POLICY", string(stock.PolicyStrict)))),
		ReportTimezone: getEnv("REPORT_TIMEZONE", "UTC"),
	}

	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için kendi domain'ini tanımla.")
	}

	return cfg
}

// Validate zorunlu alanları kontrol eder.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET tanımlanmamış")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET en az 32 karakter olmalı")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("desteklenmeyen DATABASE_DRIVER: %q", c.DatabaseDriver)
	}
	if _, err := stock.ParsePolicy(string(c.StockPolicy)); err != nil {
		return fmt.Errorf("STOCK_POLICY geçersiz: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("REPORT_TIMEZONE geçersiz: %w", err)
	}
	return nil
}

// Location günlük rapor gün sınırları için kullanılan saat dilimi.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ReportTimezone)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
