package config

import (
	"testing"

	"pos-backend/internal/stock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "DATABASE_DRIVER", "DATABASE_DSN", "JWT_SECRET", "CORS_ALLOWED_ORIGINS", "STOCK_POLICY", "REPORT_TIMEZONE"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, "8080", c.HTTPPort)
	assert.Equal(t, "postgres", c.DatabaseDriver)
	assert.Equal(t, defaultDSN, c.DatabaseDSN)
	assert.Equal(t, stock.PolicyStrict, c.StockPolicy)
	assert.Equal(t, "UTC", c.ReportTimezone)
	assert.Error(t, c.Validate(), "missing secret must fail validation")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_DSN", "file:pos.db")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STOCK_POLICY", "Clamp")
	t.Setenv("REPORT_TIMEZONE", "Asia/Jakarta")
	c := Load()
	assert.Equal(t, "9090", c.HTTPPort)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "file:pos.db", c.DatabaseDSN)
	assert.Equal(t, stock.PolicyClamp, c.StockPolicy)
	require.NoError(t, c.Validate())

	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestValidateRejects(t *testing.T) {
	base := Config{DatabaseDriver: "postgres", JWTSecret: testSecret, StockPolicy: stock.PolicyStrict, ReportTimezone: "UTC"}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"short secret":   func(c *Config) { c.JWTSecret = "short" },
		"unknown driver": func(c *Config) { c.DatabaseDriver = "mysql" },
		"unknown policy": func(c *Config) { c.StockPolicy = "lenient" },
		"bad timezone":   func(c *Config) { c.ReportTimezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
