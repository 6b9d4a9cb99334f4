// Package dbtest testler için izole, migrate edilmiş in-memory SQLite veritabanı açar.
package dbtest

import (
	"testing"

	"pos-backend/internal/config"
	"pos-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New her çağrıda ayrı bir in-memory veritabanı döner.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := database.Open(&config.Config{DatabaseDriver: "sqlite", DatabaseDSN: dsn})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
