package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"pos-backend/internal/config"
	"pos-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewLogger Warn seviyesinde gorm logger'ı. ErrRecordNotFound beklenen bir
// sonuç (FindProduct, ProductStock), hata olarak loglanmaz.
func NewLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Open config'teki sürücüye göre veritabanına bağlanır.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("desteklenmeyen veritabanı sürücüsü: %s", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)),
	})
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}

	if cfg.DatabaseDriver == "sqlite" {
		// SQLite tek yazıcı; transaction'lar tek bağlantı üzerinden sıralanır
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate şemayı struct tanımlarından oluşturur.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Transaction{},
		&models.TransactionItem{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}
	log.Println("Veritabanı migration tamamlandı.")
	return nil
}

// Init Open + Migrate, başarısızlıkta uygulamayı durdurur.
func Init(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}
	if err := Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}
	log.Println("Veritabanı bağlantısı başarılı.")
	return db
}
