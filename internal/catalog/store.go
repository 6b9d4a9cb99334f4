package catalog

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("ürün bulunamadı")

// Store ürün kataloğu için gorm deposu. Stok değişiklikleri oku-yaz yerine tek
// bir UPDATE ifadesiyle yapılır.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

// SaveProduct yeni ürünü oluşturur ya da mevcut ürünü günceller.
func (s *Store) SaveProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("name asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DeleteProduct soft delete; geçmiş satış kalemleri ürüne bağlı kalır.
// Çağıran tarafın transaction'ı içinde çalıştırılmalı.
func (s *Store) DeleteProduct(ctx context.Context, id uint, deletedBy *uint) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return db.Delete(&models.Product{}, "id = ?", id).Error
}

// scoped includeDeleted ise soft-delete filtresini kaldırır; mevcut kalemlerin
// miktar değişikliği silinmiş ürünlerde de uygulanır.
func (s *Store) scoped(ctx context.Context, includeDeleted bool) *gorm.DB {
	db := s.db.WithContext(ctx)
	if includeDeleted {
		db = db.Unscoped()
	}
	return db
}

func (s *Store) DecrementStock(ctx context.Context, productID uint, quantity int, includeDeleted bool) (bool, error) {
	res := s.scoped(ctx, includeDeleted).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	return res.RowsAffected > 0, res.Error
}

func (s *Store) DecrementStockFloor(ctx context.Context, productID uint, quantity int, includeDeleted bool) (bool, error) {
	res := s.scoped(ctx, includeDeleted).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", quantity, quantity))
	return res.RowsAffected > 0, res.Error
}

func (s *Store) IncrementStock(ctx context.Context, productID uint, quantity int) (bool, error) {
	res := s.scoped(ctx, true).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity))
	return res.RowsAffected > 0, res.Error
}

func (s *Store) ProductStock(ctx context.Context, productID uint, includeDeleted bool) (int, bool, error) {
	var p models.Product
	err := s.scoped(ctx, includeDeleted).Select("id", "stock").First(&p, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return p.Stock, true, nil
}
