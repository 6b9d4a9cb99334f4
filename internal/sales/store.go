package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTransactionNotFound = errors.New("fiş bulunamadı")
	ErrItemNotFound        = errors.New("fiş kalemi bulunamadı")
)

// Store fiş ve fiş kalemleri için gorm deposu.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// withItems kalemleri ve ürünlerini (silinmiş ürünler dahil) tek sorguda yükler.
func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("transaction_items.id ASC") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

// CreateTransaction sadece fiş başlığını yazar; kalemler CreateItem ile eklenir.
func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (s *Store) FindTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := withItems(s.db.WithContext(ctx)).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
		}
		return nil, err
	}
	return &t, nil
}

// FindTransactionsByDate [from, to) aralığındaki fişleri kalemleriyle döner.
func (s *Store) FindTransactionsByDate(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	var list []models.Transaction
	err := withItems(s.db.WithContext(ctx)).
		Where("transaction_date >= ? AND transaction_date < ?", from.UTC(), to.UTC()).
		Order("transaction_date ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// SumSubtotalsBetween [from, to) aralığındaki aktif fişlerin aktif kalem toplamı.
func (s *Store) SumSubtotalsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.TransactionItem{}).
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id AND transactions.deleted_at IS NULL").
		Where("transactions.transaction_date >= ? AND transactions.transaction_date < ?", from.UTC(), to.UTC()).
		Select("COALESCE(SUM(transaction_items.subtotal), 0)").
		Scan(&total).Error
	return total, err
}

func (s *Store) CreateItem(ctx context.Context, item *models.TransactionItem) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (s *Store) FindItem(ctx context.Context, transactionID, itemID uint) (*models.TransactionItem, error) {
	var item models.TransactionItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND transaction_id = ?", itemID, transactionID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrItemNotFound, itemID)
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ActiveItems(ctx context.Context, transactionID uint) ([]models.TransactionItem, error) {
	var items []models.TransactionItem
	err := s.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// UpdateItemQuantity miktar ve subtotal'ı yazar; fiyat snapshot'ına dokunmaz.
func (s *Store) UpdateItemQuantity(ctx context.Context, item *models.TransactionItem) error {
	return s.db.WithContext(ctx).Model(item).
		Select("quantity", "subtotal", "updated_by").
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"subtotal":   item.Subtotal,
			"updated_by": item.UpdatedBy,
		}).Error
}

func (s *Store) DeleteItem(ctx context.Context, item *models.TransactionItem, deletedBy *uint) error {
	db := s.db.WithContext(ctx)
	if err := db.Model(item).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return db.Delete(item).Error
}

func (s *Store) DeleteTransaction(ctx context.Context, t *models.Transaction, deletedBy *uint) error {
	db := s.db.WithContext(ctx)
	if err := db.Model(t).Omit(clause.Associations).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return db.Omit(clause.Associations).Delete(t).Error
}

func (s *Store) SumItemSubtotals(ctx context.Context, transactionID uint) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.TransactionItem{}).
		Where("transaction_id = ?", transactionID).
		Select("COALESCE(SUM(subtotal), 0)").
		Scan(&total).Error
	return total, err
}

func (s *Store) SetTransactionTotal(ctx context.Context, transactionID uint, total int64) error {
	return s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", transactionID).
		Update("total", total).Error
}
