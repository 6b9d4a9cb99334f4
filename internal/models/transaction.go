package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Transaction: kasada girilen satış fişi (birden fazla kalem içerir)
type Transaction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Reference       string    `gorm:"size:36;uniqueIndex;not null" json:"reference"` // fiş numarası (uuid)
	TransactionDate time.Time `gorm:"index;not null" json:"transaction_date"`
	Total           int64     `gorm:"not null;default:0" json:"total"` // aktif kalemlerin subtotal toplamı
	AuditFields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items"`
}

// TransactionItem: fiş içindeki her ürün satırı
type TransactionItem struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	TransactionID uint    `gorm:"index;not null" json:"transaction_id"`
	ProductID     uint    `gorm:"index;not null" json:"product_id"`
	Product       Product `json:"product"`
	Quantity      int     `gorm:"not null;check:chk_transaction_items_quantity,quantity > 0" json:"quantity"`
	Price         int64   `gorm:"not null" json:"price"`    // satış anındaki birim fiyat, sonradan değişmez
	Subtotal      int64   `gorm:"not null" json:"subtotal"` // Quantity * Price
	AuditFields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MaxAmount bir ürün fiyatı, kalem subtotal'ı ya da fiş toplamı için üst sınır
// (en küçük para birimi). Günlük toplamlar int64 içinde kalır.
const MaxAmount int64 = 1_000_000_000_000_000

var ErrAmountTooLarge = errors.New("tutar izin verilen üst sınırı aşıyor")

// SetQuantity miktarı değiştirir ve subtotal'ı snapshot fiyattan yeniden hesaplar.
// Subtotal MaxAmount'u aşacaksa kalem değişmez.
func (i *TransactionItem) SetQuantity(quantity int) error {
	if quantity > 0 && i.Price > 0 && int64(quantity) > MaxAmount/i.Price {
		return fmt.Errorf("%w: %d x %d", ErrAmountTooLarge, quantity, i.Price)
	}
	i.Quantity = quantity
	i.Subtotal = int64(quantity) * i.Price
	return nil
}
