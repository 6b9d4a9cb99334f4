package models

import (
	"time"

	"gorm.io/gorm"
)

// Product: katalogdaki satılabilir ürün. Stock sadece stock.Reconciler ya da
// admin ürün düzenlemesi ile değişir.
type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Price       int64  `gorm:"not null;check:chk_products_price,price >= 0 AND price <= 1000000000000000" json:"price"` // en küçük para birimi
	Stock       int    `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"`
	AuditFields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
