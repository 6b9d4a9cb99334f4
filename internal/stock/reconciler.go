// Package stock, satış kalemleri değiştikçe ürün stoğunu ve fiş toplamını
// tutarlı tutan tek yetkili bileşeni içerir.
//
// Her kalem oluşturma/güncelleme/silme işlemi tam olarak bir kez Reconciler'dan
// geçer ve kalem satırı ile aynı veritabanı transaction'ı içinde çalışır.
package stock

import (
	"context"
	"fmt"
	"log"

	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
)

// Catalog, stok değişikliklerini atomik UPDATE olarak uygulayan ürün deposu.
type Catalog interface {
	// DecrementStock stok >= quantity ise düşer; false: ürün yok veya stok yetmiyor.
	// includeDeleted soft-delete edilmiş ürünleri de kapsar.
	DecrementStock(ctx context.Context, productID uint, quantity int, includeDeleted bool) (bool, error)
	// DecrementStockFloor stoğu düşer, 0'ın altına inmez; false: ürün yok.
	DecrementStockFloor(ctx context.Context, productID uint, quantity int, includeDeleted bool) (bool, error)
	// IncrementStock silinmiş ürünler dahil stoğu artırır; false: ürün satırı yok.
	IncrementStock(ctx context.Context, productID uint, quantity int) (bool, error)
	// ProductStock ürünün mevcut stoğu.
	ProductStock(ctx context.Context, productID uint, includeDeleted bool) (stock int, found bool, err error)
}

// Totals, fiş toplamını kalemlerden yeniden hesaplamak için gereken depo.
type Totals interface {
	SumItemSubtotals(ctx context.Context, transactionID uint) (int64, error)
	SetTransactionTotal(ctx context.Context, transactionID uint, total int64) error
}

type Reconciler struct {
	policy  Policy
	catalog Catalog
	totals  Totals
}

func NewReconciler(policy Policy) *Reconciler {
	if policy == "" {
		policy = PolicyStrict
	}
	return &Reconciler{policy: policy}
}

// WithStores transaction kapsamlı depolara bağlı bir kopya döner.
func (r *Reconciler) WithStores(catalog Catalog, totals Totals) *Reconciler {
	cp := *r
	cp.catalog = catalog
	cp.totals = totals
	return &cp
}

func (r *Reconciler) Policy() Policy {
	return r.policy
}

// OnItemCreated: stock -= item.Quantity
func (r *Reconciler) OnItemCreated(ctx context.Context, item *models.TransactionItem) error {
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, item.Quantity)
	}
	return r.take(ctx, item.ProductID, item.Quantity, false)
}

// OnItemUpdated önce eski miktarı iade eder, sonra yeni miktarı düşer.
// İki adım ayrı ayrı uygulanır; tek bir işaretli delta'ya indirgenmez.
// Kalem zaten kayıtlı olduğundan ürün sonradan silinmiş olsa da uygulanır.
func (r *Reconciler) OnItemUpdated(ctx context.Context, item *models.TransactionItem, previousQuantity int) error {
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, item.Quantity)
	}
	if previousQuantity <= 0 {
		return fmt.Errorf("%w: önceki miktar %d", ErrInvalidQuantity, previousQuantity)
	}
	if previousQuantity == item.Quantity {
		return nil
	}
	if err := r.restore(ctx, item.ProductID, previousQuantity); err != nil {
		return err
	}
	return r.take(ctx, item.ProductID, item.Quantity, true)
}

// OnItemDeleted: stock += item.Quantity
func (r *Reconciler) OnItemDeleted(ctx context.Context, item *models.TransactionItem) error {
	return r.restore(ctx, item.ProductID, item.Quantity)
}

// RecomputeTransactionTotal aktif kalemlerin subtotal toplamını fişe yazar.
func (r *Reconciler) RecomputeTransactionTotal(ctx context.Context, transactionID uint) (int64, error) {
	total, err := r.totals.SumItemSubtotals(ctx, transactionID)
	if err != nil {
		return 0, fmt.Errorf("fiş toplamı hesaplanamadı: %w", err)
	}
	if total > models.MaxAmount {
		return 0, fmt.Errorf("%w: fiş %d toplamı %d", models.ErrAmountTooLarge, transactionID, total)
	}
	if err := r.totals.SetTransactionTotal(ctx, transactionID, total); err != nil {
		return 0, fmt.Errorf("fiş toplamı kaydedilemedi: %w", err)
	}
	return total, nil
}

// take includeDeleted false ise yalnızca aktif ürünlerden düşer (yeni kalem).
func (r *Reconciler) take(ctx context.Context, productID uint, quantity int, includeDeleted bool) error {
	var (
		ok  bool
		err error
	)
	if r.policy == PolicyClamp {
		ok, err = r.catalog.DecrementStockFloor(ctx, productID, quantity, includeDeleted)
	} else {
		ok, err = r.catalog.DecrementStock(ctx, productID, quantity, includeDeleted)
	}
	if err != nil {
		metrics.StockAdjustments.WithLabelValues("decrement", "error").Inc()
		return fmt.Errorf("stok düşülemedi: %w", err)
	}
	if ok {
		metrics.StockAdjustments.WithLabelValues("decrement", "ok").Inc()
		return nil
	}

	current, found, err := r.catalog.ProductStock(ctx, productID, includeDeleted)
	if err != nil {
		return fmt.Errorf("stok okunamadı: %w", err)
	}
	if !found {
		metrics.StockAdjustments.WithLabelValues("decrement", "not_found").Inc()
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	metrics.StockAdjustments.WithLabelValues("decrement", "insufficient").Inc()
	return fmt.Errorf("%w: ürün %d, mevcut %d, istenen %d", ErrInsufficientStock, productID, current, quantity)
}

func (r *Reconciler) restore(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	ok, err := r.catalog.IncrementStock(ctx, productID, quantity)
	if err != nil {
		metrics.StockAdjustments.WithLabelValues("increment", "error").Inc()
		return fmt.Errorf("stok iade edilemedi: %w", err)
	}
	if !ok {
		// Ürün satırı hiç yoksa kalem sahipsizdir; iade edilecek bir yer yok.
		log.Printf("[WARN] stok iadesi atlandı, ürün bulunamadı: %d", productID)
		metrics.StockAdjustments.WithLabelValues("increment", "not_found").Inc()
		return nil
	}
	metrics.StockAdjustments.WithLabelValues("increment", "ok").Inc()
	return nil
}
