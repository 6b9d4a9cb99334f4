package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/catalog"
	"pos-backend/internal/models"
	"pos-backend/internal/stock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNoItems = errors.New("fiş en az bir kalem içermeli")

type ItemInput struct {
	ProductID uint
	Quantity  int
}

type CreateTransactionInput struct {
	Date  time.Time // sıfır ise şimdiki zaman
	Items []ItemInput
}

// Service fiş ve kalem değişikliklerini stok mutabakatı ile birlikte tek bir
// veritabanı transaction'ında uygular.
type Service struct {
	db         *gorm.DB
	reconciler *stock.Reconciler
	now        func() time.Time
}

func NewService(db *gorm.DB, reconciler *stock.Reconciler) *Service {
	return &Service{db: db, reconciler: reconciler, now: time.Now}
}

// unit tek bir transaction'a bağlı depolar.
type unit struct {
	tx      *gorm.DB
	store   *Store
	catalog *catalog.Store
	rec     *stock.Reconciler
	actor   audit.Actor
}

func (s *Service) inTx(ctx context.Context, actor audit.Actor, fn func(u *unit) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewStore(tx)
		cat := catalog.NewStore(tx)
		return fn(&unit{
			tx:      tx,
			store:   store,
			catalog: cat,
			rec:     s.reconciler.WithStores(cat, store),
			actor:   actor,
		})
	})
}

func (u *unit) log(entityType string, id uint, action models.AuditAction, desc string, before, after any) error {
	return audit.WriteLog(u.tx, audit.LogOptions{
		Actor:       u.actor,
		EntityType:  entityType,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

func (u *unit) activeTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := u.tx.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
		}
		return nil, err
	}
	return &t, nil
}

// addItem fiyatı katalogdan alır (snapshot), kalemi yazar ve stoğu düşer.
func (u *unit) addItem(ctx context.Context, transactionID uint, in ItemInput) (*models.TransactionItem, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", stock.ErrInvalidQuantity, in.Quantity)
	}

	p, err := u.catalog.FindProduct(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", stock.ErrProductNotFound, in.ProductID)
		}
		return nil, err
	}

	item := models.TransactionItem{
		TransactionID: transactionID,
		ProductID:     p.ID,
		Price:         p.Price,
		AuditFields:   models.AuditFields{CreatedBy: models.ActorID(u.actor.UserID)},
	}
	if err := item.SetQuantity(in.Quantity); err != nil {
		return nil, err
	}

	if err := u.store.CreateItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("kalem kaydedilemedi: %w", err)
	}
	if err := u.rec.OnItemCreated(ctx, &item); err != nil {
		return nil, err
	}
	item.Product = *p
	return &item, nil
}

func (s *Service) CreateTransaction(ctx context.Context, actor audit.Actor, in CreateTransactionInput) (*models.Transaction, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}

	t := models.Transaction{
		Reference:       uuid.NewString(),
		TransactionDate: date.UTC().Truncate(time.Second),
		AuditFields:     models.AuditFields{CreatedBy: models.ActorID(actor.UserID)},
	}

	err := s.inTx(ctx, actor, func(u *unit) error {
		if err := u.store.CreateTransaction(ctx, &t); err != nil {
			return fmt.Errorf("fiş kaydedilemedi: %w", err)
		}
		for _, in := range in.Items {
			if _, err := u.addItem(ctx, t.ID, in); err != nil {
				return err
			}
		}
		total, err := u.rec.RecomputeTransactionTotal(ctx, t.ID)
		if err != nil {
			return err
		}
		t.Total = total
		return u.log(models.EntityTransaction, t.ID, models.AuditActionCreate,
			fmt.Sprintf("Fiş oluşturuldu: %s (%d kalem, toplam %d)", t.Reference, len(in.Items), total), nil, t)
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, t.ID)
}

func (s *Service) AddItem(ctx context.Context, actor audit.Actor, transactionID uint, in ItemInput) (*models.Transaction, error) {
	err := s.inTx(ctx, actor, func(u *unit) error {
		if _, err := u.activeTransaction(ctx, transactionID); err != nil {
			return err
		}
		item, err := u.addItem(ctx, transactionID, in)
		if err != nil {
			return err
		}
		if _, err := u.rec.RecomputeTransactionTotal(ctx, transactionID); err != nil {
			return err
		}
		return u.log(models.EntityTransactionItem, item.ID, models.AuditActionCreate,
			fmt.Sprintf("Kalem eklendi: fiş %d, %s x%d", transactionID, item.Product.Name, item.Quantity), nil, item)
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, transactionID)
}

func (s *Service) UpdateItemQuantity(ctx context.Context, actor audit.Actor, transactionID, itemID uint, quantity int) (*models.Transaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", stock.ErrInvalidQuantity, quantity)
	}

	err := s.inTx(ctx, actor, func(u *unit) error {
		if _, err := u.activeTransaction(ctx, transactionID); err != nil {
			return err
		}
		item, err := u.store.FindItem(ctx, transactionID, itemID)
		if err != nil {
			return err
		}
		before := *item
		previous := item.Quantity

		if err := item.SetQuantity(quantity); err != nil {
			return err
		}
		item.UpdatedBy = models.ActorID(actor.UserID)
		if err := u.store.UpdateItemQuantity(ctx, item); err != nil {
			return fmt.Errorf("kalem güncellenemedi: %w", err)
		}
		if err := u.rec.OnItemUpdated(ctx, item, previous); err != nil {
			return err
		}
		if _, err := u.rec.RecomputeTransactionTotal(ctx, transactionID); err != nil {
			return err
		}
		return u.log(models.EntityTransactionItem, item.ID, models.AuditActionUpdate,
			fmt.Sprintf("Kalem miktarı değişti: fiş %d, %d -> %d", transactionID, previous, quantity), before, *item)
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, transactionID)
}

func (s *Service) RemoveItem(ctx context.Context, actor audit.Actor, transactionID, itemID uint) (*models.Transaction, error) {
	err := s.inTx(ctx, actor, func(u *unit) error {
		if _, err := u.activeTransaction(ctx, transactionID); err != nil {
			return err
		}
		item, err := u.store.FindItem(ctx, transactionID, itemID)
		if err != nil {
			return err
		}
		if err := u.removeItem(ctx, item); err != nil {
			return err
		}
		if _, err := u.rec.RecomputeTransactionTotal(ctx, transactionID); err != nil {
			return err
		}
		return u.log(models.EntityTransactionItem, item.ID, models.AuditActionDelete,
			fmt.Sprintf("Kalem silindi: fiş %d, ürün %d x%d", transactionID, item.ProductID, item.Quantity), *item, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, transactionID)
}

func (u *unit) removeItem(ctx context.Context, item *models.TransactionItem) error {
	if err := u.store.DeleteItem(ctx, item, models.ActorID(u.actor.UserID)); err != nil {
		return fmt.Errorf("kalem silinemedi: %w", err)
	}
	return u.rec.OnItemDeleted(ctx, item)
}

// DeleteTransaction fişi ve tüm kalemlerini siler, her kalemin stoğunu iade eder.
func (s *Service) DeleteTransaction(ctx context.Context, actor audit.Actor, transactionID uint) error {
	return s.inTx(ctx, actor, func(u *unit) error {
		t, err := u.activeTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		items, err := u.store.ActiveItems(ctx, transactionID)
		if err != nil {
			return err
		}
		for i := range items {
			if err := u.removeItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		if _, err := u.rec.RecomputeTransactionTotal(ctx, transactionID); err != nil {
			return err
		}
		before := *t
		before.Items = items
		if err := u.store.DeleteTransaction(ctx, t, models.ActorID(actor.UserID)); err != nil {
			return fmt.Errorf("fiş silinemedi: %w", err)
		}
		return u.log(models.EntityTransaction, t.ID, models.AuditActionDelete,
			fmt.Sprintf("Fiş silindi: %s (%d kalem iade edildi)", t.Reference, len(items)), before, nil)
	})
}

func (s *Service) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	return NewStore(s.db).FindTransaction(ctx, id)
}

// ListTransactions [from, to) aralığındaki fişler.
func (s *Service) ListTransactions(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	return NewStore(s.db).FindTransactionsByDate(ctx, from, to)
}
