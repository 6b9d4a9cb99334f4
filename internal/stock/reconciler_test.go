package stock

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"pos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memCatalog Catalog'un bellek içi karşılığı.
type memCatalog struct {
	stock   map[uint]int
	deleted map[uint]bool
	failing error
}

func newMemCatalog(stock map[uint]int) *memCatalog {
	return &memCatalog{stock: stock, deleted: map[uint]bool{}}
}

func (m *memCatalog) visible(id uint, includeDeleted bool) bool {
	_, ok := m.stock[id]
	return ok && (includeDeleted || !m.deleted[id])
}

func (m *memCatalog) DecrementStock(_ context.Context, id uint, q int, includeDeleted bool) (bool, error) {
	if m.failing != nil {
		return false, m.failing
	}
	if !m.visible(id, includeDeleted) || m.stock[id] < q {
		return false, nil
	}
	m.stock[id] -= q
	return true, nil
}

func (m *memCatalog) DecrementStockFloor(_ context.Context, id uint, q int, includeDeleted bool) (bool, error) {
	if m.failing != nil {
		return false, m.failing
	}
	if !m.visible(id, includeDeleted) {
		return false, nil
	}
	m.stock[id] = max(0, m.stock[id]-q)
	return true, nil
}

func (m *memCatalog) IncrementStock(_ context.Context, id uint, q int) (bool, error) {
	if m.failing != nil {
		return false, m.failing
	}
	if _, ok := m.stock[id]; !ok {
		return false, nil
	}
	m.stock[id] += q
	return true, nil
}

func (m *memCatalog) ProductStock(_ context.Context, id uint, includeDeleted bool) (int, bool, error) {
	if !m.visible(id, includeDeleted) {
		return 0, false, nil
	}
	return m.stock[id], true, nil
}

type mockTotals struct {
	mock.Mock
}

func (m *mockTotals) SumItemSubtotals(ctx context.Context, transactionID uint) (int64, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTotals) SetTransactionTotal(ctx context.Context, transactionID uint, total int64) error {
	args := m.Called(ctx, transactionID, total)
	return args.Error(0)
}

func item(productID uint, qty int) *models.TransactionItem {
	it := &models.TransactionItem{ProductID: productID, Price: 1000}
	_ = it.SetQuantity(qty)
	return it
}

func TestCreateThenDeleteRestoresStock(t *testing.T) {
	ctx := context.Background()
	cat := newMemCatalog(map[uint]int{1: 10})
	r := NewReconciler(PolicyStrict).WithStores(cat, nil)

	it := item(1, 5)
	require.NoError(t, r.OnItemCreated(ctx, it))
	assert.Equal(t, 5, cat.stock[1])

	require.NoError(t, r.OnItemDeleted(ctx, it))
	assert.Equal(t, 10, cat.stock[1])
}

func TestUpdateRestoresThenSubtracts(t *testing.T) {
	ctx := context.Background()
	cat := newMemCatalog(map[uint]int{1: 10})
	r := NewReconciler(PolicyStrict).WithStores(cat, nil)

	it := item(1, 5)
	require.NoError(t, r.OnItemCreated(ctx, it))

	require.NoError(t, it.SetQuantity(3))
	require.NoError(t, r.OnItemUpdated(ctx, it, 5))
	// 10 - 3 aktif kalem
	assert.Equal(t, 7, cat.stock[1])
	assert.Equal(t, int64(3000), it.Subtotal)

	require.NoError(t, r.OnItemDeleted(ctx, it))
	assert.Equal(t, 10, cat.stock[1])
}

func TestUpdateCanConsumeStockFreedByItself(t *testing.T) {
	ctx := context.Background()
	cat := newMemCatalog(map[uint]int{1: 5})
	r := NewReconciler(PolicyStrict).WithStores(cat, nil)

	it := item(1, 5)
	require.NoError(t, r.OnItemCreated(ctx, it))
	assert.Equal(t, 0, cat.stock[1])

	// 5 -> 4: önce iade (5), sonra düşüm (4); tek adımda düşülseydi yetersiz stok olurdu
	require.NoError(t, it.SetQuantity(4))
	require.NoError(t, r.OnItemUpdated(ctx, it, 5))
	assert.Equal(t, 1, cat.stock[1])
}

func TestUpdateSameQuantityIsNoop(t *testing.T) {
	cat := newMemCatalog(map[uint]int{1: 10})
	cat.failing = errors.New("must not be called")
	r := NewReconciler(PolicyStrict).WithStores(cat, nil)

	assert.NoError(t, r.OnItemUpdated(context.Background(), item(1, 2), 2))
}

func TestStrictRejectsOverselling(t *testing.T) {
	ctx := context.Background()
	cat := newMemCatalog(map[uint]int{1: 3})
	r := NewReconciler(PolicyStrict).WithStores(cat, nil)

	err := r.OnItemCreated(ctx, item(1, 4))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, cat.stock[1], "rejected sale must not touch stock")
}

func TestClampFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	cat := newMemCatalog(map[uint]int{1: 3})
	r := NewReconciler(PolicyClamp).WithStores(cat, nil)

	it := item(1, 4)
	require.NoError(t, r.OnItemCreated(ctx, it))
	assert.Equal(t, 0, cat.stock[1])

	// silme tam miktarı iade eder
	require.NoError(t, r.OnItemDeleted(ctx, it))
	assert.Equal(t, 4, cat.stock[1])
}

func TestInvalidQuantityRejectedBeforeStockChange(t *testing.T) {
	ctx := context.Background()
	cat := newMemCatalog(map[uint]int{1: 10})
	r := NewReconciler(PolicyStrict).WithStores(cat, nil)

	for _, q := range []int{0, -2} {
		assert.ErrorIs(t, r.OnItemCreated(ctx, item(1, q)), ErrInvalidQuantity)
		assert.ErrorIs(t, r.OnItemUpdated(ctx, item(1, q), 1), ErrInvalidQuantity)
	}
	assert.Equal(t, 10, cat.stock[1])
}

func TestMissingProduct(t *testing.T) {
	ctx := context.Background()
	cat := newMemCatalog(map[uint]int{1: 10})
	r := NewReconciler(PolicyStrict).WithStores(cat, nil)

	assert.ErrorIs(t, r.OnItemCreated(ctx, item(99, 1)), ErrProductNotFound)

	cat.deleted[1] = true
	assert.ErrorIs(t, r.OnItemCreated(ctx, item(1, 1)), ErrProductNotFound)

	// sahipsiz kalem silinebilir
	assert.NoError(t, r.OnItemDeleted(ctx, item(99, 1)))
	// silinmiş ürüne iade yine de yazılır
	assert.NoError(t, r.OnItemDeleted(ctx, item(1, 2)))
	assert.Equal(t, 12, cat.stock[1])
}

func TestUpdateAppliesToDeletedProduct(t *testing.T) {
	ctx := context.Background()
	for _, policy := range []Policy{PolicyStrict, PolicyClamp} {
		t.Run(string(policy), func(t *testing.T) {
			cat := newMemCatalog(map[uint]int{1: 10})
			r := NewReconciler(policy).WithStores(cat, nil)

			it := item(1, 5)
			require.NoError(t, r.OnItemCreated(ctx, it))
			cat.deleted[1] = true

			require.NoError(t, it.SetQuantity(3))
			require.NoError(t, r.OnItemUpdated(ctx, it, 5))
			assert.Equal(t, 7, cat.stock[1])

			require.NoError(t, it.SetQuantity(6))
			require.NoError(t, r.OnItemUpdated(ctx, it, 3))
			assert.Equal(t, 4, cat.stock[1])
		})
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("db down")
	cat := newMemCatalog(map[uint]int{1: 10})
	cat.failing = boom
	r := NewReconciler(PolicyStrict).WithStores(cat, nil)

	assert.ErrorIs(t, r.OnItemCreated(context.Background(), item(1, 1)), boom)
	assert.ErrorIs(t, r.OnItemDeleted(context.Background(), item(1, 1)), boom)
}

func TestRecomputeTransactionTotal(t *testing.T) {
	ctx := context.Background()
	totals := new(mockTotals)
	totals.On("SumItemSubtotals", ctx, uint(7)).Return(int64(4500), nil)
	totals.On("SetTransactionTotal", ctx, uint(7), int64(4500)).Return(nil)

	r := NewReconciler(PolicyStrict).WithStores(newMemCatalog(nil), totals)
	total, err := r.RecomputeTransactionTotal(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, int64(4500), total)
	totals.AssertExpectations(t)
}

func TestRecomputeTransactionTotalError(t *testing.T) {
	ctx := context.Background()
	totals := new(mockTotals)
	totals.On("SumItemSubtotals", ctx, uint(7)).Return(int64(0), errors.New("query failed"))

	r := NewReconciler(PolicyStrict).WithStores(newMemCatalog(nil), totals)
	_, err := r.RecomputeTransactionTotal(ctx, 7)

	assert.Error(t, err)
	totals.AssertNotCalled(t, "SetTransactionTotal", mock.Anything, mock.Anything, mock.Anything)
}

// Rastgele create/update/delete dizilerinde stock == başlangıç - aktif miktarlar.
func TestStockMatchesSalesOverRandomSequences(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		initial := map[uint]int{1: 40, 2: 25}
		cat := newMemCatalog(map[uint]int{1: 40, 2: 25})
		r := NewReconciler(PolicyStrict).WithStores(cat, nil)
		var active []*models.TransactionItem

		for step := 0; step < 40; step++ {
			switch op := rng.Intn(3); {
			case op == 0 || len(active) == 0:
				it := item(uint(rng.Intn(2)+1), rng.Intn(6)+1)
				if err := r.OnItemCreated(ctx, it); err == nil {
					active = append(active, it)
				} else {
					require.ErrorIs(t, err, ErrInsufficientStock)
				}
			case op == 1:
				it := active[rng.Intn(len(active))]
				prev := it.Quantity
				require.NoError(t, it.SetQuantity(rng.Intn(6) + 1))
				if err := r.OnItemUpdated(ctx, it, prev); err != nil {
					require.ErrorIs(t, err, ErrInsufficientStock)
					// gerçek sistemde transaction geri alınır; burada elle geri alıyoruz
					cat.stock[it.ProductID] -= prev
					require.NoError(t, it.SetQuantity(prev))
				}
			default:
				i := rng.Intn(len(active))
				require.NoError(t, r.OnItemDeleted(ctx, active[i]))
				active = append(active[:i], active[i+1:]...)
			}

			reserved := map[uint]int{}
			for _, it := range active {
				reserved[it.ProductID] += it.Quantity
			}
			for id, start := range initial {
				require.Equal(t, start-reserved[id], cat.stock[id], "run %d step %d product %d", run, step, id)
				require.GreaterOrEqual(t, cat.stock[id], 0)
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	p, err = ParsePolicy("clamp")
	require.NoError(t, err)
	assert.Equal(t, PolicyClamp, p)

	_, err = ParsePolicy("maybe")
	assert.Error(t, err)
}
