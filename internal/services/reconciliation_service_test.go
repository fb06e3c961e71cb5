package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"warehouse_backend/internal/models"
	"warehouse_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInventoryRepo is an in-memory InventoryRepository. Failure counters
// make a named item fail its next N lookups or adjustments, which is how
// the retry and partial-failure paths are exercised.
type fakeInventoryRepo struct {
	mu     sync.Mutex
	items  map[int64]*models.InventoryItem
	nextID int64

	lookupFailures map[string]int
	adjustFailures map[string]int
	createFailures map[string]int
	adjustDeltas   []int
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{
		items:          make(map[int64]*models.InventoryItem),
		lookupFailures: make(map[string]int),
		adjustFailures: make(map[string]int),
		createFailures: make(map[string]int),
	}
}

func (f *fakeInventoryRepo) seed(item models.InventoryItem) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item.ID = f.nextID
	f.items[item.ID] = &item
	return item.ID
}

func (f *fakeInventoryRepo) CreateItem(_ repositories.SQLExecutor, item *models.InventoryItem) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFailures[item.Name] > 0 {
		f.createFailures[item.Name]--
		return 0, fmt.Errorf("%w: injected create failure", repositories.ErrDatabaseError)
	}
	for _, existing := range f.items {
		if existing.Name == item.Name {
			return 0, fmt.Errorf("%w: inventory item name %q", repositories.ErrDuplicateKey, item.Name)
		}
	}
	f.nextID++
	item.ID = f.nextID
	stored := *item
	f.items[item.ID] = &stored
	return item.ID, nil
}

func (f *fakeInventoryRepo) GetItemByID(itemID int64) (*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeInventoryRepo) GetItemByName(name string) (*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupFailures[name] > 0 {
		f.lookupFailures[name]--
		return nil, fmt.Errorf("%w: injected lookup failure", repositories.ErrDatabaseError)
	}
	for _, item := range f.items {
		if item.Name == name {
			copied := *item
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeInventoryRepo) GetItems(_ models.InventoryFilters) ([]models.InventoryItem, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.InventoryItem, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (f *fakeInventoryRepo) UpdateItem(_ repositories.SQLExecutor, item *models.InventoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[item.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *item
	f.items[item.ID] = &stored
	return nil
}

func (f *fakeInventoryRepo) AdjustQuantity(_ repositories.SQLExecutor, itemID int64, delta int, updatedAt time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if f.adjustFailures[item.Name] > 0 {
		f.adjustFailures[item.Name]--
		return 0, fmt.Errorf("%w: injected adjust failure", repositories.ErrDatabaseError)
	}
	f.adjustDeltas = append(f.adjustDeltas, delta)
	item.Quantity += delta
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	item.LastUpdated = &updatedAt
	return item.Quantity, nil
}

func (f *fakeInventoryRepo) DeleteItem(_ repositories.SQLExecutor, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[itemID]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeInventoryRepo) quantityByName(t *testing.T, name string) int {
	t.Helper()
	item, err := f.GetItemByName(name)
	require.NoError(t, err)
	return item.Quantity
}

func receivedOrder(items ...models.OrderItem) *models.SupplierOrder {
	return &models.SupplierOrder{
		ID: "ORD-testorder",
		Supplier: models.SupplierSnapshot{
			SupplierID: 1,
			Name:       "Nordic Timber Co",
			Email:      "sales@nordictimber.test",
			Category:   CategoryTimber,
		},
		Items:  items,
		Status: StatusReceived,
	}
}

func TestReconcile_IncrementsExistingItem(t *testing.T) {
	repo := newFakeInventoryRepo()
	repo.seed(models.InventoryItem{Name: "Pine Board", Quantity: 5, Category: CategoryTimber})
	svc := NewReconciliationService(repo, nil)

	order := receivedOrder(models.OrderItem{Name: "Pine Board", Quantity: 10, Price: 4.0})
	err := svc.Reconcile(order, "worker@warehouse.test")

	require.NoError(t, err)
	assert.Equal(t, 15, repo.quantityByName(t, "Pine Board"))
}

func TestReconcile_CreatesMissingItem(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := NewReconciliationService(repo, nil)

	order := receivedOrder(models.OrderItem{Name: "Pine Board", Quantity: 10, Price: 4.0})
	err := svc.Reconcile(order, "worker@warehouse.test")

	require.NoError(t, err)
	created, err := repo.GetItemByName("Pine Board")
	require.NoError(t, err)
	assert.Equal(t, 10, created.Quantity)
	// A created item inherits the ordering supplier's category and records
	// who received the order.
	assert.Equal(t, CategoryTimber, created.Category)
	require.NotNil(t, created.AddedBy)
	assert.Equal(t, "worker@warehouse.test", *created.AddedBy)
}

func TestReconcile_NameMatchIsCaseSensitive(t *testing.T) {
	repo := newFakeInventoryRepo()
	repo.seed(models.InventoryItem{Name: "pine board", Quantity: 5})
	svc := NewReconciliationService(repo, nil)

	order := receivedOrder(models.OrderItem{Name: "Pine Board", Quantity: 10})
	err := svc.Reconcile(order, "worker@warehouse.test")

	require.NoError(t, err)
	// Different casing is a different item: the lowercase one is untouched
	// and a new record appears.
	assert.Equal(t, 5, repo.quantityByName(t, "pine board"))
	assert.Equal(t, 10, repo.quantityByName(t, "Pine Board"))
}

func TestReconcile_RetriesTransientFailureOnce(t *testing.T) {
	repo := newFakeInventoryRepo()
	repo.seed(models.InventoryItem{Name: "Deck Screw", Quantity: 20})
	repo.adjustFailures["Deck Screw"] = 1
	svc := NewReconciliationService(repo, nil)

	order := receivedOrder(models.OrderItem{Name: "Deck Screw", Quantity: 100})
	err := svc.Reconcile(order, "worker@warehouse.test")

	require.NoError(t, err)
	assert.Equal(t, 120, repo.quantityByName(t, "Deck Screw"))
}

func TestReconcile_PartialFailureReportsUnresolvedItems(t *testing.T) {
	repo := newFakeInventoryRepo()
	repo.seed(models.InventoryItem{Name: "Deck Screw", Quantity: 20})
	repo.seed(models.InventoryItem{Name: "Pine Board", Quantity: 5})
	// Both the attempt and its retry fail.
	repo.adjustFailures["Pine Board"] = 2
	svc := NewReconciliationService(repo, nil)

	order := receivedOrder(
		models.OrderItem{Name: "Deck Screw", Quantity: 100},
		models.OrderItem{Name: "Pine Board", Quantity: 10},
	)
	err := svc.Reconcile(order, "worker@warehouse.test")

	var recErr *ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, []string{"Pine Board"}, recErr.FailedItems)
	assert.Equal(t, 1, recErr.Applied)
	// The successful line item still landed.
	assert.Equal(t, 120, repo.quantityByName(t, "Deck Screw"))
	assert.Equal(t, 5, repo.quantityByName(t, "Pine Board"))
}

func TestReconcile_QuantitiesOnlyEverIncrease(t *testing.T) {
	repo := newFakeInventoryRepo()
	repo.seed(models.InventoryItem{Name: "Deck Screw", Quantity: 20})
	repo.seed(models.InventoryItem{Name: "Pine Board", Quantity: 5})
	svc := NewReconciliationService(repo, nil)

	order := receivedOrder(
		models.OrderItem{Name: "Deck Screw", Quantity: 3},
		models.OrderItem{Name: "Pine Board", Quantity: 7},
	)
	require.NoError(t, svc.Reconcile(order, "worker@warehouse.test"))

	for _, delta := range repo.adjustDeltas {
		assert.Greater(t, delta, 0)
	}
}
