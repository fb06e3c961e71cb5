package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"warehouse_backend/internal/models"
	"warehouse_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderRepo is an in-memory OrderRepository with the same
// compare-and-set semantics as the real one.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*models.SupplierOrder

	forceStaleClaim bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.SupplierOrder)}
}

func copyOrder(order *models.SupplierOrder) *models.SupplierOrder {
	copied := *order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	copied.StatusHistory = append([]models.StatusHistoryEntry(nil), order.StatusHistory...)
	return &copied
}

func (f *fakeOrderRepo) CreateOrder(order *models.SupplierOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = copyOrder(order)
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(orderID string) (*models.SupplierOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyOrder(order), nil
}

func (f *fakeOrderRepo) GetOrders(_ models.OrderFilters) ([]models.SupplierOrder, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SupplierOrder, 0, len(f.orders))
	for _, order := range f.orders {
		out = append(out, *copyOrder(order))
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) ClaimStatus(orderID, fromStatus, toStatus string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceStaleClaim {
		return repositories.ErrStaleWrite
	}
	order, ok := f.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	if order.Status != fromStatus {
		return repositories.ErrStaleWrite
	}
	order.Status = toStatus
	order.UpdatedAt = updatedAt
	return nil
}

func (f *fakeOrderRepo) TransitionStatus(orderID, fromStatus, toStatus string, entry *models.StatusHistoryEntry) error {
	if err := f.ClaimStatus(orderID, fromStatus, toStatus, entry.Date); err != nil {
		return err
	}
	return f.AppendStatusHistory(entry)
}

func (f *fakeOrderRepo) AppendStatusHistory(entry *models.StatusHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[entry.OrderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.StatusHistory = append(order.StatusHistory, *entry)
	return nil
}

func (f *fakeOrderRepo) ReplaceOrderItems(orderID string, items []models.OrderItem, totalAmount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.Items = append([]models.OrderItem(nil), items...)
	order.TotalAmount = totalAmount
	return nil
}

func (f *fakeOrderRepo) DeleteOrder(orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[orderID]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.orders, orderID)
	return nil
}

func (f *fakeOrderRepo) GetActiveOrderItemIDs() ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []int64{}
	for _, order := range f.orders {
		if order.Status == StatusReceived || order.Status == StatusCanceled {
			continue
		}
		for _, item := range order.Items {
			if item.ItemID != nil {
				ids = append(ids, *item.ItemID)
			}
		}
	}
	return ids, nil
}

// fakeSupplierRepo serves a fixed supplier list.
type fakeSupplierRepo struct {
	suppliers []models.Supplier
}

func (f *fakeSupplierRepo) CreateSupplier(_ repositories.SQLExecutor, supplier *models.Supplier) (int64, error) {
	supplier.ID = int64(len(f.suppliers) + 1)
	f.suppliers = append(f.suppliers, *supplier)
	return supplier.ID, nil
}

func (f *fakeSupplierRepo) GetSupplierByID(supplierID int64) (*models.Supplier, error) {
	for _, s := range f.suppliers {
		if s.ID == supplierID {
			copied := s
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSupplierRepo) GetSuppliers(category *string, _, _ int) ([]models.Supplier, int, error) {
	if category == nil {
		return append([]models.Supplier(nil), f.suppliers...), len(f.suppliers), nil
	}
	matches := []models.Supplier{}
	for _, s := range f.suppliers {
		if strings.EqualFold(strings.TrimSpace(s.Category), strings.TrimSpace(*category)) {
			matches = append(matches, s)
		}
	}
	return matches, len(matches), nil
}

func (f *fakeSupplierRepo) UpdateSupplier(_ repositories.SQLExecutor, supplier *models.Supplier) error {
	for i, s := range f.suppliers {
		if s.ID == supplier.ID {
			f.suppliers[i] = *supplier
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeSupplierRepo) DeleteSupplier(_ repositories.SQLExecutor, supplierID int64) error {
	for i, s := range f.suppliers {
		if s.ID == supplierID {
			f.suppliers = append(f.suppliers[:i], f.suppliers[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeNotifier struct {
	mu       sync.Mutex
	orderIDs []string
}

func (f *fakeNotifier) NotifyReconciliationComplete(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderIDs = append(f.orderIDs, orderID)
}

type orderServiceFixture struct {
	svc           OrderService
	orderRepo     *fakeOrderRepo
	inventoryRepo *fakeInventoryRepo
	store         *fakeOrderedItemStore
	notifier      *fakeNotifier
}

func newOrderServiceFixture(t *testing.T, strict bool) *orderServiceFixture {
	t.Helper()
	orderRepo := newFakeOrderRepo()
	inventoryRepo := newFakeInventoryRepo()
	supplierRepo := &fakeSupplierRepo{suppliers: []models.Supplier{
		{ID: 1, Name: "Nordic Timber Co", Email: "sales@nordictimber.test", Category: CategoryTimber},
		{ID: 2, Name: "FastFix Supplies", Email: "orders@fastfix.test", Category: CategoryScrew},
	}}
	store := newFakeOrderedItemStore()
	notifier := &fakeNotifier{}

	categories := NewCategoryService()
	tracker := NewTrackerService(store, orderRepo)
	reconciliation := NewReconciliationService(inventoryRepo, nil)

	svc := NewOrderService(orderRepo, supplierRepo, categories, reconciliation, tracker, notifier, strict)
	return &orderServiceFixture{
		svc:           svc,
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		store:         store,
		notifier:      notifier,
	}
}

func (fx *orderServiceFixture) createTimberOrder(t *testing.T, items ...OrderItemRequest) *models.SupplierOrder {
	t.Helper()
	if len(items) == 0 {
		items = []OrderItemRequest{{Name: "Pine Board", Quantity: 10, Price: 4.0}}
	}
	order, err := fx.svc.CreateOrder(context.Background(), CreateOrderRequest{
		Category: CategoryTimber,
		Items:    items,
	}, "buyer@warehouse.test")
	require.NoError(t, err)
	return order
}

func TestCreateOrder_BuildsOrderWithSnapshotAndHistory(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	itemID := int64(7)

	order, err := fx.svc.CreateOrder(context.Background(), CreateOrderRequest{
		Category: CategoryTimber,
		Items: []OrderItemRequest{
			{ItemID: &itemID, Name: "Pine Board", Quantity: 10, Price: 4.0},
			{Name: "MDF Sheet", Quantity: 2, Price: 12.5},
		},
	}, "buyer@warehouse.test")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(order.ID, "ORD-"))
	assert.Len(t, order.ID, 12)
	assert.Equal(t, StatusPending, order.Status)
	assert.InDelta(t, 65.0, order.TotalAmount, 0.001)

	// The supplier is frozen into the order at creation time.
	assert.Equal(t, int64(1), order.Supplier.SupplierID)
	assert.Equal(t, "Nordic Timber Co", order.Supplier.Name)
	assert.Equal(t, CategoryTimber, order.Supplier.Category)

	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, StatusPending, order.StatusHistory[0].Status)
	assert.Equal(t, "buyer@warehouse.test", order.StatusHistory[0].UpdatedBy)

	// Items linked to inventory are marked in the outstanding tracker.
	ordered, err := fx.store.Contains(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, ordered)
}

func TestCreateOrder_RejectsUnknownCategory(t *testing.T) {
	fx := newOrderServiceFixture(t, false)

	_, err := fx.svc.CreateOrder(context.Background(), CreateOrderRequest{
		Category: "Glass",
		Items:    []OrderItemRequest{{Name: "Window Pane", Quantity: 1, Price: 30}},
	}, "buyer@warehouse.test")

	require.ErrorIs(t, err, ErrInvalidCategory)
	// The message enumerates valid categories so the caller can recover.
	assert.Contains(t, err.Error(), CategoryScrew)
	assert.Contains(t, err.Error(), CategoryCountertops)
}

func TestCreateOrder_NoSupplierForCategory(t *testing.T) {
	fx := newOrderServiceFixture(t, false)

	_, err := fx.svc.CreateOrder(context.Background(), CreateOrderRequest{
		Category: CategoryPaint,
		Items:    []OrderItemRequest{{Name: "Matte White Paint", Quantity: 3, Price: 20}},
	}, "buyer@warehouse.test")

	require.ErrorIs(t, err, ErrNoSupplierForCategory)
	// Both the canonical categories and the ones suppliers actually cover
	// are listed.
	assert.Contains(t, err.Error(), CategoryTimber)
	assert.Contains(t, err.Error(), CategoryScrew)
}

func TestCreateOrder_ExplicitSupplierMustMatchCategory(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	screwSupplier := int64(2)

	_, err := fx.svc.CreateOrder(context.Background(), CreateOrderRequest{
		Category:   CategoryTimber,
		SupplierID: &screwSupplier,
		Items:      []OrderItemRequest{{Name: "Pine Board", Quantity: 1, Price: 4}},
	}, "buyer@warehouse.test")

	require.ErrorIs(t, err, ErrNoSupplierForCategory)
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	ctx := context.Background()

	_, err := fx.svc.CreateOrder(ctx, CreateOrderRequest{Category: CategoryTimber}, "buyer@warehouse.test")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = fx.svc.CreateOrder(ctx, CreateOrderRequest{
		Category: CategoryTimber,
		Items:    []OrderItemRequest{{Name: "Pine Board", Quantity: 0, Price: 4}},
	}, "buyer@warehouse.test")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = fx.svc.CreateOrder(ctx, CreateOrderRequest{
		Category: CategoryTimber,
		Items:    []OrderItemRequest{{Name: "Pine Board", Quantity: 1, Price: -1}},
	}, "buyer@warehouse.test")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateOrderStatus_PermissiveAllowsAnyTransition(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	order := fx.createTimberOrder(t)
	ctx := context.Background()

	// Forward, then backward: both fine in permissive mode.
	updated, err := fx.svc.UpdateOrderStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: StatusShipped}, "buyer@warehouse.test")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)

	updated, err = fx.svc.UpdateOrderStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: StatusPending}, "buyer@warehouse.test")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)

	// Every transition leaves a history entry behind.
	assert.Len(t, updated.StatusHistory, 3)
}

func TestUpdateOrderStatus_StrictRejectsSkippedSteps(t *testing.T) {
	fx := newOrderServiceFixture(t, true)
	order := fx.createTimberOrder(t)
	ctx := context.Background()

	_, err := fx.svc.UpdateOrderStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: StatusShipped}, "buyer@warehouse.test")
	require.ErrorIs(t, err, ErrIllegalTransition)

	// The allowed path still works.
	updated, err := fx.svc.UpdateOrderStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: StatusSent}, "buyer@warehouse.test")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, updated.Status)
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	order := fx.createTimberOrder(t)

	_, err := fx.svc.UpdateOrderStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: "misplaced"}, "buyer@warehouse.test")
	require.ErrorIs(t, err, ErrInvalidOrderStatus)
}

func TestUpdateOrderStatus_OrderNotFound(t *testing.T) {
	fx := newOrderServiceFixture(t, false)

	_, err := fx.svc.UpdateOrderStatus(context.Background(), "ORD-missing1", UpdateOrderStatusRequest{Status: StatusSent}, "buyer@warehouse.test")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestReceiveOrder_ReconcilesInventory(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	fx.inventoryRepo.seed(models.InventoryItem{Name: "Pine Board", Quantity: 5, Category: CategoryTimber})
	order := fx.createTimberOrder(t)

	updated, err := fx.svc.UpdateOrderStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: StatusReceived}, "worker@warehouse.test")

	require.NoError(t, err)
	assert.Equal(t, StatusReceived, updated.Status)
	assert.Equal(t, 15, fx.inventoryRepo.quantityByName(t, "Pine Board"))
	assert.Equal(t, []string{order.ID}, fx.notifier.orderIDs)
}

func TestReceiveOrder_CreatesUnknownItems(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	order := fx.createTimberOrder(t, OrderItemRequest{Name: "Walnut Plank", Quantity: 6, Price: 9})

	_, err := fx.svc.UpdateOrderStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: StatusReceived}, "worker@warehouse.test")

	require.NoError(t, err)
	created, err := fx.inventoryRepo.GetItemByName("Walnut Plank")
	require.NoError(t, err)
	assert.Equal(t, 6, created.Quantity)
	assert.Equal(t, CategoryTimber, created.Category)
}

func TestReceiveOrder_SecondReceiveIsRejected(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	fx.inventoryRepo.seed(models.InventoryItem{Name: "Pine Board", Quantity: 5})
	order := fx.createTimberOrder(t)
	ctx := context.Background()

	_, err := fx.svc.UpdateOrderStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: StatusReceived}, "worker@warehouse.test")
	require.NoError(t, err)

	_, err = fx.svc.UpdateOrderStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: StatusReceived}, "worker@warehouse.test")
	require.ErrorIs(t, err, ErrOrderAlreadyReceived)

	// Reconciliation must not have run twice.
	assert.Equal(t, 15, fx.inventoryRepo.quantityByName(t, "Pine Board"))
}

func TestReceiveOrder_LosingTheClaimRace(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	fx.inventoryRepo.seed(models.InventoryItem{Name: "Pine Board", Quantity: 5})
	order := fx.createTimberOrder(t)
	fx.orderRepo.forceStaleClaim = true

	_, err := fx.svc.UpdateOrderStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: StatusReceived}, "worker@warehouse.test")

	require.ErrorIs(t, err, ErrConcurrentTransition)
	// Inventory was never touched.
	assert.Equal(t, 5, fx.inventoryRepo.quantityByName(t, "Pine Board"))
}

func TestReceiveOrder_PartialReconciliationKeepsReceivedStatus(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	fx.inventoryRepo.seed(models.InventoryItem{Name: "Pine Board", Quantity: 5})
	fx.inventoryRepo.seed(models.InventoryItem{Name: "MDF Sheet", Quantity: 2})
	fx.inventoryRepo.adjustFailures["MDF Sheet"] = 2
	order := fx.createTimberOrder(t,
		OrderItemRequest{Name: "Pine Board", Quantity: 10, Price: 4},
		OrderItemRequest{Name: "MDF Sheet", Quantity: 3, Price: 12},
	)

	_, err := fx.svc.UpdateOrderStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: StatusReceived}, "worker@warehouse.test")

	var recErr *ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 1, recErr.Applied)
	assert.Equal(t, []string{"MDF Sheet"}, recErr.FailedItems)

	// The order stays received with the issues recorded in history, and
	// the clean line item kept its adjustment.
	stored, err := fx.orderRepo.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, stored.Status)
	last := stored.StatusHistory[len(stored.StatusHistory)-1]
	require.NotNil(t, last.Notes)
	assert.Contains(t, *last.Notes, "reconciliation issues")
	assert.Contains(t, *last.Notes, "MDF Sheet")
	assert.Equal(t, 15, fx.inventoryRepo.quantityByName(t, "Pine Board"))
}

func TestReceiveOrder_NothingAppliedRevertsStatus(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	fx.inventoryRepo.seed(models.InventoryItem{Name: "Pine Board", Quantity: 5})
	fx.inventoryRepo.adjustFailures["Pine Board"] = 2
	order := fx.createTimberOrder(t)

	_, err := fx.svc.UpdateOrderStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: StatusReceived}, "worker@warehouse.test")

	var recErr *ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 0, recErr.Applied)

	// With nothing applied the claim is released so the transition can be
	// retried later.
	stored, err := fx.orderRepo.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, 5, fx.inventoryRepo.quantityByName(t, "Pine Board"))
}

func TestEditOrderItems_RecomputesTotal(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	order := fx.createTimberOrder(t)

	updated, err := fx.svc.EditOrderItems(order.ID, EditOrderItemsRequest{
		Items: []OrderItemRequest{
			{Name: "Pine Board", Quantity: 4, Price: 4},
			{Name: "Oak Plank", Quantity: 2, Price: 11},
		},
	})

	require.NoError(t, err)
	assert.InDelta(t, 38.0, updated.TotalAmount, 0.001)
	assert.Len(t, updated.Items, 2)
	// Item edits are not status changes: no new history entry.
	assert.Len(t, updated.StatusHistory, 1)
}

func TestEditOrderItems_TerminalOrderRejected(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	order := fx.createTimberOrder(t)
	_, err := fx.svc.UpdateOrderStatus(context.Background(), order.ID, UpdateOrderStatusRequest{Status: StatusCanceled}, "buyer@warehouse.test")
	require.NoError(t, err)

	_, err = fx.svc.EditOrderItems(order.ID, EditOrderItemsRequest{
		Items: []OrderItemRequest{{Name: "Pine Board", Quantity: 1, Price: 4}},
	})
	require.ErrorIs(t, err, ErrOrderTerminal)
}

func TestDeleteOrder(t *testing.T) {
	fx := newOrderServiceFixture(t, false)
	order := fx.createTimberOrder(t)

	require.NoError(t, fx.svc.DeleteOrder(order.ID))

	_, err := fx.svc.GetOrderByID(order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	err = fx.svc.DeleteOrder(order.ID)
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}
