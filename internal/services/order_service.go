package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"warehouse_backend/internal/models"
	"warehouse_backend/internal/repositories"

	"github.com/google/uuid"
)

// Order status vocabulary. partially_received is accepted but carries no
// reconciliation behavior of its own.
const (
	StatusPending           = "pending"
	StatusSent              = "sent"
	StatusShipped           = "shipped"
	StatusPartiallyReceived = "partially_received"
	StatusReceived          = "received"
	StatusCanceled          = "canceled"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidOrderStatus    = errors.New("invalid order status")
	ErrIllegalTransition     = errors.New("status transition not allowed in strict mode")
	ErrOrderTerminal         = errors.New("order is in a terminal status")
	ErrNoSupplierForCategory = errors.New("no supplier configured for category")
	ErrOrderAlreadyReceived  = errors.New("order has already been received")
	ErrConcurrentTransition  = errors.New("order status changed concurrently, retry the transition")
)

// strictNext is the forward-only transition graph used when strict mode is
// enabled. canceled stays reachable from every non-terminal status.
var strictNext = map[string][]string{
	StatusPending:           {StatusSent, StatusCanceled},
	StatusSent:              {StatusShipped, StatusPartiallyReceived, StatusCanceled},
	StatusShipped:           {StatusReceived, StatusPartiallyReceived, StatusCanceled},
	StatusPartiallyReceived: {StatusReceived, StatusCanceled},
	StatusReceived:          {},
	StatusCanceled:          {},
}

// RefreshNotifier is told when reconciliation finishes so dependent views
// and the forecasting collaborator can refresh with new stock levels.
type RefreshNotifier interface {
	NotifyReconciliationComplete(orderID string)
}

// --- DTOs ---

type OrderItemRequest struct {
	ItemID     *int64            `json:"item_id"`
	Name       string            `json:"name" binding:"required"`
	Quantity   int               `json:"quantity" binding:"required,gt=0"`
	Price      float64           `json:"price" binding:"min=0"`
	Dimensions models.Dimensions `json:"dimensions"`
}

// CreateOrderRequest is validated by the order builder before anything is
// persisted. SupplierID is optional; when absent the first supplier whose
// category matches is used.
type CreateOrderRequest struct {
	Category   string             `json:"category" binding:"required"`
	SupplierID *int64             `json:"supplier_id"`
	Items      []OrderItemRequest `json:"items" binding:"required,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
}

type EditOrderItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,dive"`
}

// --- OrderService Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest, actor string) (*models.SupplierOrder, error)
	GetOrders(filters models.OrderFilters) ([]models.SupplierOrder, int, error)
	GetOrderByID(orderID string) (*models.SupplierOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID string, req UpdateOrderStatusRequest, actor string) (*models.SupplierOrder, error)
	EditOrderItems(orderID string, req EditOrderItemsRequest) (*models.SupplierOrder, error)
	DeleteOrder(orderID string) error
}

type orderService struct {
	orderRepo      repositories.OrderRepository
	supplierRepo   repositories.SupplierRepository
	categories     CategoryService
	reconciliation ReconciliationService
	tracker        *TrackerService
	notifier       RefreshNotifier

	// strictTransitions switches the permissive any-to-any graph observed
	// in the product to the forward-only graph above.
	strictTransitions bool

	locksMu    sync.Mutex
	orderLocks map[string]*sync.Mutex
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	supplierRepo repositories.SupplierRepository,
	categories CategoryService,
	reconciliation ReconciliationService,
	tracker *TrackerService,
	notifier RefreshNotifier,
	strictTransitions bool,
) OrderService {
	return &orderService{
		orderRepo:         orderRepo,
		supplierRepo:      supplierRepo,
		categories:        categories,
		reconciliation:    reconciliation,
		tracker:           tracker,
		notifier:          notifier,
		strictTransitions: strictTransitions,
		orderLocks:        make(map[string]*sync.Mutex),
	}
}

// lockOrder returns the mutex serializing state changes for one order id.
func (s *orderService) lockOrder(orderID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.orderLocks[orderID]
	if !ok {
		lock = &sync.Mutex{}
		s.orderLocks[orderID] = lock
	}
	return lock
}

// --- Order builder ---

func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest, actor string) (*models.SupplierOrder, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("%w: order item name cannot be empty", ErrValidation)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for item %q must be positive", ErrValidation, item.Name)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("%w: price for item %q cannot be negative", ErrValidation, item.Name)
		}
	}

	category := strings.TrimSpace(req.Category)
	if !s.categories.IsCanonical(category) {
		return nil, fmt.Errorf("%w: %q is not valid, valid categories are: %s",
			ErrInvalidCategory, category, strings.Join(s.categories.CanonicalCategories(), ", "))
	}

	supplier, err := s.findSupplierForCategory(category, req.SupplierID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.SupplierOrder{
		ID: fmt.Sprintf("ORD-%s", uuid.New().String()[:8]),
		Supplier: models.SupplierSnapshot{
			SupplierID: supplier.ID,
			Name:       supplier.Name,
			Email:      supplier.Email,
			Phone:      supplier.Phone,
			Category:   supplier.Category,
		},
		Status:    StatusPending,
		OrderDate: now,
		AddedBy:   &actor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var total float64
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ItemID:     item.ItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Dimensions: item.Dimensions,
		})
		total += float64(item.Quantity) * item.Price
	}
	order.TotalAmount = total

	note := "order created"
	order.StatusHistory = []models.StatusHistoryEntry{{
		OrderID:   order.ID,
		Status:    StatusPending,
		Date:      now,
		UpdatedBy: actor,
		Notes:     &note,
	}}

	if err := s.orderRepo.CreateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}

	// Make the order visible to the outstanding-suggestion tracker so the
	// same recommendation is not ordered twice while this one is open.
	for _, item := range order.Items {
		if item.ItemID != nil {
			s.tracker.MarkOrdered(ctx, *item.ItemID)
		}
	}

	return s.orderRepo.GetOrderByID(order.ID)
}

// findSupplierForCategory resolves the supplier an order for the given
// canonical category goes to. The returned error enumerates both the
// canonical categories and the categories suppliers are configured with, so
// the caller can correct the request.
func (s *orderService) findSupplierForCategory(category string, supplierID *int64) (*models.Supplier, error) {
	if supplierID != nil {
		supplier, err := s.supplierRepo.GetSupplierByID(*supplierID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: supplier with ID %d not found", ErrValidation, *supplierID)
			}
			return nil, fmt.Errorf("failed to load supplier %d: %w", *supplierID, err)
		}
		if !strings.EqualFold(strings.TrimSpace(supplier.Category), category) {
			return nil, s.noSupplierError(category)
		}
		return supplier, nil
	}

	matches, _, err := s.supplierRepo.GetSuppliers(&category, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to search suppliers for category %q: %w", category, err)
	}
	if len(matches) == 0 {
		return nil, s.noSupplierError(category)
	}
	return &matches[0], nil
}

func (s *orderService) noSupplierError(category string) error {
	configured := []string{}
	suppliers, _, err := s.supplierRepo.GetSuppliers(nil, 0, 0)
	if err == nil {
		seen := map[string]bool{}
		for _, sup := range suppliers {
			c := strings.TrimSpace(sup.Category)
			if c != "" && !seen[c] {
				seen[c] = true
				configured = append(configured, c)
			}
		}
	}
	return fmt.Errorf("%w %q: valid categories are [%s], supplier categories currently configured are [%s]",
		ErrNoSupplierForCategory, category,
		strings.Join(s.categories.CanonicalCategories(), ", "),
		strings.Join(configured, ", "))
}

// --- Queries ---

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.SupplierOrder, int, error) {
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(orderID string) (*models.SupplierOrder, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}
	return order, nil
}

// --- Lifecycle state machine ---

func isValidOrderStatus(status string) bool {
	switch status {
	case StatusPending, StatusSent, StatusShipped, StatusPartiallyReceived, StatusReceived, StatusCanceled:
		return true
	default:
		return false
	}
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID string, req UpdateOrderStatusRequest, actor string) (*models.SupplierOrder, error) {
	if !isValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, req.Status)
	}

	lock := s.lockOrder(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for status update: %w", err)
	}

	if s.strictTransitions && !transitionAllowed(order.Status, req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, req.Status)
	}

	if req.Status == StatusReceived {
		return s.receiveOrder(order, actor, req.Notes)
	}

	entry := &models.StatusHistoryEntry{
		OrderID:   orderID,
		Status:    req.Status,
		Date:      time.Now(),
		UpdatedBy: actor,
		Notes:     req.Notes,
	}
	if err := s.orderRepo.TransitionStatus(orderID, order.Status, req.Status, entry); err != nil {
		if errors.Is(err, repositories.ErrStaleWrite) {
			return nil, ErrConcurrentTransition
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return s.orderRepo.GetOrderByID(orderID)
}

func transitionAllowed(from, to string) bool {
	for _, next := range strictNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// receiveOrder runs the received transition as one logical unit: claim the
// status with a compare-and-set so reconciliation can run at most once,
// apply the line items, then record the history entry. A claim that loses
// the race surfaces as a concurrency error without touching inventory.
func (s *orderService) receiveOrder(order *models.SupplierOrder, actor string, notes *string) (*models.SupplierOrder, error) {
	if order.Status == StatusReceived {
		return nil, ErrOrderAlreadyReceived
	}

	now := time.Now()
	if err := s.orderRepo.ClaimStatus(order.ID, order.Status, StatusReceived, now); err != nil {
		if errors.Is(err, repositories.ErrStaleWrite) {
			return nil, ErrConcurrentTransition
		}
		return nil, fmt.Errorf("failed to claim received status: %w", err)
	}

	recErr := s.reconciliation.Reconcile(order, actor)

	var reconciliationErr *ReconciliationError
	if recErr != nil && !errors.As(recErr, &reconciliationErr) {
		// Unexpected failure shape; treat as nothing applied.
		reconciliationErr = &ReconciliationError{OrderID: order.ID, FailedItems: []string{recErr.Error()}}
	}

	if reconciliationErr != nil && reconciliationErr.Applied == 0 {
		// Nothing was applied: release the claim so the transition can be
		// retried from the previous status.
		if revertErr := s.orderRepo.ClaimStatus(order.ID, StatusReceived, order.Status, time.Now()); revertErr != nil {
			return nil, fmt.Errorf("reconciliation failed and status revert also failed (%v): %w", revertErr, reconciliationErr)
		}
		return nil, reconciliationErr
	}

	entry := &models.StatusHistoryEntry{
		OrderID:   order.ID,
		Status:    StatusReceived,
		Date:      now,
		UpdatedBy: actor,
		Notes:     notes,
	}
	if reconciliationErr != nil {
		issueNote := fmt.Sprintf("received with reconciliation issues: %s", strings.Join(reconciliationErr.FailedItems, ", "))
		if notes != nil {
			issueNote = *notes + "; " + issueNote
		}
		entry.Notes = &issueNote
	}
	if err := s.orderRepo.AppendStatusHistory(entry); err != nil {
		return nil, fmt.Errorf("failed to record received status history: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyReconciliationComplete(order.ID)
	}

	if reconciliationErr != nil {
		return nil, reconciliationErr
	}
	return s.orderRepo.GetOrderByID(order.ID)
}

// --- Item edits ---

func (s *orderService) EditOrderItems(orderID string, req EditOrderItemsRequest) (*models.SupplierOrder, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	lock := s.lockOrder(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for item edit: %w", err)
	}
	if order.Status == StatusReceived || order.Status == StatusCanceled {
		return nil, fmt.Errorf("%w: items of a %s order cannot be edited", ErrOrderTerminal, order.Status)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	var total float64
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for item %q must be positive", ErrValidation, item.Name)
		}
		items = append(items, models.OrderItem{
			ItemID:     item.ItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Dimensions: item.Dimensions,
		})
		total += float64(item.Quantity) * item.Price
	}

	// Line-item edits are not status changes: total amount is recomputed
	// but no status history entry is appended.
	if err := s.orderRepo.ReplaceOrderItems(orderID, items, total); err != nil {
		return nil, fmt.Errorf("failed to replace order items: %w", err)
	}
	return s.orderRepo.GetOrderByID(orderID)
}

func (s *orderService) DeleteOrder(orderID string) error {
	err := s.orderRepo.DeleteOrder(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}
