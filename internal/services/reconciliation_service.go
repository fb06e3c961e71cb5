package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"warehouse_backend/internal/models"
	"warehouse_backend/internal/repositories"
)

// ReconciliationError reports line items that could not be applied to
// inventory after the automatic retry. The order stays visible as received
// with reconciliation issues rather than silently losing stock.
type ReconciliationError struct {
	OrderID     string
	FailedItems []string
	Applied     int
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation for order %s left %d unresolved item(s): %s",
		e.OrderID, len(e.FailedItems), strings.Join(e.FailedItems, ", "))
}

// ReconciliationService applies a received order's line items back into
// inventory. Quantities are only ever added, never subtracted; the caller
// owns the at-most-once guard around the received transition.
type ReconciliationService interface {
	Reconcile(order *models.SupplierOrder, actor string) error
}

type reconciliationService struct {
	inventoryRepo repositories.InventoryRepository
	db            *sql.DB
}

// NewReconciliationService creates a new instance of ReconciliationService.
func NewReconciliationService(repo repositories.InventoryRepository, db *sql.DB) ReconciliationService {
	return &reconciliationService{
		inventoryRepo: repo,
		db:            db,
	}
}

func (s *reconciliationService) Reconcile(order *models.SupplierOrder, actor string) error {
	failed := []string{}
	applied := 0

	for _, item := range order.Items {
		err := s.applyLineItem(order, item, actor)
		if err != nil {
			// One retry covers transient races with concurrent edits.
			err = s.applyLineItem(order, item, actor)
		}
		if err != nil {
			failed = append(failed, item.Name)
			continue
		}
		applied++
	}

	if len(failed) > 0 {
		return &ReconciliationError{OrderID: order.ID, FailedItems: failed, Applied: applied}
	}
	return nil
}

func (s *reconciliationService) applyLineItem(order *models.SupplierOrder, item models.OrderItem, actor string) error {
	existing, err := s.inventoryRepo.GetItemByName(item.Name)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("looking up inventory item %q: %w", item.Name, err)
		}
		return s.createInventoryItem(order, item, actor)
	}

	// Existing item: only the quantity and last-updated stamp change.
	// Category, location and dimensions stay as they are.
	if _, err := s.inventoryRepo.AdjustQuantity(s.db, existing.ID, item.Quantity, time.Now()); err != nil {
		return fmt.Errorf("adding received quantity to inventory item %q: %w", item.Name, err)
	}
	return nil
}

func (s *reconciliationService) createInventoryItem(order *models.SupplierOrder, item models.OrderItem, actor string) error {
	newItem := &models.InventoryItem{
		Name:       item.Name,
		Quantity:   item.Quantity,
		Price:      item.Price,
		Category:   order.Supplier.Category,
		Dimensions: item.Dimensions,
		AddedBy:    &actor,
		AddedDate:  time.Now(),
	}
	if _, err := s.inventoryRepo.CreateItem(s.db, newItem); err != nil {
		return fmt.Errorf("creating inventory item %q from received order: %w", item.Name, err)
	}
	return nil
}
