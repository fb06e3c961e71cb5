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

// --- Custom Service Errors for Inventory ---
var (
	ErrItemNotFound     = errors.New("inventory item not found")
	ErrItemNameConflict = errors.New("an inventory item with this name already exists")
	ErrValidation       = errors.New("validation error") // Generic validation error
)

// --- Inventory DTOs ---

type CreateInventoryItemRequest struct {
	Name       string                 `json:"name" binding:"required"`
	Quantity   int                    `json:"quantity" binding:"min=0"`
	Price      float64                `json:"price" binding:"min=0"`
	Category   string                 `json:"category"`
	Dimensions models.Dimensions      `json:"dimensions"`
	Location   models.StorageLocation `json:"location"`
}

type UpdateInventoryItemRequest struct {
	Name       *string                 `json:"name"`
	Quantity   *int                    `json:"quantity"`
	Price      *float64                `json:"price"`
	Category   *string                 `json:"category"`
	Dimensions *models.Dimensions      `json:"dimensions"`
	Location   *models.StorageLocation `json:"location"`
}

type UseStockRequest struct {
	Quantity int        `json:"quantity" binding:"required,gt=0"`
	UsedAt   *time.Time `json:"used_at"`
}

// --- InventoryService Interface ---

type InventoryService interface {
	CreateItem(req CreateInventoryItemRequest, actor string) (*models.InventoryItem, error)
	GetItemByID(itemID int64) (*models.InventoryItem, error)
	GetItems(filters models.InventoryFilters) ([]models.InventoryItem, int, error)
	UpdateItem(itemID int64, req UpdateInventoryItemRequest) (*models.InventoryItem, error)
	DeleteItem(itemID int64) error

	// UseStock decrements quantity by the requested amount, clamped at
	// zero, and appends a consumption event to the item's usage history.
	UseStock(itemID int64, req UseStockRequest, actor string) (*models.InventoryItem, error)
	GetUsageHistory(itemID int64, page, pageSize int) ([]models.UsedStockEvent, int, error)
}

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	usageRepo     repositories.StockUsageRepository
	categories    CategoryService
	db            *sql.DB
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(
	inventoryRepo repositories.InventoryRepository,
	usageRepo repositories.StockUsageRepository,
	categories CategoryService,
	db *sql.DB,
) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		usageRepo:     usageRepo,
		categories:    categories,
		db:            db,
	}
}

func (s *inventoryService) CreateItem(req CreateInventoryItemRequest, actor string) (*models.InventoryItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	item := &models.InventoryItem{
		Name:       req.Name,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Category:   s.categories.Classify(req.Name, req.Category),
		Dimensions: req.Dimensions,
		Location:   req.Location,
		AddedBy:    &actor,
		AddedDate:  time.Now(),
	}

	id, err := s.inventoryRepo.CreateItem(s.db, item)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrItemNameConflict, req.Name)
		}
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	return s.inventoryRepo.GetItemByID(id)
}

func (s *inventoryService) GetItemByID(itemID int64) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetItemByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item by ID: %w", err)
	}
	return item, nil
}

func (s *inventoryService) GetItems(filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 10
	}

	items, totalCount, err := s.inventoryRepo.GetItems(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory items: %w", err)
	}
	return items, totalCount, nil
}

func (s *inventoryService) UpdateItem(itemID int64, req UpdateInventoryItemRequest) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetItemByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find inventory item for update: %w", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: item name cannot be empty if provided", ErrValidation)
		}
		item.Name = *req.Name
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
		}
		item.Quantity = *req.Quantity
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		item.Price = *req.Price
	}
	if req.Category != nil {
		item.Category = s.categories.Classify(item.Name, *req.Category)
	}
	if req.Dimensions != nil {
		item.Dimensions = *req.Dimensions
	}
	if req.Location != nil {
		item.Location = *req.Location
	}

	if err := s.inventoryRepo.UpdateItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrItemNameConflict, item.Name)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	return s.inventoryRepo.GetItemByID(itemID)
}

func (s *inventoryService) DeleteItem(itemID int64) error {
	err := s.inventoryRepo.DeleteItem(s.db, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return nil
}

func (s *inventoryService) UseStock(itemID int64, req UseStockRequest, actor string) (*models.InventoryItem, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: used quantity must be positive", ErrValidation)
	}

	usedAt := time.Now()
	if req.UsedAt != nil {
		usedAt = *req.UsedAt
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start use-stock transaction: %w", err)
	}
	defer tx.Rollback()

	// The repository clamps at zero, so heavy usage can empty the shelf
	// but never drive the stored quantity negative.
	if _, err := s.inventoryRepo.AdjustQuantity(tx, itemID, -req.Quantity, usedAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	event := &models.UsedStockEvent{
		ItemID:   itemID,
		Quantity: req.Quantity,
		UsedAt:   usedAt,
		Actor:    &actor,
	}
	if _, err := s.usageRepo.CreateEvent(tx, event); err != nil {
		return nil, fmt.Errorf("failed to record stock usage event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit use-stock transaction: %w", err)
	}
	return s.inventoryRepo.GetItemByID(itemID)
}

func (s *inventoryService) GetUsageHistory(itemID int64, page, pageSize int) ([]models.UsedStockEvent, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	if _, err := s.inventoryRepo.GetItemByID(itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, 0, ErrItemNotFound
		}
		return nil, 0, fmt.Errorf("failed to find inventory item for usage history: %w", err)
	}

	events, totalCount, err := s.usageRepo.GetEventsByItemID(itemID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get usage history: %w", err)
	}
	return events, totalCount, nil
}
