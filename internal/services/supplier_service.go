package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"warehouse_backend/internal/models"
	"warehouse_backend/internal/repositories"
	"warehouse_backend/pkg/utils"
)

// --- Custom Service Errors for Suppliers ---
var (
	ErrSupplierNotFound    = errors.New("supplier not found")
	ErrSupplierEmailExists = errors.New("a supplier with this email already exists")
)

// --- Supplier DTOs ---

type CreateSupplierRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	Phone    *string `json:"phone"`
	Category string  `json:"category" binding:"required"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

type UpdateSupplierRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Category *string `json:"category"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

// --- SupplierService Interface ---

type SupplierService interface {
	CreateSupplier(req CreateSupplierRequest, actor string) (*models.Supplier, error)
	GetSupplierByID(supplierID int64) (*models.Supplier, error)
	GetSuppliers(category *string, page, pageSize int) ([]models.Supplier, int, error)
	UpdateSupplier(supplierID int64, req UpdateSupplierRequest) (*models.Supplier, error)
	DeleteSupplier(supplierID int64) error
}

type supplierService struct {
	supplierRepo repositories.SupplierRepository
	categories   CategoryService
	db           *sql.DB
}

// NewSupplierService creates a new instance of SupplierService.
func NewSupplierService(repo repositories.SupplierRepository, categories CategoryService, db *sql.DB) SupplierService {
	return &supplierService{
		supplierRepo: repo,
		categories:   categories,
		db:           db,
	}
}

func (s *supplierService) CreateSupplier(req CreateSupplierRequest, actor string) (*models.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: supplier name cannot be empty", ErrValidation)
	}
	if !utils.IsValidEmail(req.Email) {
		return nil, fmt.Errorf("%w: invalid supplier email %q", ErrValidation, req.Email)
	}
	category := strings.TrimSpace(req.Category)
	if !s.categories.IsCanonical(category) {
		return nil, fmt.Errorf("%w: %q is not valid, valid categories are: %s",
			ErrInvalidCategory, category, strings.Join(s.categories.CanonicalCategories(), ", "))
	}

	supplier := &models.Supplier{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Category: category,
		Address:  req.Address,
		Notes:    req.Notes,
		AddedBy:  &actor,
	}
	id, err := s.supplierRepo.CreateSupplier(s.db, supplier)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrSupplierEmailExists, req.Email)
		}
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return s.supplierRepo.GetSupplierByID(id)
}

func (s *supplierService) GetSupplierByID(supplierID int64) (*models.Supplier, error) {
	supplier, err := s.supplierRepo.GetSupplierByID(supplierID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to get supplier by ID: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) GetSuppliers(category *string, page, pageSize int) ([]models.Supplier, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	suppliers, totalCount, err := s.supplierRepo.GetSuppliers(category, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get suppliers: %w", err)
	}
	return suppliers, totalCount, nil
}

func (s *supplierService) UpdateSupplier(supplierID int64, req UpdateSupplierRequest) (*models.Supplier, error) {
	supplier, err := s.supplierRepo.GetSupplierByID(supplierID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to find supplier for update: %w", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: supplier name cannot be empty if provided", ErrValidation)
		}
		supplier.Name = *req.Name
	}
	if req.Email != nil {
		if !utils.IsValidEmail(*req.Email) {
			return nil, fmt.Errorf("%w: invalid supplier email %q", ErrValidation, *req.Email)
		}
		supplier.Email = *req.Email
	}
	if req.Phone != nil {
		supplier.Phone = req.Phone
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if !s.categories.IsCanonical(category) {
			return nil, fmt.Errorf("%w: %q is not valid, valid categories are: %s",
				ErrInvalidCategory, category, strings.Join(s.categories.CanonicalCategories(), ", "))
		}
		supplier.Category = category
	}
	if req.Address != nil {
		supplier.Address = req.Address
	}
	if req.Notes != nil {
		supplier.Notes = req.Notes
	}

	if err := s.supplierRepo.UpdateSupplier(s.db, supplier); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrSupplierEmailExists, supplier.Email)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return s.supplierRepo.GetSupplierByID(supplierID)
}

func (s *supplierService) DeleteSupplier(supplierID int64) error {
	err := s.supplierRepo.DeleteSupplier(s.db, supplierID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSupplierNotFound
		}
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	return nil
}
