package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"warehouse_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// SupplierRepository defines the interface for supplier database operations.
type SupplierRepository interface {
	CreateSupplier(executor SQLExecutor, supplier *models.Supplier) (int64, error)
	GetSupplierByID(supplierID int64) (*models.Supplier, error)
	GetSuppliers(category *string, page, pageSize int) ([]models.Supplier, int, error)
	UpdateSupplier(executor SQLExecutor, supplier *models.Supplier) error
	DeleteSupplier(executor SQLExecutor, supplierID int64) error
}

type supplierRepository struct {
	db *sql.DB
}

// NewSupplierRepository creates a new instance of SupplierRepository.
func NewSupplierRepository(db *sql.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) CreateSupplier(executor SQLExecutor, supplier *models.Supplier) (int64, error) {
	query := `INSERT INTO suppliers
	            (name, email, phone, category, address, notes, added_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	now := time.Now()
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = now
	}
	if supplier.UpdatedAt.IsZero() {
		supplier.UpdatedAt = now
	}

	err := executor.QueryRow(query,
		supplier.Name, supplier.Email, supplier.Phone, supplier.Category,
		supplier.Address, supplier.Notes, supplier.AddedBy,
		supplier.CreatedAt, supplier.UpdatedAt,
	).Scan(&supplier.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, fmt.Errorf("%w: supplier email %q", ErrDuplicateKey, supplier.Email)
		}
		return 0, fmt.Errorf("%w: creating supplier: %v", ErrDatabaseError, err)
	}
	return supplier.ID, nil
}

func (r *supplierRepository) GetSupplierByID(supplierID int64) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	var phone, address, notes, addedBy sql.NullString

	query := `SELECT id, name, email, phone, category, address, notes, added_by, created_at, updated_at
	          FROM suppliers WHERE id = $1`
	err := r.db.QueryRow(query, supplierID).Scan(
		&supplier.ID, &supplier.Name, &supplier.Email, &phone, &supplier.Category,
		&address, &notes, &addedBy, &supplier.CreatedAt, &supplier.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting supplier by ID %d: %v", ErrDatabaseError, supplierID, err)
	}

	if phone.Valid {
		supplier.Phone = &phone.String
	}
	if address.Valid {
		supplier.Address = &address.String
	}
	if notes.Valid {
		supplier.Notes = &notes.String
	}
	if addedBy.Valid {
		supplier.AddedBy = &addedBy.String
	}
	return supplier, nil
}

func (r *supplierRepository) GetSuppliers(category *string, page, pageSize int) ([]models.Supplier, int, error) {
	suppliers := []models.Supplier{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, name, email, phone, category, address, notes, added_by,
	    created_at, updated_at, COUNT(*) OVER() AS total_count
	  FROM suppliers`)

	var args []interface{}
	argCounter := 1

	if category != nil && *category != "" {
		// Supplier/category compatibility checks are case-insensitive and
		// ignore surrounding whitespace.
		queryBuilder.WriteString(fmt.Sprintf(" WHERE LOWER(TRIM(category)) = LOWER(TRIM($%d))", argCounter))
		args = append(args, *category)
		argCounter++
	}
	queryBuilder.WriteString(" ORDER BY name")

	if pageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
		args = append(args, pageSize, (page-1)*pageSize)
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying suppliers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Supplier
		var phone, address, notes, addedBy sql.NullString

		err := rows.Scan(
			&s.ID, &s.Name, &s.Email, &phone, &s.Category,
			&address, &notes, &addedBy, &s.CreatedAt, &s.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning supplier: %v", ErrDatabaseError, err)
		}
		if phone.Valid {
			s.Phone = &phone.String
		}
		if address.Valid {
			s.Address = &address.String
		}
		if notes.Valid {
			s.Notes = &notes.String
		}
		if addedBy.Valid {
			s.AddedBy = &addedBy.String
		}
		suppliers = append(suppliers, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating supplier rows: %v", ErrDatabaseError, err)
	}
	return suppliers, totalCount, nil
}

func (r *supplierRepository) UpdateSupplier(executor SQLExecutor, supplier *models.Supplier) error {
	query := `UPDATE suppliers SET
	            name = $1, email = $2, phone = $3, category = $4,
	            address = $5, notes = $6, updated_at = $7
	          WHERE id = $8`
	supplier.UpdatedAt = time.Now()
	result, err := executor.Exec(query,
		supplier.Name, supplier.Email, supplier.Phone, supplier.Category,
		supplier.Address, supplier.Notes, supplier.UpdatedAt,
		supplier.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: supplier email %q", ErrDuplicateKey, supplier.Email)
		}
		return fmt.Errorf("%w: updating supplier ID %d: %v", ErrDatabaseError, supplier.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for supplier update ID %d: %v", ErrDatabaseError, supplier.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *supplierRepository) DeleteSupplier(executor SQLExecutor, supplierID int64) error {
	query := `DELETE FROM suppliers WHERE id = $1`
	result, err := executor.Exec(query, supplierID)
	if err != nil {
		return fmt.Errorf("%w: deleting supplier ID %d: %v", ErrDatabaseError, supplierID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting supplier ID %d: %v", ErrDatabaseError, supplierID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
