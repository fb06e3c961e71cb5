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

// InventoryRepository defines the interface for inventory item database operations.
type InventoryRepository interface {
	CreateItem(executor SQLExecutor, item *models.InventoryItem) (int64, error)
	GetItemByID(itemID int64) (*models.InventoryItem, error)
	GetItemByName(name string) (*models.InventoryItem, error) // exact, case-sensitive match
	GetItems(filters models.InventoryFilters) ([]models.InventoryItem, int, error)
	UpdateItem(executor SQLExecutor, item *models.InventoryItem) error
	// AdjustQuantity applies delta to the stored quantity, guarded so the
	// result can never go below zero. Returns the new quantity.
	AdjustQuantity(executor SQLExecutor, itemID int64, delta int, updatedAt time.Time) (int, error)
	DeleteItem(executor SQLExecutor, itemID int64) error
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

const inventoryColumns = `id, name, quantity, price, category,
	length, width, height, aisle, shelf, section,
	added_by, added_date, last_updated`

func scanInventoryItem(row interface{ Scan(dest ...interface{}) error }) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	var lastUpdated sql.NullTime
	var addedBy, aisle, shelf, section sql.NullString

	err := row.Scan(
		&item.ID, &item.Name, &item.Quantity, &item.Price, &item.Category,
		&item.Dimensions.Length, &item.Dimensions.Width, &item.Dimensions.Height,
		&aisle, &shelf, &section,
		&addedBy, &item.AddedDate, &lastUpdated,
	)
	if err != nil {
		return nil, err
	}

	if addedBy.Valid {
		item.AddedBy = &addedBy.String
	}
	if aisle.Valid {
		item.Location.Aisle = &aisle.String
	}
	if shelf.Valid {
		item.Location.Shelf = &shelf.String
	}
	if section.Valid {
		item.Location.Section = &section.String
	}
	if lastUpdated.Valid {
		item.LastUpdated = &lastUpdated.Time
	}
	return item, nil
}

func (r *inventoryRepository) CreateItem(executor SQLExecutor, item *models.InventoryItem) (int64, error) {
	query := `INSERT INTO inventory_items
	            (name, quantity, price, category, length, width, height,
	             aisle, shelf, section, added_by, added_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	if item.AddedDate.IsZero() {
		item.AddedDate = time.Now()
	}

	err := executor.QueryRow(query,
		item.Name, item.Quantity, item.Price, item.Category,
		item.Dimensions.Length, item.Dimensions.Width, item.Dimensions.Height,
		item.Location.Aisle, item.Location.Shelf, item.Location.Section,
		item.AddedBy, item.AddedDate,
	).Scan(&item.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, fmt.Errorf("%w: inventory item name %q", ErrDuplicateKey, item.Name)
		}
		return 0, fmt.Errorf("%w: creating inventory item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *inventoryRepository) GetItemByID(itemID int64) (*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1`
	item, err := scanInventoryItem(r.db.QueryRow(query, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item by ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

// GetItemByName matches on the exact stored name. Reconciliation depends on
// this being case-sensitive.
func (r *inventoryRepository) GetItemByName(name string) (*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE name = $1`
	item, err := scanInventoryItem(r.db.QueryRow(query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item by name %q: %v", ErrDatabaseError, name, err)
	}
	return item, nil
}

func (r *inventoryRepository) GetItems(filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	items := []models.InventoryItem{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + inventoryColumns + `, COUNT(*) OVER() AS total_count FROM inventory_items`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCounter))
		args = append(args, *filters.Category)
		argCounter++
	}
	if filters.Name != nil && *filters.Name != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argCounter))
		args = append(args, "%"+*filters.Name+"%")
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
		args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying inventory items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item := models.InventoryItem{}
		var lastUpdated sql.NullTime
		var addedBy, aisle, shelf, section sql.NullString

		err := rows.Scan(
			&item.ID, &item.Name, &item.Quantity, &item.Price, &item.Category,
			&item.Dimensions.Length, &item.Dimensions.Width, &item.Dimensions.Height,
			&aisle, &shelf, &section,
			&addedBy, &item.AddedDate, &lastUpdated,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		if addedBy.Valid {
			item.AddedBy = &addedBy.String
		}
		if aisle.Valid {
			item.Location.Aisle = &aisle.String
		}
		if shelf.Valid {
			item.Location.Shelf = &shelf.String
		}
		if section.Valid {
			item.Location.Section = &section.String
		}
		if lastUpdated.Valid {
			item.LastUpdated = &lastUpdated.Time
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory item rows: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

func (r *inventoryRepository) UpdateItem(executor SQLExecutor, item *models.InventoryItem) error {
	query := `UPDATE inventory_items SET
	            name = $1, quantity = $2, price = $3, category = $4,
	            length = $5, width = $6, height = $7,
	            aisle = $8, shelf = $9, section = $10, last_updated = $11
	          WHERE id = $12`

	now := time.Now()
	result, err := executor.Exec(query,
		item.Name, item.Quantity, item.Price, item.Category,
		item.Dimensions.Length, item.Dimensions.Width, item.Dimensions.Height,
		item.Location.Aisle, item.Location.Shelf, item.Location.Section, now,
		item.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: inventory item name %q", ErrDuplicateKey, item.Name)
		}
		return fmt.Errorf("%w: updating inventory item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for inventory item update ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	item.LastUpdated = &now
	return nil
}

func (r *inventoryRepository) AdjustQuantity(executor SQLExecutor, itemID int64, delta int, updatedAt time.Time) (int, error) {
	// GREATEST clamps the quantity at zero so a use-stock operation can
	// never drive it negative.
	query := `UPDATE inventory_items
	          SET quantity = GREATEST(quantity + $1, 0), last_updated = $2
	          WHERE id = $3
	          RETURNING quantity`
	var newQuantity int
	err := executor.QueryRow(query, delta, updatedAt, itemID).Scan(&newQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: adjusting quantity for inventory item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return newQuantity, nil
}

func (r *inventoryRepository) DeleteItem(executor SQLExecutor, itemID int64) error {
	query := `DELETE FROM inventory_items WHERE id = $1`
	result, err := executor.Exec(query, itemID)
	if err != nil {
		return fmt.Errorf("%w: deleting inventory item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting inventory item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
