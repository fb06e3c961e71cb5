package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"warehouse_backend/internal/models"
)

// OrderRepository defines the interface for supplier order database
// operations. Multi-row writes (order + items + history) run inside a
// single transaction managed by the repository.
type OrderRepository interface {
	CreateOrder(order *models.SupplierOrder) error
	GetOrderByID(orderID string) (*models.SupplierOrder, error)
	GetOrders(filters models.OrderFilters) ([]models.SupplierOrder, int, error)

	// ClaimStatus is a compare-and-set on the status column. It returns
	// ErrStaleWrite when the order's status no longer equals fromStatus,
	// which is how concurrent `received` transitions lose the race.
	ClaimStatus(orderID, fromStatus, toStatus string, updatedAt time.Time) error

	// TransitionStatus atomically applies a compare-and-set status change
	// together with its history entry.
	TransitionStatus(orderID, fromStatus, toStatus string, entry *models.StatusHistoryEntry) error

	AppendStatusHistory(entry *models.StatusHistoryEntry) error
	ReplaceOrderItems(orderID string, items []models.OrderItem, totalAmount float64) error
	DeleteOrder(orderID string) error

	// GetActiveOrderItemIDs returns the inventory item IDs referenced by
	// orders that are neither received nor canceled. Feeds the
	// outstanding-suggestion sweep.
	GetActiveOrderItemIDs() ([]int64, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(order *models.SupplierOrder) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: starting create order transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	query := `INSERT INTO supplier_orders
	            (id, supplier_id, supplier_name, supplier_email, supplier_phone, supplier_category,
	             status, total_amount, order_date, added_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	_, err = tx.Exec(query,
		order.ID, order.Supplier.SupplierID, order.Supplier.Name, order.Supplier.Email,
		order.Supplier.Phone, order.Supplier.Category,
		order.Status, order.TotalAmount, order.OrderDate, order.AddedBy,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: creating supplier order: %v", ErrDatabaseError, err)
	}

	if err := insertOrderItems(tx, order.ID, order.Items); err != nil {
		return err
	}

	for i := range order.StatusHistory {
		if err := insertStatusHistory(tx, &order.StatusHistory[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing create order transaction: %v", ErrDatabaseError, err)
	}
	return nil
}

func insertOrderItems(executor SQLExecutor, orderID string, items []models.OrderItem) error {
	query := `INSERT INTO order_items
	            (order_id, item_id, name, quantity, price, length, width, height)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	for i := range items {
		item := &items[i]
		item.OrderID = orderID
		err := executor.QueryRow(query,
			orderID, item.ItemID, item.Name, item.Quantity, item.Price,
			item.Dimensions.Length, item.Dimensions.Width, item.Dimensions.Height,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("%w: creating order item %q: %v", ErrDatabaseError, item.Name, err)
		}
	}
	return nil
}

func insertStatusHistory(executor SQLExecutor, entry *models.StatusHistoryEntry) error {
	query := `INSERT INTO order_status_history (order_id, status, date, updated_by, notes)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if entry.Date.IsZero() {
		entry.Date = time.Now()
	}
	err := executor.QueryRow(query,
		entry.OrderID, entry.Status, entry.Date, entry.UpdatedBy, entry.Notes,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("%w: appending status history for order %s: %v", ErrDatabaseError, entry.OrderID, err)
	}
	return nil
}

func (r *orderRepository) GetOrderByID(orderID string) (*models.SupplierOrder, error) {
	order := &models.SupplierOrder{}
	var supplierPhone, addedBy sql.NullString

	query := `SELECT id, supplier_id, supplier_name, supplier_email, supplier_phone, supplier_category,
	                 status, total_amount, order_date, added_by, created_at, updated_at
	          FROM supplier_orders
	          WHERE id = $1`
	err := r.db.QueryRow(query, orderID).Scan(
		&order.ID, &order.Supplier.SupplierID, &order.Supplier.Name, &order.Supplier.Email,
		&supplierPhone, &order.Supplier.Category,
		&order.Status, &order.TotalAmount, &order.OrderDate, &addedBy,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting supplier order %s: %v", ErrDatabaseError, orderID, err)
	}
	if supplierPhone.Valid {
		order.Supplier.Phone = &supplierPhone.String
	}
	if addedBy.Valid {
		order.AddedBy = &addedBy.String
	}

	items, err := r.getOrderItems(orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	history, err := r.getStatusHistory(orderID)
	if err != nil {
		return nil, err
	}
	order.StatusHistory = history

	return order, nil
}

func (r *orderRepository) getOrderItems(orderID string) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `SELECT id, order_id, item_id, name, quantity, price, length, width, height
	          FROM order_items
	          WHERE order_id = $1
	          ORDER BY id`
	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order %s: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var itemID sql.NullInt64
		err := rows.Scan(
			&item.ID, &item.OrderID, &itemID, &item.Name, &item.Quantity, &item.Price,
			&item.Dimensions.Length, &item.Dimensions.Width, &item.Dimensions.Height,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order %s: %v", ErrDatabaseError, orderID, err)
		}
		if itemID.Valid {
			item.ItemID = &itemID.Int64
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order items for order %s: %v", ErrDatabaseError, orderID, err)
	}
	return items, nil
}

func (r *orderRepository) getStatusHistory(orderID string) ([]models.StatusHistoryEntry, error) {
	history := []models.StatusHistoryEntry{}
	query := `SELECT id, order_id, status, date, updated_by, notes
	          FROM order_status_history
	          WHERE order_id = $1
	          ORDER BY date, id`
	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying status history for order %s: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.StatusHistoryEntry
		var notes sql.NullString
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.Date, &entry.UpdatedBy, &notes); err != nil {
			return nil, fmt.Errorf("%w: scanning status history for order %s: %v", ErrDatabaseError, orderID, err)
		}
		if notes.Valid {
			entry.Notes = &notes.String
		}
		history = append(history, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating status history for order %s: %v", ErrDatabaseError, orderID, err)
	}
	return history, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.SupplierOrder, int, error) {
	orders := []models.SupplierOrder{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, supplier_id, supplier_name, supplier_email, supplier_phone,
	    supplier_category, status, total_amount, order_date, added_by, created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM supplier_orders`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", argCounter))
		args = append(args, *filters.SupplierID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("order_date BETWEEN $%d AND $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY order_date DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
		args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying supplier orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.SupplierOrder
		var supplierPhone, addedBy sql.NullString
		err := rows.Scan(
			&o.ID, &o.Supplier.SupplierID, &o.Supplier.Name, &o.Supplier.Email,
			&supplierPhone, &o.Supplier.Category,
			&o.Status, &o.TotalAmount, &o.OrderDate, &addedBy,
			&o.CreatedAt, &o.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning supplier order: %v", ErrDatabaseError, err)
		}
		if supplierPhone.Valid {
			o.Supplier.Phone = &supplierPhone.String
		}
		if addedBy.Valid {
			o.AddedBy = &addedBy.String
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating supplier order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) ClaimStatus(orderID, fromStatus, toStatus string, updatedAt time.Time) error {
	query := `UPDATE supplier_orders SET status = $1, updated_at = $2
	          WHERE id = $3 AND status = $4`
	result, err := r.db.Exec(query, toStatus, updatedAt, orderID, fromStatus)
	if err != nil {
		return fmt.Errorf("%w: claiming status %s for order %s: %v", ErrDatabaseError, toStatus, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for status claim on order %s: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (r *orderRepository) TransitionStatus(orderID, fromStatus, toStatus string, entry *models.StatusHistoryEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: starting transition transaction for order %s: %v", ErrDatabaseError, orderID, err)
	}
	defer tx.Rollback()

	query := `UPDATE supplier_orders SET status = $1, updated_at = $2
	          WHERE id = $3 AND status = $4`
	result, err := tx.Exec(query, toStatus, entry.Date, orderID, fromStatus)
	if err != nil {
		return fmt.Errorf("%w: updating status for order %s: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for status update on order %s: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrStaleWrite
	}

	if err := insertStatusHistory(tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transition transaction for order %s: %v", ErrDatabaseError, orderID, err)
	}
	return nil
}

func (r *orderRepository) AppendStatusHistory(entry *models.StatusHistoryEntry) error {
	return insertStatusHistory(r.db, entry)
}

func (r *orderRepository) ReplaceOrderItems(orderID string, items []models.OrderItem, totalAmount float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: starting replace items transaction for order %s: %v", ErrDatabaseError, orderID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("%w: clearing order items for order %s: %v", ErrDatabaseError, orderID, err)
	}
	if err := insertOrderItems(tx, orderID, items); err != nil {
		return err
	}

	result, err := tx.Exec(`UPDATE supplier_orders SET total_amount = $1, updated_at = $2 WHERE id = $3`,
		totalAmount, time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("%w: updating total amount for order %s: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for total amount update on order %s: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing replace items transaction for order %s: %v", ErrDatabaseError, orderID, err)
	}
	return nil
}

func (r *orderRepository) DeleteOrder(orderID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: starting delete order transaction for order %s: %v", ErrDatabaseError, orderID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM order_status_history WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("%w: deleting status history for order %s: %v", ErrDatabaseError, orderID, err)
	}
	if _, err := tx.Exec(`DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("%w: deleting order items for order %s: %v", ErrDatabaseError, orderID, err)
	}

	result, err := tx.Exec(`DELETE FROM supplier_orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("%w: deleting order %s: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting order %s: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing delete order transaction for order %s: %v", ErrDatabaseError, orderID, err)
	}
	return nil
}

func (r *orderRepository) GetActiveOrderItemIDs() ([]int64, error) {
	query := `SELECT DISTINCT oi.item_id
	          FROM order_items oi
	          JOIN supplier_orders so ON oi.order_id = so.id
	          WHERE so.status NOT IN ('received', 'canceled')
	            AND oi.item_id IS NOT NULL`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active order item IDs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning active order item ID: %v", ErrDatabaseError, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating active order item IDs: %v", ErrDatabaseError, err)
	}
	return ids, nil
}
