package models

import "time"

// SupplierOrder is a purchase order placed with a supplier. It is owned
// and exclusively mutated by the order service once created.
type SupplierOrder struct {
	ID            string               `json:"id" db:"id"`
	Supplier      SupplierSnapshot     `json:"supplier"`
	Items         []OrderItem          `json:"items"`
	Status        string               `json:"status" db:"status"`
	TotalAmount   float64              `json:"total_amount" db:"total_amount"`
	OrderDate     time.Time            `json:"order_date" db:"order_date"`
	StatusHistory []StatusHistoryEntry `json:"status_history,omitempty"`
	AddedBy       *string              `json:"added_by,omitempty" db:"added_by"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`
}

// OrderItem is one line item of a supplier order. ItemID is nil for items
// that do not exist in inventory yet; reconciliation creates them.
type OrderItem struct {
	ID         int64      `json:"id" db:"id"`
	OrderID    string     `json:"order_id" db:"order_id"`
	ItemID     *int64     `json:"item_id,omitempty" db:"item_id"`
	Name       string     `json:"name" db:"name" binding:"required"`
	Quantity   int        `json:"quantity" db:"quantity" binding:"required,gt=0"`
	Price      float64    `json:"price" db:"price"`
	Dimensions Dimensions `json:"dimensions"`
}

// StatusHistoryEntry is one row of an order's append-only audit trail.
// The creation event is recorded as the first entry.
type StatusHistoryEntry struct {
	ID        int64     `json:"id" db:"id"`
	OrderID   string    `json:"order_id" db:"order_id"`
	Status    string    `json:"status" db:"status"`
	Date      time.Time `json:"date" db:"date"`
	UpdatedBy string    `json:"updated_by" db:"updated_by"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
}

// OrderFilters holds optional filters for listing supplier orders.
type OrderFilters struct {
	SupplierID *int64
	Status     *string
	Date       *string
	Page       int
	PageSize   int
}
