package models

import "time"

// Supplier represents a supplier record. Each supplier carries exactly one
// canonical category; the order builder matches on it case-insensitively.
type Supplier struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	Email     string    `json:"email" db:"email" binding:"required"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Category  string    `json:"category" db:"category" binding:"required"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	AddedBy   *string   `json:"added_by,omitempty" db:"added_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SupplierSnapshot is the denormalized supplier copy frozen into an order
// at creation time. Later supplier edits never touch it.
type SupplierSnapshot struct {
	SupplierID int64   `json:"supplier_id" db:"supplier_id"`
	Name       string  `json:"name" db:"supplier_name"`
	Email      string  `json:"email" db:"supplier_email"`
	Phone      *string `json:"phone,omitempty" db:"supplier_phone"`
	Category   string  `json:"category" db:"supplier_category"`
}
