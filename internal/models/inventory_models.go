package models

import "time"

// Dimensions holds the physical size of an item in centimeters.
type Dimensions struct {
	Length float64 `json:"length" db:"length"`
	Width  float64 `json:"width" db:"width"`
	Height float64 `json:"height" db:"height"`
}

// StorageLocation describes where an item is kept in the warehouse.
// All fields are free text.
type StorageLocation struct {
	Aisle   *string `json:"aisle,omitempty" db:"aisle"`
	Shelf   *string `json:"shelf,omitempty" db:"shelf"`
	Section *string `json:"section,omitempty" db:"section"`
}

// InventoryItem represents a stocked item. Name doubles as the natural
// join key when received orders are reconciled back into inventory.
type InventoryItem struct {
	ID          int64            `json:"id" db:"id"`
	Name        string           `json:"name" db:"name" binding:"required"`
	Quantity    int              `json:"quantity" db:"quantity"` // never negative
	Price       float64          `json:"price" db:"price"`
	Category    string           `json:"category" db:"category"`
	Dimensions  Dimensions       `json:"dimensions"`
	Location    StorageLocation  `json:"location"`
	AddedBy     *string          `json:"added_by,omitempty" db:"added_by"`
	AddedDate   time.Time        `json:"added_date" db:"added_date"`
	LastUpdated *time.Time       `json:"last_updated,omitempty" db:"last_updated"`
	UsedStock   []UsedStockEvent `json:"used_stock,omitempty"`
}

// UsedStockEvent is one consumption event in an item's append-only usage
// history.
type UsedStockEvent struct {
	ID       int64     `json:"id" db:"id"`
	ItemID   int64     `json:"item_id" db:"item_id"`
	Quantity int       `json:"quantity" db:"quantity" binding:"required,gt=0"`
	UsedAt   time.Time `json:"used_at" db:"used_at"`
	Actor    *string   `json:"actor,omitempty" db:"actor"`
}

// InventoryFilters holds optional filters for listing inventory items.
type InventoryFilters struct {
	Category *string
	Name     *string
	Page     int
	PageSize int
}
