package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"warehouse_backend/internal/models"
)

// StockUsageRepository defines the interface for the append-only used-stock
// event log. Events are only ever inserted, never updated or deleted.
type StockUsageRepository interface {
	CreateEvent(executor SQLExecutor, event *models.UsedStockEvent) (int64, error)
	GetEventsByItemID(itemID int64, page, pageSize int) ([]models.UsedStockEvent, int, error)
}

type stockUsageRepository struct {
	db *sql.DB
}

// NewStockUsageRepository creates a new instance of StockUsageRepository.
func NewStockUsageRepository(db *sql.DB) StockUsageRepository {
	return &stockUsageRepository{db: db}
}

func (r *stockUsageRepository) CreateEvent(executor SQLExecutor, event *models.UsedStockEvent) (int64, error) {
	query := `INSERT INTO used_stock_events (item_id, quantity, used_at, actor)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	if event.UsedAt.IsZero() {
		event.UsedAt = time.Now()
	}

	err := executor.QueryRow(query,
		event.ItemID, event.Quantity, event.UsedAt, event.Actor,
	).Scan(&event.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating used stock event: %v", ErrDatabaseError, err)
	}
	return event.ID, nil
}

func (r *stockUsageRepository) GetEventsByItemID(itemID int64, page, pageSize int) ([]models.UsedStockEvent, int, error) {
	events := []models.UsedStockEvent{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, item_id, quantity, used_at, actor, COUNT(*) OVER() AS total_count
	  FROM used_stock_events
	  WHERE item_id = $1
	  ORDER BY used_at DESC, id DESC`)

	args := []interface{}{itemID}
	if pageSize > 0 {
		queryBuilder.WriteString(" LIMIT $2 OFFSET $3")
		args = append(args, pageSize, (page-1)*pageSize)
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting used stock events for item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var event models.UsedStockEvent
		var actor sql.NullString
		if err := rows.Scan(&event.ID, &event.ItemID, &event.Quantity, &event.UsedAt, &actor, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning used stock event: %v", ErrDatabaseError, err)
		}
		if actor.Valid {
			event.Actor = &actor.String
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating used stock events: %v", ErrDatabaseError, err)
	}
	return events, totalCount, nil
}
