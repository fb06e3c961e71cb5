package services

import (
	"context"
	"sync"
	"time"

	"warehouse_backend/internal/repositories"
	"warehouse_backend/pkg/utils"
)

// TrackerService remembers which inventory items already have an open
// restock order, so the same suggestion is not ordered twice while one is
// in flight. The set lives in an injectable persisted store and survives
// restarts; a periodic sweep releases items whose orders have resolved.
type TrackerService struct {
	store     repositories.OrderedItemStore
	orderRepo repositories.OrderRepository

	mu sync.Mutex // serializes sweeps against concurrent marks
}

// NewTrackerService creates a new instance of TrackerService.
func NewTrackerService(store repositories.OrderedItemStore, orderRepo repositories.OrderRepository) *TrackerService {
	return &TrackerService{
		store:     store,
		orderRepo: orderRepo,
	}
}

// MarkOrdered records that an order has been placed for the item. Failures
// are logged, not returned: a missed mark only risks a duplicate
// suggestion, never lost stock.
func (t *TrackerService) MarkOrdered(ctx context.Context, itemID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Add(ctx, utils.Int64ToStr(itemID)); err != nil {
		utils.LogError(err, "TrackerService: failed to persist ordered item mark")
	}
}

// IsOrdered reports whether the item currently has an outstanding order.
func (t *TrackerService) IsOrdered(ctx context.Context, itemID int64) (bool, error) {
	return t.store.Contains(ctx, utils.Int64ToStr(itemID))
}

// OrderedItemIDs returns the tracked set.
func (t *TrackerService) OrderedItemIDs(ctx context.Context) ([]string, error) {
	return t.store.Members(ctx)
}

// Sweep is the garbage-collection pass: it intersects the tracked set with
// the item IDs of still-active orders and drops everything else. Items are
// released on the sweep after their order resolves, not at the moment it
// does.
func (t *TrackerService) Sweep(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	activeIDs, err := t.orderRepo.GetActiveOrderItemIDs()
	if err != nil {
		return err
	}
	active := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[utils.Int64ToStr(id)] = true
	}

	tracked, err := t.store.Members(ctx)
	if err != nil {
		return err
	}

	stale := []string{}
	for _, id := range tracked {
		if !active[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return t.store.Remove(ctx, stale...)
}

// Run executes the sweep on a fixed cadence until the context is canceled.
// Intended to be started once from main as a goroutine.
func (t *TrackerService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Sweep(ctx); err != nil {
				utils.LogError(err, "TrackerService: sweep failed")
			}
		}
	}
}
