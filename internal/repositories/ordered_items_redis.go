package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const orderedItemsKey = "restock:ordered_items"

// OrderedItemStore persists the set of inventory item IDs that have an
// outstanding restock order. The set must survive process restarts.
type OrderedItemStore interface {
	Add(ctx context.Context, itemID string) error
	Remove(ctx context.Context, itemIDs ...string) error
	Contains(ctx context.Context, itemID string) (bool, error)
	Members(ctx context.Context) ([]string, error)
}

type redisOrderedItemStore struct {
	client *redis.Client
}

// NewRedisOrderedItemStore creates an OrderedItemStore backed by a Redis set.
func NewRedisOrderedItemStore(client *redis.Client) OrderedItemStore {
	return &redisOrderedItemStore{client: client}
}

func (s *redisOrderedItemStore) Add(ctx context.Context, itemID string) error {
	if err := s.client.SAdd(ctx, orderedItemsKey, itemID).Err(); err != nil {
		return fmt.Errorf("adding ordered item %s: %w", itemID, err)
	}
	return nil
}

func (s *redisOrderedItemStore) Remove(ctx context.Context, itemIDs ...string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(itemIDs))
	for i, id := range itemIDs {
		members[i] = id
	}
	if err := s.client.SRem(ctx, orderedItemsKey, members...).Err(); err != nil {
		return fmt.Errorf("removing ordered items: %w", err)
	}
	return nil
}

func (s *redisOrderedItemStore) Contains(ctx context.Context, itemID string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, orderedItemsKey, itemID).Result()
	if err != nil {
		return false, fmt.Errorf("checking ordered item %s: %w", itemID, err)
	}
	return ok, nil
}

func (s *redisOrderedItemStore) Members(ctx context.Context) ([]string, error) {
	members, err := s.client.SMembers(ctx, orderedItemsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing ordered items: %w", err)
	}
	return members, nil
}
