package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/redis/go-redis/v9"
)

const cartKeyFormat = "cart:%s"

// CartService keeps each user's pending line items in a Redis hash keyed by
// item id.
type CartService struct {
	client redis.Cmdable
}

func NewCartService(client redis.Cmdable) *CartService {
	return &CartService{client: client}
}

func (s *CartService) List(ctx context.Context, userID string) ([]models.LineItem, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	items := make([]models.LineItem, 0, len(raw))
	for _, encoded := range raw {
		var item models.LineItem
		if err := json.Unmarshal([]byte(encoded), &item); err != nil {
			return nil, fmt.Errorf("decode cart item: %w", err)
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *CartService) Add(ctx context.Context, userID string, item models.LineItem) error {
	item.ID = strings.TrimSpace(item.ID)
	item.Name = strings.TrimSpace(item.Name)
	if userID == "" || item.ID == "" || item.Name == "" || item.Quantity <= 0 || item.Price < 0 {
		return ErrInvalidInput
	}

	encoded, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode cart item: %w", err)
	}
	return s.client.HSet(ctx, cartKey(userID), item.ID, encoded).Err()
}

func (s *CartService) Remove(ctx context.Context, userID string, itemID string) error {
	return s.client.HDel(ctx, cartKey(userID), itemID).Err()
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}

func cartKey(userID string) string {
	return fmt.Sprintf(cartKeyFormat, userID)
}
