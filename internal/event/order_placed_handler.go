package event

import (
	"context"
	"log/slog"

	"github.com/craftedby/marketplace/internal/storage/cache"
)

const TopicOrderPlaced = "order.placed"

type OrderPlacedItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderPlacedEvent struct {
	OrderID string            `json:"order_id"`
	UserID  string            `json:"user_id"`
	Total   string            `json:"total"`
	Items   []OrderPlacedItem `json:"items"`
}

// handleOrderPlacedEvent drops the cached catalog listing, since the order
// decremented stock for the products it touched.
func (s *Service) handleOrderPlacedEvent(ctx context.Context, ev OrderPlacedEvent) error {
	s.logger.InfoContext(ctx, "handling order placed event",
		slog.String("order_id", ev.OrderID),
		slog.Int("items", len(ev.Items)),
	)

	if err := s.cache.Delete(ctx, cache.KeyCatalogProducts); err != nil {
		s.logger.WarnContext(ctx, "error invalidating catalog cache", slog.Any("error", err))
	}

	return nil
}
