package event

import (
	"context"
	"log/slog"

	"github.com/craftedby/marketplace/internal/storage/cache"
)

const TopicProductCreated = "product.created"

type ProductCreatedEvent struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Stock     int    `json:"stock"`
	ArtisanID string `json:"artisan_id"`
}

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "handling product created event",
		slog.String("product_id", ev.ProductID),
		slog.String("artisan_id", ev.ArtisanID),
	)

	if err := s.cache.Delete(ctx, cache.KeyCatalogProducts); err != nil {
		s.logger.WarnContext(ctx, "error invalidating catalog cache", slog.Any("error", err))
	}

	return nil
}
