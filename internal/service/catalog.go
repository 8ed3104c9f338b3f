package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftedby/marketplace/internal/apperr"
	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/event"
	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/repository"
	"github.com/craftedby/marketplace/internal/storage/cache"
	"github.com/craftedby/marketplace/internal/storage/db"
	"github.com/craftedby/marketplace/pkg/outbox"
	"github.com/craftedby/marketplace/pkg/ptr"
)

type CreateProductParams struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
}

type UpdateProductParams struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	IsAvailable bool
	ImageURL    string
}

type CatalogService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, params repository.SearchProductsParams) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListMyProducts(ctx context.Context, principal auth.Principal) ([]model.Product, error)
	CreateProduct(ctx context.Context, principal auth.Principal, params CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, principal auth.Principal, id uuid.UUID, params UpdateProductParams) (model.Product, error)
}

type catalogService struct {
	db            db.DB
	logger        *slog.Logger
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
	cache         cache.Cache
}

func NewCatalogService(
	db db.DB,
	logger *slog.Logger,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	cache cache.Cache,
) CatalogService {
	return &catalogService{
		db:            db,
		logger:        logger.With(slog.String("service", "catalog")),
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
		cache:         cache,
	}
}

// ListProducts serves the full listing from Redis when possible; the cache
// is best effort and every miss or failure falls through to Postgres.
func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	if cached, err := s.cache.Get(ctx, cache.KeyCatalogProducts); err == nil {
		var products []model.Product
		if err := json.Unmarshal(cached, &products); err == nil {
			return products, nil
		}
		s.logger.WarnContext(ctx, "discarding undecodable catalog cache entry")
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "error reading catalog cache", slog.Any("error", err))
	}

	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list products: %w", err)
	}

	if encoded, err := json.Marshal(products); err == nil {
		if err := s.cache.Set(ctx, cache.KeyCatalogProducts, encoded); err != nil {
			s.logger.WarnContext(ctx, "error writing catalog cache", slog.Any("error", err))
		}
	}

	return products, nil
}

func (s *catalogService) SearchProducts(ctx context.Context, params repository.SearchProductsParams) ([]model.Product, error) {
	products, err := s.productRepo.SearchProducts(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("product repository search products: %w", err)
	}

	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}

	return product, nil
}

func (s *catalogService) ListMyProducts(ctx context.Context, principal auth.Principal) ([]model.Product, error) {
	products, err := s.productRepo.ListProductsByArtisan(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("product repository list products by artisan: %w", err)
	}

	return products, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, principal auth.Principal, params CreateProductParams) (model.Product, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now()
	product := model.Product{
		ID:          id,
		Name:        params.Name,
		Description: params.Description,
		Category:    params.Category,
		Price:       params.Price.Round(2),
		Stock:       params.Stock,
		IsAvailable: true,
		ImageURL:    params.ImageURL,
		ArtisanID:   principal.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ev := event.ProductCreatedEvent{
		ProductID: product.ID.String(),
		Name:      product.Name,
		Price:     product.Price.StringFixed(2),
		Stock:     product.Stock,
		ArtisanID: product.ArtisanID.String(),
	}

	evBytes, err := json.Marshal(ev)
	if err != nil {
		return model.Product{}, fmt.Errorf("marshal event: %w", err)
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		if err := s.productRepo.
			WithDB(tx).
			CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		if err := s.outboxMsgRepo.
			WithDB(tx).
			CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        event.TopicProductCreated,
				Headers:      outbox.BuildHeaders(ctx),
				Payload:      evBytes,
				PartitionKey: ptr.New(product.ID.String()),
			}); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	s.invalidateListing(ctx)

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, principal auth.Principal, id uuid.UUID, params UpdateProductParams) (model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	if product.ArtisanID != principal.UserID && principal.Role != model.RoleAdmin {
		return model.Product{}, apperr.ProductAccessDeniedErr
	}

	product.Name = params.Name
	product.Description = params.Description
	product.Category = params.Category
	product.Price = params.Price.Round(2)
	product.Stock = params.Stock
	product.IsAvailable = params.IsAvailable
	product.ImageURL = params.ImageURL
	product.UpdatedAt = time.Now()

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("product repository update product: %w", err)
	}

	s.invalidateListing(ctx)

	return product, nil
}

func (s *catalogService) invalidateListing(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.KeyCatalogProducts); err != nil {
		s.logger.WarnContext(ctx, "error invalidating catalog cache", slog.Any("error", err))
	}
}
