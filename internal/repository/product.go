package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/storage/db"
)

// StockUpdate is one product stock write-back inside an order transaction.
type StockUpdate struct {
	ProductID uuid.UUID
	Stock     int
}

type SearchProductsParams struct {
	Query    string
	Category string
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	UpdateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, params SearchProductsParams) ([]model.Product, error)
	ListProductsByArtisan(ctx context.Context, artisanID uuid.UUID) ([]model.Product, error)

	// ListForUpdate fetches and row-locks the available products matching the
	// given ids in a single locking query. Unavailable products are not
	// returned.
	ListForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// UpdateStocks persists new stock values for the given products. Must run
	// inside the transaction holding the row locks.
	UpdateStocks(ctx context.Context, updates []StockUpdate) error
}

const productColumns = `id, name, description, category, price, stock, is_available, image_url, artisan_id, created_at, updated_at`

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if _, err := r.db.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Category,
		decimalToNumeric(product.Price),
		product.Stock,
		product.IsAvailable,
		product.ImageURL,
		product.ArtisanID,
		product.CreatedAt,
		product.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r productRepository) UpdateProduct(ctx context.Context, product model.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, category = $4, price = $5, stock = $6,
			is_available = $7, image_url = $8, updated_at = $9
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Category,
		decimalToNumeric(product.Price),
		product.Stock,
		product.IsAvailable,
		product.ImageURL,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r productRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (r productRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r productRepository) SearchProducts(ctx context.Context, params SearchProductsParams) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, params.Query, params.Category)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r productRepository) ListProductsByArtisan(ctx context.Context, artisanID uuid.UUID) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE artisan_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, artisanID)
	if err != nil {
		return nil, fmt.Errorf("list products by artisan: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r productRepository) ListForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1) AND is_available
		FOR UPDATE
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list products for update: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r productRepository) UpdateStocks(ctx context.Context, updates []StockUpdate) error {
	query := `UPDATE products SET stock = $2, updated_at = now() WHERE id = $1`

	batch := &pgx.Batch{}
	for _, update := range updates {
		batch.Queue(query, update.ProductID, update.Stock)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		//nolint:errcheck
		results.Close()
	}()

	for range updates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
	}

	return nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		product model.Product
		price   pgtype.Numeric
	)
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Category,
		&price,
		&product.Stock,
		&product.IsAvailable,
		&product.ImageURL,
		&product.ArtisanID,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return model.Product{}, err
	}

	var err error
	product.Price, err = numericToDecimal(price)
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price: %w", err)
	}

	return product, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	products := make([]model.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}
