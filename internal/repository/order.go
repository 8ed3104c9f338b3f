package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/storage/db"
)

type ArtisanOrdersParams struct {
	ArtisanID uuid.UUID
	Start     *time.Time
	End       *time.Time
	Limit     int
	Offset    int
}

// ArtisanOrderSummary is one order as seen by an artisan: the order header
// plus the subtotal of the items belonging to that artisan.
type ArtisanOrderSummary struct {
	ID              uuid.UUID
	Total           decimal.Decimal
	TotalForArtisan decimal.Decimal
	Status          model.OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderRepository interface {
	WithDB(db db.DB) OrderRepository

	// CreateOrder persists the order and all of its items. Must run inside
	// the order-placement transaction.
	CreateOrder(ctx context.Context, order model.Order) error

	GetOrder(ctx context.Context, id uuid.UUID) (model.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	ListArtisanOrders(ctx context.Context, params ArtisanOrdersParams) ([]ArtisanOrderSummary, error)
	CountArtisanOrders(ctx context.Context, params ArtisanOrdersParams) (int, error)
	ListOrderItemsForArtisan(ctx context.Context, orderID, artisanID uuid.UUID) ([]model.OrderItem, error)
}

const orderItemColumns = `id, order_id, product_id, name, price, qty, line_total, position`

type orderRepository struct {
	db db.DB
}

func NewOrderRepository(db db.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r orderRepository) WithDB(db db.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r orderRepository) CreateOrder(ctx context.Context, order model.Order) error {
	orderQuery := `
		INSERT INTO orders (id, user_id, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.db.Exec(ctx, orderQuery,
		order.ID,
		order.UserID,
		decimalToNumeric(order.Total),
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (` + orderItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, item := range order.Items {
		batch.Queue(itemQuery,
			item.ID,
			order.ID,
			item.ProductID,
			item.Name,
			decimalToNumeric(item.Price),
			item.Qty,
			decimalToNumeric(item.LineTotal),
			item.Position,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		//nolint:errcheck
		results.Close()
	}()

	for range order.Items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}

func (r orderRepository) GetOrder(ctx context.Context, id uuid.UUID) (model.Order, error) {
	query := `SELECT id, user_id, total, status, created_at, updated_at FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, ErrNotFound
		}
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}

	items, err := r.listItems(ctx, []uuid.UUID{id})
	if err != nil {
		return model.Order{}, err
	}
	order.Items = items[id]
	if order.Items == nil {
		order.Items = []model.OrderItem{}
	}

	return order, nil
}

func (r orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	query := `
		SELECT id, user_id, total, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders by user: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	orderIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	itemsByOrder, err := r.listItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []model.OrderItem{}
		}
	}

	return orders, nil
}

func (r orderRepository) ListArtisanOrders(ctx context.Context, params ArtisanOrdersParams) ([]ArtisanOrderSummary, error) {
	query := `
		SELECT o.id, o.total, o.status, o.created_at, o.updated_at,
			SUM(oi.line_total) AS total_for_artisan
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE p.artisan_id = $1
		  AND ($2::timestamptz IS NULL OR o.created_at >= $2)
		  AND ($3::timestamptz IS NULL OR o.created_at <= $3)
		GROUP BY o.id
		ORDER BY o.created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Query(ctx, query,
		params.ArtisanID, params.Start, params.End, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list artisan orders: %w", err)
	}
	defer rows.Close()

	summaries := make([]ArtisanOrderSummary, 0)
	for rows.Next() {
		var (
			summary         ArtisanOrderSummary
			total           pgtype.Numeric
			totalForArtisan pgtype.Numeric
		)
		if err := rows.Scan(
			&summary.ID,
			&total,
			&summary.Status,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&totalForArtisan,
		); err != nil {
			return nil, fmt.Errorf("scan artisan order: %w", err)
		}

		if summary.Total, err = numericToDecimal(total); err != nil {
			return nil, fmt.Errorf("convert total: %w", err)
		}
		if summary.TotalForArtisan, err = numericToDecimal(totalForArtisan); err != nil {
			return nil, fmt.Errorf("convert artisan total: %w", err)
		}

		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artisan orders: %w", err)
	}

	return summaries, nil
}

func (r orderRepository) CountArtisanOrders(ctx context.Context, params ArtisanOrdersParams) (int, error) {
	query := `
		SELECT COUNT(DISTINCT o.id)
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE p.artisan_id = $1
		  AND ($2::timestamptz IS NULL OR o.created_at >= $2)
		  AND ($3::timestamptz IS NULL OR o.created_at <= $3)
	`

	var count int
	if err := r.db.QueryRow(ctx, query,
		params.ArtisanID, params.Start, params.End).Scan(&count); err != nil {
		return 0, fmt.Errorf("count artisan orders: %w", err)
	}

	return count, nil
}

func (r orderRepository) ListOrderItemsForArtisan(ctx context.Context, orderID, artisanID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.name, oi.price, oi.qty, oi.line_total, oi.position
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1 AND p.artisan_id = $2
		ORDER BY oi.position
	`

	rows, err := r.db.Query(ctx, query, orderID, artisanID)
	if err != nil {
		return nil, fmt.Errorf("list order items for artisan: %w", err)
	}
	defer rows.Close()

	return collectOrderItems(rows)
}

func (r orderRepository) listItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	query := `
		SELECT ` + orderItemColumns + `
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY position
	`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items, err := collectOrderItems(rows)
	if err != nil {
		return nil, err
	}

	itemsByOrder := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	return itemsByOrder, nil
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		order model.Order
		total pgtype.Numeric
	)
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&total,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return model.Order{}, err
	}

	var err error
	order.Total, err = numericToDecimal(total)
	if err != nil {
		return model.Order{}, fmt.Errorf("convert total: %w", err)
	}

	return order, nil
}

func collectOrderItems(rows pgx.Rows) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, 0)
	for rows.Next() {
		var (
			item      model.OrderItem
			price     pgtype.Numeric
			lineTotal pgtype.Numeric
		)
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&price,
			&item.Qty,
			&lineTotal,
			&item.Position,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}

		var err error
		if item.Price, err = numericToDecimal(price); err != nil {
			return nil, fmt.Errorf("convert item price: %w", err)
		}
		if item.LineTotal, err = numericToDecimal(lineTotal); err != nil {
			return nil, fmt.Errorf("convert item line total: %w", err)
		}

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}
