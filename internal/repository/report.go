package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/craftedby/marketplace/internal/storage/db"
)

type SalesRangeParams struct {
	ArtisanID uuid.UUID
	Start     time.Time
	End       time.Time
}

type SalesTotals struct {
	Revenue     decimal.Decimal
	OrdersCount int
	UnitsSold   int
}

type LowStockProduct struct {
	ID    uuid.UUID
	Name  string
	Stock int
}

type DailySales struct {
	Date        time.Time
	Revenue     decimal.Decimal
	OrdersCount int
	UnitsSold   int
}

// ReportRepository aggregates persisted order rows per artisan. Only PLACED
// and PAID orders count towards sales figures.
type ReportRepository interface {
	WithDB(db db.DB) ReportRepository
	SalesTotals(ctx context.Context, params SalesRangeParams) (SalesTotals, error)
	LowStockProducts(ctx context.Context, artisanID uuid.UUID, threshold int) ([]LowStockProduct, error)
	SalesDaily(ctx context.Context, params SalesRangeParams) ([]DailySales, error)
}

type reportRepository struct {
	db db.DB
}

func NewReportRepository(db db.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r reportRepository) WithDB(db db.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r reportRepository) SalesTotals(ctx context.Context, params SalesRangeParams) (SalesTotals, error) {
	query := `
		SELECT COALESCE(SUM(oi.line_total), 0),
			COUNT(DISTINCT o.id),
			COALESCE(SUM(oi.qty), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE p.artisan_id = $1
		  AND o.created_at BETWEEN $2 AND $3
		  AND o.status IN ('PLACED', 'PAID')
	`

	var (
		totals  SalesTotals
		revenue pgtype.Numeric
	)
	if err := r.db.QueryRow(ctx, query,
		params.ArtisanID, params.Start, params.End).Scan(
		&revenue,
		&totals.OrdersCount,
		&totals.UnitsSold,
	); err != nil {
		return SalesTotals{}, fmt.Errorf("sales totals: %w", err)
	}

	var err error
	if totals.Revenue, err = numericToDecimal(revenue); err != nil {
		return SalesTotals{}, fmt.Errorf("convert revenue: %w", err)
	}

	return totals, nil
}

func (r reportRepository) LowStockProducts(ctx context.Context, artisanID uuid.UUID, threshold int) ([]LowStockProduct, error) {
	query := `
		SELECT id, name, stock
		FROM products
		WHERE artisan_id = $1 AND is_available AND stock <= $2
		ORDER BY stock ASC
	`

	rows, err := r.db.Query(ctx, query, artisanID, threshold)
	if err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}
	defer rows.Close()

	products := make([]LowStockProduct, 0)
	for rows.Next() {
		var product LowStockProduct
		if err := rows.Scan(&product.ID, &product.Name, &product.Stock); err != nil {
			return nil, fmt.Errorf("scan low stock product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate low stock products: %w", err)
	}

	return products, nil
}

func (r reportRepository) SalesDaily(ctx context.Context, params SalesRangeParams) ([]DailySales, error) {
	query := `
		SELECT date_trunc('day', o.created_at) AS day,
			COALESCE(SUM(oi.line_total), 0),
			COUNT(DISTINCT o.id),
			COALESCE(SUM(oi.qty), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE p.artisan_id = $1
		  AND o.created_at BETWEEN $2 AND $3
		  AND o.status IN ('PLACED', 'PAID')
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.Query(ctx, query, params.ArtisanID, params.Start, params.End)
	if err != nil {
		return nil, fmt.Errorf("sales daily: %w", err)
	}
	defer rows.Close()

	days := make([]DailySales, 0)
	for rows.Next() {
		var (
			day     DailySales
			revenue pgtype.Numeric
		)
		if err := rows.Scan(&day.Date, &revenue, &day.OrdersCount, &day.UnitsSold); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		if day.Revenue, err = numericToDecimal(revenue); err != nil {
			return nil, fmt.Errorf("convert daily revenue: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily sales: %w", err)
	}

	return days, nil
}
