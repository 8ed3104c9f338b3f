package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/repository"
)

type ReportQuery struct {
	// ArtisanID overrides the principal's own id; admin only.
	ArtisanID *uuid.UUID
	Start     string
	End       string
}

type Overview struct {
	RevenueTotal  decimal.Decimal
	OrdersCount   int
	UnitsSold     int
	AvgOrderValue decimal.Decimal
	RangeStart    time.Time
	RangeEnd      time.Time
}

type DailySales struct {
	Date        time.Time
	Revenue     decimal.Decimal
	OrdersCount int
	UnitsSold   int
}

type ReportService interface {
	Overview(ctx context.Context, principal auth.Principal, query ReportQuery) (Overview, error)
	LowStock(ctx context.Context, principal auth.Principal, artisanID *uuid.UUID, threshold int) ([]repository.LowStockProduct, error)
	SalesDaily(ctx context.Context, principal auth.Principal, query ReportQuery) ([]DailySales, error)
}

const defaultLowStockThreshold = 5

type reportService struct {
	reportRepo repository.ReportRepository
}

func NewReportService(reportRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

func (s *reportService) Overview(ctx context.Context, principal auth.Principal, query ReportQuery) (Overview, error) {
	artisanID, err := resolveArtisanScope(principal, query.ArtisanID)
	if err != nil {
		return Overview{}, err
	}

	dateRange, err := ParseDateRange(query.Start, query.End)
	if err != nil {
		return Overview{}, err
	}

	totals, err := s.reportRepo.SalesTotals(ctx, repository.SalesRangeParams{
		ArtisanID: artisanID,
		Start:     dateRange.Start,
		End:       dateRange.End,
	})
	if err != nil {
		return Overview{}, fmt.Errorf("report repository sales totals: %w", err)
	}

	avgOrderValue := decimal.Zero
	if totals.OrdersCount > 0 {
		avgOrderValue = totals.Revenue.
			Div(decimal.NewFromInt(int64(totals.OrdersCount))).
			Round(2)
	}

	return Overview{
		RevenueTotal:  totals.Revenue.Round(2),
		OrdersCount:   totals.OrdersCount,
		UnitsSold:     totals.UnitsSold,
		AvgOrderValue: avgOrderValue,
		RangeStart:    dateRange.Start,
		RangeEnd:      dateRange.End,
	}, nil
}

func (s *reportService) LowStock(ctx context.Context, principal auth.Principal, artisanIDOverride *uuid.UUID, threshold int) ([]repository.LowStockProduct, error) {
	artisanID, err := resolveArtisanScope(principal, artisanIDOverride)
	if err != nil {
		return nil, err
	}

	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}

	products, err := s.reportRepo.LowStockProducts(ctx, artisanID, threshold)
	if err != nil {
		return nil, fmt.Errorf("report repository low stock products: %w", err)
	}

	return products, nil
}

func (s *reportService) SalesDaily(ctx context.Context, principal auth.Principal, query ReportQuery) ([]DailySales, error) {
	artisanID, err := resolveArtisanScope(principal, query.ArtisanID)
	if err != nil {
		return nil, err
	}

	dateRange, err := ParseDateRange(query.Start, query.End)
	if err != nil {
		return nil, err
	}

	days, err := s.reportRepo.SalesDaily(ctx, repository.SalesRangeParams{
		ArtisanID: artisanID,
		Start:     dateRange.Start,
		End:       dateRange.End,
	})
	if err != nil {
		return nil, fmt.Errorf("report repository sales daily: %w", err)
	}

	result := make([]DailySales, len(days))
	for i, day := range days {
		result[i] = DailySales{
			Date:        day.Date,
			Revenue:     day.Revenue.Round(2),
			OrdersCount: day.OrdersCount,
			UnitsSold:   day.UnitsSold,
		}
	}

	return result, nil
}
