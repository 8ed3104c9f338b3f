package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftedby/marketplace/internal/apperr"
	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/event"
	"github.com/craftedby/marketplace/internal/invoice"
	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/repository"
	"github.com/craftedby/marketplace/internal/storage/db"
	"github.com/craftedby/marketplace/pkg/outbox"
	"github.com/craftedby/marketplace/pkg/ptr"
	"github.com/craftedby/marketplace/pkg/zerror"
)

// OrderLine is one requested {productId, qty} pair.
type OrderLine struct {
	ProductID uuid.UUID
	Qty       int
}

// PlacedOrder is the confirmation returned on successful placement.
type PlacedOrder struct {
	OrderID uuid.UUID
	Total   decimal.Decimal
	Status  model.OrderStatus
}

type ArtisanOrderQuery struct {
	// ArtisanID overrides the principal's own id; admin only.
	ArtisanID *uuid.UUID
	Start     *time.Time
	End       *time.Time
	Page      int
	PageSize  int
}

// ArtisanOrderView is an order narrowed to one artisan's items.
type ArtisanOrderView struct {
	ID                  uuid.UUID
	Total               decimal.Decimal
	TotalForThisArtisan decimal.Decimal
	Status              model.OrderStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Items               []model.OrderItem
}

type ArtisanOrderPage struct {
	Items      []ArtisanOrderView
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type OrderService interface {
	PlaceOrder(ctx context.Context, principal auth.Principal, lines []OrderLine) (PlacedOrder, error)
	GetOrderByID(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (model.Order, error)
	ListMyOrders(ctx context.Context, principal auth.Principal) ([]model.Order, error)
	ListOrdersByArtisan(ctx context.Context, principal auth.Principal, query ArtisanOrderQuery) (ArtisanOrderPage, error)
	GetOrderDetailForArtisan(ctx context.Context, principal auth.Principal, orderID uuid.UUID, artisanID *uuid.UUID) (ArtisanOrderView, error)
	RenderInvoice(ctx context.Context, principal auth.Principal, orderID uuid.UUID) ([]byte, error)
}

type orderService struct {
	db            db.DB
	productRepo   repository.ProductRepository
	orderRepo     repository.OrderRepository
	userRepo      repository.UserRepository
	outboxMsgRepo repository.OutboxMsgRepository
	invoices      invoice.Renderer
}

func NewOrderService(
	db db.DB,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	invoices invoice.Renderer,
) OrderService {
	return &orderService{
		db:            db,
		productRepo:   productRepo,
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		outboxMsgRepo: outboxMsgRepo,
		invoices:      invoices,
	}
}

// PlaceOrder validates and normalizes the requested lines, then, inside one
// transaction: locks the requested product rows, checks stock, decrements
// it, and persists the order with its items. Any failure rolls the whole
// transaction back; no partial order is ever visible.
func (s *orderService) PlaceOrder(ctx context.Context, principal auth.Principal, lines []OrderLine) (PlacedOrder, error) {
	merged, err := normalizeOrderLines(lines)
	if err != nil {
		return PlacedOrder{}, err
	}

	productIDs := make([]uuid.UUID, len(merged))
	for i, line := range merged {
		productIDs[i] = line.ProductID
	}

	var placed PlacedOrder
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		// One locking query for every requested row. Concurrent orders
		// contending for the same product serialize here and observe each
		// other's committed decrements.
		products, err := s.productRepo.WithDB(tx).ListForUpdate(ctx, productIDs)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		if len(products) != len(merged) {
			return apperr.ProductsUnavailableErr
		}

		productsByID := make(map[uuid.UUID]model.Product, len(products))
		for _, product := range products {
			productsByID[product.ID] = product
		}

		orderID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate order id: %w", err)
		}

		now := time.Now()
		total := decimal.Zero
		items := make([]model.OrderItem, 0, len(merged))
		stockUpdates := make([]repository.StockUpdate, 0, len(merged))

		for i, line := range merged {
			product := productsByID[line.ProductID]

			if product.Stock < line.Qty {
				return apperr.NewInsufficientStock(product.Name)
			}

			itemID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate order item id: %w", err)
			}

			// Round per line, then sum the rounded line totals.
			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Qty))).Round(2)
			total = total.Add(lineTotal)

			items = append(items, model.OrderItem{
				ID:        itemID,
				OrderID:   orderID,
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price.Round(2),
				Qty:       line.Qty,
				LineTotal: lineTotal,
				Position:  i,
			})
			stockUpdates = append(stockUpdates, repository.StockUpdate{
				ProductID: product.ID,
				Stock:     product.Stock - line.Qty,
			})
		}

		order := model.Order{
			ID:        orderID,
			UserID:    principal.UserID,
			Total:     total.Round(2),
			Status:    model.OrderStatusPlaced,
			Items:     items,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.orderRepo.WithDB(tx).CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("order repository create order: %w", err)
		}

		if err := s.productRepo.WithDB(tx).UpdateStocks(ctx, stockUpdates); err != nil {
			return fmt.Errorf("product repository update stocks: %w", err)
		}

		if err := s.writeOrderPlacedMsg(ctx, tx, order); err != nil {
			return fmt.Errorf("write order placed msg: %w", err)
		}

		placed = PlacedOrder{
			OrderID: order.ID,
			Total:   order.Total,
			Status:  order.Status,
		}
		return nil
	}); err != nil {
		var zErr zerror.ZError
		if errors.As(err, &zErr) {
			return PlacedOrder{}, err
		}
		return PlacedOrder{}, apperr.TransientStoreFailureErr.WrapParent(err)
	}

	return placed, nil
}

// normalizeOrderLines validates every line and merges duplicate product ids
// by summing their quantities, preserving first-seen order.
func normalizeOrderLines(lines []OrderLine) ([]OrderLine, error) {
	if len(lines) == 0 {
		return nil, apperr.NewInvalidOrderRequest("at least one item is required")
	}

	merged := make([]OrderLine, 0, len(lines))
	indexByProduct := make(map[uuid.UUID]int, len(lines))

	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, apperr.NewInvalidOrderRequest("each item must include a productId")
		}
		if line.Qty <= 0 {
			return nil, apperr.NewInvalidOrderRequest("each item must have qty > 0")
		}

		if i, ok := indexByProduct[line.ProductID]; ok {
			merged[i].Qty += line.Qty
			continue
		}
		indexByProduct[line.ProductID] = len(merged)
		merged = append(merged, line)
	}

	return merged, nil
}

func (s *orderService) writeOrderPlacedMsg(ctx context.Context, tx db.DB, order model.Order) error {
	evItems := make([]event.OrderPlacedItem, len(order.Items))
	for i, item := range order.Items {
		evItems[i] = event.OrderPlacedItem{
			ProductID: item.ProductID.String(),
			Qty:       item.Qty,
		}
	}

	ev := event.OrderPlacedEvent{
		OrderID: order.ID.String(),
		UserID:  order.UserID.String(),
		Total:   order.Total.StringFixed(2),
		Items:   evItems,
	}

	evBytes, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := s.outboxMsgRepo.
		WithDB(tx).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        event.TopicOrderPlaced,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      evBytes,
			PartitionKey: ptr.New(order.ID.String()),
		}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}

func (s *orderService) GetOrderByID(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (model.Order, error) {
	order, err := s.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Order{}, apperr.OrderNotFoundErr
		}
		return model.Order{}, fmt.Errorf("order repository get order: %w", err)
	}

	if !auth.CanAccessOrder(principal, order) {
		return model.Order{}, apperr.OrderAccessDeniedErr
	}

	return order, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, principal auth.Principal) ([]model.Order, error) {
	orders, err := s.orderRepo.ListOrdersByUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("order repository list orders by user: %w", err)
	}

	return orders, nil
}

func (s *orderService) ListOrdersByArtisan(ctx context.Context, principal auth.Principal, query ArtisanOrderQuery) (ArtisanOrderPage, error) {
	artisanID, err := resolveArtisanScope(principal, query.ArtisanID)
	if err != nil {
		return ArtisanOrderPage{}, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := repository.ArtisanOrdersParams{
		ArtisanID: artisanID,
		Start:     query.Start,
		End:       query.End,
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}

	summaries, err := s.orderRepo.ListArtisanOrders(ctx, params)
	if err != nil {
		return ArtisanOrderPage{}, fmt.Errorf("order repository list artisan orders: %w", err)
	}

	total, err := s.orderRepo.CountArtisanOrders(ctx, params)
	if err != nil {
		return ArtisanOrderPage{}, fmt.Errorf("order repository count artisan orders: %w", err)
	}

	views := make([]ArtisanOrderView, len(summaries))
	for i, summary := range summaries {
		views[i] = ArtisanOrderView{
			ID:                  summary.ID,
			Total:               summary.Total,
			TotalForThisArtisan: summary.TotalForArtisan,
			Status:              summary.Status,
			CreatedAt:           summary.CreatedAt,
			UpdatedAt:           summary.UpdatedAt,
		}
	}

	return ArtisanOrderPage{
		Items:      views,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func (s *orderService) GetOrderDetailForArtisan(ctx context.Context, principal auth.Principal, orderID uuid.UUID, artisanIDOverride *uuid.UUID) (ArtisanOrderView, error) {
	artisanID, err := resolveArtisanScope(principal, artisanIDOverride)
	if err != nil {
		return ArtisanOrderView{}, err
	}

	order, err := s.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ArtisanOrderView{}, apperr.OrderNotFoundErr
		}
		return ArtisanOrderView{}, fmt.Errorf("order repository get order: %w", err)
	}

	items, err := s.orderRepo.ListOrderItemsForArtisan(ctx, orderID, artisanID)
	if err != nil {
		return ArtisanOrderView{}, fmt.Errorf("order repository list order items for artisan: %w", err)
	}

	// An order with none of this artisan's items is invisible to them.
	if len(items) == 0 {
		return ArtisanOrderView{}, apperr.OrderNotFoundErr
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}

	return ArtisanOrderView{
		ID:                  order.ID,
		Total:               order.Total,
		TotalForThisArtisan: subtotal,
		Status:              order.Status,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
		Items:               items,
	}, nil
}

func (s *orderService) RenderInvoice(ctx context.Context, principal auth.Principal, orderID uuid.UUID) ([]byte, error) {
	order, err := s.GetOrderByID(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}

	buyer, err := s.userRepo.GetUserByID(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("user repository get user: %w", err)
	}

	document, err := s.invoices.Render(order, buyer)
	if err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}

	return document, nil
}

// resolveArtisanScope returns the artisan id a query is scoped to. A nil
// override means self; overriding to another artisan requires admin.
func resolveArtisanScope(principal auth.Principal, override *uuid.UUID) (uuid.UUID, error) {
	if override == nil {
		return principal.UserID, nil
	}
	if !auth.CanFilterByArtisan(principal, *override) {
		return uuid.Nil, apperr.ArtisanScopeForbiddenErr
	}
	return *override, nil
}
