package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedby/marketplace/internal/apperr"
	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/invoice"
	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/repository"
	"github.com/craftedby/marketplace/internal/service"
	"github.com/craftedby/marketplace/internal/storage/db"
	"github.com/craftedby/marketplace/pkg/zerror"
)

// fakeDB runs the transaction function against itself. The repositories used
// in tests are in-memory, so no query ever reaches the embedded interface.
type fakeDB struct {
	db.DB
}

func (f *fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	return txFunc(f)
}

type fakeProductRepo struct {
	products map[uuid.UUID]model.Product
	// lockErr, when set, is returned from ListForUpdate to simulate a
	// storage failure inside the transaction.
	lockErr error
}

func newFakeProductRepo(products ...model.Product) *fakeProductRepo {
	m := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeProductRepo{products: m}
}

func (r *fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *fakeProductRepo) CreateProduct(_ context.Context, p model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, p model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) ListProducts(context.Context) ([]model.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) SearchProducts(context.Context, repository.SearchProductsParams) ([]model.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) ListProductsByArtisan(context.Context, uuid.UUID) ([]model.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) ListForUpdate(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if r.lockErr != nil {
		return nil, r.lockErr
	}
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok && p.IsAvailable {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) UpdateStocks(_ context.Context, updates []repository.StockUpdate) error {
	for _, u := range updates {
		p := r.products[u.ProductID]
		p.Stock = u.Stock
		r.products[u.ProductID] = p
	}
	return nil
}

type fakeOrderRepo struct {
	orders         map[uuid.UUID]model.Order
	artisanOrders  []repository.ArtisanOrderSummary
	artisanCount   int
	artisanItems   []model.OrderItem
	createOrderErr error
	lastListParams repository.ArtisanOrdersParams
}

func newFakeOrderRepo(orders ...model.Order) *fakeOrderRepo {
	m := make(map[uuid.UUID]model.Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeOrderRepo{orders: m}
}

func (r *fakeOrderRepo) WithDB(db.DB) repository.OrderRepository { return r }

func (r *fakeOrderRepo) CreateOrder(_ context.Context, order model.Order) error {
	if r.createOrderErr != nil {
		return r.createOrderErr
	}
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) GetOrder(_ context.Context, id uuid.UUID) (model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) ListOrdersByUser(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListArtisanOrders(_ context.Context, params repository.ArtisanOrdersParams) ([]repository.ArtisanOrderSummary, error) {
	r.lastListParams = params
	return r.artisanOrders, nil
}

func (r *fakeOrderRepo) CountArtisanOrders(context.Context, repository.ArtisanOrdersParams) (int, error) {
	return r.artisanCount, nil
}

func (r *fakeOrderRepo) ListOrderItemsForArtisan(context.Context, uuid.UUID, uuid.UUID) ([]model.OrderItem, error) {
	return r.artisanItems, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	m := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (r *fakeUserRepo) WithDB(db.DB) repository.UserRepository { return r }

func (r *fakeUserRepo) CreateUser(_ context.Context, u model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type fakeOutboxRepo struct {
	created []repository.CreateOutboxMsgParams
}

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.created = append(r.created, params)
	return nil
}

func (r *fakeOutboxRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newTestProduct(t *testing.T, name, price string, stock int, artisanID uuid.UUID) model.Product {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return model.Product{
		ID:          id,
		Name:        name,
		Price:       mustDecimal(t, price),
		Stock:       stock,
		IsAvailable: true,
		ArtisanID:   artisanID,
	}
}

type orderTestEnv struct {
	svc         service.OrderService
	productRepo *fakeProductRepo
	orderRepo   *fakeOrderRepo
	userRepo    *fakeUserRepo
	outboxRepo  *fakeOutboxRepo
}

func newOrderTestEnv(productRepo *fakeProductRepo, orderRepo *fakeOrderRepo, userRepo *fakeUserRepo) orderTestEnv {
	outboxRepo := &fakeOutboxRepo{}
	return orderTestEnv{
		svc:         service.NewOrderService(&fakeDB{}, productRepo, orderRepo, userRepo, outboxRepo, invoice.NewPDFRenderer()),
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		outboxRepo:  outboxRepo,
	}
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	buyer := auth.Principal{UserID: uuid.New(), Role: model.RoleBuyer}
	artisanID := uuid.New()

	t.Run("Should place order, decrement stock and write outbox message", func(t *testing.T) {
		mug := newTestProduct(t, "Ceramic Mug", "19.99", 5, artisanID)
		scarf := newTestProduct(t, "Wool Scarf", "45.00", 2, artisanID)
		env := newOrderTestEnv(newFakeProductRepo(mug, scarf), newFakeOrderRepo(), newFakeUserRepo())

		placed, err := env.svc.PlaceOrder(ctx, buyer, []service.OrderLine{
			{ProductID: mug.ID, Qty: 2},
			{ProductID: scarf.ID, Qty: 1},
		})
		require.NoError(t, err)

		assert.Equal(t, model.OrderStatusPlaced, placed.Status)
		assert.True(t, placed.Total.Equal(mustDecimal(t, "84.98")),
			"expected 84.98, got %s", placed.Total)

		order, ok := env.orderRepo.orders[placed.OrderID]
		require.True(t, ok)
		assert.Equal(t, buyer.UserID, order.UserID)
		require.Len(t, order.Items, 2)
		assert.Equal(t, "Ceramic Mug", order.Items[0].Name)
		assert.True(t, order.Items[0].LineTotal.Equal(mustDecimal(t, "39.98")))
		assert.Equal(t, 3, env.productRepo.products[mug.ID].Stock)
		assert.Equal(t, 1, env.productRepo.products[scarf.ID].Stock)

		require.Len(t, env.outboxRepo.created, 1)
		assert.Equal(t, "order.placed", env.outboxRepo.created[0].Topic)
		require.NotNil(t, env.outboxRepo.created[0].PartitionKey)
		assert.Equal(t, placed.OrderID.String(), *env.outboxRepo.created[0].PartitionKey)
	})

	t.Run("Should merge duplicate product lines", func(t *testing.T) {
		mug := newTestProduct(t, "Ceramic Mug", "10.00", 5, artisanID)
		env := newOrderTestEnv(newFakeProductRepo(mug), newFakeOrderRepo(), newFakeUserRepo())

		placed, err := env.svc.PlaceOrder(ctx, buyer, []service.OrderLine{
			{ProductID: mug.ID, Qty: 1},
			{ProductID: mug.ID, Qty: 2},
		})
		require.NoError(t, err)

		order := env.orderRepo.orders[placed.OrderID]
		require.Len(t, order.Items, 1)
		assert.Equal(t, 3, order.Items[0].Qty)
		assert.True(t, placed.Total.Equal(mustDecimal(t, "30.00")))
		assert.Equal(t, 2, env.productRepo.products[mug.ID].Stock)
	})

	t.Run("Should reject an empty item list", func(t *testing.T) {
		env := newOrderTestEnv(newFakeProductRepo(), newFakeOrderRepo(), newFakeUserRepo())

		_, err := env.svc.PlaceOrder(ctx, buyer, nil)

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.InvalidOrderRequestCode, zErr.Code())
	})

	t.Run("Should reject non-positive quantity", func(t *testing.T) {
		mug := newTestProduct(t, "Ceramic Mug", "10.00", 5, artisanID)
		env := newOrderTestEnv(newFakeProductRepo(mug), newFakeOrderRepo(), newFakeUserRepo())

		_, err := env.svc.PlaceOrder(ctx, buyer, []service.OrderLine{{ProductID: mug.ID, Qty: 0}})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.InvalidOrderRequestCode, zErr.Code())
	})

	t.Run("Should fail when a product is missing or unavailable", func(t *testing.T) {
		mug := newTestProduct(t, "Ceramic Mug", "10.00", 5, artisanID)
		hidden := newTestProduct(t, "Hidden Vase", "30.00", 5, artisanID)
		hidden.IsAvailable = false
		env := newOrderTestEnv(newFakeProductRepo(mug, hidden), newFakeOrderRepo(), newFakeUserRepo())

		_, err := env.svc.PlaceOrder(ctx, buyer, []service.OrderLine{
			{ProductID: mug.ID, Qty: 1},
			{ProductID: hidden.ID, Qty: 1},
		})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.ProductsUnavailableCode, zErr.Code())

		assert.Empty(t, env.orderRepo.orders)
		assert.Empty(t, env.outboxRepo.created)
		assert.Equal(t, 5, env.productRepo.products[mug.ID].Stock)
	})

	t.Run("Should fail on insufficient stock and leave stock untouched", func(t *testing.T) {
		mug := newTestProduct(t, "Ceramic Mug", "10.00", 2, artisanID)
		env := newOrderTestEnv(newFakeProductRepo(mug), newFakeOrderRepo(), newFakeUserRepo())

		_, err := env.svc.PlaceOrder(ctx, buyer, []service.OrderLine{{ProductID: mug.ID, Qty: 3}})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.InsufficientStockCode, zErr.Code())
		assert.Contains(t, zErr.Msg(), "Ceramic Mug")

		assert.Empty(t, env.orderRepo.orders)
		assert.Equal(t, 2, env.productRepo.products[mug.ID].Stock)
	})

	t.Run("Should treat merged duplicates as one stock check", func(t *testing.T) {
		mug := newTestProduct(t, "Ceramic Mug", "10.00", 2, artisanID)
		env := newOrderTestEnv(newFakeProductRepo(mug), newFakeOrderRepo(), newFakeUserRepo())

		_, err := env.svc.PlaceOrder(ctx, buyer, []service.OrderLine{
			{ProductID: mug.ID, Qty: 2},
			{ProductID: mug.ID, Qty: 1},
		})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.InsufficientStockCode, zErr.Code())
	})

	t.Run("Should let only one of two competing orders through when stock covers one", func(t *testing.T) {
		mug := newTestProduct(t, "Ceramic Mug", "10.00", 5, artisanID)
		env := newOrderTestEnv(newFakeProductRepo(mug), newFakeOrderRepo(), newFakeUserRepo())
		other := auth.Principal{UserID: uuid.New(), Role: model.RoleBuyer}

		first, err := env.svc.PlaceOrder(ctx, buyer, []service.OrderLine{{ProductID: mug.ID, Qty: 3}})
		require.NoError(t, err)

		_, err = env.svc.PlaceOrder(ctx, other, []service.OrderLine{{ProductID: mug.ID, Qty: 3}})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.InsufficientStockCode, zErr.Code())

		require.Len(t, env.orderRepo.orders, 1)
		_, ok := env.orderRepo.orders[first.OrderID]
		assert.True(t, ok)
		assert.Equal(t, 2, env.productRepo.products[mug.ID].Stock)
	})

	t.Run("Should report storage failures as transient", func(t *testing.T) {
		mug := newTestProduct(t, "Ceramic Mug", "10.00", 5, artisanID)
		productRepo := newFakeProductRepo(mug)
		productRepo.lockErr = errors.New("connection reset")
		env := newOrderTestEnv(productRepo, newFakeOrderRepo(), newFakeUserRepo())

		_, err := env.svc.PlaceOrder(ctx, buyer, []service.OrderLine{{ProductID: mug.ID, Qty: 1}})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.TransientStoreFailureCode, zErr.Code())
		assert.Equal(t, zerror.StatusServiceUnavailable, zErr.Status())
	})
}

func TestGetOrderByID(t *testing.T) {
	ctx := context.Background()
	owner := auth.Principal{UserID: uuid.New(), Role: model.RoleBuyer}
	order := model.Order{ID: uuid.New(), UserID: owner.UserID, Status: model.OrderStatusPlaced}

	t.Run("Should return the order to its owner", func(t *testing.T) {
		env := newOrderTestEnv(newFakeProductRepo(), newFakeOrderRepo(order), newFakeUserRepo())

		got, err := env.svc.GetOrderByID(ctx, owner, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("Should return the order to an admin", func(t *testing.T) {
		env := newOrderTestEnv(newFakeProductRepo(), newFakeOrderRepo(order), newFakeUserRepo())
		admin := auth.Principal{UserID: uuid.New(), Role: model.RoleAdmin}

		_, err := env.svc.GetOrderByID(ctx, admin, order.ID)
		require.NoError(t, err)
	})

	t.Run("Should deny access to another buyer", func(t *testing.T) {
		env := newOrderTestEnv(newFakeProductRepo(), newFakeOrderRepo(order), newFakeUserRepo())
		stranger := auth.Principal{UserID: uuid.New(), Role: model.RoleBuyer}

		_, err := env.svc.GetOrderByID(ctx, stranger, order.ID)

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.OrderAccessDeniedCode, zErr.Code())
	})

	t.Run("Should report unknown orders as not found", func(t *testing.T) {
		env := newOrderTestEnv(newFakeProductRepo(), newFakeOrderRepo(), newFakeUserRepo())

		_, err := env.svc.GetOrderByID(ctx, owner, uuid.New())

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.OrderNotFoundCode, zErr.Code())
	})
}

func TestListOrdersByArtisan(t *testing.T) {
	ctx := context.Background()
	artisan := auth.Principal{UserID: uuid.New(), Role: model.RoleArtisan}

	t.Run("Should default and clamp pagination", func(t *testing.T) {
		orderRepo := newFakeOrderRepo()
		orderRepo.artisanCount = 45
		env := newOrderTestEnv(newFakeProductRepo(), orderRepo, newFakeUserRepo())

		page, err := env.svc.ListOrdersByArtisan(ctx, artisan, service.ArtisanOrderQuery{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, artisan.UserID, orderRepo.lastListParams.ArtisanID)

		page, err = env.svc.ListOrdersByArtisan(ctx, artisan, service.ArtisanOrderQuery{Page: 2, PageSize: 500})
		require.NoError(t, err)
		assert.Equal(t, 100, page.PageSize)
		assert.Equal(t, 100, orderRepo.lastListParams.Offset)
	})

	t.Run("Should forbid scoping to another artisan for non-admins", func(t *testing.T) {
		env := newOrderTestEnv(newFakeProductRepo(), newFakeOrderRepo(), newFakeUserRepo())
		other := uuid.New()

		_, err := env.svc.ListOrdersByArtisan(ctx, artisan, service.ArtisanOrderQuery{ArtisanID: &other})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.ArtisanScopeForbiddenCode, zErr.Code())
	})

	t.Run("Should let admins scope to any artisan", func(t *testing.T) {
		orderRepo := newFakeOrderRepo()
		env := newOrderTestEnv(newFakeProductRepo(), orderRepo, newFakeUserRepo())
		admin := auth.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
		target := uuid.New()

		_, err := env.svc.ListOrdersByArtisan(ctx, admin, service.ArtisanOrderQuery{ArtisanID: &target})
		require.NoError(t, err)
		assert.Equal(t, target, orderRepo.lastListParams.ArtisanID)
	})
}

func TestGetOrderDetailForArtisan(t *testing.T) {
	ctx := context.Background()
	artisan := auth.Principal{UserID: uuid.New(), Role: model.RoleArtisan}
	order := model.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Total:  decimal.RequireFromString("80.00"),
		Status: model.OrderStatusPlaced,
	}

	t.Run("Should narrow the order to the artisan's items", func(t *testing.T) {
		orderRepo := newFakeOrderRepo(order)
		orderRepo.artisanItems = []model.OrderItem{
			{OrderID: order.ID, Name: "Ceramic Mug", LineTotal: decimal.RequireFromString("20.00")},
			{OrderID: order.ID, Name: "Wool Scarf", LineTotal: decimal.RequireFromString("45.00")},
		}
		env := newOrderTestEnv(newFakeProductRepo(), orderRepo, newFakeUserRepo())

		view, err := env.svc.GetOrderDetailForArtisan(ctx, artisan, order.ID, nil)
		require.NoError(t, err)
		assert.True(t, view.TotalForThisArtisan.Equal(decimal.RequireFromString("65.00")))
		assert.True(t, view.Total.Equal(order.Total))
		assert.Len(t, view.Items, 2)
	})

	t.Run("Should hide orders with none of the artisan's items", func(t *testing.T) {
		env := newOrderTestEnv(newFakeProductRepo(), newFakeOrderRepo(order), newFakeUserRepo())

		_, err := env.svc.GetOrderDetailForArtisan(ctx, artisan, order.ID, nil)

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.OrderNotFoundCode, zErr.Code())
	})
}

func TestRenderInvoice(t *testing.T) {
	ctx := context.Background()
	buyer := model.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: model.RoleBuyer}
	principal := auth.Principal{UserID: buyer.ID, Role: model.RoleBuyer}
	order := model.Order{
		ID:     uuid.New(),
		UserID: buyer.ID,
		Total:  decimal.RequireFromString("39.98"),
		Status: model.OrderStatusPlaced,
		Items: []model.OrderItem{
			{Name: "Ceramic Mug", Price: decimal.RequireFromString("19.99"), Qty: 2, LineTotal: decimal.RequireFromString("39.98")},
		},
	}

	t.Run("Should render a PDF document for the owner", func(t *testing.T) {
		env := newOrderTestEnv(newFakeProductRepo(), newFakeOrderRepo(order), newFakeUserRepo(buyer))

		document, err := env.svc.RenderInvoice(ctx, principal, order.ID)
		require.NoError(t, err)
		require.NotEmpty(t, document)
		assert.True(t, len(document) > 4 && string(document[:4]) == "%PDF")
	})

	t.Run("Should deny invoices for other buyers' orders", func(t *testing.T) {
		env := newOrderTestEnv(newFakeProductRepo(), newFakeOrderRepo(order), newFakeUserRepo(buyer))
		stranger := auth.Principal{UserID: uuid.New(), Role: model.RoleBuyer}

		_, err := env.svc.RenderInvoice(ctx, stranger, order.ID)

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.OrderAccessDeniedCode, zErr.Code())
	})
}
