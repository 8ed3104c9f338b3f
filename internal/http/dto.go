package http

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/repository"
	"github.com/craftedby/marketplace/internal/service"
)

// money renders a decimal amount as a quoted fixed two-decimal string, so
// responses carry "100.00" rather than the decimal's stored exponent.
type money struct {
	decimal.Decimal
}

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.StringFixed(2))), nil
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=buyer artisan"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func newUserResponse(user model.User) userResponse {
	return userResponse{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

type productRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Category    string          `json:"category" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsAvailable *bool           `json:"isAvailable"`
	ImageURL    string          `json:"imageUrl"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       money     `json:"price"`
	Stock       int       `json:"stock"`
	IsAvailable bool      `json:"isAvailable"`
	ImageURL    string    `json:"imageUrl"`
	ArtisanID   string    `json:"artisanId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newProductResponse(product model.Product) productResponse {
	return productResponse{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Category:    product.Category,
		Price:       money{product.Price},
		Stock:       product.Stock,
		IsAvailable: product.IsAvailable,
		ImageURL:    product.ImageURL,
		ArtisanID:   product.ArtisanID.String(),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func newProductResponses(products []model.Product) []productResponse {
	responses := make([]productResponse, len(products))
	for i, product := range products {
		responses[i] = newProductResponse(product)
	}
	return responses
}

type placeOrderRequest struct {
	Items []placeOrderItem `json:"items"`
}

type placeOrderItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type placeOrderResponse struct {
	OrderID string `json:"orderId"`
	Total   money  `json:"total"`
	Status  string `json:"status"`
}

type orderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     money  `json:"price"`
	Qty       int    `json:"qty"`
	LineTotal money  `json:"lineTotal"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Total     money               `json:"total"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Items     []orderItemResponse `json:"items"`
}

func newOrderItemResponses(items []model.OrderItem) []orderItemResponse {
	responses := make([]orderItemResponse, len(items))
	for i, item := range items {
		responses[i] = orderItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Price:     money{item.Price},
			Qty:       item.Qty,
			LineTotal: money{item.LineTotal},
		}
	}
	return responses
}

func newOrderResponse(order model.Order) orderResponse {
	return orderResponse{
		ID:        order.ID.String(),
		Total:     money{order.Total},
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
		Items:     newOrderItemResponses(order.Items),
	}
}

type artisanOrderResponse struct {
	ID                  string              `json:"id"`
	Total               money               `json:"total"`
	TotalForThisArtisan money               `json:"totalForThisArtisan"`
	Status              string              `json:"status"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
	Items               []orderItemResponse `json:"items,omitempty"`
}

func newArtisanOrderResponse(view service.ArtisanOrderView) artisanOrderResponse {
	res := artisanOrderResponse{
		ID:                  view.ID.String(),
		Total:               money{view.Total},
		TotalForThisArtisan: money{view.TotalForThisArtisan},
		Status:              string(view.Status),
		CreatedAt:           view.CreatedAt,
		UpdatedAt:           view.UpdatedAt,
	}
	if len(view.Items) > 0 {
		res.Items = newOrderItemResponses(view.Items)
	}
	return res
}

type artisanOrderPageResponse struct {
	Items      []artisanOrderResponse `json:"items"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
}

type overviewResponse struct {
	RevenueTotal  money     `json:"revenueTotal"`
	OrdersCount   int       `json:"ordersCount"`
	UnitsSold     int       `json:"unitsSold"`
	AvgOrderValue money     `json:"avgOrderValue"`
	DateRange     dateRange `json:"dateRange"`
}

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type lowStockResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

func newLowStockResponses(products []repository.LowStockProduct) []lowStockResponse {
	responses := make([]lowStockResponse, len(products))
	for i, product := range products {
		responses[i] = lowStockResponse{
			ID:    product.ID.String(),
			Name:  product.Name,
			Stock: product.Stock,
		}
	}
	return responses
}

type dailySalesResponse struct {
	Date    string `json:"date"`
	Revenue money  `json:"revenue"`
	Orders  int    `json:"orders"`
	Units   int    `json:"units"`
}
