package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle status of an order. Orders are created as
// PLACED; later transitions happen outside the order core.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Validate() error {
	switch s {
	case OrderStatusPlaced, OrderStatusPaid, OrderStatusCancelled:
		return nil
	default:
		return fmt.Errorf("unknown order status: %s", s)
	}
}

type Order struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	Items     []OrderItem     `json:"items,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderItem is one line of an order. Name and Price are snapshots of the
// product at purchase time; later product edits never change them.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
	Position  int             `json:"-"`
}
