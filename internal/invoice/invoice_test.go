package invoice_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedby/marketplace/internal/invoice"
	"github.com/craftedby/marketplace/internal/model"
)

func TestRender(t *testing.T) {
	renderer := invoice.NewPDFRenderer()
	buyer := model.User{
		ID:    uuid.New(),
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Role:  model.RoleBuyer,
	}
	order := model.Order{
		ID:        uuid.New(),
		UserID:    buyer.ID,
		Total:     decimal.RequireFromString("84.98"),
		Status:    model.OrderStatusPlaced,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Items: []model.OrderItem{
			{Name: "Ceramic Mug", Price: decimal.RequireFromString("19.99"), Qty: 2, LineTotal: decimal.RequireFromString("39.98")},
			{Name: "Wool Scarf", Price: decimal.RequireFromString("45.00"), Qty: 1, LineTotal: decimal.RequireFromString("45.00")},
		},
	}

	t.Run("Should produce a non-empty PDF document", func(t *testing.T) {
		document, err := renderer.Render(order, buyer)
		require.NoError(t, err)

		require.NotEmpty(t, document)
		assert.Equal(t, "%PDF", string(document[:4]))
	})

	t.Run("Should render an order without items", func(t *testing.T) {
		empty := model.Order{
			ID:        uuid.New(),
			Total:     decimal.Zero,
			Status:    model.OrderStatusPlaced,
			CreatedAt: time.Now(),
		}

		document, err := renderer.Render(empty, buyer)
		require.NoError(t, err)
		assert.NotEmpty(t, document)
	})
}
