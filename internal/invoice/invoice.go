// Package invoice renders a placed order into a PDF document. It is a pure
// formatter: the order passed in must already carry its items and
// authoritative total.
package invoice

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/craftedby/marketplace/internal/model"
)

const sellerName = "Handcrafted Marketplace"

// Renderer produces invoice documents for orders.
type Renderer interface {
	Render(order model.Order, buyer model.User) ([]byte, error)
}

type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (PDFRenderer) Render(order model.Order, buyer model.User) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(18, 18, 18)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 22)
	doc.Cell(0, 10, sellerName)
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(55, 65, 81)
	doc.Cell(0, 6, fmt.Sprintf("Invoice No: INV-%s", order.ID))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Date: %s", order.CreatedAt.Format("2006-01-02")))
	doc.Ln(10)
	doc.SetTextColor(0, 0, 0)

	doc.SetFont("Helvetica", "B", 11)
	doc.Cell(0, 6, "Seller")
	doc.Ln(6)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, sellerName)
	doc.Ln(9)

	doc.SetFont("Helvetica", "B", 11)
	doc.Cell(0, 6, "Buyer")
	doc.Ln(6)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, buyer.Name)
	doc.Ln(6)
	doc.Cell(0, 6, buyer.Email)
	doc.Ln(12)

	colWidths := []float64{10, 84, 28, 20, 32}
	headers := []string{"#", "Item", "Price", "Qty", "Line Total"}

	doc.SetFont("Helvetica", "B", 11)
	for i, header := range headers {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		doc.CellFormat(colWidths[i], 7, header, "B", 0, align, false, 0, "")
	}
	doc.Ln(8)

	doc.SetFont("Helvetica", "", 11)
	for i, item := range order.Items {
		doc.CellFormat(colWidths[0], 6, fmt.Sprintf("%d", i+1), "", 0, "L", false, 0, "")
		doc.CellFormat(colWidths[1], 6, item.Name, "", 0, "L", false, 0, "")
		doc.CellFormat(colWidths[2], 6, formatCurrency(item.Price), "", 0, "R", false, 0, "")
		doc.CellFormat(colWidths[3], 6, fmt.Sprintf("%d", item.Qty), "", 0, "R", false, 0, "")
		doc.CellFormat(colWidths[4], 6, formatCurrency(item.LineTotal), "", 0, "R", false, 0, "")
		doc.Ln(6)
	}
	doc.Ln(6)

	doc.CellFormat(0, 6, fmt.Sprintf("Subtotal: %s", formatCurrency(order.Total)), "", 1, "R", false, 0, "")
	doc.CellFormat(0, 6, "Tax: $0.00", "", 1, "R", false, 0, "")
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 6, fmt.Sprintf("Grand Total: %s", formatCurrency(order.Total)), "", 1, "R", false, 0, "")

	doc.Ln(12)
	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 5, "Thank you for your purchase.")
	doc.Ln(5)
	doc.Cell(0, 5, fmt.Sprintf("Order reference: %s", order.ID))

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("output pdf: %w", err)
	}

	return buf.Bytes(), nil
}

func formatCurrency(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
