// Package invoice renders order invoices as in-memory PDF documents.
package invoice

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"shopgate/internal/model"
)

// CurrencySymbol prefixes every rendered amount.
const CurrencySymbol = "₹"

// Page geometry in points (A4 is 595x842).
const (
	marginLeft  = 50.0
	tableRight  = 550.0
	colQtyX     = 280.0
	colPriceX   = 370.0
	colTotalX   = 460.0
	colWidth    = 90.0
	rowStep     = 18.0
	pageBottom  = 780.0
	totalsBlock = 80.0
)

// FormatAmount renders a currency value to two decimals with the fixed
// currency glyph, exactly as it appears in the document.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%s%.2f", CurrencySymbol, v)
}

// Render produces the invoice PDF for an order. Rows that would cross the
// bottom margin start a new page with the table header repeated.
func Render(order model.Order) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(marginLeft, 50)
	pdf.CellFormat(tableRight-marginLeft, 24, "INVOICE", "", 1, "C", false, 0, "")

	// Order metadata
	pdf.SetFont("Helvetica", "", 12)
	y := 90.0
	meta := []string{
		fmt.Sprintf("Order ID: %s", order.ID),
		fmt.Sprintf("Order Date: %s", order.CreatedAt.Format("02/01/2006")),
		fmt.Sprintf("Customer: %s", order.Address.FullName),
		fmt.Sprintf("Shipping to: %s, %s, %s", order.Address.Address, order.Address.City, order.Address.Zip),
	}
	for _, line := range meta {
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(tableRight-marginLeft, 14, tr(line), "", 0, "L", false, 0, "")
		y += rowStep
	}
	y += rowStep

	y = tableHeader(pdf, y)

	// Item rows
	for _, item := range order.Items {
		if y+rowStep > pageBottom {
			pdf.AddPage()
			y = tableHeader(pdf, 60)
		}
		rowTotal := item.Sale * float64(item.Quantity)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(colQtyX-marginLeft, 14, tr(item.Name), "", 0, "L", false, 0, "")
		pdf.SetXY(colQtyX, y)
		pdf.CellFormat(colWidth, 14, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.SetXY(colPriceX, y)
		pdf.CellFormat(colWidth, 14, tr(FormatAmount(item.Sale)), "", 0, "R", false, 0, "")
		pdf.SetXY(colTotalX, y)
		pdf.CellFormat(colWidth, 14, tr(FormatAmount(rowTotal)), "", 0, "R", false, 0, "")
		y += rowStep
	}

	// Totals block, kept on one page
	if y+totalsBlock > pageBottom {
		pdf.AddPage()
		y = 60
	}
	pdf.Line(colPriceX, y+5, tableRight, y+5)
	y += rowStep
	pdf.SetFont("Helvetica", "B", 12)
	for _, line := range []string{
		fmt.Sprintf("Subtotal: %s", FormatAmount(order.Subtotal)),
		fmt.Sprintf("Shipping: %s", FormatAmount(order.ShippingCost)),
		fmt.Sprintf("Total: %s", FormatAmount(order.Total)),
	} {
		pdf.SetXY(colPriceX, y)
		pdf.CellFormat(tableRight-colPriceX, 14, tr(line), "", 0, "R", false, 0, "")
		y += rowStep
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "invoice: render")
	}
	return buf.Bytes(), nil
}

// tableHeader draws the ruled four-column header and returns the y of the
// first row under it.
func tableHeader(pdf *fpdf.Fpdf, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(colQtyX-marginLeft, 14, "Item", "", 0, "L", false, 0, "")
	pdf.SetXY(colQtyX, y)
	pdf.CellFormat(colWidth, 14, "Qty", "", 0, "R", false, 0, "")
	pdf.SetXY(colPriceX, y)
	pdf.CellFormat(colWidth, 14, "Price", "", 0, "R", false, 0, "")
	pdf.SetXY(colTotalX, y)
	pdf.CellFormat(colWidth, 14, "Total", "", 0, "R", false, 0, "")
	pdf.Line(marginLeft, y+19, tableRight, y+19)
	pdf.SetFont("Helvetica", "", 12)
	return y + 28
}
