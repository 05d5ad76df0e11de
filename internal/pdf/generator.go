// Package pdf renders participant receipts as a printable document,
// one page per participant.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

type Generator struct {
	fontName string
}

// NewGenerator uses the built-in Helvetica core font, so receipts are
// limited to the latin character set.
func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(receipts []model.Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)

	if len(receipts) == 0 {
		pdf.AddPage()
		pdf.SetFont(g.fontName, "B", 14)
		pdf.CellFormat(0, 10, "Receipts", "", 1, "C", false, 0, "")
		pdf.SetFont(g.fontName, "", 11)
		pdf.CellFormat(0, 8, "No completed rounds yet.", "", 1, "L", false, 0, "")
	}

	for _, receipt := range receipts {
		g.writeReceipt(pdf, receipt)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeReceipt(pdf *gofpdf.Fpdf, receipt model.Receipt) {
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Receipt", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	name := receipt.Username
	if name == "" {
		name = fmt.Sprintf("user %d", receipt.UserID)
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Participant: %s (%d)", name, receipt.UserID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued: %s", time.Now().Format("2006-01-02")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	headers := []string{"Breakdown", "Item", "Price"}
	colWidths := []float64{70, 70, 40}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, order := range receipt.Orders {
		for i, line := range order.Items {
			breakdown := ""
			if i == 0 {
				breakdown = order.BreakdownName
			}
			row := []string{breakdown, line.Name, formatAmount(line.Price)}
			drawTableRow(pdf, g.fontName, row, colWidths, false)
		}
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total: %s", formatAmount(receipt.Total)), "", 1, "R", false, 0, "")
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 7, col, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
