package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/pricing"
)

const fontName = "Helvetica"

// Generator renders the freight closure statement. Core fonts are used with a
// cp1252 translator, which covers every pt-BR glyph the dictionary emits.
type Generator struct {
	loc    *i18n.Guard
	prices *pricing.Guard
}

func NewGenerator(loc *i18n.Guard, prices *pricing.Guard) *Generator {
	return &Generator{loc: loc, prices: prices}
}

func (g *Generator) Generate(doc model.FreightStatement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	freight := doc.Freight
	assignments := visibleAssignments(doc)

	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 10, tr("Comprovante de encerramento de frete"), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Frete %s | emitido em %s", freight.ID, formatDate(doc.GeneratedAt))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, tr("Dados do frete"))
	lines := []string{
		fmt.Sprintf("Status: %s", g.loc.LabelForStatus(string(freight.Status))),
		fmt.Sprintf("Carga: %s", g.safeValue(freight.Cargo)),
		fmt.Sprintf("Origem: %s", g.safeValue(freight.Origin)),
		fmt.Sprintf("Destino: %s", g.safeValue(freight.Destination)),
		fmt.Sprintf("Carretas: %d", max(freight.RequiredUnits, 1)),
		fmt.Sprintf("Valor: %s", g.priceLabel(doc, assignments)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(2)

	if len(assignments) > 0 {
		section(pdf, tr("Carretas"))
		headers := []string{"Motorista", "Status", "Valor por carreta", "Pagamento"}
		widths := []float64{70, 40, 35, 35}
		drawTableRow(pdf, tr, headers, widths, true)
		for _, a := range assignments {
			payment := g.loc.Message(i18n.MsgNotInformed)
			if a.PaymentStatus != nil {
				payment = g.loc.LabelForStatus(string(*a.PaymentStatus))
			}
			row := []string{
				a.DriverID.String(),
				g.loc.LabelForStatus(string(a.Status)),
				g.loc.FormatMoney(a.AgreedUnitPrice),
				payment,
			}
			drawTableRow(pdf, tr, row, widths, false)
		}
		pdf.Ln(2)
	}

	section(pdf, tr("Pagamento"))
	pdf.SetFont(fontName, "", 10)
	if doc.Payment == nil {
		pdf.MultiCell(0, 5, tr(g.loc.Message(i18n.MsgPaymentMissing)), "", "L", false)
	} else {
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("Situação: %s", g.loc.LabelForStatus(string(doc.Payment.Status)))), "", "L", false)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("Valor: %s", g.loc.FormatMoney(doc.Payment.Amount))), "", "L", false)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("Registrado em: %s", formatDate(doc.Payment.CreatedAt))), "", "L", false)
	}
	pdf.Ln(2)

	section(pdf, tr("Avaliações"))
	pdf.SetFont(fontName, "", 10)
	if len(doc.Ratings) == 0 {
		pdf.MultiCell(0, 5, tr("Nenhuma avaliação registrada."), "", "L", false)
	}
	for _, rating := range doc.Ratings {
		line := fmt.Sprintf("%d/5 em %s", rating.Score, formatDate(rating.CreatedAt))
		if comment := strings.TrimSpace(rating.Comment); comment != "" {
			line += ": " + comment
		}
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}

	pdf.Ln(6)
	section(pdf, tr("Assinaturas"))
	signatureBlock(pdf, tr, g.loc.LabelForRole(string(model.RoleProducer)))
	signatureBlock(pdf, tr, g.loc.LabelForRole(string(model.RoleDriver)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// priceLabel goes through the price guard so a driver never sees the
// contract total on a multi-unit freight.
func (g *Generator) priceLabel(doc model.FreightStatement, visible []model.Assignment) string {
	var agreed *decimal.Decimal
	if doc.Viewer.IsDriver() && len(visible) == 1 {
		price := visible[0].AgreedUnitPrice
		agreed = &price
	}
	return g.prices.PresentPrice(pricing.PresentInput{
		TotalPrice:      doc.Freight.TotalPrice,
		RequiredUnits:   doc.Freight.RequiredUnits,
		AgreedUnitPrice: agreed,
		ViewerRole:      doc.Viewer.Role,
	}).Label
}

func (g *Generator) safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return g.loc.Message(i18n.MsgNotInformed)
	}
	return value
}

// visibleAssignments hides other drivers' loads from a driver.
func visibleAssignments(doc model.FreightStatement) []model.Assignment {
	if !doc.Viewer.IsDriver() {
		return doc.Assignments
	}
	var own []model.Assignment
	for _, a := range doc.Assignments {
		if a.DriverID == doc.Viewer.UserID {
			own = append(own, a)
		}
	}
	return own
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i == 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, tr func(string) string, label string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s: ______________________________", label)), "", 1, "L", false, 0, "")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02/01/2006")
}
