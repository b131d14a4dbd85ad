package documents

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ContentTypePDF es el tipo MIME de los documentos generados
const ContentTypePDF = "application/pdf"

var (
	tableWidths  = []float64{12, 74, 18, 28, 18, 12, 28}
	tableHeaders = []string{"Nº", "Descripción", "Cant.", "Precio Unit.", "Desc.", "IVA", "Subtotal"}
	tableAligns  = []string{"C", "L", "R", "R", "R", "C", "R"}
)

// KuDERenderer genera la representación impresa (KuDE) de una factura
type KuDERenderer struct {
	now    func() time.Time
	logger *logrus.Logger
}

// NewKuDERenderer crea una nueva instancia del generador
func NewKuDERenderer(logger *logrus.Logger) *KuDERenderer {
	return &KuDERenderer{
		now:    time.Now,
		logger: logger,
	}
}

// Filename retorna el nombre del archivo PDF de la factura
func Filename(snap invoicing.Snapshot) string {
	return fmt.Sprintf("kude-%s.pdf", snap.Number)
}

// Render dibuja el KuDE en A4. Las facturas que no están ACCEPTED llevan la leyenda
// de documento sin validez fiscal.
func (r *KuDERenderer) Render(company *models.Company, snap invoicing.Snapshot) (*models.InvoiceDocument, error) {
	figures, err := invoicing.ComputeLines(snap.Lines)
	if err != nil {
		return nil, fmt.Errorf("error computing lines: %w", err)
	}
	totals, err := invoicing.ComputeTotals(snap.Header.Currency, snap.Lines)
	if err != nil {
		return nil, fmt.Errorf("error computing totals: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Factura %s", snap.Number), true)
	pdf.SetAuthor(company.LegalName, true)
	pdf.SetAutoPageBreak(true, 15)
	// Las fuentes core usan cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	r.drawHeader(pdf, tr, snap)
	r.drawParties(pdf, tr, company, snap)
	r.drawLines(pdf, tr, snap, figures)
	r.drawTotals(pdf, tr, snap.Header.Currency, totals)
	r.drawFooter(pdf, tr, snap)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error generating PDF: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"invoice_id": snap.ID,
		"number":     snap.Number,
		"pdf_size":   buf.Len(),
	}).Debug("KuDE rendered")

	return &models.InvoiceDocument{
		Filename:    Filename(snap),
		ContentType: ContentTypePDF,
		Content:     buf.Bytes(),
	}, nil
}

func (r *KuDERenderer) drawHeader(pdf *gofpdf.Fpdf, tr func(string) string, snap invoicing.Snapshot) {
	pdf.SetFillColor(41, 128, 185)
	pdf.Rect(0, 0, 210, 36, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(10, 8)
	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(120, 10, tr("FACTURA ELECTRÓNICA"))
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(70, 10, snap.Status.Label(), "", 0, "R", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(120, 8, tr(fmt.Sprintf("Nº %s", snap.Number)))
	pdf.CellFormat(70, 8, tr(fmt.Sprintf("Fecha de emisión: %s", snap.Header.IssueDate.Format("02/01/2006"))), "", 0, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetTextColor(44, 62, 80)
	if snap.Status != invoicing.StatusAccepted {
		pdf.SetXY(10, 38)
		pdf.SetTextColor(192, 57, 43)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(190, 6, tr("DOCUMENTO SIN VALIDEZ FISCAL"), "", 0, "C", false, 0, "")
		pdf.SetTextColor(44, 62, 80)
	}
}

func (r *KuDERenderer) drawParties(pdf *gofpdf.Fpdf, tr func(string) string, company *models.Company, snap invoicing.Snapshot) {
	top := 46.0

	pdf.SetXY(10, top)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(95, 7, "EMISOR")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 9)
	issuer := []string{
		company.LegalName,
		fmt.Sprintf("RUC: %s", company.RUC),
		fmt.Sprintf("Establecimiento %s - Punto de expedición %s", company.Establishment, company.ExpeditionPoint),
	}
	if company.Address != nil {
		issuer = append(issuer, *company.Address)
	}
	if company.Email != nil {
		issuer = append(issuer, *company.Email)
	}
	for _, line := range issuer {
		pdf.SetX(10)
		pdf.Cell(95, 5, tr(fit(pdf, tr, line, 95)))
		pdf.Ln(5)
	}

	buyer := snap.Header.Buyer
	ruc := buyer.RUC
	if ruc == "" {
		ruc = "Sin RUC"
	}
	receiver := []string{buyer.Name, fmt.Sprintf("RUC: %s", ruc)}
	if buyer.Address != "" {
		receiver = append(receiver, buyer.Address)
	}
	if buyer.Email != "" {
		receiver = append(receiver, buyer.Email)
	}

	pdf.SetXY(110, top)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(90, 7, "RECEPTOR")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 9)
	for _, line := range receiver {
		pdf.SetX(110)
		pdf.Cell(90, 5, tr(fit(pdf, tr, line, 90)))
		pdf.Ln(5)
	}

	terms := "Contado"
	if snap.Header.PaymentTerms == invoicing.PaymentTermsCredit {
		terms = fmt.Sprintf("Crédito a %d días", snap.Header.CreditDays)
	}
	pdf.SetXY(10, top+36)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(190, 6, tr(fmt.Sprintf("Condición de venta: %s    Moneda: %s", terms, snap.Header.Currency)))
	pdf.Ln(8)
}

func (r *KuDERenderer) drawLines(pdf *gofpdf.Fpdf, tr func(string) string, snap invoicing.Snapshot, figures []invoicing.LineFigures) {
	currency := snap.Header.Currency

	pdf.SetFillColor(236, 240, 241)
	pdf.SetFont("Arial", "B", 9)
	for i, header := range tableHeaders {
		pdf.CellFormat(tableWidths[i], 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 8)
	for i, line := range snap.Lines {
		if i%2 == 0 {
			pdf.SetFillColor(248, 249, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		cells := []string{
			fmt.Sprintf("%d", line.LineNumber),
			fit(pdf, tr, line.Description, tableWidths[1]-2),
			FormatQuantity(line.Quantity),
			FormatAmount(currency, line.UnitPrice),
			FormatAmount(currency, line.Discount),
			fmt.Sprintf("%d%%", line.TaxRate),
			FormatAmount(currency, figures[i].Subtotal),
		}
		for j, cell := range cells {
			pdf.CellFormat(tableWidths[j], 7, tr(cell), "1", 0, tableAligns[j], true, 0, "")
		}
		pdf.Ln(7)
	}
}

func (r *KuDERenderer) drawTotals(pdf *gofpdf.Fpdf, tr func(string) string, currency invoicing.Currency, totals invoicing.Totals) {
	pdf.Ln(4)
	pdf.SetDrawColor(189, 195, 199)
	pdf.Line(110, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(2)

	row := func(label, value string) {
		pdf.SetX(110)
		pdf.Cell(55, 6, tr(label))
		pdf.CellFormat(35, 6, value, "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}

	pdf.SetFont("Arial", "", 9)
	row("Subtotal:", FormatAmount(currency, totals.Subtotal))
	for _, rt := range totals.Breakdown {
		if rt.Rate == invoicing.TaxRateExempt {
			if rt.Taxable.IsPositive() {
				row("Exentas:", FormatAmount(currency, rt.Taxable))
			}
			continue
		}
		row(fmt.Sprintf("Gravadas %d%%:", rt.Rate), FormatAmount(currency, rt.Taxable))
		row(fmt.Sprintf("Liquidación IVA %d%%:", rt.Rate), FormatAmount(currency, rt.Tax))
	}
	row("Total IVA:", FormatAmount(currency, totals.TaxAmount))

	pdf.SetFillColor(41, 128, 185)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetX(110)
	pdf.CellFormat(55, 9, fmt.Sprintf("TOTAL %s:", currency), "", 0, "L", true, 0, "")
	pdf.CellFormat(35, 9, FormatAmount(currency, totals.Total), "", 0, "R", true, 0, "")
	pdf.Ln(9)
	pdf.SetTextColor(44, 62, 80)
}

func (r *KuDERenderer) drawFooter(pdf *gofpdf.Fpdf, tr func(string) string, snap invoicing.Snapshot) {
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 8)
	if snap.Header.Notes != "" {
		pdf.MultiCell(190, 4, tr(fmt.Sprintf("Observaciones: %s", snap.Header.Notes)), "", "L", false)
		pdf.Ln(2)
	}
	if snap.DocumentID != "" {
		pdf.Cell(190, 5, tr(fmt.Sprintf("Identificador SIFEN: %s", snap.DocumentID)))
		pdf.Ln(5)
	}
	if snap.AuthorizationCode != "" {
		pdf.Cell(190, 5, tr(fmt.Sprintf("Código de autorización: %s", snap.AuthorizationCode)))
		pdf.Ln(5)
	}
	if snap.Status == invoicing.StatusVoided && snap.VoidReason != "" {
		pdf.Cell(190, 5, tr(fmt.Sprintf("Anulada: %s", snap.VoidReason)))
		pdf.Ln(5)
	}

	pdf.SetY(-25)
	pdf.SetTextColor(149, 165, 166)
	pdf.Cell(190, 5, tr(fmt.Sprintf("Representación gráfica generada el %s", r.now().Format("02/01/2006 15:04:05"))))
}

// fit recorta el texto hasta que entra en el ancho dado
func fit(pdf *gofpdf.Fpdf, tr func(string) string, text string, width float64) string {
	if pdf.GetStringWidth(tr(text)) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+"...")) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// FormatAmount formatea un monto en la unidad mínima de la moneda con separador
// de miles "." y decimal ",".
func FormatAmount(currency invoicing.Currency, amount decimal.Decimal) string {
	return groupDigits(currency.Round(amount).StringFixed(currency.MinorUnits()))
}

// FormatQuantity formatea una cantidad sin ceros decimales sobrantes
func FormatQuantity(quantity decimal.Decimal) string {
	return groupDigits(quantity.String())
}

func groupDigits(raw string) string {
	negative := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	integer, fraction, hasFraction := strings.Cut(raw, ".")
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}
	if hasFraction {
		b.WriteByte(',')
		b.WriteString(fraction)
	}
	return b.String()
}
