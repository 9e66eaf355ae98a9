// Package pdfrender produces the printable copy of an invoice that travels
// next to the Finvoice document in the Apix package.
package pdfrender

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/shopspring/decimal"

	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/tax"
)

var disableConfigDir sync.Once

func pdfConfig() *pdfmodel.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	return pdfmodel.NewDefaultConfiguration()
}

// Renderer draws invoices with gofpdf and checks the result with pdfcpu
type Renderer struct {
	engine   finvoice.TaxEngine
	validate bool
}

// Option configures the renderer
type Option func(*Renderer)

// WithoutValidation skips the pdfcpu structural check
func WithoutValidation() Option {
	return func(r *Renderer) {
		r.validate = false
	}
}

// WithTaxEngine sets the engine used for the per-rate summary
func WithTaxEngine(engine finvoice.TaxEngine) Option {
	return func(r *Renderer) {
		r.engine = engine
	}
}

// NewRenderer creates a renderer
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		engine:   tax.NewCalculator(),
		validate: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderPDF renders inv as an A4 document
func (r *Renderer) RenderPDF(ctx context.Context, inv *model.Invoice) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, taxes, err := finvoice.AggregateTaxes(r.engine, inv)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	places := inv.Decimals()
	money := func(d decimal.Decimal) string {
		return finvoice.FormatMonetary(d, places) + " " + inv.Currency
	}

	pdf.SetTitle(inv.Name, true)
	pdf.SetCreator("finvoice-apix", true)
	pdf.AddPage()

	// Header
	seller := inv.Company.Party
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 8, tr(seller.Name))
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{seller.StreetName, seller.PostCode + " " + seller.TownName, "Y-tunnus " + seller.CompanyRegistry} {
		pdf.Cell(0, 5, tr(line))
		pdf.Ln(4)
	}
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 22)
	title := "LASKU"
	if inv.IsRefund() {
		title = "HYVITYSLASKU"
	}
	pdf.Cell(0, 10, title)
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 6, tr("Invoice number: "+inv.Name))
	pdf.Cell(60, 6, "Date: "+inv.Date.Format("02.01.2006"))
	pdf.Ln(6)
	pdf.Cell(60, 6, "Due date: "+inv.DueDate.Format("02.01.2006"))
	pdf.Cell(60, 6, "Reference: "+inv.PaymentReference)
	pdf.Ln(12)

	// Buyer
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Bill to:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, tr(inv.Buyer.Name))
	pdf.Ln(5)
	if inv.Buyer.StreetName != "" {
		pdf.Cell(0, 5, tr(inv.Buyer.StreetName))
		pdf.Ln(5)
	}
	pdf.Ln(8)

	// Lines
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(80, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 7, "Disc. %", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, lv := range lines {
		pdf.CellFormat(80, 6, tr(lv.Line.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, finvoice.FormatPercent(lv.Line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, finvoice.FormatMonetary(lv.Line.UnitPrice, places), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, finvoice.FormatPercent(lv.Line.Discount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, money(lv.NetSubtotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Tax summary and totals
	for _, tl := range taxes {
		pdf.CellFormat(150, 6, fmt.Sprintf("VAT %s %% of %s", finvoice.FormatPercent(tl.Tax.Percent), money(tl.Base)), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, money(tl.Amount), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(150, 7, "Total excl. VAT", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, money(inv.TotalExclVAT), "", 1, "R", false, 0, "")
	pdf.CellFormat(150, 7, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, money(inv.TotalInclVAT), "", 1, "R", false, 0, "")

	if inv.Narration != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(inv.Narration), "", "L", false)
	}

	// Payment details
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	for _, acc := range seller.BankAccounts {
		pdf.Cell(0, 5, "IBAN "+acc.IBAN+"  BIC "+acc.BIC)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate pdf: %w", err)
	}

	if r.validate {
		if err := Validate(buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Validate checks that data is a structurally valid PDF
func Validate(data []byte) error {
	if err := api.Validate(bytes.NewReader(data), pdfConfig()); err != nil {
		return fmt.Errorf("invalid pdf: %w", err)
	}
	return nil
}

// PageCount returns the number of pages of a PDF
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), pdfConfig())
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}
	return n, nil
}
