package finvoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	dec "github.com/rezonia/finvoice-apix/internal/decimal"
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/tax"
)

// TaxEngine computes per-tax base and amount for one invoice line
type TaxEngine interface {
	Compute(req tax.Request) (tax.Result, error)
}

// LineValues is the rendered form of one invoice line
type LineValues struct {
	Index       int
	Line        model.InvoiceLine
	NetSubtotal decimal.Decimal
	Total       decimal.Decimal
	TaxDetails  []model.TaxDetail
}

// TemplateValues is everything a document renderer needs. It is populated
// once per export and not modified afterwards.
type TemplateValues struct {
	Invoice           *model.Invoice
	MessageIdentifier string
	MessageTimestamp  string
	Lines             []LineValues
	TaxDetails        []model.TaxLine
	PDFName           string // InvoiceUrlNameText
	PDFURI            string // InvoiceUrlText
}

// taxAccumulator keeps aggregated tax lines keyed by tax id in first-seen order
type taxAccumulator struct {
	order []string
	lines map[string]*model.TaxLine
}

func newTaxAccumulator() *taxAccumulator {
	return &taxAccumulator{lines: make(map[string]*model.TaxLine)}
}

func taxKey(t model.Tax) string {
	if t.ID != "" {
		return t.ID
	}
	return t.Name + "/" + t.Percent.String()
}

// seed registers a ledger tax line. Its amount is authoritative; bases are
// accumulated from the lines.
func (a *taxAccumulator) seed(line model.TaxLine) {
	key := taxKey(line.Tax)
	if existing, ok := a.lines[key]; ok {
		existing.Amount = existing.Amount.Add(line.Amount)
		return
	}
	a.order = append(a.order, key)
	a.lines[key] = &model.TaxLine{Tax: line.Tax, Amount: line.Amount, Base: decimal.Zero}
}

func (a *taxAccumulator) add(detail model.TaxDetail, seeded map[string]bool) {
	key := taxKey(detail.Tax)
	existing, ok := a.lines[key]
	if !ok {
		a.order = append(a.order, key)
		a.lines[key] = &model.TaxLine{Tax: detail.Tax, Amount: detail.Amount, Base: detail.Base}
		return
	}
	existing.Base = existing.Base.Add(detail.Base)
	if !seeded[key] {
		existing.Amount = existing.Amount.Add(detail.Amount)
	}
}

func (a *taxAccumulator) result() []model.TaxLine {
	out := make([]model.TaxLine, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, *a.lines[key])
	}
	return out
}

// AggregateTaxes computes the per-line tax breakdown of inv and the
// document-level tax lines. Display-only lines are skipped.
func AggregateTaxes(engine TaxEngine, inv *model.Invoice) ([]LineValues, []model.TaxLine, error) {
	acc := newTaxAccumulator()
	seeded := make(map[string]bool, len(inv.TaxLines))
	for _, tl := range inv.TaxLines {
		acc.seed(tl)
		seeded[taxKey(tl.Tax)] = true
	}

	var lines []LineValues
	for _, line := range inv.Lines {
		if line.DisplayOnly {
			continue
		}

		res, err := engine.Compute(tax.Request{
			PriceUnit:   dec.ApplyDiscount(line.UnitPrice, line.Discount),
			Quantity:    line.Quantity,
			Taxes:       line.Taxes,
			ProductCode: line.ProductCode,
			Partner:     inv.Buyer.Name,
			Decimals:    inv.Decimals(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("line %d (%s): %w", len(lines)+1, line.Description, err)
		}

		for _, detail := range res.Taxes {
			acc.add(detail, seeded)
		}

		lines = append(lines, LineValues{
			Index:       len(lines) + 1,
			Line:        line,
			NetSubtotal: res.TotalExcluded,
			Total:       res.TotalIncluded,
			TaxDetails:  res.Taxes,
		})
	}

	return lines, acc.result(), nil
}
