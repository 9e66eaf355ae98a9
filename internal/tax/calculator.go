// Package tax is the default tax computation collaborator used by the
// exporter. Only percentage taxes are supported.
package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	dec "github.com/rezonia/finvoice-apix/internal/decimal"
	"github.com/rezonia/finvoice-apix/internal/model"
)

// Request describes one invoice line to compute taxes for
type Request struct {
	PriceUnit   decimal.Decimal // Discount already applied
	Quantity    decimal.Decimal
	Taxes       []model.Tax
	ProductCode string
	Partner     string
	Decimals    int32
}

// Result holds the per-tax breakdown of one line
type Result struct {
	TotalExcluded decimal.Decimal
	TotalIncluded decimal.Decimal
	Taxes         []model.TaxDetail
}

// Calculator computes percentage taxes on a line base
type Calculator struct{}

// NewCalculator creates a new calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute returns base and amount per applied tax. Every tax is computed on
// the untaxed line total.
func (c *Calculator) Compute(req Request) (Result, error) {
	places := req.Decimals
	if places <= 0 {
		places = model.DefaultCurrencyDecimals
	}

	base := dec.Round(req.PriceUnit.Mul(req.Quantity), places)
	res := Result{
		TotalExcluded: base,
		TotalIncluded: base,
		Taxes:         make([]model.TaxDetail, 0, len(req.Taxes)),
	}

	for _, t := range req.Taxes {
		if t.AmountType != "" && t.AmountType != model.AmountTypePercent {
			return Result{}, fmt.Errorf("tax %s: unsupported amount type %q", t.Name, t.AmountType)
		}
		amount := dec.CalculatePercentage(base, t.Percent, places)
		res.Taxes = append(res.Taxes, model.TaxDetail{
			Tax:    t,
			Base:   base,
			Amount: amount,
		})
		res.TotalIncluded = res.TotalIncluded.Add(amount)
	}

	return res, nil
}
