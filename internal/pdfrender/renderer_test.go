package pdfrender_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/pdfrender"
	"github.com/rezonia/finvoice-apix/internal/tax"
)

func invoice() *model.Invoice {
	vat := model.Tax{ID: "v24", AmountType: model.AmountTypePercent, Percent: decimal.NewFromInt(24)}
	return &model.Invoice{
		Name:         "INV/2024/0007",
		Date:         time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC),
		Currency:     "EUR",
		TotalExclVAT: decimal.NewFromInt(100),
		TotalVAT:     decimal.NewFromInt(24),
		TotalInclVAT: decimal.NewFromInt(124),
		Narration:    "Kiitos tilauksesta",
		Company: model.Company{Party: model.Party{
			Name:            "Pähkinä Oy",
			CompanyRegistry: "1234567-8",
			BankAccounts:    []model.BankAccount{{IBAN: "FI2112345600000785", BIC: "NDEAFIHH"}},
		}},
		Buyer: model.Party{Name: "Ostaja Oy"},
		Lines: []model.InvoiceLine{
			{Description: "Työ", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(25), Taxes: []model.Tax{vat}},
		},
	}
}

func TestRenderer_RenderPDF(t *testing.T) {
	data, err := pdfrender.NewRenderer().RenderPDF(context.Background(), invoice())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	require.NoError(t, pdfrender.Validate(data))

	pages, err := pdfrender.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestRenderer_RenderPDF_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pdfrender.NewRenderer().RenderPDF(ctx, invoice())
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidate_RejectsGarbage(t *testing.T) {
	require.Error(t, pdfrender.Validate([]byte("not a pdf")))
}

type brokenEngine struct{}

func (brokenEngine) Compute(tax.Request) (tax.Result, error) {
	return tax.Result{}, errors.New("no rates")
}

func TestRenderer_WithTaxEngine(t *testing.T) {
	_, err := pdfrender.NewRenderer(pdfrender.WithTaxEngine(brokenEngine{})).RenderPDF(context.Background(), invoice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rates")
}

func TestRenderer_WithoutValidation(t *testing.T) {
	data, err := pdfrender.NewRenderer(pdfrender.WithoutValidation()).RenderPDF(context.Background(), invoice())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
