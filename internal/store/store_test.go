package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/store"
)

func openStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{Path: store.MemoryPath}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func company(name, ovt, registry, vat string) *model.Company {
	return &model.Company{
		Party: model.Party{
			Name:                   name,
			OrganisationUnitNumber: ovt,
			CompanyRegistry:        registry,
			VAT:                    vat,
			BankAccounts:           []model.BankAccount{{IBAN: "FI2112345600000785"}},
		},
		Currency: "EUR",
	}
}

func TestSQLite_Companies(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	configured := company("Ostaja Oy", "003776543210", "7654321-0", "FI76543210")
	configured.Credentials = model.Credentials{TransferID: "TID", TransferKey: "KEY"}
	require.NoError(t, s.SaveCompany(ctx, configured))
	require.NotEmpty(t, configured.ID)

	bare := company("Toinen Oy", "", "1111111-1", "")
	require.NoError(t, s.SaveCompany(ctx, bare))

	got, err := s.Company(ctx, configured.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ostaja Oy", got.Party.Name)
	assert.Equal(t, "KEY", got.Credentials.TransferKey)
	require.Len(t, got.Party.BankAccounts, 1)

	list, err := s.ConfiguredCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, configured.ID, list[0].ID)

	all, err := s.Companies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, bare.ID, all[1].ID)

	_, err = s.Company(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSQLite_FindCompanies(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	first := company("A Oy", "003712345678", "1234567-8", "FI12345678")
	second := company("B Oy", "003712345678", "", "")
	require.NoError(t, s.SaveCompany(ctx, first))
	require.NoError(t, s.SaveCompany(ctx, second))

	tests := []struct {
		key   finvoice.LookupKey
		value string
		want  []string
	}{
		{finvoice.LookupOVT, "003712345678", []string{first.ID, second.ID}},
		{finvoice.LookupRegistry, "1234567-8", []string{first.ID}},
		{finvoice.LookupVAT, "FI12345678", []string{first.ID}},
		{finvoice.LookupVAT, "", nil},
		{finvoice.LookupRegistry, "0000000-0", nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.key)+"_"+tt.value, func(t *testing.T) {
			found, err := s.FindCompanies(ctx, tt.key, tt.value)
			require.NoError(t, err)
			var ids []string
			for _, c := range found {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := s.FindCompanies(ctx, finvoice.LookupKey("iban"), "x")
	assert.Error(t, err)
}

func TestSQLite_FindPartners(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	p := &model.Partner{Party: model.Party{Name: "Myyjä Oy", CompanyRegistry: "1234567-8", OrganisationUnitNumber: "003712345678"}}
	require.NoError(t, s.SavePartner(ctx, p))

	found, err := s.FindPartners(ctx, finvoice.LookupOVT, "003712345678")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Myyjä Oy", found[0].Party.Name)

	found, err = s.FindPartners(ctx, finvoice.LookupVAT, "FI12345678")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSQLite_FindTaxes(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	c := company("A Oy", "", "1234567-8", "")
	require.NoError(t, s.SaveCompany(ctx, c))

	for _, tx := range []*model.Tax{
		{Name: "24% S", Percent: decimal.NewFromInt(24), Direction: model.DirectionSale},
		{Name: "24% P", Percent: decimal.RequireFromString("24.0"), Direction: model.DirectionPurchase},
		{Name: "24% P services", Percent: decimal.NewFromInt(24), Direction: model.DirectionPurchase},
		{Name: "14% P", Percent: decimal.NewFromInt(14), Direction: model.DirectionPurchase},
		{Name: "fixed", AmountType: "fixed", Percent: decimal.NewFromInt(24), Direction: model.DirectionPurchase},
	} {
		require.NoError(t, s.SaveTax(ctx, c.ID, tx))
	}

	found, err := s.FindTaxes(ctx, c.ID, decimal.NewFromInt(24), model.DirectionPurchase)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "24% P", found[0].Name)
	assert.Equal(t, "24% P services", found[1].Name)

	found, err = s.FindTaxes(ctx, c.ID, decimal.NewFromInt(10), model.DirectionPurchase)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSQLite_IsCurrencyActive(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	tests := []struct {
		code string
		want bool
	}{
		{"EUR", true},
		{"SEK", true},
		{"JPY", false},
		{"XXQ", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := s.IsCurrencyActive(ctx, tt.code)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.code)
	}

	require.NoError(t, s.SetCurrencyActive(ctx, "JPY", true))
	ok, err := s.IsCurrencyActive(ctx, "JPY")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.SetCurrencyActive(ctx, "SEK", false))
	ok, err = s.IsCurrencyActive(ctx, "SEK")
	require.NoError(t, err)
	assert.False(t, ok)

	var verr *model.ValidationError
	assert.True(t, errors.As(s.SetCurrencyActive(ctx, "EURO", true), &verr))
}

func TestSQLite_Records(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	pkg := &model.Record{Name: "apix_in_invoice_42.zip", Model: model.RecordModelInvoice, MimeType: "application/zip", Content: []byte("PK")}
	require.NoError(t, s.CreateRecord(ctx, pkg))
	require.NotEmpty(t, pkg.ID)
	assert.False(t, pkg.CreatedAt.IsZero())

	exists, err := s.RecordExists(ctx, "apix_in_invoice_42.zip", model.RecordModelInvoice)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.RecordExists(ctx, "apix_in_invoice_43.zip", model.RecordModelInvoice)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.FindRecord(ctx, "apix_in_invoice_43.zip", model.RecordModelInvoice)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	require.NoError(t, s.LinkRecord(ctx, pkg.ID, model.RecordModelInvoice, "imp-1"))
	linked, err := s.RecordsFor(ctx, model.RecordModelInvoice, "imp-1")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, []byte("PK"), linked[0].Content)

	assert.True(t, errors.Is(s.LinkRecord(ctx, "nope", model.RecordModelInvoice, "imp-1"), store.ErrNotFound))
}

func TestSQLite_SaveImport(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	result := &model.ImportResult{
		Company:      model.Company{ID: "c1"},
		Partner:      &model.Partner{ID: "p1"},
		MoveType:     model.MoveTypeRefund,
		Ref:          "INV-9",
		Currency:     "EUR",
		TotalInclVAT: decimal.RequireFromString("124.00"),
		Lines:        []model.ImportedLine{{Description: "Työ", Quantity: decimal.NewFromInt(2)}},
		Attachments:  []model.Attachment{{Name: "a.pdf", Content: []byte("%PDF")}},
	}

	id, err := s.SaveImport(ctx, result)
	require.NoError(t, err)

	stored, err := s.Import(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "c1", stored.CompanyID)
	assert.Equal(t, "INV-9", stored.Result.Ref)
	assert.Equal(t, model.MoveTypeRefund, stored.Result.MoveType)
	assert.True(t, stored.Result.TotalInclVAT.Equal(decimal.NewFromInt(124)))
	require.Len(t, stored.Result.Lines, 1)
	assert.Empty(t, stored.Result.Attachments)
	assert.Len(t, result.Attachments, 1, "caller's result is not modified")

	attached, err := s.RecordsFor(ctx, model.RecordModelInvoice, id)
	require.NoError(t, err)
	require.Len(t, attached, 1)
	assert.Equal(t, "a.pdf", attached[0].Name)
	assert.Equal(t, []byte("%PDF"), attached[0].Content)

	_, err = s.Import(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
