package finvoice_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/model"
)

var (
	vat24 = model.Tax{ID: "s24", Name: "VAT 24%", AmountType: model.AmountTypePercent, Percent: decimal.NewFromInt(24), Direction: model.DirectionSale}
	vat14 = model.Tax{ID: "s14", Name: "VAT 14%", AmountType: model.AmountTypePercent, Percent: decimal.NewFromInt(14), Direction: model.DirectionSale}
)

var exportTime = time.Date(2024, 3, 1, 9, 15, 30, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sellerCompany() model.Company {
	return model.Company{
		ID:       "seller",
		Currency: "EUR",
		Party: model.Party{
			Name:                   "Myyjä Oy",
			CompanyRegistry:        "1234567-8",
			VAT:                    "FI12345678",
			OrganisationUnitNumber: "003712345678",
			EInvoiceAddress:        "003712345678",
			EInvoiceIntermediator:  "003723327487",
			StreetName:             "Mannerheimintie 1",
			TownName:               "Helsinki",
			PostCode:               "00100",
			CountryCode:            "FI",
			BankAccounts:           []model.BankAccount{{IBAN: "FI2112345600000785", BIC: "NDEAFIHH"}},
		},
		Credentials: model.Credentials{TransferID: "TID", TransferKey: "KEY"},
	}
}

func buyerParty() model.Party {
	return model.Party{
		Name:                   "Ostaja Oy",
		CompanyRegistry:        "7654321-0",
		VAT:                    "FI76543210",
		OrganisationUnitNumber: "003776543210",
		EInvoiceAddress:        "003776543210",
		EInvoiceIntermediator:  "003723327487",
	}
}

// sampleInvoice has two 24% lines and one 14% line
func sampleInvoice() *model.Invoice {
	return &model.Invoice{
		Name:             "INV/2024/0001",
		MoveType:         model.MoveTypeStandard,
		Date:             time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:          time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Currency:         "EUR",
		TotalExclVAT:     d("350.00"),
		TotalVAT:         d("74.00"),
		TotalInclVAT:     d("424.00"),
		PaymentReference: "RF471234567890",
		Narration:        "Thank you for your business",
		Company:          sellerCompany(),
		Buyer:            buyerParty(),
		Lines: []model.InvoiceLine{
			{Description: "Consulting", ProductCode: "CONS", Quantity: d("2"), UnitPrice: d("100"), Taxes: []model.Tax{vat24}},
			{Description: "Section", DisplayOnly: true},
			{Description: "Support", Quantity: d("1"), UnitPrice: d("50"), Taxes: []model.Tax{vat24}},
			{Description: "Books", Quantity: d("1"), UnitPrice: d("125"), Discount: d("20"), Taxes: []model.Tax{vat14}},
		},
	}
}

type stubPDF struct {
	calls int
	err   error
}

func (s *stubPDF) RenderPDF(ctx context.Context, inv *model.Invoice) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.4\n" + inv.Name), nil
}

// memDirectory is an in-memory Directory
type memDirectory struct {
	companies  []model.Company
	partners   []model.Partner
	taxes      map[string][]model.Tax // by company id
	currencies map[string]bool
	err        error
}

func partyMatches(p model.Party, key finvoice.LookupKey, value string) bool {
	switch key {
	case finvoice.LookupOVT:
		return p.OrganisationUnitNumber == value
	case finvoice.LookupRegistry:
		return p.CompanyRegistry == value
	case finvoice.LookupVAT:
		return p.VAT == value
	}
	return false
}

func (m *memDirectory) FindCompanies(ctx context.Context, key finvoice.LookupKey, value string) ([]model.Company, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Company
	for _, c := range m.companies {
		if partyMatches(c.Party, key, value) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memDirectory) FindPartners(ctx context.Context, key finvoice.LookupKey, value string) ([]model.Partner, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Partner
	for _, p := range m.partners {
		if partyMatches(p.Party, key, value) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memDirectory) FindTaxes(ctx context.Context, companyID string, percent decimal.Decimal, direction model.Direction) ([]model.Tax, error) {
	var out []model.Tax
	for _, t := range m.taxes[companyID] {
		if t.Percent.Equal(percent) && t.Direction == direction {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memDirectory) IsCurrencyActive(ctx context.Context, code string) (bool, error) {
	return m.currencies[code], nil
}

// buyerDirectory is the receiving side of sampleInvoice
func buyerDirectory() *memDirectory {
	return &memDirectory{
		companies: []model.Company{{ID: "buyer", Currency: "EUR", Party: buyerParty()}},
		partners:  []model.Partner{{ID: "p-seller", Party: sellerCompany().Party}},
		taxes: map[string][]model.Tax{
			"buyer": {
				{ID: "p24", Name: "Purchase 24%", AmountType: model.AmountTypePercent, Percent: decimal.NewFromInt(24), Direction: model.DirectionPurchase},
				{ID: "p14", Name: "Purchase 14%", AmountType: model.AmountTypePercent, Percent: decimal.NewFromInt(14), Direction: model.DirectionPurchase},
				{ID: "s24", Name: "Sale 24%", AmountType: model.AmountTypePercent, Percent: decimal.NewFromInt(24), Direction: model.DirectionSale},
			},
		},
		currencies: map[string]bool{"EUR": true, "USD": true},
	}
}

func buyerContext() finvoice.ImportContext {
	return finvoice.ImportContext{
		Company:         model.Company{ID: "buyer", Currency: "EUR", Party: buyerParty()},
		DefaultCurrency: "EUR",
		DocumentID:      "D-1",
	}
}
