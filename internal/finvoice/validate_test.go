package finvoice_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/model"
)

func TestValidate_Complete(t *testing.T) {
	require.NoError(t, finvoice.Validate(sampleInvoice()))

	inv := sampleInvoice()
	shipping := buyerParty()
	inv.Shipping = &shipping
	require.NoError(t, finvoice.Validate(inv))
}

func TestValidate_MissingField(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(inv *model.Invoice)
	}{
		{"sender.company_registry", func(inv *model.Invoice) { inv.Company.Party.CompanyRegistry = "" }},
		{"recipient.company_registry", func(inv *model.Invoice) { inv.Buyer.CompanyRegistry = " " }},
		{"shipping.company_registry", func(inv *model.Invoice) { inv.Shipping = &model.Party{OrganisationUnitNumber: "0037"} }},
		{"sender.bank_accounts", func(inv *model.Invoice) { inv.Company.Party.BankAccounts = nil }},
		{"company.transfer_id", func(inv *model.Invoice) { inv.Company.Credentials.TransferID = "" }},
		{"company.transfer_key", func(inv *model.Invoice) { inv.Company.Credentials.TransferKey = "" }},
		{"sender.organisation_unit_number", func(inv *model.Invoice) { inv.Company.Party.OrganisationUnitNumber = "" }},
		{"recipient.organisation_unit_number", func(inv *model.Invoice) { inv.Buyer.OrganisationUnitNumber = "" }},
		{"shipping.organisation_unit_number", func(inv *model.Invoice) { inv.Shipping = &model.Party{CompanyRegistry: "1-1"} }},
		{"sender.e_invoice_address", func(inv *model.Invoice) { inv.Company.Party.EInvoiceAddress = "" }},
		{"recipient.e_invoice_address", func(inv *model.Invoice) { inv.Buyer.EInvoiceAddress = "" }},
		{"sender.e_invoice_intermediator", func(inv *model.Invoice) { inv.Company.Party.EInvoiceIntermediator = "" }},
		{"recipient.e_invoice_intermediator", func(inv *model.Invoice) { inv.Buyer.EInvoiceIntermediator = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			inv := sampleInvoice()
			tt.mutate(inv)

			err := finvoice.Validate(inv)
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	inv := sampleInvoice()
	inv.Buyer.EInvoiceIntermediator = ""
	inv.Company.Party.CompanyRegistry = ""

	err := finvoice.Validate(inv)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sender.company_registry", verr.Field)
	assert.Equal(t, "Company registry (y-tunnus) missing from sender.", verr.Message)
}

func TestValidate_BankAccountWithoutIBAN(t *testing.T) {
	inv := sampleInvoice()
	inv.Company.Party.BankAccounts = []model.BankAccount{{BIC: "NDEAFIHH"}}

	var verr *model.ValidationError
	require.True(t, errors.As(finvoice.Validate(inv), &verr))
	assert.Equal(t, "sender.bank_accounts", verr.Field)
}
