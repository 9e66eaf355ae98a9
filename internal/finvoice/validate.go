package finvoice

import (
	"strings"

	"github.com/rezonia/finvoice-apix/internal/model"
)

type requirement struct {
	field   string
	message string
	missing func(inv *model.Invoice) bool
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// requirements are checked in order; the first failure wins
var requirements = []requirement{
	{"sender.company_registry", "Company registry (y-tunnus) missing from sender.", func(inv *model.Invoice) bool {
		return blank(inv.Company.Party.CompanyRegistry)
	}},
	{"recipient.company_registry", "Company registry (y-tunnus) missing from recipient.", func(inv *model.Invoice) bool {
		return blank(inv.Buyer.CompanyRegistry)
	}},
	{"shipping.company_registry", "Company registry (y-tunnus) missing from shipping contact.", func(inv *model.Invoice) bool {
		return inv.Shipping != nil && blank(inv.Shipping.CompanyRegistry)
	}},
	{"sender.bank_accounts", "No bank accounts configured for sender.", func(inv *model.Invoice) bool {
		for _, acc := range inv.Company.Party.BankAccounts {
			if !blank(acc.IBAN) {
				return false
			}
		}
		return true
	}},
	{"company.transfer_id", "Apix transfer id missing from company config.", func(inv *model.Invoice) bool {
		return blank(inv.Company.Credentials.TransferID)
	}},
	{"company.transfer_key", "Apix transfer key missing from company config.", func(inv *model.Invoice) bool {
		return blank(inv.Company.Credentials.TransferKey)
	}},
	{"sender.organisation_unit_number", "Organisation unit number (OVT) missing from sender.", func(inv *model.Invoice) bool {
		return blank(inv.Company.Party.OrganisationUnitNumber)
	}},
	{"recipient.organisation_unit_number", "Organisation unit number (OVT) missing from recipient.", func(inv *model.Invoice) bool {
		return blank(inv.Buyer.OrganisationUnitNumber)
	}},
	{"shipping.organisation_unit_number", "Organisation unit number (OVT) missing from shipping contact.", func(inv *model.Invoice) bool {
		return inv.Shipping != nil && blank(inv.Shipping.OrganisationUnitNumber)
	}},
	{"sender.e_invoice_address", "E-invoice address missing from sender.", func(inv *model.Invoice) bool {
		return blank(inv.Company.Party.EInvoiceAddress)
	}},
	{"recipient.e_invoice_address", "E-invoice address missing from recipient.", func(inv *model.Invoice) bool {
		return blank(inv.Buyer.EInvoiceAddress)
	}},
	{"sender.e_invoice_intermediator", "E-invoice intermediator missing from sender.", func(inv *model.Invoice) bool {
		return blank(inv.Company.Party.EInvoiceIntermediator)
	}},
	{"recipient.e_invoice_intermediator", "E-invoice intermediator missing from recipient.", func(inv *model.Invoice) bool {
		return blank(inv.Buyer.EInvoiceIntermediator)
	}},
}

// Validate checks the mandatory routing, registry and banking fields of inv.
// It returns a *model.ValidationError naming the first missing field.
func Validate(inv *model.Invoice) error {
	for _, r := range requirements {
		if r.missing(inv) {
			return model.NewValidationError(r.field, r.message)
		}
	}
	return nil
}
