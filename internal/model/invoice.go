package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoveType distinguishes invoices from credit notes
type MoveType string

const (
	MoveTypeStandard MoveType = "standard"
	MoveTypeRefund   MoveType = "refund"
)

// Direction is the journal side a tax applies to
type Direction string

const (
	DirectionSale     Direction = "sale"
	DirectionPurchase Direction = "purchase"
)

// AmountTypePercent marks taxes computed as a percentage of the base
const AmountTypePercent = "percent"

// DefaultCurrencyDecimals is used when an invoice does not state its currency precision
const DefaultCurrencyDecimals int32 = 2

// BankAccount is a payee account printed on the invoice
type BankAccount struct {
	IBAN string `json:"iban"`
	BIC  string `json:"bic,omitempty"`
}

// Party holds the identity fields used for e-invoice routing
type Party struct {
	Name                   string        `json:"name"`
	CompanyRegistry        string        `json:"company_registry"` // Business ID (y-tunnus)
	VAT                    string        `json:"vat,omitempty"`
	OrganisationUnitNumber string        `json:"organisation_unit_number"` // OVT
	EInvoiceAddress        string        `json:"e_invoice_address"`
	EInvoiceIntermediator  string        `json:"e_invoice_intermediator"`
	StreetName             string        `json:"street_name,omitempty"`
	TownName               string        `json:"town_name,omitempty"`
	PostCode               string        `json:"post_code,omitempty"`
	CountryCode            string        `json:"country_code,omitempty"`
	BankAccounts           []BankAccount `json:"bank_accounts,omitempty"`
}

// Credentials are the per-company Apix transfer credentials.
// TransferKey is a shared secret: it is only used to compute digests.
type Credentials struct {
	TransferID  string `json:"transfer_id"`
	TransferKey string `json:"transfer_key"`
}

// Configured reports whether both credential values are present
func (c Credentials) Configured() bool {
	return c.TransferID != "" && c.TransferKey != ""
}

// Company is an invoicing company of the host application
type Company struct {
	ID          string      `json:"id"`
	Party       Party       `json:"party"`
	Credentials Credentials `json:"-"`
	Currency    string      `json:"currency"`
}

// Partner is a trading partner (customer or supplier)
type Partner struct {
	ID    string `json:"id"`
	Party Party  `json:"party"`
}

// Tax is a tax definition of a company
type Tax struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	AmountType string          `json:"amount_type"`
	Percent    decimal.Decimal `json:"percent"`
	Direction  Direction       `json:"direction"`
}

// TaxDetail is the per-line breakdown of one applied tax
type TaxDetail struct {
	Tax    Tax             `json:"tax"`
	Base   decimal.Decimal `json:"base"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxLine is a tax aggregated across all invoice lines sharing it
type TaxLine struct {
	Tax    Tax             `json:"tax"`
	Amount decimal.Decimal `json:"amount"`
	Base   decimal.Decimal `json:"base"`
}

// InvoiceLine is a ledger line of an outgoing invoice
type InvoiceLine struct {
	Description string          `json:"description"`
	ProductCode string          `json:"product_code,omitempty"`
	UnitCode    string          `json:"unit_code,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"` // Percent
	Taxes       []Tax           `json:"taxes,omitempty"`

	// DisplayOnly lines (sections, notes) carry no amounts and are not exported
	DisplayOnly bool `json:"display_only,omitempty"`
}

// Invoice is the export input aggregate
type Invoice struct {
	Name             string          `json:"name"` // Invoice number, e.g. INV/2024/0001
	MoveType         MoveType        `json:"move_type"`
	Date             time.Time       `json:"date"`
	DueDate          time.Time       `json:"due_date"`
	Currency         string          `json:"currency"`
	CurrencyDecimals int32           `json:"currency_decimals,omitempty"`
	TotalExclVAT     decimal.Decimal `json:"total_excl_vat"`
	TotalVAT         decimal.Decimal `json:"total_vat"`
	TotalInclVAT     decimal.Decimal `json:"total_incl_vat"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Narration        string          `json:"narration,omitempty"`

	Company  Company `json:"company"` // Seller
	Buyer    Party   `json:"buyer"`
	Shipping *Party  `json:"shipping,omitempty"`

	Lines []InvoiceLine `json:"lines"`

	// TaxLines are the ledger's tax lines; their amounts take precedence over
	// amounts recomputed from the invoice lines.
	TaxLines []TaxLine `json:"tax_lines,omitempty"`
}

// Decimals returns the currency precision of the invoice
func (inv *Invoice) Decimals() int32 {
	if inv.CurrencyDecimals > 0 {
		return inv.CurrencyDecimals
	}
	return DefaultCurrencyDecimals
}

// IsRefund reports whether the invoice is a credit note
func (inv *Invoice) IsRefund() bool {
	return inv.MoveType == MoveTypeRefund
}

// Attachment is a binary file travelling with an invoice
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"-"`
}

// ImportedLine is one InvoiceRow of an inbound document
type ImportedLine struct {
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Taxes       []Tax           `json:"taxes,omitempty"`
}

// ImportResult is the structured outcome of importing one Finvoice document.
// It is handed to the caller for persistence and is not stored by the importer.
type ImportResult struct {
	Company     Company  `json:"company"`
	Partner     *Partner `json:"partner,omitempty"`
	PartnerNote string   `json:"partner_note,omitempty"`

	MoveType         MoveType        `json:"move_type"`
	Ref              string          `json:"ref,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Narration        string          `json:"narration,omitempty"`
	Currency         string          `json:"currency"`
	TotalInclVAT     decimal.Decimal `json:"total_incl_vat"`
	InvoiceDate      time.Time       `json:"invoice_date,omitempty"`
	DueDate          time.Time       `json:"due_date,omitempty"`

	Lines       []ImportedLine `json:"lines"`
	Attachments []Attachment   `json:"attachments,omitempty"`
}

// Receipt is the transport receipt of a successful upload
type Receipt struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"-"`
	Response string `json:"response"`
}
