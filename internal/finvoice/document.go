package finvoice

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/rezonia/finvoice-apix/internal/model"
)

// DocumentRenderer turns populated template values into a Finvoice XML document
type DocumentRenderer interface {
	RenderDocument(v *TemplateValues) ([]byte, error)
}

// Invoice type codes
const (
	TypeCodeInvoice    = "INV01"
	TypeCodeCreditNote = "INV02"
)

const (
	finvoiceVersion = "3.0"
	dateFormat      = "CCYYMMDD"
	defaultUnitCode = "kpl"
)

// TreeRenderer is the default renderer. It builds the document with etree.
type TreeRenderer struct {
	Indent int
}

// NewTreeRenderer creates a renderer producing indented XML
func NewTreeRenderer() *TreeRenderer {
	return &TreeRenderer{Indent: 2}
}

// RenderDocument builds the Finvoice 3.0 tree for v
func (r *TreeRenderer) RenderDocument(v *TemplateValues) ([]byte, error) {
	if v == nil || v.Invoice == nil {
		return nil, fmt.Errorf("no invoice to render")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Finvoice")
	root.CreateAttr("Version", finvoiceVersion)
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	root.CreateAttr("xsi:noNamespaceSchemaLocation", "Finvoice3.0.xsd")

	b := &builder{v: v, inv: v.Invoice, places: v.Invoice.Decimals()}
	b.transmission(root)
	b.seller(root)
	b.recipient(root)
	b.buyer(root)
	b.delivery(root)
	b.details(root)
	b.attachments(root)
	b.rows(root)
	b.epi(root)

	if r.Indent > 0 {
		doc.Indent(r.Indent)
	}
	return doc.WriteToBytes()
}

type builder struct {
	v      *TemplateValues
	inv    *model.Invoice
	places int32
}

func text(parent *etree.Element, tag, value string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(value)
	return el
}

// optional adds tag only when value is non-empty
func optional(parent *etree.Element, tag, value string) {
	if value != "" {
		text(parent, tag, value)
	}
}

func (b *builder) amount(parent *etree.Element, tag string, d decimal.Decimal) {
	b.amountPlaces(parent, tag, d, b.places)
}

func (b *builder) amountPlaces(parent *etree.Element, tag string, d decimal.Decimal, places int32) {
	el := text(parent, tag, FormatMonetary(d, places))
	el.CreateAttr(AttrCurrency, b.inv.Currency)
}

// signed returns the header amount as written: credit notes carry negative totals
func (b *builder) signed(d decimal.Decimal) decimal.Decimal {
	if b.inv.IsRefund() {
		return d.Abs().Neg()
	}
	return d
}

func date(parent *etree.Element, tag string, value string) {
	el := text(parent, tag, value)
	el.CreateAttr("Format", dateFormat)
}

func (b *builder) transmission(root *etree.Element) {
	seller := b.inv.Company.Party
	buyer := b.inv.Buyer

	mtd := root.CreateElement("MessageTransmissionDetails")
	sender := mtd.CreateElement("MessageSenderDetails")
	text(sender, "FromIdentifier", seller.EInvoiceAddress)
	text(sender, "FromIntermediator", seller.EInvoiceIntermediator)

	receiver := mtd.CreateElement("MessageReceiverDetails")
	text(receiver, "ToIdentifier", buyer.EInvoiceAddress)
	text(receiver, "ToIntermediator", buyer.EInvoiceIntermediator)

	details := mtd.CreateElement("MessageDetails")
	text(details, "MessageIdentifier", b.v.MessageIdentifier)
	text(details, "MessageTimeStamp", b.v.MessageTimestamp)
}

// party writes the <prefix>PartyDetails block shared by seller, recipient, buyer and delivery
func party(root *etree.Element, prefix string, p model.Party) {
	details := root.CreateElement(prefix + "PartyDetails")
	text(details, prefix+"PartyIdentifier", PartyIdentifier(p.CompanyRegistry))
	text(details, prefix+"OrganisationName", p.Name)
	optional(details, prefix+"OrganisationTaxCode", p.VAT)

	if p.StreetName == "" && p.TownName == "" && p.PostCode == "" {
		return
	}
	addr := details.CreateElement(prefix + "PostalAddressDetails")
	optional(addr, prefix+"StreetName", p.StreetName)
	optional(addr, prefix+"TownName", p.TownName)
	optional(addr, prefix+"PostCodeIdentifier", p.PostCode)
	optional(addr, "CountryCode", p.CountryCode)
}

func (b *builder) seller(root *etree.Element) {
	p := b.inv.Company.Party
	party(root, "Seller", p)
	text(root, "SellerOrganisationUnitNumber", p.OrganisationUnitNumber)

	info := root.CreateElement("SellerInformationDetails")
	for _, acc := range p.BankAccounts {
		if acc.IBAN == "" {
			continue
		}
		details := info.CreateElement("SellerAccountDetails")
		id := text(details, "SellerAccountID", acc.IBAN)
		id.CreateAttr("IdentificationSchemeName", "IBAN")
		if acc.BIC != "" {
			bic := text(details, "SellerBic", acc.BIC)
			bic.CreateAttr("IdentificationSchemeName", "BIC")
		}
	}
}

func (b *builder) recipient(root *etree.Element) {
	party(root, "InvoiceRecipient", b.inv.Buyer)
	text(root, "InvoiceRecipientOrganisationUnitNumber", b.inv.Buyer.OrganisationUnitNumber)
}

func (b *builder) buyer(root *etree.Element) {
	party(root, "Buyer", b.inv.Buyer)
	text(root, "BuyerOrganisationUnitNumber", b.inv.Buyer.OrganisationUnitNumber)
}

func (b *builder) delivery(root *etree.Element) {
	if b.inv.Shipping == nil {
		return
	}
	party(root, "Delivery", *b.inv.Shipping)
	text(root, "DeliveryOrganisationUnitNumber", b.inv.Shipping.OrganisationUnitNumber)
}

func (b *builder) details(root *etree.Element) {
	inv := b.inv
	details := root.CreateElement("InvoiceDetails")

	if inv.IsRefund() {
		text(details, "InvoiceTypeCode", TypeCodeCreditNote)
		text(details, "InvoiceTypeText", "HYVITYSLASKU")
	} else {
		text(details, "InvoiceTypeCode", TypeCodeInvoice)
		text(details, "InvoiceTypeText", "LASKU")
	}
	text(details, "OriginCode", "Original")
	text(details, "InvoiceNumber", inv.Name)
	date(details, "InvoiceDate", FormatDate(inv.Date))

	b.amount(details, "InvoiceTotalVatExcludedAmount", b.signed(inv.TotalExclVAT))
	b.amount(details, "InvoiceTotalVatAmount", b.signed(inv.TotalVAT))
	b.amount(details, "InvoiceTotalVatIncludedAmount", b.signed(inv.TotalInclVAT))

	for _, tl := range b.v.TaxDetails {
		spec := details.CreateElement("VatSpecificationDetails")
		b.amount(spec, "VatBaseAmount", b.signed(tl.Base))
		text(spec, "VatRatePercent", FormatPercent(tl.Tax.Percent))
		b.amount(spec, "VatRateAmount", b.signed(tl.Amount))
	}

	optional(details, "InvoiceFreeText", inv.Narration)

	terms := details.CreateElement("PaymentTermsDetails")
	date(terms, "InvoiceDueDate", FormatDate(inv.DueDate))
}

func (b *builder) attachments(root *etree.Element) {
	if b.v.PDFURI == "" {
		return
	}
	text(root, "InvoiceUrlNameText", b.v.PDFName)
	text(root, "InvoiceUrlText", b.v.PDFURI)
}

func (b *builder) rows(root *etree.Element) {
	for _, lv := range b.v.Lines {
		line := lv.Line
		row := root.CreateElement("InvoiceRow")
		optional(row, "ArticleIdentifier", line.ProductCode)
		text(row, "ArticleName", line.Description)

		unit := line.UnitCode
		if unit == "" {
			unit = defaultUnitCode
		}
		qty := text(row, "DeliveredQuantity", FormatMonetary(line.Quantity, quantityPlaces(line.Quantity)))
		qty.CreateAttr("QuantityUnitCode", unit)

		b.amountPlaces(row, "UnitPriceAmount", line.UnitPrice, pricePlaces(line.UnitPrice, b.places))
		if !line.Discount.IsZero() {
			text(row, "RowDiscountPercent", FormatPercent(line.Discount))
		}

		vat := decimal.Zero
		for _, td := range lv.TaxDetails {
			text(row, "RowVatRatePercent", FormatPercent(td.Tax.Percent))
			vat = vat.Add(td.Amount)
		}
		b.amount(row, "RowVatAmount", vat)
		b.amount(row, "RowVatExcludedAmount", lv.NetSubtotal)
		b.amount(row, "RowAmount", lv.Total)
	}
}

func (b *builder) epi(root *etree.Element) {
	inv := b.inv
	seller := inv.Company.Party

	epi := root.CreateElement("EpiDetails")
	ident := epi.CreateElement("EpiIdentificationDetails")
	date(ident, "EpiDate", FormatDate(inv.Date))
	text(ident, "EpiReference", inv.PaymentReference)

	parties := epi.CreateElement("EpiPartyDetails")
	var account model.BankAccount
	for _, acc := range seller.BankAccounts {
		if acc.IBAN != "" {
			account = acc
			break
		}
	}

	bfi := parties.CreateElement("EpiBfiPartyDetails")
	if account.BIC != "" {
		id := text(bfi, "EpiBfiIdentifier", account.BIC)
		id.CreateAttr("IdentificationSchemeName", "BIC")
	}

	beneficiary := parties.CreateElement("EpiBeneficiaryPartyDetails")
	text(beneficiary, "EpiNameAddressDetails", seller.Name)
	text(beneficiary, "EpiBei", PartyIdentifier(seller.CompanyRegistry))
	accID := text(beneficiary, "EpiAccountID", account.IBAN)
	accID.CreateAttr("IdentificationSchemeName", "IBAN")

	instr := epi.CreateElement("EpiPaymentInstructionDetails")
	text(instr, "EpiPaymentInstructionId", inv.Name)
	text(instr, "EpiRemittanceInfoIdentifier", inv.PaymentReference)
	b.amount(instr, "EpiInstructedAmount", b.signed(inv.TotalInclVAT))
	charge := text(instr, "EpiCharge", "SHA")
	charge.CreateAttr("ChargeOption", "SHA")
	date(instr, "EpiDateOptionDate", FormatDate(inv.DueDate))
}

// quantityPlaces keeps fractional quantities but prints whole ones without decimals
func quantityPlaces(q decimal.Decimal) int32 {
	if exp := q.Exponent(); exp < 0 && !q.Equal(q.Truncate(0)) {
		return -exp
	}
	return 0
}

// pricePlaces widens the currency precision for sub-cent unit prices
func pricePlaces(price decimal.Decimal, places int32) int32 {
	if exp := -price.Exponent(); exp > places && !price.Equal(price.Round(places)) {
		return exp
	}
	return places
}
