package finvoice

// Finvoice 3.0 element locations read on import
const (
	PathInvoiceRecipientOVT = "//InvoiceRecipientOrganisationUnitNumber"
	PathBuyerOVT            = "//BuyerOrganisationUnitNumber"
	PathBuyerIdentifier     = "//BuyerPartyIdentifier"
	PathBuyerTaxCode        = "//BuyerOrganisationTaxCode"

	PathSellerOVT        = "//SellerOrganisationUnitNumber"
	PathSellerIdentifier = "//SellerPartyIdentifier"
	PathSellerTaxCode    = "//SellerOrganisationTaxCode"
	PathSellerAccountID  = "//SellerAccountID"

	PathInvoiceNumber      = "//InvoiceNumber"
	PathInvoiceDate        = "//InvoiceDate"
	PathInvoiceDueDate     = "//InvoiceDueDate"
	PathInvoiceTotal       = "//InvoiceTotalVatIncludedAmount"
	PathInvoiceFreeText    = "//InvoiceFreeText"
	PathEpiReference       = "//EpiReference"
	PathInvoiceURL         = "//InvoiceUrlText"
	PathInvoiceRow         = "//InvoiceRow"
	PathArticleName        = ".//ArticleName"
	PathDeliveredQuantity  = ".//DeliveredQuantity"
	PathUnitPriceAmount    = ".//UnitPriceAmount"
	PathRowDiscountPercent = ".//RowDiscountPercent"
	PathRowVatRatePercent  = ".//RowVatRatePercent"

	AttrCurrency = "AmountCurrencyIdentifier"
)
