// Package finvoice maps invoices to Finvoice 3.0 XML documents and back.
package finvoice

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	dec "github.com/rezonia/finvoice-apix/internal/decimal"
)

// DateLayout is the Finvoice CCYYMMDD date format
const DateLayout = "20060102"

// MessageIdentifierLayout prefixes the message identifier
const MessageIdentifierLayout = "20060102150405"

// FormatDate renders t as CCYYMMDD. The zero time means now.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(DateLayout)
}

// ParseDate parses a CCYYMMDD date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatMonetary renders amount with exactly places decimals and a decimal comma
func FormatMonetary(amount decimal.Decimal, places int32) string {
	return dec.FormatComma(amount, places)
}

// FormatPercent renders a tax rate without trailing zeros ("24", "25,5")
func FormatPercent(percent decimal.Decimal) string {
	return strings.Replace(percent.String(), ".", ",", 1)
}

// VATNumberToFinnishFormat converts a Finnish VAT number to a business id:
// "FI12345678" becomes "1234567-8".
func VATNumberToFinnishFormat(vat string) (string, error) {
	if len(vat) < 3 {
		return "", fmt.Errorf("vat number %q too short", vat)
	}
	return vat[2:len(vat)-1] + "-" + vat[len(vat)-1:], nil
}

// PartyIdentifier returns the business id printed in *PartyIdentifier elements.
// A registry stored in VAT form (two-letter country prefix) is converted.
func PartyIdentifier(registry string) string {
	registry = strings.TrimSpace(registry)
	if len(registry) < 3 || strings.Contains(registry, "-") {
		return registry
	}
	if unicode.IsLetter(rune(registry[0])) && unicode.IsLetter(rune(registry[1])) {
		if id, err := VATNumberToFinnishFormat(registry); err == nil {
			return id
		}
	}
	return registry
}

// SafeName makes an invoice name usable as a file name
func SafeName(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}

// XMLName is the package entry name of the exported document
func XMLName(invoiceName string) string {
	return SafeName(invoiceName) + "_finvoice.xml"
}

// PDFName is the package entry name of the rendered invoice
func PDFName(invoiceName string) string {
	return SafeName(invoiceName) + "_finvoice.pdf"
}

// PackageName is the record name of an uploaded package
func PackageName(invoiceName string) string {
	return "apix_invoice_" + SafeName(invoiceName) + ".zip"
}

// FileURI references a package entry from InvoiceUrlText
func FileURI(name string) string {
	return "file://" + name
}
