package finvoice

import (
	"strings"

	"github.com/rezonia/finvoice-apix/internal/xmlpath"
)

const narrationSeparator = "\n\n"

// narration collects the document details that have no dedicated field:
// the original total, the seller's bank accounts and the free text.
func narration(doc *xmlpath.Document) string {
	var parts []string

	if total, ok := doc.First(PathInvoiceTotal); ok && total.Text() != "" {
		amount := total.Text()
		if cur, ok := total.Attr(AttrCurrency); ok && cur != "" {
			amount += " " + cur
		}
		parts = append(parts, "Original amount from invoice: "+amount)
	}

	var accounts []string
	for _, n := range doc.All(PathSellerAccountID) {
		if acc := n.Text(); acc != "" {
			accounts = append(accounts, acc)
		}
	}
	if len(accounts) > 0 {
		title := "Account number from invoice:"
		if len(accounts) > 1 {
			title = "Account numbers from invoice:"
		}
		parts = append(parts, title+"\n"+strings.Join(accounts, "\n"))
	}

	if free, ok := doc.Text(PathInvoiceFreeText); ok {
		parts = append(parts, free)
	}

	return strings.Join(parts, narrationSeparator)
}
