package finvoice

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/xmlpath"
)

// LookupKey names the identifier a company or partner is searched by
type LookupKey string

const (
	LookupOVT      LookupKey = "ovt"
	LookupRegistry LookupKey = "registry"
	LookupVAT      LookupKey = "vat"
)

// Directory resolves identifiers found in inbound documents. Results are
// returned in a stable order; the importer takes the first.
type Directory interface {
	FindCompanies(ctx context.Context, key LookupKey, value string) ([]model.Company, error)
	FindPartners(ctx context.Context, key LookupKey, value string) ([]model.Partner, error)
	FindTaxes(ctx context.Context, companyID string, percent decimal.Decimal, direction model.Direction) ([]model.Tax, error)
	IsCurrencyActive(ctx context.Context, code string) (bool, error)
}

// Outcome is the result of one resolution tier
type Outcome int

const (
	NotFound Outcome = iota
	Found
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Resolution is the outcome of resolving a company or partner
type Resolution[T any] struct {
	Outcome Outcome
	Value   T
	Key     LookupKey
	Matches int
	// Searched is false when the document carried none of the identifiers
	Searched bool
}

// OK reports whether a value was resolved
func (r Resolution[T]) OK() bool {
	return r.Outcome != NotFound
}

// tier is one identifier to try, in order
type tier struct {
	key   LookupKey
	paths []string
}

var companyTiers = []tier{
	{LookupOVT, []string{PathInvoiceRecipientOVT, PathBuyerOVT}},
	{LookupRegistry, []string{PathBuyerIdentifier}},
	{LookupVAT, []string{PathBuyerTaxCode}},
}

var partnerTiers = []tier{
	{LookupOVT, []string{PathSellerOVT}},
	{LookupRegistry, []string{PathSellerIdentifier}},
	{LookupVAT, []string{PathSellerTaxCode}},
}

// value returns the text of the first path present in doc
func (t tier) value(doc *xmlpath.Document) (string, bool) {
	for _, p := range t.paths {
		if v, ok := doc.Text(p); ok {
			return v, true
		}
	}
	return "", false
}

// resolve tries each tier in order. The first tier with any match wins and
// ties within a tier go to the first match.
func resolve[T any](ctx context.Context, doc *xmlpath.Document, tiers []tier, find func(context.Context, LookupKey, string) ([]T, error)) (Resolution[T], error) {
	var res Resolution[T]
	for _, t := range tiers {
		value, ok := t.value(doc)
		if !ok {
			continue
		}
		res.Searched = true

		matches, err := find(ctx, t.key, value)
		if err != nil {
			return res, err
		}
		if len(matches) == 0 {
			continue
		}

		res.Value = matches[0]
		res.Key = t.key
		res.Matches = len(matches)
		res.Outcome = Found
		if len(matches) > 1 {
			res.Outcome = Ambiguous
		}
		return res, nil
	}
	return res, nil
}
