package finvoice

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	dec "github.com/rezonia/finvoice-apix/internal/decimal"
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/packaging"
	"github.com/rezonia/finvoice-apix/internal/xmlpath"
)

// PartnerNotFoundNote is set on results whose seller could not be resolved
const PartnerNotFoundNote = "Seller not found from invoice identifiers; assign the partner manually."

var fileURIPattern = regexp.MustCompile(`^file://(.+)$`)

// ImportContext describes who is importing
type ImportContext struct {
	// Company is the caller's current company, used when the document names none
	Company   model.Company
	Superuser bool
	// DefaultCurrency applies when the company has no currency of its own
	DefaultCurrency string
	// DocumentID identifies the document in logs and errors
	DocumentID string
}

// Importer reads inbound Finvoice documents into import results
type Importer struct {
	directory Directory
	logger    *zap.Logger
}

// NewImporter creates an importer resolving identifiers through dir
func NewImporter(dir Directory, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{directory: dir, logger: logger}
}

// Import parses one Finvoice document. Missing optional elements are left
// unset; only malformed XML, directory failures and authorization fail.
func (im *Importer) Import(ctx context.Context, ictx ImportContext, data []byte) (*model.ImportResult, error) {
	doc, err := xmlpath.Parse(data)
	if err != nil {
		return nil, model.NewParseError(ictx.DocumentID, "xml", "could not parse finvoice xml", err)
	}
	return im.importDocument(ctx, ictx, doc)
}

// ImportPackage imports the document named documentName from a package and
// attaches the files it references through InvoiceUrlText.
func (im *Importer) ImportPackage(ctx context.Context, ictx ImportContext, archive *packaging.Archive, documentName string) (*model.ImportResult, error) {
	name, data, err := documentEntry(archive, documentName)
	if err != nil {
		return nil, model.NewParseError(ictx.DocumentID, "package", "finvoice document not found in package", err)
	}
	if ictx.DocumentID == "" {
		ictx.DocumentID = name
	}

	doc, err := xmlpath.Parse(data)
	if err != nil {
		return nil, model.NewParseError(ictx.DocumentID, "xml", "could not parse finvoice xml", err)
	}

	attachments := im.attachments(doc, archive, ictx.DocumentID)

	result, err := im.importDocument(ctx, ictx, doc)
	if err != nil {
		return nil, err
	}
	result.Attachments = attachments
	return result, nil
}

// documentEntry returns the named entry, or the first XML entry when no name is given
func documentEntry(archive *packaging.Archive, documentName string) (string, []byte, error) {
	if documentName != "" {
		data, err := archive.Lookup(documentName)
		return documentName, data, err
	}
	for _, name := range archive.Names() {
		if strings.EqualFold(path.Ext(name), ".xml") {
			data, err := archive.Lookup(name)
			return name, data, err
		}
	}
	return "", nil, packaging.ErrEntryNotFound
}

func (im *Importer) attachments(doc *xmlpath.Document, archive *packaging.Archive, documentID string) []model.Attachment {
	var out []model.Attachment
	seen := make(map[string]bool)

	for _, n := range doc.All(PathInvoiceURL) {
		uri := n.Text()
		m := fileURIPattern.FindStringSubmatch(uri)
		if m == nil {
			im.logger.Warn("Failed to parse attachment",
				zap.String("uri", uri),
				zap.String("document_id", documentID),
			)
			continue
		}

		name := m[1]
		if seen[name] {
			continue
		}
		content, err := archive.Lookup(name)
		if err != nil {
			im.logger.Error("Invoice specified attachment, but it was not found in the Apix zip",
				zap.String("attachment", name),
				zap.String("document_id", documentID),
			)
			continue
		}

		seen[name] = true
		out = append(out, model.Attachment{
			Name:     name,
			MimeType: packaging.DetectMimeType(content),
			Content:  content,
		})
	}
	return out
}

func (im *Importer) importDocument(ctx context.Context, ictx ImportContext, doc *xmlpath.Document) (*model.ImportResult, error) {
	company, err := im.resolveCompany(ctx, ictx, doc)
	if err != nil {
		return nil, err
	}

	result := &model.ImportResult{
		Company:  company,
		MoveType: model.MoveTypeStandard,
		Currency: defaultCurrency(company, ictx),
		Lines:    []model.ImportedLine{},
	}

	partner, err := resolve(ctx, doc, partnerTiers, im.directory.FindPartners)
	if err != nil {
		return nil, fmt.Errorf("partner lookup failed: %w", err)
	}
	if partner.OK() {
		p := partner.Value
		result.Partner = &p
		im.logAmbiguous("partner", partner.Key, partner.Matches, ictx.DocumentID)
	} else {
		result.PartnerNote = PartnerNotFoundNote
	}

	if err := im.header(ctx, doc, result, ictx); err != nil {
		return nil, err
	}

	lines, err := im.lines(ctx, doc, company, ictx.DocumentID)
	if err != nil {
		return nil, err
	}
	result.Lines = lines

	return result, nil
}

func (im *Importer) resolveCompany(ctx context.Context, ictx ImportContext, doc *xmlpath.Document) (model.Company, error) {
	res, err := resolve(ctx, doc, companyTiers, im.directory.FindCompanies)
	if err != nil {
		return model.Company{}, fmt.Errorf("company lookup failed: %w", err)
	}

	company := res.Value
	if res.OK() {
		im.logAmbiguous("company", res.Key, res.Matches, ictx.DocumentID)
	} else {
		company = ictx.Company
		reason := "no identifying data in document"
		if res.Searched {
			reason = "identifiers present but no company matched"
		}
		im.logger.Info("Company not found. The user's company is set by default.",
			zap.String("reason", reason),
			zap.String("company", company.ID),
			zap.String("document_id", ictx.DocumentID),
		)
	}

	if !ictx.Superuser && company.ID != ictx.Company.ID {
		return model.Company{}, model.NewAuthorizationError(company.Party.Name, ictx.Company.Party.Name)
	}
	return company, nil
}

func (im *Importer) logAmbiguous(what string, key LookupKey, matches int, documentID string) {
	if matches > 1 {
		im.logger.Debug("Ambiguous match, first one used",
			zap.String("kind", what),
			zap.String("key", string(key)),
			zap.Int("matches", matches),
			zap.String("document_id", documentID),
		)
	}
}

func defaultCurrency(company model.Company, ictx ImportContext) string {
	if company.Currency != "" {
		return company.Currency
	}
	return ictx.DefaultCurrency
}

func (im *Importer) header(ctx context.Context, doc *xmlpath.Document, result *model.ImportResult, ictx ImportContext) error {
	if total, ok := doc.First(PathInvoiceTotal); ok && total.Text() != "" {
		amount, err := dec.ParseComma(total.Text())
		if err != nil {
			im.warnNumber("InvoiceTotalVatIncludedAmount", total.Text(), ictx.DocumentID, err)
		} else {
			if dec.IsNegative(amount) {
				result.MoveType = model.MoveTypeRefund
			}
			result.TotalInclVAT = amount.Abs()
		}

		if cur, ok := total.Attr(AttrCurrency); ok {
			cur = strings.ToUpper(strings.TrimSpace(cur))
			if cur != "" && cur != result.Currency {
				active, err := im.directory.IsCurrencyActive(ctx, cur)
				if err != nil {
					return fmt.Errorf("currency lookup failed: %w", err)
				}
				if active {
					result.Currency = cur
				}
			}
		}
	}

	if ref, ok := doc.Text(PathInvoiceNumber); ok {
		result.Ref = ref
	}
	if ref, ok := doc.Text(PathEpiReference); ok {
		result.PaymentReference = ref
	}
	result.Narration = narration(doc)

	result.InvoiceDate = im.date(doc, PathInvoiceDate, ictx.DocumentID)
	result.DueDate = im.date(doc, PathInvoiceDueDate, ictx.DocumentID)
	return nil
}

func (im *Importer) date(doc *xmlpath.Document, p, documentID string) time.Time {
	s, ok := doc.Text(p)
	if !ok {
		return time.Time{}
	}
	t, err := ParseDate(s)
	if err != nil {
		im.logger.Warn("Malformed date in finvoice",
			zap.String("path", p),
			zap.String("value", s),
			zap.String("document_id", documentID),
		)
		return time.Time{}
	}
	return t
}

func (im *Importer) lines(ctx context.Context, doc *xmlpath.Document, company model.Company, documentID string) ([]model.ImportedLine, error) {
	rows := doc.All(PathInvoiceRow)
	lines := make([]model.ImportedLine, 0, len(rows))

	for _, row := range rows {
		var line model.ImportedLine

		if name, ok := row.ChildText(PathArticleName); ok {
			line.Description = name
		}
		line.Quantity = im.number(row, PathDeliveredQuantity, documentID)
		line.UnitPrice = im.number(row, PathUnitPriceAmount, documentID)
		line.Discount = im.number(row, PathRowDiscountPercent, documentID)

		for _, rate := range row.All(PathRowVatRatePercent) {
			percent, err := dec.ParseComma(rate.Text())
			if err != nil {
				im.warnNumber("RowVatRatePercent", rate.Text(), documentID, err)
				continue
			}

			taxes, err := im.directory.FindTaxes(ctx, company.ID, percent, model.DirectionPurchase)
			if err != nil {
				return nil, fmt.Errorf("tax lookup failed: %w", err)
			}
			if len(taxes) == 0 {
				im.logger.Debug("No tax matches rate, line imported without it",
					zap.String("percent", percent.String()),
					zap.String("document_id", documentID),
				)
				continue
			}
			line.Taxes = append(line.Taxes, taxes[0])
		}

		lines = append(lines, line)
	}
	return lines, nil
}

// number parses an optional comma-decimal element of row. Malformed values are logged and left zero.
func (im *Importer) number(row xmlpath.Node, p, documentID string) decimal.Decimal {
	s, ok := row.ChildText(p)
	if !ok {
		return decimal.Zero
	}
	v, err := dec.ParseComma(s)
	if err != nil {
		im.warnNumber(strings.TrimPrefix(p, ".//"), s, documentID, err)
		return decimal.Zero
	}
	return v
}

func (im *Importer) warnNumber(field, value, documentID string, err error) {
	im.logger.Warn("Malformed number in finvoice",
		zap.String("field", field),
		zap.String("value", value),
		zap.String("document_id", documentID),
		zap.Error(err),
	)
}
