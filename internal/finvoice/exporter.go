package finvoice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/packaging"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

// PDFRenderer renders the human readable copy of an invoice
type PDFRenderer interface {
	RenderPDF(ctx context.Context, inv *model.Invoice) ([]byte, error)
}

// Export is the result of exporting one invoice
type Export struct {
	XML     []byte
	XMLName string
	PDF     []byte
	PDFName string
	Values  *TemplateValues
}

// Entries returns the package entries, document first
func (e *Export) Entries() []packaging.Entry {
	return []packaging.Entry{
		{Name: e.XMLName, Content: e.XML},
		{Name: e.PDFName, Content: e.PDF},
	}
}

// Exporter converts invoices to Finvoice documents. It performs no network I/O.
type Exporter struct {
	engine   TaxEngine
	renderer DocumentRenderer
	pdf      PDFRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// ExporterOption configures the exporter
type ExporterOption func(*Exporter)

// WithClock sets the time source for message identifiers and timestamps
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		e.now = now
	}
}

// WithExportLogger sets the logger
func WithExportLogger(logger *zap.Logger) ExporterOption {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// WithDocumentRenderer replaces the default tree renderer
func WithDocumentRenderer(r DocumentRenderer) ExporterOption {
	return func(e *Exporter) {
		e.renderer = r
	}
}

// NewExporter creates an exporter using engine for taxes and pdf for the printable copy
func NewExporter(engine TaxEngine, pdf PDFRenderer, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		engine:   engine,
		renderer: NewTreeRenderer(),
		pdf:      pdf,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export validates inv and renders its Finvoice document and PDF
func (e *Exporter) Export(ctx context.Context, inv *model.Invoice) (*Export, error) {
	if err := Validate(inv); err != nil {
		return nil, err
	}

	values, err := e.TemplateValues(inv)
	if err != nil {
		return nil, err
	}

	pdf, err := e.pdf.RenderPDF(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("failed to render pdf for %s: %w", inv.Name, err)
	}

	xml, err := e.renderer.RenderDocument(values)
	if err != nil {
		return nil, fmt.Errorf("failed to render finvoice for %s: %w", inv.Name, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(xml), []byte("<?xml")) {
		xml = append([]byte(xmlDeclaration), xml...)
	}

	e.logger.Debug("Exported finvoice",
		zap.String("invoice", inv.Name),
		zap.Int("lines", len(values.Lines)),
		zap.Int("tax_lines", len(values.TaxDetails)),
	)

	return &Export{
		XML:     xml,
		XMLName: XMLName(inv.Name),
		PDF:     pdf,
		PDFName: values.PDFName,
		Values:  values,
	}, nil
}

// TemplateValues populates the renderer input for inv
func (e *Exporter) TemplateValues(inv *model.Invoice) (*TemplateValues, error) {
	lines, taxes, err := AggregateTaxes(e.engine, inv)
	if err != nil {
		return nil, err
	}

	now := e.now()
	pdfName := PDFName(inv.Name)
	return &TemplateValues{
		Invoice:           inv,
		MessageIdentifier: now.Format(MessageIdentifierLayout) + "-" + inv.Name,
		MessageTimestamp:  now.Format(time.RFC3339),
		Lines:             lines,
		TaxDetails:        taxes,
		PDFName:           pdfName,
		PDFURI:            FileURI(pdfName),
	}, nil
}
