// Package processor wires the Finvoice transcoder, the Apix client and the
// record store into the export, import and inbox sweep flows.
package processor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rezonia/finvoice-apix/internal/apix"
	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/packaging"
)

// DefaultConcurrency is the number of companies swept in parallel
const DefaultConcurrency = 4

// Transport is the Apix API
type Transport interface {
	Upload(ctx context.Context, zipData []byte, creds model.Credentials) (*apix.UploadResult, error)
	List(ctx context.Context, creds model.Credentials) ([]model.FileDescriptor, error)
	Download(ctx context.Context, fd model.FileDescriptor) (*apix.DownloadResult, error)
}

// Records is the durable file and import store
type Records interface {
	RecordExists(ctx context.Context, name, recordModel string) (bool, error)
	CreateRecord(ctx context.Context, r *model.Record) error
	LinkRecord(ctx context.Context, id, recordModel, resID string) error
	// SaveImport stores the result together with its attachments, atomically
	SaveImport(ctx context.Context, result *model.ImportResult) (string, error)
}

// Companies lists the companies taking part in the sweep
type Companies interface {
	ConfiguredCompanies(ctx context.Context) ([]model.Company, error)
}

// Pipeline runs the export and import flows
type Pipeline struct {
	exporter  *finvoice.Exporter
	importer  *finvoice.Importer
	transport Transport
	records   Records
	companies Companies
	logger    *zap.Logger

	statusFilter    string
	defaultCurrency string
	concurrency     int
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCompanies sets the company source used by FetchAll
func WithCompanies(c Companies) Option {
	return func(p *Pipeline) {
		p.companies = c
	}
}

// WithStatusFilter sets the storage status a file must have to be
// downloaded. An empty filter accepts any status except NEW.
func WithStatusFilter(status string) Option {
	return func(p *Pipeline) {
		p.statusFilter = status
	}
}

// WithDefaultCurrency sets the currency used when a company has none
func WithDefaultCurrency(code string) Option {
	return func(p *Pipeline) {
		p.defaultCurrency = code
	}
}

// WithConcurrency sets how many companies or invoices run in parallel
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewPipeline creates a pipeline
func NewPipeline(exporter *finvoice.Exporter, importer *finvoice.Importer, transport Transport, records Records, opts ...Option) *Pipeline {
	p := &Pipeline{
		exporter:        exporter,
		importer:        importer,
		transport:       transport,
		records:         records,
		logger:          zap.NewNop(),
		statusFilter:    model.StorageStatusUnreceived,
		defaultCurrency: "EUR",
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Export validates, renders, packs and uploads one invoice. The upload
// receipt is kept as a record of the invoice.
func (p *Pipeline) Export(ctx context.Context, inv *model.Invoice) (*model.Receipt, error) {
	out, err := p.exporter.Export(ctx, inv)
	if err != nil {
		return nil, err
	}

	zipData, err := packaging.Pack(out.Entries()...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", inv.Name, err)
	}

	res, err := p.transport.Upload(ctx, zipData, inv.Company.Credentials)
	if err != nil {
		return nil, err
	}

	receipt := &model.Receipt{
		Name:     finvoice.PackageName(inv.Name),
		MimeType: packaging.MimeTypeZip,
		Content:  zipData,
		Response: res.Body,
	}

	err = p.records.CreateRecord(ctx, &model.Record{
		Name:     receipt.Name,
		Model:    model.RecordModelInvoice,
		ResID:    inv.Name,
		MimeType: receipt.MimeType,
		Content:  receipt.Content,
	})
	if err != nil {
		return receipt, fmt.Errorf("invoice %s was sent but its receipt was not saved: %w", inv.Name, err)
	}

	p.logger.Info("Invoice sent to Apix",
		zap.String("invoice", inv.Name),
		zap.String("company_id", inv.Company.ID),
	)
	return receipt, nil
}

// Imported is a saved import result
type Imported struct {
	ID     string              `json:"id"`
	Result *model.ImportResult `json:"result"`
}

// Import reads a Finvoice document or an Apix package on behalf of company
// and saves the result. Attachments found in a package are kept as records
// of the import.
func (p *Pipeline) Import(ctx context.Context, company model.Company, data []byte) (*Imported, error) {
	ictx := p.importContext(company, false)

	var (
		result *model.ImportResult
		err    error
	)
	if packaging.IsZip(data) {
		archive, openErr := packaging.Open(data)
		if openErr != nil {
			return nil, model.NewParseError("", "package", "could not open package", openErr)
		}
		result, err = p.importer.ImportPackage(ctx, ictx, archive, "")
	} else {
		result, err = p.importer.Import(ctx, ictx, data)
	}
	if err != nil {
		return nil, err
	}

	id, err := p.records.SaveImport(ctx, result)
	if err != nil {
		return nil, err
	}
	return &Imported{ID: id, Result: result}, nil
}

func (p *Pipeline) importContext(company model.Company, superuser bool) finvoice.ImportContext {
	return finvoice.ImportContext{
		Company:         company,
		Superuser:       superuser,
		DefaultCurrency: p.defaultCurrency,
	}
}

// Pending lists the files waiting in the company's Apix inbox
func (p *Pipeline) Pending(ctx context.Context, company model.Company) ([]model.FileDescriptor, error) {
	return p.transport.List(ctx, company.Credentials)
}

// errMissingCompanies is returned by FetchAll without a company source
var errMissingCompanies = errors.New("no company source configured")
