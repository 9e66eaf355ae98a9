package finvoicelib

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/rezonia/finvoice-apix/internal/apix"
	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/pdfrender"
	"github.com/rezonia/finvoice-apix/internal/processor"
	"github.com/rezonia/finvoice-apix/internal/store"
	"github.com/rezonia/finvoice-apix/internal/tax"
)

// Client sends and receives Finvoice invoices through Apix
type Client struct {
	store    *store.SQLite
	pipeline *processor.Pipeline
	logger   *zap.Logger
}

// Open creates a client with the given options
func Open(ctx context.Context, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := apix.ParseEnvironment(string(opts.Environment)); err != nil {
		return nil, err
	}

	db, err := store.Open(ctx, store.Config{Path: opts.DatabasePath}, logger)
	if err != nil {
		return nil, err
	}

	clientOpts := []apix.ClientOption{apix.WithLogger(logger)}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, apix.WithTimeout(opts.Timeout))
	}
	if opts.Software != "" {
		clientOpts = append(clientOpts, apix.WithSoftware(opts.Software, opts.Version))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, apix.WithEndpoints(apix.NewEndpoints(opts.BaseURL)))
	}
	transport := apix.NewClient(opts.Environment, clientOpts...)

	renderer := opts.PDFRenderer
	if renderer == nil {
		renderer = pdfrender.NewRenderer()
	}

	pipelineOpts := []processor.Option{
		processor.WithLogger(logger),
		processor.WithCompanies(db),
		processor.WithStatusFilter(opts.StatusFilter),
		processor.WithConcurrency(opts.Concurrency),
	}
	if opts.DefaultCurrency != "" {
		pipelineOpts = append(pipelineOpts, processor.WithDefaultCurrency(opts.DefaultCurrency))
	}

	pipeline := processor.NewPipeline(
		finvoice.NewExporter(tax.NewCalculator(), renderer, finvoice.WithExportLogger(logger)),
		finvoice.NewImporter(db, logger),
		transport,
		db,
		pipelineOpts...,
	)

	return &Client{store: db, pipeline: pipeline, logger: logger}, nil
}

// Close releases the database
func (c *Client) Close() error {
	return c.store.Close()
}

// RegisterCompany stores company with its Apix credentials and taxes.
// An empty company ID is assigned.
func (c *Client) RegisterCompany(ctx context.Context, company *Company, creds Credentials, taxes ...Tax) error {
	company.Credentials = creds
	if err := c.store.SaveCompany(ctx, company); err != nil {
		return err
	}
	for i := range taxes {
		if err := c.store.SaveTax(ctx, company.ID, &taxes[i]); err != nil {
			return err
		}
	}
	return nil
}

// RegisterPartner stores a trading partner. An empty partner ID is assigned.
func (c *Client) RegisterPartner(ctx context.Context, partner *Partner) error {
	return c.store.SavePartner(ctx, partner)
}

// company loads a registered company by id
func (c *Client) company(ctx context.Context, id string) (Company, error) {
	if id == "" {
		return Company{}, fmt.Errorf("company id is required")
	}
	return c.store.Company(ctx, id)
}

// Export sends inv through Apix. When the seller's credentials are not set,
// the seller is loaded from the registered company with inv.Company.ID.
func (c *Client) Export(ctx context.Context, inv *Invoice) (*Receipt, error) {
	if err := c.hydrate(ctx, inv); err != nil {
		return nil, err
	}
	return c.pipeline.Export(ctx, inv)
}

// ExportBatch sends invoices independently of each other
func (c *Client) ExportBatch(ctx context.Context, invoices []*Invoice) *BatchResult {
	ready := make([]*Invoice, 0, len(invoices))
	failed := make(map[string]error)
	for i, inv := range invoices {
		if inv == nil {
			ready = append(ready, inv)
			continue
		}
		if err := c.hydrate(ctx, inv); err != nil {
			failed[processor.BatchKey(i, inv)] = err
			continue
		}
		ready = append(ready, inv)
	}

	result := c.pipeline.ExportBatch(ctx, ready, nil)
	for name, err := range failed {
		result.Errors[name] = err
	}
	return result
}

func (c *Client) hydrate(ctx context.Context, inv *Invoice) error {
	if inv.Company.Credentials.Configured() {
		return nil
	}
	company, err := c.company(ctx, inv.Company.ID)
	if err != nil {
		return err
	}
	inv.Company = company
	return nil
}

// Import reads a Finvoice document or Apix package for the company and saves it
func (c *Client) Import(ctx context.Context, companyID string, r io.Reader) (*Imported, error) {
	company, err := c.company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return c.pipeline.Import(ctx, company, data)
}

// Pending lists the files waiting in the company's Apix inbox
func (c *Client) Pending(ctx context.Context, companyID string) ([]FileDescriptor, error) {
	company, err := c.company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return c.pipeline.Pending(ctx, company)
}

// Fetch downloads and imports the company's waiting invoices
func (c *Client) Fetch(ctx context.Context, companyID string) (*FetchReport, error) {
	company, err := c.company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return c.pipeline.FetchPendingForCompany(ctx, company)
}

// FetchAll sweeps the inbox of every company with Apix credentials
func (c *Client) FetchAll(ctx context.Context) ([]*FetchReport, error) {
	return c.pipeline.FetchAll(ctx)
}
