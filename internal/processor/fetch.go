package processor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/packaging"
)

// FetchReport summarises one inbox sweep of a company
type FetchReport struct {
	CompanyID string `json:"company_id"`
	Listed    int    `json:"listed"`
	// Skipped files are not ready or do not match the status filter
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
	Downloaded int `json:"downloaded"`
	Imported   int `json:"imported"`
	Failed     int `json:"failed"`
	// ImportIDs are the saved imports in download order
	ImportIDs []string `json:"import_ids,omitempty"`
	Errors    []error  `json:"-"`
}

func (r *FetchReport) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err)
}

// Err joins the per-file errors
func (r *FetchReport) Err() error {
	return errors.Join(r.Errors...)
}

// FetchPendingForCompany downloads and imports the files waiting in the
// company's inbox. Files are handled one at a time and each package is
// recorded before it is imported, so a file is never downloaded twice.
// Per-file failures are collected in the report; only a failing list call
// or cancellation is returned as an error.
func (p *Pipeline) FetchPendingForCompany(ctx context.Context, company model.Company) (*FetchReport, error) {
	report := &FetchReport{CompanyID: company.ID}
	logger := p.logger.With(zap.String("company_id", company.ID))

	files, err := p.transport.List(ctx, company.Credentials)
	if err != nil {
		return report, err
	}
	report.Listed = len(files)
	logger.Info("Fetching pending Apix invoices", zap.Int("files", len(files)))

	for _, fd := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		p.fetchFile(ctx, company, fd, report, logger)
	}

	logger.Info("Finished fetching Apix invoices",
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (p *Pipeline) fetchFile(ctx context.Context, company model.Company, fd model.FileDescriptor, report *FetchReport, logger *zap.Logger) {
	if !fd.Ready(p.statusFilter) {
		report.Skipped++
		logger.Debug("Skipping Apix file",
			zap.String("storage_id", fd.StorageID),
			zap.String("storage_status", fd.StorageStatus),
		)
		return
	}

	name := fd.PackageName()
	exists, err := p.records.RecordExists(ctx, name, model.RecordModelInvoice)
	if err != nil {
		report.fail(fmt.Errorf("%s: %w", name, err))
		return
	}
	if exists {
		report.Duplicates++
		logger.Error("Apix attachment already exists for this invoice", zap.String("name", name))
		return
	}

	dl, err := p.transport.Download(ctx, fd)
	if err != nil {
		report.fail(fmt.Errorf("%s: %w", name, err))
		return
	}
	report.Downloaded++

	// The package is kept whatever the outcome so it can be recovered by hand
	pkg := &model.Record{
		Name:     name,
		Model:    model.RecordModelInvoice,
		MimeType: packaging.MimeTypeZip,
		Content:  dl.Body,
	}
	if err := p.records.CreateRecord(ctx, pkg); err != nil {
		report.fail(fmt.Errorf("%s: %w", name, err))
		return
	}

	archive, err := packaging.Open(dl.Body)
	if err != nil {
		perr := model.NewParseError(fd.DocumentID, "package", "could not open apix package", err)
		logger.Error("Could not open Apix package",
			zap.String("document_id", fd.DocumentID),
			zap.String("attachment", name),
			zap.Error(err),
		)
		report.fail(perr)
		return
	}

	ictx := p.importContext(company, true)
	ictx.DocumentID = fd.DocumentID
	result, err := p.importer.ImportPackage(ctx, ictx, archive, fd.DocumentName)
	if err != nil {
		var perr *model.ParseError
		if errors.As(err, &perr) {
			logger.Error("Could not parse finvoice xml",
				zap.String("document_id", fd.DocumentID),
				zap.String("attachment", name),
				zap.Error(err),
			)
		} else {
			logger.Error("Failed to import Apix invoice", zap.String("document_id", fd.DocumentID), zap.Error(err))
		}
		report.fail(err)
		return
	}

	id, err := p.records.SaveImport(ctx, result)
	if err != nil {
		report.fail(err)
		return
	}
	if err := p.records.LinkRecord(ctx, pkg.ID, model.RecordModelInvoice, id); err != nil {
		report.fail(err)
		return
	}

	report.Imported++
	report.ImportIDs = append(report.ImportIDs, id)
}

// FetchAll sweeps every company that has Apix credentials. Companies run in
// parallel; a failing company does not stop the others.
func (p *Pipeline) FetchAll(ctx context.Context) ([]*FetchReport, error) {
	if p.companies == nil {
		return nil, errMissingCompanies
	}

	companies, err := p.companies.ConfiguredCompanies(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*FetchReport, len(companies))
	errs := make([]error, len(companies))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, company := range companies {
		i, company := i, company
		g.Go(func() error {
			report, err := p.FetchPendingForCompany(ctx, company)
			reports[i] = report
			if err != nil {
				p.logger.Error("Apix sweep failed", zap.String("company_id", company.ID), zap.Error(err))
				errs[i] = fmt.Errorf("company %s: %w", company.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}
