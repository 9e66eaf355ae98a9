package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rezonia/finvoice-apix/internal/apix"
	"github.com/rezonia/finvoice-apix/internal/config"
	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/logging"
	"github.com/rezonia/finvoice-apix/internal/pdfrender"
	"github.com/rezonia/finvoice-apix/internal/processor"
	"github.com/rezonia/finvoice-apix/internal/store"
	"github.com/rezonia/finvoice-apix/internal/tax"
)

// app holds the components a command works with
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.SQLite
	client   *apix.Client
	pipeline *processor.Pipeline
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	// stdout carries command output
	if logCfg.OutputPath == "stdout" || logCfg.OutputPath == "" {
		logCfg.OutputPath = "stderr"
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := store.Open(ctx, store.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	client := apix.NewClient(cfg.Environment(), append(cfg.ClientOptions(), apix.WithLogger(logger))...)
	exporter := finvoice.NewExporter(tax.NewCalculator(), pdfrender.NewRenderer(), finvoice.WithExportLogger(logger))
	importer := finvoice.NewImporter(db, logger)

	pipeline := processor.NewPipeline(exporter, importer, client, db,
		processor.WithLogger(logger),
		processor.WithCompanies(db),
		processor.WithStatusFilter(cfg.Apix.StorageStatus),
		processor.WithDefaultCurrency(cfg.Company.DefaultCurrency),
		processor.WithConcurrency(cfg.Sweep.Concurrency),
	)

	printVerbose("Apix environment: %s, database: %s\n", cfg.Environment(), cfg.Database.Path)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    db,
		client:   client,
		pipeline: pipeline,
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
