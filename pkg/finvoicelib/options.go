package finvoicelib

import (
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/finvoice-apix/internal/apix"
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/processor"
	"github.com/rezonia/finvoice-apix/internal/store"
)

// Options configures a Client
type Options struct {
	// Apix
	Environment Environment
	BaseURL     string // Replaces the environment's hosts when set
	Timeout     time.Duration
	Software    string
	Version     string

	// Inbox
	StatusFilter    string // Storage status a file must have to be downloaded; empty accepts all but NEW
	DefaultCurrency string
	Concurrency     int

	// DatabasePath is the sqlite file holding companies, partners, taxes and
	// records. ":memory:" keeps everything in memory.
	DatabasePath string

	// PDFRenderer draws the printable copy; nil uses the built-in renderer
	PDFRenderer PDFRenderer

	Logger *zap.Logger
}

// DefaultOptions returns default client options
func DefaultOptions() Options {
	return Options{
		Environment:     EnvironmentProduction,
		Timeout:         apix.DefaultTimeout,
		Software:        apix.DefaultSoftware,
		Version:         apix.DefaultVersion,
		StatusFilter:    model.StorageStatusUnreceived,
		DefaultCurrency: "EUR",
		Concurrency:     processor.DefaultConcurrency,
		DatabasePath:    "finvoice.db",
	}
}

// MemoryDatabase keeps the client's data in memory
const MemoryDatabase = store.MemoryPath
