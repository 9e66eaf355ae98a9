package processor_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rezonia/finvoice-apix/internal/apix"
	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/processor"
	"github.com/rezonia/finvoice-apix/internal/store"
	"github.com/rezonia/finvoice-apix/internal/tax"
)

var exportTime = time.Date(2024, 3, 1, 9, 15, 30, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var vat24 = model.Tax{ID: "s24", AmountType: model.AmountTypePercent, Percent: decimal.NewFromInt(24), Direction: model.DirectionSale}

func sellerParty() model.Party {
	return model.Party{
		Name:                   "Myyjä Oy",
		CompanyRegistry:        "1234567-8",
		VAT:                    "FI12345678",
		OrganisationUnitNumber: "003712345678",
		EInvoiceAddress:        "003712345678",
		EInvoiceIntermediator:  "003723327487",
		BankAccounts:           []model.BankAccount{{IBAN: "FI2112345600000785", BIC: "NDEAFIHH"}},
	}
}

func buyerParty() model.Party {
	return model.Party{
		Name:                   "Ostaja Oy",
		CompanyRegistry:        "7654321-0",
		VAT:                    "FI76543210",
		OrganisationUnitNumber: "003776543210",
		EInvoiceAddress:        "003776543210",
		EInvoiceIntermediator:  "003723327487",
	}
}

func invoice(name string) *model.Invoice {
	return &model.Invoice{
		Name:         name,
		Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Currency:     "EUR",
		TotalExclVAT: d("250"),
		TotalVAT:     d("60"),
		TotalInclVAT: d("310"),
		Company: model.Company{
			ID:          "seller",
			Party:       sellerParty(),
			Credentials: model.Credentials{TransferID: "SELLER", TransferKey: "seller-key"},
		},
		Buyer: buyerParty(),
		Lines: []model.InvoiceLine{
			{Description: "Consulting", Quantity: d("2"), UnitPrice: d("100"), Taxes: []model.Tax{vat24}},
			{Description: "Support", Quantity: d("1"), UnitPrice: d("50"), Taxes: []model.Tax{vat24}},
		},
	}
}

type stubPDF struct{}

func (stubPDF) RenderPDF(ctx context.Context, inv *model.Invoice) ([]byte, error) {
	return []byte("%PDF-1.4\n" + inv.Name), nil
}

// fakeTransport is an Apix inbox kept in memory, keyed by transfer id
type fakeTransport struct {
	mu sync.Mutex

	uploads   [][]byte
	uploadErr error

	files   map[string][]model.FileDescriptor
	listErr map[string]error

	packages  map[string][]byte // by storage id
	status    int
	downloads []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		files:    make(map[string][]model.FileDescriptor),
		listErr:  make(map[string]error),
		packages: make(map[string][]byte),
		status:   http.StatusOK,
	}
}

func (f *fakeTransport) Upload(ctx context.Context, zipData []byte, creds model.Credentials) (*apix.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, zipData)
	return &apix.UploadResult{StatusCode: http.StatusOK, Body: "<Response><Status>OK</Status></Response>"}, nil
}

func (f *fakeTransport) List(ctx context.Context, creds model.Credentials) ([]model.FileDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[creds.TransferID]; err != nil {
		return nil, err
	}
	return f.files[creds.TransferID], nil
}

func (f *fakeTransport) Download(ctx context.Context, fd model.FileDescriptor) (*apix.DownloadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, fd.StorageID)
	return &apix.DownloadResult{StatusCode: f.status, Body: f.packages[fd.StorageID]}, nil
}

func (f *fakeTransport) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeTransport) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.downloads)
}

type fixture struct {
	store     *store.SQLite
	transport *fakeTransport
	pipeline  *processor.Pipeline
	logs      *observer.ObservedLogs
	buyer     model.Company
}

// newFixture sets up a buyer company that knows the seller as a partner
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	s, err := store.Open(ctx, store.Config{Path: store.MemoryPath}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	buyer := model.Company{
		Party:       buyerParty(),
		Credentials: model.Credentials{TransferID: "BUYER", TransferKey: "buyer-key"},
		Currency:    "EUR",
	}
	require.NoError(t, s.SaveCompany(ctx, &buyer))
	require.NoError(t, s.SavePartner(ctx, &model.Partner{Party: sellerParty()}))
	require.NoError(t, s.SaveTax(ctx, buyer.ID, &model.Tax{Name: "Purchase 24%", Percent: decimal.NewFromInt(24), Direction: model.DirectionPurchase}))

	transport := newFakeTransport()
	exporter := finvoice.NewExporter(tax.NewCalculator(), stubPDF{},
		finvoice.WithClock(func() time.Time { return exportTime }),
	)
	importer := finvoice.NewImporter(s, logger)

	p := processor.NewPipeline(exporter, importer, transport, s,
		processor.WithLogger(logger),
		processor.WithCompanies(s),
	)

	return &fixture{store: s, transport: transport, pipeline: p, logs: logs, buyer: buyer}
}

// deliver exports inv and places the uploaded package in the buyer's inbox
func (f *fixture) deliver(t *testing.T, inv *model.Invoice, storageID, status string) {
	t.Helper()
	_, err := f.pipeline.Export(context.Background(), inv)
	require.NoError(t, err)

	f.transport.mu.Lock()
	defer f.transport.mu.Unlock()
	f.transport.packages[storageID] = f.transport.uploads[len(f.transport.uploads)-1]
	f.transport.files["BUYER"] = append(f.transport.files["BUYER"], model.FileDescriptor{
		StorageID:     storageID,
		StorageKey:    "sk-" + storageID,
		StorageStatus: status,
		DocumentID:    "DOC-" + storageID,
		DocumentName:  finvoice.XMLName(inv.Name),
	})
}
