package processor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rezonia/finvoice-apix/internal/model"
)

// BatchResult holds the outcome of every invoice of a batch, keyed by BatchKey
type BatchResult struct {
	Receipts map[string]*model.Receipt
	Errors   map[string]error
}

// Failed returns the number of invoices that were not sent
func (r *BatchResult) Failed() int {
	return len(r.Errors)
}

// BatchObserver is called once per finished invoice
type BatchObserver func(name string, err error)

// BatchKey names the i-th entry of a batch: the invoice name, or "#<position>"
// for an entry without one.
func BatchKey(i int, inv *model.Invoice) string {
	if inv == nil || inv.Name == "" {
		return fmt.Sprintf("#%d", i+1)
	}
	return inv.Name
}

// checkBatch rejects nil entries and every entry sharing its name with another
// one, since their outcomes could not be told apart.
func checkBatch(invoices []*model.Invoice) map[int]error {
	counts := make(map[string]int)
	for _, inv := range invoices {
		if inv != nil && inv.Name != "" {
			counts[inv.Name]++
		}
	}

	rejected := make(map[int]error)
	for i, inv := range invoices {
		switch {
		case inv == nil:
			rejected[i] = model.NewValidationError("invoice", "invoice is missing")
		case counts[inv.Name] > 1:
			rejected[i] = model.NewValidationError("name", fmt.Sprintf("invoice name %q appears %d times in the batch", inv.Name, counts[inv.Name]))
		}
	}
	return rejected
}

// ExportBatch exports invoices independently: one failing invoice does not
// stop the others.
func (p *Pipeline) ExportBatch(ctx context.Context, invoices []*model.Invoice, observe BatchObserver) *BatchResult {
	result := &BatchResult{
		Receipts: make(map[string]*model.Receipt),
		Errors:   make(map[string]error),
	}

	rejected := checkBatch(invoices)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, inv := range invoices {
		inv := inv
		key := BatchKey(i, inv)
		if err, ok := rejected[i]; ok {
			result.Errors[key] = err
			p.logger.Error("Rejected batch entry", zap.String("invoice", key), zap.Error(err))
			if observe != nil {
				observe(key, err)
			}
			continue
		}

		g.Go(func() error {
			receipt, err := p.Export(ctx, inv)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[key] = err
				p.logger.Error("Failed to export invoice", zap.String("invoice", key), zap.Error(err))
			} else {
				result.Receipts[key] = receipt
			}
			if observe != nil {
				observe(key, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info("Batch export finished",
		zap.Int("invoices", len(invoices)),
		zap.Int("failed", result.Failed()),
	)
	return result
}
