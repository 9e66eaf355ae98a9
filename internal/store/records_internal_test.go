package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rezonia/finvoice-apix/internal/model"
)

func TestSQLite_SaveImport_RollsBackOnAttachmentFailure(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Path: MemoryPath}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.db.ExecContext(ctx, `
		CREATE TRIGGER reject_broken BEFORE INSERT ON records
		WHEN NEW.name = 'broken.pdf'
		BEGIN SELECT RAISE(ABORT, 'disk full'); END
	`)
	require.NoError(t, err)

	result := &model.ImportResult{
		Company:  model.Company{ID: "c1"},
		MoveType: model.MoveTypeStandard,
		Ref:      "INV-10",
		Attachments: []model.Attachment{
			{Name: "ok.pdf", Content: []byte("%PDF")},
			{Name: "broken.pdf", Content: []byte("%PDF")},
		},
	}

	_, err = s.SaveImport(ctx, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.pdf")

	var imports, records int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM imports").Scan(&imports))
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&records))
	assert.Zero(t, imports)
	assert.Zero(t, records)
}
