package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rezonia/finvoice-apix/internal/model"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.JSON", "notes.txt", "sub/c.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	}

	files, err := collectFiles([]string{dir}, ".json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.JSON"),
		filepath.Join(dir, "sub", "c.json"),
	}, files)

	files, err = collectFiles([]string{filepath.Join(dir, "*.txt")}, ".json")
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = collectFiles([]string{filepath.Join(dir, "s*")}, ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sub", "c.json")}, files)

	// Explicit files are taken whatever their extension
	files, err = collectFiles([]string{filepath.Join(dir, "notes.txt")}, ".json")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = collectFiles([]string{filepath.Join(dir, "missing.json")}, ".json")
	assert.Error(t, err)
}

func TestWritePendingReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.xlsx")
	company := model.Company{ID: "c1", Party: model.Party{Name: "Ostaja Oy"}}
	pending := []PendingFile{
		{FileDescriptor: model.FileDescriptor{StorageID: "S1", StorageStatus: "UNRECEIVED", DocumentID: "D1", DocumentName: "d1.xml"}, Ready: true},
		{FileDescriptor: model.FileDescriptor{StorageID: "S2", StorageStatus: "NEW"}, Downloaded: true},
	}

	require.NoError(t, writePendingReport(path, company, pending))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{pendingSheet}, f.GetSheetList())

	rows, err := f.GetRows(pendingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Ostaja Oy", "c1"}, rows[0])
	assert.Equal(t, pendingHeaders, rows[2])
	assert.Equal(t, []string{"S1", "UNRECEIVED", "D1", "d1.xml", "yes", "no"}, rows[3])
	assert.Equal(t, []string{"S2", "NEW", "", "", "no", "yes"}, rows[4])
}
