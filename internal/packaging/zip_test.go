package packaging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/finvoice-apix/internal/packaging"
)

func TestPackUnpack(t *testing.T) {
	data, err := packaging.Pack(
		packaging.Entry{Name: "INV_2024_0001_finvoice.xml", Content: []byte("<Finvoice/>")},
		packaging.Entry{Name: "INV_2024_0001_finvoice.pdf", Content: []byte("%PDF-1.4\n")},
	)
	require.NoError(t, err)

	files, err := packaging.Unpack(data)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, "<Finvoice/>", string(files["INV_2024_0001_finvoice.xml"]))
}

func TestArchive_Names_PreservesOrder(t *testing.T) {
	data, err := packaging.Pack(
		packaging.Entry{Name: "b.xml", Content: []byte("<b/>")},
		packaging.Entry{Name: "a.pdf", Content: []byte("a")},
	)
	require.NoError(t, err)

	a, err := packaging.Open(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.xml", "a.pdf"}, a.Names())
}

func TestArchive_Lookup(t *testing.T) {
	data, err := packaging.Pack(packaging.Entry{Name: "invoice.xml", Content: []byte("<Finvoice/>")})
	require.NoError(t, err)

	a, err := packaging.Open(data)
	require.NoError(t, err)

	content, err := a.Lookup("invoice.xml")
	require.NoError(t, err)
	assert.Equal(t, "<Finvoice/>", string(content))

	_, err = a.Lookup("missing.pdf")
	require.ErrorIs(t, err, packaging.ErrEntryNotFound)
	assert.Contains(t, err.Error(), "missing.pdf")
}

func TestOpen_NotAZip(t *testing.T) {
	_, err := packaging.Open([]byte("<Response><Status>ERR</Status></Response>"))
	require.Error(t, err)

	_, err = packaging.Unpack([]byte("garbage"))
	require.Error(t, err)
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", packaging.DetectMimeType([]byte("%PDF-1.4\n%âãÏÓ\n")))
	assert.Equal(t, "text/plain; charset=utf-8", packaging.DetectMimeType([]byte("hello")))

	zipped, err := packaging.Pack(packaging.Entry{Name: "x.txt", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, packaging.MimeTypeZip, packaging.DetectMimeType(zipped))
}

func TestIsZip(t *testing.T) {
	zipped, err := packaging.Pack(packaging.Entry{Name: "invoice.xml", Content: []byte("<Finvoice/>")})
	require.NoError(t, err)

	assert.True(t, packaging.IsZip(zipped))
	assert.False(t, packaging.IsZip([]byte(`<?xml version="1.0"?><Finvoice/>`)))
	assert.False(t, packaging.IsZip(nil))
}
