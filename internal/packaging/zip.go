// Package packaging builds and opens the zip envelope Apix transports:
// a Finvoice XML document plus any number of binary attachments.
package packaging

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// MimeTypeZip is the content type of packed envelopes
const MimeTypeZip = "application/zip"

// ErrEntryNotFound is returned by Archive.Lookup for names absent from the package
var ErrEntryNotFound = errors.New("entry not found in package")

// Entry is one named file of a package
type Entry struct {
	Name    string
	Content []byte
}

// Pack writes entries into an in-memory zip, preserving their order
func Pack(entries ...Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		fw, err := zw.Create(e.Name)
		if err != nil {
			return nil, fmt.Errorf("zip: create entry %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Content); err != nil {
			return nil, fmt.Errorf("zip: write entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Archive is an opened package whose entries are read on demand
type Archive struct {
	reader *zip.Reader
}

// Open reads the central directory of a zip held in memory
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip: open archive: %w", err)
	}
	return &Archive{reader: zr}, nil
}

// Names lists the file entries in archive order
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.reader.File))
	for _, f := range a.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// Lookup returns the content of the entry with exactly this name
func (a *Archive) Lookup(name string) ([]byte, error) {
	for _, f := range a.reader.File {
		if f.Name != name {
			continue
		}
		return readFile(f)
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}

// Unpack extracts every file entry of a zip
func Unpack(data []byte) (map[string][]byte, error) {
	a, err := Open(data)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(a.reader.File))
	for _, f := range a.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		content, err := readFile(f)
		if err != nil {
			return nil, err
		}
		files[f.Name] = content
	}
	return files, nil
}

// DetectMimeType sniffs the content type of an attachment
func DetectMimeType(content []byte) string {
	return mimetype.Detect(content).String()
}

// IsZip reports whether content is a zip archive, zip based formats included
func IsZip(content []byte) bool {
	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		if m.Is(MimeTypeZip) {
			return true
		}
	}
	return false
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("zip: open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("zip: read entry %s: %w", f.Name, err)
	}
	return content, nil
}
