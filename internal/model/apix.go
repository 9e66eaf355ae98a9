package model

import "time"

// Apix storage statuses
const (
	StorageStatusNew        = "NEW"
	StorageStatusUnreceived = "UNRECEIVED"
	StorageStatusReceived   = "RECEIVED"
)

// FileDescriptor describes one pending file returned by the Apix list call
type FileDescriptor struct {
	StorageID     string            `json:"storage_id"`
	StorageKey    string            `json:"-"`
	StorageStatus string            `json:"storage_status"`
	DocumentID    string            `json:"document_id"`
	DocumentName  string            `json:"document_name"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// NewFileDescriptor builds a descriptor from Value type/text pairs
func NewFileDescriptor(values map[string]string) FileDescriptor {
	fd := FileDescriptor{}
	for k, v := range values {
		switch k {
		case "StorageID":
			fd.StorageID = v
		case "StorageKey":
			fd.StorageKey = v
		case "StorageStatus":
			fd.StorageStatus = v
		case "DocumentID":
			fd.DocumentID = v
		case "DocumentName":
			fd.DocumentName = v
		default:
			if fd.Extra == nil {
				fd.Extra = make(map[string]string)
			}
			fd.Extra[k] = v
		}
	}
	return fd
}

// Ready reports whether the file may be downloaded.
// NEW files are never ready; an empty statusFilter accepts any other status.
func (fd FileDescriptor) Ready(statusFilter string) bool {
	if fd.StorageStatus == StorageStatusNew {
		return false
	}
	if statusFilter != "" && fd.StorageStatus != statusFilter {
		return false
	}
	return true
}

// PackageName is the record name of the downloaded package
func (fd FileDescriptor) PackageName() string {
	return "apix_in_invoice_" + fd.StorageID + ".zip"
}

// Record target types
const (
	RecordModelInvoice = "invoice"
)

// Record is a durable attachment record kept by the host application
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	ResID     string    `json:"res_id,omitempty"`
	MimeType  string    `json:"mime_type"`
	Content   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
