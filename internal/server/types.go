package server

import (
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/processor"
)

// ExportResponse is the response for the export endpoint
type ExportResponse struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
	Response string `json:"response"`
}

// ImportResponse is the response for the import endpoint
type ImportResponse struct {
	ID     string              `json:"id"`
	Result *model.ImportResult `json:"result"`
}

// FetchResponse is the response for the fetch endpoint
type FetchResponse struct {
	*processor.FetchReport
	Errors []string `json:"errors,omitempty"`
}

// PendingResponse is the response for the pending endpoint
type PendingResponse struct {
	Files []model.FileDescriptor `json:"files"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}
