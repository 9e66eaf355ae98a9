package apix

import (
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/xmlpath"
)

// Envelope paths
const (
	pathStatus = "/Response/Status"
	pathGroups = "/Response/Content/Group"
	pathValue  = "Value"
	attrType   = "type"
)

// StatusOK is the only successful envelope status
const StatusOK = "OK"

// checkEnvelope parses an XML response and requires /Response/Status == OK.
// Every failure carries the raw body.
func checkEnvelope(operation string, statusCode int, body []byte) (*xmlpath.Document, error) {
	doc, err := xmlpath.Parse(body)
	if err != nil {
		return nil, model.NewTransportError(operation, statusCode, string(body), err)
	}

	status, _ := doc.Text(pathStatus)
	if status != StatusOK {
		return nil, model.NewTransportError(operation, statusCode, string(body), nil)
	}
	return doc, nil
}

// fileDescriptors reads every Content/Group as a file descriptor
func fileDescriptors(doc *xmlpath.Document) []model.FileDescriptor {
	groups := doc.All(pathGroups)
	files := make([]model.FileDescriptor, 0, len(groups))
	for _, g := range groups {
		values := make(map[string]string)
		for _, v := range g.All(pathValue) {
			name, ok := v.Attr(attrType)
			if !ok {
				continue
			}
			values[name] = v.Text()
		}
		files = append(files, model.NewFileDescriptor(values))
	}
	return files
}
