// Package finvoicelib provides a public API for sending and receiving
// Finvoice 3.0 e-invoices through the Apix transfer network.
//
// The package exposes the core types and a Client that converts invoices to
// Finvoice documents, uploads them, and imports the documents waiting in a
// company's Apix inbox.
//
// Example usage:
//
//	client, err := finvoicelib.Open(ctx, finvoicelib.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	receipt, err := client.Export(ctx, inv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(receipt.Name)
package finvoicelib

import (
	"github.com/rezonia/finvoice-apix/internal/apix"
	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/processor"
)

// Re-export core types for public API
type (
	Invoice        = model.Invoice
	InvoiceLine    = model.InvoiceLine
	Party          = model.Party
	BankAccount    = model.BankAccount
	Company        = model.Company
	Credentials    = model.Credentials
	Partner        = model.Partner
	Tax            = model.Tax
	TaxLine        = model.TaxLine
	ImportResult   = model.ImportResult
	ImportedLine   = model.ImportedLine
	Attachment     = model.Attachment
	Receipt        = model.Receipt
	FileDescriptor = model.FileDescriptor
	Environment    = apix.Environment
	PDFRenderer    = finvoice.PDFRenderer
)

// Re-export results of the flows
type (
	Imported    = processor.Imported
	BatchResult = processor.BatchResult
	FetchReport = processor.FetchReport
)

// Re-export Apix environments
const (
	EnvironmentTest       = apix.EnvironmentTest
	EnvironmentProduction = apix.EnvironmentProduction
)

// Re-export move types and tax directions
const (
	MoveTypeStandard  = model.MoveTypeStandard
	MoveTypeRefund    = model.MoveTypeRefund
	DirectionSale     = model.DirectionSale
	DirectionPurchase = model.DirectionPurchase
)

// Re-export error types
type (
	ValidationError    = model.ValidationError
	TransportError     = model.TransportError
	ParseError         = model.ParseError
	AuthorizationError = model.AuthorizationError
)

// Validate checks that inv carries everything a Finvoice export needs.
// It returns a *ValidationError naming the first missing field.
func Validate(inv *Invoice) error {
	return finvoice.Validate(inv)
}

// ComputeDigest returns the Apix request digest of values signed with key
func ComputeDigest(values []string, key string) string {
	return apix.ComputeDigest(values, key)
}
