package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate [invoice.json...]",
	Short: "Check invoices before sending them",
	Long: `Check that invoices carry everything a Finvoice 3.0 export needs, without
rendering or uploading anything. The seller is completed from the company
registered under company.id when it exists.

Checks performed, first failure reported:
  - Business IDs of sender, recipient and shipping contact
  - Sender bank accounts
  - Apix transfer id and key of the sender
  - OVT codes of all parties
  - E-invoice addresses and intermediators of sender and recipient

Examples:
  finvoice-apix validate INV_2024_0001.json
  finvoice-apix validate invoices/ -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// ValidationResult is the outcome of checking one invoice file
type ValidationResult struct {
	File    string `json:"file"`
	Invoice string `json:"invoice,omitempty"`
	Valid   bool   `json:"valid"`
	Field   string `json:"field,omitempty"`
	Error   string `json:"error,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".json")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		result := &ValidationResult{File: file}
		results = append(results, result)

		inv, err := readInvoice(file)
		if err == nil {
			result.Invoice = inv.Name
			err = hydrateCompany(cmd, a, inv)
		}
		if err == nil {
			err = finvoice.Validate(inv)
		}

		if err != nil {
			allValid = false
			result.Error = err.Error()
			var verr *model.ValidationError
			if errors.As(err, &verr) {
				result.Field = verr.Field
				result.Error = verr.Message
			}
			continue
		}
		result.Valid = true
	}

	if outputFormat == "json" {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: VALID\n", r.File)
				continue
			}
			fmt.Printf("✗ %s: INVALID\n", r.File)
			if r.Field != "" {
				fmt.Printf("  - %s: %s\n", r.Field, r.Error)
			} else {
				fmt.Printf("  - %s\n", r.Error)
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed")
	}
	return nil
}

// hydrateCompany replaces the seller with the registered company, keeping
// the invoice's own seller when the company is unknown
func hydrateCompany(cmd *cobra.Command, a *app, inv *model.Invoice) error {
	if inv.Company.ID == "" {
		return nil
	}
	company, err := a.store.Company(cmd.Context(), inv.Company.ID)
	if errors.Is(err, store.ErrNotFound) {
		printVerbose("Company %s is not registered, using the invoice's seller\n", inv.Company.ID)
		return nil
	}
	if err != nil {
		return err
	}
	inv.Company = company
	return nil
}
