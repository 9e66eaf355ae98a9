package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/processor"
)

var importCompany string

var importCmd = &cobra.Command{
	Use:   "import [file.xml|file.zip...]",
	Short: "Import Finvoice documents or Apix packages",
	Long: `Import Finvoice 3.0 documents received outside the Apix inbox. A file may
be a bare Finvoice XML document or an Apix zip package holding the document
and its attachments.

The document must be addressed to the company given with --company; a
document resolving to another company is rejected.

Examples:
  finvoice-apix import invoice.xml --company 5f0c...
  finvoice-apix import inbox/ --company 5f0c... -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importCompany, "company", "", "Company the documents are imported for (required)")
	_ = importCmd.MarkFlagRequired("company")
}

// ImportFileResult is the outcome of one imported file
type ImportFileResult struct {
	File     string              `json:"file"`
	Imported *processor.Imported `json:"imported,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func runImport(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".xml", ".zip")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to import")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	company, err := a.store.Company(ctx, importCompany)
	if err != nil {
		return err
	}

	results := make([]*ImportFileResult, 0, len(files))
	failed := 0
	for _, file := range files {
		printVerbose("Importing: %s\n", file)
		result := &ImportFileResult{File: file}
		results = append(results, result)

		data, err := os.ReadFile(file)
		if err != nil {
			result.Error = fmt.Sprintf("failed to read file: %v", err)
			failed++
			continue
		}

		imported, err := a.pipeline.Import(ctx, company, data)
		if err != nil {
			result.Error = err.Error()
			failed++
			continue
		}
		result.Imported = imported
	}

	if err := outputImportResults(results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be imported", failed, len(results))
	}
	return nil
}

func outputImportResults(results []*ImportFileResult) error {
	switch outputFormat {
	case "json":
		return printJSON(results)
	case "table":
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tIMPORT\tTYPE\tREF\tPARTNER\tTOTAL\tLINES\tATTACHMENTS")
		fmt.Fprintln(tw, "----\t------\t----\t---\t-------\t-----\t-----\t-----------")
		for _, r := range results {
			if r.Error != "" {
				fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\t\t\n", r.File, r.Error)
				continue
			}
			res := r.Imported.Result
			partner := res.PartnerNote
			if res.Partner != nil {
				partner = res.Partner.Party.Name
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s %s\t%d\t%d\n",
				r.File,
				r.Imported.ID,
				res.MoveType,
				res.Ref,
				partner,
				finvoice.FormatMonetary(res.TotalInclVAT, 2),
				res.Currency,
				len(res.Lines),
				len(res.Attachments),
			)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
