package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rezonia/finvoice-apix/internal/model"
	"github.com/rezonia/finvoice-apix/internal/packaging"
	"github.com/rezonia/finvoice-apix/internal/pdfrender"
	"github.com/rezonia/finvoice-apix/internal/processor"
)

var (
	exportCompany string
	exportSaveDir string
)

var exportCmd = &cobra.Command{
	Use:   "export [invoice.json...]",
	Short: "Send invoices to Apix as Finvoice 3.0",
	Long: `Convert invoices to Finvoice 3.0, render their PDF copy and upload the
package to Apix. Each file holds one invoice as JSON. The seller is taken
from the company registered under company.id; its Apix credentials are
read from the database.

Invoices are sent independently: a failing invoice does not stop the batch.

Examples:
  finvoice-apix export INV_2024_0001.json
  finvoice-apix export invoices/ --save-dir sent/
  finvoice-apix export *.json --company 5f0c... -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportCompany, "company", "", "Send as this company, overriding company.id of every invoice")
	exportCmd.Flags().StringVar(&exportSaveDir, "save-dir", "", "Directory to write the uploaded packages to")
}

// ExportResult is the outcome of one invoice file
type ExportResult struct {
	File    string `json:"file"`
	Invoice string `json:"invoice,omitempty"`
	Package string `json:"package,omitempty"`
	Size    int    `json:"size,omitempty"`
	Pages   int    `json:"pages,omitempty"`
	Error   string `json:"error,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".json")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no invoice files found")
	}
	printVerbose("Found %d invoice files\n", len(files))

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	results := make([]*ExportResult, 0, len(files))
	invoices := make([]*model.Invoice, 0, len(files))
	byName := make(map[string]*ExportResult, len(files))

	for _, file := range files {
		result := &ExportResult{File: file}
		results = append(results, result)

		inv, err := readInvoice(file)
		if err != nil {
			result.Error = err.Error()
			continue
		}
		result.Invoice = inv.Name
		key := processor.BatchKey(len(invoices), inv)
		if _, dup := byName[key]; dup {
			result.Error = fmt.Sprintf("invoice %s appears more than once", inv.Name)
			continue
		}

		if exportCompany != "" {
			inv.Company.ID = exportCompany
		}
		company, err := a.store.Company(ctx, inv.Company.ID)
		if err != nil {
			result.Error = fmt.Sprintf("company %q: %v", inv.Company.ID, err)
			continue
		}
		inv.Company = company

		invoices = append(invoices, inv)
		byName[key] = result
	}

	bar := progressbar.NewOptions(len(invoices),
		progressbar.OptionSetDescription("Exporting invoices"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	batch := a.pipeline.ExportBatch(ctx, invoices, func(string, error) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	for name, err := range batch.Errors {
		byName[name].Error = err.Error()
	}
	for name, receipt := range batch.Receipts {
		result := byName[name]
		result.Package = receipt.Name
		result.Size = len(receipt.Content)
		if pages, err := packagePages(receipt.Content); err == nil {
			result.Pages = pages
		} else {
			printVerbose("Could not count pages of %s: %v\n", receipt.Name, err)
		}

		if exportSaveDir != "" {
			if err := saveReceipt(exportSaveDir, receipt); err != nil {
				result.Error = err.Error()
			}
		}
	}

	if err := outputExportResults(results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d invoices were not sent", failed, len(results))
	}
	return nil
}

func readInvoice(path string) (*model.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var inv model.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("invalid invoice json: %w", err)
	}
	if inv.Name == "" {
		return nil, fmt.Errorf("invoice has no name")
	}
	return &inv, nil
}

// packagePages counts the pages of the PDF copy inside a package
func packagePages(zipData []byte) (int, error) {
	archive, err := packaging.Open(zipData)
	if err != nil {
		return 0, err
	}
	for _, name := range archive.Names() {
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		content, err := archive.Lookup(name)
		if err != nil {
			return 0, err
		}
		return pdfrender.PageCount(content)
	}
	return 0, fmt.Errorf("package has no pdf")
}

func saveReceipt(dir string, receipt *model.Receipt) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, receipt.Name)
	if err := os.WriteFile(path, receipt.Content, 0o644); err != nil {
		return fmt.Errorf("failed to save package: %w", err)
	}
	printVerbose("Saved %s\n", path)
	return nil
}

func outputExportResults(results []*ExportResult) error {
	switch outputFormat {
	case "json":
		return printJSON(results)
	case "table":
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tINVOICE\tPACKAGE\tSIZE\tPAGES")
		fmt.Fprintln(tw, "----\t-------\t-------\t----\t-----")
		for _, r := range results {
			if r.Error != "" {
				fmt.Fprintf(tw, "%s\t%s\tERROR: %s\t\t\n", r.File, r.Invoice, r.Error)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.File, r.Invoice, r.Package, r.Size, r.Pages)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
