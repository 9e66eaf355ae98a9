package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/packaging"
	"github.com/rezonia/finvoice-apix/internal/pdfrender"
	"github.com/rezonia/finvoice-apix/internal/xmlpath"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about Finvoice documents and Apix packages",
	Long: `Display information about files without importing them.

Shows:
  - Detected content type
  - Package entries for Apix zip packages
  - Invoice number, date, parties and total of Finvoice documents
  - Page count of PDF copies

Examples:
  finvoice-apix info invoice.xml
  finvoice-apix info sent/*.zip`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".xml", ".zip", ".pdf")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	for _, file := range files {
		printFileInfo(file)
		fmt.Println()
	}

	return nil
}

func printFileInfo(filePath string) {
	fmt.Printf("File: %s\n", filePath)

	info, err := os.Stat(filePath)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}
	fmt.Printf("  Size: %d bytes\n", info.Size())
	fmt.Printf("  Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Printf("  Error reading file: %v\n", err)
		return
	}
	printContentInfo("  ", filePath, data)
}

func printContentInfo(indent, name string, data []byte) {
	fmt.Printf("%sType: %s\n", indent, packaging.DetectMimeType(data))

	switch {
	case packaging.IsZip(data):
		archive, err := packaging.Open(data)
		if err != nil {
			fmt.Printf("%sError: %v\n", indent, err)
			return
		}
		for _, entry := range archive.Names() {
			fmt.Printf("%sEntry: %s\n", indent, entry)
			content, err := archive.Lookup(entry)
			if err != nil {
				fmt.Printf("%s  Error: %v\n", indent, err)
				continue
			}
			printContentInfo(indent+"  ", entry, content)
		}

	case strings.EqualFold(filepath.Ext(name), ".pdf"):
		pages, err := pdfrender.PageCount(data)
		if err != nil {
			fmt.Printf("%sError: %v\n", indent, err)
			return
		}
		fmt.Printf("%sPages: %d\n", indent, pages)

	case strings.EqualFold(filepath.Ext(name), ".xml"):
		printFinvoiceInfo(indent, data)
	}
}

var finvoiceSummary = []struct {
	label string
	path  string
}{
	{"Invoice", finvoice.PathInvoiceNumber},
	{"Date", finvoice.PathInvoiceDate},
	{"Due date", finvoice.PathInvoiceDueDate},
	{"Seller", finvoice.PathSellerIdentifier},
	{"Seller OVT", finvoice.PathSellerOVT},
	{"Buyer", finvoice.PathBuyerIdentifier},
	{"Recipient OVT", finvoice.PathInvoiceRecipientOVT},
	{"Total", finvoice.PathInvoiceTotal},
	{"Attachment", finvoice.PathInvoiceURL},
}

func printFinvoiceInfo(indent string, data []byte) {
	doc, err := xmlpath.Parse(data)
	if err != nil {
		fmt.Printf("%sError: %v\n", indent, err)
		return
	}
	if doc.Root().Tag() != "Finvoice" {
		fmt.Printf("%sNot a Finvoice document (root %s)\n", indent, doc.Root().Tag())
		return
	}

	for _, s := range finvoiceSummary {
		if value, ok := doc.Text(s.path); ok {
			fmt.Printf("%s%s: %s\n", indent, s.label, value)
		}
	}
	fmt.Printf("%sRows: %d\n", indent, len(doc.All(finvoice.PathInvoiceRow)))
}
