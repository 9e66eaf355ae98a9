package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/finvoice-apix/internal/model"
)

var (
	listCompany string
	listOutput  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files waiting in a company's Apix inbox",
	Long: `List the files waiting in a company's Apix inbox without downloading
them. Each file shows whether the next fetch will download it and whether
its package was already downloaded.

Examples:
  finvoice-apix list --company 5f0c...
  finvoice-apix list --company 5f0c... --output pending.xlsx`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listCompany, "company", "", "Company whose inbox is listed (required)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "", "Write an Excel report to this file")
	_ = listCmd.MarkFlagRequired("company")
}

// PendingFile is one inbox entry as reported by list
type PendingFile struct {
	model.FileDescriptor
	Ready      bool `json:"ready"`
	Downloaded bool `json:"downloaded"`
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	company, err := a.store.Company(ctx, listCompany)
	if err != nil {
		return err
	}

	files, err := a.pipeline.Pending(ctx, company)
	if err != nil {
		return err
	}

	pending := make([]PendingFile, 0, len(files))
	for _, fd := range files {
		downloaded, err := a.store.RecordExists(ctx, fd.PackageName(), model.RecordModelInvoice)
		if err != nil {
			return err
		}
		pending = append(pending, PendingFile{
			FileDescriptor: fd,
			Ready:          fd.Ready(a.cfg.Apix.StorageStatus),
			Downloaded:     downloaded,
		})
	}

	if listOutput != "" {
		if err := writePendingReport(listOutput, company, pending); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s (%d files)\n", listOutput, len(pending))
		return nil
	}

	if outputFormat == "json" {
		return printJSON(pending)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STORAGE ID\tSTATUS\tDOCUMENT ID\tDOCUMENT\tREADY\tDOWNLOADED")
	fmt.Fprintln(tw, "----------\t------\t-----------\t--------\t-----\t----------")
	for _, p := range pending {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.StorageID, p.StorageStatus, p.DocumentID, p.DocumentName, yesNo(p.Ready), yesNo(p.Downloaded))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
