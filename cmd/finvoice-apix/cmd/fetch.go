package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/finvoice-apix/internal/processor"
)

var fetchCompany string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and import the invoices waiting in Apix",
	Long: `Download the files waiting in the Apix inbox and import them. Without
--company every company with Apix credentials is swept, several companies
in parallel (sweep.concurrency).

Each downloaded package is stored before it is imported, so a file is
never downloaded twice even when its import fails.

Examples:
  finvoice-apix fetch
  finvoice-apix fetch --company 5f0c... -f json`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchCompany, "company", "", "Only fetch this company's inbox")
}

// FetchResult is the JSON form of one company's sweep
type FetchResult struct {
	*processor.FetchReport
	Errors []string `json:"errors,omitempty"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		reports  []*processor.FetchReport
		fetchErr error
	)
	if fetchCompany != "" {
		company, err := a.store.Company(ctx, fetchCompany)
		if err != nil {
			return err
		}
		report, err := a.pipeline.FetchPendingForCompany(ctx, company)
		reports = append(reports, report)
		fetchErr = err
	} else {
		reports, fetchErr = a.pipeline.FetchAll(ctx)
	}

	if err := outputFetchReports(reports); err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if r != nil {
			failed += r.Failed
		}
	}
	if failed > 0 {
		fetchErr = errors.Join(fetchErr, fmt.Errorf("%d files could not be imported", failed))
	}
	return fetchErr
}

func outputFetchReports(reports []*processor.FetchReport) error {
	switch outputFormat {
	case "json":
		out := make([]FetchResult, 0, len(reports))
		for _, r := range reports {
			if r == nil {
				continue
			}
			res := FetchResult{FetchReport: r}
			for _, err := range r.Errors {
				res.Errors = append(res.Errors, err.Error())
			}
			out = append(out, res)
		}
		return printJSON(out)
	case "table":
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COMPANY\tLISTED\tSKIPPED\tDUPLICATES\tDOWNLOADED\tIMPORTED\tFAILED")
		fmt.Fprintln(tw, "-------\t------\t-------\t----------\t----------\t--------\t------")
		for _, r := range reports {
			if r == nil {
				continue
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
				r.CompanyID, r.Listed, r.Skipped, r.Duplicates, r.Downloaded, r.Imported, r.Failed)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		for _, r := range reports {
			if r == nil {
				continue
			}
			for _, err := range r.Errors {
				fmt.Printf("  %s: %v\n", r.CompanyID, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
