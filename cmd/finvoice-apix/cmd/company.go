package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/finvoice-apix/internal/model"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage invoicing companies and their Apix credentials",
}

var companyAddCmd = &cobra.Command{
	Use:   "add [company.json]",
	Short: "Register or update a company",
	Long: `Register a company from a JSON file. Besides the company fields the file
may carry the Apix transfer credentials and the company's taxes, which
are used to map imported VAT rates.

Example file:
  {
    "id": "ahkio",
    "currency": "EUR",
    "party": {"name": "Pähkinä Oy", "company_registry": "1234567-8",
              "organisation_unit_number": "003712345678",
              "bank_accounts": [{"iban": "FI2112345600000785", "bic": "NDEAFIHH"}]},
    "transfer_id": "...",
    "transfer_key": "...",
    "taxes": [{"name": "ALV 24% (osto)", "percent": "24", "direction": "purchase"}]
  }`,
	Args: cobra.ExactArgs(1),
	RunE: runCompanyAdd,
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered companies",
	Args:  cobra.NoArgs,
	RunE:  runCompanyList,
}

var partnerCmd = &cobra.Command{
	Use:   "partner",
	Short: "Manage trading partners",
}

var partnerAddCmd = &cobra.Command{
	Use:   "add [partner.json]",
	Short: "Register or update a trading partner",
	Args:  cobra.ExactArgs(1),
	RunE:  runPartnerAdd,
}

func init() {
	companyCmd.AddCommand(companyAddCmd, companyListCmd)
	partnerCmd.AddCommand(partnerAddCmd)
	rootCmd.AddCommand(companyCmd, partnerCmd)
}

// companyFile is the on-disk form of a company; credentials are not part
// of the company's JSON form
type companyFile struct {
	model.Company
	TransferID  string      `json:"transfer_id"`
	TransferKey string      `json:"transfer_key"`
	Taxes       []model.Tax `json:"taxes,omitempty"`
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid json in %s: %w", path, err)
	}
	return nil
}

func runCompanyAdd(cmd *cobra.Command, args []string) error {
	var file companyFile
	if err := readJSON(args[0], &file); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	company := file.Company
	company.Credentials = model.Credentials{TransferID: file.TransferID, TransferKey: file.TransferKey}
	if company.Currency == "" {
		company.Currency = a.cfg.Company.DefaultCurrency
	}
	if err := a.store.SaveCompany(ctx, &company); err != nil {
		return err
	}

	for i := range file.Taxes {
		if err := a.store.SaveTax(ctx, company.ID, &file.Taxes[i]); err != nil {
			return err
		}
	}

	fmt.Printf("Company %s saved as %s (%d taxes)\n", company.Party.Name, company.ID, len(file.Taxes))
	if !company.Credentials.Configured() {
		fmt.Fprintln(os.Stderr, "Warning: Apix credentials are missing, the company is left out of fetch")
	}
	return nil
}

func runCompanyList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	companies, err := a.store.Companies(ctx)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(companies)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tY-TUNNUS\tOVT\tAPIX")
	fmt.Fprintln(tw, "--\t----\t--------\t---\t----")
	for _, c := range companies {
		apixState := "no credentials"
		if c.Credentials.Configured() {
			apixState = "configured"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Party.Name, c.Party.CompanyRegistry, c.Party.OrganisationUnitNumber, apixState)
	}
	return tw.Flush()
}

func runPartnerAdd(cmd *cobra.Command, args []string) error {
	var partner model.Partner
	if err := readJSON(args[0], &partner); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.SavePartner(ctx, &partner); err != nil {
		return err
	}
	fmt.Printf("Partner %s saved as %s\n", partner.Party.Name, partner.ID)
	return nil
}
