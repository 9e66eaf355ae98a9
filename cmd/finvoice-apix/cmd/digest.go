package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/finvoice-apix/internal/apix"
)

var digestKey string

var digestCmd = &cobra.Command{
	Use:   "digest [values...]",
	Short: "Compute an Apix request digest",
	Long: `Compute the digest Apix expects in the d parameter: the SHA-256 of the
request values and the transfer key joined with "+". Values are given in
request order. Useful to compare against a failing request.

The key may also be given with FINVOICE_TRANSFER_KEY.

Examples:
  finvoice-apix digest Ahkio 2.0 TRANSFER-ID 20240301091530 --key secret
  finvoice-apix digest TRANSFER-ID 20240301091530`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)

	digestCmd.Flags().StringVar(&digestKey, "key", "", "Transfer key (env: FINVOICE_TRANSFER_KEY)")
}

func runDigest(cmd *cobra.Command, args []string) error {
	key := digestKey
	if key == "" {
		key = os.Getenv("FINVOICE_TRANSFER_KEY")
	}
	if key == "" {
		return fmt.Errorf("a transfer key is required (--key or FINVOICE_TRANSFER_KEY)")
	}

	fmt.Println(apix.ComputeDigest(args, key))
	return nil
}
