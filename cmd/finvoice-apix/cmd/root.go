package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	// Global flags
	cfgFile      string
	envFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "finvoice-apix",
	Short: "Send and receive Finvoice 3.0 e-invoices through Apix",
	Long: `finvoice-apix converts invoices to Finvoice 3.0 documents, uploads them
to the Apix transfer network and imports the documents waiting in a
company's Apix inbox.

Configuration is read from an optional YAML file and FINVOICE_ prefixed
environment variables. A .env file in the working directory is loaded first.

Examples:
  # Register a company and its Apix credentials
  finvoice-apix company add company.json

  # Send invoices
  finvoice-apix export INV_2024_0001.json INV_2024_0002.json

  # Show what is waiting in the inbox
  finvoice-apix list --company 5f0c... --output pending.xlsx

  # Download and import every configured company's inbox
  finvoice-apix fetch

  # Import a document received some other way
  finvoice-apix import invoice.xml --company 5f0c...`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")

	cobra.OnInitialize(initConfig)
}

// initConfig loads the env file so viper sees its values as environment
func initConfig() {
	if envFile == "" {
		return
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", envFile, err)
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
