package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/finvoice-apix/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server in front of the export and import flows.

The API provides endpoints for:
  - POST /api/v1/export                  - Send an invoice (JSON) to Apix
  - POST /api/v1/import?company=<id>     - Import a Finvoice document or Apix package
  - POST /api/v1/companies/:id/fetch     - Fetch a company's Apix inbox
  - GET  /api/v1/companies/:id/pending   - List a company's Apix inbox
  - GET  /health                         - Health check

Flags override the server section of the configuration.

Examples:
  # Start server on the configured address
  finvoice-apix serve

  # Start on a custom port in debug mode
  finvoice-apix serve --address :9090 --debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 0, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	config := &server.Config{
		Address:      a.cfg.Server.Address,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		Debug:        a.cfg.Server.Debug,
	}
	flags := cmd.Flags()
	if flags.Changed("address") {
		config.Address = serverAddr
	}
	if flags.Changed("debug") {
		config.Debug = serverDebug
	}
	if flags.Changed("read-timeout") {
		config.ReadTimeout = readTimeout
	}
	if flags.Changed("write-timeout") {
		config.WriteTimeout = writeTimeout
	}

	srv := server.NewServer(config, a.pipeline, a.store, a.logger)
	return srv.Run(ctx)
}
