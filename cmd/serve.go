package cmd

import (
	"github.com/spf13/cobra"

	"invoicehub/internal/logger"
	"invoicehub/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the invoice HTTP API",
	Long: `Start the HTTP API:

  POST   /process-invoice     upload one invoice (multipart field "file")
  GET    /invoices            list stored invoices, newest invoice date first
  GET    /invoices/:number    fetch one invoice by number
  DELETE /invoices            delete every stored invoice
  GET    /summary             monthly TWD totals
  GET    /healthz, /metrics   health and prometheus metrics

Static files from STATIC_DIR are served on every other path.`,
	Example: `  # Listen on the configured HTTP_ADDR (default :8000)
  invoicehub serve

  # Override the listen address
  invoicehub serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	ctx, cancel := createContextWithTimeout(0, log)
	defer cancel()

	app, err := newApplication(ctx, appConfig, log)
	if err != nil {
		return err
	}
	defer app.Close(log)

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = app.config.HTTPAddr
	}

	srv := server.New(app.service, app.metrics, server.Options{
		Addr:      addr,
		StaticDir: app.config.StaticDir,
	})
	return srv.Run(ctx)
}
