package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicehub/internal/config"
	"invoicehub/internal/logger"
)

var version = "1.0.0"

// appConfig is loaded once in main and handed to Execute.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "invoicehub",
	Short: "Invoicehub - recognize, convert and report on invoices",
	Long: `Invoicehub recognizes invoice documents (PDF invoices, photographed
receipts and Taiwan e-invoice QR codes), converts their totals to TWD and
stores them keyed by invoice number.

Run "invoicehub serve" for the HTTP API, or use the subcommands to process
files and inspect the stored invoices from the terminal.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Invoicehub CLI executed")

		fmt.Println("Welcome to Invoicehub!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the CLI with the configuration loaded at startup.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")
	appConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
