package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"invoicehub/internal/logger"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "List stored invoices",
	Long: `List every stored invoice, newest invoice date first. Invoices whose
date could not be recognized are listed last.`,
	Example: `  invoicehub invoices
  invoicehub invoices --json`,
	Args: cobra.NoArgs,
	RunE: runInvoices,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show monthly TWD totals",
	Long: `Aggregate the stored invoices by month. Invoices with an invalid date
still count towards the all-time total; invoices with an invalid amount
count towards nothing. Both are listed as failed records.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every stored invoice",
	Args:  cobra.NoArgs,
	RunE:  runPurge,
}

func init() {
	rootCmd.AddCommand(invoicesCmd, summaryCmd, purgeCmd)

	invoicesCmd.Flags().Bool("json", false, "Output as JSON")
	summaryCmd.Flags().Bool("json", false, "Output as JSON")
	purgeCmd.Flags().Bool("yes", false, "Confirm deletion of all invoices")
}

func runInvoices(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoices")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := createContextWithTimeout(30, log)
	defer cancel()

	app, err := newApplication(ctx, appConfig, log)
	if err != nil {
		return err
	}
	defer app.Close(log)

	invoices, err := app.service.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list invoices")
		return fmt.Errorf("failed to list invoices: %w", err)
	}

	if jsonOutput {
		return printJSON(invoices, log)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tDATE\tAMOUNT\tCURRENCY\tTWD\tRATE\tTYPE\tCOMPANY")
	for _, inv := range invoices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.InvoiceNumber,
			orDash(inv.InvoiceDateISO),
			inv.TotalAmount,
			inv.Currency,
			formatFloat(inv.TotalAmountTWD, "%.2f"),
			formatFloat(inv.ExchangeRateUsed, "%.4f"),
			inv.Type,
			orDash(inv.CompanyName),
		)
	}
	return w.Flush()
}

func runSummary(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("summary")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := createContextWithTimeout(30, log)
	defer cancel()

	app, err := newApplication(ctx, appConfig, log)
	if err != nil {
		return err
	}
	defer app.Close(log)

	summary, err := app.service.Summary(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to summarize invoices")
		return fmt.Errorf("failed to summarize invoices: %w", err)
	}

	if jsonOutput {
		return printJSON(summary, log)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tTOTAL TWD")
	for _, m := range summary.Monthly {
		fmt.Fprintf(w, "%s\t%.2f\n", m.Month, m.TotalTWD)
	}
	fmt.Fprintf(w, "ALL TIME\t%.2f\n", summary.TotalAllTime)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nProcessed %d of %d invoices\n", summary.ProcessedCount, summary.TotalCount)
	for _, f := range summary.Failed {
		fmt.Printf("  skipped %s: %s\n", f.Identifier, f.Reason)
	}
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("purge")

	confirmed, _ := cmd.Flags().GetBool("yes")
	if !confirmed {
		return fmt.Errorf("refusing to delete all invoices without --yes")
	}

	ctx, cancel := createContextWithTimeout(30, log)
	defer cancel()

	app, err := newApplication(ctx, appConfig, log)
	if err != nil {
		return err
	}
	defer app.Close(log)

	n, err := app.service.DeleteAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete invoices")
		return fmt.Errorf("failed to delete invoices: %w", err)
	}

	fmt.Printf("Deleted %d invoices\n", n)
	return nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatFloat(f *float64, format string) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf(format, *f)
}
