package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/common"
	"tally/internal/config"
	"tally/internal/service"
	"tally/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export classified transactions",
	}

	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	var (
		fromStr string
		toStr   string
	)

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Export a date range to Google Sheets",
		Long: `Sheets writes the selected date range to the configured Google Sheets
spreadsheet: a summary block, a category breakdown, and the transaction
detail rows. The sheet is cleared and rewritten on every export.

Authentication uses either a service account or OAuth2 credentials from the
sheets.* config keys.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			end := time.Now()
			start := end.AddDate(-1, 0, 0)
			if t, err := parseDateFlag(fromStr, "--from"); err != nil {
				return err
			} else if t != nil {
				start = *t
			}
			if t, err := parseDateFlag(toStr, "--to"); err != nil {
				return err
			} else if t != nil {
				end = *t
			}
			if end.Before(start) {
				return fmt.Errorf("%w: --to is before --from", common.ErrInvalidInput)
			}

			sheetsCfg, err := config.LoadSheetsConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txns, err := store.GetTransactions(ctx, service.TransactionFilter{
				StartDate: &start,
				EndDate:   &end,
			})
			if err != nil {
				return fmt.Errorf("failed to load transactions: %w", err)
			}

			if len(txns) == 0 {
				fmt.Println(cli.FormatInfo("Nothing to export in that range."))
				return nil
			}

			writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
			if err != nil {
				return err
			}

			summary := sheets.BuildSummary(txns, service.DateRange{Start: start, End: end})
			if err := writer.Write(ctx, txns, summary); err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Exported %d transactions (%s to %s)",
				len(txns), start.Format("2006-01-02"), end.Format("2006-01-02"))))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD), default one year ago")
	cmd.Flags().StringVar(&toStr, "to", "", "end date (YYYY-MM-DD), default today")
	return cmd
}
