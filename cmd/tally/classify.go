package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/debt"
	"tally/internal/service"
)

func classifyCmd() *cobra.Command {
	var (
		dryRun bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify stored uncategorized transactions",
		Long: `Classify runs the classification pipeline over transactions that have no
category yet: AI batches when a provider is configured, deterministic rules
otherwise. Classified expenses are also matched against debt payment rules.

With --dry-run the proposed categories are printed without saving anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, cleanup, err := newEngine(store)
			if err != nil {
				return err
			}
			defer cleanup()

			txns, err := store.GetTransactions(ctx, service.TransactionFilter{
				OnlyUncategorized: true,
				Limit:             limit,
			})
			if err != nil {
				return fmt.Errorf("failed to load transactions: %w", err)
			}

			if len(txns) == 0 {
				fmt.Println(cli.FormatInfo("Nothing to classify."))
				return nil
			}

			if cli.IsTerminal(os.Stdout) && !dryRun {
				bar := cli.NewProgressBar(len(txns), "Classifying transactions...")
				eng.SetProgress(func(done, _ int) {
					_ = bar.Set(done)
				})
				defer eng.SetProgress(nil)
			}

			results := eng.Classify(ctx, txns)
			if err := ctx.Err(); err != nil {
				return err
			}

			if dryRun {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					cli.HeaderStyle.Render("Date"),
					cli.HeaderStyle.Render("Description"),
					cli.HeaderStyle.Render("Amount"),
					cli.HeaderStyle.Render("Category"),
					cli.HeaderStyle.Render("Confidence"))
				for i, txn := range txns {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n",
						txn.Date.Format("2006-01-02"),
						txn.DisplayName(),
						cli.FormatAmount(txn.Amount),
						results[i].Category,
						results[i].Confidence)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Println(cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions left unchanged", len(txns))))
				return nil
			}

			manager := debt.NewManager(store)
			classified := 0
			linked := 0
			for i := range txns {
				if err := ctx.Err(); err != nil {
					return err
				}

				if err := store.UpdateTransactionClassification(ctx, txns[i].ID, results[i]); err != nil {
					return fmt.Errorf("failed to save classification for %s: %w", txns[i].ID, err)
				}
				classified++

				txns[i].Category = results[i].Category
				txns[i].Merchant = results[i].Merchant
				txns[i].IsTransfer = results[i].IsTransfer
				if !txns[i].IsExpense() {
					continue
				}
				payment, err := manager.ProcessTransaction(ctx, txns[i], results[i].LiabilityID)
				if err != nil {
					slog.Warn("liability linking failed",
						"transaction_id", txns[i].ID,
						"error", err)
					continue
				}
				if payment != nil {
					linked++
				}
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Classified %d transactions (%d linked to debts)", classified, linked)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print proposed categories without saving")
	cmd.Flags().IntVar(&limit, "limit", 0, "classify at most this many transactions (0 = all)")
	return cmd
}
