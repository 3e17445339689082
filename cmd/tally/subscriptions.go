package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/model"
	"tally/internal/recurring"
)

func subscriptionsCmd() *cobra.Command {
	var (
		months int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Detect recurring subscription charges",
		Long: `Subscriptions scans transactions categorized as ` + model.SubscriptionCategory + `,
merges spelling variants of the same merchant, and infers each merchant's
billing cycle from its payment spacing. Nothing is persisted; the listing is
recomputed from history on every run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			subs, err := recurring.Detect(ctx, store, recurring.Options{Window: months, Limit: limit})
			if err != nil {
				return fmt.Errorf("failed to detect subscriptions: %w", err)
			}

			if len(subs) == 0 {
				fmt.Println(cli.FormatInfo(fmt.Sprintf(
					"No subscriptions found. Transactions categorized as %q feed this listing.",
					model.SubscriptionCategory)))
				return nil
			}

			fmt.Println(cli.FormatTitle("Subscriptions"))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Merchant"),
				cli.HeaderStyle.Render("Cycle"),
				cli.HeaderStyle.Render("Avg Charge"),
				cli.HeaderStyle.Render("Monthly"),
				cli.HeaderStyle.Render("Payments"),
				cli.HeaderStyle.Render("Last Seen"))

			var totalMonthly float64
			overridden := false
			for _, sub := range subs {
				cycle := string(sub.Cycle)
				if sub.CycleOverridden {
					cycle += " *"
					overridden = true
				}
				fmt.Fprintf(w, "%s\t%s\t$%.2f\t$%.2f\t%d\t%s\n",
					sub.Merchant,
					cycle,
					sub.AverageAmount,
					sub.MonthlyAmount,
					sub.PaymentCount,
					sub.LastSeen.Format("2006-01-02"))
				totalMonthly += sub.MonthlyAmount
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if overridden {
				fmt.Println(cli.SubtleStyle.Render("* cycle pinned manually"))
			}
			fmt.Println()
			fmt.Println(cli.BoldStyle.Render(fmt.Sprintf("Estimated monthly spend: $%.2f", totalMonthly)))
			return nil
		},
	}

	cmd.Flags().IntVar(&months, "months", 12, "months of history to scan")
	cmd.Flags().IntVar(&limit, "limit", 30, "maximum subscriptions to show")

	cmd.AddCommand(setCycleCmd())
	return cmd
}

func setCycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-cycle <transaction-id> <monthly|quarterly|annual|auto>",
		Short: "Pin or clear a subscription's billing cycle",
		Long: `Set-cycle pins the billing cycle on one of a subscription's transactions.
The detector then reports that cycle for the merchant instead of inferring it
from payment spacing. Pass "auto" to clear the pin and return to inference.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var cycle *model.BillingCycle
			if args[1] != "auto" {
				parsed, err := model.ParseBillingCycle(args[1])
				if err != nil {
					return err
				}
				cycle = &parsed
			}

			if err := store.SetTransactionBillingCycle(ctx, args[0], cycle); err != nil {
				return err
			}

			if cycle == nil {
				fmt.Println(cli.FormatSuccess("Billing cycle cleared, back to inference"))
			} else {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Billing cycle pinned to %s", *cycle)))
			}
			return nil
		},
	}
}
