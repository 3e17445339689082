package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "Browse and correct stored transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(setCategoryCmd())
	cmd.AddCommand(noteCmd())
	cmd.AddCommand(deleteTransactionCmd())
	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		limit         int
		category      string
		uncategorized bool
		expenses      bool
		fromStr       string
		toStr         string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.TransactionFilter{
				OnlyUncategorized: uncategorized,
				ExpensesOnly:      expenses,
				Limit:             limit,
			}
			if category != "" {
				filter.Category = &category
			}
			if filter.StartDate, err = parseDateFlag(fromStr, "--from"); err != nil {
				return err
			}
			if filter.EndDate, err = parseDateFlag(toStr, "--to"); err != nil {
				return err
			}

			txns, err := store.GetTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to load transactions: %w", err)
			}

			if len(txns) == 0 {
				fmt.Println(cli.FormatInfo("No transactions matched."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Date"),
				cli.HeaderStyle.Render("Merchant"),
				cli.HeaderStyle.Render("Amount"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Note"))
			for _, txn := range txns {
				cat := txn.Category
				switch {
				case txn.IsTransfer:
					cat = cli.SubtleStyle.Render("transfer")
				case cat == "":
					cat = cli.SubtleStyle.Render("(uncategorized)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					txn.ID,
					txn.Date.Format("2006-01-02"),
					txn.DisplayName(),
					cli.FormatAmount(txn.Amount),
					cat,
					txn.Note)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum transactions to show (0 = all)")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().BoolVar(&uncategorized, "uncategorized", false, "only transactions without a category")
	cmd.Flags().BoolVar(&expenses, "expenses", false, "only expenses (negative amounts, excluding transfers)")
	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func setCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-category <transaction-id> <category>",
		Short: "Correct a transaction's category",
		Long: `Set-category recategorizes one transaction and records the correction as a
learned preference for its merchant, so future classification runs put that
merchant in the same category.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := eng.LearnFromCorrection(ctx, args[0], args[1]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recategorized %s as %s", args[0], args[1])))
			return nil
		},
	}
}

func noteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <transaction-id> <text>",
		Short: "Attach a note to a transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetTransactionNote(ctx, args[0], args[1]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Note saved"))
			return nil
		},
	}
}

func deleteTransactionCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransactionByID(ctx, args[0])
			if err != nil {
				return err
			}

			if !force {
				prompt := fmt.Sprintf("Delete %s %s (%s)?",
					txn.Date.Format("2006-01-02"), txn.DisplayName(), cli.FormatAmount(txn.Amount))
				if !confirm(prompt) {
					fmt.Println(cli.FormatInfo("Cancelled."))
					return nil
				}
			}

			if err := store.DeleteTransaction(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Transaction deleted"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	return cmd
}
