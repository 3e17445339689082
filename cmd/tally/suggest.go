package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/rules"
	"tally/internal/service"
)

func suggestCmd() *cobra.Command {
	var amount float64

	cmd := &cobra.Command{
		Use:   "suggest <description>",
		Short: "Preview how a description would be categorized",
		Long: `Suggest runs a description through the deterministic rules and through a
naive Bayes model trained on your own categorized history, without touching
the database. Useful for checking a custom rule or seeing what your history
says about a merchant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			description := args[0]

			classifier, err := newRuleClassifier()
			if err != nil {
				return err
			}

			result := classifier.Classify(description, amount)
			if result.Confidence > 0 {
				fmt.Printf("%s %s %s\n",
					cli.BoldStyle.Render("Rule match:"),
					result.Category,
					cli.SubtleStyle.Render(fmt.Sprintf("(merchant %q, confidence %.2f)", result.Merchant, result.Confidence)))
			} else {
				fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("No rule matched; the fallback is %s.", result.Category)))
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			history, err := store.GetTransactions(ctx, service.TransactionFilter{})
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			trained, err := rules.NewHistoryClassifier(history)
			if err != nil {
				fmt.Println(cli.SubtleStyle.Render("Not enough categorized history for suggestions yet."))
				return nil
			}

			suggestions := trained.Suggest(description, 3)
			if len(suggestions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("Your history has no opinion on this one."))
				return nil
			}

			fmt.Println(cli.BoldStyle.Render("From your history:"))
			for i, s := range suggestions {
				fmt.Printf("  %d. %s %s\n",
					i+1, s.Category, cli.SubtleStyle.Render(fmt.Sprintf("(score %.1f)", s.Score)))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", -1, "transaction amount; positive values also try income rules")
	return cmd
}
