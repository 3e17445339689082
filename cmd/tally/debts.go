package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/common"
	"tally/internal/debt"
	"tally/internal/model"
	"tally/internal/service"
)

func debtsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debts",
		Short: "Track liabilities and the payments against them",
	}

	cmd.AddCommand(listDebtsCmd())
	cmd.AddCommand(addDebtCmd())
	cmd.AddCommand(debtRulesCmd())
	cmd.AddCommand(debtPaymentsCmd())
	return cmd
}

func listDebtsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked debts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			liabilities, err := store.GetLiabilities(ctx)
			if err != nil {
				return fmt.Errorf("failed to load liabilities: %w", err)
			}

			if len(liabilities) == 0 {
				fmt.Println(cli.FormatInfo("No debts tracked. Add one with 'tally debts add'."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Debts"))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Type"),
				cli.HeaderStyle.Render("Balance"),
				cli.HeaderStyle.Render("Original"),
				cli.HeaderStyle.Render("APR"),
				cli.HeaderStyle.Render("Monthly"))

			var totalBalance float64
			for _, l := range liabilities {
				fmt.Fprintf(w, "%d\t%s\t%s\t$%.2f\t$%.2f\t%.2f%%\t$%.2f\n",
					l.ID, l.Name, l.Type, l.CurrentBalance, l.OriginalAmount, l.InterestRate, l.MonthlyPayment)
				totalBalance += l.CurrentBalance
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(cli.BoldStyle.Render(fmt.Sprintf("Total balance: $%.2f", totalBalance)))
			return nil
		},
	}
}

func addDebtCmd() *cobra.Command {
	var (
		typeStr    string
		balance    float64
		original   float64
		rate       float64
		monthly    float64
		excludeNet bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Track a new debt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			liabilityType := model.LiabilityType(typeStr)
			switch liabilityType {
			case model.LiabilityTypeCreditCard, model.LiabilityTypeLoan, model.LiabilityTypeMortgage, model.LiabilityTypeOther:
			default:
				return fmt.Errorf("%w: unknown liability type %q (want credit_card, loan, mortgage, or other)",
					common.ErrInvalidInput, typeStr)
			}
			if balance < 0 {
				return fmt.Errorf("%w: balance cannot be negative", common.ErrInvalidInput)
			}
			if original == 0 {
				original = balance
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			liability, err := store.CreateLiability(ctx, &model.Liability{
				Name:                args[0],
				Type:                liabilityType,
				OriginalAmount:      original,
				CurrentBalance:      balance,
				InterestRate:        rate,
				MonthlyPayment:      monthly,
				ExcludeFromNetWorth: excludeNet,
			})
			if err != nil {
				return fmt.Errorf("failed to create liability: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Tracking %s (id %d) with a balance of $%.2f", liability.Name, liability.ID, liability.CurrentBalance)))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeStr, "type", "loan", "liability type (credit_card, loan, mortgage, other)")
	cmd.Flags().Float64Var(&balance, "balance", 0, "current balance")
	cmd.Flags().Float64Var(&original, "original", 0, "original amount (default: current balance)")
	cmd.Flags().Float64Var(&rate, "rate", 0, "annual interest rate in percent")
	cmd.Flags().Float64Var(&monthly, "monthly-payment", 0, "expected monthly payment")
	cmd.Flags().BoolVar(&excludeNet, "exclude-from-net-worth", false, "exclude this debt from net worth summaries")
	_ = cmd.MarkFlagRequired("balance")
	return cmd
}

func debtRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage payment matching rules",
	}

	cmd.AddCommand(addDebtRuleCmd())
	cmd.AddCommand(listDebtRulesCmd())
	cmd.AddCommand(setDebtRuleActiveCmd("enable", true))
	cmd.AddCommand(setDebtRuleActiveCmd("disable", false))
	return cmd
}

func addDebtRuleCmd() *cobra.Command {
	var (
		liabilityID      int64
		merchantMatch    string
		descriptionMatch string
		description      string
		accountID        int64
		autoApply        bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule that recognizes payments toward a debt",
		Long: `Add creates a matching rule for one liability. Imported expenses whose
merchant or description contains the configured substring become pending
payments on that debt; with --auto-apply they are applied to the balance
immediately.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rule := &model.LiabilityPaymentRule{
				LiabilityID:      liabilityID,
				MerchantMatch:    merchantMatch,
				DescriptionMatch: descriptionMatch,
				Description:      description,
				AutoApply:        autoApply,
				IsActive:         true,
			}
			if accountID != 0 {
				rule.AccountID = &accountID
			}
			if !rule.IsUsable() {
				return fmt.Errorf("%w: at least one of --merchant-match or --description-match is required",
					common.ErrInvalidInput)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			liability, err := store.GetLiabilityByID(ctx, liabilityID)
			if err != nil {
				return fmt.Errorf("failed to look up liability %d: %w", liabilityID, err)
			}

			created, err := store.CreateLiabilityPaymentRule(ctx, rule)
			if err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Rule %d now matches payments toward %s", created.ID, liability.Name)))
			return nil
		},
	}

	cmd.Flags().Int64Var(&liabilityID, "liability", 0, "liability id the rule pays toward")
	cmd.Flags().StringVar(&merchantMatch, "merchant-match", "", "case-insensitive merchant substring")
	cmd.Flags().StringVar(&descriptionMatch, "description-match", "", "case-insensitive description substring")
	cmd.Flags().StringVar(&description, "description", "", "human-readable rule summary")
	cmd.Flags().Int64Var(&accountID, "account", 0, "restrict the rule to one account id")
	cmd.Flags().BoolVar(&autoApply, "auto-apply", false, "apply matched payments to the balance immediately")
	_ = cmd.MarkFlagRequired("liability")
	return cmd
}

func listDebtRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List payment matching rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetLiabilityPaymentRules(ctx, false)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.FormatInfo("No payment rules. Add one with 'tally debts rules add'."))
				return nil
			}

			names, err := liabilityNames(ctx, store)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Liability"),
				cli.HeaderStyle.Render("Matches"),
				cli.HeaderStyle.Render("Auto"),
				cli.HeaderStyle.Render("Active"),
				cli.HeaderStyle.Render("Description"))
			for _, rule := range rules {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					rule.ID,
					names[rule.LiabilityID],
					describeMatchers(rule),
					yesNo(rule.AutoApply),
					yesNo(rule.IsActive),
					rule.Description)
			}
			return w.Flush()
		},
	}
}

func setDebtRuleActiveCmd(verb string, active bool) *cobra.Command {
	short := "Disable a payment rule without deleting it"
	if active {
		short = "Re-enable a disabled payment rule"
	}
	return &cobra.Command{
		Use:   verb + " <rule-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: rule id must be a number, got %q", common.ErrInvalidInput, args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetLiabilityPaymentRuleActive(ctx, id, active); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule %d %sd", id, verb)))
			return nil
		},
	}
}

func debtPaymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Inspect and drive the payment lifecycle",
	}

	cmd.AddCommand(listDebtPaymentsCmd())
	cmd.AddCommand(paymentVerbCmd("apply", "Apply a pending payment to its debt's balance"))
	cmd.AddCommand(paymentVerbCmd("skip", "Skip a pending payment without touching the balance"))
	cmd.AddCommand(paymentVerbCmd("reverse", "Reverse an applied payment, restoring the balance"))
	return cmd
}

func listDebtPaymentsCmd() *cobra.Command {
	var liabilityID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			payments, err := store.GetLiabilityPayments(ctx, liabilityID)
			if err != nil {
				return fmt.Errorf("failed to load payments: %w", err)
			}

			if len(payments) == 0 {
				fmt.Println(cli.FormatInfo("No payments recorded."))
				return nil
			}

			names, err := liabilityNames(ctx, store)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Liability"),
				cli.HeaderStyle.Render("Amount"),
				cli.HeaderStyle.Render("Status"),
				cli.HeaderStyle.Render("Balance After"),
				cli.HeaderStyle.Render("Applied"))
			for _, p := range payments {
				applied := ""
				balanceAfter := ""
				if p.AppliedAt != nil {
					applied = p.AppliedAt.Format("2006-01-02")
				}
				if p.Status == model.PaymentStatusApplied {
					balanceAfter = fmt.Sprintf("$%.2f", p.BalanceAfter)
				}
				fmt.Fprintf(w, "%d\t%s\t$%.2f\t%s\t%s\t%s\n",
					p.ID, names[p.LiabilityID], p.Amount, paymentStatusLabel(p.Status), balanceAfter, applied)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64Var(&liabilityID, "liability", 0, "only payments for this liability id (0 = all)")
	return cmd
}

func paymentVerbCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <payment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: payment id must be a number, got %q", common.ErrInvalidInput, args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager := debt.NewManager(store)

			var payment *model.LiabilityPayment
			switch verb {
			case "apply":
				payment, err = manager.Apply(ctx, id)
			case "skip":
				payment, err = manager.Skip(ctx, id)
			case "reverse":
				payment, err = manager.Reverse(ctx, id)
			}
			if err != nil {
				return err
			}

			liability, err := store.GetLiabilityByID(ctx, payment.LiabilityID)
			if err != nil {
				return err
			}

			switch payment.Status {
			case model.PaymentStatusApplied:
				fmt.Println(cli.FormatSuccess(fmt.Sprintf(
					"Applied $%.2f to %s, balance now $%.2f", payment.Amount, liability.Name, liability.CurrentBalance)))
			case model.PaymentStatusSkipped:
				fmt.Println(cli.FormatSuccess(fmt.Sprintf(
					"Skipped $%.2f payment on %s", payment.Amount, liability.Name)))
			case model.PaymentStatusReversed:
				fmt.Println(cli.FormatSuccess(fmt.Sprintf(
					"Reversed $%.2f on %s, balance now $%.2f", payment.Amount, liability.Name, liability.CurrentBalance)))
			default:
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Payment %d is now %s", payment.ID, payment.Status)))
			}
			return nil
		},
	}
}

// liabilityNames maps liability ids to names for table rendering.
func liabilityNames(ctx context.Context, store service.Storage) (map[int64]string, error) {
	liabilities, err := store.GetLiabilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load liabilities: %w", err)
	}
	names := make(map[int64]string, len(liabilities))
	for _, l := range liabilities {
		names[l.ID] = l.Name
	}
	return names, nil
}

func describeMatchers(rule model.LiabilityPaymentRule) string {
	switch {
	case rule.MerchantMatch != "" && rule.DescriptionMatch != "":
		return fmt.Sprintf("merchant~%q desc~%q", rule.MerchantMatch, rule.DescriptionMatch)
	case rule.MerchantMatch != "":
		return fmt.Sprintf("merchant~%q", rule.MerchantMatch)
	default:
		return fmt.Sprintf("desc~%q", rule.DescriptionMatch)
	}
}

func paymentStatusLabel(status model.PaymentStatus) string {
	switch status {
	case model.PaymentStatusApplied:
		return cli.SuccessStyle.Render(string(status))
	case model.PaymentStatusPending:
		return cli.WarningStyle.Render(string(status))
	case model.PaymentStatusReversed, model.PaymentStatusSkipped:
		return cli.SubtleStyle.Render(string(status))
	default:
		return string(status)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
