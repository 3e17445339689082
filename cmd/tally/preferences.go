package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/common"
	"tally/internal/model"
)

func preferencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preferences",
		Aliases: []string{"prefs"},
		Short:   "Manage classification preferences",
		Long: `Preferences are plain-language instructions injected into every AI
classification prompt, e.g. "Costco is always Groceries". Corrections made
with 'tally transactions set-category' appear here as learned preferences.`,
	}

	cmd.AddCommand(listPreferencesCmd())
	cmd.AddCommand(addPreferenceCmd())
	cmd.AddCommand(rmPreferenceCmd())
	return cmd
}

func listPreferencesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List classification preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			prefs, err := store.GetUserPreferences(ctx)
			if err != nil {
				return fmt.Errorf("failed to load preferences: %w", err)
			}

			if len(prefs) == 0 {
				fmt.Println(cli.FormatInfo("No preferences. Add one with 'tally preferences add'."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Source"),
				cli.HeaderStyle.Render("Instruction"))
			for _, p := range prefs {
				fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Source, p.Instruction)
			}
			return w.Flush()
		},
	}
}

func addPreferenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <instruction>",
		Short: "Add a classification preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			pref, err := store.AddUserPreference(ctx, args[0], model.PreferenceSourceUser)
			if err != nil {
				return fmt.Errorf("failed to add preference: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Preference %d saved", pref.ID)))
			return nil
		},
	}
}

func rmPreferenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a classification preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: preference id must be a number, got %q", common.ErrInvalidInput, args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteUserPreference(ctx, id); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Preference %d removed", id)))
			return nil
		},
	}
}
