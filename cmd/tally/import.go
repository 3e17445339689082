package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/common"
	"tally/internal/csvfile"
	"tally/internal/engine"
	"tally/internal/model"
	"tally/internal/ofx"
	"tally/internal/service"
)

func importCmd() *cobra.Command {
	var (
		accountName string
		mapping     = csvfile.DefaultMapping()
	)

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import transactions from OFX/QFX or CSV statements",
		Long: `Import parses one or more statement files, stores the new transactions,
classifies them, and links matched payments to tracked debts. The format is
chosen by extension: .ofx and .qfx files are parsed as OFX, .csv files with
the column mapping flags.

Rows already present in the database are skipped, so re-importing an
overlapping statement is safe.`,
		Args: cobra.MinimumNArgs(1),
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

			total := model.ImportSummary{}
			for _, path := range args {
				summary, err := importFile(ctx, store, eng, path, accountName, mapping)
				if err != nil {
					return err
				}
				total.Imported += summary.Imported
				total.Duplicates += summary.Duplicates
				total.Classified += summary.Classified
				total.Linked += summary.Linked
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Imported %d transactions (%d duplicates skipped, %d classified, %d linked to debts)",
				total.Imported, total.Duplicates, total.Classified, total.Linked)))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountName, "account", "", "account to attach transactions to (default: the statement's own account)")
	cmd.Flags().StringVar(&mapping.DateFormat, "csv-date-format", mapping.DateFormat, "CSV date layout in Go reference form")
	cmd.Flags().IntVar(&mapping.DateColumn, "csv-date-column", mapping.DateColumn, "CSV date column index")
	cmd.Flags().IntVar(&mapping.DescriptionColumn, "csv-description-column", mapping.DescriptionColumn, "CSV description column index")
	cmd.Flags().IntVar(&mapping.AmountColumn, "csv-amount-column", mapping.AmountColumn, "CSV amount column index")
	cmd.Flags().IntVar(&mapping.MerchantColumn, "csv-merchant-column", mapping.MerchantColumn, "CSV merchant column index (-1 = none)")
	cmd.Flags().IntVar(&mapping.SkipRows, "csv-skip-rows", mapping.SkipRows, "header rows to skip")
	cmd.Flags().BoolVar(&mapping.NegateAmounts, "csv-negate", mapping.NegateAmounts, "negate CSV amounts (for exports that list charges as positive)")

	cmd.AddCommand(importHistoryCmd())
	return cmd
}

func importHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past statement imports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.GetStatementImports(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to load import history: %w", err)
			}

			if len(records) == 0 {
				fmt.Println(cli.FormatInfo("No statements imported yet."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("When"),
				cli.HeaderStyle.Render("File"),
				cli.HeaderStyle.Render("Format"),
				cli.HeaderStyle.Render("Imported"),
				cli.HeaderStyle.Render("Duplicates"),
				cli.HeaderStyle.Render("Covers"))
			for _, r := range records {
				covers := ""
				if !r.DateFrom.IsZero() {
					covers = fmt.Sprintf("%s to %s", r.DateFrom.Format("2006-01-02"), r.DateTo.Format("2006-01-02"))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					r.CreatedAt.Format("2006-01-02 15:04"), r.FileName, r.Format, r.Imported, r.Duplicates, covers)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to show (0 = all)")
	return cmd
}

func importFile(ctx context.Context, store service.Storage, eng *engine.Engine, path, accountName string, mapping csvfile.Mapping) (*model.ImportSummary, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var (
		parsed   []model.Transaction
		format   model.StatementFormat
		detected []ofx.SourceAccount
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		format = model.FormatOFX
		parser := ofx.NewParser()
		parsed, err = parser.ParseFile(ctx, f)
		if err == nil {
			// The account listing needs a second pass over the file.
			if _, seekErr := f.Seek(0, io.SeekStart); seekErr == nil {
				detected, _ = parser.GetAccounts(ctx, f)
			}
		}
	case ".csv":
		format = model.FormatCSV
		parser, perr := csvfile.NewParser(mapping)
		if perr != nil {
			return nil, perr
		}
		parsed, err = parser.ParseFile(ctx, f)
	default:
		return nil, fmt.Errorf("%w: unsupported statement extension %q (want .ofx, .qfx, or .csv)",
			common.ErrInvalidInput, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	accountID, err := resolveAccount(ctx, store, accountName, detected)
	if err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if cli.IsTerminal(os.Stdout) && len(parsed) > 0 {
		bar = cli.NewProgressBar(len(parsed), fmt.Sprintf("Importing %s...", filepath.Base(path)))
		eng.SetProgress(func(done, _ int) {
			_ = bar.Set(done)
		})
		defer eng.SetProgress(nil)
	}

	summary, err := eng.Import(ctx, parsed, accountID, filepath.Base(path), format)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}
	if bar != nil {
		// Duplicates never reach classification, so close the gap by hand.
		_ = bar.Finish()
	}
	return summary, nil
}

// resolveAccount picks the account new transactions attach to: the --account
// flag wins, otherwise the statement's own account when the file declares
// exactly one.
func resolveAccount(ctx context.Context, store service.Storage, name string, detected []ofx.SourceAccount) (*int64, error) {
	switch {
	case name != "":
		account, err := store.GetOrCreateAccount(ctx, name, model.AccountTypeOther)
		if err != nil {
			return nil, err
		}
		return &account.ID, nil
	case len(detected) == 1:
		account, err := store.GetOrCreateAccount(ctx, detected[0].ID, detected[0].Type)
		if err != nil {
			return nil, err
		}
		return &account.ID, nil
	default:
		return nil, nil
	}
}
