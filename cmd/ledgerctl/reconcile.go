package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financehub/internal/reconcile"
)

var (
	flagOwner       string
	flagFix         bool
	flagConcurrency int
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare stored balances with the ledger",
	Long: "Recompute every account balance as opening balance plus the signed sum of its " +
		"transactions and report accounts that disagree. With --fix, drifted balances are rewritten.",
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg, dbManager, err := openDatabase()
	if err != nil {
		return err
	}
	defer dbManager.Close()

	concurrency := flagConcurrency
	if concurrency < 1 {
		concurrency = cfg.Ledger.ReconcileConcurrency
	}

	report, err := reconcile.New(dbManager.DB()).Run(cmd.Context(), reconcile.Options{
		OwnerID:     flagOwner,
		Fix:         flagFix,
		Concurrency: concurrency,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "checked %d account(s) in %s\n", report.Checked, report.Duration)
	if report.Clean() {
		fmt.Fprintln(out, "no drift")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tOWNER\tSTORED\tEXPECTED\tDIFF\tFIXED")
	for _, d := range report.Drifted {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n", d.AccountID, d.OwnerID,
			d.Stored.Format(d.Currency), d.Expected.Format(d.Currency), d.Difference.Format(d.Currency), d.Fixed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !flagFix {
		return fmt.Errorf("%d account(s) drifted; rerun with --fix to repair", len(report.Drifted))
	}
	fmt.Fprintf(out, "repaired %d account(s)\n", report.Fixed)
	return nil
}

func init() {
	reconcileCmd.Flags().StringVar(&flagOwner, "owner", "", "Only check this user's accounts")
	reconcileCmd.Flags().BoolVar(&flagFix, "fix", false, "Rewrite drifted balances")
	reconcileCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", 0, "Accounts checked in parallel (default from RECONCILE_CONCURRENCY)")
	rootCmd.AddCommand(reconcileCmd)
}
