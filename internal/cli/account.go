package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/debtbook/internal/money"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect account totals",
	}
	cmd.AddCommand(newAccountShowCmd(a), newAccountTransactionsCmd(a), newAccountReconcileCmd(a))
	return cmd
}

func newAccountShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the account's cached totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			acct, err := l.GetAccount(cmd.Context(), sess)
			if err != nil {
				return err
			}
			return printAccount(cmd.OutOrStdout(), acct)
		},
	}
}

func newAccountTransactionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"log"},
		Short:   "Show the account's audit trail",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			txns, err := l.ListTransactions(cmd.Context(), sess)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tDEBT\tDESCRIPTION")
			for _, t := range txns {
				debt := "-"
				if t.DebtID != 0 {
					debt = fmt.Sprintf("#%d", t.DebtID)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, formatDate(t.CreatedAt), t.Type, t.Amount, debt, orDash(t.Description))
			}
			return w.Flush()
		},
	}
}

func newAccountReconcileCmd(a *app) *cobra.Command {
	var repair bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check cached totals against the debts",
		Long: `Recompute what the account owes and is owed from its debts and
compare with the cached totals. With --repair, drifted totals are
overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := l.Reconcile(cmd.Context(), sess, repair)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !rec.Drift() {
				fmt.Fprintf(out, "Account #%d is consistent\n", rec.AccountID)
				return nil
			}
			w := newTable(out)
			fmt.Fprintln(w, "\tCACHED\tEXPECTED")
			fmt.Fprintf(w, "I owe\t%s\t%s\n", rec.Cached.DebtAmount, rec.Expected.DebtAmount)
			fmt.Fprintf(w, "Owed to me\t%s\t%s\n", rec.Cached.DebtedAmount, rec.Expected.DebtedAmount)
			if err := w.Flush(); err != nil {
				return err
			}
			if repair {
				fmt.Fprintf(out, "Account #%d repaired\n", rec.AccountID)
			} else {
				fmt.Fprintln(out, "Run with --repair to fix")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "Overwrite drifted totals")
	return cmd
}

func newIncomeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Record income",
	}

	var description string
	record := &cobra.Command{
		Use:   "record AMOUNT",
		Short: "Add income to the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := money.Parse(args[0])
			if err != nil {
				return err
			}
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			res, err := l.RecordIncome(cmd.Context(), sess, amount, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded income of %s\n", res.Transaction.Amount)
			return printAccount(cmd.OutOrStdout(), res.Account)
		},
	}
	record.Flags().StringVar(&description, "description", "", "What the income is")
	cmd.AddCommand(record)
	return cmd
}
