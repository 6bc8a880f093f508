package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mmynk/debtbook/internal/models"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printDebts(out io.Writer, debts []*models.Debt) error {
	if len(debts) == 0 {
		fmt.Fprintln(out, "No debts.")
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tCONTACT\tDIRECTION\tAMOUNT\tPAID\tREMAINING\tSTATUS\tDUE\tREASON")
	for _, d := range debts {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.ContactID, d.Direction, d.Amount, d.Paid, d.Remaining(),
			d.Status(), formatDate(d.DueDate), orDash(d.Reason))
	}
	return w.Flush()
}

func printDebt(out io.Writer, d *models.Debt) error {
	w := newTable(out)
	fmt.Fprintf(w, "Debt\t#%d\n", d.ID)
	fmt.Fprintf(w, "Direction\t%s\n", d.Direction)
	fmt.Fprintf(w, "Amount\t%s\n", d.Amount)
	fmt.Fprintf(w, "Paid\t%s\n", d.Paid)
	fmt.Fprintf(w, "Remaining\t%s\n", d.Remaining())
	fmt.Fprintf(w, "Status\t%s\n", d.Status())
	fmt.Fprintf(w, "Due\t%s\n", formatDate(d.DueDate))
	fmt.Fprintf(w, "Reason\t%s\n", orDash(d.Reason))
	return w.Flush()
}

func printAccount(out io.Writer, acct *models.Account) error {
	w := newTable(out)
	fmt.Fprintf(w, "Account\t#%d %s (%s)\n", acct.ID, acct.Name, acct.Type)
	fmt.Fprintf(w, "Currency\t%s\n", acct.Currency)
	fmt.Fprintf(w, "Income\t%s\n", acct.IncomeAmount)
	fmt.Fprintf(w, "I owe\t%s\n", acct.DebtAmount)
	fmt.Fprintf(w, "Owed to me\t%s\n", acct.DebtedAmount)
	return w.Flush()
}
