package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/money"
)

func newDebtCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "debt",
		Aliases: []string{"debts"},
		Short:   "Record and manage debts",
	}
	cmd.AddCommand(
		newDebtCreateCmd(a),
		newDebtPayCmd(a),
		newDebtSettleCmd(a),
		newDebtUpdateCmd(a),
		newDebtDeleteCmd(a),
		newDebtListCmd(a),
		newDebtShowCmd(a),
	)
	return cmd
}

func parseDirection(s string) (models.Direction, error) {
	switch s {
	case "owed", "owed_to_me", "lent":
		return models.DirectionOwedToMe, nil
	case "owe", "i_owe", "borrowed":
		return models.DirectionIOwe, nil
	}
	return "", fmt.Errorf("%w: direction must be owed_to_me or i_owe, got %q", ledger.ErrInvalidArgument, s)
}

func newDebtCreateCmd(a *app) *cobra.Command {
	var (
		contactID   int64
		phone, name string
		direction   string
		reason, due string
	)
	cmd := &cobra.Command{
		Use:   "create AMOUNT",
		Short: "Record a new debt",
		Long: `Record a new debt with a contact given by --contact or --phone.
A phone that matches no contact creates one named --name.

Directions: owed_to_me (they owe you) or i_owe (you owe them).`,
		Example: `  debtbook debt create 1500 --phone +254700000001 --name Bob --direction owed_to_me --reason "Lunch"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := money.Parse(args[0])
			if err != nil {
				return err
			}
			dir, err := parseDirection(direction)
			if err != nil {
				return err
			}
			var dueDate int64
			if due != "" {
				if dueDate, err = parseDate(due); err != nil {
					return err
				}
			}

			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if contactID == 0 {
				if phone == "" {
					return errors.New("pass --contact or --phone")
				}
				c, err := l.FindOrCreateContactByPhone(cmd.Context(), phone, name)
				if err != nil {
					return err
				}
				contactID = c.ID
			}

			debt, err := l.CreateDebt(cmd.Context(), sess, ledger.CreateDebtParams{
				ContactID: contactID,
				Amount:    amount,
				Direction: dir,
				Reason:    reason,
				DueDate:   dueDate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created debt #%d\n", debt.ID)
			return printDebt(cmd.OutOrStdout(), debt)
		},
	}
	cmd.Flags().Int64Var(&contactID, "contact", 0, "Contact ID")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone (created if unknown)")
	cmd.Flags().StringVar(&name, "name", "", "Name for a newly created contact")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "owed_to_me or i_owe")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "What the debt is for")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("direction")
	cmd.MarkFlagsMutuallyExclusive("contact", "phone")
	return cmd
}

func newDebtPayCmd(a *app) *cobra.Command {
	var note, method string
	cmd := &cobra.Command{
		Use:   "pay ID AMOUNT",
		Short: "Record a payment against a debt",
		Long: `Record a payment against a debt. A payment larger than what remains
settles the debt and the excess is reported but not recorded.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := money.Parse(args[1])
			if err != nil {
				return err
			}
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			res, err := l.PayDebt(cmd.Context(), sess, ledger.PayDebtParams{
				DebtID: id,
				Amount: amount,
				Note:   note,
				Method: method,
			})
			if err != nil {
				return err
			}
			return printPayment(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "Note kept as evidence, e.g. a receipt code")
	cmd.Flags().StringVarP(&method, "method", "m", "", "Payment method (default: manual)")
	return cmd
}

func newDebtSettleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "settle ID",
		Short: "Pay off whatever remains on a debt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			res, err := l.SettleDebt(cmd.Context(), sess, id)
			if err != nil {
				return err
			}
			return printPayment(cmd, res)
		},
	}
}

func printPayment(cmd *cobra.Command, res *ledger.PaymentResult) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Paid %s on debt #%d\n", res.Payment.Amount, res.Debt.ID)
	if res.Overpaid > 0 {
		fmt.Fprintf(out, "Overpaid by %s (not recorded)\n", res.Overpaid)
	}
	return printDebt(out, res.Debt)
}

func newDebtUpdateCmd(a *app) *cobra.Command {
	var amount, direction, reason, due string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit an unsettled debt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var u ledger.DebtUpdate
			flags := cmd.Flags()
			if flags.Changed("amount") {
				amt, err := money.Parse(amount)
				if err != nil {
					return err
				}
				u.Amount = &amt
			}
			if flags.Changed("direction") {
				d, err := parseDirection(direction)
				if err != nil {
					return err
				}
				u.Direction = &d
			}
			if flags.Changed("reason") {
				u.Reason = &reason
			}
			if flags.Changed("due") {
				var dueDate int64
				if due != "" {
					if dueDate, err = parseDate(due); err != nil {
						return err
					}
				}
				u.DueDate = &dueDate
			}
			if u == (ledger.DebtUpdate{}) {
				return errors.New("nothing to update: pass --amount, --direction, --reason or --due")
			}

			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			debt, err := l.UpdateDebt(cmd.Context(), sess, id, u)
			if err != nil {
				return err
			}
			return printDebt(cmd.OutOrStdout(), debt)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "New principal")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "owed_to_me or i_owe")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "New reason")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD, empty to clear)")
	return cmd
}

func newDebtDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an unsettled debt and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := l.DeleteDebt(cmd.Context(), sess, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted debt #%d\n", id)
			return nil
		},
	}
}

func newDebtListCmd(a *app) *cobra.Command {
	var contactID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List debts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			var debts []*models.Debt
			if contactID != 0 {
				debts, err = l.ListDebtsForContact(cmd.Context(), sess, contactID)
			} else {
				debts, err = l.ListDebts(cmd.Context(), sess)
			}
			if err != nil {
				return err
			}
			return printDebts(cmd.OutOrStdout(), debts)
		},
	}
	cmd.Flags().Int64Var(&contactID, "contact", 0, "Only debts with this contact")
	return cmd
}

func newDebtShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a debt with its payments and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			detail, err := l.GetDebt(cmd.Context(), sess, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printDebt(out, detail.Debt); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nContact: %s (%s)\n", detail.Contact.Name, detail.Contact.Phone)

			if len(detail.Payments) > 0 {
				fmt.Fprintln(out, "\nPayments:")
				w := newTable(out)
				for _, p := range detail.Payments {
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", formatDate(p.CreatedAt), p.Amount, p.Method, orDash(p.Note))
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			if len(detail.Evidence) > 0 {
				fmt.Fprintln(out, "\nNotes:")
				for _, e := range detail.Evidence {
					fmt.Fprintf(out, "  [%s] %s\n", e.Type, e.Message)
				}
			}
			return nil
		},
	}
}
