package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/models"
)

func newContactCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contact",
		Aliases: []string{"contacts"},
		Short:   "Manage contacts",
	}
	cmd.AddCommand(
		newContactAddCmd(a),
		newContactListCmd(a),
		newContactUpdateCmd(a),
		newContactDeleteCmd(a),
		newContactImportCmd(a),
	)
	return cmd
}

func newContactAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME PHONE",
		Short: "Add a contact, or show the one already using PHONE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.open()
			if err != nil {
				return err
			}
			c, err := l.CreateContact(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Contact #%d %s (%s)\n", c.ID, c.Name, c.Phone)
			return nil
		},
	}
}

func newContactListCmd(a *app) *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !summary {
				l, err := a.open()
				if err != nil {
					return err
				}
				contacts, err := l.ListContacts(cmd.Context())
				if err != nil {
					return err
				}
				w := newTable(out)
				fmt.Fprintln(w, "ID\tNAME\tPHONE")
				for _, c := range contacts {
					fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Phone)
				}
				return w.Flush()
			}

			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			summaries, err := l.ContactSummaries(cmd.Context(), sess)
			if err != nil {
				return err
			}
			w := newTable(out)
			fmt.Fprintln(w, "ID\tNAME\tPHONE\tOWES ME\tI OWE\tNET\tOPEN")
			for _, s := range summaries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
					s.Contact.ID, s.Contact.Name, s.Contact.Phone,
					s.TotalOwedToUser, s.TotalUserOwes, s.NetBalance(), s.OutstandingCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&summary, "summary", "s", false, "Include outstanding totals for the selected user")
	return cmd
}

func newContactUpdateCmd(a *app) *cobra.Command {
	var name, phone string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Rename a contact or change its phone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var u ledger.ContactUpdate
			if cmd.Flags().Changed("name") {
				u.Name = &name
			}
			if cmd.Flags().Changed("phone") {
				u.Phone = &phone
			}
			if u.Name == nil && u.Phone == nil {
				return errors.New("nothing to update: pass --name or --phone")
			}

			l, err := a.open()
			if err != nil {
				return err
			}
			c, err := l.UpdateContact(cmd.Context(), id, u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Contact #%d %s (%s)\n", c.ID, c.Name, c.Phone)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&phone, "phone", "", "New phone")
	return cmd
}

func newContactDeleteCmd(a *app) *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a contact",
		Long: `Delete a contact. A contact with debts can only be deleted with
--cascade, which also deletes those debts and their history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := l.DeleteContact(cmd.Context(), sess, id, cascade); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted contact #%d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "Also delete the contact's debts")
	return cmd
}

func newContactImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import contacts from a CSV file of name,phone rows",
		Long: `Import contacts from a CSV file with one name,phone pair per row.
Use - to read from standard input. Rows without a phone are skipped and
phones that already exist keep their current contact.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("cannot read contacts file: %w", err)
				}
				defer f.Close()
				in = f
			}
			entries, err := readContactsCSV(in)
			if err != nil {
				return err
			}

			l, err := a.open()
			if err != nil {
				return err
			}
			contacts, err := l.ImportContacts(cmd.Context(), entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d contacts\n", len(contacts))
			return nil
		},
	}
}

func readContactsCSV(r io.Reader) ([]models.Contact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid contacts CSV: %w", err)
	}

	var entries []models.Contact
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		name, phone := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		// Optional header row.
		if i == 0 && strings.EqualFold(name, "name") && strings.EqualFold(phone, "phone") {
			continue
		}
		entries = append(entries, models.Contact{Name: name, Phone: phone})
	}
	return entries, nil
}
