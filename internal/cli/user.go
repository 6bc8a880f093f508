package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/debtbook/internal/auth"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserRegisterCmd(a), newUserShowCmd(a))
	return cmd
}

func newUserRegisterCmd(a *app) *cobra.Command {
	var (
		reg      auth.Registration
		password string
	)
	cmd := &cobra.Command{
		Use:   "register USERNAME",
		Short: "Create a user and its default account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.open()
			if err != nil {
				return err
			}
			reg.Username = args[0]
			user, err := auth.NewPasswordAuthenticator(l).Register(cmd.Context(), reg, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered user %q (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (at least 8 characters)")
	cmd.Flags().StringVar(&reg.Name, "name", "", "Display name")
	cmd.Flags().IntVar(&reg.Age, "age", 0, "Age")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "Phone number")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the selected user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			user, err := l.GetUser(cmd.Context(), sess.UserID)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "ID\t%d\n", user.ID)
			fmt.Fprintf(w, "Username\t%s\n", user.Username)
			fmt.Fprintf(w, "Name\t%s\n", orDash(user.Name))
			fmt.Fprintf(w, "Email\t%s\n", orDash(user.Email))
			fmt.Fprintf(w, "Phone\t%s\n", orDash(user.Phone))
			return w.Flush()
		},
	}
}
