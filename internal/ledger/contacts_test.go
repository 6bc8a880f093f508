package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/money"
)

func TestFindOrCreateContactByPhone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("returns existing contact", func(t *testing.T) {
		c, err := f.ledger.FindOrCreateContactByPhone(ctx, "+254 700-000-001", "Someone Else")
		require.NoError(t, err)
		require.Equal(t, f.contact.ID, c.ID)
		require.Equal(t, "Bob", c.Name)
	})

	t.Run("name defaults to phone", func(t *testing.T) {
		c, err := f.ledger.FindOrCreateContactByPhone(ctx, "+254711111111", "")
		require.NoError(t, err)
		require.Equal(t, "+254711111111", c.Name)
	})

	t.Run("empty phone is rejected", func(t *testing.T) {
		_, err := f.ledger.FindOrCreateContactByPhone(ctx, "  ", "x")
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("concurrent calls resolve to one contact", func(t *testing.T) {
		const phone = "+254722222222"
		ids := make([]int64, 20)
		var g errgroup.Group
		for i := range ids {
			g.Go(func() error {
				c, err := f.ledger.FindOrCreateContactByPhone(ctx, phone, "Carol")
				if err != nil {
					return err
				}
				ids[i] = c.ID
				return nil
			})
		}
		require.NoError(t, g.Wait())
		for _, id := range ids {
			require.Equal(t, ids[0], id)
		}

		contacts, err := f.ledger.ListContacts(ctx)
		require.NoError(t, err)
		count := 0
		for _, c := range contacts {
			if c.Phone == phone {
				count++
			}
		}
		require.Equal(t, 1, count)
	})
}

func TestImportContacts(t *testing.T) {
	f := setup(t)
	got, err := f.ledger.ImportContacts(context.Background(), []models.Contact{
		{Name: "Dan", Phone: "+254733333333"},
		{Name: "Dan again", Phone: "+254 733 333 333"},
		{Name: "No phone"},
		{Name: "Bob dup", Phone: f.contact.Phone},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Dan", got[0].Name)
	require.Equal(t, f.contact.ID, got[1].ID)
}

func TestUpdateContact(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other, err := f.ledger.CreateContact(ctx, "Eve", "+254744444444")
	require.NoError(t, err)

	name := "Robert"
	updated, err := f.ledger.UpdateContact(ctx, f.contact.ID, ContactUpdate{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Robert", updated.Name)
	require.Equal(t, f.contact.Phone, updated.Phone)

	_, err = f.ledger.UpdateContact(ctx, other.ID, ContactUpdate{Phone: &f.contact.Phone})
	require.ErrorIs(t, err, ErrConflict)

	_, err = f.ledger.UpdateContact(ctx, 9999, ContactUpdate{Name: &name})
	require.ErrorIs(t, err, ErrContactNotFound)
}

func TestDeleteContact(t *testing.T) {
	t.Run("unreferenced contact is removed", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		c, err := f.ledger.CreateContact(ctx, "Temp", "+254755555555")
		require.NoError(t, err)

		require.NoError(t, f.ledger.DeleteContact(ctx, f.sess, c.ID, false))
		_, err = f.ledger.GetContact(ctx, c.ID)
		require.ErrorIs(t, err, ErrContactNotFound)
	})

	t.Run("referenced contact needs cascade", func(t *testing.T) {
		f := setup(t)
		f.createDebt(t, 1000, models.DirectionIOwe)

		err := f.ledger.DeleteContact(context.Background(), f.sess, f.contact.ID, false)
		require.ErrorIs(t, err, ErrDeletionForbidden)
		require.Equal(t, money.Amount(1000), f.account(t).DebtAmount)
	})

	t.Run("cascade removes debts and their balances", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		other, err := f.ledger.CreateContact(ctx, "Frank", "+254766666666")
		require.NoError(t, err)
		_, err = f.ledger.CreateDebt(ctx, f.sess, CreateDebtParams{ContactID: other.ID, Amount: 200, Direction: models.DirectionOwedToMe})
		require.NoError(t, err)

		partial := f.createDebt(t, 1000, models.DirectionOwedToMe)
		f.pay(t, partial.ID, 300)
		f.pay(t, partial.ID, 100)
		settled := f.createDebt(t, 500, models.DirectionIOwe)
		f.pay(t, settled.ID, 500)

		require.NoError(t, f.ledger.DeleteContact(ctx, f.sess, f.contact.ID, true))

		acct := f.account(t)
		require.Equal(t, money.Amount(200), acct.DebtedAmount)
		require.Zero(t, acct.DebtAmount)

		debts, err := f.ledger.ListDebts(ctx, f.sess)
		require.NoError(t, err)
		require.Len(t, debts, 1)
		require.Equal(t, other.ID, debts[0].ContactID)

		payments, err := f.store.ListPayments(ctx, partial.ID)
		require.NoError(t, err)
		require.Empty(t, payments)
		f.requireConsistent(t)
	})

	t.Run("another user's debts are untouched", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		aliceDebt := f.createDebt(t, 5000, models.DirectionOwedToMe)

		mallory := &models.User{Username: "mallory"}
		_, err := f.ledger.RegisterUser(ctx, mallory)
		require.NoError(t, err)
		msess := Session{UserID: mallory.ID}

		err = f.ledger.DeleteContact(ctx, msess, f.contact.ID, false)
		require.ErrorIs(t, err, ErrDeletionForbidden)
		require.NotContains(t, err.Error(), "1 debts")

		err = f.ledger.DeleteContact(ctx, msess, f.contact.ID, true)
		require.ErrorIs(t, err, ErrDeletionForbidden)

		_, err = f.ledger.GetDebt(ctx, f.sess, aliceDebt.ID)
		require.NoError(t, err)
		require.Equal(t, money.Amount(5000), f.account(t).DebtedAmount)
		txns, err := f.ledger.ListTransactions(ctx, f.sess)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		_, err = f.ledger.GetContact(ctx, f.contact.ID)
		require.NoError(t, err)
	})

	t.Run("cascade keeps another user's history", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()

		bob := &models.User{Username: "bob"}
		_, err := f.ledger.RegisterUser(ctx, bob)
		require.NoError(t, err)
		bsess := Session{UserID: bob.ID}
		_, err = f.ledger.CreateDebt(ctx, bsess, CreateDebtParams{ContactID: f.contact.ID, Amount: 700, Direction: models.DirectionIOwe})
		require.NoError(t, err)

		// Alice never borrowed from the contact, yet Bob still references it.
		err = f.ledger.DeleteContact(ctx, f.sess, f.contact.ID, true)
		require.ErrorIs(t, err, ErrDeletionForbidden)

		debts, err := f.ledger.ListDebts(ctx, bsess)
		require.NoError(t, err)
		require.Len(t, debts, 1)
		txns, err := f.ledger.ListTransactions(ctx, bsess)
		require.NoError(t, err)
		require.Len(t, txns, 1)
	})
}

func TestContactSummaries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	idle, err := f.ledger.CreateContact(ctx, "Idle", "+254777777777")
	require.NoError(t, err)

	a := f.createDebt(t, 1000, models.DirectionOwedToMe)
	f.pay(t, a.ID, 400)
	f.createDebt(t, 300, models.DirectionIOwe)
	b := f.createDebt(t, 50, models.DirectionIOwe)
	f.pay(t, b.ID, 50)

	summaries, err := f.ledger.ContactSummaries(ctx, f.sess)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[int64]ContactWithSummary{}
	for _, s := range summaries {
		byID[s.Contact.ID] = s
	}

	bob := byID[f.contact.ID]
	require.Equal(t, money.Amount(600), bob.TotalOwedToUser)
	require.Equal(t, money.Amount(300), bob.TotalUserOwes)
	require.Equal(t, 2, bob.OutstandingCount)
	require.Equal(t, money.Amount(300), bob.NetBalance())

	require.Zero(t, byID[idle.ID].OutstandingCount)
}
