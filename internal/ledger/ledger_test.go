package ledger

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/debtbook/internal/calculator"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/money"
	"github.com/mmynk/debtbook/internal/storage"
	"github.com/mmynk/debtbook/internal/storage/sqlite"
)

type fixture struct {
	ledger  *Ledger
	store   *sqlite.SQLiteStore
	metrics *Metrics
	sess    Session
	contact *models.Contact
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	metrics := NewMetrics(prometheus.NewRegistry())
	l := New(store, WithMetrics(metrics))
	ctx := context.Background()

	user := &models.User{Username: "alice", Name: "Alice"}
	_, err = l.RegisterUser(ctx, user)
	require.NoError(t, err)

	contact, err := l.FindOrCreateContactByPhone(ctx, "+254700000001", "Bob")
	require.NoError(t, err)

	return &fixture{
		ledger:  l,
		store:   store,
		metrics: metrics,
		sess:    Session{UserID: user.ID},
		contact: contact,
	}
}

func (f *fixture) account(t *testing.T) *models.Account {
	t.Helper()
	acct, err := f.ledger.GetAccount(context.Background(), f.sess)
	require.NoError(t, err)
	return acct
}

func (f *fixture) createDebt(t *testing.T, amount money.Amount, dir models.Direction) *models.Debt {
	t.Helper()
	debt, err := f.ledger.CreateDebt(context.Background(), f.sess, CreateDebtParams{
		ContactID: f.contact.ID,
		Amount:    amount,
		Direction: dir,
	})
	require.NoError(t, err)
	return debt
}

func (f *fixture) pay(t *testing.T, debtID int64, amount money.Amount) *PaymentResult {
	t.Helper()
	res, err := f.ledger.PayDebt(context.Background(), f.sess, PayDebtParams{DebtID: debtID, Amount: amount})
	require.NoError(t, err)
	return res
}

// requireConsistent checks the account totals against debt history and
// every debt's settled flag against its paid amount.
func (f *fixture) requireConsistent(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	acct := f.account(t)
	debts, err := f.store.ListDebtsByAccount(ctx, acct.ID)
	require.NoError(t, err)

	rec := calculator.Reconcile(acct, debts)
	require.False(t, rec.Drift(), "cached %+v expected %+v", rec.Cached, rec.Expected)

	for _, d := range debts {
		require.Equal(t, d.Paid >= d.Amount, d.Settled, "debt %d settled flag", d.ID)

		payments, err := f.store.ListPayments(ctx, d.ID)
		require.NoError(t, err)
		var sum money.Amount
		for _, p := range payments {
			sum += p.Amount
		}
		require.Equal(t, d.Paid, sum, "debt %d paid vs payments", d.ID)
	}
}

func TestCreatePayToSettlement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	baseline := f.account(t).DebtAmount

	debt := f.createDebt(t, 1000, models.DirectionIOwe)
	require.Equal(t, baseline+1000, f.account(t).DebtAmount)

	res := f.pay(t, debt.ID, 300)
	require.Equal(t, money.Amount(300), res.NewPaid)
	require.False(t, res.Settled)
	require.Equal(t, baseline+700, f.account(t).DebtAmount)
	f.requireConsistent(t)

	res = f.pay(t, debt.ID, 700)
	require.Equal(t, money.Amount(1000), res.NewPaid)
	require.True(t, res.Settled)
	require.Equal(t, baseline, f.account(t).DebtAmount)
	f.requireConsistent(t)

	err := f.ledger.DeleteDebt(ctx, f.sess, debt.ID)
	require.ErrorIs(t, err, ErrDeletionForbidden)
	require.ErrorIs(t, err, ErrAlreadySettled)

	_, err = f.ledger.PayDebt(ctx, f.sess, PayDebtParams{DebtID: debt.ID, Amount: 1})
	require.ErrorIs(t, err, ErrAlreadySettled)

	txns, err := f.store.ListTransactionsByDebt(ctx, debt.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	require.Equal(t, models.TransactionBorrow, txns[0].Type)
	require.Equal(t, models.TransactionRepayment, txns[1].Type)
	require.Equal(t, models.TransactionRepayment, txns[2].Type)
}

func TestDeleteFreshDebt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	baseline := f.account(t).DebtedAmount

	debt := f.createDebt(t, 500, models.DirectionOwedToMe)
	require.Equal(t, baseline+500, f.account(t).DebtedAmount)

	require.NoError(t, f.ledger.DeleteDebt(ctx, f.sess, debt.ID))
	require.Equal(t, baseline, f.account(t).DebtedAmount)

	_, err := f.ledger.GetDebt(ctx, f.sess, debt.ID)
	require.ErrorIs(t, err, ErrDebtNotFound)

	payments, err := f.store.ListPayments(ctx, debt.ID)
	require.NoError(t, err)
	require.Empty(t, payments)
	txns, err := f.store.ListTransactionsByDebt(ctx, debt.ID)
	require.NoError(t, err)
	require.Empty(t, txns)
	f.requireConsistent(t)
}

type snapshot struct {
	account  models.Account
	debt     models.Debt
	payments int
	txns     int
}

func (f *fixture) snapshot(t *testing.T, debtID int64) snapshot {
	t.Helper()
	ctx := context.Background()
	acct := f.account(t)
	debt, err := f.store.GetDebt(ctx, debtID)
	require.NoError(t, err)
	payments, err := f.store.ListPayments(ctx, debtID)
	require.NoError(t, err)
	txns, err := f.store.ListTransactionsByAccount(ctx, acct.ID)
	require.NoError(t, err)
	return snapshot{account: *acct, debt: *debt, payments: len(payments), txns: len(txns)}
}

func TestPayInvalidAmountWritesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	debt := f.createDebt(t, 1000, models.DirectionIOwe)

	before := f.snapshot(t, debt.ID)

	for _, amount := range []money.Amount{-500, 0} {
		t.Run(amount.String(), func(t *testing.T) {
			_, err := f.ledger.PayDebt(ctx, f.sess, PayDebtParams{DebtID: debt.ID, Amount: amount})
			require.ErrorIs(t, err, ErrInvalidAmount)
			require.Equal(t, before, f.snapshot(t, debt.ID))
		})
	}
}

func TestPayDebtNotFound(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.PayDebt(context.Background(), f.sess, PayDebtParams{DebtID: 424242, Amount: 100})
	require.ErrorIs(t, err, ErrDebtNotFound)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOverpaymentIsClamped(t *testing.T) {
	f := setup(t)
	debt := f.createDebt(t, 1000, models.DirectionIOwe)

	res := f.pay(t, debt.ID, 1500)
	require.Equal(t, money.Amount(1000), res.NewPaid)
	require.Equal(t, money.Amount(1000), res.Payment.Amount)
	require.Equal(t, money.Amount(1000), res.Transaction.Amount)
	require.Equal(t, money.Amount(500), res.Overpaid)
	require.True(t, res.Settled)
	require.Zero(t, f.account(t).DebtAmount)
	f.requireConsistent(t)
}

func TestPaymentNoteBecomesEvidence(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	debt := f.createDebt(t, 1000, models.DirectionOwedToMe)

	res, err := f.ledger.PayDebt(ctx, f.sess, PayDebtParams{DebtID: debt.ID, Amount: 200, Note: "paid via mpesa", Method: "mpesa"})
	require.NoError(t, err)
	require.NotNil(t, res.Evidence)
	require.Equal(t, res.Transaction.ID, res.Evidence.TransactionID)
	require.Equal(t, "mpesa", res.Payment.Method)

	evidence, err := f.ledger.ListEvidence(ctx, f.sess, debt.ID)
	require.NoError(t, err)
	require.Len(t, evidence, 1)
	require.Equal(t, "paid via mpesa", evidence[0].Message)
	require.Equal(t, models.EvidencePayment, evidence[0].Type)
}

func TestSettleDebt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	debt := f.createDebt(t, 1000, models.DirectionOwedToMe)
	f.pay(t, debt.ID, 250)

	res, err := f.ledger.SettleDebt(ctx, f.sess, debt.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(750), res.Payment.Amount)
	require.Equal(t, money.Amount(1000), res.NewPaid)
	require.True(t, res.Settled)
	require.NotNil(t, res.Evidence)
	require.Equal(t, models.EvidenceSettlement, res.Evidence.Type)
	require.Equal(t, "Full settlement for debt #"+fmt.Sprint(debt.ID)+": total 10.00, paid 2.50, remaining 7.50", res.Evidence.Message)
	require.Zero(t, f.account(t).DebtedAmount)
	f.requireConsistent(t)

	_, err = f.ledger.SettleDebt(ctx, f.sess, debt.ID)
	require.ErrorIs(t, err, ErrAlreadySettled)
}

func TestUpdateDebt(t *testing.T) {
	t.Run("direction flip moves the contribution", func(t *testing.T) {
		f := setup(t)
		debt := f.createDebt(t, 1000, models.DirectionIOwe)

		dir := models.DirectionOwedToMe
		updated, err := f.ledger.UpdateDebt(context.Background(), f.sess, debt.ID, DebtUpdate{Direction: &dir})
		require.NoError(t, err)
		require.Equal(t, models.DirectionOwedToMe, updated.Direction)

		acct := f.account(t)
		require.Zero(t, acct.DebtAmount)
		require.Equal(t, money.Amount(1000), acct.DebtedAmount)
		f.requireConsistent(t)
	})

	t.Run("amount edit uses outstanding remainder", func(t *testing.T) {
		f := setup(t)
		debt := f.createDebt(t, 1000, models.DirectionIOwe)
		f.pay(t, debt.ID, 400)

		amount := money.Amount(800)
		reason := "  corrected  "
		updated, err := f.ledger.UpdateDebt(context.Background(), f.sess, debt.ID, DebtUpdate{Amount: &amount, Reason: &reason})
		require.NoError(t, err)
		require.Equal(t, "corrected", updated.Reason)
		require.Equal(t, money.Amount(400), f.account(t).DebtAmount)
		f.requireConsistent(t)
	})

	t.Run("amount equal to paid settles", func(t *testing.T) {
		f := setup(t)
		debt := f.createDebt(t, 1000, models.DirectionIOwe)
		f.pay(t, debt.ID, 400)

		amount := money.Amount(400)
		updated, err := f.ledger.UpdateDebt(context.Background(), f.sess, debt.ID, DebtUpdate{Amount: &amount})
		require.NoError(t, err)
		require.True(t, updated.Settled)
		require.Zero(t, f.account(t).DebtAmount)
		f.requireConsistent(t)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		debt := f.createDebt(t, 1000, models.DirectionIOwe)
		f.pay(t, debt.ID, 400)

		zero := money.Amount(0)
		_, err := f.ledger.UpdateDebt(ctx, f.sess, debt.ID, DebtUpdate{Amount: &zero})
		require.ErrorIs(t, err, ErrInvalidAmount)

		belowPaid := money.Amount(300)
		_, err = f.ledger.UpdateDebt(ctx, f.sess, debt.ID, DebtUpdate{Amount: &belowPaid})
		require.ErrorIs(t, err, ErrInvalidAmount)

		bogus := models.Direction("sideways")
		_, err = f.ledger.UpdateDebt(ctx, f.sess, debt.ID, DebtUpdate{Direction: &bogus})
		require.ErrorIs(t, err, ErrInvalidArgument)
		f.requireConsistent(t)
	})

	t.Run("settled debt is immutable", func(t *testing.T) {
		f := setup(t)
		debt := f.createDebt(t, 1000, models.DirectionIOwe)
		f.pay(t, debt.ID, 1000)

		reason := "late edit"
		_, err := f.ledger.UpdateDebt(context.Background(), f.sess, debt.ID, DebtUpdate{Reason: &reason})
		require.ErrorIs(t, err, ErrAlreadySettled)
	})
}

func TestDeleteDebtPolicy(t *testing.T) {
	t.Run("one payment is allowed and removes only the remainder", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		keep := f.createDebt(t, 300, models.DirectionOwedToMe)
		debt := f.createDebt(t, 1000, models.DirectionOwedToMe)
		f.pay(t, debt.ID, 400)
		require.Equal(t, money.Amount(900), f.account(t).DebtedAmount)

		require.NoError(t, f.ledger.DeleteDebt(ctx, f.sess, debt.ID))
		require.Equal(t, money.Amount(300), f.account(t).DebtedAmount)

		// Transactions of the contact's other debts survive.
		txns, err := f.store.ListTransactionsByDebt(ctx, keep.ID)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		f.requireConsistent(t)
	})

	t.Run("more than one payment is forbidden", func(t *testing.T) {
		f := setup(t)
		debt := f.createDebt(t, 1000, models.DirectionOwedToMe)
		f.pay(t, debt.ID, 100)
		f.pay(t, debt.ID, 100)

		err := f.ledger.DeleteDebt(context.Background(), f.sess, debt.ID)
		require.ErrorIs(t, err, ErrDeletionForbidden)
		require.NotErrorIs(t, err, ErrAlreadySettled)
		require.Equal(t, money.Amount(800), f.account(t).DebtedAmount)
	})

	t.Run("other users cannot see the debt", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		debt := f.createDebt(t, 1000, models.DirectionOwedToMe)

		mallory := &models.User{Username: "mallory"}
		_, err := f.ledger.RegisterUser(ctx, mallory)
		require.NoError(t, err)

		err = f.ledger.DeleteDebt(ctx, Session{UserID: mallory.ID}, debt.ID)
		require.ErrorIs(t, err, ErrDebtNotFound)
	})
}

func TestConcurrentPayments(t *testing.T) {
	f := setup(t)
	debt := f.createDebt(t, 1000, models.DirectionIOwe)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := f.ledger.PayDebt(ctx, f.sess, PayDebtParams{DebtID: debt.ID, Amount: 100})
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := f.store.GetDebt(context.Background(), debt.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(1000), got.Paid)
	require.True(t, got.Settled)
	require.Zero(t, f.account(t).DebtAmount)
	f.requireConsistent(t)
}

func TestCreateDebtValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		sess    Session
		params  CreateDebtParams
		wantErr error
	}{
		{"zero amount", f.sess, CreateDebtParams{ContactID: f.contact.ID, Amount: 0, Direction: models.DirectionIOwe}, ErrInvalidAmount},
		{"negative amount", f.sess, CreateDebtParams{ContactID: f.contact.ID, Amount: -1, Direction: models.DirectionIOwe}, ErrInvalidAmount},
		{"bad direction", f.sess, CreateDebtParams{ContactID: f.contact.ID, Amount: 10, Direction: "up"}, ErrInvalidArgument},
		{"missing contact", f.sess, CreateDebtParams{ContactID: 9999, Amount: 10, Direction: models.DirectionIOwe}, ErrContactNotFound},
		{"unknown user", Session{UserID: 9999}, CreateDebtParams{ContactID: f.contact.ID, Amount: 10, Direction: models.DirectionIOwe}, ErrUserNotFound},
		{"empty session", Session{}, CreateDebtParams{ContactID: f.contact.ID, Amount: 10, Direction: models.DirectionIOwe}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreateDebt(ctx, tt.sess, tt.params)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	debts, err := f.ledger.ListDebts(ctx, f.sess)
	require.NoError(t, err)
	require.Empty(t, debts)
}

func TestDefaultAccountCreatedLazily(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "lazy.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	l := New(store, WithDefaultCurrency("USD"))

	// Insert a user without an account, as an older database would have.
	var userID int64
	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		u := &models.User{Username: "legacy"}
		if err := tx.InsertUser(ctx, u); err != nil {
			return err
		}
		userID = u.ID
		return tx.InsertContact(ctx, &models.Contact{Name: "C", Phone: "1"})
	}))
	sess := Session{UserID: userID}

	_, err = l.GetAccount(ctx, sess)
	require.ErrorIs(t, err, ErrAccountNotFound)

	contact, err := l.FindOrCreateContactByPhone(ctx, "1", "")
	require.NoError(t, err)
	_, err = l.CreateDebt(ctx, sess, CreateDebtParams{ContactID: contact.ID, Amount: 100, Direction: models.DirectionOwedToMe})
	require.NoError(t, err)

	acct, err := l.GetAccount(ctx, sess)
	require.NoError(t, err)
	require.True(t, acct.IsDefault)
	require.Equal(t, "USD", acct.Currency)
	require.Equal(t, models.DefaultAccountName, acct.Name)
	require.Equal(t, money.Amount(100), acct.DebtedAmount)
}

func TestRegisterUserConflict(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.RegisterUser(context.Background(), &models.User{Username: "alice"})
	require.ErrorIs(t, err, ErrConflict)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "username", conflict.Column)
}

func TestRecordIncome(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.ledger.RecordIncome(ctx, f.sess, 50000, "salary")
	require.NoError(t, err)
	require.Equal(t, models.TransactionIncome, res.Transaction.Type)
	require.Equal(t, money.Amount(50000), res.Account.IncomeAmount)

	_, err = f.ledger.RecordIncome(ctx, f.sess, 0, "nothing")
	require.ErrorIs(t, err, ErrInvalidAmount)

	txns, err := f.ledger.ListTransactions(ctx, f.sess)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	require.NotEmpty(t, txns[0].MessageKey)
}

func TestTotalsRejectOverflow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("income", func(t *testing.T) {
		_, err := f.ledger.RecordIncome(ctx, f.sess, math.MaxInt64, "windfall")
		require.NoError(t, err)

		_, err = f.ledger.RecordIncome(ctx, f.sess, 2, "one more")
		require.ErrorIs(t, err, ErrInvalidAmount)
		require.Equal(t, money.Amount(math.MaxInt64), f.account(t).IncomeAmount)

		txns, err := f.ledger.ListTransactions(ctx, f.sess)
		require.NoError(t, err)
		require.Len(t, txns, 1)
	})

	t.Run("debt totals", func(t *testing.T) {
		first := f.createDebt(t, math.MaxInt64, models.DirectionIOwe)

		_, err := f.ledger.CreateDebt(ctx, f.sess, CreateDebtParams{
			ContactID: f.contact.ID,
			Amount:    1,
			Direction: models.DirectionIOwe,
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
		require.NotErrorIs(t, err, ErrStorage)

		debts, err := f.ledger.ListDebts(ctx, f.sess)
		require.NoError(t, err)
		require.Len(t, debts, 1)
		require.Equal(t, first.ID, debts[0].ID)
		require.Equal(t, money.Amount(math.MaxInt64), f.account(t).DebtAmount)
	})
}

func TestReconcile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.createDebt(t, 1000, models.DirectionIOwe)

	rec, err := f.ledger.Reconcile(ctx, f.sess, false)
	require.NoError(t, err)
	require.False(t, rec.Drift())

	// Corrupt the cache behind the ledger's back.
	acct := f.account(t)
	acct.DebtAmount = 5
	acct.DebtedAmount = 77
	require.NoError(t, f.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateAccountBalances(ctx, acct)
	}))

	rec, err = f.ledger.Reconcile(ctx, f.sess, false)
	require.NoError(t, err)
	require.True(t, rec.Drift())
	require.Equal(t, money.Amount(-995), rec.DebtDelta())
	require.Equal(t, money.Amount(5), f.account(t).DebtAmount)

	rec, err = f.ledger.Reconcile(ctx, f.sess, true)
	require.NoError(t, err)
	require.True(t, rec.Drift())
	f.requireConsistent(t)
}

func TestGetDebtDetail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	debt := f.createDebt(t, 1000, models.DirectionOwedToMe)
	f.pay(t, debt.ID, 100)

	detail, err := f.ledger.GetDebt(ctx, f.sess, debt.ID)
	require.NoError(t, err)
	require.Equal(t, f.contact.ID, detail.Contact.ID)
	require.Len(t, detail.Payments, 1)
	require.Len(t, detail.Transactions, 2)
	require.Equal(t, models.TransactionLend, detail.Transactions[0].Type)

	forContact, err := f.ledger.ListDebtsForContact(ctx, f.sess, f.contact.ID)
	require.NoError(t, err)
	require.Len(t, forContact, 1)
}

func TestMetricsRecordOutcomes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.createDebt(t, 100, models.DirectionIOwe)
	_, err := f.ledger.PayDebt(ctx, f.sess, PayDebtParams{DebtID: 9999, Amount: 1})
	require.Error(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.operations.WithLabelValues("create_debt", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.operations.WithLabelValues("pay_debt", "not_found")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.contacts))
}
