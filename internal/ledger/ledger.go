// Package ledger implements the debt bookkeeping engine.
//
// Every mutating operation runs as one storage unit of work: the debt,
// payment, transaction, evidence and account rows it touches either all
// commit or none do. Account totals are caches of the outstanding
// remainders of the account's debts and are adjusted in the same unit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mmynk/debtbook/internal/calculator"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/money"
	"github.com/mmynk/debtbook/internal/storage"
)

// DefaultCurrency is used for lazily created accounts when none is configured.
const DefaultCurrency = "KES"

// Ledger is the debt lifecycle manager.
type Ledger struct {
	store    storage.Store
	metrics  *Metrics
	now      func() time.Time
	currency string

	// contacts collapses concurrent phone resolutions for the same number.
	contacts singleflight.Group
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMetrics records operation outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock overrides the clock used for account creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithDefaultCurrency sets the currency of lazily created default accounts.
func WithDefaultCurrency(currency string) Option {
	return func(l *Ledger) {
		if currency != "" {
			l.currency = currency
		}
	}
}

// New creates a Ledger backed by store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		now:      time.Now,
		currency: DefaultCurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// run executes fn as one unit of work and records its outcome.
func (l *Ledger) run(ctx context.Context, op string, fn func(tx storage.Tx) error) error {
	start := time.Now()
	err := l.store.WithTx(ctx, fn)
	l.metrics.observe(op, start, err)
	return err
}

// CreateDebtParams describes a new debt.
type CreateDebtParams struct {
	ContactID int64
	Amount    money.Amount
	Direction models.Direction
	Reason    string
	DueDate   int64
}

// CreateDebt records a new debt with paid=0, writes its lend/borrow
// transaction and adds its amount to the account totals.
func (l *Ledger) CreateDebt(ctx context.Context, sess Session, p CreateDebtParams) (*models.Debt, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: debt amount must be positive, got %s", ErrInvalidAmount, p.Amount)
	}
	if !p.Direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, p.Direction)
	}
	if p.DueDate < 0 {
		return nil, fmt.Errorf("%w: negative due date", ErrInvalidArgument)
	}

	var debt *models.Debt
	err := l.run(ctx, "create_debt", func(tx storage.Tx) error {
		acct, err := l.resolveAccount(ctx, tx, sess)
		if err != nil {
			return err
		}
		if _, err := tx.GetContact(ctx, p.ContactID); err != nil {
			return notFound(err, ErrContactNotFound, p.ContactID)
		}

		debt = &models.Debt{
			AccountID: acct.ID,
			ContactID: p.ContactID,
			Amount:    p.Amount,
			Direction: p.Direction,
			Reason:    strings.TrimSpace(p.Reason),
			DueDate:   p.DueDate,
		}
		if err := tx.InsertDebt(ctx, debt); err != nil {
			return err
		}
		if _, err := recordDebtCreated(ctx, tx, debt); err != nil {
			return err
		}

		if err := applyNewDebt(acct, debt.Direction, debt.Amount); err != nil {
			return err
		}
		return saveBalances(ctx, tx, acct)
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Debt created",
		"debt_id", debt.ID,
		"user_id", sess.UserID,
		"contact_id", debt.ContactID,
		"amount", debt.Amount.String(),
		"direction", debt.Direction,
	)
	return debt, nil
}

// PayDebtParams describes one payment against a debt.
type PayDebtParams struct {
	DebtID int64
	Amount money.Amount
	// Note, when set, is stored on the payment and as evidence.
	Note   string
	Method string
}

// PaymentResult reports the outcome of a payment or settlement.
type PaymentResult struct {
	Debt        *models.Debt
	Payment     *models.Payment
	Transaction *models.Transaction
	// Evidence is nil when no note was attached.
	Evidence *models.Evidence

	NewPaid money.Amount
	Settled bool

	// Overpaid is the part of the requested amount above the outstanding
	// remainder. It is not recorded anywhere.
	Overpaid money.Amount
}

// PayDebt applies a payment. The applied amount is clamped to the
// outstanding remainder, so paid never exceeds the principal.
func (l *Ledger) PayDebt(ctx context.Context, sess Session, p PayDebtParams) (*PaymentResult, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive, got %s", ErrInvalidAmount, p.Amount)
	}

	var res *PaymentResult
	err := l.run(ctx, "pay_debt", func(tx storage.Tx) error {
		debt, acct, err := l.loadDebt(ctx, tx, sess, p.DebtID)
		if err != nil {
			return err
		}
		if debt.Settled {
			return fmt.Errorf("%w: debt %d", ErrAlreadySettled, debt.ID)
		}

		res, err = applyPaymentUnit(ctx, tx, acct, debt, paymentInput{
			amount: p.Amount,
			method: p.Method,
			note:   strings.TrimSpace(p.Note),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Debt payment recorded",
		"debt_id", res.Debt.ID,
		"user_id", sess.UserID,
		"amount", res.Payment.Amount.String(),
		"new_paid", res.NewPaid.String(),
		"settled", res.Settled,
		"overpaid", res.Overpaid.String(),
	)
	return res, nil
}

// SettleDebt pays exactly the outstanding remainder and attaches a
// settlement note summarizing the debt.
func (l *Ledger) SettleDebt(ctx context.Context, sess Session, debtID int64) (*PaymentResult, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}

	var res *PaymentResult
	err := l.run(ctx, "settle_debt", func(tx storage.Tx) error {
		debt, acct, err := l.loadDebt(ctx, tx, sess, debtID)
		if err != nil {
			return err
		}
		if debt.Settled {
			return fmt.Errorf("%w: debt %d", ErrAlreadySettled, debt.ID)
		}

		remaining := debt.Remaining()
		res, err = applyPaymentUnit(ctx, tx, acct, debt, paymentInput{
			amount:      remaining,
			description: fmt.Sprintf("Settlement of debt #%d", debt.ID),
			evidence: fmt.Sprintf("Full settlement for debt #%d: total %s, paid %s, remaining %s",
				debt.ID, debt.Amount, debt.Paid, remaining),
			evidenceType: models.EvidenceSettlement,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Debt settled", "debt_id", debtID, "user_id", sess.UserID, "amount", res.Payment.Amount.String())
	return res, nil
}

type paymentInput struct {
	amount       money.Amount
	method       string
	note         string
	description  string
	evidence     string
	evidenceType models.EvidenceType
}

// applyPaymentUnit performs the shared body of pay and settle inside tx.
func applyPaymentUnit(ctx context.Context, tx storage.Tx, acct *models.Account, debt *models.Debt, in paymentInput) (*PaymentResult, error) {
	applied := money.Min(in.amount, debt.Remaining())
	res := &PaymentResult{Debt: debt, Overpaid: in.amount - applied}

	debt.Paid += applied
	debt.Settled = debt.Paid >= debt.Amount

	description := in.description
	if description == "" {
		if debt.Settled {
			description = fmt.Sprintf("Final payment for debt #%d", debt.ID)
		} else {
			description = fmt.Sprintf("Partial payment for debt #%d", debt.ID)
		}
	}

	txn, err := recordRepayment(ctx, tx, debt, applied, description)
	if err != nil {
		return nil, err
	}
	res.Transaction = txn

	applyPayment(acct, debt.Direction, applied)
	if err := tx.UpdateDebt(ctx, debt); err != nil {
		return nil, err
	}
	if err := saveBalances(ctx, tx, acct); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		DebtID:        debt.ID,
		TransactionID: txn.ID,
		Amount:        applied,
		Method:        in.method,
		Note:          in.note,
	}
	if err := tx.InsertPayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	res.Payment = payment

	message, typ := in.evidence, in.evidenceType
	if message == "" && in.note != "" {
		message, typ = in.note, models.EvidencePayment
	}
	if message != "" {
		if res.Evidence, err = attachEvidence(ctx, tx, txn, message, typ); err != nil {
			return nil, err
		}
	}

	res.NewPaid = debt.Paid
	res.Settled = debt.Settled
	return res, nil
}

// DebtUpdate holds the fields to change; nil fields are left alone.
type DebtUpdate struct {
	Amount    *money.Amount
	Direction *models.Direction
	Reason    *string
	DueDate   *int64
}

// UpdateDebt edits an unsettled debt. The account totals lose the debt's
// old outstanding remainder and gain the new one in the same unit. A new
// amount may not drop below what has already been paid.
func (l *Ledger) UpdateDebt(ctx context.Context, sess Session, debtID int64, u DebtUpdate) (*models.Debt, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	if u.Amount != nil && *u.Amount <= 0 {
		return nil, fmt.Errorf("%w: debt amount must be positive, got %s", ErrInvalidAmount, *u.Amount)
	}
	if u.Direction != nil && !u.Direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, *u.Direction)
	}
	if u.DueDate != nil && *u.DueDate < 0 {
		return nil, fmt.Errorf("%w: negative due date", ErrInvalidArgument)
	}

	var debt *models.Debt
	err := l.run(ctx, "update_debt", func(tx storage.Tx) error {
		var acct *models.Account
		var err error
		debt, acct, err = l.loadDebt(ctx, tx, sess, debtID)
		if err != nil {
			return err
		}
		if debt.Settled {
			return fmt.Errorf("%w: debt %d", ErrAlreadySettled, debt.ID)
		}

		oldDir, oldRemaining := debt.Direction, debt.Remaining()

		if u.Amount != nil {
			if *u.Amount < debt.Paid {
				return fmt.Errorf("%w: amount %s is below paid %s", ErrInvalidAmount, *u.Amount, debt.Paid)
			}
			debt.Amount = *u.Amount
		}
		if u.Direction != nil {
			debt.Direction = *u.Direction
		}
		if u.Reason != nil {
			debt.Reason = strings.TrimSpace(*u.Reason)
		}
		if u.DueDate != nil {
			debt.DueDate = *u.DueDate
		}
		debt.Settled = debt.Paid >= debt.Amount

		if err := tx.UpdateDebt(ctx, debt); err != nil {
			return err
		}
		if err := applyDirectionChange(acct, oldDir, oldRemaining, debt.Direction, debt.Remaining()); err != nil {
			return err
		}
		return saveBalances(ctx, tx, acct)
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Debt updated", "debt_id", debt.ID, "user_id", sess.UserID, "amount", debt.Amount.String(), "direction", debt.Direction)
	return debt, nil
}

// DeleteDebt removes a debt and everything hanging off it. Deletion is
// allowed only while the debt is unsettled, has a remainder above zero and
// has at most one payment. Only the transactions linked to this debt are
// removed; the contact's other history is kept.
func (l *Ledger) DeleteDebt(ctx context.Context, sess Session, debtID int64) error {
	if err := sess.validate(); err != nil {
		return err
	}

	var remaining money.Amount
	err := l.run(ctx, "delete_debt", func(tx storage.Tx) error {
		debt, acct, err := l.loadDebt(ctx, tx, sess, debtID)
		if err != nil {
			return err
		}
		if debt.Settled {
			return fmt.Errorf("%w: %w: debt %d", ErrDeletionForbidden, ErrAlreadySettled, debt.ID)
		}
		remaining = debt.Remaining()
		if remaining <= 0 {
			return fmt.Errorf("%w: debt %d has no outstanding balance", ErrDeletionForbidden, debt.ID)
		}
		payments, err := tx.CountPayments(ctx, debt.ID)
		if err != nil {
			return err
		}
		if payments > 1 {
			return fmt.Errorf("%w: debt %d has %d payments", ErrDeletionForbidden, debt.ID, payments)
		}

		applyDeletion(acct, debt.Direction, remaining)
		if err := saveBalances(ctx, tx, acct); err != nil {
			return err
		}
		return deleteDebtRows(ctx, tx, debt.ID)
	})
	if err != nil {
		return err
	}

	slog.Debug("Debt deleted", "debt_id", debtID, "user_id", sess.UserID, "remaining", remaining.String())
	return nil
}

// deleteDebtRows removes a debt's children in dependency order, then the debt.
func deleteDebtRows(ctx context.Context, tx storage.Tx, debtID int64) error {
	if err := tx.DeleteEvidenceByDebt(ctx, debtID); err != nil {
		return err
	}
	if err := tx.DeletePaymentsByDebt(ctx, debtID); err != nil {
		return err
	}
	if err := tx.DeleteTransactionsByDebt(ctx, debtID); err != nil {
		return err
	}
	if err := tx.DeleteDebt(ctx, debtID); err != nil {
		return notFound(err, ErrDebtNotFound, debtID)
	}
	return nil
}

// IncomeResult reports a recorded income event.
type IncomeResult struct {
	Account     *models.Account
	Transaction *models.Transaction
}

// RecordIncome appends an income transaction and raises the account's
// income total.
func (l *Ledger) RecordIncome(ctx context.Context, sess Session, amount money.Amount, description string) (*IncomeResult, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: income must be positive, got %s", ErrInvalidAmount, amount)
	}

	res := &IncomeResult{}
	err := l.run(ctx, "record_income", func(tx storage.Tx) error {
		acct, err := l.resolveAccount(ctx, tx, sess)
		if err != nil {
			return err
		}
		if acct.IncomeAmount, err = addTotal(acct.IncomeAmount, amount); err != nil {
			return err
		}
		txn, err := recordIncome(ctx, tx, acct.ID, amount, strings.TrimSpace(description))
		if err != nil {
			return err
		}
		if err := saveBalances(ctx, tx, acct); err != nil {
			return err
		}
		res.Account, res.Transaction = acct, txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Reconcile compares the session account's cached totals with its debt
// history. With repair set, drifted totals are rewritten in the same unit.
func (l *Ledger) Reconcile(ctx context.Context, sess Session, repair bool) (calculator.Reconciliation, error) {
	if err := sess.validate(); err != nil {
		return calculator.Reconciliation{}, err
	}

	var rec calculator.Reconciliation
	err := l.run(ctx, "reconcile", func(tx storage.Tx) error {
		acct, err := l.resolveAccount(ctx, tx, sess)
		if err != nil {
			return err
		}
		debts, err := tx.ListDebtsByAccount(ctx, acct.ID)
		if err != nil {
			return err
		}
		rec = calculator.Reconcile(acct, debts)
		if !repair || !rec.Drift() {
			return nil
		}

		slog.Warn("Repairing account balance drift",
			"account_id", acct.ID,
			"debt_delta", rec.DebtDelta().String(),
			"debted_delta", rec.DebtedDelta().String(),
		)
		acct.DebtAmount = rec.Expected.DebtAmount
		acct.DebtedAmount = rec.Expected.DebtedAmount
		return saveBalances(ctx, tx, acct)
	})
	return rec, err
}

// RegisterUser creates a user together with its default account.
func (l *Ledger) RegisterUser(ctx context.Context, user *models.User) (*models.Account, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	if user.Age < 0 {
		return nil, fmt.Errorf("%w: negative age", ErrInvalidArgument)
	}

	var acct *models.Account
	err := l.run(ctx, "register_user", func(tx storage.Tx) error {
		if err := tx.InsertUser(ctx, user); err != nil {
			return err
		}
		var err error
		acct, err = l.createDefaultAccount(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("User registered", "user_id", user.ID, "username", user.Username, "account_id", acct.ID)
	return acct, nil
}

// resolveAccount returns the session's account, creating the user's
// default account on first use.
func (l *Ledger) resolveAccount(ctx context.Context, tx storage.Tx, sess Session) (*models.Account, error) {
	if sess.AccountID != 0 {
		acct, err := tx.GetAccount(ctx, sess.AccountID)
		if err != nil {
			return nil, notFound(err, ErrAccountNotFound, sess.AccountID)
		}
		if acct.UserID != sess.UserID {
			return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, sess.AccountID)
		}
		return acct, nil
	}

	acct, err := tx.GetDefaultAccount(ctx, sess.UserID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if _, err := tx.GetUser(ctx, sess.UserID); err != nil {
		return nil, notFound(err, ErrUserNotFound, sess.UserID)
	}
	return l.createDefaultAccount(ctx, tx, sess.UserID)
}

func (l *Ledger) createDefaultAccount(ctx context.Context, tx storage.Tx, userID int64) (*models.Account, error) {
	now := l.now().Unix()
	acct := &models.Account{
		UserID:    userID,
		Name:      models.DefaultAccountName,
		Type:      models.DefaultAccountType,
		Currency:  l.currency,
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.InsertAccount(ctx, acct); err != nil {
		return nil, fmt.Errorf("failed to create default account: %w", err)
	}
	slog.Debug("Created default account", "user_id", userID, "account_id", acct.ID)
	return acct, nil
}

// loadDebt reads a debt and its account inside tx. Debts on another
// user's account are reported as not found.
func (l *Ledger) loadDebt(ctx context.Context, tx storage.Tx, sess Session, debtID int64) (*models.Debt, *models.Account, error) {
	debt, err := tx.GetDebt(ctx, debtID)
	if err != nil {
		return nil, nil, notFound(err, ErrDebtNotFound, debtID)
	}
	acct, err := tx.GetAccount(ctx, debt.AccountID)
	if err != nil {
		return nil, nil, notFound(err, ErrAccountNotFound, debt.AccountID)
	}
	if acct.UserID != sess.UserID {
		return nil, nil, fmt.Errorf("%w: %d", ErrDebtNotFound, debtID)
	}
	return debt, acct, nil
}

// saveBalances persists the account's cached totals. Storage errors
// already name the failed write and are passed through unwrapped.
func saveBalances(ctx context.Context, tx storage.Tx, acct *models.Account) error {
	return tx.UpdateAccountBalances(ctx, acct)
}
