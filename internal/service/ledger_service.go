package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/debtbook/internal/auth"
	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/middleware"
	"github.com/mmynk/debtbook/internal/models"
)

// LedgerService exposes debt, payment and account operations over Connect.
type LedgerService struct {
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService backed by l.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// Handler returns the path prefix and handler serving every LedgerService
// procedure. opts typically carries the auth and logging interceptors.
func (s *LedgerService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(LedgerCreateDebtProcedure, connect.NewUnaryHandler(LedgerCreateDebtProcedure, s.CreateDebt, opts...))
	mux.Handle(LedgerPayDebtProcedure, connect.NewUnaryHandler(LedgerPayDebtProcedure, s.PayDebt, opts...))
	mux.Handle(LedgerSettleDebtProcedure, connect.NewUnaryHandler(LedgerSettleDebtProcedure, s.SettleDebt, opts...))
	mux.Handle(LedgerUpdateDebtProcedure, connect.NewUnaryHandler(LedgerUpdateDebtProcedure, s.UpdateDebt, opts...))
	mux.Handle(LedgerDeleteDebtProcedure, connect.NewUnaryHandler(LedgerDeleteDebtProcedure, s.DeleteDebt, opts...))
	mux.Handle(LedgerListDebtsProcedure, connect.NewUnaryHandler(LedgerListDebtsProcedure, s.ListDebts, opts...))
	mux.Handle(LedgerGetDebtProcedure, connect.NewUnaryHandler(LedgerGetDebtProcedure, s.GetDebt, opts...))
	mux.Handle(LedgerListPaymentsProcedure, connect.NewUnaryHandler(LedgerListPaymentsProcedure, s.ListPayments, opts...))
	mux.Handle(LedgerRecordIncomeProcedure, connect.NewUnaryHandler(LedgerRecordIncomeProcedure, s.RecordIncome, opts...))
	mux.Handle(LedgerGetAccountProcedure, connect.NewUnaryHandler(LedgerGetAccountProcedure, s.GetAccount, opts...))
	mux.Handle(LedgerListTransactionsProcedure, connect.NewUnaryHandler(LedgerListTransactionsProcedure, s.ListTransactions, opts...))
	mux.Handle(LedgerReconcileProcedure, connect.NewUnaryHandler(LedgerReconcileProcedure, s.Reconcile, opts...))
	return "/" + LedgerServiceName + "/", mux
}

// session returns the caller's ledger session, failing when the request
// was not authenticated.
func session(ctx context.Context) (ledger.Session, error) {
	sess := middleware.SessionFromContext(ctx)
	if sess.UserID == 0 {
		return sess, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return sess, nil
}

// CreateDebt records a new debt against a contact given by ID or phone.
func (s *LedgerService) CreateDebt(ctx context.Context, req *connect.Request[CreateDebtRequest]) (*connect.Response[DebtResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateDebt request received",
		"user_id", sess.UserID,
		"contact_id", req.Msg.ContactID,
		"amount", req.Msg.Amount,
		"direction", req.Msg.Direction,
	)

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, connectError(err)
	}
	direction, err := parseDirection(req.Msg.Direction)
	if err != nil {
		return nil, connectError(err)
	}

	contactID := req.Msg.ContactID
	if contactID == 0 {
		if req.Msg.ContactPhone == "" {
			return nil, connectError(fmt.Errorf("%w: contact_id or contact_phone is required", ledger.ErrInvalidArgument))
		}
		contact, err := s.ledger.FindOrCreateContactByPhone(ctx, req.Msg.ContactPhone, req.Msg.ContactName)
		if err != nil {
			return nil, connectError(err)
		}
		contactID = contact.ID
	}

	debt, err := s.ledger.CreateDebt(ctx, sess, ledger.CreateDebtParams{
		ContactID: contactID,
		Amount:    amount,
		Direction: direction,
		Reason:    req.Msg.Reason,
		DueDate:   req.Msg.DueDate,
	})
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("Debt created", "debt_id", debt.ID, "contact_id", debt.ContactID)
	return connect.NewResponse(&DebtResponse{Debt: toDebt(debt)}), nil
}

// PayDebt applies a payment, clamped to the outstanding remainder.
func (s *LedgerService) PayDebt(ctx context.Context, req *connect.Request[PayDebtRequest]) (*connect.Response[PaymentResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("PayDebt request received", "user_id", sess.UserID, "debt_id", req.Msg.DebtID, "amount", req.Msg.Amount)

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, connectError(err)
	}

	res, err := s.ledger.PayDebt(ctx, sess, ledger.PayDebtParams{
		DebtID: req.Msg.DebtID,
		Amount: amount,
		Note:   req.Msg.Note,
		Method: req.Msg.Method,
	})
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("Payment recorded",
		"debt_id", res.Debt.ID,
		"new_paid", res.NewPaid.String(),
		"settled", res.Settled,
	)
	return connect.NewResponse(toPaymentResponse(res)), nil
}

// SettleDebt pays off whatever remains on a debt.
func (s *LedgerService) SettleDebt(ctx context.Context, req *connect.Request[DebtRequest]) (*connect.Response[PaymentResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("SettleDebt request received", "user_id", sess.UserID, "debt_id", req.Msg.DebtID)

	res, err := s.ledger.SettleDebt(ctx, sess, req.Msg.DebtID)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("Debt settled", "debt_id", res.Debt.ID, "amount", res.Payment.Amount.String())
	return connect.NewResponse(toPaymentResponse(res)), nil
}

// UpdateDebt edits the fields present in the request.
func (s *LedgerService) UpdateDebt(ctx context.Context, req *connect.Request[UpdateDebtRequest]) (*connect.Response[DebtResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateDebt request received", "user_id", sess.UserID, "debt_id", req.Msg.DebtID)

	var u ledger.DebtUpdate
	if req.Msg.Amount != nil {
		amount, err := parseAmount("amount", *req.Msg.Amount)
		if err != nil {
			return nil, connectError(err)
		}
		u.Amount = &amount
	}
	if req.Msg.Direction != nil {
		direction, err := parseDirection(*req.Msg.Direction)
		if err != nil {
			return nil, connectError(err)
		}
		u.Direction = &direction
	}
	u.Reason = req.Msg.Reason
	u.DueDate = req.Msg.DueDate

	debt, err := s.ledger.UpdateDebt(ctx, sess, req.Msg.DebtID, u)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("Debt updated", "debt_id", debt.ID)
	return connect.NewResponse(&DebtResponse{Debt: toDebt(debt)}), nil
}

// DeleteDebt removes an unsettled debt and everything attached to it.
func (s *LedgerService) DeleteDebt(ctx context.Context, req *connect.Request[DebtRequest]) (*connect.Response[Empty], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteDebt request received", "user_id", sess.UserID, "debt_id", req.Msg.DebtID)

	if err := s.ledger.DeleteDebt(ctx, sess, req.Msg.DebtID); err != nil {
		return nil, connectError(err)
	}

	slog.Info("Debt deleted", "debt_id", req.Msg.DebtID)
	return connect.NewResponse(&Empty{}), nil
}

// ListDebts returns the caller's debts, optionally for one contact.
func (s *LedgerService) ListDebts(ctx context.Context, req *connect.Request[ListDebtsRequest]) (*connect.Response[ListDebtsResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}

	var debts []*models.Debt
	if req.Msg.ContactID != 0 {
		debts, err = s.ledger.ListDebtsForContact(ctx, sess, req.Msg.ContactID)
	} else {
		debts, err = s.ledger.ListDebts(ctx, sess)
	}
	if err != nil {
		return nil, connectError(err)
	}

	slog.Debug("ListDebts successful", "user_id", sess.UserID, "count", len(debts))
	return connect.NewResponse(&ListDebtsResponse{Debts: toDebts(debts)}), nil
}

// GetDebt returns a debt with its contact, payments, evidence and
// transactions.
func (s *LedgerService) GetDebt(ctx context.Context, req *connect.Request[DebtRequest]) (*connect.Response[GetDebtResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := s.ledger.GetDebt(ctx, sess, req.Msg.DebtID)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&GetDebtResponse{
		Debt:         toDebt(detail.Debt),
		Contact:      toContact(detail.Contact),
		Payments:     toPayments(detail.Payments),
		Evidence:     toEvidenceList(detail.Evidence),
		Transactions: toTransactions(detail.Transactions),
	}), nil
}

// ListPayments returns the payments made against a debt.
func (s *LedgerService) ListPayments(ctx context.Context, req *connect.Request[DebtRequest]) (*connect.Response[ListPaymentsResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}

	payments, err := s.ledger.ListPayments(ctx, sess, req.Msg.DebtID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ListPaymentsResponse{Payments: toPayments(payments)}), nil
}

// RecordIncome adds to the account's income total.
func (s *LedgerService) RecordIncome(ctx context.Context, req *connect.Request[RecordIncomeRequest]) (*connect.Response[RecordIncomeResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RecordIncome request received", "user_id", sess.UserID, "amount", req.Msg.Amount)

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, connectError(err)
	}

	res, err := s.ledger.RecordIncome(ctx, sess, amount, req.Msg.Description)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&RecordIncomeResponse{
		Account:     toAccount(res.Account),
		Transaction: toTransaction(res.Transaction),
	}), nil
}

// GetAccount returns the caller's account and its cached totals.
func (s *LedgerService) GetAccount(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[AccountResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}

	acct, err := s.ledger.GetAccount(ctx, sess)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&AccountResponse{Account: toAccount(acct)}), nil
}

// ListTransactions returns the account's audit trail.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListTransactionsResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}

	txns, err := s.ledger.ListTransactions(ctx, sess)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ListTransactionsResponse{Transactions: toTransactions(txns)}), nil
}

// Reconcile compares cached account totals with the debts, optionally
// overwriting the cache.
func (s *LedgerService) Reconcile(ctx context.Context, req *connect.Request[ReconcileRequest]) (*connect.Response[ReconcileResponse], error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Reconcile request received", "user_id", sess.UserID, "repair", req.Msg.Repair)

	rec, err := s.ledger.Reconcile(ctx, sess, req.Msg.Repair)
	if err != nil {
		return nil, connectError(err)
	}

	drift := rec.Drift()
	if drift && !req.Msg.Repair {
		slog.Warn("Account balances drifted",
			"account_id", rec.AccountID,
			"debt_delta", rec.DebtDelta().String(),
			"debted_delta", rec.DebtedDelta().String(),
		)
	}
	return connect.NewResponse(&ReconcileResponse{
		AccountID: rec.AccountID,
		Cached:    toBalances(rec.Cached),
		Expected:  toBalances(rec.Expected),
		Drift:     drift,
		Repaired:  drift && req.Msg.Repair,
	}), nil
}
