package service

import (
	"fmt"
	"strings"

	"github.com/mmynk/debtbook/internal/calculator"
	"github.com/mmynk/debtbook/internal/ledger"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/money"
)

// Wire messages. Amounts travel as decimal strings in major units
// ("1250.50") and are converted to minor units at this boundary.

type Contact struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type Account struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Currency     string `json:"currency"`
	IncomeAmount string `json:"income_amount"`
	DebtAmount   string `json:"debt_amount"`
	DebtedAmount string `json:"debted_amount"`
	IsDefault    bool   `json:"is_default"`
	UpdatedAt    int64  `json:"updated_at"`
}

type Debt struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	ContactID int64  `json:"contact_id"`
	Amount    string `json:"amount"`
	Paid      string `json:"paid"`
	Remaining string `json:"remaining"`
	Direction string `json:"direction"`
	Reason    string `json:"reason,omitempty"`
	DueDate   int64  `json:"due_date,omitempty"`
	Settled   bool   `json:"settled"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type Payment struct {
	ID            int64  `json:"id"`
	DebtID        int64  `json:"debt_id"`
	TransactionID int64  `json:"transaction_id,omitempty"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	Note          string `json:"note,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

type Transaction struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	MessageKey  string `json:"message_key"`
	ContactID   int64  `json:"contact_id,omitempty"`
	DebtID      int64  `json:"debt_id,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

type Evidence struct {
	ID            int64  `json:"id"`
	TransactionID int64  `json:"transaction_id,omitempty"`
	DebtID        int64  `json:"debt_id,omitempty"`
	Message       string `json:"message"`
	Type          string `json:"type"`
	CreatedAt     int64  `json:"created_at"`
}

// User never carries the password hash.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	Age       int    `json:"age,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type ContactSummary struct {
	Contact          *Contact `json:"contact"`
	TotalOwedToUser  string   `json:"total_owed_to_user"`
	TotalUserOwes    string   `json:"total_user_owes"`
	NetBalance       string   `json:"net_balance"`
	OutstandingCount int      `json:"outstanding_count"`
}

type Balances struct {
	DebtAmount   string `json:"debt_amount"`
	DebtedAmount string `json:"debted_amount"`
}

// Empty is used by procedures with nothing to send or return.
type Empty struct{}

// Ledger requests and responses.

type CreateDebtRequest struct {
	// Either ContactID or ContactPhone must be set. A phone is resolved
	// to a contact, creating one named ContactName if needed.
	ContactID    int64  `json:"contact_id,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	Amount       string `json:"amount"`
	Direction    string `json:"direction"`
	Reason       string `json:"reason,omitempty"`
	DueDate      int64  `json:"due_date,omitempty"`
}

type DebtResponse struct {
	Debt *Debt `json:"debt"`
}

type PayDebtRequest struct {
	DebtID int64  `json:"debt_id"`
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
	Method string `json:"method,omitempty"`
}

type DebtRequest struct {
	DebtID int64 `json:"debt_id"`
}

type PaymentResponse struct {
	Debt     *Debt     `json:"debt"`
	Payment  *Payment  `json:"payment"`
	Evidence *Evidence `json:"evidence,omitempty"`
	NewPaid  string    `json:"new_paid"`
	Settled  bool      `json:"settled"`
	Overpaid string    `json:"overpaid,omitempty"`
}

type UpdateDebtRequest struct {
	DebtID    int64   `json:"debt_id"`
	Amount    *string `json:"amount,omitempty"`
	Direction *string `json:"direction,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	DueDate   *int64  `json:"due_date,omitempty"`
}

type ListDebtsRequest struct {
	// ContactID limits the result to one contact when non-zero.
	ContactID int64 `json:"contact_id,omitempty"`
}

type ListDebtsResponse struct {
	Debts []*Debt `json:"debts"`
}

type GetDebtResponse struct {
	Debt         *Debt          `json:"debt"`
	Contact      *Contact       `json:"contact"`
	Payments     []*Payment     `json:"payments"`
	Evidence     []*Evidence    `json:"evidence"`
	Transactions []*Transaction `json:"transactions"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type RecordIncomeRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

type RecordIncomeResponse struct {
	Account     *Account     `json:"account"`
	Transaction *Transaction `json:"transaction"`
}

type AccountResponse struct {
	Account *Account `json:"account"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

type ReconcileRequest struct {
	Repair bool `json:"repair"`
}

type ReconcileResponse struct {
	AccountID int64    `json:"account_id"`
	Cached    Balances `json:"cached"`
	Expected  Balances `json:"expected"`
	Drift     bool     `json:"drift"`
	Repaired  bool     `json:"repaired"`
}

// Contact requests and responses.

type CreateContactRequest struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone"`
}

type ContactResponse struct {
	Contact *Contact `json:"contact"`
}

type ImportContactsRequest struct {
	Contacts []CreateContactRequest `json:"contacts"`
}

type ContactRequest struct {
	ContactID int64 `json:"contact_id"`
}

type ListContactsResponse struct {
	Contacts []*Contact `json:"contacts"`
}

type ListContactSummariesResponse struct {
	Summaries []*ContactSummary `json:"summaries"`
}

type UpdateContactRequest struct {
	ContactID int64   `json:"contact_id"`
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type DeleteContactRequest struct {
	ContactID int64 `json:"contact_id"`
	Cascade   bool  `json:"cascade"`
}

// Auth requests and responses.

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Age      int    `json:"age,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type UserResponse struct {
	User *User `json:"user"`
}

// Conversions.

func parseAmount(field, s string) (money.Amount, error) {
	a, err := money.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ledger.ErrInvalidAmount, field, s)
	}
	return a, nil
}

func parseDirection(s string) (models.Direction, error) {
	d := models.Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: direction must be %q or %q", ledger.ErrInvalidArgument, models.DirectionOwedToMe, models.DirectionIOwe)
	}
	return d, nil
}

func toContact(c *models.Contact) *Contact {
	if c == nil {
		return nil
	}
	return &Contact{ID: c.ID, Name: c.Name, Phone: c.Phone, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toAccount(a *models.Account) *Account {
	return &Account{
		ID:           a.ID,
		Name:         a.Name,
		Type:         a.Type,
		Currency:     a.Currency,
		IncomeAmount: a.IncomeAmount.String(),
		DebtAmount:   a.DebtAmount.String(),
		DebtedAmount: a.DebtedAmount.String(),
		IsDefault:    a.IsDefault,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toDebt(d *models.Debt) *Debt {
	return &Debt{
		ID:        d.ID,
		AccountID: d.AccountID,
		ContactID: d.ContactID,
		Amount:    d.Amount.String(),
		Paid:      d.Paid.String(),
		Remaining: d.Remaining().String(),
		Direction: string(d.Direction),
		Reason:    d.Reason,
		DueDate:   d.DueDate,
		Settled:   d.Settled,
		Status:    d.Status(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDebts(debts []*models.Debt) []*Debt {
	out := make([]*Debt, len(debts))
	for i, d := range debts {
		out[i] = toDebt(d)
	}
	return out
}

func toPayment(p *models.Payment) *Payment {
	return &Payment{
		ID:            p.ID,
		DebtID:        p.DebtID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount.String(),
		Method:        p.Method,
		Note:          p.Note,
		CreatedAt:     p.CreatedAt,
	}
}

func toPayments(payments []*models.Payment) []*Payment {
	out := make([]*Payment, len(payments))
	for i, p := range payments {
		out[i] = toPayment(p)
	}
	return out
}

func toTransaction(t *models.Transaction) *Transaction {
	return &Transaction{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      t.Amount.String(),
		Description: t.Description,
		MessageKey:  t.MessageKey,
		ContactID:   t.ContactID,
		DebtID:      t.DebtID,
		CreatedAt:   t.CreatedAt,
	}
}

func toTransactions(txns []*models.Transaction) []*Transaction {
	out := make([]*Transaction, len(txns))
	for i, t := range txns {
		out[i] = toTransaction(t)
	}
	return out
}

func toEvidence(e *models.Evidence) *Evidence {
	if e == nil {
		return nil
	}
	return &Evidence{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		DebtID:        e.DebtID,
		Message:       e.Message,
		Type:          string(e.Type),
		CreatedAt:     e.CreatedAt,
	}
}

func toEvidenceList(notes []*models.Evidence) []*Evidence {
	out := make([]*Evidence, len(notes))
	for i, e := range notes {
		out[i] = toEvidence(e)
	}
	return out
}

func toUser(u *models.User) *User {
	return &User{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Age:       u.Age,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

func toPaymentResponse(res *ledger.PaymentResult) *PaymentResponse {
	out := &PaymentResponse{
		Debt:     toDebt(res.Debt),
		Payment:  toPayment(res.Payment),
		Evidence: toEvidence(res.Evidence),
		NewPaid:  res.NewPaid.String(),
		Settled:  res.Settled,
	}
	if res.Overpaid > 0 {
		out.Overpaid = res.Overpaid.String()
	}
	return out
}

func toBalances(b calculator.Balances) Balances {
	return Balances{DebtAmount: b.DebtAmount.String(), DebtedAmount: b.DebtedAmount.String()}
}
