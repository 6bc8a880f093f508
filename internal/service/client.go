package service

import (
	"context"
	"strconv"

	"connectrpc.com/connect"

	"github.com/mmynk/debtbook/internal/middleware"
)

// Client calls the debtbook services over Connect using the JSON codec.
type Client struct {
	CreateDebt       *connect.Client[CreateDebtRequest, DebtResponse]
	PayDebt          *connect.Client[PayDebtRequest, PaymentResponse]
	SettleDebt       *connect.Client[DebtRequest, PaymentResponse]
	UpdateDebt       *connect.Client[UpdateDebtRequest, DebtResponse]
	DeleteDebt       *connect.Client[DebtRequest, Empty]
	ListDebts        *connect.Client[ListDebtsRequest, ListDebtsResponse]
	GetDebt          *connect.Client[DebtRequest, GetDebtResponse]
	ListPayments     *connect.Client[DebtRequest, ListPaymentsResponse]
	RecordIncome     *connect.Client[RecordIncomeRequest, RecordIncomeResponse]
	GetAccount       *connect.Client[Empty, AccountResponse]
	ListTransactions *connect.Client[Empty, ListTransactionsResponse]
	Reconcile        *connect.Client[ReconcileRequest, ReconcileResponse]

	CreateContact        *connect.Client[CreateContactRequest, ContactResponse]
	ImportContacts       *connect.Client[ImportContactsRequest, ListContactsResponse]
	GetContact           *connect.Client[ContactRequest, ContactResponse]
	ListContacts         *connect.Client[Empty, ListContactsResponse]
	ListContactSummaries *connect.Client[Empty, ListContactSummariesResponse]
	UpdateContact        *connect.Client[UpdateContactRequest, ContactResponse]
	DeleteContact        *connect.Client[DeleteContactRequest, Empty]

	Register       *connect.Client[RegisterRequest, AuthResponse]
	Login          *connect.Client[LoginRequest, AuthResponse]
	Logout         *connect.Client[Empty, Empty]
	GetCurrentUser *connect.Client[Empty, UserResponse]
}

// NewClient builds a Client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		CreateDebt:       connect.NewClient[CreateDebtRequest, DebtResponse](httpClient, baseURL+LedgerCreateDebtProcedure, opts...),
		PayDebt:          connect.NewClient[PayDebtRequest, PaymentResponse](httpClient, baseURL+LedgerPayDebtProcedure, opts...),
		SettleDebt:       connect.NewClient[DebtRequest, PaymentResponse](httpClient, baseURL+LedgerSettleDebtProcedure, opts...),
		UpdateDebt:       connect.NewClient[UpdateDebtRequest, DebtResponse](httpClient, baseURL+LedgerUpdateDebtProcedure, opts...),
		DeleteDebt:       connect.NewClient[DebtRequest, Empty](httpClient, baseURL+LedgerDeleteDebtProcedure, opts...),
		ListDebts:        connect.NewClient[ListDebtsRequest, ListDebtsResponse](httpClient, baseURL+LedgerListDebtsProcedure, opts...),
		GetDebt:          connect.NewClient[DebtRequest, GetDebtResponse](httpClient, baseURL+LedgerGetDebtProcedure, opts...),
		ListPayments:     connect.NewClient[DebtRequest, ListPaymentsResponse](httpClient, baseURL+LedgerListPaymentsProcedure, opts...),
		RecordIncome:     connect.NewClient[RecordIncomeRequest, RecordIncomeResponse](httpClient, baseURL+LedgerRecordIncomeProcedure, opts...),
		GetAccount:       connect.NewClient[Empty, AccountResponse](httpClient, baseURL+LedgerGetAccountProcedure, opts...),
		ListTransactions: connect.NewClient[Empty, ListTransactionsResponse](httpClient, baseURL+LedgerListTransactionsProcedure, opts...),
		Reconcile:        connect.NewClient[ReconcileRequest, ReconcileResponse](httpClient, baseURL+LedgerReconcileProcedure, opts...),

		CreateContact:        connect.NewClient[CreateContactRequest, ContactResponse](httpClient, baseURL+ContactCreateProcedure, opts...),
		ImportContacts:       connect.NewClient[ImportContactsRequest, ListContactsResponse](httpClient, baseURL+ContactImportProcedure, opts...),
		GetContact:           connect.NewClient[ContactRequest, ContactResponse](httpClient, baseURL+ContactGetProcedure, opts...),
		ListContacts:         connect.NewClient[Empty, ListContactsResponse](httpClient, baseURL+ContactListProcedure, opts...),
		ListContactSummaries: connect.NewClient[Empty, ListContactSummariesResponse](httpClient, baseURL+ContactListSummariesProcedure, opts...),
		UpdateContact:        connect.NewClient[UpdateContactRequest, ContactResponse](httpClient, baseURL+ContactUpdateProcedure, opts...),
		DeleteContact:        connect.NewClient[DeleteContactRequest, Empty](httpClient, baseURL+ContactDeleteProcedure, opts...),

		Register:       connect.NewClient[RegisterRequest, AuthResponse](httpClient, baseURL+AuthRegisterProcedure, opts...),
		Login:          connect.NewClient[LoginRequest, AuthResponse](httpClient, baseURL+AuthLoginProcedure, opts...),
		Logout:         connect.NewClient[Empty, Empty](httpClient, baseURL+AuthLogoutProcedure, opts...),
		GetCurrentUser: connect.NewClient[Empty, UserResponse](httpClient, baseURL+AuthGetCurrentUserProcedure, opts...),
	}
}

// WithToken returns a client option that sends token as a bearer token
// and, when accountID is non-zero, selects that account.
func WithToken(token string, accountID int64) connect.ClientOption {
	return connect.WithInterceptors(connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", "Bearer "+token)
			if accountID != 0 {
				req.Header().Set(middleware.AccountHeader, strconv.FormatInt(accountID, 10))
			}
			return next(ctx, req)
		}
	}))
}
