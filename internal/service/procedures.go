package service

// Fully-qualified service names and procedure paths.
const (
	LedgerServiceName  = "debtbook.v1.LedgerService"
	ContactServiceName = "debtbook.v1.ContactService"
	AuthServiceName    = "debtbook.v1.AuthService"
)

const (
	LedgerCreateDebtProcedure       = "/" + LedgerServiceName + "/CreateDebt"
	LedgerPayDebtProcedure          = "/" + LedgerServiceName + "/PayDebt"
	LedgerSettleDebtProcedure       = "/" + LedgerServiceName + "/SettleDebt"
	LedgerUpdateDebtProcedure       = "/" + LedgerServiceName + "/UpdateDebt"
	LedgerDeleteDebtProcedure       = "/" + LedgerServiceName + "/DeleteDebt"
	LedgerListDebtsProcedure        = "/" + LedgerServiceName + "/ListDebts"
	LedgerGetDebtProcedure          = "/" + LedgerServiceName + "/GetDebt"
	LedgerListPaymentsProcedure     = "/" + LedgerServiceName + "/ListPayments"
	LedgerRecordIncomeProcedure     = "/" + LedgerServiceName + "/RecordIncome"
	LedgerGetAccountProcedure       = "/" + LedgerServiceName + "/GetAccount"
	LedgerListTransactionsProcedure = "/" + LedgerServiceName + "/ListTransactions"
	LedgerReconcileProcedure        = "/" + LedgerServiceName + "/Reconcile"

	ContactCreateProcedure        = "/" + ContactServiceName + "/CreateContact"
	ContactImportProcedure        = "/" + ContactServiceName + "/ImportContacts"
	ContactGetProcedure           = "/" + ContactServiceName + "/GetContact"
	ContactListProcedure          = "/" + ContactServiceName + "/ListContacts"
	ContactListSummariesProcedure = "/" + ContactServiceName + "/ListContactSummaries"
	ContactUpdateProcedure        = "/" + ContactServiceName + "/UpdateContact"
	ContactDeleteProcedure        = "/" + ContactServiceName + "/DeleteContact"

	AuthRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthLogoutProcedure         = "/" + AuthServiceName + "/Logout"
	AuthGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
)
