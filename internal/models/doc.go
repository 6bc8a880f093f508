// Package models defines the core domain models for the debt ledger.
//
// # Entities
//
//   - User: the account holder; owns exactly one default Account
//   - Account: cached running totals (income, owed by the user, owed to the user)
//   - Contact: a person debts are recorded against, unique by phone
//   - Debt: an obligation between the user and a contact
//   - Payment: one repayment event against a debt
//   - Transaction: append-only audit row for every balance-affecting event
//   - Evidence: optional free-text note attached to a payment or settlement
//
// # Conventions
//
// IDs are int64 values assigned by the store. Timestamps are Unix seconds.
// Money is carried as money.Amount (integer minor units), never float64.
// Relationships are expressed with IDs rather than pointers.
package models
