// Package calculator holds the pure balance arithmetic of the ledger.
// Nothing here touches storage; callers pass in the rows they loaded.
package calculator

import (
	"sort"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/money"
)

// Outstanding returns the remainder still owed on a debt, max(0, amount-paid).
func Outstanding(amount, paid money.Amount) money.Amount {
	return money.SubFloor(amount, paid)
}

// Balances holds the two debt totals an account caches.
type Balances struct {
	DebtAmount   money.Amount // owed BY the user
	DebtedAmount money.Amount // owed TO the user
}

// ExpectedBalances recomputes account totals from debt history.
//
// Algorithm:
// - Each debt contributes its outstanding remainder, not its principal
// - owed_to_me debts add to DebtedAmount, i_owe debts add to DebtAmount
// - Settled debts contribute zero
func ExpectedBalances(debts []*models.Debt) Balances {
	var b Balances
	for _, d := range debts {
		rem := Outstanding(d.Amount, d.Paid)
		switch d.Direction {
		case models.DirectionOwedToMe:
			b.DebtedAmount += rem
		case models.DirectionIOwe:
			b.DebtAmount += rem
		}
	}
	return b
}

// Reconciliation compares an account's cached totals against the totals
// implied by its debts.
type Reconciliation struct {
	AccountID int64
	Cached    Balances
	Expected  Balances
}

// Drift reports whether the cached totals disagree with debt history.
func (r Reconciliation) Drift() bool {
	return r.Cached != r.Expected
}

// DebtDelta is Cached.DebtAmount - Expected.DebtAmount.
func (r Reconciliation) DebtDelta() money.Amount {
	return r.Cached.DebtAmount - r.Expected.DebtAmount
}

// DebtedDelta is Cached.DebtedAmount - Expected.DebtedAmount.
func (r Reconciliation) DebtedDelta() money.Amount {
	return r.Cached.DebtedAmount - r.Expected.DebtedAmount
}

// Reconcile checks acct against debts. Debts belonging to other accounts
// are ignored.
func Reconcile(acct *models.Account, debts []*models.Debt) Reconciliation {
	own := make([]*models.Debt, 0, len(debts))
	for _, d := range debts {
		if d.AccountID == acct.ID {
			own = append(own, d)
		}
	}
	return Reconciliation{
		AccountID: acct.ID,
		Cached:    Balances{DebtAmount: acct.DebtAmount, DebtedAmount: acct.DebtedAmount},
		Expected:  ExpectedBalances(own),
	}
}

// ContactSummary aggregates a user's debts with one contact.
type ContactSummary struct {
	ContactID        int64
	TotalOwedToUser  money.Amount
	TotalUserOwes    money.Amount
	OutstandingCount int
}

// NetBalance is positive when the contact owes the user overall.
func (s ContactSummary) NetBalance() money.Amount {
	return s.TotalOwedToUser - s.TotalUserOwes
}

// SummarizeByContact groups debts by contact, summing outstanding remainders
// per direction. Only debts with a remainder count as outstanding.
// The result is sorted by contact ID.
func SummarizeByContact(debts []*models.Debt) []ContactSummary {
	byContact := make(map[int64]*ContactSummary)
	for _, d := range debts {
		s, ok := byContact[d.ContactID]
		if !ok {
			s = &ContactSummary{ContactID: d.ContactID}
			byContact[d.ContactID] = s
		}

		rem := Outstanding(d.Amount, d.Paid)
		if rem == 0 {
			continue
		}
		s.OutstandingCount++
		if d.Direction == models.DirectionOwedToMe {
			s.TotalOwedToUser += rem
		} else {
			s.TotalUserOwes += rem
		}
	}

	summaries := make([]ContactSummary, 0, len(byContact))
	for _, s := range byContact {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ContactID < summaries[j].ContactID
	})
	return summaries
}
