package ledger

import (
	"fmt"
	"math"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/money"
)

// The functions below adjust an account's cached debt totals in memory.
// Callers persist the account in the same unit of work as the debt write
// that triggered the adjustment.

// balanceField returns the total a debt in direction dir contributes to.
func balanceField(acct *models.Account, dir models.Direction) *money.Amount {
	if dir == models.DirectionOwedToMe {
		return &acct.DebtedAmount
	}
	return &acct.DebtAmount
}

// applyNewDebt adds a new debt's amount to the matching total. The total
// is left unchanged when the sum would overflow.
func applyNewDebt(acct *models.Account, dir models.Direction, amount money.Amount) error {
	f := balanceField(acct, dir)
	sum, err := addTotal(*f, amount)
	if err != nil {
		return err
	}
	*f = sum
	return nil
}

// addTotal adds a non-negative amount to a cached total.
func addTotal(total, amount money.Amount) (money.Amount, error) {
	if amount > math.MaxInt64-total {
		return total, fmt.Errorf("%w: total %s plus %s exceeds the largest representable amount", ErrInvalidAmount, total, amount)
	}
	return total + amount, nil
}

// applyPayment subtracts a payment from the matching total, floored at 0.
func applyPayment(acct *models.Account, dir models.Direction, amount money.Amount) {
	f := balanceField(acct, dir)
	*f = money.SubFloor(*f, amount)
}

// applyDirectionChange removes a debt's old contribution and adds its new
// one. It covers both pure amount edits and direction flips.
func applyDirectionChange(acct *models.Account, oldDir models.Direction, oldAmount money.Amount, newDir models.Direction, newAmount money.Amount) error {
	applyPayment(acct, oldDir, oldAmount)
	return applyNewDebt(acct, newDir, newAmount)
}

// applyDeletion removes a deleted debt's outstanding remainder.
func applyDeletion(acct *models.Account, dir models.Direction, remaining money.Amount) {
	applyPayment(acct, dir, remaining)
}
