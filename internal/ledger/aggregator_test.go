package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/mmynk/debtbook/internal/models"
)

func TestAggregator(t *testing.T) {
	t.Run("applyNewDebt routes by direction", func(t *testing.T) {
		acct := &models.Account{}
		if err := applyNewDebt(acct, models.DirectionIOwe, 1000); err != nil {
			t.Fatalf("applyNewDebt: %v", err)
		}
		if err := applyNewDebt(acct, models.DirectionOwedToMe, 250); err != nil {
			t.Fatalf("applyNewDebt: %v", err)
		}
		if acct.DebtAmount != 1000 || acct.DebtedAmount != 250 {
			t.Errorf("got debt=%d debted=%d, want 1000/250", acct.DebtAmount, acct.DebtedAmount)
		}
	})

	t.Run("applyNewDebt rejects overflow", func(t *testing.T) {
		acct := &models.Account{DebtAmount: math.MaxInt64 - 10}
		err := applyNewDebt(acct, models.DirectionIOwe, 11)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("error = %v, want ErrInvalidAmount", err)
		}
		if acct.DebtAmount != math.MaxInt64-10 {
			t.Errorf("DebtAmount changed to %d", acct.DebtAmount)
		}
		if err := applyNewDebt(acct, models.DirectionIOwe, 10); err != nil {
			t.Errorf("filling to the limit failed: %v", err)
		}
	})

	t.Run("applyPayment floors at zero", func(t *testing.T) {
		acct := &models.Account{DebtAmount: 300}
		applyPayment(acct, models.DirectionIOwe, 500)
		if acct.DebtAmount != 0 {
			t.Errorf("DebtAmount = %d, want 0", acct.DebtAmount)
		}
	})

	t.Run("applyDirectionChange moves the contribution", func(t *testing.T) {
		acct := &models.Account{DebtAmount: 1000, DebtedAmount: 200}
		if err := applyDirectionChange(acct, models.DirectionIOwe, 1000, models.DirectionOwedToMe, 1000); err != nil {
			t.Fatalf("applyDirectionChange: %v", err)
		}
		if acct.DebtAmount != 0 || acct.DebtedAmount != 1200 {
			t.Errorf("got debt=%d debted=%d, want 0/1200", acct.DebtAmount, acct.DebtedAmount)
		}
	})

	t.Run("applyDirectionChange handles amount edits", func(t *testing.T) {
		acct := &models.Account{DebtedAmount: 700}
		if err := applyDirectionChange(acct, models.DirectionOwedToMe, 700, models.DirectionOwedToMe, 400); err != nil {
			t.Fatalf("applyDirectionChange: %v", err)
		}
		if acct.DebtedAmount != 400 {
			t.Errorf("DebtedAmount = %d, want 400", acct.DebtedAmount)
		}
	})

	t.Run("applyDeletion removes remainder only", func(t *testing.T) {
		acct := &models.Account{DebtedAmount: 900}
		applyDeletion(acct, models.DirectionOwedToMe, 400)
		if acct.DebtedAmount != 500 {
			t.Errorf("DebtedAmount = %d, want 500", acct.DebtedAmount)
		}
	})
}
