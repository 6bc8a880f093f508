package calculator

import (
	"testing"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/money"
)

func debt(contactID int64, amount, paid money.Amount, dir models.Direction) *models.Debt {
	return &models.Debt{AccountID: 1, ContactID: contactID, Amount: amount, Paid: paid, Direction: dir, Settled: paid >= amount}
}

func TestOutstanding(t *testing.T) {
	tests := []struct {
		name         string
		amount, paid money.Amount
		want         money.Amount
	}{
		{"unpaid", 1000, 0, 1000},
		{"partial", 1000, 300, 700},
		{"exact", 1000, 1000, 0},
		{"overpaid floors at zero", 1000, 1200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outstanding(tt.amount, tt.paid); got != tt.want {
				t.Errorf("Outstanding(%d, %d) = %d, want %d", tt.amount, tt.paid, got, tt.want)
			}
		})
	}
}

func TestExpectedBalances(t *testing.T) {
	debts := []*models.Debt{
		debt(1, 1000, 300, models.DirectionIOwe),
		debt(1, 500, 0, models.DirectionOwedToMe),
		debt(2, 200, 200, models.DirectionOwedToMe),
		debt(2, 400, 100, models.DirectionOwedToMe),
	}

	got := ExpectedBalances(debts)
	want := Balances{DebtAmount: 700, DebtedAmount: 800}
	if got != want {
		t.Errorf("ExpectedBalances = %+v, want %+v", got, want)
	}
}

func TestReconcile(t *testing.T) {
	debts := []*models.Debt{
		debt(1, 1000, 0, models.DirectionIOwe),
		{AccountID: 2, ContactID: 1, Amount: 999, Direction: models.DirectionIOwe},
	}

	t.Run("consistent account has no drift", func(t *testing.T) {
		acct := &models.Account{ID: 1, DebtAmount: 1000}
		rec := Reconcile(acct, debts)
		if rec.Drift() {
			t.Errorf("expected no drift, got %+v", rec)
		}
	})

	t.Run("stale cache reports deltas", func(t *testing.T) {
		acct := &models.Account{ID: 1, DebtAmount: 1300, DebtedAmount: 50}
		rec := Reconcile(acct, debts)
		if !rec.Drift() {
			t.Fatal("expected drift")
		}
		if rec.DebtDelta() != 300 {
			t.Errorf("DebtDelta = %d, want 300", rec.DebtDelta())
		}
		if rec.DebtedDelta() != 50 {
			t.Errorf("DebtedDelta = %d, want 50", rec.DebtedDelta())
		}
	})
}

func TestSummarizeByContact(t *testing.T) {
	debts := []*models.Debt{
		debt(2, 1000, 300, models.DirectionIOwe),
		debt(1, 500, 0, models.DirectionOwedToMe),
		debt(1, 200, 200, models.DirectionOwedToMe),
		debt(1, 100, 0, models.DirectionIOwe),
	}

	got := SummarizeByContact(debts)
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}

	c1 := got[0]
	if c1.ContactID != 1 || c1.TotalOwedToUser != 500 || c1.TotalUserOwes != 100 || c1.OutstandingCount != 2 {
		t.Errorf("contact 1 summary = %+v", c1)
	}
	if c1.NetBalance() != 400 {
		t.Errorf("contact 1 net = %d, want 400", c1.NetBalance())
	}

	c2 := got[1]
	if c2.ContactID != 2 || c2.TotalUserOwes != 700 || c2.OutstandingCount != 1 {
		t.Errorf("contact 2 summary = %+v", c2)
	}
}
