package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

// Payment is a read-only snapshot of a payment recorded by the cashier
// module. Only completed payments count toward a loan's balance.
type Payment struct {
	ID          string
	LoanID      string
	CustomerID  string
	Amount      decimal.Decimal
	PaymentDate time.Time
	Status      valueobject.PaymentStatus
}

// IsCompleted reports whether the payment counts toward the balance.
func (p Payment) IsCompleted() bool {
	return p.Status.Equal(valueobject.PaymentStatusCompleted)
}

// SumCompleted totals the completed payments in ps.
func SumCompleted(ps []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		if p.IsCompleted() {
			total = total.Add(p.Amount)
		}
	}
	return total
}
