package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestCharge records one day of overdue interest posted to a loan.
// At most one exists per (LoanID, ChargeDate).
type InterestCharge struct {
	ID              string
	LoanID          string
	ChargeDate      time.Time
	DaysOverdue     int
	InterestRate    decimal.Decimal
	PrincipalAmount decimal.Decimal
	InterestAmount  decimal.Decimal
	IsApplied       bool
	CreatedAt       time.Time
}
