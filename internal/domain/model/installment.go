package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

// Installment is one scheduled repayment of an installment-plan loan.
// It is a value type; the ledger returns updated copies.
type Installment struct {
	ID                string
	LoanID            string
	BranchID          string
	InstallmentNumber int
	DueDate           time.Time
	Amount            decimal.Decimal
	PrincipalAmount   decimal.Decimal
	InterestAmount    decimal.Decimal
	PaidAmount        decimal.Decimal
	BalanceRemaining  decimal.Decimal
	DaysOverdue       int
	LateFee           decimal.Decimal
	Status            valueobject.InstallmentStatus
	Version           int
	UpdatedAt         time.Time
}

// Remaining returns the unpaid part of the installment amount, never negative.
func (i Installment) Remaining() decimal.Decimal {
	r := i.Amount.Sub(i.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// InstallmentsFromSchedule turns an amortization schedule into pending
// installments for loanID.
func InstallmentsFromSchedule(loanID, branchID string, schedule []AmortizationEntry, now time.Time) []Installment {
	out := make([]Installment, 0, len(schedule))
	for _, e := range schedule {
		out = append(out, Installment{
			ID:                uuid.New().String(),
			LoanID:            loanID,
			BranchID:          branchID,
			InstallmentNumber: e.Period,
			DueDate:           e.DueDate,
			Amount:            e.Total,
			PrincipalAmount:   e.Principal,
			InterestAmount:    e.Interest,
			PaidAmount:        decimal.Zero,
			BalanceRemaining:  e.Total,
			LateFee:           decimal.Zero,
			Status:            valueobject.InstallmentStatusPending,
			Version:           1,
			UpdatedAt:         now,
		})
	}
	return out
}
