package service

import (
	"time"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

// ApplyLoanStatusSideEffects moves the collateral item after a loan status
// change from previous (zero when the loan was just opened):
//
//	opened            -> collateral
//	-> paid           -> available
//	-> forfeited      -> forfeited
//	paid -> active    -> collateral
//	paid -> overdue   -> collateral
//
// The bool is false when the item needs no change.
func ApplyLoanStatusSideEffects(loan model.Loan, previous valueobject.LoanStatus, item model.Item, now time.Time) (model.Item, bool) {
	current := loan.Status()

	var target valueobject.ItemStatus
	switch {
	case previous.IsZero():
		target = valueobject.ItemStatusCollateral
	case current.Equal(previous):
		return item, false
	case current.Equal(valueobject.LoanStatusPaid):
		target = valueobject.ItemStatusAvailable
	case current.Equal(valueobject.LoanStatusForfeited):
		target = valueobject.ItemStatusForfeited
	case previous.Equal(valueobject.LoanStatusPaid) &&
		(current.Equal(valueobject.LoanStatusActive) || current.Equal(valueobject.LoanStatusOverdue)):
		target = valueobject.ItemStatusCollateral
	default:
		return item, false
	}

	if item.Status.Equal(target) {
		return item, false
	}
	return item.WithStatus(target, now), true
}
