package service

import (
	"time"

	"github.com/pawnline/loanengine/internal/domain/model"
)

// BalanceReconciler derives a loan's paid amount and balance from its
// completed payments. The figures are always recomputed from the full set,
// never patched incrementally.
type BalanceReconciler struct{}

func NewBalanceReconciler() *BalanceReconciler {
	return &BalanceReconciler{}
}

// Reconcile returns the loan with amount_paid set to the sum of completed
// payments belonging to it. Payments of other loans are ignored.
func (r *BalanceReconciler) Reconcile(loan model.Loan, payments []model.Payment, now time.Time) model.Loan {
	own := make([]model.Payment, 0, len(payments))
	for _, p := range payments {
		if p.LoanID == loan.ID() {
			own = append(own, p)
		}
	}
	return loan.Reconcile(model.SumCompleted(own), now)
}
