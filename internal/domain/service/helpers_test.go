package service_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/testutil"
)

var today = testutil.TestToday

func ptr[T any](v T) *T { return &v }

func loanWith(mut func(a *model.LoanAttributes)) model.Loan {
	a := model.LoanAttributes{
		ID:               testutil.TestLoanID,
		BranchID:         testutil.TestBranchID,
		CustomerID:       testutil.TestCustomerID,
		ItemID:           testutil.TestItemID,
		LoanAmount:       testutil.Dec("1000"),
		InterestRate:     testutil.Dec("10"),
		InterestAmount:   testutil.Dec("100"),
		TotalAmount:      testutil.Dec("1100"),
		AmountPaid:       decimal.Zero,
		BalanceRemaining: testutil.Dec("1100"),
		Status:           valueobject.LoanStatusActive,
		LoanDate:         testutil.MonthsAgo(12),
		DueDate:          testutil.MonthsAgo(11),
		GracePeriodDays:  7,
		Version:          1,
		CreatedAt:        testutil.MonthsAgo(12),
	}
	if mut != nil {
		mut(&a)
	}
	return model.ReconstructLoan(a)
}

func customerWith(income, limit string, created time.Time) model.Customer {
	return model.ReconstructCustomer(
		testutil.TestCustomerID, testutil.TestBranchID, "Sam",
		testutil.Dec(income), testutil.Dec(limit),
		nil, valueobject.CreditRating{}, nil, 1, created, created,
	)
}

func paidLoan(onTime bool) model.Loan {
	return loanWith(func(a *model.LoanAttributes) {
		a.Status = valueobject.LoanStatusPaid
		a.AmountPaid = a.TotalAmount
		a.BalanceRemaining = decimal.Zero
		paid := a.DueDate.AddDate(0, 0, -3)
		if !onTime {
			paid = a.DueDate.AddDate(0, 0, 4)
		}
		a.PaidDate = &paid
	})
}

func completedPayment(loanID, amount string, on time.Time) model.Payment {
	return model.Payment{
		ID:          "pay-" + amount,
		LoanID:      loanID,
		CustomerID:  testutil.TestCustomerID,
		Amount:      testutil.Dec(amount),
		PaymentDate: on,
		Status:      valueobject.PaymentStatusCompleted,
	}
}
