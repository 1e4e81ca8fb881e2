package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/testutil"
)

func openParams() model.OpenLoanParams {
	return model.OpenLoanParams{
		BranchID:     testutil.TestBranchID,
		CustomerID:   testutil.TestCustomerID,
		ItemID:       testutil.TestItemID,
		LoanAmount:   decimal.NewFromInt(1000),
		InterestRate: decimal.NewFromInt(5),
		TermMonths:   2,
		LoanDate:     time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
	}
}

func reconstruct(mut func(*model.LoanAttributes)) model.Loan {
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
		LoanDate:         testutil.MonthsAgo(2),
		DueDate:          testutil.DaysAgo(10),
		GracePeriodDays:  7,
		Version:          3,
	}
	if mut != nil {
		mut(&a)
	}
	return model.ReconstructLoan(a)
}

func TestNewLoan(t *testing.T) {
	now := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)
	loan, err := model.NewLoan(openParams(), now)
	require.NoError(t, err)

	assert.NotEmpty(t, loan.ID())
	assert.True(t, loan.Status().Equal(valueobject.LoanStatusActive))
	testutil.AssertDecimal(t, "100", loan.InterestAmount())
	testutil.AssertDecimal(t, "1100", loan.TotalAmount())
	testutil.AssertDecimal(t, "1100", loan.BalanceRemaining())
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), loan.DueDate())
	assert.Nil(t, loan.NextMinimumPaymentDate())
	assert.Empty(t, loan.Installments())
	assert.Equal(t, 1, loan.Version())
	require.Len(t, loan.DomainEvents(), 1)
	assert.Equal(t, "loanengine.loan.opened", loan.DomainEvents()[0].EventType())
}

func TestNewLoan_WithInstallmentsAndMinimumPayment(t *testing.T) {
	p := openParams()
	p.WithInstallments = true
	p.RequiresMinimumPayment = true
	p.MinimumMonthlyPayment = decimal.NewFromInt(100)
	p.GracePeriodDays = 5

	loan, err := model.NewLoan(p, p.LoanDate)
	require.NoError(t, err)

	plan := loan.Installments()
	require.Len(t, plan, 2)
	interest := decimal.Zero
	amount := decimal.Zero
	for _, inst := range plan {
		assert.Equal(t, loan.ID(), inst.LoanID)
		assert.True(t, inst.Status.Equal(valueobject.InstallmentStatusPending))
		interest = interest.Add(inst.InterestAmount)
		amount = amount.Add(inst.Amount)
	}
	assert.True(t, loan.InterestAmount().Equal(interest))
	assert.True(t, loan.TotalAmount().Equal(amount), "plan must sum to the loan total")

	require.NotNil(t, loan.NextMinimumPaymentDate())
	assert.Equal(t, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), *loan.NextMinimumPaymentDate())
}

func TestNewLoan_Validation(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*model.OpenLoanParams)
		field string
	}{
		{"missing customer", func(p *model.OpenLoanParams) { p.CustomerID = "" }, "customer_id"},
		{"zero amount", func(p *model.OpenLoanParams) { p.LoanAmount = decimal.Zero }, "loan_amount"},
		{"negative rate", func(p *model.OpenLoanParams) { p.InterestRate = decimal.NewFromInt(-1) }, "interest_rate"},
		{"zero term", func(p *model.OpenLoanParams) { p.TermMonths = 0 }, "term_months"},
		{"minimum without amount", func(p *model.OpenLoanParams) { p.RequiresMinimumPayment = true }, "minimum_monthly_payment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := openParams()
			tt.mut(&p)
			_, err := model.NewLoan(p, time.Now())
			require.Error(t, err)
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLoan_OverdueRate(t *testing.T) {
	plain := reconstruct(nil)
	testutil.AssertDecimal(t, "10", plain.OverdueRate())

	withOverdue := reconstruct(func(a *model.LoanAttributes) {
		a.InterestRateOverdue = decimal.NewNullDecimal(decimal.NewFromInt(15))
	})
	testutil.AssertDecimal(t, "15", withOverdue.OverdueRate())
}

func TestLoan_ChargeInterest(t *testing.T) {
	loan := reconstruct(nil)
	charge := model.InterestCharge{
		LoanID:         loan.ID(),
		ChargeDate:     testutil.TestToday,
		DaysOverdue:    10,
		InterestRate:   testutil.Dec("10"),
		InterestAmount: testutil.Dec("3.67"),
	}

	charged, err := loan.ChargeInterest(charge, testutil.TestToday)
	require.NoError(t, err)
	testutil.AssertDecimal(t, "1103.67", charged.BalanceRemaining())
	testutil.AssertDecimal(t, "1103.67", charged.TotalAmount())
	testutil.AssertDecimal(t, "103.67", charged.InterestAmount())
	assert.True(t, charged.Status().Equal(valueobject.LoanStatusOverdue))
	require.Len(t, charged.DomainEvents(), 1)

	// original untouched
	testutil.AssertDecimal(t, "1100", loan.BalanceRemaining())

	paid := reconstruct(func(a *model.LoanAttributes) { a.Status = valueobject.LoanStatusPaid })
	_, err = paid.ChargeInterest(charge, testutil.TestToday)
	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
}

func TestLoan_MarkOverdue(t *testing.T) {
	next, changed := reconstruct(nil).MarkOverdue("installment overdue", testutil.TestToday)
	assert.True(t, changed)
	assert.True(t, next.Status().Equal(valueobject.LoanStatusOverdue))

	overdue := reconstruct(func(a *model.LoanAttributes) { a.Status = valueobject.LoanStatusOverdue })
	_, changed = overdue.MarkOverdue("again", testutil.TestToday)
	assert.False(t, changed)
}

func TestLoan_RiskTransitions(t *testing.T) {
	loan := reconstruct(func(a *model.LoanAttributes) {
		a.RequiresMinimumPayment = true
		a.MinimumMonthlyPayment = testutil.Dec("100")
		due := testutil.DaysAgo(1)
		a.NextMinimumPaymentDate = &due
	})

	flagged, err := loan.FlagAtRisk(testutil.TestToday, testutil.TestToday)
	require.NoError(t, err)
	assert.True(t, flagged.IsAtRisk())
	require.NotNil(t, flagged.GracePeriodEndDate())
	assert.Equal(t, testutil.TestToday.AddDate(0, 0, 7), *flagged.GracePeriodEndDate())

	_, err = flagged.FlagAtRisk(testutil.TestToday, testutil.TestToday)
	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)

	later := testutil.TestToday.AddDate(0, 0, 8)
	escalated, err := flagged.EscalateMissedPayment(later, later)
	require.NoError(t, err)
	assert.Equal(t, 1, escalated.ConsecutiveMissedPayments())
	assert.Equal(t, later.AddDate(0, 0, 7), *escalated.GracePeriodEndDate())

	t.Run("payment keeps counter by default", func(t *testing.T) {
		cleared, err := escalated.RecordMinimumPayment(later, false, later)
		require.NoError(t, err)
		assert.False(t, cleared.IsAtRisk())
		assert.Nil(t, cleared.GracePeriodEndDate())
		assert.Equal(t, 1, cleared.ConsecutiveMissedPayments())
		assert.Equal(t, testutil.DaysAgo(1).AddDate(0, 1, 0), *cleared.NextMinimumPaymentDate())
		assert.Equal(t, later, *cleared.LastMinimumPaymentDate())
	})

	t.Run("payment resets counter when configured", func(t *testing.T) {
		cleared, err := escalated.RecordMinimumPayment(later, true, later)
		require.NoError(t, err)
		assert.Equal(t, 0, cleared.ConsecutiveMissedPayments())
	})
}

func TestLoan_RecordMinimumPayment_CountsEachCycleOnce(t *testing.T) {
	next := testutil.DaysAgo(8)
	loan := reconstruct(func(a *model.LoanAttributes) {
		a.RequiresMinimumPayment = true
		a.MinimumMonthlyPayment = testutil.Dec("100")
		a.NextMinimumPaymentDate = &next
	})
	paidOn := testutil.DaysAgo(1)

	first, err := loan.RecordMinimumPayment(paidOn, false, testutil.TestToday)
	require.NoError(t, err)
	assert.Equal(t, next.AddDate(0, 1, 0), *first.NextMinimumPaymentDate())

	t.Run("same payment again", func(t *testing.T) {
		again, err := first.ClearEvents().RecordMinimumPayment(paidOn, false, testutil.TestToday)
		assert.ErrorIs(t, err, model.ErrMinimumPaymentCovered)
		assert.Equal(t, next.AddDate(0, 1, 0), *again.NextMinimumPaymentDate())
		assert.Empty(t, again.DomainEvents())
	})

	t.Run("payment dated before the current cycle", func(t *testing.T) {
		assert.True(t, first.MinimumPaymentCovered(testutil.DaysAgo(9)))
		assert.True(t, loan.MinimumPaymentCovered(next.AddDate(0, -1, -1)))
	})

	t.Run("payment in the following cycle advances again", func(t *testing.T) {
		later := next.AddDate(0, 1, -2)
		second, err := first.RecordMinimumPayment(later, false, later)
		require.NoError(t, err)
		assert.Equal(t, next.AddDate(0, 2, 0), *second.NextMinimumPaymentDate())
	})

	t.Run("first payment of a fresh plan", func(t *testing.T) {
		assert.False(t, loan.MinimumPaymentCovered(next.AddDate(0, -1, 0)))
		assert.False(t, loan.MinimumPaymentCovered(paidOn))
	})
}

func TestLoan_Reconcile(t *testing.T) {
	t.Run("full payment settles the loan", func(t *testing.T) {
		loan := reconstruct(nil)
		settled := loan.Reconcile(testutil.Dec("1100.00"), testutil.TestToday)
		assert.True(t, settled.Status().Equal(valueobject.LoanStatusPaid))
		testutil.AssertDecimal(t, "0.00", settled.BalanceRemaining())
		testutil.AssertDecimal(t, "1100", settled.AmountPaid())
		require.NotNil(t, settled.PaidDate())
	})

	t.Run("reversal on past due date reopens as overdue", func(t *testing.T) {
		paidAt := testutil.DaysAgo(2)
		loan := reconstruct(func(a *model.LoanAttributes) {
			a.Status = valueobject.LoanStatusPaid
			a.AmountPaid = a.TotalAmount
			a.BalanceRemaining = decimal.Zero
			a.PaidDate = &paidAt
		})
		reopened := loan.Reconcile(testutil.Dec("600"), testutil.TestToday)
		assert.True(t, reopened.Status().Equal(valueobject.LoanStatusOverdue))
		assert.Nil(t, reopened.PaidDate())
		testutil.AssertDecimal(t, "500", reopened.BalanceRemaining())
	})

	t.Run("reversal before due date reopens as active", func(t *testing.T) {
		loan := reconstruct(func(a *model.LoanAttributes) {
			a.Status = valueobject.LoanStatusPaid
			a.DueDate = testutil.TestToday.AddDate(0, 0, 5)
		})
		reopened := loan.Reconcile(decimal.Zero, testutil.TestToday)
		assert.True(t, reopened.Status().Equal(valueobject.LoanStatusActive))
		testutil.AssertDecimal(t, "1100", reopened.BalanceRemaining())
	})

	t.Run("overpayment never stores a negative balance", func(t *testing.T) {
		settled := reconstruct(nil).Reconcile(testutil.Dec("1200"), testutil.TestToday)
		assert.True(t, settled.BalanceRemaining().IsZero())
		assert.True(t, settled.Status().Equal(valueobject.LoanStatusPaid))
	})

	t.Run("forfeited keeps its status and only the figures move", func(t *testing.T) {
		loan := reconstruct(func(a *model.LoanAttributes) { a.Status = valueobject.LoanStatusForfeited })
		next := loan.Reconcile(testutil.Dec("1100"), testutil.TestToday)
		assert.True(t, next.Status().Equal(valueobject.LoanStatusForfeited))
		assert.Nil(t, next.PaidDate())
		testutil.AssertDecimal(t, "1100", next.AmountPaid())
		assert.True(t, next.BalanceRemaining().IsZero())
		require.Len(t, next.DomainEvents(), 1)
		assert.Equal(t, "loanengine.loan.balance_reconciled", next.DomainEvents()[0].EventType())
	})

	t.Run("settled loan keeps its original paid date", func(t *testing.T) {
		paidAt := testutil.DaysAgo(10)
		loan := reconstruct(func(a *model.LoanAttributes) {
			a.Status = valueobject.LoanStatusPaid
			a.AmountPaid = a.TotalAmount
			a.BalanceRemaining = decimal.Zero
			a.PaidDate = &paidAt
		})
		next := loan.Reconcile(testutil.Dec("1150"), testutil.TestToday)
		assert.True(t, next.Status().Equal(valueobject.LoanStatusPaid))
		require.NotNil(t, next.PaidDate())
		assert.True(t, paidAt.Equal(*next.PaidDate()))
		testutil.AssertDecimal(t, "1150", next.AmountPaid())
	})
}

func TestLoan_Forfeit(t *testing.T) {
	forfeited, err := reconstruct(nil).Forfeit(testutil.TestToday)
	require.NoError(t, err)
	assert.True(t, forfeited.Status().Equal(valueobject.LoanStatusForfeited))

	_, err = forfeited.Forfeit(testutil.TestToday)
	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
}
