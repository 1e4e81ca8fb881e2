package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/service"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/testutil"
)

func installmentDue(daysAgo int, amount, paid string, status valueobject.InstallmentStatus) model.Installment {
	return model.Installment{
		ID:                "inst-1",
		LoanID:            testutil.TestLoanID,
		InstallmentNumber: 1,
		DueDate:           testutil.DaysAgo(daysAgo),
		Amount:            testutil.Dec(amount),
		PaidAmount:        testutil.Dec(paid),
		BalanceRemaining:  testutil.Dec(amount).Sub(testutil.Dec(paid)),
		LateFee:           decimal.Zero,
		Status:            status,
	}
}

func TestLateFee(t *testing.T) {
	ledger := service.NewInstallmentLedger(service.LateFeePolicy{})

	// 500 * 0.15 / 30 * 10
	testutil.AssertDecimal(t, "25.00", ledger.LateFee(testutil.Dec("500"), testutil.Dec("15"), 10))
	assert.True(t, ledger.LateFee(testutil.Dec("500"), testutil.Dec("15"), 0).IsZero())
	assert.True(t, ledger.LateFee(decimal.Zero, testutil.Dec("15"), 10).IsZero())
}

func TestLateFee_MonotonicInDays(t *testing.T) {
	ledger := service.NewInstallmentLedger(service.LateFeePolicy{})
	remaining := testutil.Dec("733.33")
	prev := decimal.Zero
	for days := 0; days <= 120; days++ {
		fee := ledger.LateFee(remaining, testutil.Dec("7.5"), days)
		assert.True(t, fee.GreaterThanOrEqual(prev), "fee fell at day %d", days)
		prev = fee
	}
}

func TestLateFee_Cap(t *testing.T) {
	ledger := service.NewInstallmentLedger(service.LateFeePolicy{CapRatio: testutil.Dec("0.1")})
	testutil.AssertDecimal(t, "25.00", ledger.LateFee(testutil.Dec("500"), testutil.Dec("15"), 10))
	testutil.AssertDecimal(t, "50.00", ledger.LateFee(testutil.Dec("500"), testutil.Dec("15"), 60))
}

func TestInstallmentLedger_Evaluate(t *testing.T) {
	ledger := service.NewInstallmentLedger(service.LateFeePolicy{})
	loan := loanWith(func(a *model.LoanAttributes) {
		a.InterestRateOverdue = decimal.NewNullDecimal(decimal.NewFromInt(15))
	})

	tests := []struct {
		name          string
		inst          model.Installment
		wantStatus    valueobject.InstallmentStatus
		wantFee       string
		wantBalance   string
		becameOverdue bool
	}{
		{
			name:          "unpaid pending becomes overdue",
			inst:          installmentDue(10, "500", "0", valueobject.InstallmentStatusPending),
			wantStatus:    valueobject.InstallmentStatusOverdue,
			wantFee:       "25.00",
			wantBalance:   "525.00",
			becameOverdue: true,
		},
		{
			name:        "already overdue stays overdue",
			inst:        installmentDue(20, "500", "0", valueobject.InstallmentStatusOverdue),
			wantStatus:  valueobject.InstallmentStatusOverdue,
			wantFee:     "50.00",
			wantBalance: "550.00",
		},
		{
			name:        "partial payment",
			inst:        installmentDue(10, "500", "200", valueobject.InstallmentStatusPending),
			wantStatus:  valueobject.InstallmentStatusPartiallyPaid,
			wantFee:     "15.00",
			wantBalance: "315.00",
		},
		{
			name:        "fully paid",
			inst:        installmentDue(10, "500", "500", valueobject.InstallmentStatusPartiallyPaid),
			wantStatus:  valueobject.InstallmentStatusPaid,
			wantFee:     "0",
			wantBalance: "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, became := ledger.Evaluate(tt.inst, loan, today, today)
			assert.True(t, tt.wantStatus.Equal(got.Status), "status %s", got.Status)
			testutil.AssertDecimal(t, tt.wantFee, got.LateFee)
			testutil.AssertDecimal(t, tt.wantBalance, got.BalanceRemaining)
			assert.Equal(t, tt.becameOverdue, became)
		})
	}
}

func TestStatusFor_NotYetDue(t *testing.T) {
	inst := installmentDue(-5, "500", "0", valueobject.InstallmentStatusPending)
	assert.True(t, service.StatusFor(inst, today).Equal(valueobject.InstallmentStatusPending))
}
