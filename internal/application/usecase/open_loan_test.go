package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/application/usecase"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/testutil"
)

func openLoanRequest() dto.OpenLoanRequest {
	return dto.OpenLoanRequest{
		BranchID:     testutil.TestBranchID,
		CustomerID:   testutil.TestCustomerID,
		ItemID:       testutil.TestItemID,
		LoanAmount:   testutil.Dec("1000"),
		InterestRate: testutil.Dec("10"),
		TermMonths:   1,
		LoanDate:     today,
	}
}

func TestOpenLoan_Execute(t *testing.T) {
	t.Run("opens a loan and reserves the item", func(t *testing.T) {
		loanRepo := newLoanRepo()
		publisher := &mockEventPublisher{}
		uc := usecase.NewOpenLoanUseCase(
			newCustomerRepo(customer("3000", "5000")),
			newItemRepo(item(valueobject.ItemStatusAvailable)),
			loanRepo, publisher,
		)

		resp, err := uc.Execute(context.Background(), openLoanRequest())
		require.NoError(t, err)

		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "active", resp.Status)
		testutil.AssertDecimal(t, "100", resp.InterestAmount)
		testutil.AssertDecimal(t, "1100", resp.TotalAmount)
		testutil.AssertDecimal(t, "1100", resp.BalanceRemaining)
		assert.Equal(t, today.AddDate(0, 1, 0), resp.DueDate)

		require.Len(t, loanRepo.savedItems, 1)
		assert.Equal(t, valueobject.ItemStatusCollateral, loanRepo.savedItems[0].Status)
		assert.Equal(t, []string{"loanengine.loan.opened"}, publisher.eventTypes())
	})

	t.Run("accepts a forfeited item", func(t *testing.T) {
		loanRepo := newLoanRepo()
		uc := usecase.NewOpenLoanUseCase(
			newCustomerRepo(customer("3000", "5000")),
			newItemRepo(item(valueobject.ItemStatusForfeited)),
			loanRepo, &mockEventPublisher{},
		)

		_, err := uc.Execute(context.Background(), openLoanRequest())
		require.NoError(t, err)
		require.Len(t, loanRepo.savedItems, 1)
		assert.Equal(t, valueobject.ItemStatusCollateral, loanRepo.savedItems[0].Status)
	})

	t.Run("installment plan and minimum payment tracking", func(t *testing.T) {
		loanRepo := newLoanRepo()
		uc := usecase.NewOpenLoanUseCase(
			newCustomerRepo(customer("3000", "5000")),
			newItemRepo(item(valueobject.ItemStatusAvailable)),
			loanRepo, &mockEventPublisher{},
		)

		req := openLoanRequest()
		req.TermMonths = 3
		req.WithInstallments = true
		req.RequiresMinimumPayment = true
		req.MinimumMonthlyPayment = testutil.Dec("120")
		req.GracePeriodDays = 5

		resp, err := uc.Execute(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Installments)
		require.NotNil(t, resp.NextMinimumPaymentDate)
		assert.Equal(t, today.AddDate(0, 1, 0), *resp.NextMinimumPaymentDate)
	})

	t.Run("rejects an item already pledged", func(t *testing.T) {
		loanRepo := newLoanRepo()
		publisher := &mockEventPublisher{}
		uc := usecase.NewOpenLoanUseCase(
			newCustomerRepo(customer("3000", "5000")),
			newItemRepo(item(valueobject.ItemStatusCollateral)),
			loanRepo, publisher,
		)

		_, err := uc.Execute(context.Background(), openLoanRequest())
		require.Error(t, err)
		assert.True(t, model.IsValidationError(err))
		assert.Empty(t, loanRepo.saved())
		assert.Empty(t, publisher.publishedEvents)
	})

	t.Run("rejects an unknown customer", func(t *testing.T) {
		uc := usecase.NewOpenLoanUseCase(
			newCustomerRepo(),
			newItemRepo(item(valueobject.ItemStatusAvailable)),
			newLoanRepo(), &mockEventPublisher{},
		)

		_, err := uc.Execute(context.Background(), openLoanRequest())
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "customer_id", verr.Field)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		loanRepo := newLoanRepo()
		uc := usecase.NewOpenLoanUseCase(
			newCustomerRepo(customer("3000", "5000")),
			newItemRepo(item(valueobject.ItemStatusAvailable)),
			loanRepo, &mockEventPublisher{},
		)

		req := openLoanRequest()
		req.LoanAmount = testutil.Dec("0")
		_, err := uc.Execute(context.Background(), req)
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "loan_amount", verr.Field)
		assert.Empty(t, loanRepo.saved())
	})
}
