package service

import (
	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/money"
)

var (
	limitStep          = decimal.NewFromInt(100)
	limitCeiling       = decimal.NewFromInt(35000)
	unscoredIncomeCap  = decimal.NewFromInt(5000)
	unscoredDefault    = decimal.NewFromInt(1000)
	loyaltyStep        = decimal.RequireFromString("0.1")
	maxLoyaltyPaidLoan = 10
)

type limitTier struct {
	minScore   int
	base       decimal.Decimal
	multiplier decimal.Decimal
}

var limitTiers = []limitTier{
	{750, decimal.NewFromInt(30000), decimal.NewFromInt(4)},
	{650, decimal.NewFromInt(18000), decimal.NewFromInt(3)},
	{550, decimal.NewFromInt(10000), decimal.NewFromInt(2)},
	{valueobject.MinCreditScore, decimal.NewFromInt(4000), decimal.RequireFromString("1.5")},
}

// RecommendedCreditLimit suggests a credit limit for the profile given its
// score (nil when unscored). It is independent of CalculateCreditScore so
// callers can pass a stored score.
func (e *CreditScoreEngine) RecommendedCreditLimit(p CreditProfile, score *int) decimal.Decimal {
	income := p.Customer.MonthlyIncome()

	if score == nil {
		limit := unscoredDefault
		if income.IsPositive() {
			limit = money.Min(income, unscoredIncomeCap)
		}
		return money.RoundToNearest(limit, limitStep)
	}

	tier := limitTiers[len(limitTiers)-1]
	for _, t := range limitTiers {
		if *score >= t.minScore {
			tier = t
			break
		}
	}

	candidate := tier.base
	if income.IsPositive() {
		candidate = money.Min(tier.base, income.Mul(tier.multiplier))
	}

	paid := summarize(p).paid
	if paid > maxLoyaltyPaidLoan {
		paid = maxLoyaltyPaidLoan
	}
	loyalty := decimal.NewFromInt(1).Add(loyaltyStep.Mul(decimal.NewFromInt(int64(paid))))

	limit := money.RoundToNearest(candidate.Mul(loyalty), limitStep)
	return money.Min(limit, limitCeiling)
}
