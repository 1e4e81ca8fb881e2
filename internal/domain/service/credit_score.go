package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/money"
)

// Factor names reported in a CreditAssessment.
const (
	FactorPaymentHistory    = "payment_history"
	FactorCreditUtilization = "credit_utilization"
	FactorHistoryLength     = "history_length"
	FactorLoanPerformance   = "loan_performance"
	FactorRecentActivity    = "recent_activity"
)

const recentActivityMonths = 6

var (
	scoreBase          = decimal.NewFromInt(valueobject.MinCreditScore)
	scoreCeiling       = decimal.NewFromInt(valueobject.MaxCreditScore)
	paymentHistoryMax  = decimal.NewFromInt(297)
	latePaidPenalty    = decimal.NewFromInt(30)
	forfeitPenalty     = decimal.NewFromInt(150)
	loanPerformanceMax = decimal.NewFromInt(85)
	activeMixBonus     = decimal.NewFromInt(10)
	overdueLoanPenalty = decimal.NewFromInt(40)
	utilizationPenalty = decimal.NewFromInt(-100)
)

// CreditProfile is everything the scoring engine looks at for one customer.
type CreditProfile struct {
	Customer model.Customer
	Loans    []model.Loan
	Payments []model.Payment
	AsOf     time.Time
}

// ScoreFactor is one weighted component of a score.
type ScoreFactor struct {
	Name   string
	Points decimal.Decimal
}

// CreditAssessment is the outcome of scoring. Score is nil, and Rating zero,
// for customers without a single paid or forfeited loan.
type CreditAssessment struct {
	Score   *int
	Rating  valueobject.CreditRating
	Factors []ScoreFactor
}

// CreditScoreEngine computes a bureau-style score between 300 and 850 from
// the customer's own loan history.
type CreditScoreEngine struct{}

// NewCreditScoreEngine creates a new CreditScoreEngine.
func NewCreditScoreEngine() *CreditScoreEngine {
	return &CreditScoreEngine{}
}

// CalculateCreditScore scores the profile. It never fails: malformed inputs
// such as a zero credit limit fall back to the least favourable tier.
func (e *CreditScoreEngine) CalculateCreditScore(p CreditProfile) CreditAssessment {
	st := summarize(p)
	if st.paid+st.forfeited == 0 {
		return CreditAssessment{}
	}

	factors := []ScoreFactor{
		{Name: FactorPaymentHistory, Points: paymentHistoryPoints(st)},
		{Name: FactorCreditUtilization, Points: utilizationPoints(st.outstanding, p.Customer.CreditLimit())},
		{Name: FactorHistoryLength, Points: historyLengthPoints(money.MonthsBetween(p.Customer.CreatedAt(), p.AsOf))},
		{Name: FactorLoanPerformance, Points: loanPerformancePoints(st)},
		{Name: FactorRecentActivity, Points: recentActivityPoints(st.recentLoans, st.recentPayments)},
	}

	total := scoreBase
	for _, f := range factors {
		total = total.Add(f.Points)
	}
	total = money.Min(money.Max(total, scoreBase), scoreCeiling)
	score := int(total.Round(0).IntPart())

	return CreditAssessment{
		Score:   &score,
		Rating:  valueobject.RatingForScore(score),
		Factors: factors,
	}
}

// ---------------------------------------------------------------------------
// Factors
// ---------------------------------------------------------------------------

type loanStats struct {
	total          int
	paid           int
	paidOnTime     int
	paidLate       int
	forfeited      int
	active         int
	overdue        int
	outstanding    decimal.Decimal
	recentLoans    int
	recentPayments int
}

func summarize(p CreditProfile) loanStats {
	st := loanStats{outstanding: decimal.Zero}
	cutoff := money.Date(p.AsOf).AddDate(0, -recentActivityMonths, 0)

	for _, l := range p.Loans {
		st.total++
		status := l.Status()
		switch {
		case status.Equal(valueobject.LoanStatusPaid):
			st.paid++
			if pd := l.PaidDate(); pd != nil && money.Date(*pd).After(money.Date(l.DueDate())) {
				st.paidLate++
			} else {
				st.paidOnTime++
			}
		case status.Equal(valueobject.LoanStatusForfeited):
			st.forfeited++
		case status.Equal(valueobject.LoanStatusActive):
			st.active++
		case status.Equal(valueobject.LoanStatusOverdue):
			st.overdue++
		}
		if status.IsOutstanding() {
			st.outstanding = st.outstanding.Add(l.BalanceRemaining())
		}

		opened := l.LoanDate()
		if opened.IsZero() {
			opened = l.CreatedAt()
		}
		if !money.Date(opened).Before(cutoff) {
			st.recentLoans++
		}
	}

	for _, pay := range p.Payments {
		if pay.IsCompleted() && !money.Date(pay.PaymentDate).Before(cutoff) {
			st.recentPayments++
		}
	}
	return st
}

// paymentHistoryPoints: share of all loans that were paid on time, scaled to
// 297, less penalties for late payoffs and forfeitures. Open loans count in
// the denominator.
func paymentHistoryPoints(st loanStats) decimal.Decimal {
	pts := paymentHistoryMax.Mul(decimal.NewFromInt(int64(st.paidOnTime))).Div(decimal.NewFromInt(int64(st.total)))
	pts = pts.Sub(latePaidPenalty.Mul(decimal.NewFromInt(int64(st.paidLate))))
	pts = pts.Sub(forfeitPenalty.Mul(decimal.NewFromInt(int64(st.forfeited))))
	return money.Max(pts, decimal.Zero)
}

func utilizationPoints(outstanding, limit decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return utilizationPenalty
	}
	ratio := outstanding.Div(limit)
	switch {
	case ratio.LessThanOrEqual(decimal.RequireFromString("0.10")):
		return decimal.NewFromInt(255)
	case ratio.LessThanOrEqual(decimal.RequireFromString("0.30")):
		return decimal.NewFromInt(220)
	case ratio.LessThanOrEqual(decimal.RequireFromString("0.50")):
		return decimal.NewFromInt(150)
	case ratio.LessThanOrEqual(decimal.RequireFromString("0.75")):
		return decimal.NewFromInt(80)
	case ratio.LessThan(decimal.NewFromInt(1)):
		return decimal.NewFromInt(20)
	default:
		return utilizationPenalty
	}
}

func historyLengthPoints(months int) decimal.Decimal {
	tiers := []struct {
		months int
		points int64
	}{
		{84, 127}, {60, 110}, {36, 90}, {24, 70}, {12, 50}, {6, 30}, {3, 15},
	}
	for _, t := range tiers {
		if months >= t.months {
			return decimal.NewFromInt(t.points)
		}
	}
	return decimal.Zero
}

func loanPerformancePoints(st loanStats) decimal.Decimal {
	pts := loanPerformanceMax.Mul(decimal.NewFromInt(int64(st.paid))).Div(decimal.NewFromInt(int64(st.total)))
	if st.active >= 1 && st.active <= 2 {
		pts = pts.Add(activeMixBonus)
	}
	return pts.Sub(overdueLoanPenalty.Mul(decimal.NewFromInt(int64(st.overdue))))
}

func recentActivityPoints(newLoans, recentPayments int) decimal.Decimal {
	switch {
	case newLoans == 0 && recentPayments == 0:
		return decimal.NewFromInt(40)
	case newLoans <= 2 && recentPayments >= 1:
		return decimal.NewFromInt(85)
	case newLoans <= 3:
		return decimal.NewFromInt(60)
	default:
		return decimal.NewFromInt(20)
	}
}
