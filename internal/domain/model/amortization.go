package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/pkg/money"
)

// AmortizationEntry is one period of a fixed-payment schedule.
type AmortizationEntry struct {
	DueDate          time.Time
	Principal        decimal.Decimal
	Interest         decimal.Decimal
	Total            decimal.Decimal
	RemainingBalance decimal.Decimal
	Period           int
}

// GenerateAmortizationSchedule computes a fixed-payment schedule for a
// principal at a monthly percentage rate (3 = 3% per month):
//
//	r       = monthlyRate / 100
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// The first period falls due one month after startDate. The last period
// absorbs rounding so the balance reaches exactly zero.
func GenerateAmortizationSchedule(
	principal decimal.Decimal,
	monthlyRate decimal.Decimal,
	periods int,
	startDate time.Time,
) []AmortizationEntry {
	if periods <= 0 || !principal.IsPositive() {
		return nil
	}

	r := monthlyRate.Div(money.Hundred)
	rf := r.InexactFloat64()

	var payment decimal.Decimal
	if rf == 0 {
		payment = money.Cents(principal.Div(decimal.NewFromInt(int64(periods))))
	} else {
		factor := math.Pow(1+rf, float64(periods))
		payment = money.Cents(decimal.NewFromFloat(principal.InexactFloat64() * rf * factor / (factor - 1)))
	}

	schedule := make([]AmortizationEntry, 0, periods)
	remaining := principal

	for period := 1; period <= periods; period++ {
		interest := money.Cents(remaining.Mul(r))
		principalPart := payment.Sub(interest)
		if period == periods || principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}

		remaining = remaining.Sub(principalPart)
		schedule = append(schedule, AmortizationEntry{
			Period:           period,
			DueDate:          startDate.AddDate(0, period, 0),
			Principal:        principalPart,
			Interest:         interest,
			Total:            principalPart.Add(interest),
			RemainingBalance: remaining,
		})
	}

	return schedule
}
