package money

import (
	"time"

	"github.com/shopspring/decimal"
)

// Common amounts used across the loan engine.
var (
	Hundred = decimal.NewFromInt(100)
	Thirty  = decimal.NewFromInt(30)
)

// Cents rounds an amount half-up to two decimal places.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundToNearest rounds d to the nearest multiple of step (half away from zero).
// A non-positive step returns d unchanged.
func RoundToNearest(d, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return d
	}
	return d.Div(step).Round(0).Mul(step)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// PercentOf returns amount * (rate / 100).
func PercentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(Hundred)
}

// ---------------------------------------------------------------------------
// Day-count helpers
// ---------------------------------------------------------------------------

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return Date(a).Equal(Date(b))
}

// DaysBetween returns the number of whole calendar days from `from` to `to`.
// The result is negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	return int(Date(to).Sub(Date(from)).Hours() / 24)
}

// MonthsBetween returns the number of whole calendar months elapsed from
// `from` to `to`, never negative.
func MonthsBetween(from, to time.Time) int {
	f, t := Date(from), Date(to)
	if !t.After(f) {
		return 0
	}
	months := (t.Year()-f.Year())*12 + int(t.Month()-f.Month())
	if t.Day() < f.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
