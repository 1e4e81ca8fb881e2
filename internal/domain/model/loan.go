package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/event"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/money"
)

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// LoanAttributes is the persisted state of a Loan. Repositories read and write
// it; everything else goes through Loan's accessors and transitions.
type LoanAttributes struct {
	ID         string
	BranchID   string
	CustomerID string
	ItemID     string

	LoanAmount          decimal.Decimal
	InterestRate        decimal.Decimal     // monthly percentage
	InterestRateOverdue decimal.NullDecimal // falls back to InterestRate
	InterestAmount      decimal.Decimal
	TotalAmount         decimal.Decimal
	AmountPaid          decimal.Decimal
	BalanceRemaining    decimal.Decimal

	Status   valueobject.LoanStatus
	LoanDate time.Time
	DueDate  time.Time
	PaidDate *time.Time

	RequiresMinimumPayment    bool
	MinimumMonthlyPayment     decimal.Decimal
	NextMinimumPaymentDate    *time.Time
	LastMinimumPaymentDate    *time.Time
	IsAtRisk                  bool
	GracePeriodEndDate        *time.Time
	GracePeriodDays           int
	ConsecutiveMissedPayments int

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Loan is an immutable aggregate. Mutations return a new copy.
type Loan struct {
	a            LoanAttributes
	installments []Installment
	domainEvents []event.DomainEvent
}

// OpenLoanParams describes a loan being issued.
type OpenLoanParams struct {
	BranchID            string
	CustomerID          string
	ItemID              string
	LoanAmount          decimal.Decimal
	InterestRate        decimal.Decimal
	InterestRateOverdue decimal.NullDecimal
	TermMonths          int
	LoanDate            time.Time

	RequiresMinimumPayment bool
	MinimumMonthlyPayment  decimal.Decimal
	GracePeriodDays        int

	// WithInstallments amortizes the loan over TermMonths installments.
	WithInstallments bool
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoan issues a loan in ACTIVE status. Interest is charged upfront for the
// term, or amortized when an installment plan is requested.
func NewLoan(p OpenLoanParams, now time.Time) (Loan, error) {
	switch {
	case p.BranchID == "":
		return Loan{}, NewValidationError("branch_id", "is required")
	case p.CustomerID == "":
		return Loan{}, NewValidationError("customer_id", "is required")
	case p.ItemID == "":
		return Loan{}, NewValidationError("item_id", "is required")
	case !p.LoanAmount.IsPositive():
		return Loan{}, NewValidationError("loan_amount", "must be positive")
	case p.InterestRate.IsNegative():
		return Loan{}, NewValidationError("interest_rate", "must not be negative")
	case p.InterestRateOverdue.Valid && p.InterestRateOverdue.Decimal.IsNegative():
		return Loan{}, NewValidationError("interest_rate_overdue", "must not be negative")
	case p.TermMonths <= 0:
		return Loan{}, NewValidationError("term_months", "must be positive")
	case p.RequiresMinimumPayment && !p.MinimumMonthlyPayment.IsPositive():
		return Loan{}, NewValidationError("minimum_monthly_payment", "must be positive when required")
	case p.GracePeriodDays < 0:
		return Loan{}, NewValidationError("grace_period_days", "must not be negative")
	}

	loanDate := p.LoanDate
	if loanDate.IsZero() {
		loanDate = now
	}
	loanDate = money.Date(loanDate)

	id := uuid.New().String()

	var installments []Installment
	interest := money.Cents(money.PercentOf(p.LoanAmount, p.InterestRate).Mul(decimal.NewFromInt(int64(p.TermMonths))))
	if p.WithInstallments {
		schedule := GenerateAmortizationSchedule(p.LoanAmount, p.InterestRate, p.TermMonths, loanDate)
		interest = decimal.Zero
		for _, e := range schedule {
			interest = interest.Add(e.Interest)
		}
		installments = InstallmentsFromSchedule(id, p.BranchID, schedule, now)
	}
	total := p.LoanAmount.Add(interest)

	a := LoanAttributes{
		ID:                     id,
		BranchID:               p.BranchID,
		CustomerID:             p.CustomerID,
		ItemID:                 p.ItemID,
		LoanAmount:             p.LoanAmount,
		InterestRate:           p.InterestRate,
		InterestRateOverdue:    p.InterestRateOverdue,
		InterestAmount:         interest,
		TotalAmount:            total,
		AmountPaid:             decimal.Zero,
		BalanceRemaining:       total,
		Status:                 valueobject.LoanStatusActive,
		LoanDate:               loanDate,
		DueDate:                loanDate.AddDate(0, p.TermMonths, 0),
		RequiresMinimumPayment: p.RequiresMinimumPayment,
		MinimumMonthlyPayment:  p.MinimumMonthlyPayment,
		GracePeriodDays:        p.GracePeriodDays,
		Version:                1,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if p.RequiresMinimumPayment {
		next := loanDate.AddDate(0, 1, 0)
		a.NextMinimumPaymentDate = &next
	}

	loan := Loan{a: a, installments: installments}
	loan.domainEvents = append(loan.domainEvents, event.NewLoanOpened(
		id, a.BranchID, a.CustomerID, a.ItemID, a.LoanAmount, a.TotalAmount, a.DueDate, now,
	))
	return loan, nil
}

// ReconstructLoan rebuilds a Loan aggregate from persistence.
func ReconstructLoan(a LoanAttributes) Loan {
	return Loan{a: a}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// OverdueRate returns the monthly rate applied once the loan is overdue.
func (l Loan) OverdueRate() decimal.Decimal {
	if l.a.InterestRateOverdue.Valid {
		return l.a.InterestRateOverdue.Decimal
	}
	return l.a.InterestRate
}

// ChargeInterest posts a daily overdue-interest charge: balance, total and
// accumulated interest all grow by the charge and the loan becomes OVERDUE.
func (l Loan) ChargeInterest(c InterestCharge, now time.Time) (Loan, error) {
	if l.a.Status.IsTerminal() || l.a.Status.Equal(valueobject.LoanStatusPending) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	next := l.mutate(now)
	next.a.BalanceRemaining = l.a.BalanceRemaining.Add(c.InterestAmount)
	next.a.TotalAmount = l.a.TotalAmount.Add(c.InterestAmount)
	next.a.InterestAmount = l.a.InterestAmount.Add(c.InterestAmount)
	next.a.Status = valueobject.LoanStatusOverdue
	next.domainEvents = append(next.domainEvents, event.NewLoanInterestCharged(
		l.a.ID, l.a.BranchID, c.ChargeDate, c.DaysOverdue,
		c.InterestRate, c.InterestAmount, next.a.BalanceRemaining, now,
	))
	return next, nil
}

// MarkOverdue moves an ACTIVE loan to OVERDUE. Other statuses are returned
// unchanged with false.
func (l Loan) MarkOverdue(reason string, now time.Time) (Loan, bool) {
	if !l.a.Status.Equal(valueobject.LoanStatusActive) {
		return l, false
	}
	next := l.mutate(now)
	next.a.Status = valueobject.LoanStatusOverdue
	next.domainEvents = append(next.domainEvents, event.NewLoanMarkedOverdue(l.a.ID, l.a.BranchID, reason, now))
	return next, true
}

// FlagAtRisk records a missed minimum payment: NOT_AT_RISK -> AT_RISK with a
// grace period starting today.
func (l Loan) FlagAtRisk(today, now time.Time) (Loan, error) {
	if l.a.IsAtRisk {
		return l, valueobject.ErrInvalidStatusTransition
	}
	graceEnd := money.Date(today).AddDate(0, 0, l.a.GracePeriodDays)
	next := l.mutate(now)
	next.a.IsAtRisk = true
	next.a.GracePeriodEndDate = &graceEnd
	var missed time.Time
	if l.a.NextMinimumPaymentDate != nil {
		missed = *l.a.NextMinimumPaymentDate
	}
	next.domainEvents = append(next.domainEvents, event.NewLoanFlaggedAtRisk(l.a.ID, l.a.BranchID, missed, graceEnd, now))
	return next, nil
}

// EscalateMissedPayment counts another missed payment after a lapsed grace
// period and opens a fresh grace period from today.
func (l Loan) EscalateMissedPayment(today, now time.Time) (Loan, error) {
	if !l.a.IsAtRisk {
		return l, valueobject.ErrInvalidStatusTransition
	}
	graceEnd := money.Date(today).AddDate(0, 0, l.a.GracePeriodDays)
	next := l.mutate(now)
	next.a.ConsecutiveMissedPayments = l.a.ConsecutiveMissedPayments + 1
	next.a.GracePeriodEndDate = &graceEnd
	next.domainEvents = append(next.domainEvents, event.NewMinimumPaymentEscalated(
		l.a.ID, l.a.BranchID, next.a.ConsecutiveMissedPayments, graceEnd, now,
	))
	return next, nil
}

// RecordMinimumPayment clears the at-risk state and advances the next
// minimum-payment date by one month. resetMissed also zeroes the
// consecutive-miss counter. A payment already counted returns
// ErrMinimumPaymentCovered and leaves the loan unchanged.
func (l Loan) RecordMinimumPayment(paidOn time.Time, resetMissed bool, now time.Time) (Loan, error) {
	if !l.a.RequiresMinimumPayment {
		return l, NewValidationError("requires_minimum_payment", "loan %s has no minimum payment plan", l.a.ID)
	}
	if l.a.Status.IsTerminal() {
		return l, valueobject.ErrInvalidStatusTransition
	}

	paid := money.Date(paidOn)
	if l.MinimumPaymentCovered(paid) {
		return l, ErrMinimumPaymentCovered
	}
	base := paid
	if l.a.NextMinimumPaymentDate != nil {
		base = *l.a.NextMinimumPaymentDate
	}
	nextDue := base.AddDate(0, 1, 0)

	next := l.mutate(now)
	next.a.LastMinimumPaymentDate = &paid
	next.a.NextMinimumPaymentDate = &nextDue
	next.a.IsAtRisk = false
	next.a.GracePeriodEndDate = nil
	if resetMissed {
		next.a.ConsecutiveMissedPayments = 0
	}
	next.domainEvents = append(next.domainEvents, event.NewMinimumPaymentRecorded(l.a.ID, l.a.BranchID, paid, nextDue, now))
	return next, nil
}

// MinimumPaymentCovered reports whether a payment made on paidOn has already
// been counted: it is not later than the last recorded minimum payment, or it
// predates the current cycle, which starts one month before the next due
// date.
func (l Loan) MinimumPaymentCovered(paidOn time.Time) bool {
	paid := money.Date(paidOn)
	if last := l.a.LastMinimumPaymentDate; last != nil && !paid.After(money.Date(*last)) {
		return true
	}
	if next := l.a.NextMinimumPaymentDate; next != nil && paid.Before(money.Date(*next).AddDate(0, -1, 0)) {
		return true
	}
	return false
}

// Reconcile derives amount paid and balance from the completed-payment total.
// A zero or negative balance settles the loan; a positive balance on a paid
// loan reopens it as OVERDUE or ACTIVE depending on the due date. Forfeited
// loans keep their status. The stored balance never goes below zero.
func (l Loan) Reconcile(totalPaid decimal.Decimal, now time.Time) Loan {
	next := l.mutate(now)
	next.a.AmountPaid = totalPaid
	balance := l.a.TotalAmount.Sub(totalPaid)

	switch {
	case l.a.Status.Equal(valueobject.LoanStatusForfeited):
		// collateral already taken; only the figures move
	case !balance.IsPositive():
		if !l.a.Status.Equal(valueobject.LoanStatusPaid) {
			paidAt := now
			next.a.Status = valueobject.LoanStatusPaid
			next.a.PaidDate = &paidAt
			next.domainEvents = append(next.domainEvents, event.NewLoanPaidOff(l.a.ID, l.a.BranchID, l.a.ItemID, now))
		}
	case l.a.Status.Equal(valueobject.LoanStatusPaid):
		next.a.Status = valueobject.LoanStatusActive
		if money.Date(l.a.DueDate).Before(money.Date(now)) {
			next.a.Status = valueobject.LoanStatusOverdue
		}
		next.a.PaidDate = nil
		next.domainEvents = append(next.domainEvents, event.NewLoanReopened(
			l.a.ID, l.a.BranchID, next.a.Status.String(), balance, now,
		))
	}

	if balance.IsNegative() {
		balance = decimal.Zero
	}
	next.a.BalanceRemaining = balance
	next.domainEvents = append(next.domainEvents, event.NewLoanBalanceReconciled(
		l.a.ID, l.a.BranchID, totalPaid, balance, next.a.Status.String(), now,
	))
	return next
}

// Forfeit moves an ACTIVE or OVERDUE loan to FORFEITED.
func (l Loan) Forfeit(now time.Time) (Loan, error) {
	if !l.a.Status.Equal(valueobject.LoanStatusActive) && !l.a.Status.Equal(valueobject.LoanStatusOverdue) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	next := l.mutate(now)
	next.a.Status = valueobject.LoanStatusForfeited
	next.domainEvents = append(next.domainEvents, event.NewLoanForfeited(l.a.ID, l.a.BranchID, l.a.ItemID, l.a.BalanceRemaining, now))
	return next, nil
}

func (l Loan) mutate(now time.Time) Loan {
	next := l
	next.a.UpdatedAt = now
	next.installments = nil
	next.domainEvents = copyEvents(l.domainEvents)
	return next
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) ID() string                               { return l.a.ID }
func (l Loan) BranchID() string                         { return l.a.BranchID }
func (l Loan) CustomerID() string                       { return l.a.CustomerID }
func (l Loan) ItemID() string                           { return l.a.ItemID }
func (l Loan) LoanAmount() decimal.Decimal              { return l.a.LoanAmount }
func (l Loan) InterestRate() decimal.Decimal            { return l.a.InterestRate }
func (l Loan) InterestRateOverdue() decimal.NullDecimal { return l.a.InterestRateOverdue }
func (l Loan) InterestAmount() decimal.Decimal          { return l.a.InterestAmount }
func (l Loan) TotalAmount() decimal.Decimal             { return l.a.TotalAmount }
func (l Loan) AmountPaid() decimal.Decimal              { return l.a.AmountPaid }
func (l Loan) BalanceRemaining() decimal.Decimal        { return l.a.BalanceRemaining }
func (l Loan) Status() valueobject.LoanStatus           { return l.a.Status }
func (l Loan) LoanDate() time.Time                      { return l.a.LoanDate }
func (l Loan) DueDate() time.Time                       { return l.a.DueDate }
func (l Loan) PaidDate() *time.Time                     { return l.a.PaidDate }
func (l Loan) RequiresMinimumPayment() bool             { return l.a.RequiresMinimumPayment }
func (l Loan) MinimumMonthlyPayment() decimal.Decimal   { return l.a.MinimumMonthlyPayment }
func (l Loan) NextMinimumPaymentDate() *time.Time       { return l.a.NextMinimumPaymentDate }
func (l Loan) LastMinimumPaymentDate() *time.Time       { return l.a.LastMinimumPaymentDate }
func (l Loan) IsAtRisk() bool                           { return l.a.IsAtRisk }
func (l Loan) GracePeriodEndDate() *time.Time           { return l.a.GracePeriodEndDate }
func (l Loan) GracePeriodDays() int                     { return l.a.GracePeriodDays }
func (l Loan) ConsecutiveMissedPayments() int           { return l.a.ConsecutiveMissedPayments }
func (l Loan) Version() int                             { return l.a.Version }
func (l Loan) CreatedAt() time.Time                     { return l.a.CreatedAt }
func (l Loan) UpdatedAt() time.Time                     { return l.a.UpdatedAt }
func (l Loan) DomainEvents() []event.DomainEvent        { return l.domainEvents }

// Attributes returns the persisted state.
func (l Loan) Attributes() LoanAttributes { return l.a }

// Installments returns a copy of the plan created with the loan. It is empty
// for reconstructed loans.
func (l Loan) Installments() []Installment {
	if l.installments == nil {
		return nil
	}
	out := make([]Installment, len(l.installments))
	copy(out, l.installments)
	return out
}

// ClearEvents returns a copy with an empty event list.
func (l Loan) ClearEvents() Loan {
	next := l
	next.domainEvents = nil
	return next
}

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if src == nil {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}

func itoa(n int) string { return strconv.Itoa(n) }

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
