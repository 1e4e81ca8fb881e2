package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/event"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

// Customer is an immutable aggregate holding a borrower's credit standing.
type Customer struct {
	id                   string
	branchID             string
	name                 string
	monthlyIncome        decimal.Decimal
	creditLimit          decimal.Decimal
	creditScore          *int
	creditRating         valueobject.CreditRating
	creditScoreUpdatedAt *time.Time
	version              int
	createdAt            time.Time
	updatedAt            time.Time
	domainEvents         []event.DomainEvent
}

// ReconstructCustomer rebuilds a Customer aggregate from persistence.
func ReconstructCustomer(
	id, branchID, name string,
	monthlyIncome, creditLimit decimal.Decimal,
	creditScore *int,
	creditRating valueobject.CreditRating,
	creditScoreUpdatedAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) Customer {
	return Customer{
		id:                   id,
		branchID:             branchID,
		name:                 name,
		monthlyIncome:        monthlyIncome,
		creditLimit:          creditLimit,
		creditScore:          creditScore,
		creditRating:         creditRating,
		creditScoreUpdatedAt: creditScoreUpdatedAt,
		version:              version,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}
}

// ApplyCreditScore stores a freshly computed score and stamps the scoring
// time. A nil score clears both score and rating. The second return reports
// whether score or rating changed; only then is an event raised.
func (c Customer) ApplyCreditScore(score *int, now time.Time) (Customer, bool) {
	var rating valueobject.CreditRating
	if score != nil {
		rating = valueobject.RatingForScore(*score)
	}

	next := c
	stamp := now
	next.creditScoreUpdatedAt = &stamp
	next.updatedAt = now
	if sameScore(c.creditScore, score) && c.creditRating.Equal(rating) {
		return next, false
	}

	next.creditRating = rating
	next.creditScore = nil
	if score != nil {
		s := *score
		next.creditScore = &s
	}
	next.domainEvents = copyEvents(c.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewCreditScoreRecalculated(
		c.id, c.branchID, next.creditScore, rating.String(), now,
	))
	return next, true
}

// ApplyCreditLimit sets a new credit limit. It returns false, and the
// customer as is, when the limit is unchanged or negative.
func (c Customer) ApplyCreditLimit(limit decimal.Decimal, now time.Time) (Customer, bool) {
	if limit.IsNegative() || limit.Equal(c.creditLimit) {
		return c, false
	}

	next := c
	next.creditLimit = limit
	next.updatedAt = now
	next.domainEvents = copyEvents(c.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewCreditLimitAdjusted(
		c.id, c.branchID, c.creditLimit, limit, now,
	))
	return next, true
}

func sameScore(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (c Customer) ID() string                             { return c.id }
func (c Customer) BranchID() string                       { return c.branchID }
func (c Customer) Name() string                           { return c.name }
func (c Customer) MonthlyIncome() decimal.Decimal         { return c.monthlyIncome }
func (c Customer) CreditLimit() decimal.Decimal           { return c.creditLimit }
func (c Customer) CreditScore() *int                      { return c.creditScore }
func (c Customer) CreditRating() valueobject.CreditRating { return c.creditRating }
func (c Customer) CreditScoreUpdatedAt() *time.Time       { return c.creditScoreUpdatedAt }
func (c Customer) Version() int                           { return c.version }
func (c Customer) CreatedAt() time.Time                   { return c.createdAt }
func (c Customer) UpdatedAt() time.Time                   { return c.updatedAt }
func (c Customer) DomainEvents() []event.DomainEvent      { return c.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (c Customer) ClearEvents() Customer {
	next := c
	next.domainEvents = nil
	return next
}
