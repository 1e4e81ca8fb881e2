package port

import (
	"context"
	"time"

	"github.com/pawnline/loanengine/internal/domain/event"
	"github.com/pawnline/loanengine/internal/domain/model"
)

// Scope restricts batch queries to one branch. The zero value covers every
// branch and is what the scheduler uses.
type Scope struct {
	BranchID string
}

// All reports whether the scope is unrestricted.
func (s Scope) All() bool { return s.BranchID == "" }

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// LoanRepository persists and retrieves loans.
type LoanRepository interface {
	// Save upserts the loan with an optimistic version check. A freshly
	// opened loan also stores its installment plan.
	Save(ctx context.Context, loan model.Loan) error
	// SaveWithItem saves the loan and its collateral in one transaction.
	SaveWithItem(ctx context.Context, loan model.Loan, item model.Item) error
	FindByID(ctx context.Context, id string) (model.Loan, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]model.Loan, error)
	// FindAccrualCandidates returns loans with a positive balance whose due
	// date is before asOf and whose status is active (or overdue too when
	// includeOverdue is set).
	FindAccrualCandidates(ctx context.Context, scope Scope, asOf time.Time, includeOverdue bool) ([]model.Loan, error)
	// FindMinimumPaymentCandidates returns active/overdue loans that require
	// a minimum payment, have a next payment date and a positive balance.
	FindMinimumPaymentCandidates(ctx context.Context, scope Scope) ([]model.Loan, error)
}

// AccrualStore posts daily interest charges.
type AccrualStore interface {
	ExistsForDate(ctx context.Context, loanID string, chargeDate time.Time) (bool, error)
	// PostInterestCharge inserts the charge and saves the charged loan
	// atomically. It returns false, and writes nothing, when a charge for the
	// same (loan, date) already exists.
	PostInterestCharge(ctx context.Context, loan model.Loan, charge model.InterestCharge) (bool, error)
}

// PaymentRepository reads payments owned by the cashier module.
type PaymentRepository interface {
	FindByLoanID(ctx context.Context, loanID string) ([]model.Payment, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]model.Payment, error)
}

// InstallmentRepository persists installment rows.
type InstallmentRepository interface {
	// FindUnpaidPastDue returns non-paid installments due before asOf.
	FindUnpaidPastDue(ctx context.Context, scope Scope, asOf time.Time) ([]model.Installment, error)
	FindByLoanID(ctx context.Context, loanID string) ([]model.Installment, error)
	Save(ctx context.Context, inst model.Installment) error
}

// CustomerRepository persists and retrieves customers.
type CustomerRepository interface {
	Save(ctx context.Context, c model.Customer) error
	FindByID(ctx context.Context, id string) (model.Customer, error)
	FindAll(ctx context.Context, scope Scope) ([]model.Customer, error)
}

// ItemRepository reads collateral items.
type ItemRepository interface {
	FindByID(ctx context.Context, id string) (model.Item, error)
}

// JobRunRepository records batch summaries.
type JobRunRepository interface {
	Save(ctx context.Context, run model.JobRun) error
	FindRecent(ctx context.Context, job string, limit int) ([]model.JobRun, error)
}

// ---------------------------------------------------------------------------
// Outbound ports
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// Notifier hands notification intents to the delivery system.
type Notifier interface {
	Notify(ctx context.Context, intents ...model.NotificationIntent) error
}

// JobMetrics counts batch item outcomes.
type JobMetrics interface {
	RecordItem(ctx context.Context, job, outcome string)
}
