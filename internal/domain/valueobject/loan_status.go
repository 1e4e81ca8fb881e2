package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// LoanStatus – immutable value object
// ---------------------------------------------------------------------------

// LoanStatus represents the lifecycle stage of a pawn loan.
type LoanStatus struct {
	value string
}

const (
	loanStatusPending   = "pending"
	loanStatusActive    = "active"
	loanStatusOverdue   = "overdue"
	loanStatusPaid      = "paid"
	loanStatusForfeited = "forfeited"
)

var (
	LoanStatusPending   = LoanStatus{value: loanStatusPending}
	LoanStatusActive    = LoanStatus{value: loanStatusActive}
	LoanStatusOverdue   = LoanStatus{value: loanStatusOverdue}
	LoanStatusPaid      = LoanStatus{value: loanStatusPaid}
	LoanStatusForfeited = LoanStatus{value: loanStatusForfeited}
)

var validLoanStatuses = map[string]LoanStatus{
	loanStatusPending:   LoanStatusPending,
	loanStatusActive:    LoanStatusActive,
	loanStatusOverdue:   LoanStatusOverdue,
	loanStatusPaid:      LoanStatusPaid,
	loanStatusForfeited: LoanStatusForfeited,
}

// NewLoanStatus creates a LoanStatus from a raw string.
func NewLoanStatus(s string) (LoanStatus, error) {
	v, ok := validLoanStatuses[s]
	if !ok {
		return LoanStatus{}, fmt.Errorf("invalid loan status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LoanStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LoanStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanStatus) Equal(other LoanStatus) bool { return s.value == other.value }

// IsTerminal reports whether no further accrual may happen (paid, forfeited).
func (s LoanStatus) IsTerminal() bool {
	return s.value == loanStatusPaid || s.value == loanStatusForfeited
}

// IsOutstanding reports whether the loan still carries a balance that counts
// toward credit utilization (pending, active, overdue).
func (s LoanStatus) IsOutstanding() bool {
	return s.value == loanStatusPending || s.value == loanStatusActive || s.value == loanStatusOverdue
}

// ---------------------------------------------------------------------------
// PaymentStatus – immutable value object
// ---------------------------------------------------------------------------

// PaymentStatus represents the settlement state of a payment.
type PaymentStatus struct {
	value string
}

const (
	paymentStatusPending   = "pending"
	paymentStatusCompleted = "completed"
	paymentStatusCancelled = "cancelled"
)

var (
	PaymentStatusPending   = PaymentStatus{value: paymentStatusPending}
	PaymentStatusCompleted = PaymentStatus{value: paymentStatusCompleted}
	PaymentStatusCancelled = PaymentStatus{value: paymentStatusCancelled}
)

var validPaymentStatuses = map[string]PaymentStatus{
	paymentStatusPending:   PaymentStatusPending,
	paymentStatusCompleted: PaymentStatusCompleted,
	paymentStatusCancelled: PaymentStatusCancelled,
}

// NewPaymentStatus creates a PaymentStatus from a raw string.
func NewPaymentStatus(s string) (PaymentStatus, error) {
	v, ok := validPaymentStatuses[s]
	if !ok {
		return PaymentStatus{}, fmt.Errorf("invalid payment status: %q", s)
	}
	return v, nil
}

func (s PaymentStatus) String() string                 { return s.value }
func (s PaymentStatus) IsZero() bool                   { return s.value == "" }
func (s PaymentStatus) Equal(other PaymentStatus) bool { return s.value == other.value }

// ---------------------------------------------------------------------------
// InstallmentStatus – immutable value object
// ---------------------------------------------------------------------------

// InstallmentStatus represents the settlement state of one installment.
type InstallmentStatus struct {
	value string
}

const (
	installmentStatusPending       = "pending"
	installmentStatusPaid          = "paid"
	installmentStatusOverdue       = "overdue"
	installmentStatusPartiallyPaid = "partially_paid"
)

var (
	InstallmentStatusPending       = InstallmentStatus{value: installmentStatusPending}
	InstallmentStatusPaid          = InstallmentStatus{value: installmentStatusPaid}
	InstallmentStatusOverdue       = InstallmentStatus{value: installmentStatusOverdue}
	InstallmentStatusPartiallyPaid = InstallmentStatus{value: installmentStatusPartiallyPaid}
)

var validInstallmentStatuses = map[string]InstallmentStatus{
	installmentStatusPending:       InstallmentStatusPending,
	installmentStatusPaid:          InstallmentStatusPaid,
	installmentStatusOverdue:       InstallmentStatusOverdue,
	installmentStatusPartiallyPaid: InstallmentStatusPartiallyPaid,
}

// NewInstallmentStatus creates an InstallmentStatus from a raw string.
func NewInstallmentStatus(s string) (InstallmentStatus, error) {
	v, ok := validInstallmentStatuses[s]
	if !ok {
		return InstallmentStatus{}, fmt.Errorf("invalid installment status: %q", s)
	}
	return v, nil
}

func (s InstallmentStatus) String() string                     { return s.value }
func (s InstallmentStatus) IsZero() bool                       { return s.value == "" }
func (s InstallmentStatus) Equal(other InstallmentStatus) bool { return s.value == other.value }

// ---------------------------------------------------------------------------
// ItemStatus – immutable value object
// ---------------------------------------------------------------------------

// ItemStatus represents where a pawned item sits in its lifecycle.
type ItemStatus struct {
	value string
}

const (
	itemStatusAvailable  = "available"
	itemStatusCollateral = "collateral"
	itemStatusSold       = "sold"
	itemStatusForfeited  = "forfeited"
)

var (
	ItemStatusAvailable  = ItemStatus{value: itemStatusAvailable}
	ItemStatusCollateral = ItemStatus{value: itemStatusCollateral}
	ItemStatusSold       = ItemStatus{value: itemStatusSold}
	ItemStatusForfeited  = ItemStatus{value: itemStatusForfeited}
)

var validItemStatuses = map[string]ItemStatus{
	itemStatusAvailable:  ItemStatusAvailable,
	itemStatusCollateral: ItemStatusCollateral,
	itemStatusSold:       ItemStatusSold,
	itemStatusForfeited:  ItemStatusForfeited,
}

// NewItemStatus creates an ItemStatus from a raw string.
func NewItemStatus(s string) (ItemStatus, error) {
	v, ok := validItemStatuses[s]
	if !ok {
		return ItemStatus{}, fmt.Errorf("invalid item status: %q", s)
	}
	return v, nil
}

func (s ItemStatus) String() string              { return s.value }
func (s ItemStatus) IsZero() bool                { return s.value == "" }
func (s ItemStatus) Equal(other ItemStatus) bool { return s.value == other.value }

// IsPledgeable reports whether a new loan may be secured by the item.
func (s ItemStatus) IsPledgeable() bool {
	return s.value == itemStatusAvailable || s.value == itemStatusForfeited
}

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
