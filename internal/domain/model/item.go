package model

import (
	"time"

	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

// Item is the pawned good securing a loan. Its status follows the loan's.
type Item struct {
	ID        string
	BranchID  string
	Name      string
	Status    valueobject.ItemStatus
	Version   int
	UpdatedAt time.Time
}

// WithStatus returns a copy of the item in status s.
func (i Item) WithStatus(s valueobject.ItemStatus, now time.Time) Item {
	next := i
	next.Status = s
	next.UpdatedAt = now
	return next
}
