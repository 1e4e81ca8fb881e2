package valueobject

import "fmt"

// CreditRating is the categorical label derived from a credit score. The zero
// value means "unrated".
type CreditRating struct {
	value string
}

const (
	creditRatingExcellent = "excellent"
	creditRatingGood      = "good"
	creditRatingFair      = "fair"
	creditRatingPoor      = "poor"
)

var (
	CreditRatingExcellent = CreditRating{value: creditRatingExcellent}
	CreditRatingGood      = CreditRating{value: creditRatingGood}
	CreditRatingFair      = CreditRating{value: creditRatingFair}
	CreditRatingPoor      = CreditRating{value: creditRatingPoor}
)

// Score bounds.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// NewCreditRating parses a stored rating. An empty string yields the unrated
// zero value.
func NewCreditRating(s string) (CreditRating, error) {
	switch s {
	case "":
		return CreditRating{}, nil
	case creditRatingExcellent:
		return CreditRatingExcellent, nil
	case creditRatingGood:
		return CreditRatingGood, nil
	case creditRatingFair:
		return CreditRatingFair, nil
	case creditRatingPoor:
		return CreditRatingPoor, nil
	}
	return CreditRating{}, fmt.Errorf("invalid credit rating: %q", s)
}

// RatingForScore maps a score onto its rating band.
func RatingForScore(score int) CreditRating {
	switch {
	case score >= 750:
		return CreditRatingExcellent
	case score >= 650:
		return CreditRatingGood
	case score >= 550:
		return CreditRatingFair
	default:
		return CreditRatingPoor
	}
}

func (r CreditRating) String() string { return r.value }

// IsZero returns true when the customer is unrated.
func (r CreditRating) IsZero() bool { return r.value == "" }

func (r CreditRating) Equal(other CreditRating) bool { return r.value == other.value }
