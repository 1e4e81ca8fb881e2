package testutil

import (
	"time"

	"github.com/google/uuid"
)

// Fixed identifiers and clock values for deterministic testing.
var (
	TestBranchID   = uuid.MustParse("00000000-0000-0000-0000-000000000010").String()
	TestCustomerID = uuid.MustParse("00000000-0000-0000-0000-000000000001").String()
	TestItemID     = uuid.MustParse("00000000-0000-0000-0000-000000000020").String()
	TestLoanID     = uuid.MustParse("00000000-0000-0000-0000-000000000030").String()

	// TestToday is the reference "as of" date used across engine tests.
	TestToday = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
)

// DaysAgo returns TestToday shifted back by n days.
func DaysAgo(n int) time.Time {
	return TestToday.AddDate(0, 0, -n)
}

// MonthsAgo returns TestToday shifted back by n months.
func MonthsAgo(n int) time.Time {
	return TestToday.AddDate(0, -n, 0)
}
