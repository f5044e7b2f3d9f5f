package core

import (
	"time"
)

// DuesChecker decides whether a member's dues are outstanding.
type DuesChecker interface {
	// IsDue returns true if a member whose last payment was lastPayment owes
	// dues at asOf. A zero lastPayment means the member never paid.
	IsDue(lastPayment Date, asOf time.Time) bool
}

// WeeklyDues treats a member as paid up for seven days after a payment.
type WeeklyDues struct{}

// IsDue returns true if the last payment is missing or strictly older than
// asOf minus seven days.
func (WeeklyDues) IsDue(lastPayment Date, asOf time.Time) bool {
	if lastPayment.IsEmpty() {
		return true
	}
	weekAgo := asOf.Add(-7 * 24 * time.Hour)
	return lastPayment.Before(weekAgo)
}
