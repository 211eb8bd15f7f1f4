package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserMembership is written by the membership system; this module only reads
// it. DiscountPercent is copied from the membership plan at purchase time and
// immutable thereafter.
type UserMembership struct {
	ID           string `gorm:"primaryKey"`
	CustomerID   string `gorm:"index"`
	MembershipID string

	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2)"`

	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
}

// Covers reports whether the membership window [StartDate, EndDate) covers
// the booking date and the membership is active.
func (m *UserMembership) Covers(date time.Time) bool {
	return m.IsActive && !date.Before(m.StartDate) && date.Before(m.EndDate)
}
