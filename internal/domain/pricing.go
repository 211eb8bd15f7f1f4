package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Court struct {
	ID       string `gorm:"primaryKey"`
	Venue    string
	CourtNo  int32
	OpenFrom string // HH:mm
	OpenTo   string // HH:mm
	OwnerID  string
}

// CourtPricingRule is a (court, weekday set, time range, rate) tuple.
// Immutable once referenced by a priced occurrence; new rules supersede old
// ones going forward only. Rules for the same court must not overlap in
// (weekday, time-range) coverage — enforced at creation, not at lookup.
type CourtPricingRule struct {
	ID         string `gorm:"primaryKey"`
	CourtID    string `gorm:"index"`
	DaysOfWeek datatypes.JSONSlice[int] // weekday codes 2..8
	StartTime  string                   // HH:mm
	EndTime    string                   // HH:mm

	PricePerHour decimal.Decimal `gorm:"type:decimal(14,2)"`

	CreatedAt time.Time
}
