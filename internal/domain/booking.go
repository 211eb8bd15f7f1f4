package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingActive         BookingStatus = "ACTIVE"
	BookingCancelled      BookingStatus = "CANCELLED"
)

// BookingCourt is the recurring or one-off request. An empty DaysOfWeek set
// means a one-off booking on StartDate.
type BookingCourt struct {
	ID         string `gorm:"primaryKey"`
	CustomerID string `gorm:"index"`
	CourtID    string `gorm:"index"`
	StartDate  time.Time
	EndDate    time.Time
	StartTime  string                   // HH:mm
	EndTime    string                   // HH:mm
	DaysOfWeek datatypes.JSONSlice[int] // weekday codes 2..8
	Status     BookingStatus            `gorm:"index"`

	HoldExpiresAtUTC *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recurring reports whether the request expands over a date range.
func (b *BookingCourt) Recurring() bool { return len(b.DaysOfWeek) > 0 }

type OccurrenceStatus string

const (
	OccurrencePendingPayment OccurrenceStatus = "PENDING_PAYMENT"
	OccurrenceActive         OccurrenceStatus = "ACTIVE"
	OccurrenceCheckedIn      OccurrenceStatus = "CHECKED_IN"
	OccurrenceCompleted      OccurrenceStatus = "COMPLETED"
	OccurrenceCancelled      OccurrenceStatus = "CANCELLED"
	OccurrenceNoShow         OccurrenceStatus = "NO_SHOW"
)

// ActiveOccurrenceStatuses are the statuses that block the slot: two
// occurrences on the same court may not overlap while both carry one of
// these.
var ActiveOccurrenceStatuses = []OccurrenceStatus{
	OccurrencePendingPayment, OccurrenceActive, OccurrenceCheckedIn,
}

// BookingCourtOccurrence is one concrete, schedulable slot. Rows are never
// deleted, only status-transitioned.
type BookingCourtOccurrence struct {
	ID             string `gorm:"primaryKey"`
	BookingCourtID string `gorm:"index"`
	CourtID        string `gorm:"index"`
	Date           time.Time
	StartTime      string // HH:mm
	EndTime        string // HH:mm

	// Concrete instants, derived from Date+StartTime/EndTime at creation.
	// The overlap guard queries these directly.
	StartAt time.Time `gorm:"index"`
	EndAt   time.Time `gorm:"index"`

	Status OccurrenceStatus `gorm:"index"`
	Note   string

	// Pricing snapshot taken at admission time.
	PricingRuleID      string
	PricePerHour       decimal.Decimal `gorm:"type:decimal(14,2)"`
	CourtTotalAmount   decimal.Decimal `gorm:"type:decimal(14,2)"` // after membership discount
	CourtPaidAmount    decimal.Decimal `gorm:"type:decimal(14,2)"`
	MembershipDiscount decimal.Decimal `gorm:"type:decimal(14,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventConsumed marks an external event as processed so consumers stay
// idempotent across redeliveries.
type EventConsumed struct {
	ID          string `gorm:"primaryKey"` // event unique id (e.g. payment id)
	EventKey    string `gorm:"index"`      // e.g. payment.paid
	ProcessedAt time.Time
}
