package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingOrderItem is a retail line attached to an occurrence at checkout.
// Append-only once the occurrence is checked out.
type BookingOrderItem struct {
	ID           string `gorm:"primaryKey"`
	OccurrenceID string `gorm:"index"`
	ProductID    string
	Name         string
	Quantity     int
	UnitPrice    decimal.Decimal `gorm:"type:decimal(14,2)"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(14,2)"`
	CreatedAt    time.Time
}

// BookingServiceLine is a service-usage line (coaching, shuttlecock rental
// by the hour) attached to an occurrence at checkout.
type BookingServiceLine struct {
	ID           string `gorm:"primaryKey"`
	OccurrenceID string `gorm:"index"`
	ServiceID    string
	Name         string
	Hours        decimal.Decimal `gorm:"type:decimal(6,2)"`
	PricePerHour decimal.Decimal `gorm:"type:decimal(14,2)"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(14,2)"`
	CreatedAt    time.Time
}
