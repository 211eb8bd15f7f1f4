package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentBank PaymentMethod = "BANK"
)

type PaymentStatus string

const (
	// PaymentPending is the open hold: payable until HoldExpiresAtUTC.
	PaymentPending   PaymentStatus = "PENDING_PAYMENT"
	PaymentUnpaid    PaymentStatus = "UNPAID"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentExpired   PaymentStatus = "EXPIRED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// Payment is a monetary intent tied to a booking or an order. Transitions
// are one-directional: nothing leaves PAID, EXPIRED or CANCELLED except by
// creating a fresh Payment.
type Payment struct {
	ID             string `gorm:"primaryKey"`
	BookingCourtID string `gorm:"index"`
	OrderID        string `gorm:"index"`

	Amount decimal.Decimal `gorm:"type:decimal(14,2)"`
	Method PaymentMethod
	Status PaymentStatus `gorm:"index"`

	HoldExpiresAtUTC time.Time
	ChargeID         string `gorm:"index"`
	QRURL            string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HoldOpen reports whether the payment still accepts confirmation at now.
func (p *Payment) HoldOpen(now time.Time) bool {
	return p.Status == PaymentPending && now.Before(p.HoldExpiresAtUTC)
}
