package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type DiscountType string

const (
	DiscountFixed      DiscountType = "FIXED"
	DiscountPercentage DiscountType = "PERCENTAGE"
)

// VoucherTimeRule restricts redemption to a weekday set, a time-of-day
// window, a specific date, or any combination. Empty fields are wildcards
// within the rule; a voucher with time rules requires at least one rule to
// match.
type VoucherTimeRule struct {
	DaysOfWeek []int  `json:"days_of_week,omitempty"` // weekday codes 2..8
	StartTime  string `json:"start_time,omitempty"`   // HH:mm
	EndTime    string `json:"end_time,omitempty"`     // HH:mm
	Date       string `json:"date,omitempty"`         // 2006-01-02
}

// VoucherUserRule restricts redemption to a customer population.
type VoucherUserRule struct {
	NewCustomer  *bool    `json:"new_customer,omitempty"`
	MembershipID string   `json:"membership_id,omitempty"`
	CustomerIDs  []string `json:"customer_ids,omitempty"`
}

type Voucher struct {
	ID   string `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex"`

	DiscountType     DiscountType
	Value            decimal.Decimal     `gorm:"type:decimal(14,2)"`
	MaxDiscountValue decimal.NullDecimal `gorm:"type:decimal(14,2)"`
	MinOrderValue    decimal.Decimal     `gorm:"type:decimal(14,2)"`

	StartAt  time.Time
	EndAt    time.Time
	IsActive bool

	// 0 means unlimited.
	UsageLimitTotal   int
	UsageLimitPerUser int
	// UsedCount only ever moves up, and only on successful redemption.
	UsedCount int

	TimeRules datatypes.JSONSlice[VoucherTimeRule]
	UserRules datatypes.JSONSlice[VoucherUserRule]

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoucherRedemption records one successful redemption; per-user limits count
// these rows.
type VoucherRedemption struct {
	ID         string `gorm:"primaryKey"`
	VoucherID  string `gorm:"index"`
	CustomerID string `gorm:"index"`
	OrderID    string
	Amount     decimal.Decimal `gorm:"type:decimal(14,2)"`
	CreatedAt  time.Time
}
