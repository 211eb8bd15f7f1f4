package repository

import (
	"gorm.io/gorm"

	"github.com/you/court-booking/internal/domain"
)

// Migrate creates every table this module owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Court{},
		&domain.CourtPricingRule{},
		&domain.BookingCourt{},
		&domain.BookingCourtOccurrence{},
		&domain.Payment{},
		&domain.Voucher{},
		&domain.VoucherRedemption{},
		&domain.UserMembership{},
		&domain.BookingOrderItem{},
		&domain.BookingServiceLine{},
		&domain.EventConsumed{},
	)
}
