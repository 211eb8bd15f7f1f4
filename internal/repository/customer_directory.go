package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/you/court-booking/internal/domain"
)

// CustomerDirectory is the narrow customer-system view this module consumes.
// Here it is backed by booking history: a customer with no prior booking is
// new. A deployment with a real CRM swaps this for an adapter onto it.
type CustomerDirectory struct {
	db *gorm.DB
}

func NewCustomerDirectory(db *gorm.DB) *CustomerDirectory {
	return &CustomerDirectory{db: db}
}

func (d *CustomerDirectory) IsNewCustomer(ctx context.Context, customerID string) (bool, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&domain.BookingCourt{}).
		Where("customer_id = ?", customerID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}
