package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/court-booking/internal/domain"
)

type MembershipRepo struct {
	db *gorm.DB
}

func NewMembershipRepo(db *gorm.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

// ActiveMembership returns the customer's membership covering the date, or
// nil when there is none. Memberships are written by an external system;
// this module only reads them.
func (r *MembershipRepo) ActiveMembership(ctx context.Context, customerID string, date time.Time) (*domain.UserMembership, error) {
	var m domain.UserMembership
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND is_active = ?", customerID, true).
		Where("start_date <= ? AND end_date > ?", date, date).
		Order("end_date DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
