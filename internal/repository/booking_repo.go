package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/court-booking/internal/domain"
)

type BookingRepo struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Create(ctx context.Context, b *domain.BookingCourt) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingRepo) ByID(ctx context.Context, id string) (*domain.BookingCourt, error) {
	var b domain.BookingCourt
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, to domain.BookingStatus) error {
	return r.db.WithContext(ctx).Model(&domain.BookingCourt{}).
		Where("id = ?", id).
		Update("status", to).Error
}

// SetHoldExpiry records the opened hold's expiry on the booking row.
func (r *BookingRepo) SetHoldExpiry(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.BookingCourt{}).
		Where("id = ?", id).
		Update("hold_expires_at_utc", at).Error
}

// Cancel marks the booking cancelled and cascades cancellation to its
// occurrences that have not started yet, in one transaction.
func (r *BookingRepo) Cancel(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.BookingCourt{}).
			Where("id = ?", id).
			Update("status", domain.BookingCancelled).Error; err != nil {
			return err
		}
		return cancelNotStarted(tx, id, now)
	})
}

func (r *BookingRepo) List(ctx context.Context, page, size int32, customerID, courtID string) ([]domain.BookingCourt, int64, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	qb := r.db.WithContext(ctx).Model(&domain.BookingCourt{})
	if customerID != "" {
		qb = qb.Where("customer_id = ?", customerID)
	}
	if courtID != "" {
		qb = qb.Where("court_id = ?", courtID)
	}
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.BookingCourt
	if err := qb.Order("created_at DESC").Limit(int(size)).Offset(int(page * size)).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
