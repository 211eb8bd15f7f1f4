package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/court-booking/internal/domain"
)

type OrderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// createLines persists the checkout's item and service lines on the
// caller's transaction. Lines are append-only once the occurrence is
// checked out; they are only ever written through the checkout settlement.
func createLines(tx *gorm.DB, items []domain.BookingOrderItem, services []domain.BookingServiceLine) error {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if err := tx.Create(&items[i]).Error; err != nil {
			return err
		}
	}
	for i := range services {
		if services[i].ID == "" {
			services[i].ID = uuid.NewString()
		}
		if err := tx.Create(&services[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) LinesByOccurrence(ctx context.Context, occurrenceID string) ([]domain.BookingOrderItem, []domain.BookingServiceLine, error) {
	var items []domain.BookingOrderItem
	if err := r.db.WithContext(ctx).Where("occurrence_id = ?", occurrenceID).Find(&items).Error; err != nil {
		return nil, nil, err
	}
	var services []domain.BookingServiceLine
	if err := r.db.WithContext(ctx).Where("occurrence_id = ?", occurrenceID).Find(&services).Error; err != nil {
		return nil, nil, err
	}
	return items, services, nil
}
