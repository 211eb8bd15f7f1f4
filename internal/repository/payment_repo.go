package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/court-booking/internal/domain"
)

type PaymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepo(db *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepo) ByID(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepo) OpenByBooking(ctx context.Context, bookingID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).
		Where("booking_court_id = ? AND status = ?", bookingID, domain.PaymentPending).
		Order("created_at DESC").
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// TransitionFromPending is the compare-and-set that decides the
// expiry-vs-payment race: whoever moves the row out of PENDING_PAYMENT first
// wins, the loser sees RowsAffected 0.
func (r *PaymentRepo) TransitionFromPending(ctx context.Context, id string, to domain.PaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentPending).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListOpenExpired returns open holds whose expiry instant has passed.
func (r *PaymentRepo) ListOpenExpired(ctx context.Context, now time.Time, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Payment
	if err := r.db.WithContext(ctx).
		Where("status = ? AND hold_expires_at_utc <= ?", domain.PaymentPending, now).
		Order("hold_expires_at_utc ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmIfNotProcessed applies a paid event exactly once. The payment row
// is locked, the hold window is re-checked under the lock, and the event id
// is recorded in the same transaction, so a redelivered event or an expiry
// racing in cannot double-apply.
func (r *PaymentRepo) ConfirmIfNotProcessed(ctx context.Context, paymentID, eventID string, now time.Time) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&domain.EventConsumed{}).Where("id = ?", eventID).Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return tx.First(&p, "id = ?", paymentID).Error
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "id = ?", paymentID).Error; err != nil {
			return err
		}
		switch p.Status {
		case domain.PaymentPending:
			if !now.Before(p.HoldExpiresAtUTC) {
				// paid after the window closed: reject for manual reconciliation
				return domain.ErrHoldExpired
			}
			p.Status = domain.PaymentPaid
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
		case domain.PaymentPaid:
			// already applied through another path; just record the event
		default:
			// EXPIRED or CANCELLED won the race
			return domain.ErrHoldExpired
		}

		rec := domain.EventConsumed{ID: eventID, EventKey: "payment.paid", ProcessedAt: now}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
