package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/court-booking/internal/domain"
)

type CheckoutRepo struct {
	db *gorm.DB
}

func NewCheckoutRepo(db *gorm.DB) *CheckoutRepo {
	return &CheckoutRepo{db: db}
}

// Settle finalizes a checkout in one transaction: the CheckedIn → Completed
// compare-and-set, the paid-amount settlement, the order lines, the payment
// record and the voucher redemption commit together or roll back together.
// The CAS doubles as the concurrent-checkout gate: the loser's transaction
// aborts before any line or payment is written, and an aborted checkout
// never consumes a voucher use.
func (r *CheckoutRepo) Settle(ctx context.Context, s domain.CheckoutSettlement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.BookingCourtOccurrence{}).
			Where("id = ? AND status = ?", s.Occurrence.ID, domain.OccurrenceCheckedIn).
			Updates(map[string]any{
				"status":            domain.OccurrenceCompleted,
				"court_paid_amount": s.Occurrence.CourtTotalAmount,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("occurrence %s: concurrent checkout: %w", s.Occurrence.ID, domain.ErrInvalidStateTransition)
		}
		if s.Voucher != nil {
			if err := redeemLocked(tx, s.Voucher.VoucherID, s.Voucher.CustomerID, s.Voucher.OrderID, s.Voucher.Amount); err != nil {
				return err
			}
		}
		if err := createLines(tx, s.Items, s.Services); err != nil {
			return err
		}
		if s.Payment.ID == "" {
			s.Payment.ID = uuid.NewString()
		}
		return tx.Create(s.Payment).Error
	})
}
