package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/court-booking/internal/domain"
)

type VoucherRepo struct {
	db *gorm.DB
}

func NewVoucherRepo(db *gorm.DB) *VoucherRepo {
	return &VoucherRepo{db: db}
}

func (r *VoucherRepo) Create(ctx context.Context, v *domain.Voucher) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VoucherRepo) ByID(ctx context.Context, id string) (*domain.Voucher, error) {
	var v domain.Voucher
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.VoucherError{Reason: domain.VoucherReasonNotFound}
		}
		return nil, err
	}
	return &v, nil
}

func (r *VoucherRepo) ByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	var v domain.Voucher
	if err := r.db.WithContext(ctx).First(&v, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.VoucherError{Reason: domain.VoucherReasonNotFound}
		}
		return nil, err
	}
	return &v, nil
}

// RedemptionCount returns how many times a customer has redeemed a voucher.
func (r *VoucherRepo) RedemptionCount(ctx context.Context, voucherID, customerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.VoucherRedemption{}).
		Where("voucher_id = ? AND customer_id = ?", voucherID, customerID).
		Count(&n).Error
	return n, err
}

// redeemLocked increments used_count and records the redemption on the
// caller's transaction. The voucher row is locked and both limits are
// re-checked under the lock, so two concurrent redemptions cannot both pass
// the limit check. Runs inside the checkout settlement transaction, which
// keeps a redemption from outliving an aborted checkout.
func redeemLocked(tx *gorm.DB, voucherID, customerID, orderID string, amount decimal.Decimal) error {
	var v domain.Voucher
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&v, "id = ?", voucherID).Error; err != nil {
		return err
	}
	if v.UsageLimitTotal > 0 && v.UsedCount >= v.UsageLimitTotal {
		return &domain.VoucherError{Reason: domain.VoucherReasonUsageExceeded}
	}
	if v.UsageLimitPerUser > 0 {
		var n int64
		if err := tx.Model(&domain.VoucherRedemption{}).
			Where("voucher_id = ? AND customer_id = ?", voucherID, customerID).
			Count(&n).Error; err != nil {
			return err
		}
		if n >= int64(v.UsageLimitPerUser) {
			return &domain.VoucherError{Reason: domain.VoucherReasonUserLimit}
		}
	}
	if err := tx.Model(&domain.Voucher{}).
		Where("id = ?", voucherID).
		Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
		return err
	}
	rec := domain.VoucherRedemption{
		ID:         uuid.NewString(),
		VoucherID:  voucherID,
		CustomerID: customerID,
		OrderID:    orderID,
		Amount:     amount,
	}
	return tx.Create(&rec).Error
}
