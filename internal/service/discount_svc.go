package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/you/court-booking/internal/domain"
)

// VoucherStore is the voucher persistence surface the resolver needs.
// Redemption is not here: consuming a use belongs to the checkout
// settlement transaction.
type VoucherStore interface {
	ByID(ctx context.Context, id string) (*domain.Voucher, error)
	RedemptionCount(ctx context.Context, voucherID, customerID string) (int64, error)
}

// MembershipStore looks up a customer's membership covering a date.
type MembershipStore interface {
	ActiveMembership(ctx context.Context, customerID string, date time.Time) (*domain.UserMembership, error)
}

// CustomerDirectory is the narrow slice of the customer system this module
// consumes: enough to evaluate voucher user rules.
type CustomerDirectory interface {
	IsNewCustomer(ctx context.Context, customerID string) (bool, error)
}

// VoucherSignal receives validation rejection counters.
type VoucherSignal interface {
	VoucherRejected(reason string)
}

// VoucherCheck is the ValidateVoucher result: either valid with a discount
// amount, or invalid with an enumerated reason.
type VoucherCheck struct {
	IsValid        bool
	DiscountAmount decimal.Decimal
	Reason         string
}

type DiscountSvc struct {
	vouchers    VoucherStore
	memberships MembershipStore
	customers   CustomerDirectory
	signal      VoucherSignal // may be nil
	now         func() time.Time
}

func NewDiscountSvc(v VoucherStore, m MembershipStore, c CustomerDirectory, signal VoucherSignal) *DiscountSvc {
	return &DiscountSvc{vouchers: v, memberships: m, customers: c, signal: signal, now: time.Now}
}

// MembershipDiscount returns courtCost × discountPercent/100 when the
// customer holds a membership covering the booking date, zero otherwise.
// Membership discount reduces the court-cost component only.
func (s *DiscountSvc) MembershipDiscount(ctx context.Context, customerID string, bookingDate time.Time, courtCost decimal.Decimal) (decimal.Decimal, error) {
	m, err := s.memberships.ActiveMembership(ctx, customerID, bookingDate)
	if err != nil {
		return decimal.Zero, err
	}
	if m == nil || !m.Covers(bookingDate) {
		return decimal.Zero, nil
	}
	return courtCost.Mul(m.DiscountPercent).Div(decimal.NewFromInt(100)), nil
}

// ValidateVoucher runs the eligibility checks in order, short-circuiting on
// the first failure, and computes the discount on success. It never mutates
// the voucher; the checkout settlement consumes the use.
func (s *DiscountSvc) ValidateVoucher(ctx context.Context, voucherID string, orderTotal decimal.Decimal, customerID string, at time.Time) (*VoucherCheck, error) {
	v, err := s.vouchers.ByID(ctx, voucherID)
	if err != nil {
		if ve, ok := domain.AsVoucherError(err); ok {
			return s.reject(ve.Reason), nil
		}
		return nil, err
	}

	if !v.IsActive {
		return s.reject(domain.VoucherReasonInactive), nil
	}
	if at.Before(v.StartAt) {
		return s.reject(domain.VoucherReasonNotStarted), nil
	}
	if !at.Before(v.EndAt) {
		return s.reject(domain.VoucherReasonExpired), nil
	}
	if v.UsageLimitTotal > 0 && v.UsedCount >= v.UsageLimitTotal {
		return s.reject(domain.VoucherReasonUsageExceeded), nil
	}
	if v.UsageLimitPerUser > 0 {
		n, err := s.vouchers.RedemptionCount(ctx, v.ID, customerID)
		if err != nil {
			return nil, err
		}
		if n >= int64(v.UsageLimitPerUser) {
			return s.reject(domain.VoucherReasonUserLimit), nil
		}
	}
	if orderTotal.LessThan(v.MinOrderValue) {
		return s.reject(domain.VoucherReasonBelowMinOrder), nil
	}
	if len(v.TimeRules) > 0 && !anyTimeRuleMatches(v.TimeRules, at) {
		return s.reject(domain.VoucherReasonTimeRule), nil
	}
	if len(v.UserRules) > 0 {
		ok, err := s.anyUserRuleMatches(ctx, v.UserRules, customerID, at)
		if err != nil {
			return nil, err
		}
		if !ok {
			return s.reject(domain.VoucherReasonUserRule), nil
		}
	}

	discount := voucherDiscount(v, orderTotal)
	return &VoucherCheck{IsValid: true, DiscountAmount: discount}, nil
}

func (s *DiscountSvc) reject(reason string) *VoucherCheck {
	if s.signal != nil {
		s.signal.VoucherRejected(reason)
	}
	return &VoucherCheck{IsValid: false, Reason: reason, DiscountAmount: decimal.Zero}
}

func voucherDiscount(v *domain.Voucher, orderTotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch v.DiscountType {
	case domain.DiscountFixed:
		d = v.Value
	case domain.DiscountPercentage:
		d = orderTotal.Mul(v.Value).Div(decimal.NewFromInt(100))
		if v.MaxDiscountValue.Valid && d.GreaterThan(v.MaxDiscountValue.Decimal) {
			d = v.MaxDiscountValue.Decimal
		}
	}
	// a discount never exceeds the order itself
	if d.GreaterThan(orderTotal) {
		d = orderTotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d
}

func anyTimeRuleMatches(rules []domain.VoucherTimeRule, at time.Time) bool {
	for _, r := range rules {
		if timeRuleMatches(r, at) {
			return true
		}
	}
	return false
}

func timeRuleMatches(r domain.VoucherTimeRule, at time.Time) bool {
	if r.Date != "" {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil || !domain.DateOnly(at).Equal(domain.DateOnly(d)) {
			return false
		}
	}
	if len(r.DaysOfWeek) > 0 {
		code := domain.WeekdayCode(at)
		found := false
		for _, c := range r.DaysOfWeek {
			if c == code {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if r.StartTime != "" && r.EndTime != "" {
		start, err1 := domain.ParseClock(r.StartTime)
		end, err2 := domain.ParseClock(r.EndTime)
		if err1 != nil || err2 != nil {
			return false
		}
		mins := at.Hour()*60 + at.Minute()
		if mins < start || mins >= end {
			return false
		}
	}
	return true
}

func (s *DiscountSvc) anyUserRuleMatches(ctx context.Context, rules []domain.VoucherUserRule, customerID string, at time.Time) (bool, error) {
	for _, r := range rules {
		ok, err := s.userRuleMatches(ctx, r, customerID, at)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *DiscountSvc) userRuleMatches(ctx context.Context, r domain.VoucherUserRule, customerID string, at time.Time) (bool, error) {
	if len(r.CustomerIDs) > 0 {
		found := false
		for _, id := range r.CustomerIDs {
			if id == customerID {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	if r.NewCustomer != nil {
		isNew, err := s.customers.IsNewCustomer(ctx, customerID)
		if err != nil {
			return false, err
		}
		if isNew != *r.NewCustomer {
			return false, nil
		}
	}
	if r.MembershipID != "" {
		m, err := s.memberships.ActiveMembership(ctx, customerID, at)
		if err != nil {
			return false, err
		}
		if m == nil || m.MembershipID != r.MembershipID {
			return false, nil
		}
	}
	return true, nil
}
