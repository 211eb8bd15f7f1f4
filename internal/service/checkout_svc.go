package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/you/court-booking/internal/domain"
)

// OccurrenceCheckoutStore is the occurrence read surface checkout computes
// from; all checkout writes go through the settlement store.
type OccurrenceCheckoutStore interface {
	ByID(ctx context.Context, id string) (*domain.BookingCourtOccurrence, error)
}

// OrderStore reads persisted checkout line items back for receipts.
type OrderStore interface {
	LinesByOccurrence(ctx context.Context, occurrenceID string) ([]domain.BookingOrderItem, []domain.BookingServiceLine, error)
}

// SettlementStore commits a finalized checkout atomically: lines, payment,
// paid amount, voucher redemption and the terminal transition land together
// or not at all.
type SettlementStore interface {
	Settle(ctx context.Context, s domain.CheckoutSettlement) error
}

// CheckoutSignal counts finalized checkouts.
type CheckoutSignal interface {
	CheckedOut()
	VoucherRedeemed()
}

// ItemInput is a retail line submitted at checkout.
type ItemInput struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ServiceInput is a service-usage line submitted at checkout.
type ServiceInput struct {
	ServiceID    string          `json:"service_id"`
	Name         string          `json:"name"`
	Hours        decimal.Decimal `json:"hours"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
}

// Breakdown is the checkout arithmetic, rounded to currency precision only
// on these displayed fields; intermediates stay at full precision.
type Breakdown struct {
	OccurrenceID     string          `json:"occurrence_id"`
	CourtTotal       decimal.Decimal `json:"court_total"`
	CourtPaid        decimal.Decimal `json:"court_paid"`
	CourtRemaining   decimal.Decimal `json:"court_remaining"`
	OverdueMinutes   int64           `json:"overdue_minutes"`
	SurchargeAmount  decimal.Decimal `json:"surcharge_amount"`
	ItemsSubtotal    decimal.Decimal `json:"items_subtotal"`
	ServicesSubtotal decimal.Decimal `json:"services_subtotal"`
	VoucherDiscount  decimal.Decimal `json:"voucher_discount"`
	VoucherReason    string          `json:"voucher_reason,omitempty"`
	FinalPayable     decimal.Decimal `json:"final_payable"`
}

// Receipt is the Checkout output: the final breakdown plus the settlement
// payment record.
type Receipt struct {
	Breakdown Breakdown       `json:"breakdown"`
	Payment   *domain.Payment `json:"payment"`
}

type CheckoutSvc struct {
	occurrences OccurrenceCheckoutStore
	orders      OrderStore
	settlements SettlementStore
	bookings    BookingStatusStore
	discounts   *DiscountSvc
	pub         EventPublisher
	signal      CheckoutSignal // may be nil

	// lateFeePercent is the default overdue surcharge rate, e.g. 150.
	lateFeePercent decimal.Decimal
	now            func() time.Time
}

func NewCheckoutSvc(o OccurrenceCheckoutStore, ord OrderStore, st SettlementStore, b BookingStatusStore, d *DiscountSvc, pub EventPublisher, signal CheckoutSignal, lateFeePercent int) *CheckoutSvc {
	return &CheckoutSvc{
		occurrences:    o,
		orders:         ord,
		settlements:    st,
		bookings:       b,
		discounts:      d,
		pub:            pub,
		signal:         signal,
		lateFeePercent: decimal.NewFromInt(int64(lateFeePercent)),
		now:            time.Now,
	}
}

// resolveCustomer prefers the booking's customer: voucher limits belong to
// the customer being billed, not to the staff member submitting the
// checkout.
func (s *CheckoutSvc) resolveCustomer(ctx context.Context, o *domain.BookingCourtOccurrence, fallback string) (string, error) {
	if o.BookingCourtID == "" {
		return fallback, nil
	}
	b, err := s.bookings.ByID(ctx, o.BookingCourtID)
	if err != nil {
		return "", err
	}
	return b.CustomerID, nil
}

// EstimateInput carries everything the estimate needs besides the clock.
type EstimateInput struct {
	OccurrenceID   string
	CustomerID     string
	Items          []ItemInput
	Services       []ServiceInput
	VoucherID      string
	LateFeePercent *int // nil = configured default
}

// Estimate computes the checkout breakdown without mutating anything: the
// voucher is validated, not redeemed.
func (s *CheckoutSvc) Estimate(ctx context.Context, in EstimateInput) (*Breakdown, error) {
	o, err := s.occurrences.ByID(ctx, in.OccurrenceID)
	if err != nil {
		return nil, err
	}
	customer, err := s.resolveCustomer(ctx, o, in.CustomerID)
	if err != nil {
		return nil, err
	}
	in.CustomerID = customer
	return s.breakdown(ctx, o, in, s.now().UTC(), false)
}

// Checkout finalizes an occurrence: computes the breakdown at the actual
// checkout instant, then settles everything — order lines, payment, paid
// amount, voucher redemption, the Completed transition — in one atomic
// commit. A checkout that loses the race or fails mid-settlement leaves no
// trace: no payment row, no lines, and the voucher use is not consumed.
func (s *CheckoutSvc) Checkout(ctx context.Context, in EstimateInput, method domain.PaymentMethod) (*Receipt, error) {
	o, err := s.occurrences.ByID(ctx, in.OccurrenceID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OccurrenceCheckedIn {
		return nil, fmt.Errorf("occurrence %s: checkout from %s: %w", o.ID, o.Status, domain.ErrInvalidStateTransition)
	}
	customer, err := s.resolveCustomer(ctx, o, in.CustomerID)
	if err != nil {
		return nil, err
	}
	in.CustomerID = customer
	now := s.now().UTC()
	bd, err := s.breakdown(ctx, o, in, now, true)
	if err != nil {
		return nil, err
	}

	items, services := buildLines(o.ID, in, now)
	pay := &domain.Payment{
		OrderID:          o.ID,
		BookingCourtID:   o.BookingCourtID,
		Amount:           bd.FinalPayable,
		Method:           method,
		Status:           domain.PaymentPaid,
		HoldExpiresAtUTC: now,
	}
	settlement := domain.CheckoutSettlement{
		Occurrence: o,
		Items:      items,
		Services:   services,
		Payment:    pay,
	}
	if in.VoucherID != "" {
		settlement.Voucher = &domain.VoucherRedemption{
			VoucherID:  in.VoucherID,
			CustomerID: customer,
			OrderID:    o.ID,
			Amount:     bd.VoucherDiscount,
		}
	}
	if err := s.settlements.Settle(ctx, settlement); err != nil {
		return nil, err
	}
	o.CourtPaidAmount = o.CourtTotalAmount
	o.Status = domain.OccurrenceCompleted

	if s.signal != nil {
		s.signal.CheckedOut()
		if settlement.Voucher != nil {
			s.signal.VoucherRedeemed()
		}
	}
	_ = s.pub.PublishJSON(ctx, "checkout.completed", map[string]any{
		"occurrence_id": o.ID,
		"booking_id":    o.BookingCourtID,
		"amount":        bd.FinalPayable,
	})
	return &Receipt{Breakdown: *bd, Payment: pay}, nil
}

// breakdown computes the checkout arithmetic. strict decides how an invalid
// voucher surfaces: checkout rejects it as an error before anything is
// persisted, the estimate reports the reason and prices without it. The
// voucher is never consumed here; the settlement transaction does that.
func (s *CheckoutSvc) breakdown(ctx context.Context, o *domain.BookingCourtOccurrence, in EstimateInput, at time.Time, strict bool) (*Breakdown, error) {
	overdueMin := overdueMinutes(o.EndAt, at)
	lateFee := s.lateFeePercent
	if in.LateFeePercent != nil {
		lateFee = decimal.NewFromInt(int64(*in.LateFeePercent))
	}
	sixty := decimal.NewFromInt(60)
	hundred := decimal.NewFromInt(100)

	// multiply before dividing so whole-minute surcharges stay exact
	surcharge := decimal.NewFromInt(overdueMin).
		Mul(o.PricePerHour).
		Mul(lateFee).
		Div(sixty).Div(hundred)

	courtRemaining := o.CourtTotalAmount.Sub(o.CourtPaidAmount)

	itemsSubtotal := decimal.Zero
	for _, it := range in.Items {
		itemsSubtotal = itemsSubtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	servicesSubtotal := decimal.Zero
	for _, sv := range in.Services {
		servicesSubtotal = servicesSubtotal.Add(sv.PricePerHour.Mul(sv.Hours))
	}

	orderTotal := courtRemaining.Add(itemsSubtotal).Add(servicesSubtotal).Add(surcharge)

	voucherDiscount := decimal.Zero
	voucherReason := ""
	if in.VoucherID != "" {
		check, err := s.discounts.ValidateVoucher(ctx, in.VoucherID, orderTotal, in.CustomerID, at)
		if err != nil {
			return nil, err
		}
		switch {
		case check.IsValid:
			voucherDiscount = check.DiscountAmount
		case strict:
			return nil, &domain.VoucherError{Reason: check.Reason}
		default:
			voucherReason = check.Reason
		}
	}

	final := orderTotal.Sub(voucherDiscount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return &Breakdown{
		OccurrenceID:     o.ID,
		CourtTotal:       o.CourtTotalAmount.Round(2),
		CourtPaid:        o.CourtPaidAmount.Round(2),
		CourtRemaining:   courtRemaining.Round(2),
		OverdueMinutes:   overdueMin,
		SurchargeAmount:  surcharge.Round(2),
		ItemsSubtotal:    itemsSubtotal.Round(2),
		ServicesSubtotal: servicesSubtotal.Round(2),
		VoucherDiscount:  voucherDiscount.Round(2),
		VoucherReason:    voucherReason,
		FinalPayable:     final.Round(2),
	}, nil
}

// SettledReceipt is the persisted settlement view of an occurrence.
type SettledReceipt struct {
	Occurrence *domain.BookingCourtOccurrence `json:"occurrence"`
	Items      []domain.BookingOrderItem      `json:"items"`
	Services   []domain.BookingServiceLine    `json:"services"`
}

// Receipt reads back what a checkout persisted for an occurrence.
func (s *CheckoutSvc) Receipt(ctx context.Context, occurrenceID string) (*SettledReceipt, error) {
	o, err := s.occurrences.ByID(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	items, services, err := s.orders.LinesByOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	return &SettledReceipt{Occurrence: o, Items: items, Services: services}, nil
}

// overdueMinutes is the whole minutes past the scheduled end, never
// negative.
func overdueMinutes(scheduledEnd, actual time.Time) int64 {
	if !actual.After(scheduledEnd) {
		return 0
	}
	return int64(actual.Sub(scheduledEnd) / time.Minute)
}

func buildLines(occurrenceID string, in EstimateInput, at time.Time) ([]domain.BookingOrderItem, []domain.BookingServiceLine) {
	items := make([]domain.BookingOrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, domain.BookingOrderItem{
			OccurrenceID: occurrenceID,
			ProductID:    it.ProductID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			TotalPrice:   it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
			CreatedAt:    at,
		})
	}
	services := make([]domain.BookingServiceLine, 0, len(in.Services))
	for _, sv := range in.Services {
		services = append(services, domain.BookingServiceLine{
			OccurrenceID: occurrenceID,
			ServiceID:    sv.ServiceID,
			Name:         sv.Name,
			Hours:        sv.Hours,
			PricePerHour: sv.PricePerHour,
			TotalPrice:   sv.PricePerHour.Mul(sv.Hours),
			CreatedAt:    at,
		})
	}
	return items, services
}
