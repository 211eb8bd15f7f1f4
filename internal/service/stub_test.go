package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/pricing"
)

// In-memory doubles for the persistence and messaging surfaces. They keep
// the same compare-and-set semantics as the real repositories so the race
// branches stay testable.

type memPayments struct {
	mu        sync.Mutex
	byID      map[string]*domain.Payment
	processed map[string]bool
	createErr error
}

func newMemPayments() *memPayments {
	return &memPayments{byID: map[string]*domain.Payment{}, processed: map[string]bool{}}
}

func (m *memPayments) Create(_ context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPayments) ByID(_ context.Context, id string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (m *memPayments) TransitionFromPending(_ context.Context, id string, to domain.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return false, fmt.Errorf("payment %s not found", id)
	}
	if p.Status != domain.PaymentPending {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (m *memPayments) ListOpenExpired(_ context.Context, now time.Time, limit int) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Payment
	for _, p := range m.byID {
		if p.Status == domain.PaymentPending && !now.Before(p.HoldExpiresAtUTC) {
			out = append(out, *p)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memPayments) ConfirmIfNotProcessed(_ context.Context, paymentID, eventID string, now time.Time) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	if m.processed[eventID] {
		cp := *p
		return &cp, nil
	}
	if p.Status == domain.PaymentPaid {
		m.processed[eventID] = true
		cp := *p
		return &cp, nil
	}
	if !p.HoldOpen(now) {
		return nil, domain.ErrHoldExpired
	}
	p.Status = domain.PaymentPaid
	m.processed[eventID] = true
	cp := *p
	return &cp, nil
}

func (m *memPayments) get(id string) *domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

type memOccurrences struct {
	mu       sync.Mutex
	byID     map[string]*domain.BookingCourtOccurrence
	admitErr error // injected transient failure, consumed per call
}

func newMemOccurrences() *memOccurrences {
	return &memOccurrences{byID: map[string]*domain.BookingCourtOccurrence{}}
}

func (m *memOccurrences) put(o domain.BookingCourtOccurrence) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	cp := o
	m.byID[o.ID] = &cp
	return o.ID
}

func (m *memOccurrences) blocking(o *domain.BookingCourtOccurrence) *domain.BookingCourtOccurrence {
	for _, ex := range m.byID {
		if ex.CourtID != o.CourtID {
			continue
		}
		active := false
		for _, s := range domain.ActiveOccurrenceStatuses {
			if ex.Status == s {
				active = true
				break
			}
		}
		if !active {
			continue
		}
		if o.StartAt.Before(ex.EndAt) && ex.StartAt.Before(o.EndAt) {
			return ex
		}
	}
	return nil
}

func (m *memOccurrences) AdmitWithNoOverlap(_ context.Context, o *domain.BookingCourtOccurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.admitErr != nil {
		err := m.admitErr
		m.admitErr = nil
		return err
	}
	if ex := m.blocking(o); ex != nil {
		return &domain.ConflictError{CourtID: o.CourtID, OccurrenceID: ex.ID}
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOccurrences) AdmitBatch(_ context.Context, occs []*domain.BookingCourtOccurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range occs {
		if ex := m.blocking(o); ex != nil {
			return &domain.ConflictError{CourtID: o.CourtID, OccurrenceID: ex.ID}
		}
	}
	for _, o := range occs {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		cp := *o
		m.byID[o.ID] = &cp
	}
	return nil
}

func (m *memOccurrences) ByID(_ context.Context, id string) (*domain.BookingCourtOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("occurrence %s not found", id)
	}
	cp := *o
	return &cp, nil
}

func (m *memOccurrences) ByBooking(_ context.Context, bookingID string) ([]domain.BookingCourtOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BookingCourtOccurrence
	for _, o := range m.byID {
		if o.BookingCourtID == bookingID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOccurrences) ListByCourtDay(_ context.Context, courtID string, day time.Time) ([]domain.BookingCourtOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := domain.DateOnly(day)
	var out []domain.BookingCourtOccurrence
	for _, o := range m.byID {
		if o.CourtID == courtID && domain.DateOnly(o.Date).Equal(d) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOccurrences) TransitionGuarded(_ context.Context, id string, from, to domain.OccurrenceStatus) (bool, error) {
	if !domain.CanTransitionOccurrence(from, to) {
		return false, fmt.Errorf("occurrence %s: %s -> %s: %w", id, from, to, domain.ErrInvalidStateTransition)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return false, fmt.Errorf("occurrence %s not found", id)
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (m *memOccurrences) get(id string) *domain.BookingCourtOccurrence {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

type memBookings struct {
	mu   sync.Mutex
	byID map[string]*domain.BookingCourt
}

func newMemBookings() *memBookings {
	return &memBookings{byID: map[string]*domain.BookingCourt{}}
}

func (m *memBookings) Create(_ context.Context, b *domain.BookingCourt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	cp := *b
	m.byID[b.ID] = &cp
	return nil
}

func (m *memBookings) ByID(_ context.Context, id string) (*domain.BookingCourt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("booking %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id string, to domain.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.byID[id]; ok {
		b.Status = to
	}
	return nil
}

func (m *memBookings) SetHoldExpiry(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.byID[id]; ok {
		t := at
		b.HoldExpiresAtUTC = &t
	}
	return nil
}

func (m *memBookings) Cancel(_ context.Context, id string, _ time.Time) error {
	return m.UpdateStatus(context.Background(), id, domain.BookingCancelled)
}

func (m *memBookings) get(id string) *domain.BookingCourt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

type memVouchers struct {
	mu          sync.Mutex
	byID        map[string]*domain.Voucher
	redemptions []domain.VoucherRedemption
}

func newMemVouchers(vs ...*domain.Voucher) *memVouchers {
	m := &memVouchers{byID: map[string]*domain.Voucher{}}
	for _, v := range vs {
		m.byID[v.ID] = v
	}
	return m
}

func (m *memVouchers) ByID(_ context.Context, id string) (*domain.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, &domain.VoucherError{Reason: domain.VoucherReasonNotFound}
	}
	cp := *v
	return &cp, nil
}

func (m *memVouchers) RedemptionCount(_ context.Context, voucherID, customerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.redemptions {
		if r.VoucherID == voucherID && r.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (m *memVouchers) Redeem(_ context.Context, voucherID, customerID, orderID string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[voucherID]
	if !ok {
		return &domain.VoucherError{Reason: domain.VoucherReasonNotFound}
	}
	if v.UsageLimitTotal > 0 && v.UsedCount >= v.UsageLimitTotal {
		return &domain.VoucherError{Reason: domain.VoucherReasonUsageExceeded}
	}
	v.UsedCount++
	m.redemptions = append(m.redemptions, domain.VoucherRedemption{
		ID: uuid.NewString(), VoucherID: voucherID, CustomerID: customerID, OrderID: orderID, Amount: amount,
	})
	return nil
}

type memMemberships struct {
	byCustomer map[string]*domain.UserMembership
}

func (m *memMemberships) ActiveMembership(_ context.Context, customerID string, _ time.Time) (*domain.UserMembership, error) {
	if m == nil || m.byCustomer == nil {
		return nil, nil
	}
	return m.byCustomer[customerID], nil
}

type memCustomers struct {
	newOnes map[string]bool
}

func (m *memCustomers) IsNewCustomer(_ context.Context, customerID string) (bool, error) {
	if m == nil {
		return false, nil
	}
	return m.newOnes[customerID], nil
}

type memOrders struct {
	mu       sync.Mutex
	items    []domain.BookingOrderItem
	services []domain.BookingServiceLine
}

func (m *memOrders) LinesByOccurrence(_ context.Context, occurrenceID string) ([]domain.BookingOrderItem, []domain.BookingServiceLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.BookingOrderItem
	var services []domain.BookingServiceLine
	for _, it := range m.items {
		if it.OccurrenceID == occurrenceID {
			items = append(items, it)
		}
	}
	for _, sv := range m.services {
		if sv.OccurrenceID == occurrenceID {
			services = append(services, sv)
		}
	}
	return items, services, nil
}

// memSettler commits a checkout against the in-memory stores with the same
// all-or-nothing contract as the real settlement transaction: a failure at
// any step leaves every store untouched.
type memSettler struct {
	occs     *memOccurrences
	orders   *memOrders
	payments *memPayments
	vouchers *memVouchers

	failWith  error  // injected settlement failure
	preSettle func() // runs before the status gate, for race tests
}

func (m *memSettler) Settle(ctx context.Context, s domain.CheckoutSettlement) error {
	if m.preSettle != nil {
		m.preSettle()
	}
	if m.failWith != nil {
		return m.failWith
	}
	won, err := m.occs.TransitionGuarded(ctx, s.Occurrence.ID, domain.OccurrenceCheckedIn, domain.OccurrenceCompleted)
	if err != nil {
		return err
	}
	if !won {
		return fmt.Errorf("occurrence %s: concurrent checkout: %w", s.Occurrence.ID, domain.ErrInvalidStateTransition)
	}
	if s.Voucher != nil {
		if err := m.vouchers.Redeem(ctx, s.Voucher.VoucherID, s.Voucher.CustomerID, s.Voucher.OrderID, s.Voucher.Amount); err != nil {
			// emulate the rollback: the gate reverts with the rest
			m.occs.get(s.Occurrence.ID).Status = domain.OccurrenceCheckedIn
			return err
		}
	}
	m.orders.mu.Lock()
	m.orders.items = append(m.orders.items, s.Items...)
	m.orders.services = append(m.orders.services, s.Services...)
	m.orders.mu.Unlock()
	if err := m.payments.Create(ctx, s.Payment); err != nil {
		return err
	}
	m.occs.get(s.Occurrence.ID).CourtPaidAmount = s.Occurrence.CourtTotalAmount
	return nil
}

type recordingPub struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPub) PublishJSON(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPub) published(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range p.keys {
		if k == key {
			return true
		}
	}
	return false
}

type stubGateway struct {
	qr   string
	err  error
	paid bool // what ChargePaid reports
}

func (g *stubGateway) CreatePromptPayCharge(_ context.Context, _ decimal.Decimal, paymentID, _ string) (string, string, error) {
	if g.err != nil {
		return "", "", g.err
	}
	return "chrg_" + paymentID, g.qr, nil
}

func (g *stubGateway) ChargePaid(_ context.Context, _ string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return g.paid, nil
}

type flatPricer struct {
	price decimal.Decimal
	err   error
}

func (f *flatPricer) Resolve(_ context.Context, _ string, _ time.Time, _, _ string) (*pricing.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pricing.Match{RuleID: "rule-flat", PricePerHour: f.price}, nil
}

// fixedClock pins a service's now func.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
