package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/you/court-booking/internal/domain"
)

// PaymentStore is the payment persistence surface the hold lifecycle needs.
type PaymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	ByID(ctx context.Context, id string) (*domain.Payment, error)
	TransitionFromPending(ctx context.Context, id string, to domain.PaymentStatus) (bool, error)
	ListOpenExpired(ctx context.Context, now time.Time, limit int) ([]domain.Payment, error)
	ConfirmIfNotProcessed(ctx context.Context, paymentID, eventID string, now time.Time) (*domain.Payment, error)
}

// OccurrenceTransitioner advances occurrence statuses with a CAS guard.
type OccurrenceTransitioner interface {
	ByBooking(ctx context.Context, bookingID string) ([]domain.BookingCourtOccurrence, error)
	TransitionGuarded(ctx context.Context, id string, from, to domain.OccurrenceStatus) (bool, error)
}

// BookingStatusStore updates the parent booking's status.
type BookingStatusStore interface {
	ByID(ctx context.Context, id string) (*domain.BookingCourt, error)
	UpdateStatus(ctx context.Context, id string, to domain.BookingStatus) error
}

// EventPublisher is the fire-and-forget event surface (RabbitMQ in prod).
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// PaymentGateway generates a scannable payment reference for an amount and
// answers reconciliation lookups against the charge it created.
type PaymentGateway interface {
	CreatePromptPayCharge(ctx context.Context, amount decimal.Decimal, paymentID, bookingID string) (chargeID, qrURL string, err error)
	ChargePaid(ctx context.Context, chargeID string) (bool, error)
}

// HoldSignal receives hold lifecycle counters.
type HoldSignal interface {
	HoldOpened()
	HoldExpired()
	PaymentConfirmed()
}

// HoldSvc owns the payment hold lifecycle: open → paid | expired |
// cancelled, with the expiry clock racing safely against confirmation.
type HoldSvc struct {
	payments    PaymentStore
	occurrences OccurrenceTransitioner
	bookings    BookingStatusStore
	pub         EventPublisher
	gateway     PaymentGateway // may be nil (cash-only deployments)
	signal      HoldSignal     // may be nil

	holdDuration time.Duration
	now          func() time.Time
}

func NewHoldSvc(p PaymentStore, o OccurrenceTransitioner, b BookingStatusStore, pub EventPublisher, gw PaymentGateway, signal HoldSignal, holdMinutes int) *HoldSvc {
	return &HoldSvc{
		payments:     p,
		occurrences:  o,
		bookings:     b,
		pub:          pub,
		gateway:      gw,
		signal:       signal,
		holdDuration: time.Duration(holdMinutes) * time.Minute,
		now:          time.Now,
	}
}

// OpenHold creates the payment hold for an admitted booking. The expiry
// instant is computed once here and never extended. For bank payments a QR
// reference is generated through the gateway; gateway failures do not void
// the hold, staff can re-issue the reference.
func (s *HoldSvc) OpenHold(ctx context.Context, booking *domain.BookingCourt, amount decimal.Decimal, method domain.PaymentMethod) (*domain.Payment, error) {
	now := s.now().UTC()
	p := &domain.Payment{
		ID:               uuid.NewString(),
		BookingCourtID:   booking.ID,
		Amount:           amount,
		Method:           method,
		Status:           domain.PaymentPending,
		HoldExpiresAtUTC: now.Add(s.holdDuration),
	}
	if method == domain.PaymentBank && s.gateway != nil {
		if chargeID, qr, err := s.gateway.CreatePromptPayCharge(ctx, amount, p.ID, booking.ID); err != nil {
			log.Printf("[hold] qr generation for payment %s: %v", p.ID, err)
		} else {
			p.ChargeID = chargeID
			p.QRURL = qr
		}
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	if s.signal != nil {
		s.signal.HoldOpened()
	}
	_ = s.pub.PublishJSON(ctx, "notify.payment_request", map[string]any{
		"customer_id": booking.CustomerID,
		"booking_id":  booking.ID,
		"payment_id":  p.ID,
		"amount":      p.Amount,
		"qr_url":      p.QRURL,
		"expires_at":  p.HoldExpiresAtUTC.Format(time.RFC3339),
	})
	return p, nil
}

// ConfirmCash confirms a cash payment. Valid only while the hold is open;
// a confirmation after expiry is rejected with ErrHoldExpired and must be
// reconciled manually.
func (s *HoldSvc) ConfirmCash(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, err := s.payments.ByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if !p.HoldOpen(now) {
		if p.Status == domain.PaymentPending {
			// lazy expiry on read
			if err := s.expireOne(ctx, p); err != nil {
				log.Printf("[hold] lazy expire %s: %v", p.ID, err)
			}
		}
		return nil, domain.ErrHoldExpired
	}
	won, err := s.payments.TransitionFromPending(ctx, paymentID, domain.PaymentPaid)
	if err != nil {
		return nil, err
	}
	if !won {
		// the sweeper or a webhook got there first
		return nil, domain.ErrHoldExpired
	}
	p.Status = domain.PaymentPaid
	s.afterPaid(ctx, p)
	return p, nil
}

// ConfirmPaidEvent applies a gateway payment.paid event idempotently.
func (s *HoldSvc) ConfirmPaidEvent(ctx context.Context, paymentID, eventID string) (*domain.Payment, error) {
	p, err := s.payments.ConfirmIfNotProcessed(ctx, paymentID, eventID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.afterPaid(ctx, p)
	return p, nil
}

// Reconcile re-checks an open hold against the gateway, for charges whose
// completion webhook never arrived. A charge settled while the hold is
// still open is applied; one settled after expiry stays rejected and must
// be handled manually, the hold is never revived.
func (s *HoldSvc) Reconcile(ctx context.Context, paymentID string) (*domain.Payment, error) {
	p, err := s.payments.ByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentPending {
		return p, nil
	}
	if p.ChargeID == "" || s.gateway == nil {
		return nil, fmt.Errorf("payment %s: no gateway charge to reconcile", p.ID)
	}
	paid, err := s.gateway.ChargePaid(ctx, p.ChargeID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return p, nil
	}
	return s.ConfirmPaidEvent(ctx, p.ID, "reconcile:"+p.ChargeID)
}

// CancelHold is the explicit user/staff cancellation of an open hold.
func (s *HoldSvc) CancelHold(ctx context.Context, paymentID string) error {
	won, err := s.payments.TransitionFromPending(ctx, paymentID, domain.PaymentCancelled)
	if err != nil {
		return err
	}
	if !won {
		return fmt.Errorf("payment %s: not open: %w", paymentID, domain.ErrInvalidStateTransition)
	}
	p, err := s.payments.ByID(ctx, paymentID)
	if err != nil {
		return err
	}
	s.releaseSlots(ctx, p.BookingCourtID)
	_ = s.pub.PublishJSON(ctx, "payment.cancelled", map[string]any{"payment_id": paymentID})
	return nil
}

// ExpireStaleHolds sweeps open holds past their expiry. Idempotent: each
// hold is expired through a compare-and-set, so a re-run (or a sweep racing
// a confirmation) transitions nothing twice.
func (s *HoldSvc) ExpireStaleHolds(ctx context.Context) (int, error) {
	now := s.now().UTC()
	stale, err := s.payments.ListOpenExpired(ctx, now, 0)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		if err := s.expireOne(ctx, &stale[i]); err != nil {
			log.Printf("[hold-sweeper] expire %s: %v", stale[i].ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// RunSweeper loops ExpireStaleHolds until ctx is cancelled.
func (s *HoldSvc) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	log.Printf("[hold-sweeper] started, interval %s", interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[hold-sweeper] stopped")
			return
		case <-t.C:
			n, err := s.ExpireStaleHolds(ctx)
			if err != nil {
				log.Printf("[hold-sweeper] sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[hold-sweeper] expired %d holds", n)
			}
		}
	}
}

func (s *HoldSvc) expireOne(ctx context.Context, p *domain.Payment) error {
	won, err := s.payments.TransitionFromPending(ctx, p.ID, domain.PaymentExpired)
	if err != nil {
		return err
	}
	if !won {
		// payment just succeeded or was cancelled; nothing to release
		return nil
	}
	if s.signal != nil {
		s.signal.HoldExpired()
	}
	s.releaseSlots(ctx, p.BookingCourtID)
	_ = s.pub.PublishJSON(ctx, "payment.expired", map[string]any{
		"payment_id": p.ID,
		"booking_id": p.BookingCourtID,
	})
	return nil
}

// releaseSlots reverts a booking's pending occurrences to Cancelled so the
// slots become bookable again. Each revert is a CAS: an occurrence a paid
// path already activated is left alone.
func (s *HoldSvc) releaseSlots(ctx context.Context, bookingID string) {
	if bookingID == "" {
		return
	}
	occs, err := s.occurrences.ByBooking(ctx, bookingID)
	if err != nil {
		log.Printf("[hold] load occurrences for %s: %v", bookingID, err)
		return
	}
	for i := range occs {
		if occs[i].Status != domain.OccurrencePendingPayment {
			continue
		}
		if _, err := s.occurrences.TransitionGuarded(ctx, occs[i].ID, domain.OccurrencePendingPayment, domain.OccurrenceCancelled); err != nil {
			log.Printf("[hold] release occurrence %s: %v", occs[i].ID, err)
		}
	}
	if err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingCancelled); err != nil {
		log.Printf("[hold] cancel booking %s: %v", bookingID, err)
	}
}

// afterPaid activates the booking and its pending occurrences once a payment
// lands. CAS per occurrence keeps a concurrent expiry from fighting back.
func (s *HoldSvc) afterPaid(ctx context.Context, p *domain.Payment) {
	if s.signal != nil {
		s.signal.PaymentConfirmed()
	}
	if p.BookingCourtID != "" {
		occs, err := s.occurrences.ByBooking(ctx, p.BookingCourtID)
		if err != nil {
			log.Printf("[hold] load occurrences for %s: %v", p.BookingCourtID, err)
		} else {
			for i := range occs {
				if occs[i].Status != domain.OccurrencePendingPayment {
					continue
				}
				if _, err := s.occurrences.TransitionGuarded(ctx, occs[i].ID, domain.OccurrencePendingPayment, domain.OccurrenceActive); err != nil {
					log.Printf("[hold] activate occurrence %s: %v", occs[i].ID, err)
				}
			}
		}
		if err := s.bookings.UpdateStatus(ctx, p.BookingCourtID, domain.BookingActive); err != nil {
			log.Printf("[hold] activate booking %s: %v", p.BookingCourtID, err)
		}
	}
	_ = s.pub.PublishJSON(ctx, "payment.paid.applied", map[string]any{
		"payment_id": p.ID,
		"booking_id": p.BookingCourtID,
	})
}
