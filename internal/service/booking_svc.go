package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/pricing"
	"github.com/you/court-booking/internal/schedule"
)

// OccurrenceAdmitter is the conflict-guarded admission surface.
type OccurrenceAdmitter interface {
	AdmitWithNoOverlap(ctx context.Context, o *domain.BookingCourtOccurrence) error
	AdmitBatch(ctx context.Context, occs []*domain.BookingCourtOccurrence) error
	ByID(ctx context.Context, id string) (*domain.BookingCourtOccurrence, error)
	ByBooking(ctx context.Context, bookingID string) ([]domain.BookingCourtOccurrence, error)
	ListByCourtDay(ctx context.Context, courtID string, day time.Time) ([]domain.BookingCourtOccurrence, error)
	TransitionGuarded(ctx context.Context, id string, from, to domain.OccurrenceStatus) (bool, error)
}

// BookingWriter is the booking-request persistence surface.
type BookingWriter interface {
	Create(ctx context.Context, b *domain.BookingCourt) error
	ByID(ctx context.Context, id string) (*domain.BookingCourt, error)
	UpdateStatus(ctx context.Context, id string, to domain.BookingStatus) error
	SetHoldExpiry(ctx context.Context, id string, at time.Time) error
	Cancel(ctx context.Context, id string, now time.Time) error
}

// PriceResolver resolves the hourly rate for a slot.
type PriceResolver interface {
	Resolve(ctx context.Context, courtID string, date time.Time, startClock, endClock string) (*pricing.Match, error)
}

// BookingSignal receives booking counters.
type BookingSignal interface {
	BookingCreated()
	BookingConflicted()
	OccurrencesExpanded(n int)
}

const (
	admitRetries = 3
	admitBackoff = 50 * time.Millisecond
)

// CreateBookingInput is the CreateBooking request.
type CreateBookingInput struct {
	CustomerID string
	CourtID    string
	StartDate  string // 2006-01-02
	EndDate    string // 2006-01-02, ignored for one-off requests
	StartTime  string // HH:mm
	EndTime    string // HH:mm
	DaysOfWeek []int  // weekday codes 2..8, empty = one-off
	Method     domain.PaymentMethod
	// AllOrNothing rolls the whole batch back if any candidate conflicts.
	AllOrNothing bool
}

// RejectedCandidate reports a candidate that lost the conflict check in
// partial-success mode.
type RejectedCandidate struct {
	Date         string `json:"date"`
	ConflictWith string `json:"conflict_with"`
}

// CreateBookingResult is the admission outcome plus the opened hold.
type CreateBookingResult struct {
	Booking  *domain.BookingCourt
	Admitted []domain.BookingCourtOccurrence
	Rejected []RejectedCandidate
	Payment  *domain.Payment
}

type BookingSvc struct {
	bookings    BookingWriter
	occurrences OccurrenceAdmitter
	pricer      PriceResolver
	discounts   *DiscountSvc
	holds       *HoldSvc
	pub         EventPublisher
	signal      BookingSignal // may be nil
	now         func() time.Time
}

func NewBookingSvc(b BookingWriter, o OccurrenceAdmitter, pr PriceResolver, d *DiscountSvc, h *HoldSvc, pub EventPublisher, signal BookingSignal) *BookingSvc {
	return &BookingSvc{
		bookings:    b,
		occurrences: o,
		pricer:      pr,
		discounts:   d,
		holds:       h,
		pub:         pub,
		signal:      signal,
		now:         time.Now,
	}
}

// Create expands the request into concrete occurrences, prices each one,
// admits them through the conflict guard and opens a payment hold over the
// admitted total. Partial success is allowed unless AllOrNothing is set.
func (s *BookingSvc) Create(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
	req, err := s.buildRequest(in)
	if err != nil {
		return nil, err
	}
	candidates, err := schedule.Expand(req)
	if err != nil {
		return nil, err
	}
	if s.signal != nil {
		s.signal.OccurrencesExpanded(len(candidates))
	}

	// price every candidate before any write: a rate-table gap rejects the
	// whole request, never silently defaults
	occs := make([]*domain.BookingCourtOccurrence, 0, len(candidates))
	for _, c := range candidates {
		o, err := s.priceCandidate(ctx, req, c)
		if err != nil {
			return nil, err
		}
		occs = append(occs, o)
	}

	if err := s.bookings.Create(ctx, req); err != nil {
		return nil, err
	}
	for _, o := range occs {
		o.BookingCourtID = req.ID
	}

	res := &CreateBookingResult{Booking: req}
	if in.AllOrNothing {
		if err := s.admitRetrying(ctx, func(ctx context.Context) error {
			return s.occurrences.AdmitBatch(ctx, occs)
		}); err != nil {
			_ = s.bookings.UpdateStatus(ctx, req.ID, domain.BookingCancelled)
			if s.signal != nil && errors.Is(err, domain.ErrBookingConflict) {
				s.signal.BookingConflicted()
			}
			return nil, err
		}
		for _, o := range occs {
			res.Admitted = append(res.Admitted, *o)
		}
	} else {
		for _, o := range occs {
			err := s.admitRetrying(ctx, func(ctx context.Context) error {
				return s.occurrences.AdmitWithNoOverlap(ctx, o)
			})
			if err == nil {
				res.Admitted = append(res.Admitted, *o)
				continue
			}
			var ce *domain.ConflictError
			if errors.As(err, &ce) {
				if s.signal != nil {
					s.signal.BookingConflicted()
				}
				res.Rejected = append(res.Rejected, RejectedCandidate{
					Date:         o.Date.Format("2006-01-02"),
					ConflictWith: ce.OccurrenceID,
				})
				continue
			}
			return nil, err
		}
		if len(res.Admitted) == 0 {
			_ = s.bookings.UpdateStatus(ctx, req.ID, domain.BookingCancelled)
			return nil, &domain.ConflictError{CourtID: req.CourtID, OccurrenceID: res.Rejected[0].ConflictWith}
		}
	}

	total := decimal.Zero
	for i := range res.Admitted {
		total = total.Add(res.Admitted[i].CourtTotalAmount)
	}
	pay, err := s.holds.OpenHold(ctx, req, total, in.Method)
	if err != nil {
		// no payment row means the sweeper will never see these slots:
		// release them here so the court stays bookable
		for i := range res.Admitted {
			if _, rerr := s.occurrences.TransitionGuarded(ctx, res.Admitted[i].ID, domain.OccurrencePendingPayment, domain.OccurrenceCancelled); rerr != nil {
				log.Printf("[booking] release occurrence %s: %v", res.Admitted[i].ID, rerr)
			}
		}
		_ = s.bookings.UpdateStatus(ctx, req.ID, domain.BookingCancelled)
		return nil, err
	}
	res.Payment = pay
	req.HoldExpiresAtUTC = &pay.HoldExpiresAtUTC
	if err := s.bookings.SetHoldExpiry(ctx, req.ID, pay.HoldExpiresAtUTC); err != nil {
		log.Printf("[booking] set hold expiry on %s: %v", req.ID, err)
	}

	if s.signal != nil {
		s.signal.BookingCreated()
	}
	_ = s.pub.PublishJSON(ctx, "booking.created", map[string]any{
		"booking_id":  req.ID,
		"customer_id": req.CustomerID,
		"court_id":    req.CourtID,
		"occurrences": len(res.Admitted),
		"amount":      total,
	})
	return res, nil
}

func (s *BookingSvc) buildRequest(in CreateBookingInput) (*domain.BookingCourt, error) {
	startDate, err := time.Parse("2006-01-02", in.StartDate)
	if err != nil {
		return nil, &domain.ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"}
	}
	endDate := startDate
	if len(in.DaysOfWeek) > 0 {
		endDate, err = time.Parse("2006-01-02", in.EndDate)
		if err != nil {
			return nil, &domain.ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD"}
		}
	}
	if in.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Reason: "required"}
	}
	if in.CourtID == "" {
		return nil, &domain.ValidationError{Field: "court_id", Reason: "required"}
	}
	method := in.Method
	if method == "" {
		method = domain.PaymentBank
	}
	if method != domain.PaymentCash && method != domain.PaymentBank {
		return nil, &domain.ValidationError{Field: "payment_method", Reason: "must be CASH or BANK"}
	}
	days := make([]int, len(in.DaysOfWeek))
	copy(days, in.DaysOfWeek)
	return &domain.BookingCourt{
		CustomerID: in.CustomerID,
		CourtID:    in.CourtID,
		StartDate:  domain.DateOnly(startDate.UTC()),
		EndDate:    domain.DateOnly(endDate.UTC()),
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		DaysOfWeek: days,
		Status:     domain.BookingPendingPayment,
	}, nil
}

func (s *BookingSvc) priceCandidate(ctx context.Context, req *domain.BookingCourt, c schedule.Candidate) (*domain.BookingCourtOccurrence, error) {
	match, err := s.pricer.Resolve(ctx, req.CourtID, c.Date, c.StartTime, c.EndTime)
	if err != nil {
		return nil, err
	}
	cost, err := pricing.SlotCost(match.PricePerHour, c.StartTime, c.EndTime)
	if err != nil {
		return nil, err
	}
	memberDiscount, err := s.discounts.MembershipDiscount(ctx, req.CustomerID, c.Date, cost)
	if err != nil {
		return nil, err
	}
	return &domain.BookingCourtOccurrence{
		CourtID:            req.CourtID,
		Date:               c.Date,
		StartTime:          c.StartTime,
		EndTime:            c.EndTime,
		StartAt:            c.StartAt,
		EndAt:              c.EndAt,
		Status:             domain.OccurrencePendingPayment,
		PricingRuleID:      match.RuleID,
		PricePerHour:       match.PricePerHour,
		CourtTotalAmount:   cost.Sub(memberDiscount),
		CourtPaidAmount:    decimal.Zero,
		MembershipDiscount: memberDiscount,
	}, nil
}

// admitRetrying retries transient write failures a bounded number of times
// with backoff. Domain rejections (conflicts, validation) surface at once.
func (s *BookingSvc) admitRetrying(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < admitRetries; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		var ve *domain.ValidationError
		if errors.Is(err, domain.ErrBookingConflict) || errors.As(err, &ve) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(admitBackoff * time.Duration(attempt+1)):
		}
	}
	return err
}

func (s *BookingSvc) Get(ctx context.Context, id string) (*domain.BookingCourt, []domain.BookingCourtOccurrence, error) {
	b, err := s.bookings.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	occs, err := s.occurrences.ByBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return b, occs, nil
}

// Cancel cancels the booking and cascades to its not-yet-started occurrences.
func (s *BookingSvc) Cancel(ctx context.Context, id string) error {
	if err := s.bookings.Cancel(ctx, id, s.now().UTC()); err != nil {
		return err
	}
	_ = s.pub.PublishJSON(ctx, "booking.cancelled", map[string]any{"booking_id": id})
	return nil
}

// CheckIn advances a single occurrence Active → CheckedIn.
func (s *BookingSvc) CheckIn(ctx context.Context, occurrenceID string) error {
	won, err := s.occurrences.TransitionGuarded(ctx, occurrenceID, domain.OccurrenceActive, domain.OccurrenceCheckedIn)
	if err != nil {
		return err
	}
	if !won {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

// MarkNoShow advances a single occurrence Active → NoShow.
func (s *BookingSvc) MarkNoShow(ctx context.Context, occurrenceID string) error {
	won, err := s.occurrences.TransitionGuarded(ctx, occurrenceID, domain.OccurrenceActive, domain.OccurrenceNoShow)
	if err != nil {
		return err
	}
	if !won {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

// CancelOccurrence cancels one occurrence from any pre-terminal state.
func (s *BookingSvc) CancelOccurrence(ctx context.Context, occurrenceID string) error {
	o, err := s.occurrences.ByID(ctx, occurrenceID)
	if err != nil {
		return err
	}
	if !domain.CanTransitionOccurrence(o.Status, domain.OccurrenceCancelled) {
		return domain.ErrInvalidStateTransition
	}
	won, err := s.occurrences.TransitionGuarded(ctx, occurrenceID, o.Status, domain.OccurrenceCancelled)
	if err != nil {
		return err
	}
	if !won {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

// ListOccurrences returns the occurrences overlapping a day.
func (s *BookingSvc) ListOccurrences(ctx context.Context, courtID string, day time.Time) ([]domain.BookingCourtOccurrence, error) {
	return s.occurrences.ListByCourtDay(ctx, courtID, day)
}
