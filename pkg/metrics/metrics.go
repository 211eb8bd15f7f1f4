package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BookingsCreated          prometheus.Counter
	BookingConflicts         prometheus.Counter
	OccurrencesExpandedTotal prometheus.Counter
	HoldsOpened              prometheus.Counter
	HoldsExpired             prometheus.Counter
	PaymentsConfirmed        prometheus.Counter
	VouchersRedeemed         prometheus.Counter
	VouchersRejected         *prometheus.CounterVec
	PricingRuleMultiMatch    prometheus.Counter
	Checkouts                prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		BookingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "court_bookings_created_total",
			Help: "Total number of booking requests admitted",
		}),
		BookingConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "court_booking_conflicts_total",
			Help: "Total number of occurrence candidates rejected for overlap",
		}),
		OccurrencesExpandedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "court_occurrences_expanded_total",
			Help: "Total number of occurrence candidates produced by expansion",
		}),
		HoldsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "court_payment_holds_opened_total",
			Help: "Total number of payment holds opened",
		}),
		HoldsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "court_payment_holds_expired_total",
			Help: "Total number of payment holds expired by the sweeper or lazily",
		}),
		PaymentsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "court_payments_confirmed_total",
			Help: "Total number of payments confirmed inside the hold window",
		}),
		VouchersRedeemed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "court_vouchers_redeemed_total",
			Help: "Total number of successful voucher redemptions",
		}),
		VouchersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "court_vouchers_rejected_total",
			Help: "Total number of voucher validations rejected, by reason",
		}, []string{"reason"}),
		PricingRuleMultiMatch: promauto.NewCounter(prometheus.CounterOpts{
			Name: "court_pricing_rule_multi_match_total",
			Help: "Pricing lookups that matched more than one rule (data-integrity signal)",
		}),
		Checkouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "court_checkouts_total",
			Help: "Total number of finalized checkouts",
		}),
	}
}

// Counter methods: the service layer depends on small signal interfaces and
// this type satisfies all of them.

func (m *Metrics) BookingCreated()    { m.BookingsCreated.Inc() }
func (m *Metrics) BookingConflicted() { m.BookingConflicts.Inc() }
func (m *Metrics) HoldOpened()        { m.HoldsOpened.Inc() }
func (m *Metrics) HoldExpired()       { m.HoldsExpired.Inc() }
func (m *Metrics) PaymentConfirmed()  { m.PaymentsConfirmed.Inc() }
func (m *Metrics) VoucherRedeemed()   { m.VouchersRedeemed.Inc() }
func (m *Metrics) CheckedOut()        { m.Checkouts.Inc() }

func (m *Metrics) OccurrencesExpanded(n int) {
	m.OccurrencesExpandedTotal.Add(float64(n))
}

func (m *Metrics) VoucherRejected(reason string) {
	m.VouchersRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) PricingRuleMultiMatched() {
	m.PricingRuleMultiMatch.Inc()
}
