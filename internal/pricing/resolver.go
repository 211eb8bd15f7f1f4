// Package pricing resolves hourly rates from the per-court rate table.
package pricing

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/you/court-booking/internal/domain"
)

// RuleSource provides the current rule set for a court.
type RuleSource interface {
	RulesForCourt(ctx context.Context, courtID string) ([]domain.CourtPricingRule, error)
}

// MultiMatchSignal is notified when a lookup matches more than one rule,
// which the rule-creation invariant should have made impossible.
type MultiMatchSignal interface {
	PricingRuleMultiMatched()
}

// Match is the resolved rate for a slot.
type Match struct {
	RuleID       string
	PricePerHour decimal.Decimal
}

type Resolver struct {
	rules  RuleSource
	signal MultiMatchSignal // may be nil
}

func NewResolver(rules RuleSource, signal MultiMatchSignal) *Resolver {
	return &Resolver{rules: rules, signal: signal}
}

// Resolve returns the applicable hourly rate for a court, date and time
// range, or ErrPricingRuleNotFound. A rule applies when its weekday set
// contains the date's code and its time range fully covers the requested
// interval. If several rules match, the most recently created one wins and
// the anomaly is logged — a data-integrity signal, not a failure.
func (r *Resolver) Resolve(ctx context.Context, courtID string, date time.Time, startClock, endClock string) (*Match, error) {
	reqStart, err := domain.ParseClock(startClock)
	if err != nil {
		return nil, &domain.ValidationError{Field: "start_time", Reason: "must be HH:mm"}
	}
	reqEnd, err := domain.ParseClock(endClock)
	if err != nil {
		return nil, &domain.ValidationError{Field: "end_time", Reason: "must be HH:mm"}
	}

	rules, err := r.rules.RulesForCourt(ctx, courtID)
	if err != nil {
		return nil, err
	}

	code := domain.WeekdayCode(date)
	var best *domain.CourtPricingRule
	matches := 0
	for i := range rules {
		rule := &rules[i]
		if !Covers(rule, code, reqStart, reqEnd) {
			continue
		}
		matches++
		if best == nil || rule.CreatedAt.After(best.CreatedAt) {
			best = rule
		}
	}
	if best == nil {
		return nil, domain.ErrPricingRuleNotFound
	}
	if matches > 1 {
		log.Printf("[pricing] court %s %s %s-%s matched %d rules, using newest %s",
			courtID, date.Format("2006-01-02"), startClock, endClock, matches, best.ID)
		if r.signal != nil {
			r.signal.PricingRuleMultiMatched()
		}
	}
	return &Match{RuleID: best.ID, PricePerHour: best.PricePerHour}, nil
}

// Covers reports whether rule applies to the weekday code and fully covers
// [reqStart, reqEnd), both in minutes since midnight.
func Covers(rule *domain.CourtPricingRule, weekdayCode, reqStart, reqEnd int) bool {
	in := false
	for _, c := range rule.DaysOfWeek {
		if c == weekdayCode {
			in = true
			break
		}
	}
	if !in {
		return false
	}
	rs, err := domain.ParseClock(rule.StartTime)
	if err != nil {
		return false
	}
	re, err := domain.ParseClock(rule.EndTime)
	if err != nil {
		return false
	}
	return rs <= reqStart && reqEnd <= re
}

// Overlaps reports whether two rules collide in (weekday, time-range)
// coverage. The rule-creation invariant rejects such pairs per court.
func Overlaps(a, b *domain.CourtPricingRule) bool {
	shared := false
	for _, ca := range a.DaysOfWeek {
		for _, cb := range b.DaysOfWeek {
			if ca == cb {
				shared = true
			}
		}
	}
	if !shared {
		return false
	}
	as, err := domain.ParseClock(a.StartTime)
	if err != nil {
		return false
	}
	ae, err := domain.ParseClock(a.EndTime)
	if err != nil {
		return false
	}
	bs, err := domain.ParseClock(b.StartTime)
	if err != nil {
		return false
	}
	be, err := domain.ParseClock(b.EndTime)
	if err != nil {
		return false
	}
	return as < be && bs < ae
}

// SlotCost prices a slot at minute precision: pricePerHour × minutes ÷ 60.
// No currency rounding here; that happens once, on displayed totals.
func SlotCost(pricePerHour decimal.Decimal, startClock, endClock string) (decimal.Decimal, error) {
	s, err := domain.ParseClock(startClock)
	if err != nil {
		return decimal.Zero, err
	}
	e, err := domain.ParseClock(endClock)
	if err != nil {
		return decimal.Zero, err
	}
	minutes := decimal.NewFromInt(int64(e - s))
	return pricePerHour.Mul(minutes).Div(decimal.NewFromInt(60)), nil
}
