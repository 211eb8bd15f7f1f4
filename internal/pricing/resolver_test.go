package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/you/court-booking/internal/domain"
)

type staticRules []domain.CourtPricingRule

func (s staticRules) RulesForCourt(context.Context, string) ([]domain.CourtPricingRule, error) {
	return s, nil
}

type countingSignal struct{ multi int }

func (c *countingSignal) PricingRuleMultiMatched() { c.multi++ }

func rule(id string, days []int, start, end string, price int64, createdAt time.Time) domain.CourtPricingRule {
	return domain.CourtPricingRule{
		ID:           id,
		CourtID:      "court-1",
		DaysOfWeek:   days,
		StartTime:    start,
		EndTime:      end,
		PricePerHour: decimal.NewFromInt(price),
		CreatedAt:    createdAt,
	}
}

func TestResolverResolve(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	weekday := []int{domain.WeekdayMonday, domain.WeekdayTuesday, domain.WeekdayWednesday, domain.WeekdayThursday, domain.WeekdayFriday}
	weekend := []int{domain.WeekdaySaturday, domain.WeekdaySunday}

	r := NewResolver(staticRules{
		rule("r-weekday", weekday, "09:00", "22:00", 80000, t0),
		rule("r-weekend", weekend, "09:00", "22:00", 100000, t0),
	}, nil)

	t.Run("picks the weekday rule", func(t *testing.T) {
		m, err := r.Resolve(ctx, "court-1", monday, "18:00", "19:00")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.RuleID != "r-weekday" {
			t.Errorf("rule = %s, want r-weekday", m.RuleID)
		}
	})

	t.Run("picks the weekend rule", func(t *testing.T) {
		m, err := r.Resolve(ctx, "court-1", saturday, "18:00", "19:00")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !m.PricePerHour.Equal(decimal.NewFromInt(100000)) {
			t.Errorf("price = %s, want 100000", m.PricePerHour)
		}
	})

	t.Run("partial coverage is a gap, not a match", func(t *testing.T) {
		// rule ends 22:00, slot runs past it
		_, err := r.Resolve(ctx, "court-1", monday, "21:30", "22:30")
		if !errors.Is(err, domain.ErrPricingRuleNotFound) {
			t.Fatalf("error = %v, want ErrPricingRuleNotFound", err)
		}
	})

	t.Run("no rule for the weekday", func(t *testing.T) {
		holiday := NewResolver(staticRules{rule("r-weekday", weekday, "09:00", "22:00", 80000, t0)}, nil)
		_, err := holiday.Resolve(ctx, "court-1", saturday, "18:00", "19:00")
		if !errors.Is(err, domain.ErrPricingRuleNotFound) {
			t.Fatalf("error = %v, want ErrPricingRuleNotFound", err)
		}
	})

	t.Run("multi-match takes the newest and signals", func(t *testing.T) {
		sig := &countingSignal{}
		overlapping := NewResolver(staticRules{
			rule("r-old", weekday, "09:00", "22:00", 80000, t0),
			rule("r-new", weekday, "17:00", "21:00", 120000, t0.Add(48*time.Hour)),
		}, sig)
		m, err := overlapping.Resolve(ctx, "court-1", monday, "18:00", "19:00")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.RuleID != "r-new" {
			t.Errorf("rule = %s, want the newest rule", m.RuleID)
		}
		if sig.multi != 1 {
			t.Errorf("multi-match signal fired %d times, want 1", sig.multi)
		}
	})
}

func TestCovers(t *testing.T) {
	r := rule("r", []int{domain.WeekdayMonday}, "10:00", "14:00", 500, time.Time{})
	cases := []struct {
		name       string
		code       int
		start, end int
		want       bool
	}{
		{"exact window", domain.WeekdayMonday, 600, 840, true},
		{"inner window", domain.WeekdayMonday, 660, 720, true},
		{"starts before", domain.WeekdayMonday, 540, 720, false},
		{"ends after", domain.WeekdayMonday, 780, 900, false},
		{"wrong weekday", domain.WeekdayTuesday, 660, 720, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Covers(&r, c.code, c.start, c.end); got != c.want {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	a := rule("a", []int{domain.WeekdayMonday, domain.WeekdayTuesday}, "09:00", "12:00", 500, time.Time{})

	t.Run("shared weekday, crossing times", func(t *testing.T) {
		b := rule("b", []int{domain.WeekdayTuesday}, "11:00", "15:00", 600, time.Time{})
		if !Overlaps(&a, &b) {
			t.Error("expected overlap")
		}
	})

	t.Run("shared weekday, back-to-back times", func(t *testing.T) {
		b := rule("b", []int{domain.WeekdayMonday}, "12:00", "15:00", 600, time.Time{})
		if Overlaps(&a, &b) {
			t.Error("adjacent ranges must not overlap")
		}
	})

	t.Run("disjoint weekdays", func(t *testing.T) {
		b := rule("b", []int{domain.WeekdaySaturday}, "09:00", "12:00", 600, time.Time{})
		if Overlaps(&a, &b) {
			t.Error("no shared weekday, no overlap")
		}
	})
}

func TestSlotCost(t *testing.T) {
	t.Run("full hour", func(t *testing.T) {
		got, err := SlotCost(decimal.NewFromInt(100000), "18:00", "19:00")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(decimal.NewFromInt(100000)) {
			t.Errorf("got %s, want 100000", got)
		}
	})

	t.Run("minute precision", func(t *testing.T) {
		got, err := SlotCost(decimal.NewFromInt(90000), "18:00", "19:30")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(decimal.NewFromInt(135000)) {
			t.Errorf("got %s, want 135000", got)
		}
	})

	t.Run("odd minutes stay unrounded", func(t *testing.T) {
		got, err := SlotCost(decimal.NewFromInt(100), "10:00", "10:20")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := decimal.NewFromInt(100).Mul(decimal.NewFromInt(20)).Div(decimal.NewFromInt(60))
		if !got.Equal(want) {
			t.Errorf("got %s, want %s", got, want)
		}
	})
}
