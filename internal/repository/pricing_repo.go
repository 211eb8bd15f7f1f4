package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/pricing"
)

// ErrRuleCoverageOverlap rejects a new rule colliding with an existing one
// on the same court in (weekday, time-range) coverage.
var ErrRuleCoverageOverlap = errors.New("pricing_rule_coverage_overlap")

type PricingRuleRepo struct {
	db *gorm.DB
}

func NewPricingRuleRepo(db *gorm.DB) *PricingRuleRepo {
	return &PricingRuleRepo{db: db}
}

// Create inserts a rule after checking the no-overlapping-coverage invariant
// against the court's existing rules. The court's rule rows are locked for
// the duration so two staff members cannot race in colliding rules.
func (r *PricingRuleRepo) Create(ctx context.Context, rule *domain.CourtPricingRule) error {
	if _, err := domain.ParseClock(rule.StartTime); err != nil {
		return &domain.ValidationError{Field: "start_time", Reason: "must be HH:mm"}
	}
	if _, err := domain.ParseClock(rule.EndTime); err != nil {
		return &domain.ValidationError{Field: "end_time", Reason: "must be HH:mm"}
	}
	for _, code := range rule.DaysOfWeek {
		if !domain.ValidWeekdayCode(code) {
			return &domain.ValidationError{Field: "days_of_week", Reason: "codes must be 2..8 (Mon..Sun)"}
		}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []domain.CourtPricingRule
		if err := tx.Model(&domain.CourtPricingRule{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("court_id = ?", rule.CourtID).
			Find(&existing).Error; err != nil {
			return err
		}
		for i := range existing {
			if pricing.Overlaps(rule, &existing[i]) {
				return fmt.Errorf("rule %s: %w", existing[i].ID, ErrRuleCoverageOverlap)
			}
		}
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		return tx.Create(rule).Error
	})
}

// RulesForCourt satisfies pricing.RuleSource.
func (r *PricingRuleRepo) RulesForCourt(ctx context.Context, courtID string) ([]domain.CourtPricingRule, error) {
	var out []domain.CourtPricingRule
	if err := r.db.WithContext(ctx).
		Where("court_id = ?", courtID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
