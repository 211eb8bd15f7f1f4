package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/you/court-booking/internal/domain"
)

// RuleStore is the pricing-rule surface the admin handlers use.
type RuleStore interface {
	Create(ctx context.Context, rule *domain.CourtPricingRule) error
	RulesForCourt(ctx context.Context, courtID string) ([]domain.CourtPricingRule, error)
}

type PricingHandler struct {
	rules RuleStore
}

func NewPricingHandler(rules RuleStore) *PricingHandler {
	return &PricingHandler{rules: rules}
}

type createRuleBody struct {
	CourtID      string          `json:"court_id" binding:"required"`
	DaysOfWeek   []int           `json:"days_of_week" binding:"required"` // 2=Mon .. 8=Sun
	StartTime    string          `json:"start_time" binding:"required"`   // HH:mm
	EndTime      string          `json:"end_time" binding:"required"`     // HH:mm
	PricePerHour decimal.Decimal `json:"price_per_hour" binding:"required"`
}

// POST /v1/pricing-rules (ADMIN)
func (h *PricingHandler) Create(c *gin.Context) {
	var body createRuleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule := &domain.CourtPricingRule{
		CourtID:      body.CourtID,
		DaysOfWeek:   body.DaysOfWeek,
		StartTime:    body.StartTime,
		EndTime:      body.EndTime,
		PricePerHour: body.PricePerHour,
	}
	if err := h.rules.Create(c.Request.Context(), rule); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// GET /v1/pricing-rules?court_id=...
func (h *PricingHandler) List(c *gin.Context) {
	courtID := c.Query("court_id")
	if courtID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "court_id is required"})
		return
	}
	rules, err := h.rules.RulesForCourt(c.Request.Context(), courtID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}
