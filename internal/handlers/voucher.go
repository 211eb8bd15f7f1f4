package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/service"
)

// VoucherCreator is the admin-side voucher write surface.
type VoucherCreator interface {
	Create(ctx context.Context, v *domain.Voucher) error
}

type VoucherHandler struct {
	discounts *service.DiscountSvc
	vouchers  VoucherCreator
}

func NewVoucherHandler(d *service.DiscountSvc, v VoucherCreator) *VoucherHandler {
	return &VoucherHandler{discounts: d, vouchers: v}
}

type createVoucherBody struct {
	Code              string                   `json:"code" binding:"required"`
	DiscountType      string                   `json:"discount_type" binding:"required"` // FIXED | PERCENTAGE
	Value             decimal.Decimal          `json:"value" binding:"required"`
	MaxDiscountValue  *decimal.Decimal         `json:"max_discount_value"`
	MinOrderValue     decimal.Decimal          `json:"min_order_value"`
	StartAt           time.Time                `json:"start_at" binding:"required"`
	EndAt             time.Time                `json:"end_at" binding:"required"`
	UsageLimitTotal   int                      `json:"usage_limit_total"`
	UsageLimitPerUser int                      `json:"usage_limit_per_user"`
	TimeRules         []domain.VoucherTimeRule `json:"time_rules"`
	UserRules         []domain.VoucherUserRule `json:"user_rules"`
}

// POST /v1/vouchers (ADMIN)
func (h *VoucherHandler) Create(c *gin.Context) {
	var body createVoucherBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dt := domain.DiscountType(body.DiscountType)
	if dt != domain.DiscountFixed && dt != domain.DiscountPercentage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "discount_type must be FIXED or PERCENTAGE"})
		return
	}
	v := &domain.Voucher{
		Code:              body.Code,
		DiscountType:      dt,
		Value:             body.Value,
		MinOrderValue:     body.MinOrderValue,
		StartAt:           body.StartAt.UTC(),
		EndAt:             body.EndAt.UTC(),
		IsActive:          true,
		UsageLimitTotal:   body.UsageLimitTotal,
		UsageLimitPerUser: body.UsageLimitPerUser,
		TimeRules:         body.TimeRules,
		UserRules:         body.UserRules,
	}
	if body.MaxDiscountValue != nil {
		v.MaxDiscountValue = decimal.NewNullDecimal(*body.MaxDiscountValue)
	}
	if err := h.vouchers.Create(c.Request.Context(), v); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

type validateVoucherBody struct {
	VoucherID  string          `json:"voucher_id" binding:"required"`
	OrderTotal decimal.Decimal `json:"order_total" binding:"required"`
	CustomerID string          `json:"customer_id"`
}

// POST /v1/vouchers/validate
func (h *VoucherHandler) Validate(c *gin.Context) {
	var body validateVoucherBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	customerID := body.CustomerID
	if customerID == "" {
		sub, _ := c.Get("sub")
		customerID, _ = sub.(string)
	}
	check, err := h.discounts.ValidateVoucher(c.Request.Context(), body.VoucherID, body.OrderTotal, customerID, time.Now().UTC())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"is_valid":        check.IsValid,
		"discount_amount": check.DiscountAmount,
		"reason":          check.Reason,
	})
}
