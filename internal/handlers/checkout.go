package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/service"
)

type CheckoutHandler struct {
	svc *service.CheckoutSvc
}

func NewCheckoutHandler(svc *service.CheckoutSvc) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type checkoutBody struct {
	Items          []service.ItemInput    `json:"items"`
	Services       []service.ServiceInput `json:"services"`
	VoucherID      string                 `json:"voucher_id"`
	PaymentMethod  string                 `json:"payment_method"` // CASH | BANK, checkout only
	LateFeePercent *int                   `json:"late_fee_percent"`
}

// POST /v1/occurrences/:id/checkout-estimate
func (h *CheckoutHandler) Estimate(c *gin.Context) {
	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, _ := c.Get("sub")
	customerID, _ := sub.(string)

	bd, err := h.svc.Estimate(c.Request.Context(), service.EstimateInput{
		OccurrenceID:   c.Param("id"),
		CustomerID:     customerID,
		Items:          body.Items,
		Services:       body.Services,
		VoucherID:      body.VoucherID,
		LateFeePercent: body.LateFeePercent,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, bd)
}

// POST /v1/occurrences/:id/checkout (STAFF/ADMIN)
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	method := domain.PaymentMethod(body.PaymentMethod)
	if method == "" {
		method = domain.PaymentCash
	}
	if method != domain.PaymentCash && method != domain.PaymentBank {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_method must be CASH or BANK"})
		return
	}
	sub, _ := c.Get("sub")
	customerID, _ := sub.(string)

	receipt, err := h.svc.Checkout(c.Request.Context(), service.EstimateInput{
		OccurrenceID:   c.Param("id"),
		CustomerID:     customerID,
		Items:          body.Items,
		Services:       body.Services,
		VoucherID:      body.VoucherID,
		LateFeePercent: body.LateFeePercent,
	}, method)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// GET /v1/occurrences/:id/receipt
func (h *CheckoutHandler) Receipt(c *gin.Context) {
	rc, err := h.svc.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rc)
}
