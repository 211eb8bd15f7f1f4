package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/service"
)

// PaymentReader looks payments up for display.
type PaymentReader interface {
	ByID(ctx context.Context, id string) (*domain.Payment, error)
	OpenByBooking(ctx context.Context, bookingID string) (*domain.Payment, error)
}

type PaymentHandler struct {
	holds    *service.HoldSvc
	payments PaymentReader
}

func NewPaymentHandler(holds *service.HoldSvc, payments PaymentReader) *PaymentHandler {
	return &PaymentHandler{holds: holds, payments: payments}
}

// POST /v1/payments/:id/confirm-cash (STAFF/ADMIN)
func (h *PaymentHandler) ConfirmCash(c *gin.Context) {
	p, err := h.holds.ConfirmCash(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /v1/payments/:id/cancel
func (h *PaymentHandler) Cancel(c *gin.Context) {
	if err := h.holds.CancelHold(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// GET /v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := h.payments.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /v1/bookings/:id/payment returns the booking's open hold, so a
// customer can re-fetch the QR reference while the window is still open.
func (h *PaymentHandler) OpenForBooking(c *gin.Context) {
	p, err := h.payments.OpenByBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /v1/payments/:id/reconcile (STAFF/ADMIN) — ask the gateway for the
// charge's real state when the webhook went missing.
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	p, err := h.holds.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /v1/holds/expire (ADMIN) — manual trigger of the sweep the scheduler
// normally runs.
func (h *PaymentHandler) ExpireStale(c *gin.Context) {
	n, err := h.holds.ExpireStaleHolds(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": n})
}
