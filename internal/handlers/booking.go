package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/service"
)

type BookingHandler struct {
	svc *service.BookingSvc
}

func NewBookingHandler(svc *service.BookingSvc) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type createBookingBody struct {
	CourtID       string `json:"court_id" binding:"required"`
	StartDate     string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate       string `json:"end_date"`                      // YYYY-MM-DD, required when days_of_week set
	StartTime     string `json:"start_time" binding:"required"` // HH:mm
	EndTime       string `json:"end_time" binding:"required"`   // HH:mm
	DaysOfWeek    []int  `json:"days_of_week"`                  // 2=Mon .. 8=Sun, empty = one-off
	PaymentMethod string `json:"payment_method"`                // CASH | BANK
	AllOrNothing  bool   `json:"all_or_nothing"`
}

// POST /v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var body createBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, _ := c.Get("sub") // set by JWTAuth
	customerID, _ := sub.(string)

	res, err := h.svc.Create(c.Request.Context(), service.CreateBookingInput{
		CustomerID:   customerID,
		CourtID:      body.CourtID,
		StartDate:    body.StartDate,
		EndDate:      body.EndDate,
		StartTime:    body.StartTime,
		EndTime:      body.EndTime,
		DaysOfWeek:   body.DaysOfWeek,
		Method:       domain.PaymentMethod(body.PaymentMethod),
		AllOrNothing: body.AllOrNothing,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"booking":  res.Booking,
		"admitted": res.Admitted,
		"rejected": res.Rejected,
		"payment":  res.Payment,
	})
}

// GET /v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	b, occs, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b, "occurrences": occs})
}

// POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// GET /v1/occurrences?court_id=...&day=YYYY-MM-DD
func (h *BookingHandler) ListOccurrences(c *gin.Context) {
	day, err := time.Parse("2006-01-02", c.Query("day"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be YYYY-MM-DD"})
		return
	}
	occs, err := h.svc.ListOccurrences(c.Request.Context(), c.Query("court_id"), day)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occs})
}

// POST /v1/occurrences/:id/checkin (STAFF/ADMIN)
func (h *BookingHandler) CheckIn(c *gin.Context) {
	if err := h.svc.CheckIn(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "checked_in"})
}

// POST /v1/occurrences/:id/no-show (STAFF/ADMIN)
func (h *BookingHandler) MarkNoShow(c *gin.Context) {
	if err := h.svc.MarkNoShow(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "no_show"})
}

// POST /v1/occurrences/:id/cancel
func (h *BookingHandler) CancelOccurrence(c *gin.Context) {
	if err := h.svc.CancelOccurrence(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
