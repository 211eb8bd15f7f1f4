package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/repository"
)

type CourtHandler struct {
	courts *repository.CourtRepo
}

func NewCourtHandler(courts *repository.CourtRepo) *CourtHandler {
	return &CourtHandler{courts: courts}
}

type createCourtBody struct {
	Venue    string `json:"venue" binding:"required"`
	CourtNo  int32  `json:"court_no" binding:"required"`
	OpenFrom string `json:"open_from" binding:"required"` // HH:mm
	OpenTo   string `json:"open_to" binding:"required"`   // HH:mm
}

// POST /v1/courts (ADMIN)
func (h *CourtHandler) Create(c *gin.Context) {
	var body createCourtBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, _ := c.Get("sub")
	ownerID, _ := sub.(string)
	court := &domain.Court{
		Venue:    body.Venue,
		CourtNo:  body.CourtNo,
		OpenFrom: body.OpenFrom,
		OpenTo:   body.OpenTo,
		OwnerID:  ownerID,
	}
	if err := h.courts.Create(c.Request.Context(), court); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, court)
}

// GET /v1/courts?page=1&page_size=20&venue=...
func (h *CourtHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	courts, err := h.courts.List(c.Request.Context(), int32(page-1), int32(size), c.Query("venue"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courts": courts})
}
