package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/you/court-booking/internal/domain"
	"github.com/you/court-booking/internal/repository"
)

// writeErr maps domain errors onto HTTP statuses. Unknown errors are logged
// and hidden behind a 500.
func writeErr(c *gin.Context, err error) {
	var ve *domain.ValidationError
	var voucherErr *domain.VoucherError
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":         "booking_conflict",
			"conflict_with": conflict.OccurrenceID,
		})
	case errors.Is(err, domain.ErrBookingConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "booking_conflict"})
	case errors.Is(err, domain.ErrPricingRuleNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "pricing_rule_not_found"})
	case errors.Is(err, domain.ErrHoldExpired):
		c.JSON(http.StatusGone, gin.H{"error": "hold_expired"})
	case errors.As(err, &voucherErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "voucher_invalid", "reason": voucherErr.Reason})
	case errors.Is(err, domain.ErrInvalidStateTransition):
		// state machine guard violation: data or programming error
		log.Printf("[http] state transition fault: %v", err)
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_state_transition"})
	case errors.Is(err, repository.ErrRuleCoverageOverlap):
		c.JSON(http.StatusConflict, gin.H{"error": "pricing_rule_coverage_overlap"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	default:
		log.Printf("[http] internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
