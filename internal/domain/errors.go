package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBookingConflict is returned when an occurrence candidate overlaps an
	// active-ish occurrence on the same court. Safe to retry with another slot.
	ErrBookingConflict = errors.New("booking_conflict")

	// ErrPricingRuleNotFound signals a rate-table gap. Surfaced to staff,
	// never defaulted.
	ErrPricingRuleNotFound = errors.New("pricing_rule_not_found")

	// ErrHoldExpired is returned when a payment is confirmed after its hold
	// window closed. The payment must be reconciled manually; the hold is
	// never revived.
	ErrHoldExpired = errors.New("hold_expired")

	// ErrInvalidStateTransition is a state-machine guard violation. This is a
	// programming or data error and is logged as a fault.
	ErrInvalidStateTransition = errors.New("invalid_state_transition")
)

// ValidationError rejects a malformed request before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// Voucher rejection reasons, returned verbatim to the caller.
const (
	VoucherReasonNotFound       = "voucher_not_found"
	VoucherReasonInactive       = "voucher_inactive"
	VoucherReasonNotStarted     = "voucher_not_started"
	VoucherReasonExpired        = "voucher_expired"
	VoucherReasonUsageExceeded  = "voucher_usage_limit_reached"
	VoucherReasonUserLimit      = "voucher_user_limit_reached"
	VoucherReasonBelowMinOrder  = "order_below_minimum"
	VoucherReasonTimeRule       = "voucher_time_rule_mismatch"
	VoucherReasonUserRule       = "voucher_user_rule_mismatch"
)

// VoucherError carries an enumerated rejection reason.
type VoucherError struct {
	Reason string
}

func (e *VoucherError) Error() string {
	return "voucher_invalid: " + e.Reason
}

// AsVoucherError unwraps err into a *VoucherError if it is one.
func AsVoucherError(err error) (*VoucherError, bool) {
	var ve *VoucherError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ConflictError wraps ErrBookingConflict with the colliding occurrence id so
// callers can show what they collided with.
type ConflictError struct {
	CourtID      string
	OccurrenceID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking_conflict: court %s occurrence %s", e.CourtID, e.OccurrenceID)
}

func (e *ConflictError) Unwrap() error { return ErrBookingConflict }
