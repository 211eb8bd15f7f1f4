package domain

// CheckoutSettlement is everything a finalized checkout persists: the
// occurrence's terminal transition, the order lines, the settlement payment
// and the optional voucher redemption. It commits atomically or not at all.
type CheckoutSettlement struct {
	Occurrence *BookingCourtOccurrence
	Items      []BookingOrderItem
	Services   []BookingServiceLine
	Payment    *Payment
	Voucher    *VoucherRedemption // nil when no voucher applied
}
