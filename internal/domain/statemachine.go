package domain

import "fmt"

// occurrenceTransitions is the single source of truth for occurrence
// lifecycle moves. Cancelled, Completed and NoShow are terminal.
var occurrenceTransitions = map[OccurrenceStatus][]OccurrenceStatus{
	OccurrencePendingPayment: {OccurrenceActive, OccurrenceCancelled},
	OccurrenceActive:         {OccurrenceCheckedIn, OccurrenceNoShow, OccurrenceCancelled},
	OccurrenceCheckedIn:      {OccurrenceCompleted},
	OccurrenceCompleted:      {},
	OccurrenceCancelled:      {},
	OccurrenceNoShow:         {},
}

// CanTransitionOccurrence reports whether from → to is a legal move.
func CanTransitionOccurrence(from, to OccurrenceStatus) bool {
	for _, next := range occurrenceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionOccurrence advances the occurrence or returns
// ErrInvalidStateTransition.
func TransitionOccurrence(o *BookingCourtOccurrence, to OccurrenceStatus) error {
	if !CanTransitionOccurrence(o.Status, to) {
		return fmt.Errorf("occurrence %s: %s -> %s: %w", o.ID, o.Status, to, ErrInvalidStateTransition)
	}
	o.Status = to
	return nil
}

// TerminalOccurrenceStatus reports whether s has no outgoing transitions.
func TerminalOccurrenceStatus(s OccurrenceStatus) bool {
	return len(occurrenceTransitions[s]) == 0
}
