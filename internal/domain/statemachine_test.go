package domain

import (
	"errors"
	"testing"
)

func TestOccurrenceTransitions(t *testing.T) {
	cases := []struct {
		from, to OccurrenceStatus
		ok       bool
	}{
		{OccurrencePendingPayment, OccurrenceActive, true},
		{OccurrencePendingPayment, OccurrenceCancelled, true},
		{OccurrencePendingPayment, OccurrenceCheckedIn, false},
		{OccurrencePendingPayment, OccurrenceCompleted, false},
		{OccurrenceActive, OccurrenceCheckedIn, true},
		{OccurrenceActive, OccurrenceNoShow, true},
		{OccurrenceActive, OccurrenceCancelled, true},
		{OccurrenceActive, OccurrenceCompleted, false},
		{OccurrenceActive, OccurrencePendingPayment, false},
		{OccurrenceCheckedIn, OccurrenceCompleted, true},
		{OccurrenceCheckedIn, OccurrenceCancelled, false},
		{OccurrenceCheckedIn, OccurrenceNoShow, false},
		{OccurrenceCompleted, OccurrenceActive, false},
		{OccurrenceCancelled, OccurrenceActive, false},
		{OccurrenceNoShow, OccurrenceActive, false},
	}
	for _, c := range cases {
		if got := CanTransitionOccurrence(c.from, c.to); got != c.ok {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestTransitionOccurrence(t *testing.T) {
	t.Run("legal move mutates status", func(t *testing.T) {
		o := &BookingCourtOccurrence{ID: "occ-1", Status: OccurrenceActive}
		if err := TransitionOccurrence(o, OccurrenceCheckedIn); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if o.Status != OccurrenceCheckedIn {
			t.Errorf("status = %s, want CHECKED_IN", o.Status)
		}
	})

	t.Run("illegal move leaves status and wraps sentinel", func(t *testing.T) {
		o := &BookingCourtOccurrence{ID: "occ-1", Status: OccurrenceCompleted}
		err := TransitionOccurrence(o, OccurrenceActive)
		if !errors.Is(err, ErrInvalidStateTransition) {
			t.Fatalf("error = %v, want ErrInvalidStateTransition", err)
		}
		if o.Status != OccurrenceCompleted {
			t.Errorf("status mutated to %s on rejected transition", o.Status)
		}
	})
}

func TestTerminalOccurrenceStatus(t *testing.T) {
	terminal := []OccurrenceStatus{OccurrenceCompleted, OccurrenceCancelled, OccurrenceNoShow}
	for _, s := range terminal {
		if !TerminalOccurrenceStatus(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []OccurrenceStatus{OccurrencePendingPayment, OccurrenceActive, OccurrenceCheckedIn}
	for _, s := range open {
		if TerminalOccurrenceStatus(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
