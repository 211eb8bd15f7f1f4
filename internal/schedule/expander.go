// Package schedule turns abstract booking requests into concrete slots.
package schedule

import (
	"time"

	"github.com/you/court-booking/internal/domain"
)

// Candidate is one concrete slot produced by expansion, not yet admitted.
type Candidate struct {
	Date      time.Time
	StartTime string // HH:mm
	EndTime   string // HH:mm
	StartAt   time.Time
	EndAt     time.Time
}

// Expand produces the ordered candidate list for a booking request.
//
// Empty DaysOfWeek means a single one-off candidate on StartDate; otherwise
// every date in [StartDate, EndDate] whose weekday code (2=Mon..8=Sun) is in
// the set yields a candidate. Rejections happen before any write: inverted
// date range, inverted time range, unknown weekday codes, or an expansion
// that matches nothing.
func Expand(req *domain.BookingCourt) ([]Candidate, error) {
	startMin, err := domain.ParseClock(req.StartTime)
	if err != nil {
		return nil, &domain.ValidationError{Field: "start_time", Reason: "must be HH:mm"}
	}
	endMin, err := domain.ParseClock(req.EndTime)
	if err != nil {
		return nil, &domain.ValidationError{Field: "end_time", Reason: "must be HH:mm"}
	}
	if startMin >= endMin {
		return nil, &domain.ValidationError{Field: "start_time", Reason: "must be before end_time"}
	}

	start := domain.DateOnly(req.StartDate)
	end := domain.DateOnly(req.EndDate)

	if !req.Recurring() {
		// one-off: EndDate is ignored, the slot lives on StartDate
		c, err := makeCandidate(start, req.StartTime, req.EndTime)
		if err != nil {
			return nil, err
		}
		return []Candidate{c}, nil
	}

	if start.After(end) {
		return nil, &domain.ValidationError{Field: "start_date", Reason: "must not be after end_date"}
	}
	wanted := make(map[int]bool, len(req.DaysOfWeek))
	for _, code := range req.DaysOfWeek {
		if !domain.ValidWeekdayCode(code) {
			return nil, &domain.ValidationError{Field: "days_of_week", Reason: "codes must be 2..8 (Mon..Sun)"}
		}
		wanted[code] = true
	}

	var out []Candidate
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !wanted[domain.WeekdayCode(d)] {
			continue
		}
		c, err := makeCandidate(d, req.StartTime, req.EndTime)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, &domain.ValidationError{Field: "days_of_week", Reason: "no matching dates in range"}
	}
	return out, nil
}

func makeCandidate(date time.Time, startClock, endClock string) (Candidate, error) {
	startAt, err := domain.ClockOnDate(date, startClock)
	if err != nil {
		return Candidate{}, err
	}
	endAt, err := domain.ClockOnDate(date, endClock)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{Date: date, StartTime: startClock, EndTime: endClock, StartAt: startAt, EndAt: endAt}, nil
}
