package booking

import (
	"errors"
	"time"
)

var (
	ErrInvalidDuration = errors.New("booking: invalid rental duration")
	ErrTermOrder       = errors.New("booking: end date must be after start date")
)

const (
	// MinRentDays is the shortest rental term the marketplace accepts.
	MinRentDays = 30
	// MinLeadTime is how far in the future a rental must start.
	MinLeadTime = 7 * 24 * time.Hour
)

// Term is the requested rental period. Sale bookings carry a zero Term.
type Term struct {
	Start time.Time
	End   time.Time
}

// NewTerm builds a rental term, validating ordering only. Duration and lead
// time rules live in Validate so callers can report them against a clock.
func NewTerm(start, end time.Time) (Term, error) {
	if !end.After(start) {
		return Term{}, ErrTermOrder
	}
	return Term{Start: start.UTC(), End: end.UTC()}, nil
}

// DurationDays is ceil((End-Start) / 24h).
func (t Term) DurationDays() int {
	d := t.End.Sub(t.Start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Validate enforces the marketplace term rules: at least MinRentDays long and
// starting no earlier than MinLeadTime from now.
func (t Term) Validate(now time.Time) error {
	if t.DurationDays() < MinRentDays {
		return ErrInvalidDuration
	}
	if t.Start.Before(now.Add(MinLeadTime)) {
		return ErrInvalidDuration
	}
	return nil
}

func (t Term) IsZero() bool {
	return t.Start.IsZero() && t.End.IsZero()
}
