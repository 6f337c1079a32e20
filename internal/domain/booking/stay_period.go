package booking

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// StayPeriod is the half-open range of nights [checkIn, checkOut). The check-out day is
// free for the next guest.
type StayPeriod struct {
	checkIn  time.Time
	checkOut time.Time
}

// NewStayPeriod builds a period from two calendar days. Check-out must be strictly after check-in.
func NewStayPeriod(checkIn, checkOut time.Time) (StayPeriod, error) {
	p := StayPeriod{checkIn: CalendarDay(checkIn), checkOut: CalendarDay(checkOut)}
	if err := p.Validate(); err != nil {
		return StayPeriod{}, err
	}
	return p, nil
}

// ParseStayPeriod builds a period from two YYYY-MM-DD strings.
func ParseStayPeriod(checkIn, checkOut string) (StayPeriod, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return StayPeriod{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return StayPeriod{}, err
	}
	return NewStayPeriod(in, out)
}

// MonthOf returns the period covering the calendar month that contains ref.
func MonthOf(ref time.Time) StayPeriod {
	n := now.With(ref)
	first := n.BeginningOfMonth()
	return StayPeriod{
		checkIn:  CalendarDay(first),
		checkOut: CalendarDay(first.AddDate(0, 1, 0)),
	}
}

// CheckIn returns the first night of the stay.
func (p StayPeriod) CheckIn() time.Time { return p.checkIn }

// CheckOut returns the departure day, which is not part of the stay.
func (p StayPeriod) CheckOut() time.Time { return p.checkOut }

// Overlaps reports whether the two periods share at least one night.
func (p StayPeriod) Overlaps(other StayPeriod) bool {
	return p.checkIn.Before(other.checkOut) && p.checkOut.After(other.checkIn)
}

// Days returns the number of nights in the period.
func (p StayPeriod) Days() int {
	return int(p.checkOut.Sub(p.checkIn).Hours() / 24)
}

// Equal reports whether both periods cover the same nights.
func (p StayPeriod) Equal(other StayPeriod) bool {
	return p.checkIn.Equal(other.checkIn) && p.checkOut.Equal(other.checkOut)
}

// Validate checks that the period is well formed.
func (p StayPeriod) Validate() error {
	if p.checkIn.IsZero() || p.checkOut.IsZero() {
		return domain.NewValidationError("check-in and check-out dates are required")
	}
	if !p.checkIn.Before(p.checkOut) {
		return domain.NewValidationError(fmt.Sprintf(
			"check-out date %s must be after check-in date %s",
			p.checkOut.Format(DateLayout), p.checkIn.Format(DateLayout),
		))
	}
	return nil
}

// String formats the period as [in, out).
func (p StayPeriod) String() string {
	return fmt.Sprintf("[%s, %s)", p.checkIn.Format(DateLayout), p.checkOut.Format(DateLayout))
}

// CalendarDay drops the clock part of t and returns that calendar day at UTC midnight.
func CalendarDay(t time.Time) time.Time {
	d := now.With(t).BeginningOfDay()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return t, nil
}
