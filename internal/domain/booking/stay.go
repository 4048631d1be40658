package booking

import (
	"time"

	"github.com/homestead-rentals/service-booking/internal/common/domain"
)

// DateLayout is the wire format of check-in and check-out dates.
const DateLayout = "2006-01-02"

// Stay is a half-open range of whole calendar days [CheckIn, CheckOut).
type Stay struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// NewStay builds a stay of at least one night.
func NewStay(checkIn, checkOut time.Time) (Stay, error) {
	in, out := Day(checkIn), Day(checkOut)
	if !out.After(in) {
		return Stay{}, domain.NewBadRequestError("check-out date must be after check-in date")
	}
	return Stay{CheckIn: in, CheckOut: out}, nil
}

// Nights returns the number of whole days between check-in and check-out.
func (s Stay) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// Overlaps reports whether two half-open stays share at least one night.
// Back-to-back stays, where one checks out the day the other checks in, do not overlap.
func (s Stay) Overlaps(other Stay) bool {
	return s.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(s.CheckOut)
}

// EndsBefore reports whether the stay checked out strictly before day.
func (s Stay) EndsBefore(day time.Time) bool {
	return s.CheckOut.Before(Day(day))
}
