package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusRejected  BookingStatus = "REJECTED"
)

// validTransitions defines the state machine for booking status transitions.
// A confirmed booking is only ever removed by an administrative delete.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {},
	StatusCancelled: {},
	StatusRejected:  {},
}

// TerminatedStatuses never block a date range.
var TerminatedStatuses = []BookingStatus{StatusCancelled, StatusRejected}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminated returns true for cancelled and rejected bookings.
func (s BookingStatus) IsTerminated() bool {
	return s == StatusCancelled || s == StatusRejected
}

// IsActive returns true if bookings in this status take part in conflict checks.
func (s BookingStatus) IsActive() bool {
	return s.IsValid() && !s.IsTerminated()
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// TerminatedStatusNames returns the terminated statuses as strings, for SQL filters.
func TerminatedStatusNames() []string {
	names := make([]string, len(TerminatedStatuses))
	for i, s := range TerminatedStatuses {
		names[i] = string(s)
	}
	return names
}
