package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusInitial    BookingStatus = "initial"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusCheckedIn  BookingStatus = "checked_in"
	StatusCheckedOut BookingStatus = "checked_out"
	StatusCancelled  BookingStatus = "cancelled"
	StatusStopped    BookingStatus = "stopped"
)

// validTransitions defines the state machine for booking status transitions.
// Nothing leads from a non-occupying status back to an occupying one.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusInitial:    {StatusConfirmed, StatusCheckedIn, StatusCancelled, StatusStopped},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusStopped},
	StatusCheckedIn:  {StatusCheckedOut, StatusStopped},
	StatusCheckedOut: {},
	StatusCancelled:  {},
	StatusStopped:    {},
}

// Occupancy classifies statuses as occupying (the booking reserves its room) or not.
// A status missing from the table is treated as occupying.
type Occupancy map[BookingStatus]bool

// DefaultOccupancy is the classification used unless a Finder is given another table.
var DefaultOccupancy = Occupancy{
	StatusInitial:    true,
	StatusConfirmed:  true,
	StatusCheckedIn:  true,
	StatusCheckedOut: true,
	StatusCancelled:  false,
	StatusStopped:    false,
}

// IsOccupying reports whether a booking in status s blocks its room.
func (o Occupancy) IsOccupying(s BookingStatus) bool {
	occupying, known := o[s]
	if !known {
		return true
	}
	return occupying
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// IsOccupying reports whether s blocks the room under DefaultOccupancy.
func (s BookingStatus) IsOccupying() bool {
	return DefaultOccupancy.IsOccupying(s)
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
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
