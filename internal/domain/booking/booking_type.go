package booking

import "fmt"

// BookingType distinguishes a guest stay from an administrative hold on a room.
// Both occupy the room the same way.
type BookingType string

const (
	TypeBooking BookingType = "booking"
	TypeClosing BookingType = "closing"
)

// IsValid returns true if the type is recognized.
func (t BookingType) IsValid() bool {
	return t == TypeBooking || t == TypeClosing
}

// RequiresPets reports whether a booking of this type must reference at least one pet.
func (t BookingType) RequiresPets() bool {
	return t == TypeBooking
}

// ParseBookingType converts a string to a BookingType.
func ParseBookingType(s string) (BookingType, error) {
	t := BookingType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid booking type: %s", s)
	}
	return t, nil
}

// ReasonOfStop explains why a stay was ended early.
type ReasonOfStop string

const (
	ReasonOwnerRequest   ReasonOfStop = "owner_request"
	ReasonPetIllness     ReasonOfStop = "pet_illness"
	ReasonRulesViolation ReasonOfStop = "rules_violation"
	ReasonFacilityIssue  ReasonOfStop = "facility_issue"
	ReasonOther          ReasonOfStop = "other"
)

var validReasonsOfStop = map[ReasonOfStop]struct{}{
	ReasonOwnerRequest:   {},
	ReasonPetIllness:     {},
	ReasonRulesViolation: {},
	ReasonFacilityIssue:  {},
	ReasonOther:          {},
}

// IsValid returns true if the reason is recognized. The empty reason is valid and means unset.
func (r ReasonOfStop) IsValid() bool {
	if r == "" {
		return true
	}
	_, ok := validReasonsOfStop[r]
	return ok
}
