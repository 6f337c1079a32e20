package booking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
)

const (
	// MaxMoney is the upper bound for price, amount and prepayment.
	MaxMoney = 999999
	// MaxTextLength bounds the comment and the cancellation reason.
	MaxTextLength = 150

	clockLayout = "15:04"
)

// Details holds the descriptive part of a booking. None of it affects availability.
type Details struct {
	CheckInTime      string
	CheckOutTime     string
	Price            float64
	Amount           float64
	PrepaymentAmount float64
	IsPrepaid        bool
	Comment          string
	FileURL          string
}

// Validate checks clock formats, money bounds and text lengths.
func (d Details) Validate() error {
	if err := validateClock("check-in time", d.CheckInTime); err != nil {
		return err
	}
	if err := validateClock("check-out time", d.CheckOutTime); err != nil {
		return err
	}
	if err := validateMoney("price", d.Price); err != nil {
		return err
	}
	if err := validateMoney("amount", d.Amount); err != nil {
		return err
	}
	if err := validateMoney("prepayment amount", d.PrepaymentAmount); err != nil {
		return err
	}
	if len([]rune(d.Comment)) > MaxTextLength {
		return domain.NewValidationError(fmt.Sprintf("comment must be at most %d characters", MaxTextLength))
	}
	return nil
}

func validateClock(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(clockLayout, value); err != nil {
		return domain.NewValidationError(fmt.Sprintf("%s must be HH:MM, got %q", field, value))
	}
	return nil
}

func validateMoney(field string, value float64) error {
	if value < 0 || value > MaxMoney {
		return domain.NewValidationError(fmt.Sprintf("%s must be between 0 and %d", field, MaxMoney))
	}
	return nil
}

// Booking is the aggregate root for a room reservation.
type Booking struct {
	id             int64
	bookingType    BookingType
	period         StayPeriod
	status         BookingStatus
	reasonOfStop   ReasonOfStop
	reasonOfCancel string
	details        Details
	roomID         int64
	petIDs         []int64

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a booking in the initial status. The id is assigned by the store on save.
func NewBooking(
	bookingType BookingType,
	period StayPeriod,
	roomID int64,
	petIDs []int64,
	details Details,
) (*Booking, error) {
	now := time.Now().UTC()
	b := &Booking{
		bookingType: bookingType,
		period:      period,
		status:      StatusInitial,
		details:     details,
		roomID:      roomID,
		petIDs:      normalizeIDs(petIDs),
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id int64,
	bookingType BookingType,
	period StayPeriod,
	status BookingStatus,
	reasonOfStop ReasonOfStop,
	reasonOfCancel string,
	details Details,
	roomID int64,
	petIDs []int64,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		bookingType:    bookingType,
		period:         period,
		status:         status,
		reasonOfStop:   reasonOfStop,
		reasonOfCancel: reasonOfCancel,
		details:        details,
		roomID:         roomID,
		petIDs:         normalizeIDs(petIDs),
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// validate enforces the invariants every persisted booking satisfies.
func (b *Booking) validate() error {
	if !b.bookingType.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid booking type: %s", b.bookingType))
	}
	if err := b.period.Validate(); err != nil {
		return err
	}
	if b.roomID <= 0 {
		return domain.NewValidationError("room ID is required")
	}
	if b.bookingType.RequiresPets() && len(b.petIDs) == 0 {
		return domain.NewValidationError("a booking must include at least one pet")
	}
	for _, id := range b.petIDs {
		if id <= 0 {
			return domain.NewValidationError(fmt.Sprintf("invalid pet ID: %d", id))
		}
	}
	if !b.status.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid booking status: %s", b.status))
	}
	if !b.reasonOfStop.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid reason of stop: %s", b.reasonOfStop))
	}
	if len([]rune(b.reasonOfCancel)) > MaxTextLength {
		return domain.NewValidationError(fmt.Sprintf("reason of cancel must be at most %d characters", MaxTextLength))
	}
	if b.reasonOfStop != "" && b.reasonOfCancel != "" {
		return domain.NewValidationError("a booking cannot be both stopped and cancelled")
	}
	switch b.status {
	case StatusCancelled:
		if b.reasonOfCancel == "" {
			return domain.NewValidationError("reason of cancel is required to cancel a booking")
		}
	case StatusStopped:
		if b.reasonOfStop == "" {
			return domain.NewValidationError("reason of stop is required to stop a booking")
		}
	default:
		if b.reasonOfCancel != "" || b.reasonOfStop != "" {
			return domain.NewValidationError("reasons can only be set on a cancelled or stopped booking")
		}
	}
	return b.details.Validate()
}

// --- Getters ---

// ID returns the store-assigned identifier, or 0 before the booking is saved.
func (b *Booking) ID() int64 { return b.id }

// Type returns the booking type.
func (b *Booking) Type() BookingType { return b.bookingType }

// Period returns the stay period.
func (b *Booking) Period() StayPeriod { return b.period }

// CheckInDate returns the first night of the stay.
func (b *Booking) CheckInDate() time.Time { return b.period.CheckIn() }

// CheckOutDate returns the departure day.
func (b *Booking) CheckOutDate() time.Time { return b.period.CheckOut() }

// DaysOfBooking returns the number of nights, always derived from the dates.
func (b *Booking) DaysOfBooking() int { return b.period.Days() }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// ReasonOfStop returns why the stay was stopped, if it was.
func (b *Booking) ReasonOfStop() ReasonOfStop { return b.reasonOfStop }

// ReasonOfCancel returns why the booking was cancelled, if it was.
func (b *Booking) ReasonOfCancel() string { return b.reasonOfCancel }

// Details returns the descriptive fields.
func (b *Booking) Details() Details { return b.details }

// RoomID returns the booked room.
func (b *Booking) RoomID() int64 { return b.roomID }

// PetIDs returns the boarded pets in ascending id order.
func (b *Booking) PetIDs() []int64 {
	out := make([]int64, len(b.petIDs))
	copy(out, b.petIDs)
	return out
}

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// AssignID records the store-assigned id. It is a no-op once an id is set.
func (b *Booking) AssignID(id int64) {
	if b.id == 0 {
		b.id = id
	}
}

// IsOccupying reports whether the booking blocks its room under DefaultOccupancy.
func (b *Booking) IsOccupying() bool {
	return b.status.IsOccupying()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

func (b *Booking) clone() *Booking {
	c := *b
	c.petIDs = b.PetIDs()
	return &c
}

// normalizeIDs returns the ids sorted with duplicates removed.
func normalizeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return []int64{}
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

// NewBookingNotFoundError reports a missing booking id.
func NewBookingNotFoundError(id int64) *domain.DomainError {
	return domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
