package booking

import (
	"context"
	"fmt"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
)

// AvailabilityChecker decides whether a room can take a stay. It never writes.
type AvailabilityChecker struct {
	finder *Finder
}

// NewAvailabilityChecker creates an AvailabilityChecker over finder.
func NewAvailabilityChecker(finder *Finder) *AvailabilityChecker {
	return &AvailabilityChecker{finder: finder}
}

// CheckRoomAvailable fails with a Conflict naming the blocking bookings if the room is
// occupied on any night of period.
func (c *AvailabilityChecker) CheckRoomAvailable(ctx context.Context, roomID int64, period StayPeriod) error {
	blocking, err := c.finder.FindBlockingBookings(ctx, roomID, period)
	if err != nil {
		return err
	}
	if len(blocking) > 0 {
		return NewRoomUnavailableError(roomID, period, blocking)
	}
	return nil
}

// CheckUpdateBookingRoomAvailable is CheckRoomAvailable with bookingID removed from the
// blocking set, so a booking being moved does not conflict with its own stored record.
func (c *AvailabilityChecker) CheckUpdateBookingRoomAvailable(ctx context.Context, roomID, bookingID int64, period StayPeriod) error {
	blocking, err := c.finder.FindBlockingBookings(ctx, roomID, period)
	if err != nil {
		return err
	}
	others := filter(blocking, func(b *Booking) bool { return b.ID() != bookingID })
	if len(others) > 0 {
		return NewRoomUnavailableError(roomID, period, others)
	}
	return nil
}

// NewRoomUnavailableError builds the Conflict returned when a room is taken.
func NewRoomUnavailableError(roomID int64, period StayPeriod, blocking []*Booking) *domain.DomainError {
	ids := make([]int64, len(blocking))
	for i, b := range blocking {
		ids[i] = b.ID()
	}
	return domain.NewConflictError(fmt.Sprintf(
		"room %d is not available from %s to %s",
		roomID, period.CheckIn().Format(DateLayout), period.CheckOut().Format(DateLayout),
	)).
		WithDetail("room_id", roomID).
		WithDetail("check_in_date", period.CheckIn().Format(DateLayout)).
		WithDetail("check_out_date", period.CheckOut().Format(DateLayout)).
		WithDetail("blocking_booking_ids", ids)
}
