package booking

import (
	"context"
	"sort"
)

// Finder answers the interval queries over bookings. Every listing goes through
// StayPeriod.Overlaps and comes back ordered by check-in date, then id.
type Finder struct {
	repo      BookingRepository
	occupancy Occupancy
}

// NewFinder creates a Finder using DefaultOccupancy.
func NewFinder(repo BookingRepository) *Finder {
	return NewFinderWithOccupancy(repo, DefaultOccupancy)
}

// NewFinderWithOccupancy creates a Finder with a custom status classification.
func NewFinderWithOccupancy(repo BookingRepository, occupancy Occupancy) *Finder {
	return &Finder{repo: repo, occupancy: occupancy}
}

// IsOccupying classifies a status with the Finder's occupancy table.
func (f *Finder) IsOccupying(status BookingStatus) bool {
	return f.occupancy.IsOccupying(status)
}

// FindCrossingBookings returns every booking of the room that overlaps period, whatever its status.
func (f *Finder) FindCrossingBookings(ctx context.Context, roomID int64, period StayPeriod) ([]*Booking, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	candidates, err := f.repo.FindByRoomInDates(ctx, roomID, period)
	if err != nil {
		return nil, err
	}
	return sortByCheckIn(filter(candidates, func(b *Booking) bool {
		return b.RoomID() == roomID && b.Period().Overlaps(period)
	})), nil
}

// FindBlockingBookings returns the crossing bookings that occupy the room.
func (f *Finder) FindBlockingBookings(ctx context.Context, roomID int64, period StayPeriod) ([]*Booking, error) {
	crossing, err := f.FindCrossingBookings(ctx, roomID, period)
	if err != nil {
		return nil, err
	}
	return filter(crossing, func(b *Booking) bool {
		return f.occupancy.IsOccupying(b.Status())
	}), nil
}

// FindAllBookingsInDates returns the bookings of every room that overlap period, whatever their status.
func (f *Finder) FindAllBookingsInDates(ctx context.Context, period StayPeriod) ([]*Booking, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	candidates, err := f.repo.FindInDates(ctx, period)
	if err != nil {
		return nil, err
	}
	return sortByCheckIn(filter(candidates, func(b *Booking) bool {
		return b.Period().Overlaps(period)
	})), nil
}

// FindAllBookingsByPet returns every booking that includes the pet.
func (f *Finder) FindAllBookingsByPet(ctx context.Context, petID int64) ([]*Booking, error) {
	bookings, err := f.repo.FindByPetID(ctx, petID)
	if err != nil {
		return nil, err
	}
	return sortByCheckIn(bookings), nil
}

// FindAllBookingsByOwner returns every booking that includes any pet of the owner.
func (f *Finder) FindAllBookingsByOwner(ctx context.Context, ownerID int64) ([]*Booking, error) {
	bookings, err := f.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return sortByCheckIn(bookings), nil
}

func filter(bookings []*Booking, keep func(*Booking) bool) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func sortByCheckIn(bookings []*Booking) []*Booking {
	if bookings == nil {
		return []*Booking{}
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if !a.CheckInDate().Equal(b.CheckInDate()) {
			return a.CheckInDate().Before(b.CheckInDate())
		}
		return a.ID() < b.ID()
	})
	return bookings
}
