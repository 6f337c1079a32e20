package booking

import "context"

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by id, or a NotFound error.
	FindByID(ctx context.Context, id int64) (*Booking, error)

	// FindByRoomInDates returns candidate bookings of a room that may overlap period, in any status.
	FindByRoomInDates(ctx context.Context, roomID int64, period StayPeriod) ([]*Booking, error)

	// FindInDates returns candidate bookings of every room that may overlap period, in any status.
	FindInDates(ctx context.Context, period StayPeriod) ([]*Booking, error)

	// FindByPetID returns every booking that includes the pet.
	FindByPetID(ctx context.Context, petID int64) ([]*Booking, error)

	// FindByOwnerID returns every booking that includes a pet of the owner.
	FindByOwnerID(ctx context.Context, ownerID int64) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking and assigns its id.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// DeleteByID removes a booking and returns how many rows were deleted.
	DeleteByID(ctx context.Context, id int64) (int64, error)

	// WithinRoomLock runs fn in a transaction that holds an exclusive lock on the given
	// rooms. fn must use the repository it is handed, not the outer one.
	WithinRoomLock(ctx context.Context, roomIDs []int64, fn func(repo BookingRepository) error) error
}
