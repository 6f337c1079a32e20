package room

import (
	"time"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
)

// Room is a boarding room. Bookings group by room and treat it as an opaque key.
type Room struct {
	id        int64
	number    string
	category  string
	area      float64
	visible   bool
	createdAt time.Time
	updatedAt time.Time
}

// NewRoom creates a visible room.
func NewRoom(number, category string, area float64) (*Room, error) {
	if number == "" {
		return nil, domain.NewValidationError("room number is required")
	}
	if category == "" {
		return nil, domain.NewValidationError("room category is required")
	}
	if area < 0 {
		return nil, domain.NewValidationError("room area cannot be negative")
	}

	now := time.Now().UTC()
	return &Room{
		number:    number,
		category:  category,
		area:      area,
		visible:   true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Room from persistence data (no validation).
func Reconstruct(id int64, number, category string, area float64, visible bool, createdAt, updatedAt time.Time) *Room {
	return &Room{
		id:        id,
		number:    number,
		category:  category,
		area:      area,
		visible:   visible,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (r *Room) ID() int64            { return r.id }
func (r *Room) Number() string       { return r.number }
func (r *Room) Category() string     { return r.category }
func (r *Room) Area() float64        { return r.area }
func (r *Room) IsVisible() bool      { return r.visible }
func (r *Room) CreatedAt() time.Time { return r.createdAt }
func (r *Room) UpdatedAt() time.Time { return r.updatedAt }

// AssignID records the store-assigned id.
func (r *Room) AssignID(id int64) {
	if r.id == 0 {
		r.id = id
	}
}
