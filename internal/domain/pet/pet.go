package pet

import (
	"time"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
)

// Pet is a boarded animal. Pets are managed elsewhere; bookings only reference them.
type Pet struct {
	id        int64
	ownerID   int64
	name      string
	petType   string
	breed     string
	createdAt time.Time
	updatedAt time.Time
}

// NewPet creates a new pet with validated fields.
func NewPet(ownerID int64, name, petType, breed string) (*Pet, error) {
	if ownerID <= 0 {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if name == "" {
		return nil, domain.NewValidationError("pet name is required")
	}
	if petType == "" {
		return nil, domain.NewValidationError("pet type is required")
	}

	now := time.Now().UTC()
	return &Pet{
		ownerID:   ownerID,
		name:      name,
		petType:   petType,
		breed:     breed,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Pet from persistence data (no validation).
func Reconstruct(id, ownerID int64, name, petType, breed string, createdAt, updatedAt time.Time) *Pet {
	return &Pet{
		id:        id,
		ownerID:   ownerID,
		name:      name,
		petType:   petType,
		breed:     breed,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

func (p *Pet) ID() int64            { return p.id }
func (p *Pet) OwnerID() int64       { return p.ownerID }
func (p *Pet) Name() string         { return p.name }
func (p *Pet) PetType() string      { return p.petType }
func (p *Pet) Breed() string        { return p.breed }
func (p *Pet) CreatedAt() time.Time { return p.createdAt }
func (p *Pet) UpdatedAt() time.Time { return p.updatedAt }

// AssignID records the store-assigned id.
func (p *Pet) AssignID(id int64) {
	if p.id == 0 {
		p.id = id
	}
}
