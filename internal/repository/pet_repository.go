package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
	petDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/pet"
)

// PetModel is the GORM model for the pets table.
type PetModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	OwnerID   int64     `gorm:"not null;index"`
	Name      string    `gorm:"type:varchar(100);not null"`
	PetType   string    `gorm:"type:varchar(20);not null"`
	Breed     string    `gorm:"type:varchar(100)"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (PetModel) TableName() string { return "pets" }

// GormPetRepository implements PetRepository using GORM.
type GormPetRepository struct {
	db *gorm.DB
}

func NewGormPetRepository(db *gorm.DB) *GormPetRepository {
	return &GormPetRepository{db: db}
}

func (r *GormPetRepository) FindByID(ctx context.Context, id int64) (*petDomain.Pet, error) {
	var model PetModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Pet", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to find pet: %w", err)
	}
	return toPetDomain(&model), nil
}

// FindByIDs resolves every id or fails with NotFound for the smallest missing one.
func (r *GormPetRepository) FindByIDs(ctx context.Context, ids []int64) ([]*petDomain.Pet, error) {
	if len(ids) == 0 {
		return []*petDomain.Pet{}, nil
	}

	var models []PetModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find pets: %w", err)
	}

	found := make(map[int64]bool, len(models))
	for _, m := range models {
		found[m.ID] = true
	}
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		if !found[id] {
			return nil, domain.NewNotFoundError("Pet", strconv.FormatInt(id, 10))
		}
	}

	pets := make([]*petDomain.Pet, len(models))
	for i := range models {
		pets[i] = toPetDomain(&models[i])
	}
	return pets, nil
}

func (r *GormPetRepository) FindByOwnerID(ctx context.Context, ownerID int64) ([]*petDomain.Pet, error) {
	var models []PetModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find owner pets: %w", err)
	}
	pets := make([]*petDomain.Pet, len(models))
	for i := range models {
		pets[i] = toPetDomain(&models[i])
	}
	return pets, nil
}

func (r *GormPetRepository) Save(ctx context.Context, pet *petDomain.Pet) error {
	model := toPetModel(pet)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save pet: %w", translateError(err))
	}
	pet.AssignID(model.ID)
	return nil
}

// --- Conversions ---

func toPetModel(p *petDomain.Pet) *PetModel {
	return &PetModel{
		ID:        p.ID(),
		OwnerID:   p.OwnerID(),
		Name:      p.Name(),
		PetType:   p.PetType(),
		Breed:     p.Breed(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

func toPetDomain(m *PetModel) *petDomain.Pet {
	return petDomain.Reconstruct(
		m.ID, m.OwnerID,
		m.Name, m.PetType, m.Breed,
		m.CreatedAt, m.UpdatedAt,
	)
}
