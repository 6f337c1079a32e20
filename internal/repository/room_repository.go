package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
	roomDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/room"
)

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Number    string    `gorm:"size:20;not null;uniqueIndex"`
	Category  string    `gorm:"size:50;not null"`
	Area      float64   `gorm:"type:numeric(8,2);not null;default:0"`
	IsVisible bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (RoomModel) TableName() string { return "rooms" }

// GormRoomRepository implements RoomRepository using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) FindByID(ctx context.Context, id int64) (*roomDomain.Room, error) {
	var model RoomModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Room", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return roomDomain.Reconstruct(
		model.ID, model.Number, model.Category, model.Area, model.IsVisible,
		model.CreatedAt, model.UpdatedAt,
	), nil
}

func (r *GormRoomRepository) Save(ctx context.Context, room *roomDomain.Room) error {
	model := &RoomModel{
		ID:        room.ID(),
		Number:    room.Number(),
		Category:  room.Category(),
		Area:      room.Area(),
		IsVisible: room.IsVisible(),
		CreatedAt: room.CreatedAt(),
		UpdatedAt: room.UpdatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save room: %w", translateError(err))
	}
	room.AssignID(model.ID)
	return nil
}
