package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates the tables from the GORM models. It is used for SQLite and local
// development; PostgreSQL deployments run the SQL migrations, which also install the
// overlap exclusion constraint.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&RoomModel{}, &PetModel{}, &BookingModel{}, &BookingPetModel{}); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}
