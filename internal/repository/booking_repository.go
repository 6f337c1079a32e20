package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	Type             string    `gorm:"not null;size:20"`
	CheckInDate      time.Time `gorm:"type:date;not null;index:idx_bookings_room_dates,priority:2"`
	CheckOutDate     time.Time `gorm:"type:date;not null;index:idx_bookings_room_dates,priority:3"`
	CheckInTime      string    `gorm:"size:5"`
	CheckOutTime     string    `gorm:"size:5"`
	Status           string    `gorm:"not null;size:30;index"`
	ReasonOfStop     string    `gorm:"size:40"`
	ReasonOfCancel   string    `gorm:"size:150"`
	Price            float64   `gorm:"type:numeric(10,2);not null;default:0"`
	Amount           float64   `gorm:"type:numeric(10,2);not null;default:0"`
	PrepaymentAmount float64   `gorm:"type:numeric(10,2);not null;default:0"`
	IsPrepaid        bool      `gorm:"not null;default:false"`
	Comment          string    `gorm:"size:150"`
	FileURL          string    `gorm:"type:text"`
	RoomID           int64     `gorm:"not null;index:idx_bookings_room_dates,priority:1"`
	DaysOfBooking    int       `gorm:"not null"`
	Version          int64     `gorm:"not null;default:1"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// BookingPetModel is a row of the booking_pets join table.
type BookingPetModel struct {
	BookingID int64 `gorm:"primaryKey;autoIncrement:false"`
	PetID     int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName returns the table name for the GORM model.
func (BookingPetModel) TableName() string {
	return "booking_pets"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingDomain.NewBookingNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}

	bookings, err := r.withPets(ctx, []BookingModel{model})
	if err != nil {
		return nil, err
	}
	return bookings[0], nil
}

// FindByRoomInDates returns the room's bookings whose dates overlap period.
func (r *GormBookingRepository) FindByRoomInDates(ctx context.Context, roomID int64, period bookingDomain.StayPeriod) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("room_id = ? AND check_in_date < ? AND check_out_date > ?", roomID, period.CheckOut(), period.CheckIn()).
		Order("check_in_date ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find room bookings in dates: %w", err)
	}
	return r.withPets(ctx, models)
}

// FindInDates returns the bookings of all rooms whose dates overlap period.
func (r *GormBookingRepository) FindInDates(ctx context.Context, period bookingDomain.StayPeriod) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("check_in_date < ? AND check_out_date > ?", period.CheckOut(), period.CheckIn()).
		Order("check_in_date ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings in dates: %w", err)
	}
	return r.withPets(ctx, models)
}

// FindByPetID returns every booking that includes the pet.
func (r *GormBookingRepository) FindByPetID(ctx context.Context, petID int64) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN booking_pets bp ON bp.booking_id = bookings.id").
		Where("bp.pet_id = ?", petID).
		Order("bookings.check_in_date ASC, bookings.id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find pet bookings: %w", err)
	}
	return r.withPets(ctx, models)
}

// FindByOwnerID returns every booking that includes at least one pet of the owner.
func (r *GormBookingRepository) FindByOwnerID(ctx context.Context, ownerID int64) ([]*bookingDomain.Booking, error) {
	ownerBookings := r.db.
		Model(&BookingPetModel{}).
		Select("booking_pets.booking_id").
		Joins("JOIN pets p ON p.id = booking_pets.pet_id").
		Where("p.owner_id = ?", ownerID)

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", ownerBookings).
		Order("check_in_date ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find owner bookings: %w", err)
	}
	return r.withPets(ctx, models)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("check_in_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := r.withPets(ctx, models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking with its pets and assigns the generated id.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to save booking: %w", translateError(err))
		}
		bk.AssignID(model.ID)
		return replacePets(tx, model.ID, bk.PetIDs())
	})
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called before Update, so the stored row carries the previous version.
	expectedVersion := bk.Version() - 1
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&BookingModel{}).
			Where("id = ? AND version = ?", model.ID, expectedVersion).
			Updates(map[string]interface{}{
				"type":              model.Type,
				"check_in_date":     model.CheckInDate,
				"check_out_date":    model.CheckOutDate,
				"check_in_time":     model.CheckInTime,
				"check_out_time":    model.CheckOutTime,
				"status":            model.Status,
				"reason_of_stop":    model.ReasonOfStop,
				"reason_of_cancel":  model.ReasonOfCancel,
				"price":             model.Price,
				"amount":            model.Amount,
				"prepayment_amount": model.PrepaymentAmount,
				"is_prepaid":        model.IsPrepaid,
				"comment":           model.Comment,
				"file_url":          model.FileURL,
				"room_id":           model.RoomID,
				"days_of_booking":   model.DaysOfBooking,
				"version":           model.Version,
				"updated_at":        model.UpdatedAt,
			})

		if result.Error != nil {
			return fmt.Errorf("failed to update booking: %w", translateError(result.Error))
		}
		if result.RowsAffected == 0 {
			return domain.NewConflictError("booking was modified by another transaction").
				WithDetail("booking_id", model.ID)
		}
		return replacePets(tx, model.ID, bk.PetIDs())
	})
}

// DeleteByID removes a booking and its pet links, returning the number of bookings deleted.
func (r *GormBookingRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", id).Delete(&BookingPetModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete booking pets: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&BookingModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete booking: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// WithinRoomLock runs fn in a transaction. On PostgreSQL the room rows are locked with
// SELECT ... FOR UPDATE in id order. SQLite runs on a single connection, so the open
// transaction already excludes every other writer.
func (r *GormBookingRepository) WithinRoomLock(ctx context.Context, roomIDs []int64, fn func(repo bookingDomain.BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" && len(roomIDs) > 0 {
			var locked []RoomModel
			if err := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id IN ?", roomIDs).
				Order("id").
				Find(&locked).Error; err != nil {
				return fmt.Errorf("failed to lock rooms: %w", err)
			}
		}
		return fn(&GormBookingRepository{db: tx})
	})
}

// --- Conversion Helpers ---

func replacePets(tx *gorm.DB, bookingID int64, petIDs []int64) error {
	if err := tx.Where("booking_id = ?", bookingID).Delete(&BookingPetModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear booking pets: %w", err)
	}
	if len(petIDs) == 0 {
		return nil
	}
	rows := make([]BookingPetModel, len(petIDs))
	for i, petID := range petIDs {
		rows[i] = BookingPetModel{BookingID: bookingID, PetID: petID}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save booking pets: %w", translateError(err))
	}
	return nil
}

// withPets loads the pet ids of every model in one query and converts to domain bookings.
func (r *GormBookingRepository) withPets(ctx context.Context, models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, 0, len(models))
	if len(models) == 0 {
		return bookings, nil
	}

	ids := make([]int64, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}

	var links []BookingPetModel
	if err := r.db.WithContext(ctx).Where("booking_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to load booking pets: %w", err)
	}
	petsByBooking := make(map[int64][]int64, len(models))
	for _, l := range links {
		petsByBooking[l.BookingID] = append(petsByBooking[l.BookingID], l.PetID)
	}

	for i := range models {
		bk, err := toDomainBooking(&models[i], petsByBooking[models[i].ID])
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, bk)
	}
	return bookings, nil
}

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	d := bk.Details()
	return &BookingModel{
		ID:               bk.ID(),
		Type:             string(bk.Type()),
		CheckInDate:      bk.CheckInDate(),
		CheckOutDate:     bk.CheckOutDate(),
		CheckInTime:      d.CheckInTime,
		CheckOutTime:     d.CheckOutTime,
		Status:           string(bk.Status()),
		ReasonOfStop:     string(bk.ReasonOfStop()),
		ReasonOfCancel:   bk.ReasonOfCancel(),
		Price:            d.Price,
		Amount:           d.Amount,
		PrepaymentAmount: d.PrepaymentAmount,
		IsPrepaid:        d.IsPrepaid,
		Comment:          d.Comment,
		FileURL:          d.FileURL,
		RoomID:           bk.RoomID(),
		DaysOfBooking:    bk.DaysOfBooking(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel, petIDs []int64) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	bookingType, err := bookingDomain.ParseBookingType(m.Type)
	if err != nil {
		return nil, err
	}
	period, err := bookingDomain.NewStayPeriod(m.CheckInDate, m.CheckOutDate)
	if err != nil {
		return nil, fmt.Errorf("booking %d has a corrupt period: %w", m.ID, err)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		bookingType,
		period,
		status,
		bookingDomain.ReasonOfStop(m.ReasonOfStop),
		m.ReasonOfCancel,
		bookingDomain.Details{
			CheckInTime:      m.CheckInTime,
			CheckOutTime:     m.CheckOutTime,
			Price:            m.Price,
			Amount:           m.Amount,
			PrepaymentAmount: m.PrepaymentAmount,
			IsPrepaid:        m.IsPrepaid,
			Comment:          m.Comment,
			FileURL:          m.FileURL,
		},
		m.RoomID,
		petIDs,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
