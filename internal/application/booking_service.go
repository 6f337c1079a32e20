package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/kafka"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/booking"
	petDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/pet"
	roomDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/room"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/proto/events"
)

const serviceName = "service-boarding"

// EventPublisher publishes CloudEvents. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	Type             string  `json:"type" binding:"required"`
	CheckInDate      string  `json:"check_in_date" binding:"required"`
	CheckOutDate     string  `json:"check_out_date" binding:"required"`
	CheckInTime      string  `json:"check_in_time"`
	CheckOutTime     string  `json:"check_out_time"`
	Price            float64 `json:"price"`
	Amount           float64 `json:"amount"`
	PrepaymentAmount float64 `json:"prepayment_amount"`
	IsPrepaid        bool    `json:"is_prepaid"`
	Comment          string  `json:"comment"`
	FileURL          string  `json:"file_url"`
	RoomID           int64   `json:"room_id" binding:"required"`
	PetIDs           []int64 `json:"pet_ids"`
}

// UpdateBookingRequest is a partial update. Absent fields keep their stored values.
type UpdateBookingRequest struct {
	Type             *string  `json:"type"`
	CheckInDate      *string  `json:"check_in_date"`
	CheckOutDate     *string  `json:"check_out_date"`
	CheckInTime      *string  `json:"check_in_time"`
	CheckOutTime     *string  `json:"check_out_time"`
	Status           *string  `json:"status"`
	ReasonOfStop     *string  `json:"reason_of_stop"`
	ReasonOfCancel   *string  `json:"reason_of_cancel"`
	Price            *float64 `json:"price"`
	Amount           *float64 `json:"amount"`
	PrepaymentAmount *float64 `json:"prepayment_amount"`
	IsPrepaid        *bool    `json:"is_prepaid"`
	Comment          *string  `json:"comment"`
	FileURL          *string  `json:"file_url"`
	RoomID           *int64   `json:"room_id"`
	PetIDs           []int64  `json:"pet_ids"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID               int64     `json:"id"`
	Type             string    `json:"type"`
	CheckInDate      string    `json:"check_in_date"`
	CheckOutDate     string    `json:"check_out_date"`
	CheckInTime      string    `json:"check_in_time,omitempty"`
	CheckOutTime     string    `json:"check_out_time,omitempty"`
	DaysOfBooking    int       `json:"days_of_booking"`
	Status           string    `json:"status"`
	ReasonOfStop     string    `json:"reason_of_stop,omitempty"`
	ReasonOfCancel   string    `json:"reason_of_cancel,omitempty"`
	Price            float64   `json:"price"`
	Amount           float64   `json:"amount"`
	PrepaymentAmount float64   `json:"prepayment_amount"`
	IsPrepaid        bool      `json:"is_prepaid"`
	Comment          string    `json:"comment,omitempty"`
	FileURL          string    `json:"file_url,omitempty"`
	RoomID           int64     `json:"room_id"`
	PetIDs           []int64   `json:"pet_ids"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AvailabilityDTO is the answer to an availability query that found no conflict.
type AvailabilityDTO struct {
	RoomID       int64  `json:"room_id"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Available    bool   `json:"available"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	rooms     roomDomain.RoomRepository
	pets      petDomain.PetRepository
	occupancy bookingDomain.Occupancy
	producer  EventPublisher
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	rooms roomDomain.RoomRepository,
	pets petDomain.PetRepository,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		rooms:     rooms,
		pets:      pets,
		occupancy: bookingDomain.DefaultOccupancy,
		producer:  producer,
		logger:    logger,
	}
}

func (s *BookingService) finder(repo bookingDomain.BookingRepository) *bookingDomain.Finder {
	return bookingDomain.NewFinderWithOccupancy(repo, s.occupancy)
}

// CreateBooking validates the request, resolves the room and pets, and saves the booking
// if the room is free. The availability check and the insert share one room lock.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID int64, req CreateBookingRequest) (*BookingDTO, error) {
	period, err := bookingDomain.ParseStayPeriod(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, err
	}
	bookingType, err := bookingDomain.ParseBookingType(req.Type)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := bookingDomain.NewBooking(bookingType, period, req.RoomID, req.PetIDs, bookingDomain.Details{
		CheckInTime:      req.CheckInTime,
		CheckOutTime:     req.CheckOutTime,
		Price:            req.Price,
		Amount:           req.Amount,
		PrepaymentAmount: req.PrepaymentAmount,
		IsPrepaid:        req.IsPrepaid,
		Comment:          req.Comment,
		FileURL:          req.FileURL,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.rooms.FindByID(ctx, bk.RoomID()); err != nil {
		return nil, err
	}
	if _, err := s.pets.FindByIDs(ctx, bk.PetIDs()); err != nil {
		return nil, err
	}

	err = s.repo.WithinRoomLock(ctx, []int64{bk.RoomID()}, func(repo bookingDomain.BookingRepository) error {
		checker := bookingDomain.NewAvailabilityChecker(s.finder(repo))
		if err := checker.CheckRoomAvailable(ctx, bk.RoomID(), bk.Period()); err != nil {
			return err
		}
		return repo.Save(ctx, bk)
	})
	if err != nil {
		if domain.IsConflict(err) {
			s.logger.Info("booking rejected, room unavailable",
				zap.Int64("room_id", bk.RoomID()),
				zap.String("period", bk.Period().String()),
			)
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", bk.ID()),
		zap.Int64("room_id", bk.RoomID()),
		zap.String("period", bk.Period().String()),
		zap.Int64("requested_by", requesterID),
	)
	s.publishBookingEvent(ctx, events.BookingCreated, bk, requesterID)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateBooking merges req into the stored booking. When the merged booking still
// occupies its room and its room or dates moved, availability is checked again with the
// booking itself excluded, under the lock of the target room.
func (s *BookingService) UpdateBooking(ctx context.Context, requesterID, bookingID int64, req UpdateBookingRequest) (*BookingDTO, error) {
	patch, err := req.toPatch()
	if err != nil {
		return nil, err
	}

	if patch.RoomID != nil {
		if _, err := s.rooms.FindByID(ctx, *patch.RoomID); err != nil {
			return nil, err
		}
	}
	if len(patch.PetIDs) > 0 {
		if _, err := s.pets.FindByIDs(ctx, patch.PetIDs); err != nil {
			return nil, err
		}
	}

	current, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	targetRoom := current.RoomID()
	if patch.RoomID != nil {
		targetRoom = *patch.RoomID
	}

	var (
		updated *bookingDomain.Booking
		changed []string
		before  bookingDomain.BookingStatus
	)
	err = s.repo.WithinRoomLock(ctx, []int64{targetRoom}, func(repo bookingDomain.BookingRepository) error {
		bk, err := repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		before = bk.Status()

		changed, err = bk.ApplyPatch(patch)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			updated = bk
			return nil
		}

		if s.occupancy.IsOccupying(bk.Status()) && bookingDomain.MovesStay(changed) {
			checker := bookingDomain.NewAvailabilityChecker(s.finder(repo))
			if err := checker.CheckUpdateBookingRoomAvailable(ctx, bk.RoomID(), bk.ID(), bk.Period()); err != nil {
				return err
			}
		}

		bk.IncrementVersion()
		if err := repo.Update(ctx, bk); err != nil {
			return err
		}
		updated = bk
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		s.logger.Info("booking updated",
			zap.Int64("booking_id", updated.ID()),
			zap.Strings("changed", changed),
			zap.String("status", string(updated.Status())),
			zap.Int64("updated_by", requesterID),
		)
		eventType := events.BookingUpdated
		if updated.Status() == bookingDomain.StatusCancelled && before != bookingDomain.StatusCancelled {
			eventType = events.BookingCancelled
		}
		s.publishBookingEvent(ctx, eventType, updated, requesterID)
	}

	result := toBookingDTO(updated)
	return &result, nil
}

// DeleteBooking removes a booking permanently.
func (s *BookingService) DeleteBooking(ctx context.Context, requesterID, bookingID int64) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if deleted == 0 {
		return bookingDomain.NewBookingNotFoundError(bookingID)
	}

	s.logger.Info("booking deleted",
		zap.Int64("booking_id", bookingID),
		zap.Int64("deleted_by", requesterID),
	)
	s.publishBookingEvent(ctx, events.BookingDeleted, bk, requesterID)
	return nil
}

// ApplyPrepayment records a deposit reported by the payment service.
func (s *BookingService) ApplyPrepayment(ctx context.Context, bookingID int64, amount float64) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	prepaid := true
	changed, err := bk.ApplyPatch(bookingDomain.Patch{PrepaymentAmount: &amount, IsPrepaid: &prepaid})
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		result := toBookingDTO(bk)
		return &result, nil
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("prepayment applied",
		zap.Int64("booking_id", bookingID),
		zap.Float64("amount", amount),
	)
	s.publishBookingEvent(ctx, events.BookingUpdated, bk, 0)

	result := toBookingDTO(bk)
	return &result, nil
}

// --- Queries ---

// FindCrossingBookings lists the room's bookings overlapping the period, in any status.
func (s *BookingService) FindCrossingBookings(ctx context.Context, roomID int64, period bookingDomain.StayPeriod) ([]BookingDTO, error) {
	if err := s.resolveRoom(ctx, roomID, period); err != nil {
		return nil, err
	}
	bookings, err := s.finder(s.repo).FindCrossingBookings(ctx, roomID, period)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// FindBlockingBookings lists the room's bookings that occupy it during the period.
func (s *BookingService) FindBlockingBookings(ctx context.Context, roomID int64, period bookingDomain.StayPeriod) ([]BookingDTO, error) {
	if err := s.resolveRoom(ctx, roomID, period); err != nil {
		return nil, err
	}
	bookings, err := s.finder(s.repo).FindBlockingBookings(ctx, roomID, period)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// CheckRoomAvailable returns a Conflict if the room is occupied during the period.
func (s *BookingService) CheckRoomAvailable(ctx context.Context, roomID int64, period bookingDomain.StayPeriod) (*AvailabilityDTO, error) {
	if err := s.resolveRoom(ctx, roomID, period); err != nil {
		return nil, err
	}
	checker := bookingDomain.NewAvailabilityChecker(s.finder(s.repo))
	if err := checker.CheckRoomAvailable(ctx, roomID, period); err != nil {
		return nil, err
	}
	return toAvailabilityDTO(roomID, period), nil
}

// CheckUpdateBookingRoomAvailable is CheckRoomAvailable ignoring the given booking.
func (s *BookingService) CheckUpdateBookingRoomAvailable(ctx context.Context, roomID, bookingID int64, period bookingDomain.StayPeriod) (*AvailabilityDTO, error) {
	if err := s.resolveRoom(ctx, roomID, period); err != nil {
		return nil, err
	}
	checker := bookingDomain.NewAvailabilityChecker(s.finder(s.repo))
	if err := checker.CheckUpdateBookingRoomAvailable(ctx, roomID, bookingID, period); err != nil {
		return nil, err
	}
	return toAvailabilityDTO(roomID, period), nil
}

// FindAllBookingsInDates lists every room's bookings overlapping the period.
func (s *BookingService) FindAllBookingsInDates(ctx context.Context, period bookingDomain.StayPeriod) ([]BookingDTO, error) {
	bookings, err := s.finder(s.repo).FindAllBookingsInDates(ctx, period)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// FindAllBookingsByPet lists every booking of the pet.
func (s *BookingService) FindAllBookingsByPet(ctx context.Context, petID int64) ([]BookingDTO, error) {
	if _, err := s.pets.FindByID(ctx, petID); err != nil {
		return nil, err
	}
	bookings, err := s.finder(s.repo).FindAllBookingsByPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// FindAllBookingsByOwner lists every booking that includes a pet of the owner. An owner
// is known through their pets, so an owner with no pets is reported as not found.
func (s *BookingService) FindAllBookingsByOwner(ctx context.Context, ownerID int64) ([]BookingDTO, error) {
	pets, err := s.pets.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(pets) == 0 {
		return nil, domain.NewNotFoundError("Owner", strconv.FormatInt(ownerID, 10))
	}
	bookings, err := s.finder(s.repo).FindAllBookingsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// resolveRoom validates the period before touching the store, then checks the room exists.
func (s *BookingService) resolveRoom(ctx context.Context, roomID int64, period bookingDomain.StayPeriod) error {
	if err := period.Validate(); err != nil {
		return err
	}
	_, err := s.rooms.FindByID(ctx, roomID)
	return err
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func (r UpdateBookingRequest) toPatch() (bookingDomain.Patch, error) {
	p := bookingDomain.Patch{
		CheckInTime:      r.CheckInTime,
		CheckOutTime:     r.CheckOutTime,
		ReasonOfCancel:   r.ReasonOfCancel,
		Price:            r.Price,
		Amount:           r.Amount,
		PrepaymentAmount: r.PrepaymentAmount,
		IsPrepaid:        r.IsPrepaid,
		Comment:          r.Comment,
		FileURL:          r.FileURL,
		RoomID:           r.RoomID,
		PetIDs:           r.PetIDs,
	}

	if r.Type != nil {
		t, err := bookingDomain.ParseBookingType(*r.Type)
		if err != nil {
			return p, domain.NewValidationError(err.Error())
		}
		p.Type = &t
	}
	if r.Status != nil {
		st, err := bookingDomain.ParseBookingStatus(*r.Status)
		if err != nil {
			return p, domain.NewValidationError(err.Error())
		}
		p.Status = &st
	}
	if r.ReasonOfStop != nil {
		reason := bookingDomain.ReasonOfStop(*r.ReasonOfStop)
		if !reason.IsValid() {
			return p, domain.NewValidationError("invalid reason of stop: " + *r.ReasonOfStop)
		}
		p.ReasonOfStop = &reason
	}
	if r.CheckInDate != nil {
		d, err := bookingDomain.ParseDate(*r.CheckInDate)
		if err != nil {
			return p, err
		}
		p.CheckInDate = &d
	}
	if r.CheckOutDate != nil {
		d, err := bookingDomain.ParseDate(*r.CheckOutDate)
		if err != nil {
			return p, err
		}
		p.CheckOutDate = &d
	}
	if r.RoomID != nil && *r.RoomID <= 0 {
		return p, domain.NewValidationError("invalid room ID")
	}
	return p, nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	d := bk.Details()
	return BookingDTO{
		ID:               bk.ID(),
		Type:             string(bk.Type()),
		CheckInDate:      bk.CheckInDate().Format(bookingDomain.DateLayout),
		CheckOutDate:     bk.CheckOutDate().Format(bookingDomain.DateLayout),
		CheckInTime:      d.CheckInTime,
		CheckOutTime:     d.CheckOutTime,
		DaysOfBooking:    bk.DaysOfBooking(),
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
		PetIDs:           bk.PetIDs(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func toAvailabilityDTO(roomID int64, period bookingDomain.StayPeriod) *AvailabilityDTO {
	return &AvailabilityDTO{
		RoomID:       roomID,
		CheckInDate:  period.CheckIn().Format(bookingDomain.DateLayout),
		CheckOutDate: period.CheckOut().Format(bookingDomain.DateLayout),
		Available:    true,
	}
}

func (s *BookingService) publishBookingEvent(ctx context.Context, eventType string, bk *bookingDomain.Booking, changedBy int64) {
	evt := events.BookingEvent{
		BookingID:    bk.ID(),
		RoomID:       bk.RoomID(),
		PetIDs:       bk.PetIDs(),
		Type:         string(bk.Type()),
		Status:       string(bk.Status()),
		CheckInDate:  bk.CheckInDate().Format(bookingDomain.DateLayout),
		CheckOutDate: bk.CheckOutDate().Format(bookingDomain.DateLayout),
		ChangedBy:    changedBy,
		OccurredAt:   time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, eventType, strconv.FormatInt(bk.ID(), 10), evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	if s.producer == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(serviceName, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent.WithSubject(key)); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
