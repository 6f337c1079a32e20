package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/database"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/kafka"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/booking"
	petDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/pet"
	roomDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/room"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/proto/events"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/repository"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func ofType(eventType string) interface{} {
	return mock.MatchedBy(func(e kafka.CloudEvent) bool { return e.Type == eventType })
}

type harness struct {
	svc       *BookingService
	publisher *MockPublisher
	rooms     *repository.GormRoomRepository
	pets      *repository.GormPetRepository
	bookings  *repository.GormBookingRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	h := &harness{
		publisher: &MockPublisher{},
		rooms:     repository.NewGormRoomRepository(db),
		pets:      repository.NewGormPetRepository(db),
		bookings:  repository.NewGormBookingRepository(db),
	}
	h.svc = NewBookingService(h.bookings, h.rooms, h.pets, h.publisher, zap.NewNop())
	return h
}

func (h *harness) room(t *testing.T, number string) int64 {
	t.Helper()
	r, err := roomDomain.NewRoom(number, "standard", 10)
	require.NoError(t, err)
	require.NoError(t, h.rooms.Save(context.Background(), r))
	return r.ID()
}

func (h *harness) pet(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()
	p, err := petDomain.NewPet(ownerID, name, "cat", "siamese")
	require.NoError(t, err)
	require.NoError(t, h.pets.Save(context.Background(), p))
	return p.ID()
}

func (h *harness) create(t *testing.T, roomID int64, in, out string, petIDs ...int64) *BookingDTO {
	t.Helper()
	dto, err := h.svc.CreateBooking(context.Background(), 1, CreateBookingRequest{
		Type:         string(bookingDomain.TypeBooking),
		CheckInDate:  in,
		CheckOutDate: out,
		RoomID:       roomID,
		PetIDs:       petIDs,
	})
	require.NoError(t, err)
	return dto
}

func stay(t *testing.T, in, out string) bookingDomain.StayPeriod {
	t.Helper()
	p, err := bookingDomain.ParseStayPeriod(in, out)
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string { return &s }

func TestCreateBooking_Success(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, events.TopicBookingEvents, ofType(events.BookingCreated)).Return(nil).Once()

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")

	dto, err := h.svc.CreateBooking(context.Background(), 1, CreateBookingRequest{
		Type:         "booking",
		CheckInDate:  "2024-05-01",
		CheckOutDate: "2024-05-05",
		CheckInTime:  "12:00",
		Price:        40,
		RoomID:       roomID,
		PetIDs:       []int64{petID},
	})
	require.NoError(t, err)

	assert.NotZero(t, dto.ID)
	assert.Equal(t, "initial", dto.Status)
	assert.Equal(t, 4, dto.DaysOfBooking)
	assert.Equal(t, []int64{petID}, dto.PetIDs)
	h.publisher.AssertExpectations(t)
}

func TestCreateBooking_Rejections(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	h.create(t, roomID, "2024-05-01", "2024-05-05", petID)

	tests := []struct {
		name  string
		req   CreateBookingRequest
		check func(error) bool
	}{
		{"overlap", CreateBookingRequest{Type: "booking", CheckInDate: "2024-05-04", CheckOutDate: "2024-05-06", RoomID: roomID, PetIDs: []int64{petID}}, domain.IsConflict},
		{"inverted dates", CreateBookingRequest{Type: "booking", CheckInDate: "2024-05-06", CheckOutDate: "2024-05-06", RoomID: roomID, PetIDs: []int64{petID}}, domain.IsValidation},
		{"bad date", CreateBookingRequest{Type: "booking", CheckInDate: "05/06/2024", CheckOutDate: "2024-05-09", RoomID: roomID, PetIDs: []int64{petID}}, domain.IsValidation},
		{"unknown type", CreateBookingRequest{Type: "lodging", CheckInDate: "2024-06-01", CheckOutDate: "2024-06-02", RoomID: roomID, PetIDs: []int64{petID}}, domain.IsValidation},
		{"unknown room", CreateBookingRequest{Type: "booking", CheckInDate: "2024-06-01", CheckOutDate: "2024-06-02", RoomID: 999, PetIDs: []int64{petID}}, domain.IsNotFound},
		{"unknown pet", CreateBookingRequest{Type: "booking", CheckInDate: "2024-06-01", CheckOutDate: "2024-06-02", RoomID: roomID, PetIDs: []int64{petID, 404}}, domain.IsNotFound},
		{"no pets", CreateBookingRequest{Type: "booking", CheckInDate: "2024-06-01", CheckOutDate: "2024-06-02", RoomID: roomID}, domain.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.CreateBooking(context.Background(), 1, tt.req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestCreateBooking_ConflictCarriesBlockingIDs(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)

	_, err := h.svc.CreateBooking(context.Background(), 1, CreateBookingRequest{
		Type: "booking", CheckInDate: "2024-05-03", CheckOutDate: "2024-05-08", RoomID: roomID, PetIDs: []int64{petID},
	})
	require.Error(t, err)

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeConflict, de.Code)
	assert.Equal(t, []int64{first.ID}, de.Details["blocking_booking_ids"])
}

func TestCreateBooking_BackToBackAllowed(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	h.create(t, roomID, "2024-05-01", "2024-05-05", petID)
	h.create(t, roomID, "2024-05-05", "2024-05-07", petID)
	h.create(t, roomID, "2024-04-28", "2024-05-01", petID)
}

func TestCreateBooking_ClosingNeedsNoPets(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	dto, err := h.svc.CreateBooking(context.Background(), 1, CreateBookingRequest{
		Type: "closing", CheckInDate: "2024-05-01", CheckOutDate: "2024-05-10", RoomID: roomID,
		Comment: "painting",
	})
	require.NoError(t, err)
	assert.Empty(t, dto.PetIDs)

	_, err = h.svc.CheckRoomAvailable(context.Background(), roomID, stay(t, "2024-05-02", "2024-05-03"))
	assert.True(t, domain.IsConflict(err))
}

func TestCreateBooking_ConcurrentRequestsForSameNights(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.CreateBooking(context.Background(), 1, CreateBookingRequest{
				Type: "booking", CheckInDate: "2024-05-01", CheckOutDate: "2024-05-05", RoomID: roomID, PetIDs: []int64{petID},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case domain.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

func TestUpdateBooking_MoveDatesChecksAvailability(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)
	second := h.create(t, roomID, "2024-05-10", "2024-05-12", petID)

	// Extending the stay into its own nights must not conflict with itself.
	dto, err := h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{CheckOutDate: strPtr("2024-05-08")})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-08", dto.CheckOutDate)
	assert.Equal(t, first.Version+1, dto.Version)

	_, err = h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{CheckOutDate: strPtr("2024-05-11")})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	stored, err := h.svc.GetBooking(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-08", stored.CheckOutDate, "rejected update must not be persisted")

	_, err = h.svc.GetBooking(context.Background(), second.ID)
	require.NoError(t, err)
}

func TestUpdateBooking_MoveRoom(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	a := h.room(t, "101")
	b := h.room(t, "102")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, a, "2024-05-01", "2024-05-05", petID)
	h.create(t, b, "2024-05-03", "2024-05-04", petID)

	_, err := h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{RoomID: &b})
	assert.True(t, domain.IsConflict(err))

	c := h.room(t, "103")
	dto, err := h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{RoomID: &c})
	require.NoError(t, err)
	assert.Equal(t, c, dto.RoomID)

	missing := int64(999)
	_, err = h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{RoomID: &missing})
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdateBooking_CancelFreesRoomAndPublishesCancelled(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, events.TopicBookingEvents, ofType(events.BookingCreated)).Return(nil)
	h.publisher.On("PublishEvent", mock.Anything, events.TopicBookingEvents, ofType(events.BookingCancelled)).Return(nil).Once()

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)

	dto, err := h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{ReasonOfCancel: strPtr("owner changed plans")})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", dto.Status)

	_, err = h.svc.CheckRoomAvailable(context.Background(), roomID, stay(t, "2024-05-01", "2024-05-05"))
	require.NoError(t, err)
	h.create(t, roomID, "2024-05-02", "2024-05-04", petID)

	crossing, err := h.svc.FindCrossingBookings(context.Background(), roomID, stay(t, "2024-05-01", "2024-05-05"))
	require.NoError(t, err)
	assert.Len(t, crossing, 2)
	blocking, err := h.svc.FindBlockingBookings(context.Background(), roomID, stay(t, "2024-05-01", "2024-05-05"))
	require.NoError(t, err)
	assert.Len(t, blocking, 1)

	h.publisher.AssertExpectations(t)
}

func TestUpdateBooking_InvalidInput(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)

	_, err := h.svc.UpdateBooking(context.Background(), 1, 999, UpdateBookingRequest{Comment: strPtr("x")})
	assert.True(t, domain.IsNotFound(err))

	_, err = h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{Status: strPtr("checked_out")})
	assert.True(t, domain.IsInvalidState(err))

	_, err = h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{Status: strPtr("sleeping")})
	assert.True(t, domain.IsValidation(err))

	_, err = h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{ReasonOfStop: strPtr("boredom")})
	assert.True(t, domain.IsValidation(err))

	_, err = h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{CheckInDate: strPtr("2024-05-09")})
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateBooking_NoChangeSkipsPublish(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, events.TopicBookingEvents, ofType(events.BookingCreated)).Return(nil).Once()

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)

	dto, err := h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{Comment: strPtr("  ")})
	require.NoError(t, err)
	assert.Equal(t, first.Version, dto.Version)
	h.publisher.AssertExpectations(t)
}

func TestDeleteBooking(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, events.TopicBookingEvents, ofType(events.BookingCreated)).Return(nil)
	h.publisher.On("PublishEvent", mock.Anything, events.TopicBookingEvents, ofType(events.BookingDeleted)).Return(nil).Once()

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)

	require.NoError(t, h.svc.DeleteBooking(context.Background(), 1, first.ID))

	_, err := h.svc.GetBooking(context.Background(), first.ID)
	assert.True(t, domain.IsNotFound(err))

	err = h.svc.DeleteBooking(context.Background(), 1, first.ID)
	assert.True(t, domain.IsNotFound(err))

	h.create(t, roomID, "2024-05-01", "2024-05-05", petID)
	h.publisher.AssertExpectations(t)
}

func TestQueries_ByDatesPetAndOwner(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	a := h.room(t, "101")
	b := h.room(t, "102")
	tom := h.pet(t, 7, "Tom")
	rex := h.pet(t, 8, "Rex")
	h.pet(t, 9, "Lonely")

	late := h.create(t, a, "2024-05-10", "2024-05-12", tom)
	early := h.create(t, b, "2024-05-01", "2024-05-03", rex)
	h.create(t, a, "2024-06-10", "2024-06-12", tom, rex)

	inMay, err := h.svc.FindAllBookingsInDates(context.Background(), stay(t, "2024-05-01", "2024-06-01"))
	require.NoError(t, err)
	require.Len(t, inMay, 2)
	assert.Equal(t, early.ID, inMay[0].ID)
	assert.Equal(t, late.ID, inMay[1].ID)

	byPet, err := h.svc.FindAllBookingsByPet(context.Background(), tom)
	require.NoError(t, err)
	assert.Len(t, byPet, 2)

	byOwner, err := h.svc.FindAllBookingsByOwner(context.Background(), 8)
	require.NoError(t, err)
	assert.Len(t, byOwner, 2)

	empty, err := h.svc.FindAllBookingsByOwner(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = h.svc.FindAllBookingsByOwner(context.Background(), 404)
	assert.True(t, domain.IsNotFound(err))

	_, err = h.svc.FindAllBookingsByPet(context.Background(), 404)
	assert.True(t, domain.IsNotFound(err))

	_, err = h.svc.FindCrossingBookings(context.Background(), 404, stay(t, "2024-05-01", "2024-05-02"))
	assert.True(t, domain.IsNotFound(err))
}

func TestCheckUpdateBookingRoomAvailable_ExcludesItself(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)

	result, err := h.svc.CheckUpdateBookingRoomAvailable(context.Background(), roomID, first.ID, stay(t, "2024-05-02", "2024-05-07"))
	require.NoError(t, err)
	assert.True(t, result.Available)

	_, err = h.svc.CheckRoomAvailable(context.Background(), roomID, stay(t, "2024-05-02", "2024-05-07"))
	assert.True(t, domain.IsConflict(err))
}

func TestApplyPrepayment(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)

	dto, err := h.svc.ApplyPrepayment(context.Background(), first.ID, 25)
	require.NoError(t, err)
	assert.True(t, dto.IsPrepaid)
	assert.Equal(t, 25.0, dto.PrepaymentAmount)

	_, err = h.svc.ApplyPrepayment(context.Background(), first.ID, -1)
	assert.True(t, domain.IsValidation(err))

	_, err = h.svc.ApplyPrepayment(context.Background(), 999, 10)
	assert.True(t, domain.IsNotFound(err))
}

func TestAdminListAndStats(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	first := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)
	h.create(t, roomID, "2024-05-05", "2024-05-07", petID)
	h.create(t, roomID, "2024-05-07", "2024-05-09", petID)
	_, err := h.svc.UpdateBooking(context.Background(), 1, first.ID, UpdateBookingRequest{Status: strPtr("confirmed")})
	require.NoError(t, err)

	items, total, err := h.svc.ListAllBookings(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 2)

	stats, err := h.svc.GetBookingStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalBookings)
	assert.Equal(t, int64(2), stats.ByStatus["initial"])
	assert.Equal(t, int64(1), stats.ByStatus["confirmed"])
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	h := newHarness(t)
	h.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	dto := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)
	assert.NotZero(t, dto.ID)
}

func TestNilPublisher(t *testing.T) {
	h := newHarness(t)
	h.svc = NewBookingService(h.bookings, h.rooms, h.pets, nil, zap.NewNop())

	roomID := h.room(t, "101")
	petID := h.pet(t, 7, "Tom")
	dto := h.create(t, roomID, "2024-05-01", "2024-05-05", petID)
	assert.WithinDuration(t, time.Now(), dto.CreatedAt, time.Minute)
}
