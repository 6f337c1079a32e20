package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/application"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/middleware"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/response"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/booking"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
	clock   func() time.Time
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service, clock: time.Now}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	staff := middleware.RequireRole(auth.RoleAdmin)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW, staff)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookingsInDates)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id", h.UpdateBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
	}

	rooms := r.Group("/api/v1/rooms")
	rooms.Use(authMW, staff)
	{
		rooms.GET("/:id/bookings/crossing", h.CrossingBookings)
		rooms.GET("/:id/bookings/blocking", h.BlockingBookings)
		rooms.GET("/:id/availability", h.RoomAvailability)
	}

	pets := r.Group("/api/v1/pets")
	pets.Use(authMW, staff)
	{
		pets.GET("/:id/bookings", h.PetBookings)
	}

	owners := r.Group("/api/v1/owners")
	owners.Use(authMW, staff)
	{
		owners.GET("/:id/bookings", h.OwnerBookings)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookingsInDates handles GET /api/v1/bookings. Without both dates the current month is listed.
func (h *BookingHandler) ListBookingsInDates(c *gin.Context) {
	period := bookingDomain.MonthOf(h.clock())
	if c.Query("check_in_date") != "" || c.Query("check_out_date") != "" {
		var ok bool
		if period, ok = parsePeriod(c); !ok {
			return
		}
	}

	result, err := h.service.FindAllBookingsInDates(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateBooking handles PATCH /api/v1/bookings/:id.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateBooking(c.Request.Context(), userID, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), userID, bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// CrossingBookings handles GET /api/v1/rooms/:id/bookings/crossing.
func (h *BookingHandler) CrossingBookings(c *gin.Context) {
	roomID, ok := parseID(c, "room")
	if !ok {
		return
	}
	period, ok := parsePeriod(c)
	if !ok {
		return
	}

	result, err := h.service.FindCrossingBookings(c.Request.Context(), roomID, period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// BlockingBookings handles GET /api/v1/rooms/:id/bookings/blocking.
func (h *BookingHandler) BlockingBookings(c *gin.Context) {
	roomID, ok := parseID(c, "room")
	if !ok {
		return
	}
	period, ok := parsePeriod(c)
	if !ok {
		return
	}

	result, err := h.service.FindBlockingBookings(c.Request.Context(), roomID, period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RoomAvailability handles GET /api/v1/rooms/:id/availability. With booking_id the check
// ignores that booking, which is how an edit form asks whether its new dates still fit.
func (h *BookingHandler) RoomAvailability(c *gin.Context) {
	roomID, ok := parseID(c, "room")
	if !ok {
		return
	}
	period, ok := parsePeriod(c)
	if !ok {
		return
	}

	var (
		result *application.AvailabilityDTO
		err    error
	)
	if raw := c.Query("booking_id"); raw != "" {
		bookingID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || bookingID <= 0 {
			response.BadRequest(c, "invalid booking ID")
			return
		}
		result, err = h.service.CheckUpdateBookingRoomAvailable(c.Request.Context(), roomID, bookingID, period)
	} else {
		result, err = h.service.CheckRoomAvailable(c.Request.Context(), roomID, period)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// PetBookings handles GET /api/v1/pets/:id/bookings.
func (h *BookingHandler) PetBookings(c *gin.Context) {
	petID, ok := parseID(c, "pet")
	if !ok {
		return
	}

	result, err := h.service.FindAllBookingsByPet(c.Request.Context(), petID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// OwnerBookings handles GET /api/v1/owners/:id/bookings.
func (h *BookingHandler) OwnerBookings(c *gin.Context) {
	ownerID, ok := parseID(c, "owner")
	if !ok {
		return
	}

	result, err := h.service.FindAllBookingsByOwner(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parseID reads the :id path parameter. It writes a 400 and returns false when the id is
// not a positive integer.
func parseID(c *gin.Context, entity string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+entity+" ID")
		return 0, false
	}
	return id, true
}

// parsePeriod reads check_in_date and check_out_date. Both are required.
func parsePeriod(c *gin.Context) (bookingDomain.StayPeriod, bool) {
	period, err := bookingDomain.ParseStayPeriod(c.Query("check_in_date"), c.Query("check_out_date"))
	if err != nil {
		response.Error(c, err)
		return bookingDomain.StayPeriod{}, false
	}
	return period, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
