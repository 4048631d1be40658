package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/application"
	"github.com/homestead-rentals/service-booking/internal/common/auth"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	"github.com/homestead-rentals/service-booking/internal/common/middleware"
	"github.com/homestead-rentals/service-booking/internal/common/response"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	renters := middleware.RequireRole(identity.RoleRenter, identity.RoleAdmin)
	staff := middleware.RequireRole(identity.RoleAgent, identity.RoleAdmin)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", renters, h.CreateBooking)
		bookings.GET("/mine", h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", renters, h.CancelBooking)
		bookings.POST("/:id/confirm", staff, h.ConfirmBooking)
		bookings.POST("/:id/reject", staff, h.RejectBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMyBookings handles GET /api/v1/bookings/mine.
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListMyBookings(c.Request.Context(), caller, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	h.withBooking(c, h.service.GetBooking)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.withBooking(c, h.service.CancelBooking)
}

// ConfirmBooking handles POST /api/v1/bookings/:id/confirm.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.withBooking(c, h.service.ConfirmBooking)
}

// RejectBooking handles POST /api/v1/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	h.withBooking(c, h.service.RejectBooking)
}

type bookingOperation func(ctx context.Context, caller identity.Caller, id uuid.UUID) (*application.BookingDTO, error)

func (h *BookingHandler) withBooking(c *gin.Context, op bookingOperation) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := op(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parseID reads a UUID path parameter, writing a 400 when it is malformed.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if page > domain.MaxPage {
		page = domain.MaxPage
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
