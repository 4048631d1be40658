package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/homestead-rentals/service-booking/internal/application"
	"github.com/homestead-rentals/service-booking/internal/common/auth"
	"github.com/homestead-rentals/service-booking/internal/common/middleware"
	"github.com/homestead-rentals/service-booking/internal/common/response"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(identity.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.DELETE("/bookings/:id", h.DeleteBooking)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	caller, _ := middleware.GetCaller(c)
	page, limit := parsePagination(c)

	result, err := h.service.ListAllBookings(c.Request.Context(), caller, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// DeleteBooking handles DELETE /api/v1/admin/bookings/:id.
func (h *AdminBookingHandler) DeleteBooking(c *gin.Context) {
	caller, _ := middleware.GetCaller(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), caller, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	caller, _ := middleware.GetCaller(c)

	stats, err := h.service.BookingStats(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
