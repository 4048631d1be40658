package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/homestead-rentals/service-booking/internal/application"
	"github.com/homestead-rentals/service-booking/internal/common/auth"
	"github.com/homestead-rentals/service-booking/internal/common/middleware"
	"github.com/homestead-rentals/service-booking/internal/common/response"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
)

// PropertyHandler serves property search and per-property booking views.
type PropertyHandler struct {
	service *application.BookingService
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(service *application.BookingService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// SearchQuery holds the optional filters of a property search.
type SearchQuery struct {
	City        *string `form:"city"`
	Type        *string `form:"type"`
	MinPrice    *int64  `form:"min_price" binding:"omitempty,min=0"`
	MaxPrice    *int64  `form:"max_price" binding:"omitempty,min=0"`
	MinBedrooms *int    `form:"min_bedrooms" binding:"omitempty,min=0"`
}

// RegisterRoutes registers property routes.
func (h *PropertyHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	properties := r.Group("/api/v1/properties")
	properties.Use(middleware.AuthMiddleware(jwtManager))
	{
		properties.GET("", h.Search)
		properties.GET("/:id/booked-dates", h.BookedDates)
		properties.GET("/:id/bookings", middleware.RequireRole(identity.RoleAgent, identity.RoleAdmin), h.ListBookings)
	}
}

// Search handles GET /api/v1/properties.
func (h *PropertyHandler) Search(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.SearchProperties(c.Request.Context(), property.SearchFilter{
		City:        q.City,
		Type:        q.Type,
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
		MinBedrooms: q.MinBedrooms,
	}, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// BookedDates handles GET /api/v1/properties/:id/booked-dates.
func (h *PropertyHandler) BookedDates(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ranges, err := h.service.BookedDates(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, ranges)
}

// ListBookings handles GET /api/v1/properties/:id/bookings.
func (h *PropertyHandler) ListBookings(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListPropertyBookings(c.Request.Context(), caller, id, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}
