package handler

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/homestead-rentals/service-booking/internal/application"
	"github.com/homestead-rentals/service-booking/internal/common/auth"
	"github.com/homestead-rentals/service-booking/internal/common/health"
	"github.com/homestead-rentals/service-booking/internal/common/middleware"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with global middleware and every route. healthHandler may be nil.
func NewRouter(
	log *zap.Logger,
	jwtManager *auth.JWTManager,
	bookingService *application.BookingService,
	healthHandler *health.Handler,
) *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	if healthHandler != nil {
		healthHandler.RegisterRoutes(router)
	}

	NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewPropertyHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	return router
}

// useJSONFieldNames makes validation errors name fields as clients send them.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}
