package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/homestead-rentals/service-booking/internal/common/auth"
	"github.com/homestead-rentals/service-booking/internal/common/response"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
)

const callerKey = "caller"

// AuthMiddleware validates the bearer token and stores the resolved caller on the context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c)
			return
		}

		claims, err := jwtManager.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c)
			return
		}

		caller, err := claims.Caller()
		if err != nil {
			response.Unauthorized(c)
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in roles.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			response.Unauthorized(c)
			return
		}
		if _, ok := allowed[caller.Role]; !ok {
			response.Forbidden(c, "insufficient role")
			return
		}
		c.Next()
	}
}

// GetCaller returns the caller resolved by AuthMiddleware.
func GetCaller(c *gin.Context) (identity.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return identity.Caller{}, false
	}
	caller, ok := v.(identity.Caller)
	return caller, ok && !caller.IsZero()
}

// SetCaller stores a caller on the context. Used by AuthMiddleware and handler tests.
func SetCaller(c *gin.Context, caller identity.Caller) {
	c.Set(callerKey, caller)
}
