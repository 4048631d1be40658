package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/auth"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(jwt *auth.JWTManager, roles ...identity.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()), RequestIDMiddleware())
	r.GET("/whoami", AuthMiddleware(jwt), RequireRole(roles...), func(c *gin.Context) {
		caller, _ := GetCaller(c)
		c.String(http.StatusOK, caller.ID.String())
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestAuthMiddleware(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Minute, "test")
	r := newRouter(jwt, identity.RoleAgent, identity.RoleAdmin)

	agentID := uuid.New()
	agentToken, err := jwt.GenerateAccessToken(agentID, "", identity.RoleAgent)
	require.NoError(t, err)
	renterToken, err := jwt.GenerateAccessToken(uuid.New(), "", identity.RoleRenter)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + renterToken, http.StatusForbidden},
		{"allowed role", "Bearer " + agentToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+agentToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, agentID.String(), w.Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	r := newRouter(auth.NewJWTManager("s", time.Minute, "t"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestRequestIDMiddleware_Propagates(t *testing.T) {
	r := newRouter(auth.NewJWTManager("s", time.Minute, "t"))
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
