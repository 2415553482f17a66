package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/infrastructure/auth"
	"github.com/cobranzas/backend/internal/infrastructure/config"
	"github.com/cobranzas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	cfg := config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
	}
	return auth.NewJWTService(cfg)
}

func newTestTokenPair(t *testing.T, jwtService *auth.JWTService, role identity.Role) (*auth.TokenPair, auth.GenerateTokenInput) {
	t.Helper()
	input := auth.GenerateTokenInput{
		UserID:   uuid.New(),
		Username: "cobrador1",
		Role:     role,
	}
	pair, err := jwtService.GenerateTokenPair(input)
	require.NoError(t, err)
	return pair, input
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func serve(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(t, jwtService, identity.RoleCollector)

	var captured identity.Actor
	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, input.UserID.String(), claims.UserID)
		assert.Equal(t, input.UserID.String(), GetJWTUserID(c))
		captured, _ = GetActor(c)
		okHandler(c)
	})

	rec := serve(router, "/test", "Bearer "+pair.AccessToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, input.UserID, captured.UserID)
	assert.Equal(t, identity.RoleCollector, captured.Role)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService, identity.RoleAdmin)

	tests := []struct {
		name          string
		authorization string
	}{
		{"missing header", ""},
		{"invalid header format", "InvalidFormat token123"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer invalid-token"},
		{"refresh token used as access", "Bearer " + pair.RefreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuthMiddleware(jwtService))
			router.GET("/test", okHandler)

			rec := serve(router, "/test", tt.authorization)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, dto.ErrCodeTokenInvalid, decodeErrorCode(t, rec))
		})
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  -1 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "test-issuer",
	})
	pair, _ := newTestTokenPair(t, jwtService, identity.RoleAdmin)

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", okHandler)

	rec := serve(router, "/test", "Bearer "+pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, decodeErrorCode(t, rec))
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(t, jwtService, identity.RoleCollector)
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	t.Run("single token revoked", func(t *testing.T) {
		revocations := auth.NewInMemoryRevocationList()
		require.NoError(t, revocations.Revoke(context.Background(), claims.ID, time.Hour))

		cfg := DefaultJWTConfig(jwtService)
		cfg.Revocations = revocations
		router := gin.New()
		router.Use(JWTAuthMiddlewareWithConfig(cfg))
		router.GET("/test", okHandler)

		rec := serve(router, "/test", "Bearer "+pair.AccessToken)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, decodeErrorCode(t, rec))
	})

	t.Run("user deactivated", func(t *testing.T) {
		revocations := auth.NewInMemoryRevocationList()
		require.NoError(t, revocations.RevokeUser(context.Background(), input.UserID, time.Hour))

		cfg := DefaultJWTConfig(jwtService)
		cfg.Revocations = revocations
		router := gin.New()
		router.Use(JWTAuthMiddlewareWithConfig(cfg))
		router.GET("/test", okHandler)

		rec := serve(router, "/test", "Bearer "+pair.AccessToken)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("other token revoked", func(t *testing.T) {
		revocations := auth.NewInMemoryRevocationList()
		require.NoError(t, revocations.Revoke(context.Background(), uuid.NewString(), time.Hour))

		cfg := DefaultJWTConfig(jwtService)
		cfg.Revocations = revocations
		router := gin.New()
		router.Use(JWTAuthMiddlewareWithConfig(cfg))
		router.GET("/test", okHandler)

		rec := serve(router, "/test", "Bearer "+pair.AccessToken)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	jwtService := newTestJWTService()

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/api/v1/health", okHandler)
	router.POST("/api/v1/auth/login", okHandler)
	router.GET("/swagger/*any", okHandler)

	assert.Equal(t, http.StatusOK, serve(router, "/api/v1/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, "/swagger/index.html", "").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	jwtService := newTestJWTService()

	customErrorCalled := false
	cfg := DefaultJWTConfig(jwtService)
	cfg.OnError = func(c *gin.Context, err error) {
		customErrorCalled = true
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"custom": "error"})
	}

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", okHandler)

	rec := serve(router, "/test", "")

	assert.True(t, customErrorCalled)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetActor_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetActor(c)
	assert.False(t, ok)
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		actor    *identity.Actor
		expected int
	}{
		{"admin allowed", &identity.Actor{UserID: uuid.New(), Role: identity.RoleAdmin}, http.StatusOK},
		{"collector forbidden", &identity.Actor{UserID: uuid.New(), Role: identity.RoleCollector}, http.StatusForbidden},
		{"anonymous unauthorized", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tt.actor != nil {
					SetActor(c, *tt.actor)
				}
				c.Next()
			})
			router.GET("/admin", RequireRole(identity.RoleAdmin), okHandler)

			rec := serve(router, "/admin", "")
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}
