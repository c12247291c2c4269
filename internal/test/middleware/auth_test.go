package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventphoto-backend/internal/config"
	"eventphoto-backend/internal/middleware"
)

const testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func testToken(t *testing.T, sub string, isAdmin bool) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":      sub,
		"is_admin": isAdmin,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func echoViewer(c *gin.Context) {
	userID, isAdmin, ok := middleware.Viewer(c)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_admin": isAdmin, "authed": ok})
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", echoViewer)

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", echoViewer)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", echoViewer)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "7", false))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 7, "is_admin": false, "authed": true}`, w.Body.String())
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "a-different-secret-entirely-from-the-signer"}

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", echoViewer)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "7", false))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthMiddleware_AnonymousPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.Use(middleware.OptionalAuthMiddleware(cfg))
	router.GET("/test", echoViewer)

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 0, "is_admin": false, "authed": false}`, w.Body.String())
}

func TestOptionalAuthMiddleware_TokenIdentifiesViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.Use(middleware.OptionalAuthMiddleware(cfg))
	router.GET("/test", echoViewer)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "9", true))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 9, "is_admin": true, "authed": true}`, w.Body.String())
}

func TestAdminMiddleware_RejectsNonAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	router.GET("/test", echoViewer)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "7", false))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminMiddleware_AllowsAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	router.GET("/test", echoViewer)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, "1", true))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
