package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"eventphoto-backend/internal/config"
)

const (
	UserIDKey  = "user_id"
	IsAdminKey = "is_admin"
)

// AuthMiddleware requires a valid bearer token and stores the caller's
// identity on the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, isAdmin, err := parseBearer(c, cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(IsAdminKey, isAdmin)
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a token is present but
// lets anonymous requests through. Catalog browsing works logged out; the
// viewer identity only widens what gets disclosed.
func OptionalAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		userID, isAdmin, err := parseBearer(c, cfg)
		if err != nil {
			c.Next()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(IsAdminKey, isAdmin)
		c.Next()
	}
}

// AdminMiddleware runs after AuthMiddleware and rejects non-admin callers.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(IsAdminKey) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, cfg *config.Config) (int, bool, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return 0, false, fmt.Errorf("missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false, fmt.Errorf("invalid authorization header format")
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return 0, false, fmt.Errorf("empty token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, false, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, false, fmt.Errorf("missing sub claim")
	}

	userID, err := strconv.Atoi(sub)
	if err != nil {
		return 0, false, fmt.Errorf("invalid sub claim")
	}

	isAdmin, _ := claims[IsAdminKey].(bool)
	return userID, isAdmin, nil
}

// Viewer reads the identity AuthMiddleware (or OptionalAuthMiddleware)
// stored on the context. ok is false for anonymous requests.
func Viewer(c *gin.Context) (userID int, isAdmin bool, ok bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false, false
	}
	userID, ok = v.(int)
	if !ok {
		return 0, false, false
	}
	return userID, c.GetBool(IsAdminKey), true
}
