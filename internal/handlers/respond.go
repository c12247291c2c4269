package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventphoto-backend/internal/entitlement"
	"eventphoto-backend/internal/middleware"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/services"
)

// writeError maps service errors onto HTTP status codes. Anything not
// carrying a known sentinel is a 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, postgres.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found", Message: err.Error()})
	case errors.Is(err, services.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "forbidden", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error", Message: err.Error()})
	}
}

// pathUUID parses a uuid path parameter, responding 400 itself on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads page/limit query parameters with sane bounds.
func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// viewer builds the entitlement viewer from the request context, nil for
// anonymous requests.
func viewer(c *gin.Context) *entitlement.Viewer {
	userID, isAdmin, ok := middleware.Viewer(c)
	if !ok {
		return nil
	}
	return &entitlement.Viewer{UserID: userID, IsAdmin: isAdmin}
}
