package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/services"
)

type MediaHandler struct {
	media *services.MediaService
}

func NewMediaHandler(media *services.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// AddMedia godoc
// @Summary     Upload a photo for a member
// @Description Stores the original privately and a watermarked preview
// @Description publicly; the photo takes the last position in the member's
// @Description sequence.
// @Tags        media
// @Accept      multipart/form-data
// @Produce     json
// @Param       id   path     string true "Member id"
// @Param       file formData file   true "Photo"
// @Success     200 {object} models.MediaResponse
// @Failure     400 {object} models.ErrorResponse
// @Security    BearerAuth
// @Router      /members/{id}/media [post]
func (h *MediaHandler) AddMedia(c *gin.Context) {
	memberID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing file", Message: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
		return
	}

	media, err := h.media.AddMedia(c.Request.Context(), memberID, header.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.MediaResponse(*media))
}

// UpdateMedia godoc
// @Summary     Move a photo to a new position and optionally reprice it
// @Description Positions between the old and new slot shift by one; the
// @Description member's sequence stays dense.
// @Tags        media
// @Accept      json
// @Produce     json
// @Param       id      path string                    true "Media id"
// @Param       request body models.UpdateMediaRequest true "New position and price"
// @Success     200 {object} models.MediaResponse
// @Failure     400 {object} models.ErrorResponse
// @Security    BearerAuth
// @Router      /media/{id} [patch]
func (h *MediaHandler) UpdateMedia(c *gin.Context) {
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	media, err := h.media.UpdateMedia(c.Request.Context(), mediaID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.MediaResponse(*media))
}

func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	mediaID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.media.DeleteMedia(c.Request.Context(), mediaID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// UploadProcessed godoc
// @Summary     Upload the retouched version of a purchased photo
// @Tags        media
// @Accept      multipart/form-data
// @Produce     json
// @Param       id      path     string true "Order id"
// @Param       mediaId path     string true "Media id"
// @Param       file    formData file   true "Retouched photo"
// @Success     200 {object} models.SuccessResponse
// @Failure     400 {object} models.ErrorResponse
// @Security    BearerAuth
// @Router      /orders/{id}/media/{mediaId}/processed [post]
func (h *MediaHandler) UploadProcessed(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	mediaID, ok := pathUUID(c, "mediaId")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing file", Message: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
		return
	}

	if _, err := h.media.UploadProcessedMedia(c.Request.Context(), orderID, mediaID, header.Filename, data); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
