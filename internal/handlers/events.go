package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/services"
)

type EventsHandler struct {
	db        *postgres.Client
	importSvc *services.ImportService
}

func NewEventsHandler(db *postgres.Client, importSvc *services.ImportService) *EventsHandler {
	return &EventsHandler{db: db, importSvc: importSvc}
}

// ListEvents godoc
// @Summary     List events with cover photos
// @Tags        events
// @Produce     json
// @Param       page  query int false "Page number"
// @Param       limit query int false "Page size"
// @Success     200 {object} models.EventListResponse
// @Router      /events [get]
func (h *EventsHandler) ListEvents(c *gin.Context) {
	page, limit := pagination(c)

	events, total, err := h.db.ListEvents(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	summaries := make([]models.EventSummary, 0, len(events))
	for _, item := range events {
		summary := models.EventSummary{
			ID:    item.Event.ID.String(),
			Name:  item.Event.Name,
			Date:  item.Event.Date,
			Price: item.Event.Price,
		}
		if item.LastPhoto != nil {
			// Listings never disclose full versions, only the preview.
			photo := *item.LastPhoto
			photo.FullVersion = ""
			resp := services.MediaResponse(photo)
			summary.LastPhoto = &resp
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, models.EventListResponse{Events: summaries, Total: total})
}

func (h *EventsHandler) GetEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	event, err := h.db.GetEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventResponse(event))
}

// CreateEvent godoc
// @Summary     Create an event
// @Tags        events
// @Accept      json
// @Produce     json
// @Param       request body models.CreateEventRequest true "Event data"
// @Success     200 {object} models.EventResponse
// @Failure     400 {object} models.ErrorResponse
// @Security    BearerAuth
// @Router      /events [post]
func (h *EventsHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid date", Message: "date must be RFC3339"})
		return
	}

	event, err := h.db.CreateEvent(c.Request.Context(), &models.Event{
		ID:    uuid.New(),
		Name:  req.Name,
		Date:  date,
		Price: req.Price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventResponse(event))
}

func (h *EventsHandler) UpdateEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	var date *time.Time
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid date", Message: "date must be RFC3339"})
			return
		}
		date = &parsed
	}

	event, err := h.db.UpdateEvent(c.Request.Context(), id, req.Name, date, req.Price)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventResponse(event))
}

func (h *EventsHandler) DeleteEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteEvent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// ImportZip godoc
// @Summary     Import an event tree from a zip archive
// @Description Entry paths encode the hierarchy as event/flow/speech/member/photo
// @Tags        events
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "Zip archive"
// @Success     200 {object} services.ImportReport
// @Failure     400 {object} models.ErrorResponse
// @Security    BearerAuth
// @Router      /events/import [post]
func (h *EventsHandler) ImportZip(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
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

	report, err := h.importSvc.ProcessZip(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func eventResponse(event *models.Event) models.EventResponse {
	return models.EventResponse{
		ID:        event.ID.String(),
		Name:      event.Name,
		Date:      event.Date,
		Price:     event.Price,
		CreatedAt: event.CreatedAt,
	}
}
