package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/pricing"
)

type SpeechesHandler struct {
	db      *postgres.Client
	pricing pricing.Policy
}

func NewSpeechesHandler(db *postgres.Client, policy pricing.Policy) *SpeechesHandler {
	return &SpeechesHandler{db: db, pricing: policy}
}

func (h *SpeechesHandler) ListSpeeches(c *gin.Context) {
	flowID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	page, limit := pagination(c)

	speeches, total, err := h.db.ListSpeeches(c.Request.Context(), flowID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]models.SpeechResponse, 0, len(speeches))
	for _, speech := range speeches {
		responses = append(responses, h.speechResponse(&speech))
	}
	c.JSON(http.StatusOK, models.SpeechListResponse{Speeches: responses, Total: total})
}

func (h *SpeechesHandler) GetSpeech(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	speech, err := h.db.GetSpeech(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.speechResponse(speech))
}

// CreateSpeech godoc
// @Summary     Create a speech within a flow
// @Tags        speeches
// @Accept      json
// @Produce     json
// @Param       request body models.CreateSpeechRequest true "Speech data"
// @Success     200 {object} models.SpeechResponse
// @Failure     400 {object} models.ErrorResponse
// @Security    BearerAuth
// @Router      /speeches [post]
func (h *SpeechesHandler) CreateSpeech(c *gin.Context) {
	var req models.CreateSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	flowID, err := uuid.Parse(req.FlowID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid flow_id"})
		return
	}

	speech := &models.Speech{
		ID:     uuid.New(),
		FlowID: flowID,
		Name:   req.Name,
	}
	if req.Price != nil {
		speech.Price = sql.NullInt64{Int64: int64(*req.Price), Valid: true}
	}

	created, err := h.db.CreateSpeech(c.Request.Context(), speech)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.speechResponse(created))
}

func (h *SpeechesHandler) UpdateSpeech(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	speech, err := h.db.UpdateSpeech(c.Request.Context(), id, req.Name, req.Price)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.speechResponse(speech))
}

func (h *SpeechesHandler) DeleteSpeech(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteSpeech(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// speechResponse renders the effective price: the stored one when present,
// otherwise the position-tier fallback.
func (h *SpeechesHandler) speechResponse(speech *models.Speech) models.SpeechResponse {
	var stored *int
	if speech.Price.Valid {
		price := int(speech.Price.Int64)
		stored = &price
	}
	return models.SpeechResponse{
		ID:     speech.ID.String(),
		FlowID: speech.FlowID.String(),
		Name:   speech.Name,
		Price:  h.pricing.SpeechPrice(stored, speech.Position),
	}
}
