package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
)

type FlowsHandler struct {
	db *postgres.Client
}

func NewFlowsHandler(db *postgres.Client) *FlowsHandler {
	return &FlowsHandler{db: db}
}

func (h *FlowsHandler) ListFlows(c *gin.Context) {
	eventID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	page, limit := pagination(c)

	flows, total, err := h.db.ListFlows(c.Request.Context(), eventID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]models.FlowResponse, 0, len(flows))
	for _, flow := range flows {
		responses = append(responses, flowResponse(&flow))
	}
	c.JSON(http.StatusOK, models.FlowListResponse{Flows: responses, Total: total})
}

func (h *FlowsHandler) GetFlow(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	flow, err := h.db.GetFlow(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flowResponse(flow))
}

// CreateFlow godoc
// @Summary     Create a flow within an event
// @Tags        flows
// @Accept      json
// @Produce     json
// @Param       request body models.CreateFlowRequest true "Flow data"
// @Success     200 {object} models.FlowResponse
// @Failure     400 {object} models.ErrorResponse
// @Security    BearerAuth
// @Router      /flows [post]
func (h *FlowsHandler) CreateFlow(c *gin.Context) {
	var req models.CreateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid event_id"})
		return
	}

	from, err := time.Parse(time.RFC3339, req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid from", Message: "from must be RFC3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid to", Message: "to must be RFC3339"})
		return
	}

	flow, err := h.db.CreateFlow(c.Request.Context(), &models.Flow{
		ID:      uuid.New(),
		EventID: eventID,
		Name:    req.Name,
		From:    from,
		To:      to,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flowResponse(flow))
}

func (h *FlowsHandler) DeleteFlow(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteFlow(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func flowResponse(flow *models.Flow) models.FlowResponse {
	return models.FlowResponse{
		ID:      flow.ID.String(),
		EventID: flow.EventID.String(),
		Name:    flow.Name,
		From:    flow.From,
		To:      flow.To,
	}
}
