package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventphoto-backend/internal/middleware"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/services"
)

type OrdersHandler struct {
	orders *services.OrderService
}

func NewOrdersHandler(orders *services.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// ListOrders godoc
// @Summary     List orders visible to the caller
// @Description Admins see every order, buyers only their own.
// @Tags        orders
// @Produce     json
// @Param       status query string false "Filter by order status"
// @Param       page   query int    false "Page number"
// @Param       limit  query int    false "Page size"
// @Success     200 {object} models.OrderListResponse
// @Security    BearerAuth
// @Router      /orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	page, limit := pagination(c)

	resp, err := h.orders.ListOrders(c.Request.Context(), viewer(c), c.Query("status"), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) GetOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.orders.GetOrder(c.Request.Context(), viewer(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChangeStatus godoc
// @Summary     Advance an order's status
// @Description Transitions are monotonic; a repeated or regressing status is
// @Description a no-op. Moving to APPROVED grants the payer access to every
// @Description item on the order.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       id      path string                          true "Order id"
// @Param       request body models.ChangeOrderStatusRequest true "Target status"
// @Success     200 {object} models.SuccessResponse
// @Failure     404 {object} models.ErrorResponse
// @Security    BearerAuth
// @Router      /orders/{id}/status [patch]
func (h *OrdersHandler) ChangeStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.ChangeOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if err := h.orders.ChangeStatus(c.Request.Context(), id, req.Status); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// SkipProcessing lets the payer of a paid order take the unretouched files
// immediately.
func (h *OrdersHandler) SkipProcessing(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID, _, ok := middleware.Viewer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	if err := h.orders.SkipProcessing(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
