package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventphoto-backend/internal/config"
	"eventphoto-backend/internal/middleware"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/services"
)

type PaymentsHandler struct {
	payments *services.PaymentService
	cfg      *config.Config
}

func NewPaymentsHandler(payments *services.PaymentService, cfg *config.Config) *PaymentsHandler {
	return &PaymentsHandler{payments: payments, cfg: cfg}
}

// gatewayCallback is the query shape Robokassa redirects with.
type gatewayCallback struct {
	InvID          string `form:"InvId" binding:"required"`
	OutSum         string `form:"OutSum"`
	SignatureValue string `form:"SignatureValue" binding:"required"`
	IsTest         string `form:"IsTest"`
	Culture        string `form:"Culture"`
}

// CreatePurchase godoc
// @Summary     Open a purchase and get the payment redirect URL
// @Tags        payments
// @Accept      json
// @Produce     json
// @Param       request body models.CreatePurchaseRequest true "Selected media and speeches"
// @Success     200 {object} models.PaymentLinkResponse
// @Failure     400 {object} models.ErrorResponse
// @Security    BearerAuth
// @Router      /payment [post]
func (h *PaymentsHandler) CreatePurchase(c *gin.Context) {
	userID, _, ok := middleware.Viewer(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "authentication required"})
		return
	}

	var req models.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	resp, err := h.payments.CreatePurchase(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaymentSuccess godoc
// @Summary     Gateway success callback
// @Description Robokassa redirects the buyer here after payment. The
// @Description signature is verified against the stored amount before the
// @Description ledger moves; a bad signature is answered with 502 and
// @Description changes nothing.
// @Tags        payments
// @Produce     json
// @Param       InvId          query string true "Invoice id"
// @Param       OutSum         query string true "Paid amount"
// @Param       SignatureValue query string true "Gateway signature"
// @Success     302
// @Failure     502 {object} models.ErrorResponse
// @Router      /payment/success [get]
func (h *PaymentsHandler) PaymentSuccess(c *gin.Context) {
	var cb gatewayCallback
	if err := c.ShouldBindQuery(&cb); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid callback", Message: err.Error()})
		return
	}

	if err := h.payments.Reconcile(c.Request.Context(), cb.InvID, cb.SignatureValue, true); err != nil {
		// The gateway is the caller here; a signature mismatch means its
		// redirect is not trustworthy.
		if errors.Is(err, services.ErrForbidden) {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "bad payment signature"})
			return
		}
		writeError(c, err)
		return
	}

	if h.cfg.SuccessRedirectURL != "" {
		c.Redirect(http.StatusFound, h.cfg.SuccessRedirectURL)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// PaymentFail records a failed payment. Duplicate or late callbacks for an
// already settled payment are no-ops.
func (h *PaymentsHandler) PaymentFail(c *gin.Context) {
	var cb gatewayCallback
	if err := c.ShouldBindQuery(&cb); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid callback", Message: err.Error()})
		return
	}

	if err := h.payments.Reconcile(c.Request.Context(), cb.InvID, cb.SignatureValue, false); err != nil {
		if errors.Is(err, services.ErrForbidden) {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "bad payment signature"})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
