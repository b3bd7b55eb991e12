package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/server/http/dto"
)

// PaymentHandler processes payment verification and the signal buffer.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler creates PaymentHandler instance.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Verify handles POST /api/payments/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	result, err := h.facade.VerifyPayment(c.Request.Context(), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidAmount):
			c.Status(http.StatusBadRequest)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, dto.VerifyResponse{
		Success:  true,
		Verified: result.Verified,
		Amount:   result.Amount,
	})
}

// RecordSignal handles POST /api/payments/signals.
func (h *PaymentHandler) RecordSignal(c *gin.Context) {
	var req dto.SignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	signal, err := h.facade.RecordSignal(c.Request.Context(), req.Sender, req.RawText, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidAmount):
			c.Status(http.StatusBadRequest)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, dto.SignalResponse{
		ID:         signal.ID,
		Sender:     signal.Sender,
		Amount:     signal.Amount,
		RawText:    signal.RawText,
		ReceivedAt: signal.ReceivedAt,
	})
}

// Signals handles GET /api/payments/signals.
func (h *PaymentHandler) Signals(c *gin.Context) {
	var expected float64
	if raw := c.Query("amount"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		expected = parsed
	}

	views, err := h.facade.Signals(c.Request.Context(), expected)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	resp := make([]dto.SignalResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, dto.SignalResponse{
			ID:         v.Signal.ID,
			Sender:     v.Signal.Sender,
			Amount:     v.Signal.Amount,
			RawText:    v.Signal.RawText,
			ReceivedAt: v.Signal.ReceivedAt,
			Matched:    v.Matched,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Confirm handles POST /api/orders/:id/confirm-payment.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	err := h.facade.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrAlreadyPaid):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}
	c.Status(http.StatusOK)
}
