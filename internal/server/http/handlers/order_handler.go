package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
	"github.com/quickserve/dispatch/internal/server/http/dto"
	"github.com/quickserve/dispatch/internal/usecase"
)

// OrderHandler processes order creation, listing, and transitions.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler creates OrderHandler instance.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order := req.ToDomain()
	if err := h.facade.CreateOrder(c.Request.Context(), order); err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidAmount):
			c.Status(http.StatusBadRequest)
		case errors.Is(err, domainErrors.ErrAlreadyExists):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, dto.NewOrderResponse(order))
}

// Active handles GET /api/orders/active.
func (h *OrderHandler) Active(c *gin.Context) {
	scope := repository.OrderScope{Date: c.Query("date")}
	if CurrentRole(c) == pkgAuth.RoleRider {
		scope.RiderID = CurrentActorID(c)
	}

	orders, err := h.facade.ActiveOrders(c.Request.Context(), scope)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	resp := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, dto.NewOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Transition handles POST /api/orders/:id/status.
func (h *OrderHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	transition := usecase.TransitionRequest{
		OrderID:      c.Param("id"),
		To:           model.OrderStatus(req.Status),
		ProofImageID: req.ProofImageID,
		SlipImageID:  req.SlipImageID,
	}
	if CurrentRole(c) == pkgAuth.RoleRider {
		riderID := CurrentActorID(c)
		transition.RiderID = &riderID
	}

	order, err := h.facade.TransitionOrder(c.Request.Context(), transition)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrInvalidTransition):
			c.Status(http.StatusUnprocessableEntity)
		case errors.Is(err, domainErrors.ErrConflict):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}
