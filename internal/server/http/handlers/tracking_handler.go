package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/server/http/dto"
)

// TrackingHandler processes rider location pushes and dispatcher readbacks.
type TrackingHandler struct {
	facade TrackingFacade
}

// NewTrackingHandler creates TrackingHandler instance.
func NewTrackingHandler(facade TrackingFacade) *TrackingHandler {
	return &TrackingHandler{facade: facade}
}

// Push handles POST /api/orders/:id/location. Pushes arriving after the
// order left the rider's backlog are still recorded.
func (h *TrackingHandler) Push(c *gin.Context) {
	var req dto.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var at time.Time
	if req.RecordedAt != nil {
		at = *req.RecordedAt
	}

	err := h.facade.PushPosition(c.Request.Context(), CurrentActorID(c), c.Param("id"), req.Lat, req.Lng, at)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidCoordinates):
			c.Status(http.StatusBadRequest)
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusAccepted)
}

// Last handles GET /api/orders/:id/location.
func (h *TrackingHandler) Last(c *gin.Context) {
	pos, err := h.facade.LastPosition(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, dto.PositionResponse{
		OrderID:    pos.OrderID,
		RiderID:    pos.RiderID,
		Lat:        pos.Lat,
		Lng:        pos.Lng,
		RecordedAt: pos.RecordedAt,
	})
}
