package handler

import (
	"errors"
	"net/http"

	"github.com/dws-org/dws-frontend/internal/aggregator"
	"github.com/dws-org/dws-frontend/internal/client"
	"github.com/dws-org/dws-frontend/internal/domain"
	"github.com/dws-org/dws-frontend/internal/middleware"
	"github.com/dws-org/dws-frontend/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type manageView struct {
	Events []aggregator.ManagedEvent `json:"events"`
}

// ManagedEvents serves the organiser dashboard: every event with its
// confirmed sales count.
//
// GET /views/manage
func (h *ViewHandler) ManagedEvents(c *gin.Context) {
	sess := middleware.GetSession(c)
	agg := h.aggregatorFor(sess)

	events, err := agg.LoadManagedEvents(c.Request.Context(), sess)
	if err != nil {
		h.log.Error("managed events load failed", zap.Error(err))
		response.Error(c, upstreamStatus(err), "UPSTREAM_ERROR", "failed to load events", "")
		return
	}
	response.Success(c, manageView{Events: events})
}

// CreateEvent forwards an organiser's new event to the event service.
//
// POST /views/manage/events
func (h *ViewHandler) CreateEvent(c *gin.Context) {
	sess := middleware.GetSession(c)

	var req domain.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if valid, msg := req.Validate(); !valid {
		response.BadRequest(c, msg)
		return
	}

	event, err := h.eventClient.CreateEvent(c.Request.Context(), sess, &req)
	if err != nil {
		h.log.Error("event creation failed", zap.Error(err))
		status := upstreamStatus(err)
		if status == http.StatusBadRequest {
			// Relay the event service's own reason; it names the field
			// that failed validation.
			msg := "event service rejected the event"
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Message != "" {
				msg = apiErr.Message
			}
			response.BadRequest(c, msg)
			return
		}
		response.Error(c, status, "UPSTREAM_ERROR", "failed to create event", "")
		return
	}
	response.Created(c, event)
}
