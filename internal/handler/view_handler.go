package handler

import (
	"net/http"
	"sync"

	"github.com/dws-org/dws-frontend/internal/aggregator"
	"github.com/dws-org/dws-frontend/internal/client"
	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/internal/middleware"
	"github.com/dws-org/dws-frontend/pkg/logger"
	"github.com/dws-org/dws-frontend/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ViewHandler serves the render-ready view models. Each user session gets
// its own aggregator so ticket state never bleeds between users; anonymous
// requests share one. Aggregators live for the life of the process and keep
// their event cache warm across requests.
type ViewHandler struct {
	eventClient  client.EventClient
	ticketClient client.TicketClient
	log          *logger.Logger

	mu          sync.Mutex
	aggregators map[string]*aggregator.Aggregator
}

// NewViewHandler creates a view handler over the given service clients.
func NewViewHandler(eventClient client.EventClient, ticketClient client.TicketClient, log *logger.Logger) *ViewHandler {
	return &ViewHandler{
		eventClient:  eventClient,
		ticketClient: ticketClient,
		log:          log,
		aggregators:  make(map[string]*aggregator.Aggregator),
	}
}

// aggregatorFor returns the session's aggregator, creating it on first use.
func (h *ViewHandler) aggregatorFor(sess *identity.Session) *aggregator.Aggregator {
	key := ""
	if sess.Authenticated {
		key = sess.Subject
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	agg, ok := h.aggregators[key]
	if !ok {
		agg = aggregator.New(h.eventClient, h.ticketClient, h.log)
		h.aggregators[key] = agg
	}
	return agg
}

type homeView struct {
	Events       []aggregator.UiEvent  `json:"events"`
	EventsState  aggregator.QueryState `json:"eventsState"`
	Tickets      []aggregator.UiTicket `json:"tickets"`
	TicketsState aggregator.QueryState `json:"ticketsState"`
	Query        string                `json:"query"`
	TicketFilter string                `json:"ticketFilter"`
}

// Home serves the landing view: the searchable event catalogue plus, for
// authenticated callers, their tickets filtered by temporal bucket.
//
// GET /views/home?q=<search>&filter=<current|upcoming|past>
func (h *ViewHandler) Home(c *gin.Context) {
	sess := middleware.GetSession(c)
	agg := h.aggregatorFor(sess)
	ctx := c.Request.Context()

	if err := agg.LoadEvents(ctx); err != nil && err != aggregator.ErrSuperseded {
		h.log.Warn("event load failed, serving degraded home view", zap.Error(err))
	}

	if sess.Authenticated {
		if err := agg.LoadUserTickets(ctx, sess); err != nil && err != aggregator.ErrSuperseded {
			h.log.Warn("ticket load failed, serving degraded home view", zap.Error(err))
		}
	}

	snap := agg.Snapshot()
	q := c.Query("q")
	filter := c.Query("filter")

	view := homeView{
		Events:       aggregator.SearchEvents(snap.Events, q),
		EventsState:  snap.EventsState,
		Tickets:      aggregator.FilterTickets(snap.Tickets, filter),
		TicketsState: snap.TicketsState,
		Query:        q,
		TicketFilter: filter,
	}
	response.Success(c, view)
}

type detailView struct {
	Event *aggregator.UiEvent   `json:"event,omitempty"`
	State aggregator.QueryState `json:"state"`
}

// EventDetail serves one event's full view model.
//
// GET /views/events/:id
func (h *ViewHandler) EventDetail(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "event id is required")
		return
	}

	sess := middleware.GetSession(c)
	agg := h.aggregatorFor(sess)

	err := agg.LoadEventDetail(c.Request.Context(), id)
	if err == aggregator.ErrSuperseded {
		// A newer request owns the aggregator now; answer from whatever
		// it holds rather than hanging up without a body.
		snap := agg.Snapshot()
		response.Success(c, detailView{Event: snap.Detail, State: snap.DetailState})
		return
	}
	if client.IsNotFound(err) {
		response.NotFound(c, "event not found")
		return
	}

	snap := agg.Snapshot()
	if err != nil {
		h.log.Warn("event detail load failed", zap.String("event_id", id), zap.Error(err))
		response.Error(c, upstreamStatus(err), "UPSTREAM_ERROR", snap.DetailState.Error, "")
		return
	}
	response.Success(c, detailView{Event: snap.Detail, State: snap.DetailState})
}

type purchasesView struct {
	Purchases []aggregator.Purchase      `json:"purchases"`
	Summary   aggregator.PurchaseSummary `json:"summary"`
	Filter    string                     `json:"filter"`
}

// Purchases serves the purchase history derived from the caller's tickets.
//
// GET /views/purchases?filter=<all|confirmed|pending|cancelled>
func (h *ViewHandler) Purchases(c *gin.Context) {
	sess := middleware.GetSession(c)
	agg := h.aggregatorFor(sess)

	err := agg.LoadUserTickets(c.Request.Context(), sess)
	switch {
	case err == aggregator.ErrNotAuthenticated:
		response.Unauthorized(c, "authentication required")
		return
	case err == aggregator.ErrSuperseded:
		// Fall through and serve what the newer load produced.
	case err != nil:
		// The ticket list is the sole source of this view; without it
		// there is no history to show.
		h.log.Warn("ticket load failed for purchase history", zap.Error(err))
		response.Error(c, upstreamStatus(err), "UPSTREAM_ERROR", "failed to load purchase history", "")
		return
	}

	purchases, summary := agg.Purchases()
	filter := c.Query("filter")
	filtered := aggregator.FilterPurchases(purchases, filter)

	response.Success(c, purchasesView{Purchases: filtered, Summary: summary, Filter: filter})
}

// upstreamStatus maps an upstream error to the status the view layer
// returns: the upstream code when one exists, 500 for transport failures.
func upstreamStatus(err error) int {
	if status := client.StatusOf(err); status != 0 {
		return status
	}
	return http.StatusInternalServerError
}
