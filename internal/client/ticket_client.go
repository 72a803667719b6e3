package client

import (
	"context"
	"net/http"
	"time"

	"github.com/dws-org/dws-frontend/internal/domain"
	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/pkg/logger"
)

// TicketClient is the typed surface of the external ticket service.
type TicketClient interface {
	// ListMyTickets returns the session user's tickets.
	ListMyTickets(ctx context.Context, sess *identity.Session) ([]domain.Ticket, error)
	// ListAllTickets returns every ticket. Requires an organiser/admin token.
	ListAllTickets(ctx context.Context, sess *identity.Session) ([]domain.Ticket, error)
	// ListEventStats returns the sold-ticket aggregate per event.
	ListEventStats(ctx context.Context) ([]domain.EventStat, error)
	// PurchaseTicket buys tickets. Not idempotent: never retried.
	PurchaseTicket(ctx context.Context, sess *identity.Session, req *domain.PurchaseRequest) (*domain.Ticket, error)
}

// HTTPTicketClient talks to the ticket service over HTTP.
type HTTPTicketClient struct {
	base
}

// NewTicketClient creates a ticket service client.
func NewTicketClient(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPTicketClient {
	return &HTTPTicketClient{base: newBase(baseURL, timeout, log)}
}

func (c *HTTPTicketClient) ListMyTickets(ctx context.Context, sess *identity.Session) ([]domain.Ticket, error) {
	var raw []domain.Ticket
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/tickets/my-tickets", sess, nil, &raw); err != nil {
		return nil, err
	}
	return c.dropMalformed(raw), nil
}

func (c *HTTPTicketClient) ListAllTickets(ctx context.Context, sess *identity.Session) ([]domain.Ticket, error) {
	var raw []domain.Ticket
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/tickets", sess, nil, &raw); err != nil {
		return nil, err
	}
	return c.dropMalformed(raw), nil
}

func (c *HTTPTicketClient) ListEventStats(ctx context.Context) ([]domain.EventStat, error) {
	var stats []domain.EventStat
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/event-stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *HTTPTicketClient) PurchaseTicket(ctx context.Context, sess *identity.Session, req *domain.PurchaseRequest) (*domain.Ticket, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, &APIError{StatusCode: http.StatusBadRequest, Message: msg}
	}

	var ticket domain.Ticket
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/tickets/purchase", sess, req, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (c *HTTPTicketClient) dropMalformed(raw []domain.Ticket) []domain.Ticket {
	tickets := make([]domain.Ticket, 0, len(raw))
	for _, t := range raw {
		if t.ID == "" || t.EventID == "" {
			c.warnQuarantined("ticket", "missing id or event_id")
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets
}
