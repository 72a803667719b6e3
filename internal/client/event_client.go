package client

import (
	"context"
	"net/http"
	"time"

	"github.com/dws-org/dws-frontend/internal/domain"
	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/pkg/logger"
	"go.uber.org/zap"
)

// EventClient is the typed surface of the external event service.
type EventClient interface {
	// ListEvents returns the full event collection. Reads are idempotent.
	ListEvents(ctx context.Context, sess *identity.Session) ([]domain.Event, error)
	// GetEvent returns one event by id, or an APIError with status 404.
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	// CreateEvent creates an event. Requires an authenticated session.
	CreateEvent(ctx context.Context, sess *identity.Session, req *domain.CreateEventRequest) (*domain.Event, error)
}

// HTTPEventClient talks to the event service over HTTP.
type HTTPEventClient struct {
	base
}

// NewEventClient creates an event service client.
func NewEventClient(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPEventClient {
	return &HTTPEventClient{base: newBase(baseURL, timeout, log)}
}

func (c *HTTPEventClient) ListEvents(ctx context.Context, sess *identity.Session) ([]domain.Event, error) {
	var raw []domain.Event
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/events", sess, nil, &raw); err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(raw))
	for _, e := range raw {
		if e.ID == "" {
			c.warnQuarantined("event", "missing id")
			continue
		}
		if e.Price.Invalid {
			c.log.Warn("event has non-numeric price, treating as 0", zap.String("event_id", e.ID))
		}
		events = append(events, e)
	}
	return events, nil
}

func (c *HTTPEventClient) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	var event domain.Event
	if err := c.doJSON(ctx, http.MethodGet, "/api/events/"+id, nil, nil, &event); err != nil {
		return nil, err
	}
	if event.ID == "" {
		c.warnQuarantined("event", "missing id")
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "event record is malformed"}
	}
	if event.Price.Invalid {
		c.log.Warn("event has non-numeric price, treating as 0", zap.String("event_id", event.ID))
	}
	return &event, nil
}

func (c *HTTPEventClient) CreateEvent(ctx context.Context, sess *identity.Session, req *domain.CreateEventRequest) (*domain.Event, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, &APIError{StatusCode: http.StatusBadRequest, Message: msg}
	}

	var created domain.Event
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/events", sess, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
