package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dws-org/dws-frontend/internal/domain"
	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMyTickets_DropsMalformedRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tickets/my-tickets", r.URL.Path)
		w.Write([]byte(`[
			{"id": "t1", "event_id": "e1", "quantity": 1},
			{"id": "t2", "quantity": 2},
			{"event_id": "e3", "quantity": 1},
			{"id": "t4", "event_id": "e4", "quantity": 3}
		]`))
	}))
	defer srv.Close()

	c := NewTicketClient(srv.URL, 0, logger.Nop())
	tickets, err := c.ListMyTickets(context.Background(), &identity.Session{Token: "tok", Authenticated: true})

	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "t1", tickets[0].ID)
	assert.Equal(t, "t4", tickets[1].ID)
}

func TestListEventStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/event-stats", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[{"eventId": "e1", "ticketsSold": 42}]`))
	}))
	defer srv.Close()

	c := NewTicketClient(srv.URL, 0, logger.Nop())
	stats, err := c.ListEventStats(context.Background())

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "e1", stats[0].EventID)
	assert.Equal(t, 42, stats[0].TicketsSold)
}

func TestPurchaseTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/tickets/purchase", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req domain.PurchaseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "e1", req.EventID)
		assert.Equal(t, 2, req.Quantity)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "t1", "event_id": "e1", "quantity": 2, "status": "pending"}`))
	}))
	defer srv.Close()

	c := NewTicketClient(srv.URL, 0, logger.Nop())
	ticket, err := c.PurchaseTicket(context.Background(), &identity.Session{Token: "tok", Authenticated: true}, &domain.PurchaseRequest{
		EventID:    "e1",
		Quantity:   2,
		TotalPrice: 99.98,
	})

	require.NoError(t, err)
	assert.Equal(t, "t1", ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
}

func TestPurchaseTicket_ValidatesLocally(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := NewTicketClient(srv.URL, 0, logger.Nop())

	tests := []struct {
		name string
		req  *domain.PurchaseRequest
	}{
		{"missing event id", &domain.PurchaseRequest{Quantity: 1}},
		{"zero quantity", &domain.PurchaseRequest{EventID: "e1", Quantity: 0}},
		{"negative price", &domain.PurchaseRequest{EventID: "e1", Quantity: 1, TotalPrice: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.PurchaseTicket(context.Background(), nil, tt.req)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		})
	}
	assert.Zero(t, hits)
}

func TestPurchaseTicket_UpstreamConflictPropagates(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "sold out"}`))
	}))
	defer srv.Close()

	c := NewTicketClient(srv.URL, 0, logger.Nop())
	_, err := c.PurchaseTicket(context.Background(), nil, &domain.PurchaseRequest{EventID: "e1", Quantity: 1})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "sold out", apiErr.Message)
	// One attempt only: purchases are never retried.
	assert.Equal(t, 1, hits)
}
