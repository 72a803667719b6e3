package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ticketFixture() []UiTicket {
	return []UiTicket{
		{ID: "t1", Status: StatusActive},
		{ID: "t2", Status: StatusUpcoming},
		{ID: "t3", Status: StatusPast},
		{ID: "t4", Status: StatusActive},
	}
}

func TestFilterTickets(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		wantIDs []string
	}{
		{"current keeps active", "current", []string{"t1", "t4"}},
		{"upcoming", "upcoming", []string{"t2"}},
		{"past", "past", []string{"t3"}},
		{"case insensitive", "Current", []string{"t1", "t4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTickets(ticketFixture(), tt.filter)
			ids := make([]string, 0, len(got))
			for _, tk := range got {
				ids = append(ids, tk.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFilterTickets_UnknownFilterPassesThrough(t *testing.T) {
	tickets := ticketFixture()
	assert.Equal(t, tickets, FilterTickets(tickets, ""))
	assert.Equal(t, tickets, FilterTickets(tickets, "everything"))
}

func TestFilterPurchases(t *testing.T) {
	purchases := []Purchase{
		{ID: "p1", Status: "confirmed"},
		{ID: "p2", Status: "pending"},
		{ID: "p3", Status: "cancelled"},
		{ID: "p4", Status: "confirmed"},
	}

	confirmed := FilterPurchases(purchases, "confirmed")
	assert.Len(t, confirmed, 2)

	pending := FilterPurchases(purchases, "pending")
	assert.Len(t, pending, 1)
	assert.Equal(t, "p2", pending[0].ID)

	assert.Equal(t, purchases, FilterPurchases(purchases, "all"))
	assert.Equal(t, purchases, FilterPurchases(purchases, ""))
}
