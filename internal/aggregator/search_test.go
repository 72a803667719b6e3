package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func searchFixture() []UiEvent {
	return []UiEvent{
		{ID: "1", Title: "Wacken Open Air", City: "Wacken", Venue: "Wacken, Festival Ground", Tags: []string{"metal"}, Badges: []string{"metal"}},
		{ID: "2", Title: "Jazz Nights", City: "Hamburg", Venue: "Hamburg, Elbphilharmonie", Tags: []string{"jazz"}, Badges: []string{"jazz"}},
		{ID: "3", Title: "Techno Bunker", City: "Berlin", Venue: "Berlin, Tresor", Tags: []string{"techno"}, Badges: []string{"club"}},
	}
}

func TestSearchEvents(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"matches title", "wacken", []string{"1"}},
		{"matches city", "berlin", []string{"3"}},
		{"matches venue", "elbphilharmonie", []string{"2"}},
		{"matches tag", "jazz", []string{"2"}},
		{"matches badge", "club", []string{"3"}},
		{"case insensitive", "JAZZ", []string{"2"}},
		{"substring", "ack", []string{"1"}},
		{"whitespace trimmed", "  techno  ", []string{"3"}},
		{"no match", "opera", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SearchEvents(searchFixture(), tt.query)
			ids := make([]string, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSearchEvents_BlankQueryReturnsAll(t *testing.T) {
	events := searchFixture()

	for _, q := range []string{"", "   ", "\t"} {
		got := SearchEvents(events, q)
		assert.Len(t, got, len(events))
	}
}

func TestSearchEvents_Idempotent(t *testing.T) {
	events := searchFixture()

	once := SearchEvents(events, "metal")
	twice := SearchEvents(once, "metal")

	assert.Equal(t, once, twice)
}

func TestSearchEvents_DoesNotMutateInput(t *testing.T) {
	events := searchFixture()
	before := make([]UiEvent, len(events))
	copy(before, events)

	SearchEvents(events, "jazz")

	assert.Equal(t, before, events)
}
