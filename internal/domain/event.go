package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Event is a raw record from the event service. Optional fields may be
// empty depending on how old the record is; the aggregator fills defaults.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   string    `json:"startDate,omitempty"`
	StartTime   string    `json:"startTime,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	Location    string    `json:"location,omitempty"`
	Price       FlexPrice `json:"price,omitempty"`
	Capacity    int       `json:"capacity,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Category    string    `json:"category,omitempty"`
	OrganizerID string    `json:"organizerId,omitempty"`
	CreatedAt   string    `json:"createdAt,omitempty"`
	UpdatedAt   string    `json:"updatedAt,omitempty"`
}

// StartsAt returns the event start as a time, preferring StartDate over
// StartTime, matching how the backends populate the two fields. ok is false
// when neither parses.
func (e *Event) StartsAt() (time.Time, bool) {
	for _, raw := range []string{e.StartDate, e.StartTime} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EventStat is the sold-ticket aggregate from the ticket service. Derived,
// not authoritative; may lag behind live ticket records.
type EventStat struct {
	EventID     string `json:"eventId"`
	TicketsSold int    `json:"ticketsSold"`
}

// FlexPrice is a non-negative price that the backends serialize
// inconsistently: sometimes a JSON number, sometimes a quoted decimal.
// Non-numeric values decode to zero with Invalid set, so the service-client
// boundary can log and move on instead of rejecting the whole record.
type FlexPrice struct {
	Value   float64
	Invalid bool
}

func (p *FlexPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			p.Invalid = true
			return nil
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		p.Invalid = true
		return nil
	}
	p.Value = f
	return nil
}

func (p FlexPrice) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Value)
}
