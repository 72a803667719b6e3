package aggregator

import (
	"strconv"
	"strings"
	"time"

	"github.com/dws-org/dws-frontend/internal/domain"
)

// mapEventToUi projects a raw event plus its sold count into the
// render-ready form, filling defaults for fields the backend omitted.
func mapEventToUi(e domain.Event, sold int, now time.Time) UiEvent {
	locationText := e.Location
	if locationText == "" {
		locationText = fallbackVenue
	}

	city := strings.TrimSpace(strings.SplitN(locationText, ",", 2)[0])
	if city == "" {
		city = fallbackCity
	}

	title := e.Name
	if title == "" {
		title = fallbackTitle
	}

	date := e.StartDate
	if date == "" {
		date = e.StartTime
	}
	if date == "" {
		date = now.Format(time.RFC3339)
	}

	image := e.ImageURL
	if image == "" {
		image = fallbackImage
	}

	tags := []string{}
	if e.Category != "" {
		tags = []string{e.Category}
	}

	if sold < 0 {
		sold = 0
	}
	available := e.Capacity - sold
	if available < 0 {
		available = 0
	}

	return UiEvent{
		ID:               e.ID,
		Title:            title,
		Date:             date,
		City:             city,
		Venue:            locationText,
		PriceFrom:        e.Price.Value,
		Image:            image,
		Tags:             tags,
		Badges:           tags,
		Description:      e.Description,
		Capacity:         e.Capacity,
		SoldTickets:      sold,
		AvailableTickets: available,
		Lineup:           []string{},
		Location:         GeoPoint{Address: locationText},
		FAQs:             []FAQ{},
	}
}

// mapTicketToUi joins a ticket with its resolved event. event may be nil
// when the secondary fetch failed or the event was deleted; the ticket
// still renders with fallback fields.
func mapTicketToUi(t domain.Ticket, event *domain.Event, now time.Time) UiTicket {
	title := fallbackTicketTitle(t.EventID)
	image := fallbackImage
	when := t.CreatedAt
	if event != nil {
		if event.Name != "" {
			title = event.Name
		}
		if event.ImageURL != "" {
			image = event.ImageURL
		}
		if start, ok := event.StartsAt(); ok {
			when = start
		}
	}

	seat := "1 Ticket"
	if t.Quantity != 1 {
		seat = strconv.Itoa(t.Quantity) + " Tickets"
	}

	return UiTicket{
		ID:         t.ID,
		EventID:    t.EventID,
		EventTitle: title,
		EventImage: image,
		Status:     temporalStatus(when, now),
		Seat:       seat,
		Date:       when.Format("02 Jan, 15:04"),
	}
}

// temporalStatus classifies an event time against now with the fixed
// lookahead window.
func temporalStatus(when, now time.Time) TemporalStatus {
	switch {
	case when.Before(now):
		return StatusPast
	case when.After(now.Add(upcomingLookahead)):
		return StatusUpcoming
	default:
		return StatusActive
	}
}

// fallbackTicketTitle labels a ticket whose event could not be resolved.
func fallbackTicketTitle(eventID string) string {
	prefix := eventID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "Event " + prefix
}
