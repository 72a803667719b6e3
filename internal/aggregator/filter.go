package aggregator

import "strings"

// Ticket list filters.
const (
	TicketFilterCurrent  = "current"
	TicketFilterUpcoming = "upcoming"
	TicketFilterPast     = "past"
)

// FilterTickets narrows tickets by temporal bucket. "current" keeps tickets
// whose event is active, "upcoming" and "past" map to their statuses, and
// anything else returns the input unchanged.
func FilterTickets(tickets []UiTicket, filter string) []UiTicket {
	var want TemporalStatus
	switch strings.ToLower(filter) {
	case TicketFilterCurrent:
		want = StatusActive
	case TicketFilterUpcoming:
		want = StatusUpcoming
	case TicketFilterPast:
		want = StatusPast
	default:
		return tickets
	}

	matched := make([]UiTicket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == want {
			matched = append(matched, t)
		}
	}
	return matched
}

// FilterPurchases narrows purchase rows by payment status: "confirmed",
// "pending", or "cancelled". "all" or an unknown value returns the input
// unchanged.
func FilterPurchases(purchases []Purchase, filter string) []Purchase {
	filter = strings.ToLower(filter)
	switch filter {
	case "confirmed", "pending", "cancelled":
	default:
		return purchases
	}

	matched := make([]Purchase, 0, len(purchases))
	for _, p := range purchases {
		if p.Status == filter {
			matched = append(matched, p)
		}
	}
	return matched
}
