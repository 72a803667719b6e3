package aggregator

import "time"

// Default fill-ins for optional event fields the backends omit.
const (
	fallbackVenue = "Location to be announced"
	fallbackCity  = "Location follows"
	fallbackTitle = "Unnamed event"
	fallbackImage = "/placeholder.svg"
)

// upcomingLookahead separates Active from Upcoming tickets: events starting
// within the window count as Active.
const upcomingLookahead = 7 * 24 * time.Hour

// TemporalStatus classifies a ticket by its event's start time.
type TemporalStatus string

const (
	StatusActive   TemporalStatus = "Active"
	StatusUpcoming TemporalStatus = "Upcoming"
	StatusPast     TemporalStatus = "Past"
)

// GeoPoint is a map location for the detail view.
type GeoPoint struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// FAQ is a question/answer pair shown on the detail view.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// UiEvent is the read-only, render-ready projection of an Event joined with
// its sold-ticket count. AvailableTickets is never negative and never
// exceeds Capacity.
type UiEvent struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Date             string   `json:"date"`
	City             string   `json:"city"`
	Venue            string   `json:"venue"`
	PriceFrom        float64  `json:"priceFrom"`
	Image            string   `json:"image"`
	Tags             []string `json:"tags"`
	Badges           []string `json:"badges"`
	Description      string   `json:"description,omitempty"`
	Capacity         int      `json:"capacity"`
	SoldTickets      int      `json:"soldTickets"`
	AvailableTickets int      `json:"availableTickets"`
	Lineup           []string `json:"lineup"`
	Location         GeoPoint `json:"location"`
	FAQs             []FAQ    `json:"faqs"`
}

// UiTicket is a ticket joined with its resolved event. When the event
// cannot be resolved the ticket still renders, with a fallback title built
// from the event id prefix and a status derived from the purchase time.
type UiTicket struct {
	ID         string         `json:"id"`
	EventID    string         `json:"eventId"`
	EventTitle string         `json:"eventTitle"`
	EventImage string         `json:"eventImage"`
	Status     TemporalStatus `json:"status"`
	Seat       string         `json:"seat"`
	Date       string         `json:"date"`
}

// Purchase is one row of the purchase history view.
type Purchase struct {
	ID            string  `json:"id"`
	EventTitle    string  `json:"eventTitle"`
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
}

// PurchaseSummary aggregates the purchase history for the summary cards.
type PurchaseSummary struct {
	TotalSpent   float64 `json:"totalSpent"`
	Count        int     `json:"count"`
	AverageSpent float64 `json:"averageSpent"`
}

// ManagedEvent is an organiser-facing event row with live sales counts.
type ManagedEvent struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Date         string  `json:"date"`
	Location     string  `json:"location"`
	Image        string  `json:"image"`
	Price        float64 `json:"price"`
	TicketsSold  int     `json:"ticketsSold"`
	TotalTickets int     `json:"totalTickets"`
}
