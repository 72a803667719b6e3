package domain

import "time"

// TicketStatus is the purchase lifecycle state assigned by the ticket
// service. Transitions run pending -> confirmed or pending -> cancelled,
// never backward.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusConfirmed TicketStatus = "confirmed"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// Ticket is a raw record from the ticket service. EventID is a foreign
// reference that is not enforced: the event may since have been deleted.
type Ticket struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	EventID    string       `json:"event_id"`
	Quantity   int          `json:"quantity"`
	TotalPrice float64      `json:"total_price"`
	Status     TicketStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// PurchaseRequest is the payload for buying tickets. Purchases are not
// idempotent and must never be retried automatically.
type PurchaseRequest struct {
	EventID    string  `json:"event_id"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
}

// Validate checks the purchase payload before it is sent upstream.
func (r *PurchaseRequest) Validate() (bool, string) {
	if r.EventID == "" {
		return false, "event_id is required"
	}
	if r.Quantity < 1 {
		return false, "quantity must be at least 1"
	}
	if r.TotalPrice < 0 {
		return false, "total_price cannot be negative"
	}
	return true, ""
}

// CreateEventRequest is the payload for creating an event, forwarded to the
// event service.
type CreateEventRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	StartDate   string  `json:"startDate"`
	StartTime   string  `json:"startTime,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	Capacity    int     `json:"capacity"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Category    string  `json:"category,omitempty"`
	OrganizerID string  `json:"organizerId,omitempty"`
}

// Validate checks the create payload before it is sent upstream.
func (r *CreateEventRequest) Validate() (bool, string) {
	if r.Name == "" {
		return false, "name is required"
	}
	if r.Capacity < 0 {
		return false, "capacity cannot be negative"
	}
	if r.Price < 0 {
		return false, "price cannot be negative"
	}
	return true, ""
}
