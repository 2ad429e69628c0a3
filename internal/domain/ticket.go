package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew    TicketStatus = "NEW"
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// ParseTicketStatus validates a status value from the HTTP boundary.
func ParseTicketStatus(value string) (TicketStatus, bool) {
	switch TicketStatus(value) {
	case TicketStatusNew, TicketStatusOpen, TicketStatusClosed:
		return TicketStatus(value), true
	default:
		return "", false
	}
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	Subject         string
	Status          TicketStatus
	ClientID        string
	AssignedAgentID *string
	IsRead          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
