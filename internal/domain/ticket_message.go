package domain

import "time"

// TicketMessage captures communications in a ticket thread. Messages are
// append-only; there is no update or delete path.
type TicketMessage struct {
	ID             string
	TicketID       string
	SenderID       string
	Text           string
	IsInternalNote bool
	CreatedAt      time.Time
}
