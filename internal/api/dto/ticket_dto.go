package dto

import (
	"time"

	"github.com/spec-kit/core-crm/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject         string  `json:"subject"`
	ClientID        string  `json:"clientId"`
	AssignedAgentID *string `json:"assignedAgentId"`
}

// UpdateTicketRequest payload for PATCH /tickets/:id. Absent fields are
// left untouched.
type UpdateTicketRequest struct {
	Status          *string `json:"status"`
	AssignedAgentID *string `json:"assignedAgentId"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Text           string `json:"text"`
	IsInternalNote bool   `json:"isInternalNote"`
}

// TicketResponse mirrors the stored ticket.
type TicketResponse struct {
	ID              string              `json:"id"`
	Subject         string              `json:"subject"`
	Status          domain.TicketStatus `json:"status"`
	ClientID        string              `json:"clientId"`
	AssignedAgentID *string             `json:"assignedAgentId"`
	IsRead          bool                `json:"isRead"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// TicketMessageResponse represents a thread message.
type TicketMessageResponse struct {
	ID             string    `json:"id"`
	TicketID       string    `json:"ticketId"`
	SenderID       string    `json:"senderId"`
	Text           string    `json:"text"`
	IsInternalNote bool      `json:"isInternalNote"`
	CreatedAt      time.Time `json:"createdAt"`
}
