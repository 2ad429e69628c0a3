package events

import (
	"time"

	"github.com/spec-kit/core-crm/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketRead          EventType = "ticket_read"
	EventTicketMessageAdded  EventType = "ticket_message_added"
	EventRoleAssigned        EventType = "role_assigned"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ClientID        string  `json:"client_id"`
	AssignedAgentID *string `json:"assigned_agent_id,omitempty"`
	Subject         string  `json:"subject"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedAgentID *string `json:"assigned_agent_id,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID      string `json:"message_id"`
	SenderID       string `json:"sender_id"`
	IsInternalNote bool   `json:"is_internal_note"`
	TextPreview    string `json:"text_preview"`
}

// RoleAssignedPayload payload.
type RoleAssignedPayload struct {
	TargetUserID string      `json:"target_user_id"`
	NewRole      domain.Role `json:"new_role"`
}
