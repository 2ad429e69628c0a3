// Package authz holds the role-based access policy for tickets. Every
// predicate is a pure function over the actor and the ticket so it can
// be exercised without a database or HTTP stack. All checks are
// deny-by-default: an unmatched role falls through to false.
package authz

import "github.com/spec-kit/core-crm/internal/domain"

// TicketScope describes the subset of tickets an actor may list.
// A nil scope with All=true means no restriction (manager).
type TicketScope struct {
	// All grants unrestricted visibility.
	All bool
	// ClientID restricts to tickets owned by this client.
	ClientID *string
	// AgentID restricts to tickets assigned to this agent or unassigned.
	AgentID *string
}

// ScopeFor returns the listing scope for the actor's role.
func ScopeFor(actor *domain.User) TicketScope {
	switch actor.Role {
	case domain.RoleManager:
		return TicketScope{All: true}
	case domain.RoleAgent:
		id := actor.ID
		return TicketScope{AgentID: &id}
	case domain.RoleClient:
		id := actor.ID
		return TicketScope{ClientID: &id}
	default:
		// Unknown role sees nothing: an impossible client id.
		empty := ""
		return TicketScope{ClientID: &empty}
	}
}

// CanReadTicket reports whether the actor may view the ticket at all.
// Agents may access tickets assigned to them or not assigned to anyone.
func CanReadTicket(actor *domain.User, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleManager:
		return true
	case domain.RoleAgent:
		return ticket.AssignedAgentID == nil || *ticket.AssignedAgentID == actor.ID
	case domain.RoleClient:
		return ticket.ClientID == actor.ID
	default:
		return false
	}
}

// CanCreateTicketFor reports whether the actor may open a ticket owned
// by clientID. Agents never create tickets.
func CanCreateTicketFor(actor *domain.User, clientID string) bool {
	switch actor.Role {
	case domain.RoleManager:
		return true
	case domain.RoleClient:
		return clientID == actor.ID
	default:
		return false
	}
}

// CanChangeStatus reports whether the actor may toggle the ticket's
// status. Clients never change status, not even on their own tickets.
func CanChangeStatus(actor *domain.User, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleManager:
		return true
	case domain.RoleAgent:
		return ticket.AssignedAgentID == nil || *ticket.AssignedAgentID == actor.ID
	default:
		return false
	}
}

// CanReassign reports whether the actor may change the assigned agent.
func CanReassign(actor *domain.User) bool {
	return actor.Role == domain.RoleManager
}

// CanPostMessage reports whether the actor may add a public reply.
func CanPostMessage(actor *domain.User, ticket *domain.Ticket) bool {
	return CanReadTicket(actor, ticket)
}

// CanPostInternalNote reports whether the actor may add an internal
// note. Clients are rejected even on their own tickets.
func CanPostInternalNote(actor *domain.User, ticket *domain.Ticket) bool {
	if actor.Role == domain.RoleClient {
		return false
	}
	return CanReadTicket(actor, ticket)
}

// CanViewInternalNotes reports whether internal notes are visible to
// the actor when listing messages.
func CanViewInternalNotes(actor *domain.User) bool {
	return actor.Role == domain.RoleAgent || actor.Role == domain.RoleManager
}

// CanMarkRead reports whether the actor may flag the ticket as read.
// The read flag is staff-facing; client views never touch it.
func CanMarkRead(actor *domain.User, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleManager:
		return true
	case domain.RoleAgent:
		return CanReadTicket(actor, ticket)
	default:
		return false
	}
}

// CanAssignRoles reports whether the actor may change another user's role.
func CanAssignRoles(actor *domain.User) bool {
	return actor.Role == domain.RoleManager
}
