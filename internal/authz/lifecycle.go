package authz

import "github.com/spec-kit/core-crm/internal/domain"

// Explicit status changes. NEW is never a valid target: a closed ticket
// reopens to OPEN, it does not revert to NEW.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:    {domain.TicketStatusOpen, domain.TicketStatusClosed},
	domain.TicketStatusOpen:   {domain.TicketStatusClosed},
	domain.TicketStatusClosed: {domain.TicketStatusOpen},
}

// CanTransition reports whether an explicit status change from current
// to target is legal. Setting the current status again is treated as a
// harmless no-op by the caller, not as a transition.
func CanTransition(current, target domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// NextOnMessage returns the status a ticket moves to when sender posts a
// message. Only the first non-client reply moves NEW to OPEN; client
// messages never change status.
func NextOnMessage(current domain.TicketStatus, sender domain.Role) (domain.TicketStatus, bool) {
	if current == domain.TicketStatusNew && sender != domain.RoleClient {
		return domain.TicketStatusOpen, true
	}
	return current, false
}

// NextOnRead returns the status a ticket moves to when an agent or
// manager marks it read.
func NextOnRead(current domain.TicketStatus) (domain.TicketStatus, bool) {
	if current == domain.TicketStatusNew {
		return domain.TicketStatusOpen, true
	}
	return current, false
}
