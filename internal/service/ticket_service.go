package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/core-crm/internal/authz"
	"github.com/spec-kit/core-crm/internal/domain"
	"github.com/spec-kit/core-crm/internal/events"
	"github.com/spec-kit/core-crm/internal/repository"
	apperrors "github.com/spec-kit/core-crm/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows. Every operation checks
// policy before touching storage; denials surface as typed errors.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketListFilter describes optional listing filters. They narrow the
// actor's role scope and never widen it.
type TicketListFilter struct {
	Status     *domain.TicketStatus
	UnreadOnly bool
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject         string
	ClientID        string
	AssignedAgentID *string
}

// TicketUpdateInput describes the PATCH payload. Nil fields are left
// untouched.
type TicketUpdateInput struct {
	Status          *domain.TicketStatus
	AssignedAgentID *string
}

// ListTickets returns tickets within the actor's scope, newest first.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Scope:      authz.ScopeFor(actor),
		Status:     filter.Status,
		UnreadOnly: filter.UnreadOnly,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches one ticket. Absent ids yield NotFound; existing
// tickets outside the actor's scope yield Forbidden. Fetching never
// mutates; marking read is a distinct operation.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanReadTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// CreateTicket opens a ticket in state NEW for the given client.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject required", map[string]any{"field": "subject"})
	}
	if input.ClientID == "" {
		return nil, apperrors.NewValidationError("clientId required", map[string]any{"field": "clientId"})
	}
	if !authz.CanCreateTicketFor(actor, input.ClientID) {
		return nil, apperrors.NewForbidden("can only create tickets for yourself")
	}

	client, err := s.users.GetByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("client does not exist", map[string]any{"field": "clientId"})
		}
		return nil, apperrors.MapError(err)
	}
	if client.Role != domain.RoleClient {
		return nil, apperrors.NewValidationError("clientId must reference a CLIENT", map[string]any{"field": "clientId"})
	}

	if input.AssignedAgentID != nil {
		if !authz.CanReassign(actor) {
			return nil, apperrors.NewForbidden("only managers can assign agents")
		}
		if err := s.requireAgent(ctx, *input.AssignedAgentID); err != nil {
			return nil, err
		}
	}

	ticket := &domain.Ticket{
		Subject:         subject,
		Status:          domain.TicketStatusNew,
		ClientID:        input.ClientID,
		AssignedAgentID: input.AssignedAgentID,
		IsRead:          false,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketCreatedPayload{
			ClientID:        ticket.ClientID,
			AssignedAgentID: ticket.AssignedAgentID,
			Subject:         ticket.Subject,
		},
	})
	return ticket, nil
}

// UpdateTicket applies status and assignment changes per policy.
// Setting the current status again is accepted as a no-op and does not
// bump updatedAt.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanReadTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("no access to this ticket")
	}

	reassigned := false
	if input.AssignedAgentID != nil {
		if !authz.CanReassign(actor) {
			return nil, apperrors.NewForbidden("only managers can reassign tickets")
		}
		if err := s.requireAgent(ctx, *input.AssignedAgentID); err != nil {
			return nil, err
		}
		reassigned = true
	}

	var oldStatus domain.TicketStatus
	statusChanged := false
	if input.Status != nil && *input.Status != ticket.Status {
		if !authz.CanChangeStatus(actor, ticket) {
			return nil, apperrors.NewForbidden("cannot update ticket status")
		}
		if !authz.CanTransition(ticket.Status, *input.Status) {
			return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
				"from": ticket.Status,
				"to":   *input.Status,
			})
		}
		oldStatus = ticket.Status
		statusChanged = true
	}

	if !reassigned && !statusChanged {
		return ticket, nil
	}

	if reassigned {
		ticket.AssignedAgentID = input.AssignedAgentID
	}
	if statusChanged {
		ticket.Status = *input.Status
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if statusChanged {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    actorOf(actor),
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	if reassigned {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    actorOf(actor),
			Payload:  events.TicketAssignedPayload{AssignedAgentID: ticket.AssignedAgentID},
		})
	}
	return ticket, nil
}

// MarkRead flags the ticket as read for staff and opens NEW tickets.
func (s *TicketService) MarkRead(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMarkRead(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	next, transitioned := authz.NextOnRead(ticket.Status)
	if ticket.IsRead && !transitioned {
		return ticket, nil
	}
	ticket.IsRead = true
	ticket.Status = next
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketRead,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
	})
	return ticket, nil
}

// AddMessage appends a message to the thread. Posting the first
// non-client reply to a NEW ticket opens it atomically with the insert.
func (s *TicketService) AddMessage(ctx context.Context, actor *domain.User, ticketID, text string, isInternalNote bool) (*domain.TicketMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("text required", map[string]any{"field": "text"})
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanPostMessage(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if isInternalNote && !authz.CanPostInternalNote(actor, ticket) {
		return nil, apperrors.NewForbidden("clients cannot create internal notes")
	}

	msg := &domain.TicketMessage{
		TicketID:       ticket.ID,
		SenderID:       actor.ID,
		Text:           text,
		IsInternalNote: isInternalNote,
	}

	var newStatus *domain.TicketStatus
	if next, transitioned := authz.NextOnMessage(ticket.Status, actor.Role); transitioned {
		newStatus = &next
	}
	if err := s.messages.CreateWithStatus(ctx, msg, newStatus); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		Actor:    actorOf(actor),
		Payload: events.TicketMessageAddedPayload{
			MessageID:      msg.ID,
			SenderID:       msg.SenderID,
			IsInternalNote: msg.IsInternalNote,
			TextPreview:    stringPreview(msg.Text, 120),
		},
	})
	return msg, nil
}

// ListMessages returns the thread in chronological order. Internal
// notes are filtered out for clients.
func (s *TicketService) ListMessages(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketMessage, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanReadTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID, authz.CanViewInternalNotes(actor))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return msgs, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) requireAgent(ctx context.Context, agentID string) error {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("agent does not exist", map[string]any{"field": "assignedAgentId"})
		}
		return apperrors.MapError(err)
	}
	if agent.Role != domain.RoleAgent {
		return apperrors.NewValidationError("assignedAgentId must reference an AGENT", map[string]any{"field": "assignedAgentId"})
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOf(user *domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Role: user.Role}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
