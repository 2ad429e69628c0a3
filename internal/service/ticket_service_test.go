package service

import (
	"context"
	"testing"

	"github.com/spec-kit/core-crm/internal/domain"
	apperrors "github.com/spec-kit/core-crm/pkg/util/errorutil"
)

var (
	manager = &domain.User{ID: "m1", Role: domain.RoleManager, Email: "m@example.com", IsActive: true}
	agent   = &domain.User{ID: "a1", Role: domain.RoleAgent, Email: "a1@example.com", IsActive: true}
	agent2  = &domain.User{ID: "a2", Role: domain.RoleAgent, Email: "a2@example.com", IsActive: true}
	client  = &domain.User{ID: "c1", Role: domain.RoleClient, Email: "c1@example.com", IsActive: true}
	client2 = &domain.User{ID: "c2", Role: domain.RoleClient, Email: "c2@example.com", IsActive: true}
)

func newTicketService() (*TicketService, *fakeTicketRepo, *fakeMessageRepo) {
	tickets := newFakeTicketRepo()
	messages := newFakeMessageRepo(tickets)
	users := newFakeUserRepo(manager, agent, agent2, client, client2)
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		MessageRepo: messages,
		UserRepo:    users,
	})
	return svc, tickets, messages
}

func mustCreate(t *testing.T, svc *TicketService, actor *domain.User, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	ticket, err := svc.CreateTicket(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestCreateTicket(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "Billing issue", ClientID: client.ID})
	if ticket.Status != domain.TicketStatusNew || ticket.IsRead {
		t.Fatalf("new tickets must be NEW and unread, got %s read=%v", ticket.Status, ticket.IsRead)
	}

	if _, err := svc.CreateTicket(ctx, client, TicketCreateInput{Subject: "Mine", ClientID: client.ID}); err != nil {
		t.Fatalf("client should create for self: %v", err)
	}
	if _, err := svc.CreateTicket(ctx, client, TicketCreateInput{Subject: "Theirs", ClientID: client2.ID}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("client creating for another client: expected FORBIDDEN, got %v", err)
	}
	if _, err := svc.CreateTicket(ctx, agent, TicketCreateInput{Subject: "Nope", ClientID: client.ID}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("agent creating a ticket: expected FORBIDDEN, got %v", err)
	}
	if _, err := svc.CreateTicket(ctx, manager, TicketCreateInput{Subject: "   ", ClientID: client.ID}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("blank subject: expected VALIDATION_FAILED, got %v", err)
	}
	if _, err := svc.CreateTicket(ctx, manager, TicketCreateInput{Subject: "x", ClientID: agent.ID}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("non-client owner: expected VALIDATION_FAILED, got %v", err)
	}
	if _, err := svc.CreateTicket(ctx, manager, TicketCreateInput{Subject: "x", ClientID: client.ID, AssignedAgentID: &client2.ID}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("non-agent assignee: expected VALIDATION_FAILED, got %v", err)
	}
}

func TestListTicketsScoping(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	mine := mustCreate(t, svc, manager, TicketCreateInput{Subject: "assigned to a1", ClientID: client.ID, AssignedAgentID: &agent.ID})
	other := mustCreate(t, svc, manager, TicketCreateInput{Subject: "assigned to a2", ClientID: client2.ID, AssignedAgentID: &agent2.ID})
	unassigned := mustCreate(t, svc, manager, TicketCreateInput{Subject: "unassigned", ClientID: client2.ID})

	all, err := svc.ListTickets(ctx, manager, TicketListFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("manager should see all tickets, got %d err=%v", len(all), err)
	}

	agentList, err := svc.ListTickets(ctx, agent, TicketListFilter{})
	if err != nil {
		t.Fatalf("agent list: %v", err)
	}
	for _, tk := range agentList {
		if tk.ID == other.ID {
			t.Fatalf("agent must not see tickets assigned to another agent")
		}
	}
	if len(agentList) != 2 {
		t.Fatalf("agent should see own + unassigned, got %d", len(agentList))
	}

	clientList, err := svc.ListTickets(ctx, client, TicketListFilter{})
	if err != nil || len(clientList) != 1 || clientList[0].ID != mine.ID {
		t.Fatalf("client should see exactly own ticket, got %v err=%v", clientList, err)
	}

	// Status and unread filters intersect the scope.
	status := domain.TicketStatusClosed
	filtered, err := svc.ListTickets(ctx, manager, TicketListFilter{Status: &status})
	if err != nil || len(filtered) != 0 {
		t.Fatalf("no ticket is CLOSED yet, got %d err=%v", len(filtered), err)
	}
	if _, err := svc.MarkRead(ctx, manager, unassigned.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err := svc.ListTickets(ctx, manager, TicketListFilter{UnreadOnly: true})
	if err != nil || len(unread) != 2 {
		t.Fatalf("expected 2 unread tickets, got %d err=%v", len(unread), err)
	}
}

func TestGetTicketAccess(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "x", ClientID: client2.ID, AssignedAgentID: &agent2.ID})

	if _, err := svc.GetTicket(ctx, manager, "absent"); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("missing id: expected NOT_FOUND, got %v", err)
	}
	if _, err := svc.GetTicket(ctx, client, ticket.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("foreign client: expected FORBIDDEN, got %v", err)
	}
	if _, err := svc.GetTicket(ctx, agent, ticket.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("agent assigned elsewhere: expected FORBIDDEN, got %v", err)
	}
	got, err := svc.GetTicket(ctx, client2, ticket.ID)
	if err != nil || got.ID != ticket.ID {
		t.Fatalf("owner should read own ticket, got %v err=%v", got, err)
	}
	// Reads never flip the read flag; that is MarkRead's job.
	if got.IsRead {
		t.Fatalf("fetch must not mark the ticket read")
	}
}

func TestUpdateTicketStatus(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "x", ClientID: client.ID, AssignedAgentID: &agent.ID})

	closed := domain.TicketStatusClosed
	opened := domain.TicketStatusOpen
	newStatus := domain.TicketStatusNew

	// Assigned agent may close.
	updated, err := svc.UpdateTicket(ctx, agent, ticket.ID, TicketUpdateInput{Status: &closed})
	if err != nil || updated.Status != domain.TicketStatusClosed {
		t.Fatalf("assigned agent close failed: %v", err)
	}
	// Reopen goes to OPEN, never back to NEW.
	updated, err = svc.UpdateTicket(ctx, manager, ticket.ID, TicketUpdateInput{Status: &opened})
	if err != nil || updated.Status != domain.TicketStatusOpen {
		t.Fatalf("reopen failed: %v", err)
	}
	if _, err := svc.UpdateTicket(ctx, manager, ticket.ID, TicketUpdateInput{Status: &newStatus}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("NEW as target: expected VALIDATION_FAILED, got %v", err)
	}

	// Agent assigned to a different ticket is rejected.
	if _, err := svc.UpdateTicket(ctx, agent2, ticket.ID, TicketUpdateInput{Status: &closed}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("foreign agent status change: expected FORBIDDEN, got %v", err)
	}
	// Clients never change status, even on their own ticket.
	if _, err := svc.UpdateTicket(ctx, client, ticket.ID, TicketUpdateInput{Status: &closed}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("client status change: expected FORBIDDEN, got %v", err)
	}

	// Agent on an unassigned ticket may change status.
	loose := mustCreate(t, svc, manager, TicketCreateInput{Subject: "loose", ClientID: client.ID})
	if _, err := svc.UpdateTicket(ctx, agent2, loose.ID, TicketUpdateInput{Status: &closed}); err != nil {
		t.Fatalf("agent on unassigned ticket should change status: %v", err)
	}
}

func TestUpdateTicketStatusNoop(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "x", ClientID: client.ID})
	newStatus := ticket.Status

	updated, err := svc.UpdateTicket(ctx, manager, ticket.ID, TicketUpdateInput{Status: &newStatus})
	if err != nil {
		t.Fatalf("same-status update should be a no-op: %v", err)
	}
	if !updated.UpdatedAt.Equal(ticket.UpdatedAt) {
		t.Fatalf("no-op must not bump updatedAt: %v vs %v", updated.UpdatedAt, ticket.UpdatedAt)
	}
}

func TestUpdateTicketNoAccess(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "secret", ClientID: client.ID, AssignedAgentID: &agent.ID})
	sameStatus := ticket.Status

	// An update without access must not return the ticket, not even as
	// a no-op: an empty patch or a same-status patch would otherwise
	// hand a foreign actor the full record.
	for name, input := range map[string]TicketUpdateInput{
		"empty":       {},
		"same status": {Status: &sameStatus},
	} {
		if _, err := svc.UpdateTicket(ctx, client2, ticket.ID, input); !apperrors.IsCode(err, "FORBIDDEN") {
			t.Fatalf("%s update by foreign client: expected FORBIDDEN, got %v", name, err)
		}
		if _, err := svc.UpdateTicket(ctx, agent2, ticket.ID, input); !apperrors.IsCode(err, "FORBIDDEN") {
			t.Fatalf("%s update by foreign agent: expected FORBIDDEN, got %v", name, err)
		}
	}

	// The owning client still gets the no-op without a status change.
	if _, err := svc.UpdateTicket(ctx, client, ticket.ID, TicketUpdateInput{}); err != nil {
		t.Fatalf("empty update by owning client: %v", err)
	}
}

func TestReassignment(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "x", ClientID: client.ID, AssignedAgentID: &agent.ID})

	// Agents never reassign, not even the assignee on their own ticket.
	if _, err := svc.UpdateTicket(ctx, agent, ticket.ID, TicketUpdateInput{AssignedAgentID: &agent2.ID}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("assignee reassigning: expected FORBIDDEN, got %v", err)
	}
	if _, err := svc.UpdateTicket(ctx, client, ticket.ID, TicketUpdateInput{AssignedAgentID: &agent2.ID}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("client reassigning: expected FORBIDDEN, got %v", err)
	}

	updated, err := svc.UpdateTicket(ctx, manager, ticket.ID, TicketUpdateInput{AssignedAgentID: &agent2.ID})
	if err != nil || updated.AssignedAgentID == nil || *updated.AssignedAgentID != agent2.ID {
		t.Fatalf("manager reassignment failed: %v", err)
	}
	if _, err := svc.UpdateTicket(ctx, manager, ticket.ID, TicketUpdateInput{AssignedAgentID: &client.ID}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("assigning a non-agent: expected VALIDATION_FAILED, got %v", err)
	}
}

func TestMarkRead(t *testing.T) {
	svc, tickets, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "x", ClientID: client.ID})

	if _, err := svc.MarkRead(ctx, client, ticket.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("client mark-read: expected FORBIDDEN, got %v", err)
	}

	updated, err := svc.MarkRead(ctx, agent, ticket.ID)
	if err != nil {
		t.Fatalf("agent mark-read: %v", err)
	}
	if !updated.IsRead || updated.Status != domain.TicketStatusOpen {
		t.Fatalf("reading a NEW ticket should open it and flag it read, got %+v", updated)
	}

	stored, _ := tickets.GetByID(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusOpen || !stored.IsRead {
		t.Fatalf("mark-read not persisted: %+v", stored)
	}

	// Second read is idempotent.
	again, err := svc.MarkRead(ctx, agent, ticket.ID)
	if err != nil || again.Status != domain.TicketStatusOpen || !again.IsRead {
		t.Fatalf("repeat mark-read failed: %v", err)
	}
}

func TestAddMessageLifecycle(t *testing.T) {
	svc, tickets, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "x", ClientID: client.ID, AssignedAgentID: &agent.ID})

	// A client message never opens the ticket.
	if _, err := svc.AddMessage(ctx, client, ticket.ID, "help please", false); err != nil {
		t.Fatalf("client message: %v", err)
	}
	stored, _ := tickets.GetByID(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusNew {
		t.Fatalf("client message must not change status, got %s", stored.Status)
	}

	// The first agent reply opens it, exactly once.
	if _, err := svc.AddMessage(ctx, agent, ticket.ID, "On it", false); err != nil {
		t.Fatalf("agent message: %v", err)
	}
	stored, _ = tickets.GetByID(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusOpen {
		t.Fatalf("first agent reply should open the ticket, got %s", stored.Status)
	}
	after := stored.UpdatedAt
	if _, err := svc.AddMessage(ctx, agent, ticket.ID, "still on it", false); err != nil {
		t.Fatalf("second agent message: %v", err)
	}
	stored, _ = tickets.GetByID(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusOpen || !stored.UpdatedAt.Equal(after) {
		t.Fatalf("later replies must not re-transition, got %+v", stored)
	}
}

func TestAddMessageValidationAndAccess(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "x", ClientID: client.ID})

	if _, err := svc.AddMessage(ctx, client, ticket.ID, "   ", false); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("blank text: expected VALIDATION_FAILED, got %v", err)
	}
	if _, err := svc.AddMessage(ctx, client2, ticket.ID, "hi", false); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("foreign client message: expected FORBIDDEN, got %v", err)
	}
	if _, err := svc.AddMessage(ctx, client, "absent", "hi", false); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("missing ticket: expected NOT_FOUND, got %v", err)
	}
	// Internal notes from clients are always rejected.
	if _, err := svc.AddMessage(ctx, client, ticket.ID, "note to self", true); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("client internal note: expected FORBIDDEN, got %v", err)
	}
	if _, err := svc.AddMessage(ctx, manager, ticket.ID, "internal", true); err != nil {
		t.Fatalf("manager internal note: %v", err)
	}
}

func TestListMessagesVisibility(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, manager, TicketCreateInput{Subject: "x", ClientID: client.ID, AssignedAgentID: &agent.ID})

	if _, err := svc.AddMessage(ctx, client, ticket.ID, "first from client", false); err != nil {
		t.Fatalf("client message: %v", err)
	}
	if _, err := svc.AddMessage(ctx, agent, ticket.ID, "public reply", false); err != nil {
		t.Fatalf("agent message: %v", err)
	}
	if _, err := svc.AddMessage(ctx, agent, ticket.ID, "internal note", true); err != nil {
		t.Fatalf("agent note: %v", err)
	}

	clientView, err := svc.ListMessages(ctx, client, ticket.ID)
	if err != nil {
		t.Fatalf("client list: %v", err)
	}
	if len(clientView) != 2 {
		t.Fatalf("client should see 2 public messages, got %d", len(clientView))
	}
	for _, m := range clientView {
		if m.IsInternalNote {
			t.Fatalf("internal note leaked to client")
		}
	}

	staffView, err := svc.ListMessages(ctx, agent, ticket.ID)
	if err != nil || len(staffView) != 3 {
		t.Fatalf("agent should see all 3 messages, got %d err=%v", len(staffView), err)
	}
	for i := 1; i < len(staffView); i++ {
		if staffView[i].CreatedAt.Before(staffView[i-1].CreatedAt) {
			t.Fatalf("messages must be ordered ascending by createdAt")
		}
	}

	if _, err := svc.ListMessages(ctx, client2, ticket.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("foreign client listing: expected FORBIDDEN, got %v", err)
	}
}
