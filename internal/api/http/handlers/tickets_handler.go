package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/core-crm/internal/api/dto"
	"github.com/spec-kit/core-crm/internal/auth"
	"github.com/spec-kit/core-crm/internal/domain"
	"github.com/spec-kit/core-crm/internal/service"
	apperrors "github.com/spec-kit/core-crm/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets?status=&unread=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	filter := service.TicketListFilter{}
	if raw := c.Query("status"); raw != "" {
		status, valid := domain.ParseTicketStatus(strings.ToUpper(raw))
		if !valid {
			return apperrors.NewValidationError("invalid status filter", map[string]any{"field": "status", "value": raw})
		}
		filter.Status = &status
	}
	if c.Query("unread") == "true" {
		filter.UnreadOnly = true
	}

	tickets, err := h.service.ListTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(items)
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	ticket, err := h.service.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		Subject:         req.Subject,
		ClientID:        req.ClientID,
		AssignedAgentID: req.AssignedAgentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ticketResponse(ticket))
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{AssignedAgentID: req.AssignedAgentID}
	if req.Status != nil {
		status, valid := domain.ParseTicketStatus(strings.ToUpper(*req.Status))
		if !valid {
			return apperrors.NewValidationError("invalid status", map[string]any{"field": "status", "value": *req.Status})
		}
		input.Status = &status
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// MarkRead PATCH /api/tickets/:id/read.
func (h *TicketsHandler) MarkRead(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	ticket, err := h.service.MarkRead(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// AddMessage POST /api/tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.service.AddMessage(c.UserContext(), actor, c.Params("id"), req.Text, req.IsInternalNote)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(messageResponse(msg))
}

// ListMessages GET /api/tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	msgs, err := h.service.ListMessages(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketMessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, messageResponse(&msgs[i]))
	}
	return c.JSON(items)
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:              ticket.ID,
		Subject:         ticket.Subject,
		Status:          ticket.Status,
		ClientID:        ticket.ClientID,
		AssignedAgentID: ticket.AssignedAgentID,
		IsRead:          ticket.IsRead,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

func messageResponse(msg *domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:             msg.ID,
		TicketID:       msg.TicketID,
		SenderID:       msg.SenderID,
		Text:           msg.Text,
		IsInternalNote: msg.IsInternalNote,
		CreatedAt:      msg.CreatedAt,
	}
}
