package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/core-crm/internal/authz"
	"github.com/spec-kit/core-crm/internal/domain"
)

// TicketFilter captures listing parameters. Scope is applied first;
// status and unread narrow the scoped set, never widen it.
type TicketFilter struct {
	Scope      authz.TicketScope
	Status     *domain.TicketStatus
	UnreadOnly bool
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, subject, status, client_id, assigned_agent_id, is_read, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (subject, status, client_id, assigned_agent_id, is_read)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Status,
		ticket.ClientID,
		ticket.AssignedAgentID,
		ticket.IsRead,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Subject,
		&ticket.Status,
		&ticket.ClientID,
		&ticket.AssignedAgentID,
		&ticket.IsRead,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, assigned_agent_id=$2, is_read=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, query,
		ticket.Status,
		ticket.AssignedAgentID,
		ticket.IsRead,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return err
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.Scope.All {
		if filter.Scope.ClientID != nil {
			args = append(args, *filter.Scope.ClientID)
			clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
		}
		if filter.Scope.AgentID != nil {
			args = append(args, *filter.Scope.AgentID)
			clauses = append(clauses, fmt.Sprintf("(assigned_agent_id=$%d OR assigned_agent_id IS NULL)", len(args)))
		}
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.UnreadOnly {
		clauses = append(clauses, "is_read=FALSE")
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC`, base, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Subject,
			&ticket.Status,
			&ticket.ClientID,
			&ticket.AssignedAgentID,
			&ticket.IsRead,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
