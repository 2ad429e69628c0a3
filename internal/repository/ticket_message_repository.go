package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/core-crm/internal/domain"
)

// TicketMessageRepository persists ticket thread messages.
type TicketMessageRepository interface {
	// CreateWithStatus inserts the message and, when newStatus is
	// non-nil, moves the ticket to that status in the same transaction.
	// A partial write (message without the status flip) cannot occur.
	CreateWithStatus(ctx context.Context, msg *domain.TicketMessage, newStatus *domain.TicketStatus) error
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository instantiates the repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) CreateWithStatus(ctx context.Context, msg *domain.TicketMessage, newStatus *domain.TicketStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO ticket_messages (ticket_id, sender_id, text, is_internal_note)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		msg.TicketID,
		msg.SenderID,
		msg.Text,
		msg.IsInternalNote,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return err
	}

	if newStatus != nil {
		const update = `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`
		cmd, err := tx.Exec(ctx, update, *newStatus, msg.TicketID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
	}

	return tx.Commit(ctx)
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error) {
	query := `
        SELECT id, ticket_id, sender_id, text, is_internal_note, created_at
        FROM ticket_messages WHERE ticket_id=$1`
	if !includeInternal {
		query += ` AND is_internal_note=FALSE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketMessage{}
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.SenderID,
			&msg.Text,
			&msg.IsInternalNote,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
