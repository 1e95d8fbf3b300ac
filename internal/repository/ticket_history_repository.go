package repository

import (
	"context"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// TicketHistoryRepository stores audit entries and their changed-field rows.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db DB
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db DB) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

// Create inserts the entry plus one child row per changed field. Callers that
// need atomicity run this inside Store.InTx.
func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (id, ticket_id, entry_time, user_id, user_name, comment)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING entry_time`
	if err := r.db.QueryRow(ctx, query,
		history.ID,
		history.TicketID,
		history.EntryTime,
		history.UserID,
		history.UserName,
		history.Comment,
	).Scan(&history.EntryTime); err != nil {
		return err
	}

	const fieldQuery = `
        INSERT INTO history_changed_fields (history_id, field_name, old_value, new_value)
        VALUES ($1,$2,$3,$4)`
	for _, field := range history.ChangedFields {
		if _, err := r.db.Exec(ctx, fieldQuery,
			history.ID,
			field.FieldName,
			field.OldValue,
			field.NewValue,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListByTicket returns entries newest-first, each enriched with its changed
// fields.
func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, entry_time, user_id, user_name, comment
        FROM ticket_history WHERE ticket_id=$1 ORDER BY entry_time DESC, id DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.EntryTime,
			&history.UserID,
			&history.UserName,
			&history.Comment,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		fields, err := r.listChangedFields(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].ChangedFields = fields
	}
	return result, nil
}

func (r *ticketHistoryRepository) listChangedFields(ctx context.Context, historyID string) ([]domain.ChangedField, error) {
	const query = `
        SELECT field_name, old_value, new_value
        FROM history_changed_fields WHERE history_id=$1 ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query, historyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []domain.ChangedField
	for rows.Next() {
		var field domain.ChangedField
		if err := rows.Scan(&field.FieldName, &field.OldValue, &field.NewValue); err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}
