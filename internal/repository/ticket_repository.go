package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// Sort keys accepted by list/filter. Unknown keys fall back to reception time.
const (
	SortByReceptionDateTime       = "receptionDateTime"
	SortByScheduledCompletionDate = "scheduledCompletionDate"
	SortByCompletionDate          = "completionDate"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// sortColumns is the allow-list mapping sort keys to columns; caller input
// never reaches the query text directly.
var sortColumns = map[string]string{
	SortByReceptionDateTime:       "reception_date_time",
	SortByScheduledCompletionDate: "scheduled_completion_date",
	SortByCompletionDate:          "completion_date",
}

// TicketFilter captures list/filter parameters. Nil fields impose no
// constraint; present filters combine with AND.
type TicketFilter struct {
	PersonInChargeID *string
	AccountID        *string
	StatusID         *string
	ScheduledFrom    *time.Time
	ScheduledTo      *time.Time
	ShowCompleted    bool
	SearchQuery      *string
	SortBy           string
	SortOrder        string
	Limit            int
	Offset           int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	NextID(ctx context.Context) (string, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.TicketSummary, error)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

// NextID allocates a ticket identifier from the ticket sequence.
func (r *ticketRepository) NextID(ctx context.Context) (string, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('ticket_seq')`).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("TCK-%04d", n), nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (
            id, reception_date_time,
            requestor_id, requestor_name, account_id, account_name,
            category_id, category_name, category_detail_id, category_detail_name,
            request_channel_id, request_channel_name, summary, description,
            person_in_charge_id, person_in_charge_name, status_id, status_name,
            scheduled_completion_date, completion_date, actual_effort_hours,
            response_category_id, response_category_name, response_details,
            has_defect, external_ticket_id, remarks)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.ID,
		ticket.ReceptionDateTime,
		ticket.RequestorID,
		ticket.RequestorName,
		ticket.AccountID,
		ticket.AccountName,
		ticket.CategoryID,
		ticket.CategoryName,
		ticket.CategoryDetailID,
		ticket.CategoryDetailName,
		ticket.RequestChannelID,
		ticket.RequestChannelName,
		ticket.Summary,
		ticket.Description,
		ticket.PersonInChargeID,
		ticket.PersonInChargeName,
		ticket.StatusID,
		ticket.StatusName,
		ticket.ScheduledCompletionDate,
		ticket.CompletionDate,
		ticket.ActualEffortHours,
		ticket.ResponseCategoryID,
		ticket.ResponseCategoryName,
		ticket.ResponseDetails,
		ticket.HasDefect,
		ticket.ExternalTicketID,
		ticket.Remarks,
	).Scan(&ticket.UpdatedAt)
}

// Update writes every mutable column; the coalescing merge happens in the
// service before this call. id and reception_date_time are never touched.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET
            requestor_id=$1, requestor_name=$2, account_id=$3, account_name=$4,
            category_id=$5, category_name=$6, category_detail_id=$7, category_detail_name=$8,
            request_channel_id=$9, request_channel_name=$10, summary=$11, description=$12,
            person_in_charge_id=$13, person_in_charge_name=$14, status_id=$15, status_name=$16,
            scheduled_completion_date=$17, completion_date=$18, actual_effort_hours=$19,
            response_category_id=$20, response_category_name=$21, response_details=$22,
            has_defect=$23, external_ticket_id=$24, remarks=$25, updated_at=NOW()
        WHERE id=$26`
	cmd, err := r.db.Exec(ctx, query,
		ticket.RequestorID,
		ticket.RequestorName,
		ticket.AccountID,
		ticket.AccountName,
		ticket.CategoryID,
		ticket.CategoryName,
		ticket.CategoryDetailID,
		ticket.CategoryDetailName,
		ticket.RequestChannelID,
		ticket.RequestChannelName,
		ticket.Summary,
		ticket.Description,
		ticket.PersonInChargeID,
		ticket.PersonInChargeName,
		ticket.StatusID,
		ticket.StatusName,
		ticket.ScheduledCompletionDate,
		ticket.CompletionDate,
		ticket.ActualEffortHours,
		ticket.ResponseCategoryID,
		ticket.ResponseCategoryName,
		ticket.ResponseDetails,
		ticket.HasDefect,
		ticket.ExternalTicketID,
		ticket.Remarks,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, reception_date_time,
               requestor_id, requestor_name, account_id, account_name,
               category_id, category_name, category_detail_id, category_detail_name,
               request_channel_id, request_channel_name, summary, description,
               person_in_charge_id, person_in_charge_name, status_id, status_name,
               scheduled_completion_date, completion_date, actual_effort_hours,
               response_category_id, response_category_name, response_details,
               has_defect, external_ticket_id, remarks, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.ReceptionDateTime,
		&ticket.RequestorID,
		&ticket.RequestorName,
		&ticket.AccountID,
		&ticket.AccountName,
		&ticket.CategoryID,
		&ticket.CategoryName,
		&ticket.CategoryDetailID,
		&ticket.CategoryDetailName,
		&ticket.RequestChannelID,
		&ticket.RequestChannelName,
		&ticket.Summary,
		&ticket.Description,
		&ticket.PersonInChargeID,
		&ticket.PersonInChargeName,
		&ticket.StatusID,
		&ticket.StatusName,
		&ticket.ScheduledCompletionDate,
		&ticket.CompletionDate,
		&ticket.ActualEffortHours,
		&ticket.ResponseCategoryID,
		&ticket.ResponseCategoryName,
		&ticket.ResponseDetails,
		&ticket.HasDefect,
		&ticket.ExternalTicketID,
		&ticket.Remarks,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.TicketSummary, error) {
	query, args := buildListQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTicketSummaries(rows)
}

func buildListQuery(filter TicketFilter) (string, []any) {
	base := `SELECT id, reception_date_time, requestor_name, account_name, summary,
                    person_in_charge_name, status_id, status_name,
                    scheduled_completion_date, completion_date
             FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.PersonInChargeID != nil {
		args = append(args, *filter.PersonInChargeID)
		clauses = append(clauses, fmt.Sprintf("person_in_charge_id=$%d", len(args)))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		clauses = append(clauses, fmt.Sprintf("account_id=$%d", len(args)))
	}
	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("status_id=$%d", len(args)))
	}
	if filter.ScheduledFrom != nil {
		args = append(args, *filter.ScheduledFrom)
		clauses = append(clauses, fmt.Sprintf("scheduled_completion_date >= $%d", len(args)))
	}
	if filter.ScheduledTo != nil {
		args = append(args, *filter.ScheduledTo)
		clauses = append(clauses, fmt.Sprintf("scheduled_completion_date <= $%d", len(args)))
	}
	if !filter.ShowCompleted {
		args = append(args, domain.StatusIDCompleted)
		clauses = append(clauses, fmt.Sprintf("status_id <> $%d", len(args)))
	}
	if filter.SearchQuery != nil && strings.TrimSpace(*filter.SearchQuery) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchQuery)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(summary) LIKE %s OR LOWER(account_name) LIKE %s OR LOWER(requestor_name) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns[SortByReceptionDateTime]
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s %s NULLS LAST, id %s LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), column, direction, direction, limit, offset)
	return query, args
}

func scanTicketSummaries(rows pgx.Rows) ([]domain.TicketSummary, error) {
	var result []domain.TicketSummary
	for rows.Next() {
		var summary domain.TicketSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.ReceptionDateTime,
			&summary.RequestorName,
			&summary.AccountName,
			&summary.Summary,
			&summary.PersonInChargeName,
			&summary.StatusID,
			&summary.StatusName,
			&summary.ScheduledCompletionDate,
			&summary.CompletionDate,
		); err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}
