package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// referenceTables is the allow-list of master-data tables reachable from
// LookupName; reference kinds never reach the query text directly.
var referenceTables = map[domain.ReferenceKind]string{
	domain.ReferenceUser:             "users",
	domain.ReferenceAccount:          "accounts",
	domain.ReferenceCategory:         "categories",
	domain.ReferenceCategoryDetail:   "category_details",
	domain.ReferenceRequestChannel:   "request_channels",
	domain.ReferenceStatus:           "statuses",
	domain.ReferenceResponseCategory: "response_categories",
}

// ReferenceRepository reads the master-data tables. They are read-only from the
// service's perspective.
type ReferenceRepository interface {
	ListUsers(ctx context.Context) ([]domain.Reference, error)
	ListAccounts(ctx context.Context) ([]domain.Reference, error)
	ListCategories(ctx context.Context) ([]domain.Reference, error)
	ListCategoryDetails(ctx context.Context, categoryID *string) ([]domain.CategoryDetail, error)
	ListStatuses(ctx context.Context) ([]domain.Reference, error)
	ListRequestChannels(ctx context.Context) ([]domain.Reference, error)
	ListResponseCategories(ctx context.Context) ([]domain.ResponseCategory, error)
	ListAttachments(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	// LookupName returns the current display name of a reference row. The
	// second return reports whether the row exists; a missing row is not an
	// error here, the caller decides whether it is fatal.
	LookupName(ctx context.Context, kind domain.ReferenceKind, id string) (string, bool, error)
}

type referenceRepository struct {
	db DB
}

// NewReferenceRepository builds repository.
func NewReferenceRepository(db DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) ListUsers(ctx context.Context) ([]domain.Reference, error) {
	return r.listReference(ctx, "users")
}

func (r *referenceRepository) ListAccounts(ctx context.Context) ([]domain.Reference, error) {
	return r.listReference(ctx, "accounts")
}

func (r *referenceRepository) ListCategories(ctx context.Context) ([]domain.Reference, error) {
	return r.listReference(ctx, "categories")
}

func (r *referenceRepository) ListStatuses(ctx context.Context) ([]domain.Reference, error) {
	return r.listReference(ctx, "statuses")
}

func (r *referenceRepository) ListRequestChannels(ctx context.Context) ([]domain.Reference, error) {
	return r.listReference(ctx, "request_channels")
}

func (r *referenceRepository) listReference(ctx context.Context, table string) ([]domain.Reference, error) {
	query := fmt.Sprintf(`SELECT id, name, order_no FROM %s ORDER BY order_no ASC, name ASC`, table)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reference
	for rows.Next() {
		var ref domain.Reference
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.OrderNo); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}

func (r *referenceRepository) ListCategoryDetails(ctx context.Context, categoryID *string) ([]domain.CategoryDetail, error) {
	query := `SELECT id, name, category_id, order_no FROM category_details`
	args := []any{}
	if categoryID != nil {
		query += ` WHERE category_id=$1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY order_no ASC, name ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CategoryDetail
	for rows.Next() {
		var detail domain.CategoryDetail
		if err := rows.Scan(&detail.ID, &detail.Name, &detail.CategoryID, &detail.OrderNo); err != nil {
			return nil, err
		}
		result = append(result, detail)
	}
	return result, rows.Err()
}

func (r *referenceRepository) ListResponseCategories(ctx context.Context) ([]domain.ResponseCategory, error) {
	const query = `
        SELECT id, name, parent_category, order_no
        FROM response_categories ORDER BY order_no ASC, name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ResponseCategory
	for rows.Next() {
		var cat domain.ResponseCategory
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.ParentCategory, &cat.OrderNo); err != nil {
			return nil, err
		}
		result = append(result, cat)
	}
	return result, rows.Err()
}

func (r *referenceRepository) ListAttachments(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, file_name, order_no
        FROM attachments WHERE ticket_id=$1 ORDER BY order_no ASC, file_name ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.ID, &att.TicketID, &att.FileName, &att.OrderNo); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}

func (r *referenceRepository) LookupName(ctx context.Context, kind domain.ReferenceKind, id string) (string, bool, error) {
	table, ok := referenceTables[kind]
	if !ok {
		return "", false, fmt.Errorf("unknown reference kind: %s", kind)
	}
	query := fmt.Sprintf(`SELECT name FROM %s WHERE id=$1`, table)
	var name string
	if err := r.db.QueryRow(ctx, query, id).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return name, true, nil
}
