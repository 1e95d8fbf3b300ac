package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	return &TicketService{store: store, dispatcher: dispatcher, logger: logger}
}

// TicketCreateInput describes ticket creation payload. The service resolves
// every reference name itself; callers never supply names.
type TicketCreateInput struct {
	ReceptionDateTime       *time.Time
	RequestorID             string
	AccountID               string
	CategoryID              string
	CategoryDetailID        string
	RequestChannelID        string
	Summary                 string
	Description             string
	PersonInChargeID        string
	StatusID                string
	ScheduledCompletionDate *time.Time
	CompletionDate          *time.Time
	ActualEffortHours       *float64
	ResponseCategoryID      *string
	ResponseDetails         *string
	HasDefect               bool
	ExternalTicketID        *string
	Remarks                 *string
}

// HistoryNote asks for an audit entry to be written alongside an update.
type HistoryNote struct {
	UserID  string
	Comment string
}

// TicketUpdateInput is a partial payload: nil fields keep the prior value.
type TicketUpdateInput struct {
	RequestorID             *string
	AccountID               *string
	CategoryID              *string
	CategoryDetailID        *string
	RequestChannelID        *string
	Summary                 *string
	Description             *string
	PersonInChargeID        *string
	StatusID                *string
	ScheduledCompletionDate *time.Time
	CompletionDate          *time.Time
	ActualEffortHours       *float64
	ResponseCategoryID      *string
	ResponseDetails         *string
	HasDefect               *bool
	ExternalTicketID        *string
	Remarks                 *string
	History                 *HistoryNote
}

// HistoryEntryInput describes a standalone audit entry.
type HistoryEntryInput struct {
	TicketID      string
	UserID        string
	UserName      string
	Comment       string
	ChangedFields []domain.ChangedField
}

// List returns the denormalized summary projection for matching tickets.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.TicketSummary, error) {
	summaries, err := s.store.Tickets().ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []domain.TicketSummary{}
	}
	return summaries, nil
}

// Get fetches the full ticket projection.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// Create allocates an id from the ticket sequence, snapshots reference names
// and inserts the row, all in one transaction.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (string, error) {
	if err := validateCreate(input); err != nil {
		return "", err
	}

	var id string
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		refs := tx.References()

		requestorName, err := resolveRequired(ctx, refs, domain.ReferenceUser, input.RequestorID, "requestorId")
		if err != nil {
			return err
		}
		accountName, err := resolveRequired(ctx, refs, domain.ReferenceAccount, input.AccountID, "accountId")
		if err != nil {
			return err
		}
		categoryName, err := resolveRequired(ctx, refs, domain.ReferenceCategory, input.CategoryID, "categoryId")
		if err != nil {
			return err
		}
		categoryDetailName, err := resolveRequired(ctx, refs, domain.ReferenceCategoryDetail, input.CategoryDetailID, "categoryDetailId")
		if err != nil {
			return err
		}
		requestChannelName, err := resolveRequired(ctx, refs, domain.ReferenceRequestChannel, input.RequestChannelID, "requestChannelId")
		if err != nil {
			return err
		}
		personInChargeName, err := resolveRequired(ctx, refs, domain.ReferenceUser, input.PersonInChargeID, "personInChargeId")
		if err != nil {
			return err
		}
		statusName, err := resolveRequired(ctx, refs, domain.ReferenceStatus, input.StatusID, "statusId")
		if err != nil {
			return err
		}
		responseCategoryName, err := resolveOptional(ctx, refs, domain.ReferenceResponseCategory, input.ResponseCategoryID)
		if err != nil {
			return err
		}

		id, err = tx.Tickets().NextID(ctx)
		if err != nil {
			return err
		}

		reception := time.Now()
		if input.ReceptionDateTime != nil {
			reception = *input.ReceptionDateTime
		}

		ticket := &domain.Ticket{
			ID:                      id,
			ReceptionDateTime:       reception,
			RequestorID:             input.RequestorID,
			RequestorName:           requestorName,
			AccountID:               input.AccountID,
			AccountName:             accountName,
			CategoryID:              input.CategoryID,
			CategoryName:            categoryName,
			CategoryDetailID:        input.CategoryDetailID,
			CategoryDetailName:      categoryDetailName,
			RequestChannelID:        input.RequestChannelID,
			RequestChannelName:      requestChannelName,
			Summary:                 strings.TrimSpace(input.Summary),
			Description:             strings.TrimSpace(input.Description),
			PersonInChargeID:        input.PersonInChargeID,
			PersonInChargeName:      personInChargeName,
			StatusID:                input.StatusID,
			StatusName:              statusName,
			ScheduledCompletionDate: input.ScheduledCompletionDate,
			CompletionDate:          input.CompletionDate,
			ActualEffortHours:       input.ActualEffortHours,
			ResponseCategoryID:      input.ResponseCategoryID,
			ResponseCategoryName:    responseCategoryName,
			ResponseDetails:         input.ResponseDetails,
			HasDefect:               input.HasDefect,
			ExternalTicketID:        input.ExternalTicketID,
			Remarks:                 input.Remarks,
		}
		return tx.Tickets().Create(ctx, ticket)
	})
	if err != nil {
		return "", err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: id,
		Payload: events.TicketCreatedPayload{
			StatusID:         input.StatusID,
			PersonInChargeID: input.PersonInChargeID,
			Summary:          strings.TrimSpace(input.Summary),
		},
	})
	return id, nil
}

// Update applies a coalescing partial update: supplied fields replace prior
// values, absent fields are retained, and updated_at always moves forward.
// When the payload carries a history note, the audit entry is written in the
// same transaction as the update.
func (s *TicketService) Update(ctx context.Context, id string, input TicketUpdateInput) (string, error) {
	var changed []string
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Tickets().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket", map[string]any{"id": id})
			}
			return err
		}
		before := *existing

		if err := s.mergeUpdate(ctx, tx.References(), existing, input); err != nil {
			return err
		}

		if err := tx.Tickets().Update(ctx, existing); err != nil {
			return err
		}

		fields := diffTickets(&before, existing)
		for _, field := range fields {
			changed = append(changed, field.FieldName)
		}

		if input.History != nil {
			userName, err := resolveRequired(ctx, tx.References(), domain.ReferenceUser, input.History.UserID, "history.userId")
			if err != nil {
				return err
			}
			entry := &domain.TicketHistory{
				ID:            uuid.NewString(),
				TicketID:      id,
				EntryTime:     time.Now(),
				UserID:        input.History.UserID,
				UserName:      userName,
				Comment:       input.History.Comment,
				ChangedFields: fields,
			}
			if err := tx.History().Create(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: id,
		Payload:  events.TicketUpdatedPayload{ChangedFields: changed},
	})
	return id, nil
}

// AddHistoryEntry appends an immutable audit entry with optional changed-field
// detail rows.
func (s *TicketService) AddHistoryEntry(ctx context.Context, input HistoryEntryInput) (*domain.TicketHistory, error) {
	if input.UserID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}

	entry := &domain.TicketHistory{
		ID:            uuid.NewString(),
		TicketID:      input.TicketID,
		EntryTime:     time.Now(),
		UserID:        input.UserID,
		UserName:      input.UserName,
		Comment:       input.Comment,
		ChangedFields: input.ChangedFields,
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Tickets().GetByID(ctx, input.TicketID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket", map[string]any{"id": input.TicketID})
			}
			return err
		}
		if entry.UserName == "" {
			userName, err := resolveRequired(ctx, tx.References(), domain.ReferenceUser, input.UserID, "userId")
			if err != nil {
				return err
			}
			entry.UserName = userName
		}
		return tx.History().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketHistoryAdded,
		TicketID: input.TicketID,
		Payload: events.TicketHistoryAddedPayload{
			HistoryID: entry.ID,
			UserID:    entry.UserID,
			Comment:   entry.Comment,
		},
	})
	return entry, nil
}

// GetHistory returns audit entries newest-first with their changed fields.
func (s *TicketService) GetHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.Get(ctx, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.store.History().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.TicketHistory{}
	}
	return entries, nil
}

// ListAttachments returns attachment metadata for a ticket.
func (s *TicketService) ListAttachments(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	if _, err := s.Get(ctx, ticketID); err != nil {
		return nil, err
	}
	attachments, err := s.store.References().ListAttachments(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return attachments, nil
}

// mergeUpdate folds the partial payload into the loaded ticket, re-resolving
// a reference name for every foreign key present in the payload.
func (s *TicketService) mergeUpdate(ctx context.Context, refs repository.ReferenceRepository, ticket *domain.Ticket, input TicketUpdateInput) error {
	if input.RequestorID != nil {
		name, err := resolveRequired(ctx, refs, domain.ReferenceUser, *input.RequestorID, "requestorId")
		if err != nil {
			return err
		}
		ticket.RequestorID = *input.RequestorID
		ticket.RequestorName = name
	}
	if input.AccountID != nil {
		name, err := resolveRequired(ctx, refs, domain.ReferenceAccount, *input.AccountID, "accountId")
		if err != nil {
			return err
		}
		ticket.AccountID = *input.AccountID
		ticket.AccountName = name
	}
	if input.CategoryID != nil {
		name, err := resolveRequired(ctx, refs, domain.ReferenceCategory, *input.CategoryID, "categoryId")
		if err != nil {
			return err
		}
		ticket.CategoryID = *input.CategoryID
		ticket.CategoryName = name
	}
	if input.CategoryDetailID != nil {
		name, err := resolveRequired(ctx, refs, domain.ReferenceCategoryDetail, *input.CategoryDetailID, "categoryDetailId")
		if err != nil {
			return err
		}
		ticket.CategoryDetailID = *input.CategoryDetailID
		ticket.CategoryDetailName = name
	}
	if input.RequestChannelID != nil {
		name, err := resolveRequired(ctx, refs, domain.ReferenceRequestChannel, *input.RequestChannelID, "requestChannelId")
		if err != nil {
			return err
		}
		ticket.RequestChannelID = *input.RequestChannelID
		ticket.RequestChannelName = name
	}
	if input.PersonInChargeID != nil {
		name, err := resolveRequired(ctx, refs, domain.ReferenceUser, *input.PersonInChargeID, "personInChargeId")
		if err != nil {
			return err
		}
		ticket.PersonInChargeID = *input.PersonInChargeID
		ticket.PersonInChargeName = name
	}
	if input.StatusID != nil {
		name, err := resolveRequired(ctx, refs, domain.ReferenceStatus, *input.StatusID, "statusId")
		if err != nil {
			return err
		}
		ticket.StatusID = *input.StatusID
		ticket.StatusName = name
	}
	if input.ResponseCategoryID != nil {
		name, err := resolveOptional(ctx, refs, domain.ReferenceResponseCategory, input.ResponseCategoryID)
		if err != nil {
			return err
		}
		ticket.ResponseCategoryID = input.ResponseCategoryID
		ticket.ResponseCategoryName = name
	}
	if input.Summary != nil {
		ticket.Summary = strings.TrimSpace(*input.Summary)
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.ScheduledCompletionDate != nil {
		ticket.ScheduledCompletionDate = input.ScheduledCompletionDate
	}
	if input.CompletionDate != nil {
		ticket.CompletionDate = input.CompletionDate
	}
	if input.ActualEffortHours != nil {
		ticket.ActualEffortHours = input.ActualEffortHours
	}
	if input.ResponseDetails != nil {
		ticket.ResponseDetails = input.ResponseDetails
	}
	if input.HasDefect != nil {
		ticket.HasDefect = *input.HasDefect
	}
	if input.ExternalTicketID != nil {
		ticket.ExternalTicketID = input.ExternalTicketID
	}
	if input.Remarks != nil {
		ticket.Remarks = input.Remarks
	}
	return nil
}

func validateCreate(input TicketCreateInput) error {
	missing := []string{}
	required := []struct {
		field string
		value string
	}{
		{"requestorId", input.RequestorID},
		{"accountId", input.AccountID},
		{"categoryId", input.CategoryID},
		{"categoryDetailId", input.CategoryDetailID},
		{"requestChannelId", input.RequestChannelID},
		{"personInChargeId", input.PersonInChargeID},
		{"statusId", input.StatusID},
		{"summary", strings.TrimSpace(input.Summary)},
	}
	for _, req := range required {
		if req.value == "" {
			missing = append(missing, req.field)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	return nil
}

// resolveRequired looks up the display name of a required reference; a missing
// row fails the whole operation.
func resolveRequired(ctx context.Context, refs repository.ReferenceRepository, kind domain.ReferenceKind, id, field string) (string, error) {
	name, found, err := refs.LookupName(ctx, kind, id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", apperrors.NewValidationError(field+" does not resolve to a known reference",
			map[string]any{"field": field, "id": id})
	}
	return name, nil
}

// resolveOptional looks up the display name of an optional reference; a
// missing row yields a nil name, not an error.
func resolveOptional(ctx context.Context, refs repository.ReferenceRepository, kind domain.ReferenceKind, id *string) (*string, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	name, found, err := refs.LookupName(ctx, kind, *id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &name, nil
}

// diffTickets string-serializes the field transitions between two snapshots.
func diffTickets(before, after *domain.Ticket) []domain.ChangedField {
	var fields []domain.ChangedField
	appendDiff := func(name, oldVal, newVal string) {
		if oldVal != newVal {
			fields = append(fields, domain.ChangedField{FieldName: name, OldValue: oldVal, NewValue: newVal})
		}
	}

	appendDiff("requestorId", before.RequestorID, after.RequestorID)
	appendDiff("accountId", before.AccountID, after.AccountID)
	appendDiff("categoryId", before.CategoryID, after.CategoryID)
	appendDiff("categoryDetailId", before.CategoryDetailID, after.CategoryDetailID)
	appendDiff("requestChannelId", before.RequestChannelID, after.RequestChannelID)
	appendDiff("summary", before.Summary, after.Summary)
	appendDiff("description", before.Description, after.Description)
	appendDiff("personInChargeId", before.PersonInChargeID, after.PersonInChargeID)
	appendDiff("statusId", before.StatusID, after.StatusID)
	appendDiff("scheduledCompletionDate", formatDate(before.ScheduledCompletionDate), formatDate(after.ScheduledCompletionDate))
	appendDiff("completionDate", formatDate(before.CompletionDate), formatDate(after.CompletionDate))
	appendDiff("actualEffortHours", formatFloat(before.ActualEffortHours), formatFloat(after.ActualEffortHours))
	appendDiff("responseCategoryId", stringOrEmpty(before.ResponseCategoryID), stringOrEmpty(after.ResponseCategoryID))
	appendDiff("responseDetails", stringOrEmpty(before.ResponseDetails), stringOrEmpty(after.ResponseDetails))
	appendDiff("hasDefect", strconv.FormatBool(before.HasDefect), strconv.FormatBool(after.HasDefect))
	appendDiff("externalTicketId", stringOrEmpty(before.ExternalTicketID), stringOrEmpty(after.ExternalTicketID))
	appendDiff("remarks", stringOrEmpty(before.Remarks), stringOrEmpty(after.Remarks))
	return fields
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
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
