// Package testutil provides an in-memory repository.Store and seed fixtures
// shared by service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

// MemStore is an in-memory repository.Store. It mirrors the semantics the
// Postgres implementation relies on: copies in, copies out, updated_at
// refreshed on every write.
type MemStore struct {
	TicketsByID  map[string]domain.Ticket
	HistoryRows  []domain.TicketHistory
	Users        []domain.Reference
	AccountRows  []domain.Reference
	CategoryRows []domain.Reference
	DetailRows   []domain.CategoryDetail
	StatusRows   []domain.Reference
	ChannelRows  []domain.Reference
	RespCatRows  []domain.ResponseCategory
	Attachments  []domain.Attachment

	nextID int64
}

// NewMemStore builds a store pre-seeded with the same master data the seed
// migration installs.
func NewMemStore() *MemStore {
	return &MemStore{
		TicketsByID: map[string]domain.Ticket{},
		Users: []domain.Reference{
			{ID: "u1", Name: "Sato Hanako", OrderNo: 1},
			{ID: "u2", Name: "Suzuki Taro", OrderNo: 2},
			{ID: "u3", Name: "Tanaka Jiro", OrderNo: 3},
		},
		AccountRows: []domain.Reference{
			{ID: "a1", Name: "Acme Manufacturing", OrderNo: 1},
			{ID: "a2", Name: "Globex Logistics", OrderNo: 2},
		},
		CategoryRows: []domain.Reference{
			{ID: "c1", Name: "Hardware", OrderNo: 1},
			{ID: "c2", Name: "Software", OrderNo: 2},
		},
		DetailRows: []domain.CategoryDetail{
			{ID: "cd1", Name: "Printer", CategoryID: "c1", OrderNo: 1},
			{ID: "cd2", Name: "Workstation", CategoryID: "c1", OrderNo: 2},
			{ID: "cd3", Name: "Business Application", CategoryID: "c2", OrderNo: 1},
		},
		StatusRows: []domain.Reference{
			{ID: "stat1", Name: "New", OrderNo: 1},
			{ID: "stat2", Name: "In Progress", OrderNo: 2},
			{ID: "stat4", Name: "Resolved", OrderNo: 4},
			{ID: domain.StatusIDCompleted, Name: "Completed", OrderNo: 5},
		},
		ChannelRows: []domain.Reference{
			{ID: "rc1", Name: "Email", OrderNo: 1},
			{ID: "rc2", Name: "Phone", OrderNo: 2},
		},
		RespCatRows: []domain.ResponseCategory{
			{ID: "resp1", Name: "Repair", ParentCategory: strPtr("Remediation"), OrderNo: 1},
			{ID: "resp4", Name: "No Action Needed", OrderNo: 4},
		},
	}
}

func strPtr(s string) *string { return &s }

func (m *MemStore) Tickets() repository.TicketRepository        { return (*memTickets)(m) }
func (m *MemStore) History() repository.TicketHistoryRepository { return (*memHistory)(m) }
func (m *MemStore) References() repository.ReferenceRepository  { return (*memRefs)(m) }

func (m *MemStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

type memTickets MemStore

func (m *memTickets) NextID(context.Context) (string, error) {
	m.nextID++
	return fmt.Sprintf("TCK-%04d", m.nextID), nil
}

func (m *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	if _, exists := m.TicketsByID[ticket.ID]; exists {
		return fmt.Errorf("duplicate ticket id %s", ticket.ID)
	}
	ticket.UpdatedAt = time.Now()
	m.TicketsByID[ticket.ID] = *ticket
	return nil
}

func (m *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, exists := m.TicketsByID[ticket.ID]; !exists {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	m.TicketsByID[ticket.ID] = *ticket
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := m.TicketsByID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (m *memTickets) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.TicketSummary, error) {
	var matched []domain.Ticket
	for _, ticket := range m.TicketsByID {
		if !matchesFilter(ticket, filter) {
			continue
		}
		matched = append(matched, ticket)
	}
	sortTickets(matched, filter)

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	var result []domain.TicketSummary
	for _, ticket := range matched[offset:end] {
		result = append(result, domain.TicketSummary{
			ID:                      ticket.ID,
			ReceptionDateTime:       ticket.ReceptionDateTime,
			RequestorName:           ticket.RequestorName,
			AccountName:             ticket.AccountName,
			Summary:                 ticket.Summary,
			PersonInChargeName:      ticket.PersonInChargeName,
			StatusID:                ticket.StatusID,
			StatusName:              ticket.StatusName,
			ScheduledCompletionDate: ticket.ScheduledCompletionDate,
			CompletionDate:          ticket.CompletionDate,
		})
	}
	return result, nil
}

func matchesFilter(ticket domain.Ticket, filter repository.TicketFilter) bool {
	if filter.PersonInChargeID != nil && ticket.PersonInChargeID != *filter.PersonInChargeID {
		return false
	}
	if filter.AccountID != nil && ticket.AccountID != *filter.AccountID {
		return false
	}
	if filter.StatusID != nil && ticket.StatusID != *filter.StatusID {
		return false
	}
	if !filter.ShowCompleted && ticket.StatusID == domain.StatusIDCompleted {
		return false
	}
	if filter.ScheduledFrom != nil {
		if ticket.ScheduledCompletionDate == nil || ticket.ScheduledCompletionDate.Before(*filter.ScheduledFrom) {
			return false
		}
	}
	if filter.ScheduledTo != nil {
		if ticket.ScheduledCompletionDate == nil || ticket.ScheduledCompletionDate.After(*filter.ScheduledTo) {
			return false
		}
	}
	if filter.SearchQuery != nil && strings.TrimSpace(*filter.SearchQuery) != "" {
		needle := strings.ToLower(strings.TrimSpace(*filter.SearchQuery))
		haystacks := []string{ticket.Summary, ticket.AccountName, ticket.RequestorName}
		found := false
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortTickets(tickets []domain.Ticket, filter repository.TicketFilter) {
	key := func(t domain.Ticket) *time.Time {
		switch filter.SortBy {
		case repository.SortByScheduledCompletionDate:
			return t.ScheduledCompletionDate
		case repository.SortByCompletionDate:
			return t.CompletionDate
		default:
			reception := t.ReceptionDateTime
			return &reception
		}
	}
	asc := strings.EqualFold(filter.SortOrder, "asc")
	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := key(tickets[i]), key(tickets[j])
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if asc {
			return a.Before(*b)
		}
		return b.Before(*a)
	})
}

type memHistory MemStore

func (m *memHistory) Create(_ context.Context, history *domain.TicketHistory) error {
	m.HistoryRows = append(m.HistoryRows, *history)
	return nil
}

func (m *memHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for _, entry := range m.HistoryRows {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[j].EntryTime.Before(result[i].EntryTime)
	})
	return result, nil
}

type memRefs MemStore

func (m *memRefs) ListUsers(context.Context) ([]domain.Reference, error) {
	return sortedRefs(m.Users), nil
}

func (m *memRefs) ListAccounts(context.Context) ([]domain.Reference, error) {
	return sortedRefs(m.AccountRows), nil
}

func (m *memRefs) ListCategories(context.Context) ([]domain.Reference, error) {
	return sortedRefs(m.CategoryRows), nil
}

func (m *memRefs) ListStatuses(context.Context) ([]domain.Reference, error) {
	return sortedRefs(m.StatusRows), nil
}

func (m *memRefs) ListRequestChannels(context.Context) ([]domain.Reference, error) {
	return sortedRefs(m.ChannelRows), nil
}

func (m *memRefs) ListCategoryDetails(_ context.Context, categoryID *string) ([]domain.CategoryDetail, error) {
	var result []domain.CategoryDetail
	for _, detail := range m.DetailRows {
		if categoryID == nil || detail.CategoryID == *categoryID {
			result = append(result, detail)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].OrderNo != result[j].OrderNo {
			return result[i].OrderNo < result[j].OrderNo
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *memRefs) ListResponseCategories(context.Context) ([]domain.ResponseCategory, error) {
	result := append([]domain.ResponseCategory{}, m.RespCatRows...)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].OrderNo != result[j].OrderNo {
			return result[i].OrderNo < result[j].OrderNo
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *memRefs) ListAttachments(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var result []domain.Attachment
	for _, att := range m.Attachments {
		if att.TicketID == ticketID {
			result = append(result, att)
		}
	}
	return result, nil
}

func (m *memRefs) LookupName(_ context.Context, kind domain.ReferenceKind, id string) (string, bool, error) {
	lookup := func(refs []domain.Reference) (string, bool) {
		for _, ref := range refs {
			if ref.ID == id {
				return ref.Name, true
			}
		}
		return "", false
	}
	switch kind {
	case domain.ReferenceUser:
		name, ok := lookup(m.Users)
		return name, ok, nil
	case domain.ReferenceAccount:
		name, ok := lookup(m.AccountRows)
		return name, ok, nil
	case domain.ReferenceCategory:
		name, ok := lookup(m.CategoryRows)
		return name, ok, nil
	case domain.ReferenceCategoryDetail:
		for _, detail := range m.DetailRows {
			if detail.ID == id {
				return detail.Name, true, nil
			}
		}
		return "", false, nil
	case domain.ReferenceRequestChannel:
		name, ok := lookup(m.ChannelRows)
		return name, ok, nil
	case domain.ReferenceStatus:
		name, ok := lookup(m.StatusRows)
		return name, ok, nil
	case domain.ReferenceResponseCategory:
		for _, cat := range m.RespCatRows {
			if cat.ID == id {
				return cat.Name, true, nil
			}
		}
		return "", false, nil
	}
	return "", false, fmt.Errorf("unknown reference kind: %s", kind)
}

func sortedRefs(refs []domain.Reference) []domain.Reference {
	result := append([]domain.Reference{}, refs...)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].OrderNo != result[j].OrderNo {
			return result[i].OrderNo < result[j].OrderNo
		}
		return result[i].Name < result[j].Name
	})
	return result
}
