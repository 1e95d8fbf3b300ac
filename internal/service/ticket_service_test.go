package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/service"
	"github.com/spec-kit/ticket-desk/internal/testutil"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
	"go.uber.org/zap"
)

func newService(store *testutil.MemStore) *service.TicketService {
	return service.NewTicketService(store, events.NewInMemoryDispatcher(), zap.NewNop())
}

func validCreateInput() service.TicketCreateInput {
	return service.TicketCreateInput{
		RequestorID:      "u1",
		AccountID:        "a1",
		CategoryID:       "c1",
		CategoryDetailID: "cd1",
		RequestChannelID: "rc1",
		PersonInChargeID: "u2",
		StatusID:         "stat1",
		Summary:          "printer jam",
		Description:      "tray two keeps jamming",
	}
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesNamesAndReturnsID", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		id, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Equal(t, "TCK-0001", id)

		ticket, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "printer jam", ticket.Summary)
		assert.Equal(t, "Sato Hanako", ticket.RequestorName)
		assert.Equal(t, "Acme Manufacturing", ticket.AccountName)
		assert.Equal(t, "Hardware", ticket.CategoryName)
		assert.Equal(t, "Printer", ticket.CategoryDetailName)
		assert.Equal(t, "Email", ticket.RequestChannelName)
		assert.Equal(t, "Suzuki Taro", ticket.PersonInChargeName)
		assert.Equal(t, "New", ticket.StatusName)
		assert.False(t, ticket.ReceptionDateTime.IsZero())
	})

	t.Run("SequenceAdvances", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		first, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)
		second, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
		assert.Equal(t, "TCK-0002", second)
	})

	t.Run("MissingRequiredFields", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		input := validCreateInput()
		input.AccountID = ""
		input.Summary = "  "
		_, err := svc.Create(ctx, input)
		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	})

	t.Run("UnresolvableRequiredReferenceFailsWholeOperation", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		input := validCreateInput()
		input.StatusID = "no-such-status"
		_, err := svc.Create(ctx, input)
		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		assert.Empty(t, store.TicketsByID)
	})

	t.Run("OptionalResponseCategoryMissingRowYieldsNilName", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		unknown := "resp-unknown"
		input := validCreateInput()
		input.ResponseCategoryID = &unknown
		id, err := svc.Create(ctx, input)
		require.NoError(t, err)

		ticket, err := svc.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, ticket.ResponseCategoryID)
		assert.Nil(t, ticket.ResponseCategoryName)
	})

	t.Run("KnownResponseCategoryResolvesName", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		respID := "resp1"
		input := validCreateInput()
		input.ResponseCategoryID = &respID
		id, err := svc.Create(ctx, input)
		require.NoError(t, err)

		ticket, err := svc.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, ticket.ResponseCategoryName)
		assert.Equal(t, "Repair", *ticket.ResponseCategoryName)
	})
}

func TestGetTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		svc := newService(testutil.NewMemStore())
		_, err := svc.Get(ctx, "nonexistent-id")
		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
		assert.Equal(t, 404, domainErr.HTTPStatus)
	})

	t.Run("RoundTripPreservesAllFields", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		scheduled := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
		hours := 2.5
		ext := "EXT-77"
		input := validCreateInput()
		input.ScheduledCompletionDate = &scheduled
		input.ActualEffortHours = &hours
		input.ExternalTicketID = &ext
		input.HasDefect = true

		id, err := svc.Create(ctx, input)
		require.NoError(t, err)

		ticket, err := svc.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, ticket.ScheduledCompletionDate)
		assert.True(t, scheduled.Equal(*ticket.ScheduledCompletionDate))
		require.NotNil(t, ticket.ActualEffortHours)
		assert.Equal(t, 2.5, *ticket.ActualEffortHours)
		require.NotNil(t, ticket.ExternalTicketID)
		assert.Equal(t, "EXT-77", *ticket.ExternalTicketID)
		assert.True(t, ticket.HasDefect)
	})
}

func TestUpdateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		svc := newService(testutil.NewMemStore())
		_, err := svc.Update(ctx, "nonexistent-id", service.TicketUpdateInput{})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})

	t.Run("PartialUpdateRetainsOmittedFields", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		id, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)
		before, err := svc.Get(ctx, id)
		require.NoError(t, err)

		newStatus := "stat4"
		_, err = svc.Update(ctx, id, service.TicketUpdateInput{StatusID: &newStatus})
		require.NoError(t, err)

		after, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "stat4", after.StatusID)
		assert.Equal(t, "Resolved", after.StatusName)
		assert.Equal(t, before.Summary, after.Summary)
		assert.Equal(t, before.RequestorID, after.RequestorID)
		assert.Equal(t, before.RequestorName, after.RequestorName)
		assert.Equal(t, before.AccountID, after.AccountID)
		assert.Equal(t, before.ReceptionDateTime, after.ReceptionDateTime)
	})

	t.Run("UpdatedAtAlwaysRefreshed", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		id, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)
		before, err := svc.Get(ctx, id)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		_, err = svc.Update(ctx, id, service.TicketUpdateInput{})
		require.NoError(t, err)

		after, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	})

	t.Run("UnresolvableReferenceFailsUpdate", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		id, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)

		bogus := "no-such-user"
		_, err = svc.Update(ctx, id, service.TicketUpdateInput{PersonInChargeID: &bogus})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

		after, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "u2", after.PersonInChargeID)
	})

	t.Run("HistoryNoteRecordsDiff", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		id, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)

		newStatus := "stat2"
		newSummary := "printer jam in tray two"
		_, err = svc.Update(ctx, id, service.TicketUpdateInput{
			StatusID: &newStatus,
			Summary:  &newSummary,
			History:  &service.HistoryNote{UserID: "u2", Comment: "picked up"},
		})
		require.NoError(t, err)

		entries, err := svc.GetHistory(ctx, id)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		entry := entries[0]
		assert.Equal(t, "u2", entry.UserID)
		assert.Equal(t, "Suzuki Taro", entry.UserName)
		assert.Equal(t, "picked up", entry.Comment)

		changed := map[string][2]string{}
		for _, field := range entry.ChangedFields {
			changed[field.FieldName] = [2]string{field.OldValue, field.NewValue}
		}
		assert.Equal(t, [2]string{"stat1", "stat2"}, changed["statusId"])
		assert.Equal(t, [2]string{"printer jam", "printer jam in tray two"}, changed["summary"])
		assert.Len(t, changed, 2)
	})
}

func TestTicketHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("AddAndFetchRoundTrip", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		id, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)

		fields := []domain.ChangedField{
			{FieldName: "statusId", OldValue: "stat1", NewValue: "stat2"},
			{FieldName: "remarks", OldValue: "", NewValue: "called the requestor"},
		}
		entry, err := svc.AddHistoryEntry(ctx, service.HistoryEntryInput{
			TicketID:      id,
			UserID:        "u1",
			Comment:       "triage",
			ChangedFields: fields,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, "Sato Hanako", entry.UserName)

		entries, err := svc.GetHistory(ctx, id)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, fields, entries[0].ChangedFields)
	})

	t.Run("NewestFirstOrdering", func(t *testing.T) {
		store := testutil.NewMemStore()
		svc := newService(store)

		id, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)

		_, err = svc.AddHistoryEntry(ctx, service.HistoryEntryInput{TicketID: id, UserID: "u1", Comment: "first"})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		_, err = svc.AddHistoryEntry(ctx, service.HistoryEntryInput{TicketID: id, UserID: "u2", Comment: "second"})
		require.NoError(t, err)

		entries, err := svc.GetHistory(ctx, id)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "second", entries[0].Comment)
		assert.Equal(t, "first", entries[1].Comment)
	})

	t.Run("UnknownTicketIsNotFound", func(t *testing.T) {
		svc := newService(testutil.NewMemStore())
		_, err := svc.AddHistoryEntry(ctx, service.HistoryEntryInput{TicketID: "nope", UserID: "u1"})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

		_, err = svc.GetHistory(ctx, "nope")
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})
}

func TestListTickets(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, svc *service.TicketService) (string, string) {
		t.Helper()
		open, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)

		completedInput := validCreateInput()
		completedInput.StatusID = domain.StatusIDCompleted
		completed, err := svc.Create(ctx, completedInput)
		require.NoError(t, err)
		return open, completed
	}

	t.Run("ShowCompletedDefaultExcludesCompleted", func(t *testing.T) {
		svc := newService(testutil.NewMemStore())
		open, completed := seed(t, svc)

		summaries, err := svc.List(ctx, repository.TicketFilter{})
		require.NoError(t, err)
		ids := summaryIDs(summaries)
		assert.Contains(t, ids, open)
		assert.NotContains(t, ids, completed)

		summaries, err = svc.List(ctx, repository.TicketFilter{ShowCompleted: true})
		require.NoError(t, err)
		ids = summaryIDs(summaries)
		assert.Contains(t, ids, open)
		assert.Contains(t, ids, completed)
	})

	t.Run("ScheduledDateRangeIsInclusive", func(t *testing.T) {
		svc := newService(testutil.NewMemStore())

		mkTicket := func(day int) string {
			scheduled := time.Date(2026, 9, day, 0, 0, 0, 0, time.UTC)
			input := validCreateInput()
			input.ScheduledCompletionDate = &scheduled
			id, err := svc.Create(ctx, input)
			require.NoError(t, err)
			return id
		}
		before := mkTicket(1)
		onFrom := mkTicket(10)
		inside := mkTicket(15)
		onTo := mkTicket(20)
		after := mkTicket(25)

		from := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
		summaries, err := svc.List(ctx, repository.TicketFilter{ScheduledFrom: &from, ScheduledTo: &to})
		require.NoError(t, err)
		ids := summaryIDs(summaries)
		assert.ElementsMatch(t, []string{onFrom, inside, onTo}, ids)
		assert.NotContains(t, ids, before)
		assert.NotContains(t, ids, after)
	})

	t.Run("SearchQueryMatchesSummaryAccountRequestor", func(t *testing.T) {
		svc := newService(testutil.NewMemStore())
		id, err := svc.Create(ctx, validCreateInput())
		require.NoError(t, err)

		for _, query := range []string{"PRINTER", "acme", "hanako"} {
			q := query
			summaries, err := svc.List(ctx, repository.TicketFilter{SearchQuery: &q})
			require.NoError(t, err)
			assert.Contains(t, summaryIDs(summaries), id, "query %q", query)
		}

		q := "unrelated"
		summaries, err := svc.List(ctx, repository.TicketFilter{SearchQuery: &q})
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})

	t.Run("FilterByPersonAndAccountAndStatus", func(t *testing.T) {
		svc := newService(testutil.NewMemStore())
		open, _ := seed(t, svc)

		otherPIC := validCreateInput()
		otherPIC.PersonInChargeID = "u3"
		other, err := svc.Create(ctx, otherPIC)
		require.NoError(t, err)

		pic := "u2"
		summaries, err := svc.List(ctx, repository.TicketFilter{PersonInChargeID: &pic})
		require.NoError(t, err)
		ids := summaryIDs(summaries)
		assert.Contains(t, ids, open)
		assert.NotContains(t, ids, other)
	})
}

func summaryIDs(summaries []domain.TicketSummary) []string {
	ids := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.ID)
	}
	return ids
}
