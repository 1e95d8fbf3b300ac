package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/service"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

// TicketsHandler manages the ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketListQuery(c)
	if err != nil {
		return err
	}
	summaries, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummaryResponse, 0, len(summaries))
	for i := range summaries {
		items = append(items, ticketSummaryResponse(&summaries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	scheduled, err := parseDate(req.ScheduledCompletionDate, "scheduledCompletionDate")
	if err != nil {
		return err
	}
	completion, err := parseDate(req.CompletionDate, "completionDate")
	if err != nil {
		return err
	}

	input := service.TicketCreateInput{
		ReceptionDateTime:       req.ReceptionDateTime,
		RequestorID:             req.RequestorID,
		AccountID:               req.AccountID,
		CategoryID:              req.CategoryID,
		CategoryDetailID:        req.CategoryDetailID,
		RequestChannelID:        req.RequestChannelID,
		Summary:                 req.Summary,
		Description:             req.Description,
		PersonInChargeID:        req.PersonInChargeID,
		StatusID:                req.StatusID,
		ScheduledCompletionDate: scheduled,
		CompletionDate:          completion,
		ActualEffortHours:       req.ActualEffortHours,
		ResponseCategoryID:      req.ResponseCategoryID,
		ResponseDetails:         req.ResponseDetails,
		HasDefect:               req.HasDefect,
		ExternalTicketID:        req.ExternalTicketID,
		Remarks:                 req.Remarks,
	}
	id, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CreateTicketResponse{ID: id}})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	scheduled, err := parseDate(req.ScheduledCompletionDate, "scheduledCompletionDate")
	if err != nil {
		return err
	}
	completion, err := parseDate(req.CompletionDate, "completionDate")
	if err != nil {
		return err
	}

	input := service.TicketUpdateInput{
		RequestorID:             req.RequestorID,
		AccountID:               req.AccountID,
		CategoryID:              req.CategoryID,
		CategoryDetailID:        req.CategoryDetailID,
		RequestChannelID:        req.RequestChannelID,
		Summary:                 req.Summary,
		Description:             req.Description,
		PersonInChargeID:        req.PersonInChargeID,
		StatusID:                req.StatusID,
		ScheduledCompletionDate: scheduled,
		CompletionDate:          completion,
		ActualEffortHours:       req.ActualEffortHours,
		ResponseCategoryID:      req.ResponseCategoryID,
		ResponseDetails:         req.ResponseDetails,
		HasDefect:               req.HasDefect,
		ExternalTicketID:        req.ExternalTicketID,
		Remarks:                 req.Remarks,
	}
	if req.HistoryComment != nil && strings.TrimSpace(*req.HistoryComment) != "" {
		if req.HistoryUserID == nil || *req.HistoryUserID == "" {
			return apperrors.NewValidationError("historyUserId required when historyComment is set", nil)
		}
		input.History = &service.HistoryNote{
			UserID:  *req.HistoryUserID,
			Comment: *req.HistoryComment,
		}
	}

	id, err := h.service.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CreateTicketResponse{ID: id}})
}

// AddHistory POST /tickets/:id/history.
func (h *TicketsHandler) AddHistory(c *fiber.Ctx) error {
	var req dto.CreateHistoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	fields := make([]domain.ChangedField, 0, len(req.ChangedFields))
	for _, field := range req.ChangedFields {
		fields = append(fields, domain.ChangedField{
			FieldName: field.FieldName,
			OldValue:  field.OldValue,
			NewValue:  field.NewValue,
		})
	}
	entry, err := h.service.AddHistoryEntry(c.UserContext(), service.HistoryEntryInput{
		TicketID:      c.Params("id"),
		UserID:        req.UserID,
		UserName:      req.UserName,
		Comment:       req.Comment,
		ChangedFields: fields,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": historyEntryResponse(entry)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	entries, err := h.service.GetHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, historyEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAttachments GET /tickets/:id/attachments.
func (h *TicketsHandler) ListAttachments(c *fiber.Ctx) error {
	attachments, err := h.service.ListAttachments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, att := range attachments {
		items = append(items, dto.AttachmentResponse{
			ID:       att.ID,
			FileName: att.FileName,
			OrderNo:  att.OrderNo,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTicketListQuery(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		SortBy:    c.Query("sortBy", repository.SortByReceptionDateTime),
		SortOrder: c.Query("sortOrder", "desc"),
	}
	if val := c.Query("personInChargeId"); val != "" {
		filter.PersonInChargeID = &val
	}
	if val := c.Query("accountId"); val != "" {
		filter.AccountID = &val
	}
	if val := c.Query("statusId"); val != "" {
		filter.StatusID = &val
	}
	if val := c.Query("searchQuery"); val != "" {
		filter.SearchQuery = &val
	}
	if val := c.Query("scheduledCompletionDateFrom"); val != "" {
		from, err := parseDate(&val, "scheduledCompletionDateFrom")
		if err != nil {
			return filter, err
		}
		filter.ScheduledFrom = from
	}
	if val := c.Query("scheduledCompletionDateTo"); val != "" {
		to, err := parseDate(&val, "scheduledCompletionDateTo")
		if err != nil {
			return filter, err
		}
		filter.ScheduledTo = to
	}
	if val := c.Query("showCompleted"); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return filter, apperrors.NewValidationError("showCompleted must be a boolean", nil)
		}
		filter.ShowCompleted = parsed
	}
	filter.Limit = parseIntQuery(c.Query("limit"), 0)
	filter.Offset = parseIntQuery(c.Query("offset"), 0)
	return filter, nil
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func parseDate(val *string, field string) (*time.Time, error) {
	if val == nil || *val == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *val)
	if err != nil {
		return nil, apperrors.NewValidationError(field+" must be formatted as YYYY-MM-DD", nil)
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(dateLayout)
	return &formatted
}

func ticketSummaryResponse(summary *domain.TicketSummary) dto.TicketSummaryResponse {
	return dto.TicketSummaryResponse{
		ID:                      summary.ID,
		ReceptionDateTime:       summary.ReceptionDateTime,
		RequestorName:           summary.RequestorName,
		AccountName:             summary.AccountName,
		Summary:                 summary.Summary,
		PersonInChargeName:      summary.PersonInChargeName,
		StatusID:                summary.StatusID,
		StatusName:              summary.StatusName,
		ScheduledCompletionDate: formatDate(summary.ScheduledCompletionDate),
		CompletionDate:          formatDate(summary.CompletionDate),
	}
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                      ticket.ID,
		ReceptionDateTime:       ticket.ReceptionDateTime,
		RequestorID:             ticket.RequestorID,
		RequestorName:           ticket.RequestorName,
		AccountID:               ticket.AccountID,
		AccountName:             ticket.AccountName,
		CategoryID:              ticket.CategoryID,
		CategoryName:            ticket.CategoryName,
		CategoryDetailID:        ticket.CategoryDetailID,
		CategoryDetailName:      ticket.CategoryDetailName,
		RequestChannelID:        ticket.RequestChannelID,
		RequestChannelName:      ticket.RequestChannelName,
		Summary:                 ticket.Summary,
		Description:             ticket.Description,
		PersonInChargeID:        ticket.PersonInChargeID,
		PersonInChargeName:      ticket.PersonInChargeName,
		StatusID:                ticket.StatusID,
		StatusName:              ticket.StatusName,
		ScheduledCompletionDate: formatDate(ticket.ScheduledCompletionDate),
		CompletionDate:          formatDate(ticket.CompletionDate),
		ActualEffortHours:       ticket.ActualEffortHours,
		ResponseCategoryID:      ticket.ResponseCategoryID,
		ResponseCategoryName:    ticket.ResponseCategoryName,
		ResponseDetails:         ticket.ResponseDetails,
		HasDefect:               ticket.HasDefect,
		ExternalTicketID:        ticket.ExternalTicketID,
		Remarks:                 ticket.Remarks,
		UpdatedAt:               ticket.UpdatedAt,
	}
}

func historyEntryResponse(entry *domain.TicketHistory) dto.HistoryEntryResponse {
	fields := make([]dto.ChangedFieldPayload, 0, len(entry.ChangedFields))
	for _, field := range entry.ChangedFields {
		fields = append(fields, dto.ChangedFieldPayload{
			FieldName: field.FieldName,
			OldValue:  field.OldValue,
			NewValue:  field.NewValue,
		})
	}
	return dto.HistoryEntryResponse{
		ID:            entry.ID,
		TicketID:      entry.TicketID,
		EntryTime:     entry.EntryTime,
		UserID:        entry.UserID,
		UserName:      entry.UserName,
		Comment:       entry.Comment,
		ChangedFields: fields,
	}
}
