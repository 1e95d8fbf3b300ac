package dto

import "time"

// ChangedFieldPayload is one field transition inside a history entry.
type ChangedFieldPayload struct {
	FieldName string `json:"fieldName"`
	OldValue  string `json:"oldValue"`
	NewValue  string `json:"newValue"`
}

// CreateHistoryRequest payload. userName is optional; when absent the service
// resolves it from the users table.
type CreateHistoryRequest struct {
	UserID        string                `json:"userId"`
	UserName      string                `json:"userName"`
	Comment       string                `json:"comment"`
	ChangedFields []ChangedFieldPayload `json:"changedFields"`
}

// HistoryEntryResponse is one audit entry.
type HistoryEntryResponse struct {
	ID            string                `json:"id"`
	TicketID      string                `json:"ticketId"`
	EntryTime     time.Time             `json:"timestamp"`
	UserID        string                `json:"userId"`
	UserName      string                `json:"userName"`
	Comment       string                `json:"comment"`
	ChangedFields []ChangedFieldPayload `json:"changedFields"`
}
