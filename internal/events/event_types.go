package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketHistoryAdded EventType = "ticket_history_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	StatusID         string `json:"status_id"`
	PersonInChargeID string `json:"person_in_charge_id"`
	Summary          string `json:"summary"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	ChangedFields []string `json:"changed_fields"`
}

// TicketHistoryAddedPayload payload.
type TicketHistoryAddedPayload struct {
	HistoryID string `json:"history_id"`
	UserID    string `json:"user_id"`
	Comment   string `json:"comment,omitempty"`
}
