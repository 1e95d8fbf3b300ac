package domain

import "time"

// StatusIDCompleted is the status excluded from listings unless the caller
// explicitly asks for completed tickets.
const StatusIDCompleted = "status-completed"

// Ticket is the aggregate for support requests. Every <X>ID foreign key is
// paired with a <X>Name snapshot captured when the row was written; names are
// not re-derived on read.
type Ticket struct {
	ID                      string
	ReceptionDateTime       time.Time
	RequestorID             string
	RequestorName           string
	AccountID               string
	AccountName             string
	CategoryID              string
	CategoryName            string
	CategoryDetailID        string
	CategoryDetailName      string
	RequestChannelID        string
	RequestChannelName      string
	Summary                 string
	Description             string
	PersonInChargeID        string
	PersonInChargeName      string
	StatusID                string
	StatusName              string
	ScheduledCompletionDate *time.Time
	CompletionDate          *time.Time
	ActualEffortHours       *float64
	ResponseCategoryID      *string
	ResponseCategoryName    *string
	ResponseDetails         *string
	HasDefect               bool
	ExternalTicketID        *string
	Remarks                 *string
	UpdatedAt               time.Time
}

// TicketSummary is the denormalized projection returned by list/filter.
type TicketSummary struct {
	ID                      string
	ReceptionDateTime       time.Time
	RequestorName           string
	AccountName             string
	Summary                 string
	PersonInChargeName      string
	StatusID                string
	StatusName              string
	ScheduledCompletionDate *time.Time
	CompletionDate          *time.Time
}
