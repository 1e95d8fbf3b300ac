package dto

import "time"

// CreateTicketRequest payload. Date-only fields use YYYY-MM-DD strings.
type CreateTicketRequest struct {
	ReceptionDateTime       *time.Time `json:"receptionDateTime"`
	RequestorID             string     `json:"requestorId"`
	AccountID               string     `json:"accountId"`
	CategoryID              string     `json:"categoryId"`
	CategoryDetailID        string     `json:"categoryDetailId"`
	RequestChannelID        string     `json:"requestChannelId"`
	Summary                 string     `json:"summary"`
	Description             string     `json:"description"`
	PersonInChargeID        string     `json:"personInChargeId"`
	StatusID                string     `json:"statusId"`
	ScheduledCompletionDate *string    `json:"scheduledCompletionDate"`
	CompletionDate          *string    `json:"completionDate"`
	ActualEffortHours       *float64   `json:"actualEffortHours"`
	ResponseCategoryID      *string    `json:"responseCategoryId"`
	ResponseDetails         *string    `json:"responseDetails"`
	HasDefect               bool       `json:"hasDefect"`
	ExternalTicketID        *string    `json:"externalTicketId"`
	Remarks                 *string    `json:"remarks"`
}

// UpdateTicketRequest is a partial payload: absent fields keep their prior
// values. A non-empty historyComment appends an audit entry atomically with
// the update.
type UpdateTicketRequest struct {
	RequestorID             *string  `json:"requestorId"`
	AccountID               *string  `json:"accountId"`
	CategoryID              *string  `json:"categoryId"`
	CategoryDetailID        *string  `json:"categoryDetailId"`
	RequestChannelID        *string  `json:"requestChannelId"`
	Summary                 *string  `json:"summary"`
	Description             *string  `json:"description"`
	PersonInChargeID        *string  `json:"personInChargeId"`
	StatusID                *string  `json:"statusId"`
	ScheduledCompletionDate *string  `json:"scheduledCompletionDate"`
	CompletionDate          *string  `json:"completionDate"`
	ActualEffortHours       *float64 `json:"actualEffortHours"`
	ResponseCategoryID      *string  `json:"responseCategoryId"`
	ResponseDetails         *string  `json:"responseDetails"`
	HasDefect               *bool    `json:"hasDefect"`
	ExternalTicketID        *string  `json:"externalTicketId"`
	Remarks                 *string  `json:"remarks"`
	HistoryUserID           *string  `json:"historyUserId"`
	HistoryComment          *string  `json:"historyComment"`
}

// CreateTicketResponse returns the allocated id.
type CreateTicketResponse struct {
	ID string `json:"id"`
}

// TicketSummaryResponse is a row of the list projection.
type TicketSummaryResponse struct {
	ID                      string    `json:"id"`
	ReceptionDateTime       time.Time `json:"receptionDateTime"`
	RequestorName           string    `json:"requestorName"`
	AccountName             string    `json:"accountName"`
	Summary                 string    `json:"summary"`
	PersonInChargeName      string    `json:"personInChargeName"`
	StatusID                string    `json:"statusId"`
	StatusName              string    `json:"statusName"`
	ScheduledCompletionDate *string   `json:"scheduledCompletionDate"`
	CompletionDate          *string   `json:"completionDate"`
}

// TicketResponse is the full ticket projection.
type TicketResponse struct {
	ID                      string    `json:"id"`
	ReceptionDateTime       time.Time `json:"receptionDateTime"`
	RequestorID             string    `json:"requestorId"`
	RequestorName           string    `json:"requestorName"`
	AccountID               string    `json:"accountId"`
	AccountName             string    `json:"accountName"`
	CategoryID              string    `json:"categoryId"`
	CategoryName            string    `json:"categoryName"`
	CategoryDetailID        string    `json:"categoryDetailId"`
	CategoryDetailName      string    `json:"categoryDetailName"`
	RequestChannelID        string    `json:"requestChannelId"`
	RequestChannelName      string    `json:"requestChannelName"`
	Summary                 string    `json:"summary"`
	Description             string    `json:"description"`
	PersonInChargeID        string    `json:"personInChargeId"`
	PersonInChargeName      string    `json:"personInChargeName"`
	StatusID                string    `json:"statusId"`
	StatusName              string    `json:"statusName"`
	ScheduledCompletionDate *string   `json:"scheduledCompletionDate"`
	CompletionDate          *string   `json:"completionDate"`
	ActualEffortHours       *float64  `json:"actualEffortHours"`
	ResponseCategoryID      *string   `json:"responseCategoryId"`
	ResponseCategoryName    *string   `json:"responseCategoryName"`
	ResponseDetails         *string   `json:"responseDetails"`
	HasDefect               bool      `json:"hasDefect"`
	ExternalTicketID        *string   `json:"externalTicketId"`
	Remarks                 *string   `json:"remarks"`
	UpdatedAt               time.Time `json:"updatedAt"`
}
