package domain

// ReferenceKind names a master-data table a ticket foreign key can point at.
type ReferenceKind string

const (
	ReferenceUser             ReferenceKind = "user"
	ReferenceAccount          ReferenceKind = "account"
	ReferenceCategory         ReferenceKind = "category"
	ReferenceCategoryDetail   ReferenceKind = "category_detail"
	ReferenceRequestChannel   ReferenceKind = "request_channel"
	ReferenceStatus           ReferenceKind = "status"
	ReferenceResponseCategory ReferenceKind = "response_category"
)

// Reference is a row of a simple master-data table. OrderNo drives stable
// display ordering with Name as the tiebreak.
type Reference struct {
	ID      string
	Name    string
	OrderNo int
}

// CategoryDetail is a reference row scoped to a parent category.
type CategoryDetail struct {
	ID         string
	Name       string
	CategoryID string
	OrderNo    int
}

// ResponseCategory is a reference row with an optional grouping label.
type ResponseCategory struct {
	ID             string
	Name           string
	ParentCategory *string
	OrderNo        int
}

// Attachment is file metadata tied to a ticket.
type Attachment struct {
	ID       string
	TicketID string
	FileName string
	OrderNo  int
}
