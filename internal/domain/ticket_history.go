package domain

import "time"

// ChangedField records one field transition inside a history entry. Values are
// string-serialized the way the caller supplied them.
type ChangedField struct {
	FieldName string
	OldValue  string
	NewValue  string
}

// TicketHistory is an immutable audit trail entry. Entries are never mutated or
// deleted after creation; insertion order defines the audit trail.
type TicketHistory struct {
	ID            string
	TicketID      string
	EntryTime     time.Time
	UserID        string
	UserName      string
	Comment       string
	ChangedFields []ChangedField
}
