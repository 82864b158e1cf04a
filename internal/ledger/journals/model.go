package journals

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates the journal entry lifecycle.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPosted   Status = "POSTED"
	StatusReversed Status = "REVERSED"
)

// CanTransition reports whether the edge from s to target is one of the two
// legal transitions: DRAFT->POSTED and POSTED->REVERSED. REVERSED is terminal,
// and a POSTED entry never returns to DRAFT.
func (s Status) CanTransition(target Status) bool {
	switch {
	case s == StatusDraft && target == StatusPosted:
		return true
	case s == StatusPosted && target == StatusReversed:
		return true
	}
	return false
}

// JournalEntry is a balanced set of lines with a company-scoped gapless
// sequential number.
type JournalEntry struct {
	ID              int64
	CompanyID       int64
	Number          int64
	Date            time.Time
	Description     string
	Status          Status
	PostDate        *time.Time
	OriginalEntryID *int64
	ReversalEntryID *int64
	IsClosing       bool
	SourceModule    *string
	SourceID        *uuid.UUID
	CreatedBy       string
	ReversedBy      *string
	ReversedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Lines           []Line
}

// Line stores a debit or credit amount for an account. A line belongs to
// exactly one entry and carries exactly one side.
type Line struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Description string
	Debit       float64
	Credit      float64
	CreatedAt   time.Time
}
