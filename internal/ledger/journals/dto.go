package journals

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// LineInput describes a journal line for a creation request.
type LineInput struct {
	AccountID   int64
	Description string
	Debit       float64
	Credit      float64
}

// CreateEntryInput groups fields required to create a journal entry in DRAFT.
type CreateEntryInput struct {
	CompanyID   int64
	Date        time.Time
	Description string
	CreatedBy   string
	// SourceModule/SourceID identify the commercial document that produced
	// the entry; the pair is unique so a document posts at most once.
	SourceModule string
	SourceID     uuid.UUID
	Lines        []LineInput
}

// Validate covers the header fields only. Account existence, the fiscal date
// window, and the line rules all run inside the create transaction, in that
// order.
func (in CreateEntryInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("journals: company id required")
	}
	if in.Date.IsZero() {
		return errors.New("journals: date required")
	}
	return nil
}

// ValidateLines enforces the line-set rules shared by creation, posting, and
// closing: at least two lines, total debit equal to total credit within
// tolerance, exactly one non-negative side per line, and not all amounts
// zero. The balance check runs before the per-line shape checks.
func ValidateLines(lines []LineInput) error {
	if len(lines) < 2 {
		return shared.ErrTooFewLines
	}
	var debit, credit float64
	for _, line := range lines {
		debit += line.Debit
		credit += line.Credit
	}
	if !shared.Balanced(debit, credit) {
		return shared.ErrUnbalanced
	}
	for idx, line := range lines {
		if line.AccountID == 0 {
			return fmt.Errorf("journals: line %d missing account: %w", idx, shared.ErrBadLineShape)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("journals: line %d negative amount: %w", idx, shared.ErrBadLineShape)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return fmt.Errorf("journals: line %d cannot carry both sides: %w", idx, shared.ErrBadLineShape)
		}
	}
	if debit == 0 && credit == 0 {
		return shared.ErrZeroAmounts
	}
	return nil
}

// UpdateDraftInput replaces the mutable fields of a DRAFT entry.
type UpdateDraftInput struct {
	CompanyID   int64
	EntryID     int64
	Date        time.Time
	Description string
	Actor       string
	Lines       []LineInput
}

// ClosingInput creates the fiscal-year closing entry, the only entry born
// POSTED without passing through Post.
type ClosingInput struct {
	CompanyID   int64
	Date        time.Time
	Description string
	CreatedBy   string
	Lines       []LineInput
}

func (in ClosingInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("journals: company id required")
	}
	if in.Date.IsZero() {
		return errors.New("journals: date required")
	}
	return ValidateLines(in.Lines)
}

// ListFilter narrows entry listings.
type ListFilter struct {
	From    *time.Time
	To      *time.Time
	Status  *Status
	Page    int
	PerPage int
}

// NatureWarnings reports accounts whose net movement in the line set runs
// against their nature. Advisory only: accounting practice sometimes
// legitimately overrides natural-balance expectations, so these never block.
func NatureWarnings(lines []LineInput, accountsByID map[int64]accounts.Account) []string {
	net := make(map[int64]float64, len(accountsByID))
	order := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, seen := net[line.AccountID]; !seen {
			order = append(order, line.AccountID)
		}
		net[line.AccountID] += line.Debit - line.Credit
	}
	var warnings []string
	for _, id := range order {
		account, ok := accountsByID[id]
		if !ok {
			continue
		}
		balance := net[id]
		switch {
		case account.Nature == accounts.NatureDebit && balance < -shared.Tolerance:
			warnings = append(warnings, fmt.Sprintf("account %s (%s) has DEBIT nature but nets credit %.2f", account.Code, account.Name, -balance))
		case account.Nature == accounts.NatureCredit && balance > shared.Tolerance:
			warnings = append(warnings, fmt.Sprintf("account %s (%s) has CREDIT nature but nets debit %.2f", account.Code, account.Name, balance))
		}
	}
	return warnings
}
