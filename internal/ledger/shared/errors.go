package shared

import (
	"fmt"

	"github.com/gestio-erp/gestio-erp/internal/shared"
)

// Tolerance is the maximum absolute difference, in currency units, under which
// two monetary sums are considered equal.
const Tolerance = 0.01

// Sentinel errors for the ledger modules. Each wraps one of the cross-module
// error kinds so the HTTP boundary can classify it with errors.Is.
var (
	// ErrAccountNotFound indicates a missing or company-mismatched account.
	ErrAccountNotFound = fmt.Errorf("ledger: account %w", shared.ErrNotFound)
	// ErrEntryNotFound indicates a missing or company-mismatched journal entry.
	ErrEntryNotFound = fmt.Errorf("ledger: journal entry %w", shared.ErrNotFound)
	// ErrTemplateNotFound indicates a missing or company-mismatched recurring template.
	ErrTemplateNotFound = fmt.Errorf("ledger: recurring template %w", shared.ErrNotFound)
	// ErrSettingsNotFound indicates accounting settings are not configured.
	ErrSettingsNotFound = fmt.Errorf("ledger: accounting settings missing: %w", shared.ErrConfigMissing)

	// ErrDuplicateCode indicates the account code already exists in the company.
	ErrDuplicateCode = fmt.Errorf("ledger: duplicate account code: %w", shared.ErrValidation)
	// ErrInvalidParent indicates a missing, foreign, or cyclic parent account.
	ErrInvalidParent = fmt.Errorf("ledger: invalid parent account: %w", shared.ErrValidation)
	// ErrInvalidNature indicates the nature does not match the account type.
	ErrInvalidNature = fmt.Errorf("ledger: nature does not match account type: %w", shared.ErrValidation)
	// ErrUnbalanced indicates debit != credit beyond tolerance.
	ErrUnbalanced = fmt.Errorf("ledger: journal lines must balance: %w", shared.ErrValidation)
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = fmt.Errorf("ledger: journal requires at least two lines: %w", shared.ErrValidation)
	// ErrZeroAmounts indicates every line amount is zero.
	ErrZeroAmounts = fmt.Errorf("ledger: journal amounts are all zero: %w", shared.ErrValidation)
	// ErrBadLineShape indicates a negative amount or both sides populated.
	ErrBadLineShape = fmt.Errorf("ledger: line must carry exactly one non-negative side: %w", shared.ErrValidation)
	// ErrInactiveAccount indicates a line references a deactivated account.
	ErrInactiveAccount = fmt.Errorf("ledger: account is inactive: %w", shared.ErrValidation)
	// ErrDateOutsideFiscalYear indicates the entry date is outside the configured range.
	ErrDateOutsideFiscalYear = fmt.Errorf("ledger: date outside fiscal year: %w", shared.ErrValidation)
	// ErrInvalidFiscalSpan indicates end <= start or a span above 366 days.
	ErrInvalidFiscalSpan = fmt.Errorf("ledger: invalid fiscal year span: %w", shared.ErrValidation)

	// ErrInvalidStatus indicates a lifecycle transition that is not allowed.
	ErrInvalidStatus = fmt.Errorf("ledger: %w", shared.ErrInvalidTransition)
	// ErrAlreadyClosed indicates the fiscal year already has a closing entry.
	ErrAlreadyClosed = fmt.Errorf("ledger: fiscal year already closed: %w", shared.ErrInvalidTransition)
	// ErrNothingToClose indicates no revenue or expense balance to close.
	ErrNothingToClose = fmt.Errorf("ledger: nothing to close: %w", shared.ErrValidation)

	// ErrHasActiveChildren blocks deactivating an account with active children.
	ErrHasActiveChildren = fmt.Errorf("ledger: account has active children: %w", shared.ErrConflict)
	// ErrHasMovements blocks deactivating an account referenced by journal lines.
	ErrHasMovements = fmt.Errorf("ledger: account has journal movements: %w", shared.ErrConflict)
	// ErrSourceAlreadyLinked indicates the integration source was already posted.
	ErrSourceAlreadyLinked = fmt.Errorf("ledger: source already linked: %w", shared.ErrConflict)
	// ErrTemplateInactive blocks generation from a deactivated template.
	ErrTemplateInactive = fmt.Errorf("ledger: recurring template inactive: %w", shared.ErrConflict)

	// ErrMissingResultAccount indicates no result account is configured for closing.
	ErrMissingResultAccount = fmt.Errorf("ledger: result account not configured: %w", shared.ErrConfigMissing)
)

// Balanced reports whether the two sums are equal within Tolerance.
func Balanced(debit, credit float64) bool {
	diff := debit - credit
	if diff < 0 {
		diff = -diff
	}
	return diff < Tolerance
}
