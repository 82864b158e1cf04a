package settings

import (
	"errors"
	"time"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// maxFiscalSpanDays caps the configured fiscal year length.
const maxFiscalSpanDays = 366

// Settings holds the per-company accounting configuration. LastEntryNumber is
// the journal numbering counter and is mutated only by the journal engine.
type Settings struct {
	CompanyID       int64
	FiscalYearStart time.Time
	FiscalYearEnd   time.Time
	LastEntryNumber int64
	ResultAccountID *int64

	// Default integration account links, referenced by the commercial
	// modules when building entry lines. The engine itself only stores them.
	SalesAccountID      *int64
	PurchasesAccountID  *int64
	ReceivableAccountID *int64
	PayableAccountID    *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContainsDate reports whether the date falls inside the fiscal year range,
// boundaries included. Comparison is by calendar day.
func (s Settings) ContainsDate(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	return !day.Before(s.FiscalYearStart.Truncate(24*time.Hour)) && !day.After(s.FiscalYearEnd.Truncate(24*time.Hour))
}

// UpsertInput groups the mutable configuration fields.
type UpsertInput struct {
	CompanyID           int64
	FiscalYearStart     time.Time
	FiscalYearEnd       time.Time
	ResultAccountID     *int64
	SalesAccountID      *int64
	PurchasesAccountID  *int64
	ReceivableAccountID *int64
	PayableAccountID    *int64
}

// Validate enforces the fiscal span rules: end strictly after start, span at
// most 366 days.
func (in UpsertInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("settings: company id required")
	}
	if in.FiscalYearStart.IsZero() || in.FiscalYearEnd.IsZero() {
		return errors.New("settings: fiscal year start and end required")
	}
	if !in.FiscalYearEnd.After(in.FiscalYearStart) {
		return shared.ErrInvalidFiscalSpan
	}
	if in.FiscalYearEnd.Sub(in.FiscalYearStart) > maxFiscalSpanDays*24*time.Hour {
		return shared.ErrInvalidFiscalSpan
	}
	return nil
}
