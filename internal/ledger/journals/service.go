package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	ledgershared "github.com/gestio-erp/gestio-erp/internal/ledger/shared"
	internalShared "github.com/gestio-erp/gestio-erp/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// BalanceInvalidator drops cached read-side reports after posting activity
// changes what the balance queries would return.
type BalanceInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// Service drives the journal entry lifecycle. Entries are created as drafts,
// posted once balanced, and corrected through reversal entries. Posted rows
// are never mutated beyond the status and link columns.
type Service struct {
	repo     Repository
	audit    AuditPort
	balances BalanceInvalidator
	now      func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) WithBalanceInvalidator(inv BalanceInvalidator) {
	s.balances = inv
}

func (s *Service) Get(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	return s.repo.Get(ctx, companyID, entryID)
}

func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) ([]JournalEntry, error) {
	return s.repo.List(ctx, companyID, filter)
}

// Create records a new draft entry. Checks run accounts first, then the
// fiscal date, then the line rules, so the caller learns about a missing
// account before any balance complaint. The returned warnings flag lines
// that move an account against its natural balance side; they never block
// the write.
func (s *Service) Create(ctx context.Context, input CreateEntryInput) (JournalEntry, []string, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, nil, err
	}
	var entry JournalEntry
	var warnings []string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		byID, err := loadEntryAccounts(ctx, tx, input.CompanyID, input.Lines)
		if err != nil {
			return err
		}
		if err := checkEntryDate(ctx, tx, input.CompanyID, input.Date); err != nil {
			return err
		}
		if err := ValidateLines(input.Lines); err != nil {
			return err
		}
		number, err := tx.ReserveEntryNumber(ctx, input.CompanyID)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, JournalEntry{
			CompanyID:    input.CompanyID,
			Number:       number,
			Date:         input.Date,
			Description:  input.Description,
			Status:       StatusDraft,
			SourceModule: nilIfEmpty(input.SourceModule),
			SourceID:     nilIfZero(input.SourceID),
			CreatedBy:    input.CreatedBy,
		})
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, input.Lines); err != nil {
			return err
		}
		if input.SourceModule != "" {
			if err := tx.LinkSource(ctx, input.SourceModule, input.SourceID, inserted.ID); err != nil {
				return err
			}
		}
		entry = inserted
		entry.Lines = toLines(inserted.ID, input.Lines, s.now())
		warnings = NatureWarnings(input.Lines, byID)
		return nil
	})
	if err != nil {
		return JournalEntry{}, nil, err
	}
	s.record(ctx, input.CreatedBy, "entry.create", entry.ID, map[string]any{
		"number":   entry.Number,
		"warnings": len(warnings),
	})
	return entry, warnings, nil
}

// Post finalizes a draft. The balance is re-checked under lock because draft
// lines may have been rewritten since creation.
func (s *Service) Post(ctx context.Context, companyID, entryID int64, actor string) (JournalEntry, error) {
	if entryID == 0 {
		return JournalEntry{}, errors.New("ledger: entry id required")
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, companyID, entryID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(StatusPosted) {
			return ledgershared.ErrInvalidStatus
		}
		if err := ValidateLines(toLineInputs(current.Lines)); err != nil {
			return err
		}
		postDate := s.now()
		if err := tx.MarkPosted(ctx, current.ID, postDate); err != nil {
			return err
		}
		entry = current
		entry.Status = StatusPosted
		entry.PostDate = &postDate
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.invalidateBalances(ctx)
	s.record(ctx, actor, "entry.post", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

// ReverseInput carries the parameters for reversing a posted entry. A zero
// Date dates the reversal at the current time, not at the original's date.
type ReverseInput struct {
	CompanyID   int64
	EntryID     int64
	Date        time.Time
	Description string
	Actor       string
}

// Reverse creates a mirror entry with debits and credits swapped, posts it
// immediately, and links both entries to each other. The original flips to
// REVERSED in the same transaction.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, errors.New("ledger: entry id required")
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetForUpdate(ctx, input.CompanyID, input.EntryID)
		if err != nil {
			return err
		}
		if !original.Status.CanTransition(StatusReversed) {
			return ledgershared.ErrInvalidStatus
		}
		date := input.Date
		if date.IsZero() {
			date = s.now()
		}
		if err := checkEntryDate(ctx, tx, input.CompanyID, date); err != nil {
			return err
		}
		number, err := tx.ReserveEntryNumber(ctx, input.CompanyID)
		if err != nil {
			return err
		}
		reversedAt := s.now()
		inserted, err := tx.InsertEntry(ctx, JournalEntry{
			CompanyID:       input.CompanyID,
			Number:          number,
			Date:            date,
			Description:     reversalDescription(input.Description, original.Number),
			Status:          StatusPosted,
			PostDate:        &reversedAt,
			OriginalEntryID: &original.ID,
			CreatedBy:       input.Actor,
		})
		if err != nil {
			return err
		}
		lines := reverseLines(original.Lines)
		if err := tx.InsertLines(ctx, inserted.ID, lines); err != nil {
			return err
		}
		if err := tx.MarkReversed(ctx, original.ID, inserted.ID, input.Actor, reversedAt); err != nil {
			return err
		}
		reversal = inserted
		reversal.Lines = toLines(inserted.ID, lines, reversedAt)
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.invalidateBalances(ctx)
	s.record(ctx, input.Actor, "entry.reverse", input.EntryID, map[string]any{
		"reversal_id":     reversal.ID,
		"reversal_number": reversal.Number,
	})
	return reversal, nil
}

// UpdateDraft rewrites a draft's header and lines. Posted and reversed
// entries are immutable.
func (s *Service) UpdateDraft(ctx context.Context, input UpdateDraftInput) (JournalEntry, []string, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, nil, errors.New("ledger: entry id required")
	}
	var entry JournalEntry
	var warnings []string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, input.CompanyID, input.EntryID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ledgershared.ErrInvalidStatus
		}
		byID, err := loadEntryAccounts(ctx, tx, input.CompanyID, input.Lines)
		if err != nil {
			return err
		}
		if err := checkEntryDate(ctx, tx, input.CompanyID, input.Date); err != nil {
			return err
		}
		if err := ValidateLines(input.Lines); err != nil {
			return err
		}
		current.Date = input.Date
		current.Description = input.Description
		if err := tx.UpdateDraft(ctx, current); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, current.ID); err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, current.ID, input.Lines); err != nil {
			return err
		}
		entry = current
		entry.Lines = toLines(current.ID, input.Lines, s.now())
		warnings = NatureWarnings(input.Lines, byID)
		return nil
	})
	if err != nil {
		return JournalEntry{}, nil, err
	}
	s.record(ctx, input.Actor, "entry.update", entry.ID, map[string]any{"number": entry.Number})
	return entry, warnings, nil
}

// DeleteDraft removes a draft entry and its lines. The reserved number is not
// reclaimed, which leaves a visible gap in the sequence.
func (s *Service) DeleteDraft(ctx context.Context, companyID, entryID int64, actor string) error {
	if entryID == 0 {
		return errors.New("ledger: entry id required")
	}
	var number int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, companyID, entryID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ledgershared.ErrInvalidStatus
		}
		if err := tx.DeleteLines(ctx, current.ID); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, current.ID); err != nil {
			return err
		}
		number = current.Number
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, actor, "entry.delete", entryID, map[string]any{"number": number})
	return nil
}

// CreateClosing writes a year-end closing entry. It is born POSTED and
// flagged so the closer and the balance queries can exclude or detect it.
// At most one closing entry exists per fiscal range; a second attempt fails
// with ErrAlreadyClosed.
func (s *Service) CreateClosing(ctx context.Context, input ClosingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		start, end, err := tx.FiscalRange(ctx, input.CompanyID)
		if err != nil {
			return err
		}
		if !withinRange(input.Date, start, end) {
			return ledgershared.ErrDateOutsideFiscalYear
		}
		// The gate lives inside the transaction so two concurrent closes
		// cannot both pass it.
		closed, err := tx.HasClosingEntry(ctx, input.CompanyID, start, end)
		if err != nil {
			return err
		}
		if closed {
			return ledgershared.ErrAlreadyClosed
		}
		if _, err := loadEntryAccounts(ctx, tx, input.CompanyID, input.Lines); err != nil {
			return err
		}
		number, err := tx.ReserveEntryNumber(ctx, input.CompanyID)
		if err != nil {
			return err
		}
		postDate := s.now()
		inserted, err := tx.InsertEntry(ctx, JournalEntry{
			CompanyID:   input.CompanyID,
			Number:      number,
			Date:        input.Date,
			Description: input.Description,
			Status:      StatusPosted,
			PostDate:    &postDate,
			IsClosing:   true,
			CreatedBy:   input.CreatedBy,
		})
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, input.Lines); err != nil {
			return err
		}
		entry = inserted
		entry.Lines = toLines(inserted.ID, input.Lines, postDate)
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.invalidateBalances(ctx)
	s.record(ctx, input.CreatedBy, "entry.close", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

func (s *Service) HasClosingEntry(ctx context.Context, companyID int64, from, to time.Time) (bool, error) {
	return s.repo.HasClosingEntry(ctx, companyID, from, to)
}

func (s *Service) CountPostedInRange(ctx context.Context, companyID int64, from, to time.Time) (int64, error) {
	return s.repo.CountPostedInRange(ctx, companyID, from, to)
}

// invalidateBalances runs after any commit that changes posted totals. Cache
// errors never fail the write; a missed bump only extends staleness to the TTL.
func (s *Service) invalidateBalances(ctx context.Context) {
	if s.balances == nil {
		return
	}
	_ = s.balances.InvalidateCache(ctx)
}

func (s *Service) record(ctx context.Context, actor, action string, entryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entryID),
		Meta:     meta,
		At:       s.now(),
	})
}

func checkEntryDate(ctx context.Context, tx TxRepository, companyID int64, date time.Time) error {
	start, end, err := tx.FiscalRange(ctx, companyID)
	if err != nil {
		return err
	}
	if !withinRange(date, start, end) {
		return ledgershared.ErrDateOutsideFiscalYear
	}
	return nil
}

func withinRange(date, start, end time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	return !day.Before(start.Truncate(24*time.Hour)) && !day.After(end.Truncate(24*time.Hour))
}

func loadEntryAccounts(ctx context.Context, tx TxRepository, companyID int64, lines []LineInput) (map[int64]accounts.Account, error) {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			ids = append(ids, line.AccountID)
		}
	}
	byID, err := tx.AccountsByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		acc, ok := byID[id]
		if !ok {
			return nil, ledgershared.ErrAccountNotFound
		}
		if !acc.IsActive {
			return nil, ledgershared.ErrInactiveAccount
		}
	}
	return byID, nil
}

func reverseLines(lines []Line) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Credit,
			Credit:      line.Debit,
		})
	}
	return out
}

func toLines(entryID int64, lines []LineInput, ts time.Time) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, Line{
			EntryID:     entryID,
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
			CreatedAt:   ts,
		})
	}
	return out
}

func toLineInputs(lines []Line) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	return out
}

func reversalDescription(desc string, number int64) string {
	if desc != "" {
		return desc
	}
	return fmt.Sprintf("Reversal of entry N%d", number)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
