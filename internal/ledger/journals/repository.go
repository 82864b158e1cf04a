package journals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, companyID, entryID int64) (JournalEntry, error)
	List(ctx context.Context, companyID int64, filter ListFilter) ([]JournalEntry, error)
	HasClosingEntry(ctx context.Context, companyID int64, from, to time.Time) (bool, error)
	CountPostedInRange(ctx context.Context, companyID int64, from, to time.Time) (int64, error)
}

// TxRepository exposes the mutations available within one transaction, so an
// entry, its lines, and the counter bump commit or roll back together.
type TxRepository interface {
	ReserveEntryNumber(ctx context.Context, companyID int64) (int64, error)
	FiscalRange(ctx context.Context, companyID int64) (time.Time, time.Time, error)
	HasClosingEntry(ctx context.Context, companyID int64, from, to time.Time) (bool, error)
	AccountsByIDs(ctx context.Context, companyID int64, ids []int64) (map[int64]accounts.Account, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) error
	GetForUpdate(ctx context.Context, companyID, entryID int64) (JournalEntry, error)
	MarkPosted(ctx context.Context, entryID int64, postDate time.Time) error
	MarkReversed(ctx context.Context, entryID, reversalID int64, reversedBy string, at time.Time) error
	UpdateDraft(ctx context.Context, entry JournalEntry) error
	DeleteLines(ctx context.Context, entryID int64) error
	DeleteEntry(ctx context.Context, entryID int64) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, company_id, number, date, description, status, post_date,
original_entry_id, reversal_entry_id, is_closing, source_module, source_id,
created_by, reversed_by, reversed_at, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.CompanyID, &e.Number, &e.Date, &e.Description, &e.Status, &e.PostDate,
		&e.OriginalEntryID, &e.ReversalEntryID, &e.IsClosing, &e.SourceModule, &e.SourceID,
		&e.CreatedBy, &e.ReversedBy, &e.ReversedAt, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *repository) Get(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$2 AND company_id=$1`, companyID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.db, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) List(ctx context.Context, companyID int64, filter ListFilter) ([]JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE company_id=$1`
	args := []any{companyID}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND date <= $` + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY number DESC`
	if filter.PerPage > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		args = append(args, filter.PerPage)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		args = append(args, (page-1)*filter.PerPage)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) HasClosingEntry(ctx context.Context, companyID int64, from, to time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM journal_entries WHERE company_id=$1 AND is_closing AND status='POSTED' AND date BETWEEN $2 AND $3)`,
		companyID, from, to).Scan(&exists)
	return exists, err
}

func (r *repository) CountPostedInRange(ctx context.Context, companyID int64, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries
WHERE company_id=$1 AND status='POSTED' AND date BETWEEN $2 AND $3`, companyID, from, to).Scan(&count)
	return count, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q querier, entryID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, description, debit, credit, created_at
FROM journal_entry_lines WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Description, &line.Debit, &line.Credit, &line.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

// ReserveEntryNumber increments the company counter and returns the reserved
// number in one statement, so concurrent reservations serialize on the
// settings row and the sequence stays gapless.
func (r *txRepository) ReserveEntryNumber(ctx context.Context, companyID int64) (int64, error) {
	var number int64
	err := r.tx.QueryRow(ctx, `UPDATE accounting_settings SET last_entry_number = last_entry_number + 1, updated_at=NOW()
WHERE company_id=$1 RETURNING last_entry_number`, companyID).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrSettingsNotFound
		}
		return 0, err
	}
	return number, nil
}

func (r *txRepository) FiscalRange(ctx context.Context, companyID int64) (time.Time, time.Time, error) {
	var start, end time.Time
	err := r.tx.QueryRow(ctx, `SELECT fiscal_year_start, fiscal_year_end FROM accounting_settings WHERE company_id=$1`, companyID).
		Scan(&start, &end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, time.Time{}, shared.ErrSettingsNotFound
		}
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (r *txRepository) HasClosingEntry(ctx context.Context, companyID int64, from, to time.Time) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM journal_entries WHERE company_id=$1 AND is_closing AND status='POSTED' AND date BETWEEN $2 AND $3)`,
		companyID, from, to).Scan(&exists)
	return exists, err
}

func (r *txRepository) AccountsByIDs(ctx context.Context, companyID int64, ids []int64) (map[int64]accounts.Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, company_id, code, name, type, nature, parent_id, is_active, created_at, updated_at
FROM accounts WHERE company_id=$1 AND id = ANY($2)`, companyID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]accounts.Account, len(ids))
	for rows.Next() {
		var a accounts.Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.Nature, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(company_id, number, date, description, status, post_date, original_entry_id, is_closing, source_module, source_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id, created_at, updated_at`,
		entry.CompanyID, entry.Number, entry.Date, entry.Description, entry.Status, entry.PostDate,
		entry.OriginalEntryID, entry.IsClosing, entry.SourceModule, entry.SourceID, entry.CreatedBy)
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_entry_lines (entry_id, account_id, description, debit, credit)
VALUES ($1,$2,$3,$4,$5)`, entryID, line.AccountID, line.Description, toNumeric(line.Debit), toNumeric(line.Credit)); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE id=$2 AND company_id=$1 FOR UPDATE`, companyID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.tx, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *txRepository) MarkPosted(ctx context.Context, entryID int64, postDate time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='POSTED', post_date=$2, updated_at=NOW() WHERE id=$1`, entryID, postDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) MarkReversed(ctx context.Context, entryID, reversalID int64, reversedBy string, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='REVERSED', reversal_entry_id=$2, reversed_by=$3, reversed_at=$4, updated_at=NOW()
WHERE id=$1`, entryID, reversalID, reversedBy, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) UpdateDraft(ctx context.Context, entry JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET date=$2, description=$3, updated_at=NOW() WHERE id=$1`,
		entry.ID, entry.Date, entry.Description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) DeleteLines(ctx context.Context, entryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id=$1`, entryID)
	return err
}

func (r *txRepository) DeleteEntry(ctx context.Context, entryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, entryID)
	return err
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, entry_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_source_links" {
			return shared.ErrSourceAlreadyLinked
		}
		return err
	}
	return nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
