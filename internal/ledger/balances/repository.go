package balances

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// Repository aggregates posted journal lines. All queries are read-only and
// computed in one grouped pass, never per-account loops.
type Repository interface {
	AccountTotals(ctx context.Context, companyID, accountID int64, upTo *time.Time) (Balance, error)
	AllAccountTotals(ctx context.Context, companyID int64, upTo *time.Time) (map[int64]Balance, error)
	TotalsByType(ctx context.Context, companyID int64, upTo *time.Time) (map[accounts.AccountType]Balance, error)
	RangeTotals(ctx context.Context, companyID int64, from, to time.Time, types []accounts.AccountType) (map[int64]Balance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const postedLinesFrom = ` FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.company_id = $1 AND e.status = 'POSTED'`

func (r *repository) AccountTotals(ctx context.Context, companyID, accountID int64, upTo *time.Time) (Balance, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id=$2 AND company_id=$1)`, companyID, accountID).Scan(&exists); err != nil {
		return Balance{}, err
	}
	if !exists {
		return Balance{}, shared.ErrAccountNotFound
	}
	query := `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)` + postedLinesFrom + ` AND l.account_id = $2`
	args := []any{companyID, accountID}
	if upTo != nil {
		args = append(args, *upTo)
		query += ` AND e.date <= $` + strconv.Itoa(len(args))
	}
	var b Balance
	err := r.db.QueryRow(ctx, query, args...).Scan(&b.Debit, &b.Credit)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, err
	}
	b.Balance = b.Debit - b.Credit
	return b, nil
}

func (r *repository) AllAccountTotals(ctx context.Context, companyID int64, upTo *time.Time) (map[int64]Balance, error) {
	query := `SELECT l.account_id, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)` + postedLinesFrom + ` AND a.is_active`
	args := []any{companyID}
	if upTo != nil {
		args = append(args, *upTo)
		query += ` AND e.date <= $` + strconv.Itoa(len(args))
	}
	query += ` GROUP BY l.account_id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]Balance)
	for rows.Next() {
		var id int64
		var b Balance
		if err := rows.Scan(&id, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		b.Balance = b.Debit - b.Credit
		out[id] = b
	}
	return out, rows.Err()
}

func (r *repository) TotalsByType(ctx context.Context, companyID int64, upTo *time.Time) (map[accounts.AccountType]Balance, error) {
	query := `SELECT a.type, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)` + postedLinesFrom + ` AND a.is_active`
	args := []any{companyID}
	if upTo != nil {
		args = append(args, *upTo)
		query += ` AND e.date <= $` + strconv.Itoa(len(args))
	}
	query += ` GROUP BY a.type`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[accounts.AccountType]Balance, len(accounts.AccountTypes))
	for rows.Next() {
		var t accounts.AccountType
		var b Balance
		if err := rows.Scan(&t, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		b.Balance = b.Debit - b.Credit
		out[t] = b
	}
	return out, rows.Err()
}

func (r *repository) RangeTotals(ctx context.Context, companyID int64, from, to time.Time, types []accounts.AccountType) (map[int64]Balance, error) {
	query := `SELECT l.account_id, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)` + postedLinesFrom +
		` AND a.is_active AND e.date BETWEEN $2 AND $3`
	args := []any{companyID, from, to}
	if len(types) > 0 {
		names := make([]string, 0, len(types))
		for _, t := range types {
			names = append(names, string(t))
		}
		args = append(args, names)
		query += ` AND a.type = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	query += ` GROUP BY l.account_id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]Balance)
	for rows.Next() {
		var id int64
		var b Balance
		if err := rows.Scan(&id, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		b.Balance = b.Debit - b.Credit
		out[id] = b
	}
	return out, rows.Err()
}
