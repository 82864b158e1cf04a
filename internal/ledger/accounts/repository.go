package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	Insert(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) error
	Get(ctx context.Context, companyID, id int64) (Account, error)
	List(ctx context.Context, companyID int64, activeOnly bool) ([]Account, error)
	CodeExists(ctx context.Context, companyID int64, code string, excludeID int64) (bool, error)
	HasActiveChildren(ctx context.Context, companyID, id int64) (bool, error)
	HasMovements(ctx context.Context, companyID, id int64) (bool, error)
	LastCodeForRoot(ctx context.Context, companyID int64, rootPrefix string) (string, error)
	SetActive(ctx context.Context, companyID, id int64, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, company_id, code, name, type, nature, parent_id, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.Nature, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Insert(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (company_id, code, name, type, nature, parent_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6,TRUE) RETURNING `+accountColumns,
		account.CompanyID, account.Code, account.Name, account.Type, account.Nature, account.ParentID)
	inserted, err := scanAccount(row)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_accounts_company_code" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return inserted, nil
}

func (r *repository) Update(ctx context.Context, account Account) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET code=$3, name=$4, type=$5, nature=$6, parent_id=$7, updated_at=NOW()
WHERE id=$2 AND company_id=$1`,
		account.CompanyID, account.ID, account.Code, account.Name, account.Type, account.Nature, account.ParentID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_accounts_company_code" {
			return shared.ErrDuplicateCode
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$2 AND company_id=$1`, companyID, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) List(ctx context.Context, companyID int64, activeOnly bool) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE company_id=$1 ORDER BY code, id`
	if activeOnly {
		query = `SELECT ` + accountColumns + ` FROM accounts WHERE company_id=$1 AND is_active ORDER BY code, id`
	}
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) CodeExists(ctx context.Context, companyID int64, code string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE company_id=$1 AND code=$2 AND id<>$3)`,
		companyID, code, excludeID).Scan(&exists)
	return exists, err
}

func (r *repository) HasActiveChildren(ctx context.Context, companyID, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE company_id=$1 AND parent_id=$2 AND is_active)`,
		companyID, id).Scan(&exists)
	return exists, err
}

func (r *repository) HasMovements(ctx context.Context, companyID, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM journal_entry_lines l JOIN journal_entries e ON e.id = l.entry_id
WHERE e.company_id=$1 AND l.account_id=$2)`, companyID, id).Scan(&exists)
	return exists, err
}

func (r *repository) LastCodeForRoot(ctx context.Context, companyID int64, rootPrefix string) (string, error) {
	var code string
	err := r.db.QueryRow(ctx, `SELECT code FROM accounts WHERE company_id=$1 AND code LIKE $2 || '%' ORDER BY code DESC LIMIT 1`,
		companyID, rootPrefix).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return code, nil
}

func (r *repository) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET is_active=$3, updated_at=NOW() WHERE id=$2 AND company_id=$1`,
		companyID, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
