package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// Repository encapsulates DB operations for accounting settings.
type Repository interface {
	Get(ctx context.Context, companyID int64) (Settings, error)
	Upsert(ctx context.Context, in UpsertInput) (Settings, error)
	CompanyIDs(ctx context.Context) ([]int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const settingsColumns = `company_id, fiscal_year_start, fiscal_year_end, last_entry_number, result_account_id,
sales_account_id, purchases_account_id, receivable_account_id, payable_account_id, created_at, updated_at`

func scanSettings(row pgx.Row) (Settings, error) {
	var s Settings
	err := row.Scan(&s.CompanyID, &s.FiscalYearStart, &s.FiscalYearEnd, &s.LastEntryNumber, &s.ResultAccountID,
		&s.SalesAccountID, &s.PurchasesAccountID, &s.ReceivableAccountID, &s.PayableAccountID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) Get(ctx context.Context, companyID int64) (Settings, error) {
	row := r.db.QueryRow(ctx, `SELECT `+settingsColumns+` FROM accounting_settings WHERE company_id=$1`, companyID)
	s, err := scanSettings(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, shared.ErrSettingsNotFound
		}
		return Settings{}, err
	}
	return s, nil
}

func (r *repository) CompanyIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT company_id FROM accounting_settings ORDER BY company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) Upsert(ctx context.Context, in UpsertInput) (Settings, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounting_settings
(company_id, fiscal_year_start, fiscal_year_end, last_entry_number, result_account_id,
 sales_account_id, purchases_account_id, receivable_account_id, payable_account_id)
VALUES ($1,$2,$3,0,$4,$5,$6,$7,$8)
ON CONFLICT (company_id) DO UPDATE SET
 fiscal_year_start=EXCLUDED.fiscal_year_start,
 fiscal_year_end=EXCLUDED.fiscal_year_end,
 result_account_id=EXCLUDED.result_account_id,
 sales_account_id=EXCLUDED.sales_account_id,
 purchases_account_id=EXCLUDED.purchases_account_id,
 receivable_account_id=EXCLUDED.receivable_account_id,
 payable_account_id=EXCLUDED.payable_account_id,
 updated_at=NOW()
RETURNING `+settingsColumns,
		in.CompanyID, in.FiscalYearStart, in.FiscalYearEnd, in.ResultAccountID,
		in.SalesAccountID, in.PurchasesAccountID, in.ReceivableAccountID, in.PayableAccountID)
	return scanSettings(row)
}
