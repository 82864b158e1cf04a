package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// Repository encapsulates DB operations for recurring templates.
type Repository interface {
	Insert(ctx context.Context, template Template) (Template, error)
	Update(ctx context.Context, template Template) error
	Get(ctx context.Context, companyID, templateID int64) (Template, error)
	List(ctx context.Context, companyID int64, activeOnly bool) ([]Template, error)
	ListDue(ctx context.Context, companyID int64, now time.Time) ([]Template, error)
	SetActive(ctx context.Context, companyID, templateID int64, active bool) error
	AdvanceSchedule(ctx context.Context, templateID int64, lastGenerated, nextDueDate time.Time) error
	ReplaceLines(ctx context.Context, templateID int64, lines []TemplateLine) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const templateColumns = `id, company_id, name, description, frequency, start_date, next_due_date,
last_generated, end_date, is_active, created_by, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.CompanyID, &t.Name, &t.Description, &t.Frequency, &t.StartDate, &t.NextDueDate,
		&t.LastGenerated, &t.EndDate, &t.IsActive, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *repository) Insert(ctx context.Context, template Template) (Template, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO recurring_templates
(company_id, name, description, frequency, start_date, next_due_date, end_date, is_active, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE,$8) RETURNING id, created_at, updated_at`,
		template.CompanyID, template.Name, template.Description, template.Frequency, template.StartDate,
		template.NextDueDate, template.EndDate, template.CreatedBy)
	if err := row.Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt); err != nil {
		return Template{}, err
	}
	template.IsActive = true
	if err := r.insertLines(ctx, template.ID, template.Lines); err != nil {
		return Template{}, err
	}
	return template, nil
}

func (r *repository) insertLines(ctx context.Context, templateID int64, lines []TemplateLine) error {
	for _, line := range lines {
		if _, err := r.db.Exec(ctx, `INSERT INTO recurring_template_lines
(template_id, account_id, description, debit, credit) VALUES ($1,$2,$3,$4,$5)`,
			templateID, line.AccountID, line.Description, toNumeric(line.Debit), toNumeric(line.Credit)); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Update(ctx context.Context, template Template) error {
	cmd, err := r.db.Exec(ctx, `UPDATE recurring_templates
SET name=$2, description=$3, frequency=$4, end_date=$5, updated_at=NOW() WHERE id=$1`,
		template.ID, template.Name, template.Description, template.Frequency, template.EndDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTemplateNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, companyID, templateID int64) (Template, error) {
	template, err := scanTemplate(r.db.QueryRow(ctx, `SELECT `+templateColumns+`
FROM recurring_templates WHERE id=$2 AND company_id=$1`, companyID, templateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, shared.ErrTemplateNotFound
		}
		return Template{}, err
	}
	lines, err := r.queryLines(ctx, templateID)
	if err != nil {
		return Template{}, err
	}
	template.Lines = lines
	return template, nil
}

func (r *repository) queryLines(ctx context.Context, templateID int64) ([]TemplateLine, error) {
	rows, err := r.db.Query(ctx, `SELECT id, template_id, account_id, description, debit, credit
FROM recurring_template_lines WHERE template_id=$1 ORDER BY id ASC`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []TemplateLine
	for rows.Next() {
		var line TemplateLine
		if err := rows.Scan(&line.ID, &line.TemplateID, &line.AccountID, &line.Description, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, companyID int64, activeOnly bool) ([]Template, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates WHERE company_id=$1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name ASC`
	return r.queryTemplates(ctx, query, companyID)
}

func (r *repository) ListDue(ctx context.Context, companyID int64, now time.Time) ([]Template, error) {
	return r.queryTemplates(ctx, `SELECT `+templateColumns+` FROM recurring_templates
WHERE company_id=$1 AND is_active AND next_due_date <= $2 AND (end_date IS NULL OR end_date >= $2)
ORDER BY next_due_date ASC`, companyID, now)
}

func (r *repository) queryTemplates(ctx context.Context, query string, args ...any) ([]Template, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *repository) SetActive(ctx context.Context, companyID, templateID int64, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE recurring_templates SET is_active=$3, updated_at=NOW()
WHERE id=$2 AND company_id=$1`, companyID, templateID, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTemplateNotFound
	}
	return nil
}

func (r *repository) AdvanceSchedule(ctx context.Context, templateID int64, lastGenerated, nextDueDate time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE recurring_templates
SET last_generated=$2, next_due_date=$3, updated_at=NOW() WHERE id=$1`, templateID, lastGenerated, nextDueDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTemplateNotFound
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, templateID int64, lines []TemplateLine) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM recurring_template_lines WHERE template_id=$1`, templateID); err != nil {
		return err
	}
	return r.insertLines(ctx, templateID, lines)
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
