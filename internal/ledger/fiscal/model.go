package fiscal

import "time"

// ClosingLine is one line of the planned closing entry.
type ClosingLine struct {
	AccountID   int64   `json:"account_id"`
	AccountCode string  `json:"account_code"`
	AccountName string  `json:"account_name"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

// ClosePreview describes the closing entry that CloseFiscalYear would post:
// one line per revenue or expense account inverting its year balance, plus a
// balancing line against the result account.
type ClosePreview struct {
	CompanyID       int64         `json:"company_id"`
	FiscalYearStart time.Time     `json:"fiscal_year_start"`
	FiscalYearEnd   time.Time     `json:"fiscal_year_end"`
	ResultAccountID int64         `json:"result_account_id"`
	Lines           []ClosingLine `json:"lines"`
	TotalRevenue    float64       `json:"total_revenue"`
	TotalExpense    float64       `json:"total_expense"`
	NetResult       float64       `json:"net_result"`
}

// StatusReport summarizes where the company stands in its fiscal year.
type StatusReport struct {
	CompanyID       int64     `json:"company_id"`
	FiscalYearStart time.Time `json:"fiscal_year_start"`
	FiscalYearEnd   time.Time `json:"fiscal_year_end"`
	Closed          bool      `json:"closed"`
	PostedEntries   int64     `json:"posted_entries"`
	ResultAccountID *int64    `json:"result_account_id,omitempty"`
}
