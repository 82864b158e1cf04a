package balances

import "time"

// Balance is the raw aggregate for one account: total debit, total credit,
// and debit minus credit. The sign is nature-agnostic; credit-nature callers
// negate it to obtain the natural balance.
type Balance struct {
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
	Balance float64 `json:"balance"`
}

// Natural returns the balance seen from the account's habitual side.
func (b Balance) Natural(creditNature bool) float64 {
	if creditNature {
		return -b.Balance
	}
	return b.Balance
}

// EquationReport captures one evaluation of assets = liabilities + equity.
// All amounts are natural balances. CurrentResult is revenue minus expense,
// the not-yet-closed portion of equity. An unbalanced report is a
// data-integrity signal, not an error.
type EquationReport struct {
	CompanyID     int64      `json:"company_id"`
	UpTo          *time.Time `json:"up_to,omitempty"`
	Assets        float64    `json:"assets"`
	Liabilities   float64    `json:"liabilities"`
	Equity        float64    `json:"equity"`
	Revenue       float64    `json:"revenue"`
	Expense       float64    `json:"expense"`
	CurrentResult float64    `json:"current_result"`
	Difference    float64    `json:"difference"`
	IsBalanced    bool       `json:"is_balanced"`
}
