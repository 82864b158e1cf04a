package reports

import (
	"sort"
	"strings"
)

// AccountBalance is one account's aggregated position over the reporting
// window, as assembled by the service layer from the balance calculator.
type AccountBalance struct {
	Code    string
	Name    string
	Type    string
	Opening float64
	Debit   float64
	Credit  float64
}

// Closing applies the window movement to the opening position.
func (a AccountBalance) Closing() float64 {
	return a.Opening + a.Debit - a.Credit
}

// accountClass is the chart class of a code, the segment before the first
// dot. A code without dots is its own class.
func accountClass(code string) string {
	if idx := strings.IndexByte(code, '.'); idx > 0 {
		return code[:idx]
	}
	return code
}

// TrialBalanceAccount is one report row.
type TrialBalanceAccount struct {
	Code    string
	Name    string
	Opening float64
	Debit   float64
	Credit  float64
	Closing float64
}

// TrialBalanceGroup holds the rows of one account class with subtotals.
type TrialBalanceGroup struct {
	Key      string
	Accounts []TrialBalanceAccount
	Opening  float64
	Debit    float64
	Credit   float64
	Closing  float64
}

// TrialBalance is the grouped report with footer totals.
type TrialBalance struct {
	Groups       []TrialBalanceGroup
	TotalDebit   float64
	TotalCredit  float64
	TotalOpening float64
	TotalClosing float64
}

// BuildTrialBalance groups rows by account class with subtotals per class and
// totals for the report. Because the class is a prefix of the code, sorting
// rows by code once orders both the classes and the rows inside them.
func BuildTrialBalance(accounts []AccountBalance) TrialBalance {
	rows := make([]AccountBalance, len(accounts))
	copy(rows, accounts)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })

	var tb TrialBalance
	for _, acc := range rows {
		class := accountClass(acc.Code)
		if n := len(tb.Groups); n == 0 || tb.Groups[n-1].Key != class {
			tb.Groups = append(tb.Groups, TrialBalanceGroup{Key: class})
		}
		grp := &tb.Groups[len(tb.Groups)-1]

		row := TrialBalanceAccount{
			Code:    acc.Code,
			Name:    acc.Name,
			Opening: acc.Opening,
			Debit:   acc.Debit,
			Credit:  acc.Credit,
			Closing: acc.Closing(),
		}
		grp.Accounts = append(grp.Accounts, row)
		grp.Opening += row.Opening
		grp.Debit += row.Debit
		grp.Credit += row.Credit
		grp.Closing += row.Closing

		tb.TotalOpening += row.Opening
		tb.TotalDebit += row.Debit
		tb.TotalCredit += row.Credit
		tb.TotalClosing += row.Closing
	}
	return tb
}
