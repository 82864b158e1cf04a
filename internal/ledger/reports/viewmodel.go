package reports

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a monetary amount with thousand separators for the
// report views.
func FormatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

// TrialBalanceRowView is one formatted trial balance row.
type TrialBalanceRowView struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Opening string `json:"opening"`
	Debit   string `json:"debit"`
	Credit  string `json:"credit"`
	Closing string `json:"closing"`
}

// TrialBalanceGroupView is one formatted account class with its rows.
type TrialBalanceGroupView struct {
	Key      string                `json:"key"`
	Accounts []TrialBalanceRowView `json:"accounts"`
	Opening  string                `json:"opening"`
	Debit    string                `json:"debit"`
	Credit   string                `json:"credit"`
	Closing  string                `json:"closing"`
}

// TrialBalanceViewModel holds the rendered trial balance report.
type TrialBalanceViewModel struct {
	CompanyID    int64                   `json:"company_id"`
	PeriodLabel  string                  `json:"period_label"`
	Groups       []TrialBalanceGroupView `json:"groups"`
	TotalOpening string                  `json:"total_opening"`
	TotalDebit   string                  `json:"total_debit"`
	TotalCredit  string                  `json:"total_credit"`
	TotalClosing string                  `json:"total_closing"`
}

// NewTrialBalanceViewModel formats a computed trial balance for presentation.
func NewTrialBalanceViewModel(companyID int64, periodLabel string, tb TrialBalance) TrialBalanceViewModel {
	vm := TrialBalanceViewModel{
		CompanyID:    companyID,
		PeriodLabel:  periodLabel,
		TotalOpening: FormatAmount(tb.TotalOpening),
		TotalDebit:   FormatAmount(tb.TotalDebit),
		TotalCredit:  FormatAmount(tb.TotalCredit),
		TotalClosing: FormatAmount(tb.TotalClosing),
	}
	for _, grp := range tb.Groups {
		groupView := TrialBalanceGroupView{
			Key:     grp.Key,
			Opening: FormatAmount(grp.Opening),
			Debit:   FormatAmount(grp.Debit),
			Credit:  FormatAmount(grp.Credit),
			Closing: FormatAmount(grp.Closing),
		}
		for _, row := range grp.Accounts {
			groupView.Accounts = append(groupView.Accounts, TrialBalanceRowView{
				Code:    row.Code,
				Name:    row.Name,
				Opening: FormatAmount(row.Opening),
				Debit:   FormatAmount(row.Debit),
				Credit:  FormatAmount(row.Credit),
				Closing: FormatAmount(row.Closing),
			})
		}
		vm.Groups = append(vm.Groups, groupView)
	}
	return vm
}
