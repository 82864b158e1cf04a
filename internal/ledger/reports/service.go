package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/balances"
)

// AccountSource supplies the chart of accounts.
type AccountSource interface {
	List(ctx context.Context, companyID int64, activeOnly bool) ([]accounts.Account, error)
}

// BalanceSource supplies aggregated posted totals.
type BalanceSource interface {
	AllAccountBalances(ctx context.Context, companyID int64, upTo *time.Time) (map[int64]balances.Balance, error)
	RangeTotals(ctx context.Context, companyID int64, from, to time.Time, types []accounts.AccountType) (map[int64]balances.Balance, error)
}

// Service assembles read-only reports from the chart of accounts and the
// balance calculator.
type Service struct {
	accounts AccountSource
	balances BalanceSource
}

func NewService(accounts AccountSource, balances BalanceSource) *Service {
	return &Service{accounts: accounts, balances: balances}
}

// TrialBalance computes the grouped trial balance for a date window. Opening
// balances are taken at the day before the window starts. Accounts with no
// opening position and no movement in the window are omitted.
func (s *Service) TrialBalance(ctx context.Context, companyID int64, from, to time.Time) (TrialBalance, error) {
	chart, err := s.accounts.List(ctx, companyID, true)
	if err != nil {
		return TrialBalance{}, err
	}
	openingCutoff := from.AddDate(0, 0, -1)
	opening, err := s.balances.AllAccountBalances(ctx, companyID, &openingCutoff)
	if err != nil {
		return TrialBalance{}, err
	}
	movement, err := s.balances.RangeTotals(ctx, companyID, from, to, nil)
	if err != nil {
		return TrialBalance{}, err
	}
	rows := make([]AccountBalance, 0, len(chart))
	for _, acc := range chart {
		open := opening[acc.ID]
		move := movement[acc.ID]
		if open.Balance == 0 && move.Debit == 0 && move.Credit == 0 {
			continue
		}
		rows = append(rows, AccountBalance{
			Code:    acc.Code,
			Name:    acc.Name,
			Type:    string(acc.Type),
			Opening: open.Balance,
			Debit:   move.Debit,
			Credit:  move.Credit,
		})
	}
	return BuildTrialBalance(rows), nil
}

// TrialBalanceView is the formatted variant served over HTTP.
func (s *Service) TrialBalanceView(ctx context.Context, companyID int64, from, to time.Time) (TrialBalanceViewModel, error) {
	tb, err := s.TrialBalance(ctx, companyID, from, to)
	if err != nil {
		return TrialBalanceViewModel{}, err
	}
	label := fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	return NewTrialBalanceViewModel(companyID, label, tb), nil
}
