package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/balances"
)

func TestBuildTrialBalanceGroupsByRootSegment(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{Code: "1.1.1", Name: "Cash", Opening: 100, Debit: 500, Credit: 200},
		{Code: "1.2.1", Name: "Bank", Opening: 0, Debit: 300, Credit: 0},
		{Code: "4.1.1", Name: "Sales", Opening: 0, Debit: 0, Credit: 600},
	})

	require.Len(t, tb.Groups, 2)
	require.Equal(t, "1", tb.Groups[0].Key)
	require.Equal(t, "4", tb.Groups[1].Key)
	require.Len(t, tb.Groups[0].Accounts, 2)
	require.Equal(t, 400.0, tb.Groups[0].Accounts[0].Closing)
	require.Equal(t, 700.0, tb.Groups[0].Closing)
	require.Equal(t, 800.0, tb.TotalDebit)
	require.Equal(t, 800.0, tb.TotalCredit)
	require.Equal(t, 100.0, tb.TotalOpening)
	require.Equal(t, 100.0, tb.TotalClosing)
}

func TestBuildTrialBalanceSortsRowsWithinGroup(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{Code: "1.2.1", Name: "Bank"},
		{Code: "1.1.1", Name: "Cash"},
	})
	require.Equal(t, "1.1.1", tb.Groups[0].Accounts[0].Code)
	require.Equal(t, "1.2.1", tb.Groups[0].Accounts[1].Code)
}

func TestBuildTrialBalanceCollectsInterleavedClasses(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{Code: "4.1.1", Name: "Sales", Credit: 100},
		{Code: "1.1.1", Name: "Cash", Debit: 60},
		{Code: "4.2.1", Name: "Other income", Credit: 40},
		{Code: "1.2.1", Name: "Bank", Debit: 80},
	})

	require.Len(t, tb.Groups, 2)
	require.Equal(t, "1", tb.Groups[0].Key)
	require.Len(t, tb.Groups[0].Accounts, 2)
	require.Equal(t, "4", tb.Groups[1].Key)
	require.Len(t, tb.Groups[1].Accounts, 2)
	require.Equal(t, 140.0, tb.TotalDebit)
	require.Equal(t, 140.0, tb.TotalCredit)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "1,234,567.89", FormatAmount(1234567.89))
	require.Equal(t, "0.00", FormatAmount(0))
	require.Equal(t, "-42.50", FormatAmount(-42.5))
}

type stubAccounts struct {
	list []accounts.Account
}

func (s *stubAccounts) List(ctx context.Context, companyID int64, activeOnly bool) ([]accounts.Account, error) {
	return s.list, nil
}

type stubBalances struct {
	opening  map[int64]balances.Balance
	movement map[int64]balances.Balance
}

func (s *stubBalances) AllAccountBalances(ctx context.Context, companyID int64, upTo *time.Time) (map[int64]balances.Balance, error) {
	return s.opening, nil
}

func (s *stubBalances) RangeTotals(ctx context.Context, companyID int64, from, to time.Time, types []accounts.AccountType) (map[int64]balances.Balance, error) {
	return s.movement, nil
}

func TestTrialBalanceOmitsSilentAccounts(t *testing.T) {
	accts := &stubAccounts{list: []accounts.Account{
		{ID: 1, Code: "1.1.1", Name: "Cash", Type: accounts.AccountTypeAsset},
		{ID: 2, Code: "1.1.2", Name: "Petty cash", Type: accounts.AccountTypeAsset},
		{ID: 3, Code: "4.1.1", Name: "Sales", Type: accounts.AccountTypeRevenue},
	}}
	bals := &stubBalances{
		opening: map[int64]balances.Balance{
			1: {Debit: 100, Credit: 0, Balance: 100},
		},
		movement: map[int64]balances.Balance{
			3: {Debit: 0, Credit: 250, Balance: -250},
		},
	}
	svc := NewService(accts, bals)

	tb, err := svc.TrialBalance(context.Background(), 1,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var codes []string
	for _, grp := range tb.Groups {
		for _, row := range grp.Accounts {
			codes = append(codes, row.Code)
		}
	}
	require.Equal(t, []string{"1.1.1", "4.1.1"}, codes)
	require.Equal(t, 100.0, tb.TotalOpening)
	require.Equal(t, 250.0, tb.TotalCredit)
}
