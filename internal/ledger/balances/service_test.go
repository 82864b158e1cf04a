package balances

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	_ "github.com/gestio-erp/gestio-erp/internal/testing/guard"
)

type mockRepo struct {
	byAccount   map[int64]Balance
	byType      map[accounts.AccountType]Balance
	rangeTotals map[int64]Balance

	accountCalls int
	typeCalls    int
	lastUpTo     *time.Time
}

func (m *mockRepo) AccountTotals(ctx context.Context, companyID, accountID int64, upTo *time.Time) (Balance, error) {
	m.accountCalls++
	m.lastUpTo = upTo
	return m.byAccount[accountID], nil
}

func (m *mockRepo) AllAccountTotals(ctx context.Context, companyID int64, upTo *time.Time) (map[int64]Balance, error) {
	return m.byAccount, nil
}

func (m *mockRepo) TotalsByType(ctx context.Context, companyID int64, upTo *time.Time) (map[accounts.AccountType]Balance, error) {
	m.typeCalls++
	return m.byType, nil
}

func (m *mockRepo) RangeTotals(ctx context.Context, companyID int64, from, to time.Time, types []accounts.AccountType) (map[int64]Balance, error) {
	return m.rangeTotals, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func withBalance(debit, credit float64) Balance {
	return Balance{Debit: debit, Credit: credit, Balance: debit - credit}
}

func TestBalanceByTypeAlwaysHasFiveKeys(t *testing.T) {
	repo := &mockRepo{byType: map[accounts.AccountType]Balance{
		accounts.AccountTypeAsset: withBalance(500, 0),
	}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	byType, err := svc.BalanceByType(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Len(t, byType, 5)
	require.Equal(t, 500.0, byType[accounts.AccountTypeAsset].Balance)
	require.Zero(t, byType[accounts.AccountTypeLiability].Balance)
	require.Zero(t, byType[accounts.AccountTypeExpense].Balance)
}

func TestOpeningBalanceUsesDayBeforePeriodStart(t *testing.T) {
	repo := &mockRepo{byAccount: map[int64]Balance{7: withBalance(300, 100)}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	periodStart := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	balance, err := svc.OpeningBalance(context.Background(), 1, 7, periodStart)
	require.NoError(t, err)
	require.Equal(t, 200.0, balance.Balance)
	require.NotNil(t, repo.lastUpTo)
	require.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), *repo.lastUpTo)
}

func TestNaturalBalanceFlipsForCreditNature(t *testing.T) {
	b := withBalance(100, 700)
	require.Equal(t, -600.0, b.Natural(false))
	require.Equal(t, 600.0, b.Natural(true))
}

func TestVerifyEquationBalancedLedger(t *testing.T) {
	// Cash 1000 debit funded by 800 capital and 200 revenue.
	repo := &mockRepo{byType: map[accounts.AccountType]Balance{
		accounts.AccountTypeAsset:   withBalance(1000, 0),
		accounts.AccountTypeEquity:  withBalance(0, 800),
		accounts.AccountTypeRevenue: withBalance(0, 200),
	}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	report, err := svc.VerifyEquation(context.Background(), 1, nil)
	require.NoError(t, err)
	require.True(t, report.IsBalanced)
	require.Equal(t, 1000.0, report.Assets)
	require.Equal(t, 800.0, report.Equity)
	require.Equal(t, 200.0, report.Revenue)
	require.Equal(t, 200.0, report.CurrentResult)
	require.InDelta(t, 0, report.Difference, 0.001)
}

func TestVerifyEquationReportsDriftAsData(t *testing.T) {
	repo := &mockRepo{byType: map[accounts.AccountType]Balance{
		accounts.AccountTypeAsset:     withBalance(1000, 0),
		accounts.AccountTypeLiability: withBalance(0, 600),
	}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	report, err := svc.VerifyEquation(context.Background(), 1, nil)
	require.NoError(t, err)
	require.False(t, report.IsBalanced)
	require.InDelta(t, 400.0, report.Difference, 0.001)
}

func TestVerifyEquationCachesUntilInvalidated(t *testing.T) {
	repo := &mockRepo{byType: map[accounts.AccountType]Balance{
		accounts.AccountTypeAsset: withBalance(100, 0),
	}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.VerifyEquation(ctx, 1, nil)
	require.NoError(t, err)
	_, err = svc.VerifyEquation(ctx, 1, nil)
	require.NoError(t, err)
	require.Equal(t, 1, repo.typeCalls)

	require.NoError(t, svc.InvalidateCache(ctx))
	_, err = svc.VerifyEquation(ctx, 1, nil)
	require.NoError(t, err)
	require.Equal(t, 2, repo.typeCalls)
}
