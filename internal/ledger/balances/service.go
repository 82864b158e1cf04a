package balances

import (
	"context"
	"time"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
)

// Service is the read side of the ledger. It never writes journal rows and
// only sees POSTED entries.
type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// AccountBalance sums all posted lines of one account, optionally up to and
// including a cutoff date.
func (s *Service) AccountBalance(ctx context.Context, companyID, accountID int64, upTo *time.Time) (Balance, error) {
	return s.repo.AccountTotals(ctx, companyID, accountID, upTo)
}

// AllAccountBalances returns the same aggregate for every active account.
// Accounts without posted movement are absent from the map.
func (s *Service) AllAccountBalances(ctx context.Context, companyID int64, upTo *time.Time) (map[int64]Balance, error) {
	return s.repo.AllAccountTotals(ctx, companyID, upTo)
}

// BalanceByType aggregates raw balances per account type. All five types are
// always present in the result, zero-valued when silent.
func (s *Service) BalanceByType(ctx context.Context, companyID int64, upTo *time.Time) (map[accounts.AccountType]Balance, error) {
	totals, err := s.repo.TotalsByType(ctx, companyID, upTo)
	if err != nil {
		return nil, err
	}
	out := make(map[accounts.AccountType]Balance, len(accounts.AccountTypes))
	for _, t := range accounts.AccountTypes {
		out[t] = totals[t]
	}
	return out, nil
}

// OpeningBalance is the account balance at the day before the period starts.
func (s *Service) OpeningBalance(ctx context.Context, companyID, accountID int64, periodStart time.Time) (Balance, error) {
	upTo := periodStart.AddDate(0, 0, -1)
	return s.repo.AccountTotals(ctx, companyID, accountID, &upTo)
}

// RangeTotals exposes per-account totals within a date window, optionally
// narrowed to account types. The fiscal closer builds its preview from this.
func (s *Service) RangeTotals(ctx context.Context, companyID int64, from, to time.Time, types []accounts.AccountType) (map[int64]Balance, error) {
	return s.repo.RangeTotals(ctx, companyID, from, to, types)
}

// InvalidateCache drops all cached equation reports. Called after posting
// activity changes the read side.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
