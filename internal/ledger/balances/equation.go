package balances

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

var equationGroup singleflight.Group

// VerifyEquation evaluates assets = liabilities + equity + current result at
// the cutoff. Because posted entries always balance, a consistent ledger
// yields a zero difference; drift indicates corrupted or bypassed writes.
// The result is data, never an error, and is cached per company and cutoff.
func (s *Service) VerifyEquation(ctx context.Context, companyID int64, upTo *time.Time) (EquationReport, error) {
	key, err := s.cache.BuildKey(ctx, keyEquation(companyID, upTo)...)
	if err != nil {
		return EquationReport{}, err
	}
	var report EquationReport
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		built, err, _ := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
			return s.buildEquationReport(ctx, companyID, upTo)
		})
		if err != nil {
			return nil, err
		}
		return built, nil
	})
	if err != nil {
		return EquationReport{}, err
	}
	return report, nil
}

func (s *Service) buildEquationReport(ctx context.Context, companyID int64, upTo *time.Time) (EquationReport, error) {
	byType, err := s.BalanceByType(ctx, companyID, upTo)
	if err != nil {
		return EquationReport{}, err
	}
	report := EquationReport{
		CompanyID:   companyID,
		UpTo:        upTo,
		Assets:      byType[accounts.AccountTypeAsset].Natural(false),
		Liabilities: byType[accounts.AccountTypeLiability].Natural(true),
		Equity:      byType[accounts.AccountTypeEquity].Natural(true),
		Revenue:     byType[accounts.AccountTypeRevenue].Natural(true),
		Expense:     byType[accounts.AccountTypeExpense].Natural(false),
	}
	report.CurrentResult = report.Revenue - report.Expense
	report.Difference = report.Assets - (report.Liabilities + report.Equity + report.CurrentResult)
	report.IsBalanced = math.Abs(report.Difference) < shared.Tolerance
	return report, nil
}

func singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	resultChan := equationGroup.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
