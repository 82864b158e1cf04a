package fiscal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/balances"
	"github.com/gestio-erp/gestio-erp/internal/ledger/journals"
	"github.com/gestio-erp/gestio-erp/internal/ledger/settings"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// closingDescriptionPrefix labels closing entries for operators. Detection of
// an existing close relies on the IsClosing flag, not on this text.
const closingDescriptionPrefix = "Fiscal year closing"

type SettingsPort interface {
	Get(ctx context.Context, companyID int64) (settings.Settings, error)
}

type AccountPort interface {
	List(ctx context.Context, companyID int64, activeOnly bool) ([]accounts.Account, error)
}

type BalancePort interface {
	RangeTotals(ctx context.Context, companyID int64, from, to time.Time, types []accounts.AccountType) (map[int64]balances.Balance, error)
}

type JournalPort interface {
	CreateClosing(ctx context.Context, input journals.ClosingInput) (journals.JournalEntry, error)
	HasClosingEntry(ctx context.Context, companyID int64, from, to time.Time) (bool, error)
	CountPostedInRange(ctx context.Context, companyID int64, from, to time.Time) (int64, error)
}

// Service performs the year-end close: it zeroes every revenue and expense
// account into the configured result account with a single posted entry.
type Service struct {
	settings SettingsPort
	accounts AccountPort
	balances BalancePort
	journals JournalPort
}

func NewService(settings SettingsPort, accounts AccountPort, balances BalancePort, journals JournalPort) *Service {
	return &Service{settings: settings, accounts: accounts, balances: balances, journals: journals}
}

// PreviewClose computes the closing entry without writing anything.
func (s *Service) PreviewClose(ctx context.Context, companyID int64) (ClosePreview, error) {
	cfg, err := s.settings.Get(ctx, companyID)
	if err != nil {
		return ClosePreview{}, err
	}
	if cfg.ResultAccountID == nil {
		return ClosePreview{}, shared.ErrMissingResultAccount
	}
	chart, err := s.accounts.List(ctx, companyID, true)
	if err != nil {
		return ClosePreview{}, err
	}
	totals, err := s.balances.RangeTotals(ctx, companyID, cfg.FiscalYearStart, cfg.FiscalYearEnd,
		[]accounts.AccountType{accounts.AccountTypeRevenue, accounts.AccountTypeExpense})
	if err != nil {
		return ClosePreview{}, err
	}

	preview := ClosePreview{
		CompanyID:       companyID,
		FiscalYearStart: cfg.FiscalYearStart,
		FiscalYearEnd:   cfg.FiscalYearEnd,
		ResultAccountID: *cfg.ResultAccountID,
	}
	sort.Slice(chart, func(i, j int) bool { return chart[i].Code < chart[j].Code })
	var totalDebit, totalCredit float64
	for _, acc := range chart {
		if acc.Type != accounts.AccountTypeRevenue && acc.Type != accounts.AccountTypeExpense {
			continue
		}
		net := totals[acc.ID].Balance
		if math.Abs(net) < shared.Tolerance {
			continue
		}
		// Invert the standing balance so the account nets to zero: a
		// net-credit balance closes with a debit line and vice versa.
		line := ClosingLine{AccountID: acc.ID, AccountCode: acc.Code, AccountName: acc.Name}
		if net < 0 {
			line.Debit = -net
		} else {
			line.Credit = net
		}
		preview.Lines = append(preview.Lines, line)
		totalDebit += line.Debit
		totalCredit += line.Credit
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			preview.TotalRevenue += math.Abs(net)
		case accounts.AccountTypeExpense:
			preview.TotalExpense += math.Abs(net)
		}
	}
	preview.NetResult = preview.TotalRevenue - preview.TotalExpense

	if len(preview.Lines) > 0 && math.Abs(totalDebit-totalCredit) >= shared.Tolerance {
		result := ClosingLine{AccountID: *cfg.ResultAccountID}
		if totalDebit > totalCredit {
			result.Credit = totalDebit - totalCredit
		} else {
			result.Debit = totalCredit - totalDebit
		}
		preview.Lines = append(preview.Lines, result)
	}
	return preview, nil
}

// CloseFiscalYear posts the closing entry computed by PreviewClose. The entry
// is dated at the fiscal year end and born POSTED.
func (s *Service) CloseFiscalYear(ctx context.Context, companyID int64, actor string) (journals.JournalEntry, error) {
	cfg, err := s.settings.Get(ctx, companyID)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	closed, err := s.journals.HasClosingEntry(ctx, companyID, cfg.FiscalYearStart, cfg.FiscalYearEnd)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	if closed {
		return journals.JournalEntry{}, shared.ErrAlreadyClosed
	}
	preview, err := s.PreviewClose(ctx, companyID)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	if len(preview.Lines) == 0 {
		return journals.JournalEntry{}, shared.ErrNothingToClose
	}
	lines := make([]journals.LineInput, 0, len(preview.Lines))
	for _, line := range preview.Lines {
		lines = append(lines, journals.LineInput{
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	return s.journals.CreateClosing(ctx, journals.ClosingInput{
		CompanyID:   companyID,
		Date:        cfg.FiscalYearEnd,
		Description: fmt.Sprintf("%s %d", closingDescriptionPrefix, cfg.FiscalYearEnd.Year()),
		CreatedBy:   actor,
		Lines:       lines,
	})
}

// Status reports the fiscal window, whether it has been closed, and how many
// posted entries it contains.
func (s *Service) Status(ctx context.Context, companyID int64) (StatusReport, error) {
	cfg, err := s.settings.Get(ctx, companyID)
	if err != nil {
		return StatusReport{}, err
	}
	closed, err := s.journals.HasClosingEntry(ctx, companyID, cfg.FiscalYearStart, cfg.FiscalYearEnd)
	if err != nil {
		return StatusReport{}, err
	}
	count, err := s.journals.CountPostedInRange(ctx, companyID, cfg.FiscalYearStart, cfg.FiscalYearEnd)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{
		CompanyID:       companyID,
		FiscalYearStart: cfg.FiscalYearStart,
		FiscalYearEnd:   cfg.FiscalYearEnd,
		Closed:          closed,
		PostedEntries:   count,
		ResultAccountID: cfg.ResultAccountID,
	}, nil
}
