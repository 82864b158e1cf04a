package fiscal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/balances"
	"github.com/gestio-erp/gestio-erp/internal/ledger/journals"
	"github.com/gestio-erp/gestio-erp/internal/ledger/settings"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

var (
	yearStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

type stubSettings struct {
	cfg settings.Settings
	err error
}

func (s *stubSettings) Get(ctx context.Context, companyID int64) (settings.Settings, error) {
	if s.err != nil {
		return settings.Settings{}, s.err
	}
	return s.cfg, nil
}

type stubAccounts struct {
	list []accounts.Account
}

func (s *stubAccounts) List(ctx context.Context, companyID int64, activeOnly bool) ([]accounts.Account, error) {
	return s.list, nil
}

type stubBalances struct {
	totals map[int64]balances.Balance
}

func (s *stubBalances) RangeTotals(ctx context.Context, companyID int64, from, to time.Time, types []accounts.AccountType) (map[int64]balances.Balance, error) {
	return s.totals, nil
}

type stubJournals struct {
	closed  bool
	created []journals.ClosingInput
	next    int64
}

func (s *stubJournals) CreateClosing(ctx context.Context, input journals.ClosingInput) (journals.JournalEntry, error) {
	s.created = append(s.created, input)
	s.closed = true
	s.next++
	lines := make([]journals.Line, 0, len(input.Lines))
	for _, l := range input.Lines {
		lines = append(lines, journals.Line{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit})
	}
	return journals.JournalEntry{
		ID:        s.next,
		CompanyID: input.CompanyID,
		Number:    s.next,
		Date:      input.Date,
		Status:    journals.StatusPosted,
		IsClosing: true,
		Lines:     lines,
	}, nil
}

func (s *stubJournals) HasClosingEntry(ctx context.Context, companyID int64, from, to time.Time) (bool, error) {
	return s.closed, nil
}

func (s *stubJournals) CountPostedInRange(ctx context.Context, companyID int64, from, to time.Time) (int64, error) {
	return int64(len(s.created)), nil
}

func newCloserFixture() (*Service, *stubJournals) {
	resultAccount := int64(10)
	cfg := &stubSettings{cfg: settings.Settings{
		CompanyID:       1,
		FiscalYearStart: yearStart,
		FiscalYearEnd:   yearEnd,
		ResultAccountID: &resultAccount,
	}}
	chart := &stubAccounts{list: []accounts.Account{
		{ID: 10, Code: "3.9.1", Name: "Result of the year", Type: accounts.AccountTypeEquity},
		{ID: 2, Code: "4.1.1", Name: "Sales", Type: accounts.AccountTypeRevenue},
		{ID: 3, Code: "5.1.1", Name: "Rent", Type: accounts.AccountTypeExpense},
	}}
	totals := &stubBalances{totals: map[int64]balances.Balance{
		2: {Debit: 0, Credit: 1000, Balance: -1000},
		3: {Debit: 400, Credit: 0, Balance: 400},
	}}
	jr := &stubJournals{}
	return NewService(cfg, chart, totals, jr), jr
}

func TestPreviewCloseBuildsInvertedLines(t *testing.T) {
	svc, _ := newCloserFixture()

	preview, err := svc.PreviewClose(context.Background(), 1)
	require.NoError(t, err)

	// Revenue closes with a debit, expense with a credit, and the result
	// account receives the 600 difference as a credit.
	require.Len(t, preview.Lines, 3)
	require.Equal(t, ClosingLine{AccountID: 2, AccountCode: "4.1.1", AccountName: "Sales", Debit: 1000}, preview.Lines[0])
	require.Equal(t, ClosingLine{AccountID: 3, AccountCode: "5.1.1", AccountName: "Rent", Credit: 400}, preview.Lines[1])
	require.Equal(t, ClosingLine{AccountID: 10, Credit: 600}, preview.Lines[2])

	require.Equal(t, 1000.0, preview.TotalRevenue)
	require.Equal(t, 400.0, preview.TotalExpense)
	require.Equal(t, 600.0, preview.NetResult)
}

func TestPreviewCloseSkipsNearZeroBalances(t *testing.T) {
	svc, _ := newCloserFixture()
	svc.balances = &stubBalances{totals: map[int64]balances.Balance{
		2: {Debit: 0, Credit: 0.004, Balance: -0.004},
	}}

	preview, err := svc.PreviewClose(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, preview.Lines)
}

func TestPreviewCloseRequiresResultAccount(t *testing.T) {
	svc, _ := newCloserFixture()
	svc.settings = &stubSettings{cfg: settings.Settings{
		CompanyID:       1,
		FiscalYearStart: yearStart,
		FiscalYearEnd:   yearEnd,
	}}

	_, err := svc.PreviewClose(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrMissingResultAccount)
}

func TestCloseFiscalYearPostsSingleEntry(t *testing.T) {
	svc, jr := newCloserFixture()

	entry, err := svc.CloseFiscalYear(context.Background(), 1, "closer")
	require.NoError(t, err)
	require.Equal(t, journals.StatusPosted, entry.Status)
	require.True(t, entry.IsClosing)
	require.Equal(t, yearEnd, entry.Date)
	require.Len(t, entry.Lines, 3)

	require.Len(t, jr.created, 1)
	require.Equal(t, "Fiscal year closing 2024", jr.created[0].Description)
	require.Equal(t, "closer", jr.created[0].CreatedBy)

	_, err = svc.CloseFiscalYear(context.Background(), 1, "closer")
	require.ErrorIs(t, err, shared.ErrAlreadyClosed)
}

func TestCloseFiscalYearNothingToClose(t *testing.T) {
	svc, _ := newCloserFixture()
	svc.balances = &stubBalances{totals: map[int64]balances.Balance{}}

	_, err := svc.CloseFiscalYear(context.Background(), 1, "closer")
	require.ErrorIs(t, err, shared.ErrNothingToClose)
}

func TestStatusReportsClosedState(t *testing.T) {
	svc, _ := newCloserFixture()
	ctx := context.Background()

	before, err := svc.Status(ctx, 1)
	require.NoError(t, err)
	require.False(t, before.Closed)
	require.Equal(t, yearStart, before.FiscalYearStart)

	_, err = svc.CloseFiscalYear(ctx, 1, "closer")
	require.NoError(t, err)

	after, err := svc.Status(ctx, 1)
	require.NoError(t, err)
	require.True(t, after.Closed)
	require.EqualValues(t, 1, after.PostedEntries)
}
