package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/gestio-erp/gestio-erp/internal/ledger/balances"
	"github.com/gestio-erp/gestio-erp/internal/ledger/recurring"
)

type stubVerifier struct {
	reports map[int64]balances.EquationReport
	calls   []int64
}

func (s *stubVerifier) VerifyEquation(ctx context.Context, companyID int64, upTo *time.Time) (balances.EquationReport, error) {
	s.calls = append(s.calls, companyID)
	return s.reports[companyID], nil
}

type stubCompanies struct {
	ids []int64
}

func (s *stubCompanies) CompanyIDs(ctx context.Context) ([]int64, error) {
	return s.ids, nil
}

func TestEquationScanFansOutToAllCompanies(t *testing.T) {
	verifier := &stubVerifier{reports: map[int64]balances.EquationReport{
		1: {CompanyID: 1, IsBalanced: true},
		2: {CompanyID: 2, Difference: 12.5},
	}}
	job := NewEquationScanJob(verifier, &stubCompanies{ids: []int64{1, 2}}, slog.Default(), nil)

	task, err := NewEquationScanTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []int64{1, 2}, verifier.calls)
}

func TestEquationScanSingleCompany(t *testing.T) {
	verifier := &stubVerifier{reports: map[int64]balances.EquationReport{7: {CompanyID: 7}}}
	job := NewEquationScanJob(verifier, &stubCompanies{ids: []int64{1, 2, 7}}, slog.Default(), nil)

	task, err := NewEquationScanTask(7)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []int64{7}, verifier.calls)
}

func TestEquationScanSkipsRetryOnBadPayload(t *testing.T) {
	job := NewEquationScanJob(&stubVerifier{}, &stubCompanies{}, slog.Default(), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskEquationScan, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type stubGenerator struct {
	results map[int64]recurring.GenerationResult
	calls   []int64
}

func (s *stubGenerator) GenerateAllPending(ctx context.Context, companyID int64) (recurring.GenerationResult, error) {
	s.calls = append(s.calls, companyID)
	return s.results[companyID], nil
}

func TestRecurringGenerateFansOut(t *testing.T) {
	generator := &stubGenerator{results: map[int64]recurring.GenerationResult{
		1: {Generated: []int64{10, 11}},
		2: {Failures: []recurring.GenerationFailure{{TemplateID: 5, Name: "Rent", Error: "boom"}}},
	}}
	job := NewRecurringGenerateJob(generator, &stubCompanies{ids: []int64{1, 2}}, slog.Default())

	task, err := NewRecurringGenerateTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []int64{1, 2}, generator.calls)
}
