package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gestio-erp/gestio-erp/internal/ledger/balances"
	"github.com/gestio-erp/gestio-erp/internal/observability"
)

// EquationVerifier is the balance service surface the scan depends on.
type EquationVerifier interface {
	VerifyEquation(ctx context.Context, companyID int64, upTo *time.Time) (balances.EquationReport, error)
}

// CompanySource lists the companies with accounting configuration.
type CompanySource interface {
	CompanyIDs(ctx context.Context) ([]int64, error)
}

// EquationScanJob verifies assets = liabilities + equity for each company,
// logs any drift, and exports it as a gauge. Drift never fails the job; it is
// a signal for operators, not an error.
type EquationScanJob struct {
	Verifier  EquationVerifier
	Companies CompanySource
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

func NewEquationScanJob(verifier EquationVerifier, companies CompanySource, logger *slog.Logger, metrics *observability.Metrics) *EquationScanJob {
	return &EquationScanJob{Verifier: verifier, Companies: companies, Logger: logger, Metrics: metrics}
}

// Handle executes the equation scan task.
func (j *EquationScanJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Verifier == nil || j.Companies == nil {
		return errors.New("equation scan: dependencies not configured")
	}
	var payload EquationScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	companyIDs := []int64{payload.CompanyID}
	if payload.CompanyID == 0 {
		ids, err := j.Companies.CompanyIDs(ctx)
		if err != nil {
			j.log().Error("list companies", slog.Any("error", err))
			return err
		}
		companyIDs = ids
	}
	start := time.Now()
	drifted := 0
	for _, companyID := range companyIDs {
		report, err := j.Verifier.VerifyEquation(ctx, companyID, nil)
		if err != nil {
			j.log().Error("verify equation", slog.Int64("company_id", companyID), slog.Any("error", err))
			return err
		}
		if j.Metrics != nil {
			j.Metrics.SetEquationDrift(companyID, report.Difference)
		}
		if !report.IsBalanced {
			drifted++
			j.log().Warn("accounting equation drift",
				slog.Int64("company_id", companyID),
				slog.Float64("difference", report.Difference),
				slog.Float64("assets", report.Assets),
				slog.Float64("liabilities", report.Liabilities),
				slog.Float64("equity", report.Equity))
		}
	}
	j.log().Info("equation scan complete",
		slog.Int("companies", len(companyIDs)),
		slog.Int("drifted", drifted),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *EquationScanJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskEquationScan))
	}
	return slog.Default().With(slog.String("job", TaskEquationScan))
}
