package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gestio-erp/gestio-erp/internal/ledger/recurring"
)

// RecurringGenerator is the template service surface the job depends on.
type RecurringGenerator interface {
	GenerateAllPending(ctx context.Context, companyID int64) (recurring.GenerationResult, error)
}

// RecurringGenerateJob instantiates due recurring entries. Per-template
// failures are logged and reported but never retried at the batch level; the
// next run picks up whatever stayed due.
type RecurringGenerateJob struct {
	Generator RecurringGenerator
	Companies CompanySource
	Logger    *slog.Logger
}

func NewRecurringGenerateJob(generator RecurringGenerator, companies CompanySource, logger *slog.Logger) *RecurringGenerateJob {
	return &RecurringGenerateJob{Generator: generator, Companies: companies, Logger: logger}
}

// Handle executes the recurring generation task.
func (j *RecurringGenerateJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Generator == nil || j.Companies == nil {
		return errors.New("recurring generate: dependencies not configured")
	}
	var payload RecurringGeneratePayload
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
	generated, failed := 0, 0
	for _, companyID := range companyIDs {
		result, err := j.Generator.GenerateAllPending(ctx, companyID)
		if err != nil {
			j.log().Error("generate pending", slog.Int64("company_id", companyID), slog.Any("error", err))
			return err
		}
		generated += len(result.Generated)
		failed += len(result.Failures)
		for _, failure := range result.Failures {
			j.log().Warn("template generation failed",
				slog.Int64("company_id", companyID),
				slog.Int64("template_id", failure.TemplateID),
				slog.String("template", failure.Name),
				slog.String("error", failure.Error))
		}
	}
	j.log().Info("recurring generation complete",
		slog.Int("companies", len(companyIDs)),
		slog.Int("generated", generated),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *RecurringGenerateJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRecurringGenerate))
	}
	return slog.Default().With(slog.String("job", TaskRecurringGenerate))
}
