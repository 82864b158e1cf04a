package app

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hibiken/asynq"

	"github.com/gestio-erp/gestio-erp/internal/platform/httpx"
)

// enqueueFunc pushes one background task for a company; zero means all.
type enqueueFunc func(ctx context.Context, companyID int64) (*asynq.TaskInfo, error)

// taskHandler turns an enqueue function into an admin endpoint. The optional
// `company` query parameter scopes the task to one company.
func taskHandler(logger *slog.Logger, name string, enqueue enqueueFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var companyID int64
		if raw := r.URL.Query().Get("company"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company parameter")
				return
			}
			companyID = id
		}
		info, err := enqueue(r.Context(), companyID)
		if err != nil {
			logger.Error("enqueue task", slog.String("task", name), slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "task queue unavailable")
			return
		}
		logger.Info("task enqueued", slog.String("task", name), slog.String("task_id", info.ID), slog.Int64("company_id", companyID))
		httpx.JSON(w, http.StatusAccepted, map[string]any{
			"task_id": info.ID,
			"queue":   info.Queue,
		})
	}
}
