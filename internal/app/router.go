package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/balances"
	"github.com/gestio-erp/gestio-erp/internal/ledger/fiscal"
	"github.com/gestio-erp/gestio-erp/internal/ledger/journals"
	"github.com/gestio-erp/gestio-erp/internal/ledger/recurring"
	"github.com/gestio-erp/gestio-erp/internal/ledger/reports"
	"github.com/gestio-erp/gestio-erp/internal/ledger/settings"
	"github.com/gestio-erp/gestio-erp/internal/observability"
	"github.com/gestio-erp/gestio-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AccountsHandler  *accounts.Handler
	JournalsHandler  *journals.Handler
	BalancesHandler  *balances.Handler
	ReportsHandler   *reports.Handler
	FiscalHandler    *fiscal.Handler
	RecurringHandler *recurring.Handler
	SettingsHandler  *settings.Handler

	Tasks   *jobs.Client
	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Gestio defaults. Every ledger
// resource is scoped under its company.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/companies/{companyID}", func(r chi.Router) {
		if params.AccountsHandler != nil {
			r.Route("/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.JournalsHandler != nil {
			r.Route("/journal-entries", params.JournalsHandler.MountRoutes)
		}
		if params.BalancesHandler != nil {
			r.Route("/balances", params.BalancesHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
		if params.FiscalHandler != nil {
			r.Route("/fiscal-years", params.FiscalHandler.MountRoutes)
		}
		if params.RecurringHandler != nil {
			r.Route("/recurring-templates", params.RecurringHandler.MountRoutes)
		}
		if params.SettingsHandler != nil {
			r.Route("/settings", params.SettingsHandler.MountRoutes)
		}
	})

	if params.Tasks != nil {
		r.Route("/admin/tasks", func(r chi.Router) {
			r.Post("/equation-scan", taskHandler(params.Logger, "equation_scan", params.Tasks.EnqueueEquationScan))
			r.Post("/recurring-generate", taskHandler(params.Logger, "recurring_generate", params.Tasks.EnqueueRecurringGenerate))
		})
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
