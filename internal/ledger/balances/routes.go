package balances

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.All)
	r.Get("/by-type", h.ByType)
	r.Get("/equation", h.Equation)
	r.Get("/accounts/{id}", h.Account)
	r.Get("/accounts/{id}/opening", h.Opening)
}
