package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/bank-client/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware тестового сервера.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Get("/auth/me", h.Me)
		r.Post("/auth/logout", h.Logout)

		r.Get("/client/profile", h.GetProfile)
		r.Get("/client/balance", h.GetBalance)

		r.Get("/transactions", h.GetTransactions)
		r.Post("/transactions", h.CreateTransaction)

		r.Get("/transfers", h.GetTransfers)
		r.Post("/transfers", h.CreateTransfer)

		r.Get("/push/latest", h.GetLatestPush)
		r.Post("/push/generate", h.GeneratePush)
		r.Get("/recommendation/{clientCode}", h.GetRecommendation)
		r.Get("/pushes/download", h.DownloadPushes)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.WriteJSONError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.WriteJSONError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
