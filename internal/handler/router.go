package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vkarpenko/telelink/internal/middleware"
)

func (h *Handler) SetupRouter(auth *middleware.AuthMiddleware) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.GzipMiddleware)
	r.Use(auth.Handler)

	r.Post("/", h.ShortenHandler)
	r.Get("/ping", h.PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/shorten", h.APIShortenHandler)
		r.Route("/user/urls", func(r chi.Router) {
			r.Get("/", h.GetUserURLsHandler)
			r.Patch("/", h.UpdateUserURLHandler)
		})
		r.Route("/telegram", func(r chi.Router) {
			r.Get("/users", h.ListBotUsersHandler)
			r.Patch("/users", h.SetPremiumHandler)
			r.Post("/webhook", h.WebhookHandler)
		})
	})

	r.Get("/{shortCode}", h.RedirectHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	return r
}
