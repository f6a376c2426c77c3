package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the API router. static, when non-nil, is served under
// /static/.
func (h *Handler) Routes(static http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/reset_request", h.ResetRequest)
		r.Post("/reset_password", h.ResetPassword)

		r.With(h.RequireAccess).Post("/logout", h.Logout)
		r.With(h.RequireAccess).Get("/profile", h.Profile)
		r.With(h.RequireRefresh).Post("/refresh", h.Refresh)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{id}", h.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAccess)
				r.Post("/", h.CreateProduct)
				r.Patch("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
			})
		})
	})

	if static != nil {
		r.Handle("/static/*", http.StripPrefix("/static", static))
	}

	return r
}
