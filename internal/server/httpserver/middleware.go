package httpserver

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) requireToken(kind auth.TokenKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := h.guard.Authenticate(r, kind)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAccess admits requests carrying a valid access token and puts the
// caller's identity into the request context.
func (h *Handler) RequireAccess(next http.Handler) http.Handler {
	return h.requireToken(auth.KindAccess)(next)
}

// RequireRefresh is RequireAccess for refresh tokens.
func (h *Handler) RequireRefresh(next http.Handler) http.Handler {
	return h.requireToken(auth.KindRefresh)(next)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
