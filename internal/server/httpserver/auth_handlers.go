package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/services"
)

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type profileResponse struct {
	Msg  string       `json:"msg"`
	User userResponse `json:"user"`
}

func pairResponse(p *services.TokenPair) tokenPairResponse {
	return tokenPairResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var p registerPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := p.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.users.Register(r.Context(), p.Username, p.Email, p.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var p loginPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := p.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	pair, err := h.users.Login(r.Context(), p.Username, p.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pairResponse(pair))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var p logoutPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.users.Logout(r.Context(), identity, p.RefreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully logged out")
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	pair, err := h.users.Refresh(r.Context(), identity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pairResponse(pair))
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	u, err := h.users.Profile(r.Context(), identity)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			err = common.ErrUnauthenticated
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Msg:  fmt.Sprintf("Hello, %s! This is a protected route.", u.UserName),
		User: userResponse{ID: u.ID, Username: u.UserName, Email: u.Email, CreatedAt: u.CreatedAt},
	})
}

func (h *Handler) ResetRequest(w http.ResponseWriter, r *http.Request) {
	var p resetRequestPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := p.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.resets.RequestReset(r.Context(), p.Email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeMessage(w, http.StatusNotFound, "Email not found")
			return
		}
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset link sent to your email")
}

// ResetPassword takes the token from the body, or from the query string as
// found in the mailed link.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var p resetPasswordPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	if p.Token == "" {
		p.Token = r.URL.Query().Get("token")
	}
	if err := p.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.resets.ResetPassword(r.Context(), p.Token, p.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}
