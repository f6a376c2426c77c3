package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
)

const maxJSONBody = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

type errorsResponse struct {
	Errors map[string]string `json:"errors"`
}

// badRequest is a client error that is not tied to a field.
type badRequest string

func (e badRequest) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func fieldErrors(errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		if err != nil {
			out[field] = err.Error()
		}
	}
	return out
}

// writeError is the only place where errors become status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verrs  validation.Errors
		bad    badRequest
		tooBig *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: fieldErrors(verrs)})
	case errors.As(err, &bad):
		writeMessage(w, http.StatusBadRequest, bad.Error())
	case errors.As(err, &tooBig):
		writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, common.ErrorUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, common.ErrTokenExpired):
		writeMessage(w, http.StatusUnauthorized, "Token has expired")
	case errors.Is(err, common.ErrUnauthenticated):
		h.logger.Debug(r.Context(), "authentication failed", "error", err)
		writeMessage(w, http.StatusUnauthorized, "Missing, invalid or revoked token")
	case errors.Is(err, common.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "You are not authorized to modify this resource")
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, common.ErrInvalidResetToken):
		writeMessage(w, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, common.ErrPasswordUnchanged):
		writeMessage(w, http.StatusBadRequest, "New password cannot be the same as the old password")
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest("Invalid JSON body")
	}
	return nil
}
