package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/YarinDev/recipe-app-api/internal/service/attribute"
	"github.com/YarinDev/recipe-app-api/internal/service/auth"
	"github.com/YarinDev/recipe-app-api/internal/service/recipe"
	"github.com/YarinDev/recipe-app-api/internal/validation"
)

const maxJSONBody = 1 << 20

var errInvalidJSON = errors.New("invalid JSON body")

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, req *http.Request, dst any) error {
	body := http.MaxBytesReader(w, req.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidJSON
	}
	return nil
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, errInvalidJSON),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, recipe.ErrNotFound), errors.Is(err, attribute.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err, hiding internal failures behind a generic message.
func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		r.logger.Error("request failed", "error", err, "path", req.URL.Path)
		writeError(w, status, "internal server error")
		return
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, status, map[string]any{"error": verr.Error(), "fields": verr.Fields})
		return
	}
	writeError(w, status, err.Error())
}
