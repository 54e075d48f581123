package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// StatusFor returns the status code for a shared error kind, or 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrDuplicate):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps client errors to their status and message. Anything else
// is logged and reported as a 500.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var clientErr *shared.ClientError
	if errors.As(err, &clientErr) {
		if status := StatusFor(clientErr); status != http.StatusInternalServerError {
			Message(w, status, clientErr.Message)
			return
		}
	}
	ServerError(w, logger, err)
}
