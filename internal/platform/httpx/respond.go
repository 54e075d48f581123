// Package httpx provides HTTP response utilities.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// MessageBody is the body of every non-2xx JSON response.
type MessageBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Message sends {"message": msg} with the given status code.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// ServerError logs err and sends a 500 carrying its text.
func ServerError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("request failed", slog.Any("error", err))
	JSON(w, http.StatusInternalServerError, MessageBody{Message: "Server error", Detail: err.Error()})
}

// NotFound sends the plain text fallback for unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not Found"))
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
