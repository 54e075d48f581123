package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) MessageBody {
	t.Helper()
	var body MessageBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondErrorClientKinds(t *testing.T) {
	cases := []struct {
		kind   error
		status int
	}{
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrDuplicate, http.StatusBadRequest},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{shared.ErrForbidden, http.StatusForbidden},
		{shared.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, nil, fmt.Errorf("wrapped: %w", shared.NewClientError(tc.kind, "nope")))
		assert.Equal(t, tc.status, rec.Code, tc.kind.Error())
		assert.Equal(t, "nope", decodeBody(t, rec).Message)
	}
}

func TestRespondErrorUnknownIsServerError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	rec := httptest.NewRecorder()

	RespondError(rec, logger, errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Server error", body.Message)
	assert.Equal(t, "connection refused", body.Detail)
	assert.Contains(t, logs.String(), "connection refused")
}

func TestNotFoundIsPlainText(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}
