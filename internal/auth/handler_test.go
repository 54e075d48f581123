package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, repo *memoryRepo) http.Handler {
	t.Helper()
	svc, _ := newTestService(t, repo)
	r := chi.NewRouter()
	r.Route("/api/auth", NewHandler(nil, svc).MountRoutes)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRegisterEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	h := newTestRouter(t, repo)

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"Somchai","email":"s@example.com","phone":"0812345678","password":"pw"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "123456", body["otp"])
	assert.Equal(t, "1", body["userId"])
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, 1, repo.userCount())
	assert.Len(t, repo.otpRows(), 1)
}

func TestRegisterEndpointAcceptsForm(t *testing.T) {
	repo := newMemoryRepo()
	h := newTestRouter(t, repo)

	form := url.Values{"name": {"Niran"}, "phone": {"0899999999"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, repo.userCount())
}

func TestRegisterEndpointErrors(t *testing.T) {
	repo := newMemoryRepo()
	h := newTestRouter(t, repo)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"A","email":"a@example.com","phone":"0811111111","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"missing fields", `{"name":"B"}`, "name, phone and password are required"},
		{"empty body", ``, "name, phone and password are required"},
		{"malformed json", `{"name":`, "invalid request body"},
		{"duplicate email", `{"name":"B","email":"a@example.com","phone":"0822222222","password":"pw"}`, "email already used"},
		{"duplicate phone", `{"name":"B","email":"b@example.com","phone":"66811111111","password":"pw"}`, "phone already used"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := doJSON(t, h, http.MethodPost, "/api/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.message, body["message"])
		})
	}
	assert.Equal(t, 1, repo.userCount())
}

func TestRegisterEndpointStoreFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.findErr = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	h := newTestRouter(t, repo)

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"A","phone":"0811111111","password":"pw"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", body["message"])
	assert.Equal(t, repo.findErr.Error(), body["detail"])
}

func TestLoginEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	h := newTestRouter(t, repo)
	doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"A","email":"a@example.com","phone":"0811111111","password":"pw"}`)

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"identifier":"a@example.com","password":"pw"}`, "User-Agent", "test-agent")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	token, _ := body["token"].(string)
	assert.Regexp(t, hexToken, token)
	assert.NotEmpty(t, body["expiresAt"])
	user, _ := body["user"].(map[string]any)
	assert.Equal(t, map[string]any{"id": "1", "name": "A", "email": "a@example.com", "phone": "+66811111111"}, user)

	sessions := repo.sessionRows()
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(1), sessions[0].UserID)
	assert.Equal(t, "test-agent", sessions[0].UserAgent)
}

func TestLoginEndpointStatuses(t *testing.T) {
	repo := newMemoryRepo()
	h := newTestRouter(t, repo)
	doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"A","email":"a@example.com","phone":"0811111111","password":"pw"}`)
	doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"S","phone":"0822222222","password":"pw"}`)
	repo.setActive(2, false)

	cases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing", `{"identifier":"a@example.com"}`, http.StatusBadRequest, "identifier and password are required"},
		{"unknown", `{"identifier":"z@example.com","password":"pw"}`, http.StatusUnauthorized, "account not found"},
		{"wrong password", `{"identifier":"0811111111","password":"bad"}`, http.StatusUnauthorized, "invalid credentials"},
		{"suspended", `{"identifier":"0822222222","password":"pw"}`, http.StatusForbidden, "account suspended"},
		{"suspended wrong password", `{"identifier":"0822222222","password":"bad"}`, http.StatusForbidden, "account suspended"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := doJSON(t, h, http.MethodPost, "/api/auth/login", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, body["message"])
		})
	}
	assert.Empty(t, repo.sessionRows())
}

func TestSessionAndLogoutEndpoints(t *testing.T) {
	repo := newMemoryRepo()
	h := newTestRouter(t, repo)
	doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"A","email":"a@example.com","phone":"0811111111","password":"pw"}`)
	_, login := doJSON(t, h, http.MethodPost, "/api/auth/login", `{"identifier":"a@example.com","password":"pw"}`)
	token := login["token"].(string)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/auth/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := doJSON(t, h, http.MethodGet, "/api/auth/session", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "1", user["id"])

	rec, body = doJSON(t, h, http.MethodPost, "/api/auth/logout", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logged out", body["message"])

	rec, body = doJSON(t, h, http.MethodGet, "/api/auth/session", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid session", body["message"])
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"abc":          "",
		"":             "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, bearerToken(req), header)
	}
}
