package auth

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-auth/internal/platform/httpx"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)
		r.Get("/session", h.handleSession)
		r.Post("/logout", h.handleLogout)
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type registerResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	OTP     string `json:"otp"`
	UserID  int64  `json:"userId,string"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type userView struct {
	ID    int64   `json:"id,string"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone string  `json:"phone"`
}

type loginResponse struct {
	OK        bool      `json:"ok"`
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userView  `json:"user"`
}

type sessionResponse struct {
	OK        bool      `json:"ok"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userView  `json:"user"`
}

type okResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := bind(r, &req, func(get func(string) string) {
		req = registerRequest{Name: get("name"), Email: get("email"), Phone: get("phone"), Password: get("password")}
	}); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}

	result, err := h.service.Register(r.Context(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, registerResponse{
		OK:      true,
		Message: "registered (test mode)",
		OTP:     result.OTP,
		UserID:  result.UserID,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := bind(r, &req, func(get func(string) string) {
		req = loginRequest{Identifier: get("identifier"), Password: get("password")}
	}); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}

	result, err := h.service.Login(r.Context(), LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{
		OK:        true,
		Message:   "logged in",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      newUserView(result.User),
	})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, sessionResponse{
		OK:        true,
		ExpiresAt: p.Session.ExpiresAt,
		User:      newUserView(p.User),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if err := h.service.RevokeSession(r.Context(), p.Session.Token); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, okResponse{OK: true, Message: "logged out"})
}

// RequireSession rejects requests without a valid bearer session token and
// stores the resolved Principal in the request context.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.RespondError(w, h.logger, ErrSessionInvalid)
			return
		}
		p, err := h.service.ValidateSession(r.Context(), token)
		if err != nil {
			httpx.RespondError(w, h.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// bind decodes a JSON body into dst, or calls fromForm for urlencoded and
// multipart form submissions.
func bind(r *http.Request, dst any, fromForm func(get func(string) string)) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return ErrInvalidBody
		}
		fromForm(r.PostFormValue)
		return nil
	}
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return ErrInvalidBody
	}
	return nil
}

func newUserView(u User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.PhoneE164}
}
