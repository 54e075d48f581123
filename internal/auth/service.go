package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/odyssey-erp/odyssey-auth/internal/phone"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
	"github.com/odyssey-erp/odyssey-auth/internal/store"
)

// Defaults applied by NewService when a ServiceConfig field is zero.
const (
	DefaultOTPCode    = "123456"
	DefaultOTPTTL     = 5 * time.Minute
	DefaultSessionTTL = 30 * 24 * time.Hour
	DefaultBcryptCost = 10

	tokenBytes = 16
)

// OTPDispatcher hands a freshly issued code over for delivery.
type OTPDispatcher interface {
	DispatchOTP(ctx context.Context, phoneE164, purpose string) error
}

// LoginObserver receives the outcome of every login attempt.
type LoginObserver interface {
	ObserveLogin(result string)
}

// ServiceConfig tunes the auth service.
type ServiceConfig struct {
	// DevOTPCode is the fixed code issued at sign-up and echoed to the client.
	DevOTPCode string
	OTPTTL     time.Duration
	SessionTTL time.Duration
	BcryptCost int
	Phone      phone.Normalizer
	Cache      *SessionCache
	Dispatcher OTPDispatcher
	Metrics    LoginObserver
	Logger     *slog.Logger
	Now        func() time.Time
}

// Service wraps authentication business rules.
type Service struct {
	repo      Repository
	cfg       ServiceConfig
	validator *validator.Validate
}

// NewService constructs a new Service.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	if cfg.DevOTPCode == "" {
		cfg.DevOTPCode = DefaultOTPCode
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = DefaultOTPTTL
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	if cfg.Phone.CountryCode == "" {
		cfg.Phone = phone.New("")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{repo: repo, cfg: cfg, validator: validator.New()}
}

// Register creates the account and its sign-up OTP in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, ErrRegisterFieldsRequired
	}
	phoneE164 := s.cfg.Phone.Normalize(in.Phone)
	if phoneE164 == "" {
		return nil, ErrInvalidPhone
	}

	var email *string
	if in.Email != "" {
		email = &in.Email
		if err := s.ensureFree(s.repo.FindUserByEmail(ctx, in.Email)); err != nil {
			if errors.Is(err, errTaken) {
				return nil, ErrEmailTaken
			}
			return nil, err
		}
	}
	if err := s.ensureFree(s.repo.FindUserByPhone(ctx, phoneE164)); err != nil {
		if errors.Is(err, errTaken) {
			return nil, ErrPhoneTaken
		}
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, err
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.DevOTPCode), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	var user *User
	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		created, err := tx.CreateUser(ctx, NewUser{
			Name:         norm.NFC.String(in.Name),
			Email:        email,
			PhoneE164:    phoneE164,
			PasswordHash: string(passwordHash),
		})
		if err != nil {
			return err
		}
		user = created
		return tx.CreatePhoneOTP(ctx, PhoneOTP{
			PhoneE164: phoneE164,
			CodeHash:  string(codeHash),
			Purpose:   PurposeSignup,
			ExpiresAt: s.cfg.Now().Add(s.cfg.OTPTTL),
			SentVia:   ChannelSMS,
			Status:    StatusSent,
		})
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			s.cfg.Logger.Warn("register lost uniqueness race", slog.String("phone", phoneE164))
		}
		return nil, err
	}

	if s.cfg.Dispatcher != nil {
		if err := s.cfg.Dispatcher.DispatchOTP(ctx, phoneE164, PurposeSignup); err != nil {
			s.cfg.Logger.Warn("dispatch otp", slog.String("phone", phoneE164), slog.Any("error", err))
		}
	}

	return &RegisterResult{UserID: user.ID, OTP: s.cfg.DevOTPCode}, nil
}

var errTaken = errors.New("taken")

// ensureFree turns a uniqueness lookup into errTaken, nil, or the store error.
func (s *Service) ensureFree(_ *User, err error) error {
	switch {
	case err == nil:
		return errTaken
	case errors.Is(err, shared.ErrNotFound):
		return nil
	default:
		return err
	}
}

// Login checks credentials and opens a new session.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	res, err := s.login(ctx, in)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObserveLogin(loginOutcome(err))
	}
	return res, err
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrLoginFieldsRequired):
		return "invalid_input"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrAccountSuspended):
		return "suspended"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}

func (s *Service) login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, ErrLoginFieldsRequired
	}

	user, err := s.findByIdentifier(ctx, in.Identifier)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountSuspended
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	sess, err := s.repo.CreateSession(ctx, NewSession{
		UserID:    user.ID,
		Token:     token,
		UserAgent: in.UserAgent,
		ExpiresAt: s.cfg.Now().Add(s.cfg.SessionTTL),
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: *user}, nil
}

func (s *Service) findByIdentifier(ctx context.Context, identifier string) (*User, error) {
	if strings.Contains(identifier, "@") {
		return s.repo.FindUserByEmail(ctx, identifier)
	}
	phoneE164 := s.cfg.Phone.Normalize(identifier)
	if phoneE164 == "" {
		return nil, shared.ErrNotFound
	}
	return s.repo.FindUserByPhone(ctx, phoneE164)
}

// ValidateSession resolves a bearer token to its principal. Unknown, revoked
// and expired tokens yield ErrSessionInvalid.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}
	p, hit, err := s.cfg.Cache.Load(ctx, token, func(ctx context.Context) (*Principal, error) {
		return s.loadPrincipal(ctx, token)
	}, func(err error) {
		s.cfg.Logger.Warn("session cache", slog.Any("error", err))
	})
	if err != nil {
		return nil, err
	}
	if !p.Session.ActiveAt(s.cfg.Now()) {
		return nil, ErrSessionInvalid
	}
	if hit {
		// The cached user may have been suspended since it was stored.
		return s.refreshUser(ctx, p)
	}
	return p, nil
}

func (s *Service) refreshUser(ctx context.Context, p *Principal) (*Principal, error) {
	user, err := s.repo.FindUserByID(ctx, p.Session.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.evict(ctx, p.Session.Token)
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		s.evict(ctx, p.Session.Token)
		return nil, ErrAccountSuspended
	}
	return &Principal{Session: p.Session, User: *user}, nil
}

func (s *Service) loadPrincipal(ctx context.Context, token string) (*Principal, error) {
	sess, err := s.repo.FindSession(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if !sess.ActiveAt(s.cfg.Now()) {
		return nil, ErrSessionInvalid
	}
	user, err := s.repo.FindUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountSuspended
	}
	return &Principal{Session: *sess, User: *user}, nil
}

// RevokeSession ends the session behind token.
func (s *Service) RevokeSession(ctx context.Context, token string) error {
	if _, err := s.repo.RevokeSession(ctx, token); err != nil {
		return err
	}
	s.evict(ctx, token)
	return nil
}

func (s *Service) evict(ctx context.Context, token string) {
	if err := s.cfg.Cache.Delete(ctx, token); err != nil {
		s.cfg.Logger.Warn("evict session", slog.Any("error", err))
	}
}

func newSessionToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
