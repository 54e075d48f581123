package auth

import "time"

// OTP record values written at sign-up.
const (
	PurposeSignup = "signup"
	ChannelSMS    = "sms"
	StatusSent    = "sent"
)

// User represents an account as stored in the users table.
type User struct {
	ID           int64
	Name         string
	Email        *string
	PhoneE164    string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// NewUser carries the columns written on registration.
type NewUser struct {
	Name         string
	Email        *string
	PhoneE164    string
	PasswordHash string
}

// PhoneOTP is a one-time code issued to a phone number.
type PhoneOTP struct {
	PhoneE164 string
	CodeHash  string
	Purpose   string
	ExpiresAt time.Time
	SentVia   string
	Status    string
}

// Session is a login session identified by its opaque token.
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// ActiveAt reports whether the session can still be used at t.
func (s Session) ActiveAt(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpiresAt)
}

// NewSession carries the columns written on login.
type NewSession struct {
	UserID    int64
	Token     string
	UserAgent string
	ExpiresAt time.Time
}

// Principal is the caller behind a validated session token.
type Principal struct {
	Session Session
	User    User
}

// RegisterInput is the sign-up request.
type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string
	Phone    string `validate:"required"`
	Password string `validate:"required"`
}

// RegisterResult is returned after a successful sign-up.
type RegisterResult struct {
	UserID int64
	OTP    string
}

// LoginInput is the password login request.
type LoginInput struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
	UserAgent  string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}
