package store

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           int64
	Name         string
	Email        pgtype.Text
	PhoneE164    string
	PasswordHash string
	IsActive     bool
	CreatedAt    pgtype.Timestamptz
}

type PhoneOtp struct {
	ID        int64
	PhoneE164 string
	CodeHash  string
	Purpose   string
	ExpiresAt pgtype.Timestamptz
	SentVia   string
	Status    string
	CreatedAt pgtype.Timestamptz
}

type UserSession struct {
	ID        int64
	UserID    int64
	SessionID string
	UserAgent pgtype.Text
	IpAddr    pgtype.Text
	CreatedAt pgtype.Timestamptz
	ExpiresAt pgtype.Timestamptz
	RevokedAt pgtype.Timestamptz
}
