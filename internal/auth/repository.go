package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-auth/internal/platform/db"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
	"github.com/odyssey-erp/odyssey-auth/internal/store"
)

// Repository defines persistence operations for auth module.
// Single row lookups return shared.ErrNotFound when nothing matches.
type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByPhone(ctx context.Context, phoneE164 string) (*User, error)
	FindUserByID(ctx context.Context, id int64) (*User, error)
	WithTx(ctx context.Context, fn func(TxRepository) error) error
	CreateSession(ctx context.Context, sess NewSession) (*Session, error)
	FindSession(ctx context.Context, token string) (*Session, error)
	RevokeSession(ctx context.Context, token string) (bool, error)
}

// TxRepository exposes the writes that must commit together.
type TxRepository interface {
	CreateUser(ctx context.Context, user NewUser) (*User, error)
	CreatePhoneOTP(ctx context.Context, otp PhoneOTP) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool    *pgxpool.Pool
	queries *store.Queries
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool, queries: store.New(pool)}
}

// FindUserByEmail fetches a user by exact email.
func (r *PGRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	record, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err)
	}
	return mapUser(record), nil
}

// FindUserByPhone fetches a user by E.164 phone.
func (r *PGRepository) FindUserByPhone(ctx context.Context, phoneE164 string) (*User, error) {
	record, err := r.queries.GetUserByPhone(ctx, phoneE164)
	if err != nil {
		return nil, notFound(err)
	}
	return mapUser(record), nil
}

// FindUserByID fetches a user by id.
func (r *PGRepository) FindUserByID(ctx context.Context, id int64) (*User, error) {
	record, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return mapUser(record), nil
}

// WithTx runs fn inside a single database transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgTxRepository{queries: r.queries.WithTx(tx)})
	})
}

// CreateSession persists a login session.
func (r *PGRepository) CreateSession(ctx context.Context, sess NewSession) (*Session, error) {
	record, err := r.queries.CreateUserSession(ctx, store.CreateUserSessionParams{
		UserID:    sess.UserID,
		SessionID: sess.Token,
		UserAgent: pgtype.Text{String: sess.UserAgent, Valid: sess.UserAgent != ""},
		ExpiresAt: timestamptz(sess.ExpiresAt),
	})
	if err != nil {
		return nil, err
	}
	return mapSession(record), nil
}

// FindSession fetches a session by token.
func (r *PGRepository) FindSession(ctx context.Context, token string) (*Session, error) {
	record, err := r.queries.GetUserSession(ctx, token)
	if err != nil {
		return nil, notFound(err)
	}
	return mapSession(record), nil
}

// RevokeSession marks a session revoked and reports whether it was active.
func (r *PGRepository) RevokeSession(ctx context.Context, token string) (bool, error) {
	n, err := r.queries.RevokeUserSession(ctx, token)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type pgTxRepository struct {
	queries *store.Queries
}

func (r *pgTxRepository) CreateUser(ctx context.Context, user NewUser) (*User, error) {
	params := store.CreateUserParams{
		Name:         user.Name,
		PhoneE164:    user.PhoneE164,
		PasswordHash: user.PasswordHash,
	}
	if user.Email != nil {
		params.Email = pgtype.Text{String: *user.Email, Valid: true}
	}
	record, err := r.queries.CreateUser(ctx, params)
	if err != nil {
		return nil, err
	}
	return mapUser(record), nil
}

func (r *pgTxRepository) CreatePhoneOTP(ctx context.Context, otp PhoneOTP) error {
	_, err := r.queries.CreatePhoneOTP(ctx, store.CreatePhoneOTPParams{
		PhoneE164: otp.PhoneE164,
		CodeHash:  otp.CodeHash,
		Purpose:   otp.Purpose,
		ExpiresAt: timestamptz(otp.ExpiresAt),
		SentVia:   otp.SentVia,
		Status:    otp.Status,
	})
	return err
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNoRows) {
		return shared.ErrNotFound
	}
	return err
}

func mapUser(record store.User) *User {
	user := &User{
		ID:           record.ID,
		Name:         record.Name,
		PhoneE164:    record.PhoneE164,
		PasswordHash: record.PasswordHash,
		IsActive:     record.IsActive,
		CreatedAt:    record.CreatedAt.Time,
	}
	if record.Email.Valid {
		email := record.Email.String
		user.Email = &email
	}
	return user
}

func mapSession(record store.UserSession) *Session {
	sess := &Session{
		ID:        record.ID,
		UserID:    record.UserID,
		Token:     record.SessionID,
		UserAgent: record.UserAgent.String,
		CreatedAt: record.CreatedAt.Time,
		ExpiresAt: record.ExpiresAt.Time,
	}
	if record.RevokedAt.Valid {
		revokedAt := record.RevokedAt.Time
		sess.RevokedAt = &revokedAt
	}
	return sess
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

var _ Repository = (*PGRepository)(nil)
