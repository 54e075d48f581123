package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createUserSession = `-- name: CreateUserSession :one
INSERT INTO user_sessions (user_id, session_id, user_agent, ip_addr, expires_at)
VALUES ($1, $2, $3, $4::inet, $5)
RETURNING id, user_id, session_id, user_agent, ip_addr::text, created_at, expires_at, revoked_at
`

type CreateUserSessionParams struct {
	UserID    int64
	SessionID string
	UserAgent pgtype.Text
	IpAddr    pgtype.Text
	ExpiresAt pgtype.Timestamptz
}

func (q *Queries) CreateUserSession(ctx context.Context, arg CreateUserSessionParams) (UserSession, error) {
	row := q.db.QueryRow(ctx, createUserSession,
		arg.UserID,
		arg.SessionID,
		arg.UserAgent,
		arg.IpAddr,
		arg.ExpiresAt,
	)
	var i UserSession
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.SessionID,
		&i.UserAgent,
		&i.IpAddr,
		&i.CreatedAt,
		&i.ExpiresAt,
		&i.RevokedAt,
	)
	return i, err
}

const getUserSession = `-- name: GetUserSession :one
SELECT id, user_id, session_id, user_agent, ip_addr::text, created_at, expires_at, revoked_at
FROM user_sessions
WHERE session_id = $1
LIMIT 1
`

func (q *Queries) GetUserSession(ctx context.Context, sessionID string) (UserSession, error) {
	row := q.db.QueryRow(ctx, getUserSession, sessionID)
	var i UserSession
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.SessionID,
		&i.UserAgent,
		&i.IpAddr,
		&i.CreatedAt,
		&i.ExpiresAt,
		&i.RevokedAt,
	)
	return i, err
}

const revokeUserSession = `-- name: RevokeUserSession :execrows
UPDATE user_sessions
SET revoked_at = now()
WHERE session_id = $1 AND revoked_at IS NULL
`

func (q *Queries) RevokeUserSession(ctx context.Context, sessionID string) (int64, error) {
	result, err := q.db.Exec(ctx, revokeUserSession, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteExpiredUserSessions = `-- name: DeleteExpiredUserSessions :execrows
DELETE FROM user_sessions
WHERE expires_at < $1
`

func (q *Queries) DeleteExpiredUserSessions(ctx context.Context, before pgtype.Timestamptz) (int64, error) {
	result, err := q.db.Exec(ctx, deleteExpiredUserSessions, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
