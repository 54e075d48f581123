package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPhoneOTP = `-- name: CreatePhoneOTP :one
INSERT INTO phone_otps (phone_e164, code_hash, purpose, expires_at, sent_via, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, phone_e164, code_hash, purpose, expires_at, sent_via, status, created_at
`

type CreatePhoneOTPParams struct {
	PhoneE164 string
	CodeHash  string
	Purpose   string
	ExpiresAt pgtype.Timestamptz
	SentVia   string
	Status    string
}

func (q *Queries) CreatePhoneOTP(ctx context.Context, arg CreatePhoneOTPParams) (PhoneOtp, error) {
	row := q.db.QueryRow(ctx, createPhoneOTP,
		arg.PhoneE164,
		arg.CodeHash,
		arg.Purpose,
		arg.ExpiresAt,
		arg.SentVia,
		arg.Status,
	)
	var i PhoneOtp
	err := row.Scan(
		&i.ID,
		&i.PhoneE164,
		&i.CodeHash,
		&i.Purpose,
		&i.ExpiresAt,
		&i.SentVia,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const listPhoneOTPsByPhone = `-- name: ListPhoneOTPsByPhone :many
SELECT id, phone_e164, code_hash, purpose, expires_at, sent_via, status, created_at
FROM phone_otps
WHERE phone_e164 = $1
ORDER BY id DESC
`

func (q *Queries) ListPhoneOTPsByPhone(ctx context.Context, phoneE164 string) ([]PhoneOtp, error) {
	rows, err := q.db.Query(ctx, listPhoneOTPsByPhone, phoneE164)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PhoneOtp{}
	for rows.Next() {
		var i PhoneOtp
		if err := rows.Scan(
			&i.ID,
			&i.PhoneE164,
			&i.CodeHash,
			&i.Purpose,
			&i.ExpiresAt,
			&i.SentVia,
			&i.Status,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteExpiredPhoneOTPs = `-- name: DeleteExpiredPhoneOTPs :execrows
DELETE FROM phone_otps
WHERE expires_at < $1
`

func (q *Queries) DeleteExpiredPhoneOTPs(ctx context.Context, before pgtype.Timestamptz) (int64, error) {
	result, err := q.db.Exec(ctx, deleteExpiredPhoneOTPs, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
