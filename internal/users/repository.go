package users

import (
	"context"

	"github.com/odyssey-erp/odyssey-auth/internal/store"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	queries *store.Queries
}

// NewRepository constructs a repository.
func NewRepository(db store.DBTX) *Repository {
	return &Repository{queries: store.New(db)}
}

// ListUsers returns all users, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]User, len(rows))
	for i, row := range rows {
		users[i] = User{
			ID:        row.ID,
			Name:      row.Name,
			PhoneE164: row.PhoneE164,
			IsActive:  row.IsActive,
			CreatedAt: row.CreatedAt.Time,
		}
		if row.Email.Valid {
			email := row.Email.String
			users[i].Email = &email
		}
	}
	return users, nil
}
