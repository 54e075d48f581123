package auth

import (
	"context"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

type memoryRepo struct {
	mu sync.Mutex

	users    map[int64]*User
	otps     []PhoneOTP
	sessions map[string]*Session

	nextUserID    int64
	nextSessionID int64

	// Error injection
	findErr          error
	createOTPErr     error
	createSessionErr error

	findSessionCalls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:    make(map[int64]*User),
		sessions: make(map[string]*Session),
	}
}

func (r *memoryRepo) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email != nil && *u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindUserByPhone(ctx context.Context, phoneE164 string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.PhoneE164 == phoneE164 {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindUserByID(ctx context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(TxRepository) error) error {
	tx := &memoryTx{repo: r}
	if err := fn(tx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range tx.users {
		r.users[u.ID] = u
	}
	r.otps = append(r.otps, tx.otps...)
	return nil
}

func (r *memoryRepo) CreateSession(ctx context.Context, sess NewSession) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createSessionErr != nil {
		return nil, r.createSessionErr
	}
	r.nextSessionID++
	created := &Session{
		ID:        r.nextSessionID,
		UserID:    sess.UserID,
		Token:     sess.Token,
		UserAgent: sess.UserAgent,
		CreatedAt: time.Now(),
		ExpiresAt: sess.ExpiresAt,
	}
	r.sessions[sess.Token] = created
	clone := *created
	return &clone, nil
}

func (r *memoryRepo) FindSession(ctx context.Context, token string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findSessionCalls++
	sess, ok := r.sessions[token]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *sess
	return &clone, nil
}

func (r *memoryRepo) RevokeSession(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[token]
	if !ok || sess.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	sess.RevokedAt = &now
	return true, nil
}

func (r *memoryRepo) userCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *memoryRepo) otpRows() []PhoneOTP {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PhoneOTP(nil), r.otps...)
}

func (r *memoryRepo) sessionRows() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}

func (r *memoryRepo) setActive(id int64, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].IsActive = active
}

// memoryTx stages writes until WithTx commits them.
type memoryTx struct {
	repo  *memoryRepo
	users []*User
	otps  []PhoneOTP
}

func (t *memoryTx) CreateUser(ctx context.Context, user NewUser) (*User, error) {
	t.repo.mu.Lock()
	t.repo.nextUserID++
	id := t.repo.nextUserID
	t.repo.mu.Unlock()
	created := &User{
		ID:           id,
		Name:         user.Name,
		Email:        user.Email,
		PhoneE164:    user.PhoneE164,
		PasswordHash: user.PasswordHash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	t.users = append(t.users, created)
	clone := *created
	return &clone, nil
}

func (t *memoryTx) CreatePhoneOTP(ctx context.Context, otp PhoneOTP) error {
	if t.repo.createOTPErr != nil {
		return t.repo.createOTPErr
	}
	t.otps = append(t.otps, otp)
	return nil
}
