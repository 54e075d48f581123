package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SessionCache keeps validated sessions in Redis in front of Postgres.
// A nil *SessionCache is valid and caches nothing.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group
}

type cachedPrincipal struct {
	SessionID int64      `json:"session_id"`
	Token     string     `json:"token"`
	UserAgent string     `json:"user_agent,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	UserID    int64      `json:"user_id"`
	Name      string     `json:"name"`
	Email     *string    `json:"email"`
	PhoneE164 string     `json:"phone_e164"`
	IsActive  bool       `json:"is_active"`
	UserSince time.Time  `json:"user_created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// NewSessionCache constructs a cache whose entries live at most ttl.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl, now: time.Now}
}

// Get returns the cached principal for token, or nil when absent.
func (c *SessionCache) Get(ctx context.Context, token string) (*Principal, error) {
	if c == nil {
		return nil, nil
	}
	payload, err := c.client.Get(ctx, c.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var stored cachedPrincipal
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}
	return stored.principal(), nil
}

// Set stores p until the earlier of the cache ttl and the session expiry.
func (c *SessionCache) Set(ctx context.Context, p *Principal) error {
	if c == nil || p == nil {
		return nil
	}
	ttl := c.ttl
	if remaining := p.Session.ExpiresAt.Sub(c.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(newCachedPrincipal(p))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(p.Session.Token), data, ttl).Err()
}

// Delete evicts token.
func (c *SessionCache) Delete(ctx context.Context, token string) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(token)).Err()
}

// Load returns the cached principal for token or calls load and caches the
// result. hit reports whether the principal came from Redis. Concurrent loads
// of one token share a single call that outlives any one caller's
// cancellation. Cache read and write failures fall back to load and are
// reported through onCacheErr.
func (c *SessionCache) Load(ctx context.Context, token string, load func(context.Context) (*Principal, error), onCacheErr func(error)) (p *Principal, hit bool, err error) {
	if c == nil {
		p, err = load(ctx)
		return p, false, err
	}
	cached, err := c.Get(ctx, token)
	if err != nil && onCacheErr != nil {
		onCacheErr(err)
	}
	if cached != nil {
		return cached, true, nil
	}

	detached := context.WithoutCancel(ctx)
	resultChan := c.group.DoChan(token, func() (any, error) {
		p, err := load(detached)
		if err != nil {
			return nil, err
		}
		if err := c.Set(detached, p); err != nil && onCacheErr != nil {
			onCacheErr(err)
		}
		return p, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*Principal), false, nil
	}
}

func (c *SessionCache) key(token string) string {
	return "session:" + token
}

func newCachedPrincipal(p *Principal) cachedPrincipal {
	return cachedPrincipal{
		SessionID: p.Session.ID,
		Token:     p.Session.Token,
		UserAgent: p.Session.UserAgent,
		CreatedAt: p.Session.CreatedAt,
		ExpiresAt: p.Session.ExpiresAt,
		RevokedAt: p.Session.RevokedAt,
		UserID:    p.User.ID,
		Name:      p.User.Name,
		Email:     p.User.Email,
		PhoneE164: p.User.PhoneE164,
		IsActive:  p.User.IsActive,
		UserSince: p.User.CreatedAt,
	}
}

func (c cachedPrincipal) principal() *Principal {
	return &Principal{
		Session: Session{
			ID:        c.SessionID,
			UserID:    c.UserID,
			Token:     c.Token,
			UserAgent: c.UserAgent,
			CreatedAt: c.CreatedAt,
			ExpiresAt: c.ExpiresAt,
			RevokedAt: c.RevokedAt,
		},
		User: User{
			ID:        c.UserID,
			Name:      c.Name,
			Email:     c.Email,
			PhoneE164: c.PhoneE164,
			IsActive:  c.IsActive,
			CreatedAt: c.UserSince,
		},
	}
}
