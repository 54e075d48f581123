package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*SessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionCache(client, time.Minute), mr
}

func testPrincipal(token string) *Principal {
	return &Principal{
		Session: Session{ID: 1, UserID: 7, Token: token, ExpiresAt: time.Now().Add(time.Hour)},
		User:    User{ID: 7, Name: "A", PhoneE164: "+66811111111", IsActive: true},
	}
}

func TestSessionCacheLoadReportsHit(t *testing.T) {
	cache, _ := newTestCache(t)
	loads := 0
	load := func(ctx context.Context) (*Principal, error) {
		loads++
		return testPrincipal("tok"), nil
	}

	p, hit, err := cache.Load(context.Background(), "tok", load, nil)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "tok", p.Session.Token)

	p, hit, err = cache.Load(context.Background(), "tok", load, nil)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(7), p.User.ID)
	assert.Equal(t, 1, loads)
}

func TestSessionCacheLoadSurvivesFirstCallerCancel(t *testing.T) {
	cache, _ := newTestCache(t)
	started := make(chan struct{})
	var startOnce sync.Once
	release := make(chan struct{})
	load := func(ctx context.Context) (*Principal, error) {
		startOnce.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return testPrincipal("tok"), nil
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := cache.Load(firstCtx, "tok", load, nil)
		firstErr <- err
	}()
	<-started

	secondDone := make(chan *Principal, 1)
	go func() {
		p, _, err := cache.Load(context.Background(), "tok", load, nil)
		if err != nil {
			secondDone <- nil
			return
		}
		secondDone <- p
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	select {
	case p := <-secondDone:
		require.NotNil(t, p)
		assert.Equal(t, "tok", p.Session.Token)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not receive the shared result")
	}
}

func TestNilSessionCacheCallsLoad(t *testing.T) {
	var cache *SessionCache
	p, hit, err := cache.Load(context.Background(), "tok", func(ctx context.Context) (*Principal, error) {
		return testPrincipal("tok"), nil
	}, nil)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "tok", p.Session.Token)
}
