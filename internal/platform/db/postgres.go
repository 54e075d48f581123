package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a new PostgreSQL connection pool.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}

// OpenFunc builds a pool for a DSN.
type OpenFunc func(ctx context.Context, dsn string) (*pgxpool.Pool, error)

// Provider owns the process wide pool. The pool is opened on first use and
// reused by every later call; a failed open is retried on the next call.
type Provider struct {
	dsn  string
	open OpenFunc

	mu     sync.Mutex
	pool   *pgxpool.Pool
	closed bool
}

// NewProvider returns a Provider that opens dsn with New.
func NewProvider(dsn string) *Provider {
	return NewProviderWithOpener(dsn, New)
}

// NewProviderWithOpener returns a Provider using a custom opener.
func NewProviderWithOpener(dsn string, open OpenFunc) *Provider {
	return &Provider{dsn: dsn, open: open}
}

// ErrProviderClosed is returned by Pool after Close.
var ErrProviderClosed = errors.New("platform/db: provider closed")

// Pool returns the shared pool, opening it if needed.
func (p *Provider) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrProviderClosed
	}
	if p.pool != nil {
		return p.pool, nil
	}
	pool, err := p.open(ctx, p.dsn)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return pool, nil
}

// Close releases the pool. It is safe to call more than once.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	p.closed = true
}
