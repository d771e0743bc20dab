// Package redisstore keeps the session record in Redis so that several admin
// shells on one host can share a login.
package redisstore

import (
	"context"
	"time"

	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/jrsteele09/go-webadmin/sessions"
	"github.com/redis/go-redis/v9"
)

var _ sessions.Backend = (*Backend)(nil)

type Backend struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

type Option func(*Backend)

// WithPrefix namespaces every key, "webadmin:" by default
func WithPrefix(prefix string) Option {
	return func(b *Backend) {
		b.prefix = prefix
	}
}

// WithTTL expires idle entries; zero keeps them until deleted
func WithTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.ttl = ttl
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(b *Backend) {
		b.timeout = timeout
	}
}

func New(client redis.UniversalClient, opts ...Option) *Backend {
	b := &Backend{
		client:  client,
		prefix:  "webadmin:",
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	value, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStoreUnavailable, "%v", err)
	}
	return value, nil
}

func (b *Backend) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := b.client.Set(ctx, b.prefix+key, value, b.ttl).Err(); err != nil {
		return errors.Wrapf(errors.ErrStoreUnavailable, "%v", err)
	}
	return nil
}

func (b *Backend) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return errors.Wrapf(errors.ErrStoreUnavailable, "%v", err)
	}
	return nil
}
