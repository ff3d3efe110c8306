package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.opentelemetry.io/otel/attribute"
)

var _ Cache = (*Memcached)(nil)

type Memcached struct {
	client *memcache.Client
	in     instrument
}

func NewMemcached(addr string) *Memcached {
	client := memcache.New(addr)
	client.Timeout = 100 * time.Millisecond
	return &Memcached{client, instrument{"memcached"}}
}

// do runs a blocking client call, giving up when ctx is done.
func do[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (m *Memcached) Store(ctx context.Context, key string, data any, ttl time.Duration) error {
	ctx, span := m.in.start(ctx, "Store", key)
	defer span.End()
	span.SetAttributes(attribute.Int64("cache.ttl", int64(ttl.Seconds())))

	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	b, err := json.Marshal(data)
	if err != nil {
		return m.in.fail(span, fmt.Errorf("failed to marshal %s: %w", key, err))
	}

	start := time.Now()
	_, err = do(ctx, func() (struct{}, error) {
		return struct{}{}, m.client.Set(&memcache.Item{Key: key, Value: b, Expiration: int32(ttl.Seconds())})
	})
	if err != nil {
		return m.in.fail(span, fmt.Errorf("failed to store %s: %w", key, err))
	}
	m.in.wrote(span, start)

	return nil
}

func (m *Memcached) Fetch(ctx context.Context, key string) ([]byte, error) {
	ctx, span := m.in.start(ctx, "Fetch", key)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	item, err := do(ctx, func() (*memcache.Item, error) { return m.client.Get(key) })
	switch {
	case errors.Is(err, memcache.ErrCacheMiss):
		m.in.miss(span)
		return nil, ErrCacheMiss
	case err != nil:
		return nil, m.in.fail(span, fmt.Errorf("cache fetch: %w", err))
	default:
		m.in.hit(span, start)
		return item.Value, nil
	}
}

func (m *Memcached) Ping(ctx context.Context) error {
	_, err := do(ctx, func() (struct{}, error) { return struct{}{}, m.client.Ping() })
	return err
}

func (m *Memcached) Close() {
	m.client.Close()
}
