package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

var _ Cache = (*Valkey)(nil)

type Valkey struct {
	client redis.UniversalClient
	in     instrument
}

// NewValkey connects to a single node or, with several addresses, to a
// cluster.
func NewValkey(addrs []string) *Valkey {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       addrs,
		DialTimeout: 2 * time.Second,
	})
	return &Valkey{client, instrument{"valkey"}}
}

func (v *Valkey) Store(ctx context.Context, key string, data any, ttl time.Duration) error {
	ctx, span := v.in.start(ctx, "Store", key)
	defer span.End()
	span.SetAttributes(attribute.Int64("cache.ttl", int64(ttl.Seconds())))

	ctx, cancel := context.WithTimeout(
		ctx,
		time.Millisecond*200,
	)
	defer cancel()

	b, err := json.Marshal(data)
	if err != nil {
		return v.in.fail(span, fmt.Errorf("failed to marshal %s: %w", key, err))
	}

	start := time.Now()
	if err := v.client.Set(ctx, key, b, ttl).Err(); err != nil {
		return v.in.fail(span, fmt.Errorf("failed to store %s: %w", key, err))
	}
	v.in.wrote(span, start)

	return nil
}

func (v *Valkey) Fetch(ctx context.Context, key string) ([]byte, error) {
	ctx, span := v.in.start(ctx, "Fetch", key)
	defer span.End()

	ctx, cancel := context.WithTimeout(
		ctx,
		time.Millisecond*100,
	)
	defer cancel()

	start := time.Now()
	val, err := v.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		v.in.miss(span)
		return nil, ErrCacheMiss
	case err != nil:
		return nil, v.in.fail(span, fmt.Errorf("cache fetch: %w", err))
	default:
		v.in.hit(span, start)
		return val, nil
	}
}

func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

func (v *Valkey) Close() {
	v.client.Close()
}
