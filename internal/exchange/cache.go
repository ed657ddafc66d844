package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider wraps a RateProvider with a Redis cache keyed per date.
// Historical rate sheets never change, so cache hits skip the upstream API
// entirely. Every cache failure degrades to a direct fetch; the cache is
// strictly best-effort.
type CachedProvider struct {
	inner  RateProvider
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider connects to Redis and returns a caching decorator over
// inner. It fails when Redis is unreachable at startup so a misconfigured
// cache is caught early rather than silently bypassed forever.
func NewCachedProvider(inner RateProvider, addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*CachedProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}

	return &CachedProvider{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func cacheKey(date string) string {
	return "rates:" + date
}

// Fetch returns the cached sheet for the date when present, otherwise
// queries the inner provider and stores the result.
func (p *CachedProvider) Fetch(ctx context.Context, date string) (*RateSheet, error) {
	key := cacheKey(date)

	data, err := p.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var sheet RateSheet
		if unmarshalErr := json.Unmarshal([]byte(data), &sheet); unmarshalErr == nil {
			return &sheet, nil
		}
		p.logger.Warn("discarding undecodable cached rate sheet", "date", date)
	case err != redis.Nil:
		p.logger.Warn("rate cache read failed", "date", date, "error", err)
	}

	sheet, err := p.inner.Fetch(ctx, date)
	if err != nil {
		return nil, err
	}

	if encoded, marshalErr := json.Marshal(sheet); marshalErr == nil {
		if setErr := p.client.Set(ctx, key, encoded, p.ttl).Err(); setErr != nil {
			p.logger.Warn("rate cache write failed", "date", date, "error", setErr)
		}
	}

	return sheet, nil
}

// Close releases the Redis connection.
func (p *CachedProvider) Close() error {
	return p.client.Close()
}
