package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rate-engine/rate"
)

// Redis stores raw rates in one hash per type (field = provider), calculated
// rates in a single hash (field = type) and USDMID as a plain string key.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedis(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if strings.TrimSpace(prefix) == "" {
		prefix = "rates"
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) Name() string { return BackendRedis }

func (r *Redis) rawKey(rateType string) string { return r.prefix + ":raw:" + rateType }
func (r *Redis) calcKey() string               { return r.prefix + ":calc" }
func (r *Redis) usdmidKey() string             { return r.prefix + ":usdmid" }

func (r *Redis) hset(ctx context.Context, key, field string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, field, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

func (r *Redis) hget(ctx context.Context, key, field string, v any) (bool, error) {
	s, err := r.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", key, field, err)
	}
	return true, nil
}

func (r *Redis) SaveRawRate(ctx context.Context, rr rate.RawRate) error {
	return r.hset(ctx, r.rawKey(rr.Type), rr.Provider, rr)
}

func (r *Redis) RawRate(ctx context.Context, rateType, provider string) (rate.RawRate, bool, error) {
	var rr rate.RawRate
	ok, err := r.hget(ctx, r.rawKey(rateType), provider, &rr)
	return rr, ok, err
}

func (r *Redis) RawRatesForType(ctx context.Context, rateType string) ([]rate.RawRate, error) {
	key := r.rawKey(rateType)
	all, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	return decodeRawRates(key, all)
}

func decodeRawRates(key string, fields map[string]string) ([]rate.RawRate, error) {
	providers := make([]string, 0, len(fields))
	for p := range fields {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	out := make([]rate.RawRate, 0, len(providers))
	for _, p := range providers {
		var rr rate.RawRate
		if err := json.Unmarshal([]byte(fields[p]), &rr); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", key, p, err)
		}
		out = append(out, rr)
	}
	return out, nil
}

func (r *Redis) SaveCalculatedRate(ctx context.Context, cr rate.CalculatedRate) error {
	return r.hset(ctx, r.calcKey(), cr.Type, cr)
}

func (r *Redis) CalculatedRate(ctx context.Context, rateType string) (rate.CalculatedRate, bool, error) {
	var cr rate.CalculatedRate
	ok, err := r.hget(ctx, r.calcKey(), rateType, &cr)
	return cr, ok, err
}

func (r *Redis) SaveUSDMid(ctx context.Context, v float64) error {
	if err := r.rdb.Set(ctx, r.usdmidKey(), strconv.FormatFloat(v, 'f', -1, 64), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.usdmidKey(), err)
	}
	return nil
}

func (r *Redis) USDMid(ctx context.Context) (float64, bool, error) {
	s, err := r.rdb.Get(ctx, r.usdmidKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", r.usdmidKey(), err)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode %s: %w", r.usdmidKey(), err)
	}
	return v, true, nil
}

// Ping checks connectivity; used as the health check of the cache component.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

var _ RateCache = (*Redis)(nil)
