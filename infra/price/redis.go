package price

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const keyPrefix = "price:"

// reader is the subset of the redis client the feed reads with.
type reader interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// Feed caches USD prices published under "price:<TOKEN>" keys.
// Price never touches the network; Refresh does.
type Feed struct {
	rdb reader

	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewClient builds a redis client for addr.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// NewFeed wraps a redis client.
func NewFeed(rdb reader) *Feed {
	return &Feed{rdb: rdb, prices: make(map[string]decimal.Decimal)}
}

// Price returns the last refreshed price of token.
func (f *Feed) Price(token string) (decimal.Decimal, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.prices[strings.ToUpper(token)]
	return p, ok
}

// Refresh re-reads every price key. Keys whose value does not parse as a
// positive decimal are skipped and keep their previous value.
func (f *Feed) Refresh(ctx context.Context) error {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := f.rdb.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scanning price keys: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	if len(keys) == 0 {
		return nil
	}

	vals, err := f.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("reading prices: %w", err)
	}

	fresh := make(map[string]decimal.Decimal, len(keys))
	for i, key := range keys {
		if i >= len(vals) {
			break
		}
		p, ok := parsePrice(vals[i])
		if !ok {
			slog.Debug("price: skipping value", "key", key)
			continue
		}
		fresh[strings.ToUpper(strings.TrimPrefix(key, keyPrefix))] = p
	}

	f.mu.Lock()
	for token, p := range fresh {
		f.prices[token] = p
	}
	f.mu.Unlock()
	return nil
}

func parsePrice(v any) (decimal.Decimal, bool) {
	var raw string
	switch t := v.(type) {
	case string:
		raw = t
	case []byte:
		raw = string(t)
	default:
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !p.IsPositive() {
		return decimal.Zero, false
	}
	return p, true
}
