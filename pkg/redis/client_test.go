package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storyreelhq/storyreel-backend/pkg/config"
)

type fakeStore struct {
	counts map[string]int64
	ttls   map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(context.Context, string, any, time.Duration) *redis.StatusCmd {
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeStore) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeStore) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestFixedWindowAllow(t *testing.T) {
	store := newFakeStore()
	client := &Client{store: store}
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:1.2.3.4", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("attempt %d should be allowed", i)
		}
		if count != int64(i) {
			t.Fatalf("expected count %d got %d", i, count)
		}
	}

	allowed, count, err := client.FixedWindowAllow(ctx, "login:1.2.3.4", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if allowed {
		t.Fatalf("fourth attempt should be blocked (count=%d)", count)
	}

	key := client.RateLimitKey("login:1.2.3.4")
	if store.ttls[key] != time.Minute {
		t.Fatalf("expected window TTL on first increment, got %v", store.ttls[key])
	}
}

func TestBuildKeyNamespacing(t *testing.T) {
	client := &Client{}
	if got := client.RateLimitKey("login:x"); got != "sr:rate_limit:login:x" {
		t.Fatalf("unexpected rate limit key %q", got)
	}
	if got := client.CounterKey("logins"); got != "sr:counter:logins" {
		t.Fatalf("unexpected counter key %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when url and address are empty")
	}
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", PoolSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.PoolSize != 5 {
		t.Fatalf("options not populated: %+v", opts)
	}
}
