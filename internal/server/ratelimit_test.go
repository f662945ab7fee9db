package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(3)
	ctx := context.Background()

	for i := range 3 {
		if ok, _ := l.Allow(ctx, "bob"); !ok {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if ok, _ := l.Allow(ctx, "bob"); ok {
		t.Fatal("fourth call should be limited")
	}
	if ok, _ := l.Allow(ctx, "carol"); !ok {
		t.Fatal("callers must not share buckets")
	}
}

func TestLocalLimiter_DropsIdleBuckets(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	l := NewLocalLimiter(60)
	l.now = func() time.Time { return now }

	for i := range 100 {
		if ok, _ := l.Allow(ctx, "caller-"+strconv.Itoa(i)); !ok {
			t.Fatalf("first call from caller-%d limited", i)
		}
	}
	if n := l.tracked(); n != 100 {
		t.Fatalf("tracked = %d, want 100", n)
	}

	// Every bucket refills within a minute of its last use.
	now = now.Add(2 * time.Minute)
	if ok, _ := l.Allow(ctx, "bob"); !ok {
		t.Fatal("bob limited")
	}
	if n := l.tracked(); n != 1 {
		t.Fatalf("tracked = %d after idle sweep, want 1", n)
	}
}

func TestLocalLimiter_BoundedBuckets(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	l := NewLocalLimiter(1)
	l.now = func() time.Time { return now }

	for i := range maxLocalBuckets + 500 {
		_, _ = l.Allow(ctx, "caller-"+strconv.Itoa(i))
	}
	if n := l.tracked(); n > maxLocalBuckets {
		t.Fatalf("tracked = %d, want at most %d", n, maxLocalBuckets)
	}

	// A caller that was not evicted keeps its drained bucket.
	key := "caller-" + strconv.Itoa(maxLocalBuckets+499)
	if ok, _ := l.Allow(ctx, key); ok {
		t.Fatalf("%s allowed twice within a minute", key)
	}
}

func TestRateLimitedVote(t *testing.T) {
	_, _, h := newTestServer(t, WithLimiter(NewLocalLimiter(2)))
	initHTTP(t, h) // alice spends one token

	rec := doJSON(t, h, "POST", "/v1/events", "alice", map[string]string{"title": "x"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add event: %d", rec.Code)
	}
	rec = doJSON(t, h, "POST", "/v1/events", "alice", map[string]string{"title": "y"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	rec = doJSON(t, h, "POST", "/v1/events/0/votes", "bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bob's vote: %d", rec.Code)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestLimiterFailureAllowsRequest(t *testing.T) {
	_, _, h := newTestServer(t, WithLimiter(failingLimiter{}))
	initHTTP(t, h)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("BALLOT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BALLOT_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	l := NewRedisLimiter(client, 2)
	key := "test-" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, "ballot:ratelimit:"+key) })

	for i := range 2 {
		ok, err := l.Allow(ctx, key)
		if err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, err := l.Allow(ctx, key); err != nil || ok {
		t.Fatalf("third call: ok=%v err=%v, want limited", ok, err)
	}
}

func TestRedisLimiter_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	if _, err := NewRedisLimiter(client, 10).Allow(context.Background(), "bob"); err == nil {
		t.Fatal("expected an error from an unreachable redis")
	}
}
