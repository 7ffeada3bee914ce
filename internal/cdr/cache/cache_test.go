package cache

import (
	"context"
	"testing"
	"time"

	"callcenter_backend/internal/cdr/client"
	"callcenter_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewFromClient(rdb, 2*time.Minute, logger.New("development")), mr
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	calls := []client.RawCall{{Calldate: "2026-08-01 10:00:00", Src: "727", Dst: "14377576727", Billsec: 930}}
	c.Set(ctx, "727", 2, calls)

	got, ok := c.Get(ctx, "727", 2)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].Billsec != 930 {
		t.Fatalf("unexpected cached calls: %+v", got)
	}
}

func TestGetMissOnDifferentWindow(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	c.Set(ctx, "727", 2, []client.RawCall{{Src: "727"}})

	if _, ok := c.Get(ctx, "727", 3); ok {
		t.Fatal("expected miss for a different months window")
	}
	if _, ok := c.Get(ctx, "728", 2); ok {
		t.Fatal("expected miss for a different agent")
	}
}

func TestGetAfterExpiry(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	c.Set(ctx, "727", 2, []client.RawCall{{Src: "727"}})
	mr.FastForward(3 * time.Minute)

	if _, ok := c.Get(ctx, "727", 2); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}
