package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCache(rdb, 30*time.Second), mr
}

func TestStoreAndGetStatus(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.StoreStatus(ctx, 7, []byte(`{"status":"active"}`)); err != nil {
		t.Fatalf("StoreStatus() error: %v", err)
	}
	if !mr.Exists("campaign:7:status") {
		t.Fatal("expected key campaign:7:status to exist")
	}
	if mr.TTL("campaign:7:status") <= 0 {
		t.Fatal("expected a TTL on the status key")
	}

	payload, ok, err := c.GetStatus(ctx, 7)
	if err != nil {
		t.Fatalf("GetStatus() error: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if string(payload) != `{"status":"active"}` {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestGetStatus_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	_, ok, err := c.GetStatus(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetStatus() error: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss")
	}
}

func TestInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.StoreStatus(ctx, 7, []byte("x")); err != nil {
		t.Fatalf("StoreStatus() error: %v", err)
	}
	if err := c.Invalidate(ctx, 7); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if mr.Exists("campaign:7:status") {
		t.Fatal("expected key to be deleted")
	}
}
