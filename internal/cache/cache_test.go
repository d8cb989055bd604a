package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), "redis://"+mr.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestListKey(t *testing.T) {
	if got := ListKey(3, "Спорт", 20); got != "news:list:3:Спорт:20" {
		t.Errorf("ListKey = %q", got)
	}
	if got := ListKey(0, "", 5); got != "news:list:0::5" {
		t.Errorf("ListKey = %q", got)
	}
}

func TestRedisCacheGetSet(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "news:list:0::20"); ok || err != nil {
		t.Fatalf("Get on empty cache = %v, %v", ok, err)
	}
	if err := c.Set(ctx, "news:list:0::20", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b, ok, err := c.Get(ctx, "news:list:0::20")
	if err != nil || !ok || string(b) != `[{"id":1}]` {
		t.Fatalf("Get = %q, %v, %v", b, ok, err)
	}
	if ttl := mr.TTL("news:list:0::20"); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "news:list:0::20"); ok {
		t.Error("entry should have expired")
	}
}

func TestRedisCacheInvalidate(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	mr.Set("news:list:0::20", "a")
	mr.Set("news:list:0:Спорт:5", "b")
	mr.Set("session:42", "keep")

	gen, err := c.Generation(ctx)
	if err != nil || gen != 0 {
		t.Fatalf("Generation = %d, %v", gen, err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	if mr.Exists("news:list:0::20") || mr.Exists("news:list:0:Спорт:5") {
		t.Error("list keys should be deleted")
	}
	if !mr.Exists("session:42") {
		t.Error("foreign key must survive invalidation")
	}
	if gen, _ := c.Generation(ctx); gen != 1 {
		t.Errorf("generation after invalidate = %d, want 1", gen)
	}
}

func TestRedisCacheErrorsWhenClientClosed(t *testing.T) {
	c, _ := newRedisCache(t)
	c.Close()
	ctx := context.Background()

	if _, err := c.Generation(ctx); err == nil {
		t.Error("Generation: expected error")
	}
	if _, _, err := c.Get(ctx, "k"); err == nil {
		t.Error("Get: expected error")
	}
	if err := c.Invalidate(ctx); err == nil {
		t.Error("Invalidate: expected error")
	}
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Errorf("Noop.Get = %v, %v", ok, err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not-a-url", 0); err == nil {
		t.Fatal("expected parse error")
	}
}
