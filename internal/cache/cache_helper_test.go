package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheHelper(client, "session:"), mr
}

func TestCacheHelperSetGet(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		ID    string `json:"id"`
		Level int    `json:"level"`
	}

	in := payload{ID: "abc", Level: 3}
	if err := helper.Set(ctx, "id:abc", in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out payload
	if err := helper.Get(ctx, "id:abc", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestCacheHelperGetMissing(t *testing.T) {
	helper, _ := newTestCache(t)

	var out map[string]string
	err := helper.Get(context.Background(), "id:missing", &out)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("got %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelperNilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "session:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:abc", "x", time.Minute); err != nil {
		t.Errorf("Set with nil client should be a no-op, got %v", err)
	}

	var out string
	if err := helper.Get(ctx, "id:abc", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("got %v, want ErrCacheNotAvailable", err)
	}

	if err := helper.Delete(ctx, "id:abc"); err != nil {
		t.Errorf("Delete with nil client should be a no-op, got %v", err)
	}
}

func TestCacheHelperDelete(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "id:abc", "x", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := helper.Delete(ctx, "id:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var out string
	if err := helper.Get(ctx, "id:abc", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("got %v, want ErrCacheNotFound after delete", err)
	}
}

func TestCacheHelperInvalidatePattern(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	keys := []string{"user:u1:level:1", "user:u1:level:2", "user:u2:level:1"}
	for _, key := range keys {
		if err := helper.Set(ctx, key, "x", time.Minute); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "user:u1:*"); err != nil {
		t.Fatalf("InvalidatePattern: %v", err)
	}

	var out string
	if err := helper.Get(ctx, "user:u1:level:1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("u1 keys should be gone, got %v", err)
	}
	if err := helper.Get(ctx, "user:u2:level:1", &out); err != nil {
		t.Errorf("u2 keys should survive, got %v", err)
	}
}

func TestCacheOrExecuteFetchesOnMiss(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	var out string
	err := helper.CacheOrExecute(ctx, "id:abc", &out, time.Minute, func() (interface{}, error) {
		calls++
		return "fetched", nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute: %v", err)
	}
	if out != "fetched" {
		t.Errorf("got %q, want %q", out, "fetched")
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestCacheOrExecuteUsesCache(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "id:abc", "cached", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out string
	err := helper.CacheOrExecute(ctx, "id:abc", &out, time.Minute, func() (interface{}, error) {
		t.Fatal("fetch should not run on cache hit")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute: %v", err)
	}
	if out != "cached" {
		t.Errorf("got %q, want %q", out, "cached")
	}
}

func TestCacheManagerNilClient(t *testing.T) {
	cm := NewCacheManager(nil)

	if err := cm.HealthCheck(context.Background()); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("got %v, want ErrCacheNotAvailable", err)
	}
}
