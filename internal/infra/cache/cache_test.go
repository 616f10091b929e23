package cache_test

import (
	"testing"
	"time"

	"github.com/telvora/telvora-admin-bff/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("insight:CUST-1:5", "bundle")
	val, ok := c.Get("insight:CUST-1:5")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "bundle" {
		t.Errorf("expected 'bundle', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("k")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[int](5 * time.Minute)

	c.Set("k", 42)
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected key to be deleted")
	}
}
