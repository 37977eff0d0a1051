package cache

import (
	"context"
	"testing"
	"time"
)

func TestDisabledCacheIsSafe(t *testing.T) {
	c := New(nil, "test")

	if c.Enabled() {
		t.Fatal("nil-client cache reports enabled")
	}

	// Every operation must be a silent no-op.
	ctx := context.Background()
	c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute)
	c.Delete(ctx, "k")

	var out map[string]int
	if c.Get(ctx, "k", &out) {
		t.Error("disabled cache reported a hit")
	}
	if out != nil {
		t.Errorf("dest was written: %v", out)
	}
}

func TestNilCachePointerIsSafe(t *testing.T) {
	var c *Cache

	if c.Enabled() {
		t.Fatal("nil cache reports enabled")
	}
	var out string
	if c.Get(context.Background(), "k", &out) {
		t.Error("nil cache reported a hit")
	}
}

func TestKeyNamespacing(t *testing.T) {
	c := New(nil, "webforge")
	if got := c.key("dashboard"); got != "webforge:dashboard" {
		t.Errorf("key = %q", got)
	}
}
