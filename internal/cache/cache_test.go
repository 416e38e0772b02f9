package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/weiawesome/duochat/internal/config"
	"github.com/weiawesome/duochat/internal/domain"
)

func TestNoopGroupCache(t *testing.T) {
	var c GroupCache = NoopGroupCache{}
	ctx := context.Background()

	if err := c.Set(ctx, &domain.Group{ID: "g1"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "g1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("got %v, want cache miss", err)
	}
}

// Runs against a live server when DUOCHAT_TEST_REDIS is set, e.g. localhost:6379.
func TestRedisGroupCache(t *testing.T) {
	addr := os.Getenv("DUOCHAT_TEST_REDIS")
	if addr == "" {
		t.Skip("DUOCHAT_TEST_REDIS not set")
	}

	c, err := NewRedisGroupCache(config.RedisConfig{Address: addr, Prefix: "duochat-test"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	g := &domain.Group{ID: "g-cache-test", Name: "team", Members: []string{"alice", "bob"}, CreatedBy: "alice"}

	if err := c.Set(ctx, g, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "team" || len(got.Members) != 2 {
		t.Errorf("got %+v", got)
	}

	if err := c.Delete(ctx, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, g.ID); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("after delete got %v", err)
	}
}
