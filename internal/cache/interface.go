package cache

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/duochat/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// GroupCache caches groups by id for membership checks on the send and
// broadcast paths.
type GroupCache interface {
	Get(ctx context.Context, groupID string) (*domain.Group, error)
	Set(ctx context.Context, group *domain.Group, ttl time.Duration) error
	Delete(ctx context.Context, groupIDs ...string) error
	Close() error
}

// NoopGroupCache always misses. It is used when redis is disabled.
type NoopGroupCache struct{}

func (NoopGroupCache) Get(context.Context, string) (*domain.Group, error) { return nil, ErrCacheMiss }
func (NoopGroupCache) Set(context.Context, *domain.Group, time.Duration) error { return nil }
func (NoopGroupCache) Delete(context.Context, ...string) error { return nil }
func (NoopGroupCache) Close() error { return nil }
