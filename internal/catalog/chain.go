package catalog

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewChain puts the cache and the breaker in front of any base resolver.
func NewChain(c context.Context, base Resolver, cache redis.Cmdable, cacheTTL time.Duration, name string) Resolver {
	r := base
	if cache != nil {
		r = NewCachedResolver(r, cache, cacheTTL)
	}
	return NewBreakerResolver(c, r, BreakerSettings{Name: name, OpenTimeout: 30 * time.Second})
}
