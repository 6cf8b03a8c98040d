package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const cacheKeyPrefix = "product"

func cacheKey(id string) string {
	return fmt.Sprintf("%s:%s", cacheKeyPrefix, id)
}

// CachedResolver is a redis read-through cache in front of another resolver.
// Cache failures fall through to the underlying resolver.
type CachedResolver struct {
	next  Resolver
	cache redis.Cmdable
	ttl   time.Duration
	group singleflight.Group
}

func NewCachedResolver(next Resolver, cache redis.Cmdable, ttl time.Duration) *CachedResolver {
	return &CachedResolver{next: next, cache: cache, ttl: ttl}
}

func (r *CachedResolver) ResolveProducts(c context.Context, ids []string) (map[string]Product, error) {
	c, span := otel.Tracer.Start(c, "CachedResolver ResolveProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CachedResolver ResolveProducts").
		Strs(log.KeyProductIDs, ids).
		Logger()

	products := make(map[string]Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}

	misses := ids
	values, err := r.cache.MGet(c, keys...).Result()
	if err != nil {
		logger.Warn().Err(err).Msg("failed reading product cache, falling back")
	} else {
		misses = make([]string, 0, len(ids))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				misses = append(misses, ids[i])
				continue
			}
			p := Product{}
			if err := json.Unmarshal([]byte(s), &p); err != nil {
				misses = append(misses, ids[i])
				continue
			}
			products[ids[i]] = p
		}
	}
	logger.Trace().Int("hits", len(products)).Int("misses", len(misses)).Msg("read product cache")

	if len(misses) == 0 {
		return products, nil
	}

	sorted := append([]string(nil), misses...)
	sort.Strings(sorted)
	c = logger.WithContext(c)
	v, err, _ := r.group.Do(strings.Join(sorted, ","), func() (interface{}, error) {
		return r.next.ResolveProducts(c, misses)
	})
	if err != nil {
		otel.RecordError(err, span)
		return nil, err
	}
	fetched := v.(map[string]Product)

	pipe := r.cache.Pipeline()
	for id, p := range fetched {
		products[id] = p
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(c, cacheKey(id), data, r.ttl)
	}
	if _, err := pipe.Exec(c); err != nil {
		logger.Warn().Err(err).Msg("failed writing product cache")
	}

	return products, nil
}

// Invalidate drops cached products, e.g. after an edit.
func (r *CachedResolver) Invalidate(c context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	return r.cache.Del(c, keys...).Err()
}
