package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Alturino/storefront/cart/internal/domain"
)

func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	c := context.Background()
	redisContainer, err := testRedis.Run(
		c,
		"redis:7.4.2-alpine3.21",
		testRedis.WithLogLevel(testRedis.LogLevelVerbose),
	)
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Errorf("failed to terminate container: %s", err)
		}
	})

	connStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	opt, err := redis.ParseURL(connStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(c).Err())

	return client
}

func TestRedisContainer(t *testing.T) {
	client := setupRedisContainer(t)
	s := NewRedis(client, time.Hour)
	c := context.Background()
	id := uuid.New()

	lines, err := s.Load(c, id)
	require.NoError(t, err)
	assert.Nil(t, lines)

	want := []domain.Line{{ProductID: "a", Quantity: 3}, {ProductID: "b", Quantity: 1}}
	require.NoError(t, s.Save(c, id, want))
	lines, err = s.Load(c, id)
	require.NoError(t, err)
	assert.Equal(t, want, lines)

	ttl, err := client.TTL(c, Key(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, s.Delete(c, id))
	lines, err = s.Load(c, id)
	require.NoError(t, err)
	assert.Nil(t, lines)
}
