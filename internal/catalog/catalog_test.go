package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	products map[string]Product
	err      error
	calls    atomic.Int32
	lastIDs  []string
}

func (f *fakeResolver) ResolveProducts(_ context.Context, ids []string) (map[string]Product, error) {
	f.calls.Add(1)
	f.lastIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type memoryPopular struct {
	ids []string
	err error
}

func (m *memoryPopular) PopularIDs(context.Context) ([]string, error) { return m.ids, m.err }

func (m *memoryPopular) SetPopularIDs(_ context.Context, ids []string) error {
	if m.err != nil {
		return m.err
	}
	m.ids = ids
	return nil
}

func product(id string, price string) Product {
	return Product{ID: id, Title: "Product " + id, Price: decimal.RequireFromString(price), Currency: "BGN"}
}

func catalogOf(ids ...string) map[string]Product {
	out := map[string]Product{}
	for _, id := range ids {
		out[id] = product(id, "1.50")
	}
	return out
}

func TestOrdered(t *testing.T) {
	products := catalogOf("a", "b", "c")
	got := Ordered([]string{"c", "x", "a"}, products)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestProductDocument(t *testing.T) {
	p := productDocument{Title: "Soap", Price: 4.2, Currency: "BGN"}.product("soap")
	assert.Equal(t, "soap", p.ID)
	assert.True(t, decimal.RequireFromString("4.2").Equal(p.Price))
}

func TestCachedResolver(t *testing.T) {
	c := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	next := &fakeResolver{products: catalogOf("a", "b")}
	r := NewCachedResolver(next, client, time.Minute)

	got, err := r.ResolveProducts(c, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(1), next.calls.Load())
	assert.True(t, mr.Exists(cacheKey("a")))
	assert.Equal(t, time.Minute, mr.TTL(cacheKey("a")))

	got, err = r.ResolveProducts(c, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.True(t, decimal.RequireFromString("1.5").Equal(got["a"].Price))
	assert.Equal(t, int32(1), next.calls.Load())

	_, err = r.ResolveProducts(c, []string{"a", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, []string{"missing"}, next.lastIDs)

	require.NoError(t, r.Invalidate(c, "a"))
	assert.False(t, mr.Exists(cacheKey("a")))
}

func TestCachedResolverDegradesWhenCacheDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	next := &fakeResolver{products: catalogOf("a")}
	got, err := NewCachedResolver(next, client, time.Minute).ResolveProducts(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBreakerResolver(t *testing.T) {
	c := context.Background()
	next := &fakeResolver{err: errors.New("deadline exceeded")}
	r := NewBreakerResolver(c, next, BreakerSettings{Name: "test", ConsecutiveFailures: 2, OpenTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		_, err := r.ResolveProducts(c, []string{"a"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	_, err := r.ResolveProducts(c, []string{"a"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestResolvePopular(t *testing.T) {
	c := context.Background()

	testCases := []struct {
		name    string
		ids     []string
		catalog map[string]Product
		want    []string
		wantErr error
	}{
		{
			name:    "returns configured order",
			ids:     []string{"c", "a", "b"},
			catalog: catalogOf("a", "b", "c"),
			want:    []string{"c", "a", "b"},
		},
		{name: "nothing configured", ids: nil, catalog: catalogOf("a"), wantErr: ErrPopularNotConfigured},
		{
			name:    "wrong count",
			ids:     []string{"a", "b"},
			catalog: catalogOf("a", "b"),
			wantErr: ErrPopularMisconfigured,
		},
		{
			name:    "configured product no longer exists",
			ids:     []string{"a", "b", "gone"},
			catalog: catalogOf("a", "b"),
			wantErr: ErrPopularMisconfigured,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolvePopular(c, &memoryPopular{ids: tc.ids}, &fakeResolver{products: tc.catalog})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestSetPopular(t *testing.T) {
	c := context.Background()
	resolver := &fakeResolver{products: catalogOf("a", "b", "c")}

	testCases := []struct {
		name    string
		ids     []string
		wantErr bool
	}{
		{name: "valid", ids: []string{"b", "c", "a"}},
		{name: "too few", ids: []string{"a", "b"}, wantErr: true},
		{name: "duplicate", ids: []string{"a", "a", "b"}, wantErr: true},
		{name: "unknown", ids: []string{"a", "b", "zzz"}, wantErr: true},
		{name: "empty id", ids: []string{"a", "", "b"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &memoryPopular{ids: []string{"x", "y", "z"}}
			err := SetPopular(c, store, resolver, tc.ids)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPopularProduct)
				assert.Equal(t, []string{"x", "y", "z"}, store.ids)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ids, store.ids)
		})
	}
}
