package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/internal/catalog"
	"github.com/Alturino/storefront/internal/i18n"
)

type fakeSource struct {
	mu      sync.Mutex
	lines   []domain.Line
	version uint64
}

func (s *fakeSource) Snapshot() ([]domain.Line, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Line(nil), s.lines...), s.version
}

func (s *fakeSource) set(lines ...domain.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = lines
	s.version++
}

type fakeResolver struct {
	products map[string]catalog.Product
	err      error
	requests [][]string
	// onResolve runs after the lookup, before it returns.
	onResolve func(call int)
}

func (r *fakeResolver) ResolveProducts(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	r.requests = append(r.requests, ids)
	if r.onResolve != nil {
		r.onResolve(len(r.requests))
	}
	if r.err != nil {
		return nil, r.err
	}
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func product(id, price, currency string) catalog.Product {
	return catalog.Product{ID: id, Title: id, Price: decimal.RequireFromString(price), Currency: currency}
}

func line(id string, qty int) domain.Line {
	return domain.Line{ProductID: id, Quantity: qty}
}

func TestBuild(t *testing.T) {
	translator := i18n.NewTranslator("en")

	testCases := []struct {
		name           string
		lines          []domain.Line
		products       map[string]catalog.Product
		wantTotal      string
		wantCurrency   string
		wantLines      []string
		wantUnresolved []string
		wantDiag       []string
	}{
		{
			name:           "missing product is dropped from lines and total",
			lines:          []domain.Line{line("p1", 2), line("missing", 1)},
			products:       map[string]catalog.Product{"p1": product("p1", "10.50", "BGN")},
			wantTotal:      "21",
			wantCurrency:   "BGN",
			wantLines:      []string{"p1"},
			wantUnresolved: []string{"missing"},
			wantDiag:       []string{},
		},
		{
			name:  "total sums every resolved line",
			lines: []domain.Line{line("a", 3), line("b", 2)},
			products: map[string]catalog.Product{
				"a": product("a", "1.10", "EUR"),
				"b": product("b", "0.20", "EUR"),
			},
			wantTotal:      "3.7",
			wantCurrency:   "EUR",
			wantLines:      []string{"a", "b"},
			wantUnresolved: []string{},
			wantDiag:       []string{},
		},
		{
			name:  "other currencies are excluded from the total",
			lines: []domain.Line{line("a", 1), line("b", 1)},
			products: map[string]catalog.Product{
				"a": product("a", "5", "BGN"),
				"b": product("b", "7", "USD"),
			},
			wantTotal:      "5",
			wantCurrency:   "BGN",
			wantLines:      []string{"a", "b"},
			wantUnresolved: []string{},
			wantDiag:       []string{i18n.KeyMixedCurrency},
		},
		{
			name:           "product without currency uses the default",
			lines:          []domain.Line{line("a", 1)},
			products:       map[string]catalog.Product{"a": product("a", "2", "")},
			wantTotal:      "2",
			wantCurrency:   "BGN",
			wantLines:      []string{"a"},
			wantUnresolved: []string{},
			wantDiag:       []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{lines: tc.lines, version: 1}
			b := NewBuilder(&fakeResolver{products: tc.products}, translator, 0)

			v, err := b.Build(context.Background(), src, i18n.English)
			require.NoError(t, err)

			assert.True(t, decimal.RequireFromString(tc.wantTotal).Equal(v.Total), "total=%s", v.Total)
			assert.Equal(t, tc.wantCurrency, v.Currency)
			assert.NotEmpty(t, v.FormattedTotal)
			ids := []string{}
			for _, l := range v.Lines {
				ids = append(ids, l.ProductID)
			}
			assert.Equal(t, tc.wantLines, ids)
			assert.Equal(t, tc.wantUnresolved, v.Unresolved)
			codes := []string{}
			for _, d := range v.Diagnostics {
				codes = append(codes, d.Code)
			}
			assert.Equal(t, tc.wantDiag, codes)
			assert.Equal(t, domain.TotalQuantity(tc.lines), v.ItemCount)
			assert.Equal(t, len(tc.lines), v.UniqueCount)
		})
	}
}

func TestBuildEmptyCartSkipsResolver(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("must not be called")}
	v, err := NewBuilder(resolver, i18n.NewTranslator("bg"), 0).Build(context.Background(), &fakeSource{}, i18n.Bulgarian)
	require.NoError(t, err)
	assert.True(t, v.Empty)
	assert.Empty(t, resolver.requests)
	assert.True(t, v.Total.IsZero())
	assert.Equal(t, "BGN", v.Currency)
}

func TestBuildResolutionError(t *testing.T) {
	src := &fakeSource{lines: []domain.Line{line("a", 1)}}
	_, err := NewBuilder(&fakeResolver{err: catalog.ErrUnavailable}, i18n.NewTranslator("en"), 0).
		Build(context.Background(), src, i18n.English)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.ErrorIs(t, err, catalog.ErrUnavailable)
}

func TestBuildTruncatesToBatch(t *testing.T) {
	lines := make([]domain.Line, 0, 5)
	products := map[string]catalog.Product{}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("p%d", i)
		lines = append(lines, line(id, 1))
		products[id] = product(id, "1", "BGN")
	}
	resolver := &fakeResolver{products: products}

	v, err := NewBuilder(resolver, i18n.NewTranslator("en"), 3).
		Build(context.Background(), &fakeSource{lines: lines}, i18n.English)
	require.NoError(t, err)

	require.Len(t, resolver.requests, 1)
	assert.Equal(t, []string{"p0", "p1", "p2"}, resolver.requests[0])
	assert.True(t, v.Truncated)
	assert.Len(t, v.Lines, 3)
	assert.Equal(t, []string{"p3", "p4"}, v.Unresolved)
	require.Len(t, v.Diagnostics, 1)
	assert.Equal(t, i18n.KeyCartTooLargeToResolve, v.Diagnostics[0].Code)
	assert.Contains(t, v.Diagnostics[0].Message, "3")
}

func TestBuildStaleGuard(t *testing.T) {
	products := map[string]catalog.Product{
		"a": product("a", "1", "BGN"),
		"b": product("b", "2", "BGN"),
	}

	t.Run("changed id set is re-resolved", func(t *testing.T) {
		src := &fakeSource{lines: []domain.Line{line("a", 1)}}
		resolver := &fakeResolver{products: products}
		resolver.onResolve = func(call int) {
			if call == 1 {
				src.set(line("a", 1), line("b", 1))
			}
		}

		v, err := NewBuilder(resolver, i18n.NewTranslator("en"), 0).Build(context.Background(), src, i18n.English)
		require.NoError(t, err)
		assert.Len(t, resolver.requests, 2)
		assert.Len(t, v.Lines, 2)
		assert.True(t, decimal.NewFromInt(3).Equal(v.Total))
		assert.Equal(t, uint64(1), v.Version)
	})

	t.Run("quantity change uses fresh quantities", func(t *testing.T) {
		src := &fakeSource{lines: []domain.Line{line("a", 1)}}
		resolver := &fakeResolver{products: products}
		resolver.onResolve = func(int) { src.set(line("a", 4)) }

		v, err := NewBuilder(resolver, i18n.NewTranslator("en"), 0).Build(context.Background(), src, i18n.English)
		require.NoError(t, err)
		assert.Len(t, resolver.requests, 1)
		require.Len(t, v.Lines, 1)
		assert.Equal(t, 4, v.Lines[0].Quantity)
		assert.True(t, decimal.NewFromInt(4).Equal(v.Total))
	})

	t.Run("gives up when the cart never settles", func(t *testing.T) {
		src := &fakeSource{lines: []domain.Line{line("a", 1)}}
		resolver := &fakeResolver{products: products}
		resolver.onResolve = func(call int) {
			if call%2 == 1 {
				src.set(line("b", 1))
			} else {
				src.set(line("a", 1))
			}
		}

		_, err := NewBuilder(resolver, i18n.NewTranslator("en"), 0).Build(context.Background(), src, i18n.English)
		assert.ErrorIs(t, err, ErrStale)
		assert.Len(t, resolver.requests, DefaultMaxAttempts)
	})
}
