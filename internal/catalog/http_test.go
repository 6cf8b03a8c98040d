package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPResolver(t *testing.T) {
	var gotIDs string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("ids")
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(gotIDs, "boom") {
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "failed", "message": "unavailable"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{"products": []Product{
				{ID: "p1", Title: "Mug", Price: decimal.RequireFromString("12.50"), Currency: "BGN"},
			}},
		})
	}))
	defer server.Close()

	r := NewHTTPResolver(server.URL + "/")

	t.Run("resolves existing ids", func(t *testing.T) {
		products, err := r.ResolveProducts(context.Background(), []string{"p1", "gone"})
		require.NoError(t, err)
		assert.Equal(t, "p1,gone", gotIDs)
		require.Len(t, products, 1)
		assert.Equal(t, "Mug", products["p1"].Title)
		assert.True(t, decimal.RequireFromString("12.5").Equal(products["p1"].Price))
	})

	t.Run("empty lookup skips the request", func(t *testing.T) {
		gotIDs = "untouched"
		products, err := r.ResolveProducts(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.Equal(t, "untouched", gotIDs)
	})

	t.Run("oversized batch", func(t *testing.T) {
		ids := make([]string, MaxBatch+1)
		for i := range ids {
			ids[i] = "p"
		}
		_, err := r.ResolveProducts(context.Background(), ids)
		assert.ErrorIs(t, err, ErrBatchTooLarge)
	})

	t.Run("non ok status is an error", func(t *testing.T) {
		_, err := r.ResolveProducts(context.Background(), []string{"boom"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "statusCode=502")
	})
}
