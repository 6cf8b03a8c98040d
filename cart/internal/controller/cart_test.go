package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/internal/engine"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/internal/session"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/cart/internal/view"
	"github.com/Alturino/storefront/internal/catalog"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/i18n"
	"github.com/Alturino/storefront/internal/middleware"
)

type fakeResolver struct {
	products map[string]catalog.Product
	err      error
}

func (f *fakeResolver) ResolveProducts(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type cartData struct {
	Cart struct {
		Lines []struct {
			ProductID string          `json:"productId"`
			Quantity  int             `json:"quantity"`
			Subtotal  decimal.Decimal `json:"subtotal"`
		} `json:"lines"`
		Total      decimal.Decimal `json:"total"`
		Currency   string          `json:"currency"`
		ItemCount  int             `json:"itemCount"`
		Unresolved []string        `json:"unresolved"`
		Share      struct {
			State   string `json:"state"`
			Token   string `json:"token"`
			Pending []struct {
				ProductID string `json:"productId"`
				Quantity  int    `json:"quantity"`
			} `json:"pending"`
		} `json:"share"`
	} `json:"cart"`
	SharedItemsRejected string `json:"sharedItemsRejected"`
}

type client struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newClient(t *testing.T, resolver catalog.Resolver) *client {
	t.Helper()
	registry := session.NewRegistry(context.Background(), store.NewMemory(), engine.Options{Debounce: time.Hour}, 0)
	t.Cleanup(func() { _ = registry.Close(context.Background()) })

	translator := i18n.NewTranslator("en")
	svc := service.NewCartService(registry, view.NewBuilder(resolver, translator, 0), "https://shop.example.com")

	router := mux.NewRouter()
	router.Use(middleware.Session("secret", time.Hour))
	AttachCartController(router, svc, translator)
	return &client{t: t, handler: router}
}

func (cl *client) do(method string, target string, body string) envelope {
	cl.t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	r := httptest.NewRequest(method, target, reader)
	r.Header.Set(inHttp.KeyHeaderAcceptLang, "en-US")
	if cl.token != "" {
		r.Header.Set(inHttp.KeyHeaderCartSession, cl.token)
	}
	w := httptest.NewRecorder()
	cl.handler.ServeHTTP(w, r)

	if token := w.Header().Get(inHttp.KeyHeaderCartSession); token != "" {
		cl.token = token
	}
	resp := envelope{}
	require.NoError(cl.t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(cl.t, w.Code, resp.StatusCode)
	return resp
}

func (cl *client) cart() cartData {
	cl.t.Helper()
	resp := cl.do(http.MethodGet, "/carts", "")
	require.Equal(cl.t, http.StatusOK, resp.StatusCode, resp.Message)
	data := cartData{}
	require.NoError(cl.t, json.Unmarshal(resp.Data, &data))
	return data
}

func products() map[string]catalog.Product {
	return map[string]catalog.Product{
		"p1": {ID: "p1", Title: "Soap", Price: decimal.RequireFromString("2.50"), Currency: "BGN"},
		"p2": {ID: "p2", Title: "Towel", Price: decimal.RequireFromString("10"), Currency: "BGN"},
	}
}

func TestCartLifecycle(t *testing.T) {
	cl := newClient(t, &fakeResolver{products: products()})

	data := cl.cart()
	require.NotEmpty(t, cl.token)
	assert.Empty(t, data.Cart.Lines)
	assert.Equal(t, "BGN", data.Cart.Currency)

	resp := cl.do(http.MethodPost, "/carts/items", `{"productId":"p1","quantity":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Item Added to Cart", resp.Message)

	resp = cl.do(http.MethodPost, "/carts/items", `{"productId":"p1","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = cl.do(http.MethodPost, "/carts/items", `{"productId":"gone","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data = cl.cart()
	require.Len(t, data.Cart.Lines, 1)
	assert.Equal(t, "p1", data.Cart.Lines[0].ProductID)
	assert.True(t, decimal.NewFromInt(5).Equal(data.Cart.Total), "total=%s", data.Cart.Total)
	assert.Equal(t, 3, data.Cart.ItemCount)
	assert.Equal(t, []string{"gone"}, data.Cart.Unresolved)

	resp = cl.do(http.MethodDelete, "/carts/items/gone", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = cl.do(http.MethodGet, "/carts/share", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	share := struct {
		Share struct {
			Token string `json:"token"`
			URL   string `json:"url"`
		} `json:"share"`
	}{}
	require.NoError(t, json.Unmarshal(resp.Data, &share))
	assert.Equal(t, "p1_2", share.Share.Token)
	assert.Equal(t, "https://shop.example.com/cart?sharedItems=p1_2", share.Share.URL)

	resp = cl.do(http.MethodPut, "/carts/items/p1", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, cl.cart().Cart.ItemCount)

	resp = cl.do(http.MethodPut, "/carts/items/p1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Item Removed", resp.Message)
	assert.Empty(t, cl.cart().Cart.Lines)

	resp = cl.do(http.MethodGet, "/carts/share", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot share an empty cart.", resp.Message)
}

func TestSharedCartFlow(t *testing.T) {
	cl := newClient(t, &fakeResolver{products: products()})

	resp := cl.do(http.MethodPost, "/carts/items", `{"productId":"p1","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = cl.do(http.MethodGet, "/carts?sharedItems=p2_3,p1_1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := cartData{}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "pendingConfirmation", data.Cart.Share.State)
	assert.Len(t, data.Cart.Share.Pending, 2)
	require.Len(t, data.Cart.Lines, 1)
	assert.Equal(t, "p1", data.Cart.Lines[0].ProductID)

	resp = cl.do(http.MethodGet, "/carts?sharedItems=p2_x", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = cartData{}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "rejected", data.SharedItemsRejected)
	assert.Equal(t, "pendingConfirmation", data.Cart.Share.State)

	resp = cl.do(http.MethodPost, "/carts/share/confirm", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data = cl.cart()
	require.Len(t, data.Cart.Lines, 2)
	assert.Equal(t, "p2", data.Cart.Lines[0].ProductID)
	assert.Equal(t, 3, data.Cart.Lines[0].Quantity)
	assert.Equal(t, "idle", data.Cart.Share.State)

	resp = cl.do(http.MethodPost, "/carts/share/confirm", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = cl.do(http.MethodGet, "/carts?sharedItems=p1_9", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = cl.do(http.MethodPost, "/carts/share/cancel", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, cl.cart().Cart.ItemCount)
}

func TestReplaceAndClear(t *testing.T) {
	cl := newClient(t, &fakeResolver{products: products()})

	resp := cl.do(http.MethodPut, "/carts", `{"items":[{"productId":"p1","quantity":1},{"productId":"p1","quantity":2}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := cl.cart()
	require.Len(t, data.Cart.Lines, 1)
	assert.Equal(t, 3, data.Cart.Lines[0].Quantity)

	resp = cl.do(http.MethodPut, "/carts", `{"items":[{"productId":"p1","quantity":-1}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = cl.do(http.MethodGet, "/carts/summary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(resp.Data), `"itemCount":3`))

	resp = cl.do(http.MethodDelete, "/carts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cart Cleared", resp.Message)
	assert.Empty(t, cl.cart().Cart.Lines)
}

func TestResolverFailureIsBadGateway(t *testing.T) {
	cl := newClient(t, &fakeResolver{err: catalog.ErrUnavailable})

	resp := cl.do(http.MethodPost, "/carts/items", `{"productId":"p1","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = cl.do(http.MethodGet, "/carts", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Error fetching product details for your cart.", resp.Message)
}

func TestRejectsUnstorableLines(t *testing.T) {
	cl := newClient(t, &fakeResolver{products: products()})

	resp := cl.do(http.MethodPost, "/carts/items", `{"productId":"p1","quantity":2147483648}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = cl.do(http.MethodPost, "/carts/items", `{"productId":"a/b","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = cl.do(http.MethodPost, "/carts/items", `{"productId":"p1","quantity":2147483647}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Message)
	resp = cl.do(http.MethodPost, "/carts/items", `{"productId":"p1","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	data := cl.cart()
	require.Len(t, data.Cart.Lines, 1)
	assert.Equal(t, 2147483647, data.Cart.Lines[0].Quantity)

	resp = cl.do(http.MethodGet, "/carts?sharedItems=bad%FF_1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rejected := cartData{}
	require.NoError(t, json.Unmarshal(resp.Data, &rejected))
	assert.NotEmpty(t, rejected.SharedItemsRejected)
	assert.Equal(t, "idle", rejected.Cart.Share.State)
	assert.Len(t, rejected.Cart.Lines, 1)
}
