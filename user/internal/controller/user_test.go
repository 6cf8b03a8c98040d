package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/auth"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/i18n"
	"github.com/Alturino/storefront/user/internal/service"
	"github.com/Alturino/storefront/user/pkg/response"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	if idToken == "bad" {
		return nil, errors.New("invalid token")
	}
	return &firebaseauth.Token{UID: idToken, Claims: map[string]interface{}{"email": idToken + "@example.com"}}, nil
}

type memoryProfiles struct {
	profiles map[string]auth.Profile
	writeErr error
}

func (m *memoryProfiles) Get(_ context.Context, uid string) (auth.Profile, error) {
	p, ok := m.profiles[uid]
	if !ok {
		return auth.Profile{}, auth.ErrProfileNotFound
	}
	return p, nil
}

func (m *memoryProfiles) Ensure(c context.Context, identity auth.Identity) (auth.Profile, error) {
	if p, err := m.Get(c, identity.UID); err == nil {
		return p, nil
	}
	p := auth.Profile{UID: identity.UID, Email: identity.Email}
	m.profiles[identity.UID] = p
	return p, nil
}

func (m *memoryProfiles) List(context.Context, int, string) ([]auth.Profile, error) {
	return []auth.Profile{m.profiles["admin"], m.profiles["shopper"]}, nil
}

func (m *memoryProfiles) SetRoles(_ context.Context, uid string, roles auth.Roles) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	p := m.profiles[uid]
	p.Roles = roles
	m.profiles[uid] = p
	return nil
}

type fakeCounter struct {
	products int64
	users    int64
}

func (f fakeCounter) Count(_ context.Context, collection string) (int64, error) {
	if collection == auth.UsersCollection {
		return f.users, nil
	}
	return f.products, nil
}

type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       struct {
		Profile  auth.Profile      `json:"profile"`
		IsAdmin  bool              `json:"isAdmin"`
		Overview response.Overview `json:"overview"`
	} `json:"data"`
}

func setup() (http.Handler, *memoryProfiles) {
	profiles := &memoryProfiles{profiles: map[string]auth.Profile{
		"admin":   {UID: "admin", Roles: auth.Roles{Admin: true}},
		"shopper": {UID: "shopper"},
	}}
	router := mux.NewRouter()
	AttachUserController(router, service.NewUserService(profiles, fakeCounter{products: 7, users: 2}), i18n.NewTranslator("en"), fakeVerifier{}, profiles)
	return router, profiles
}

func serve(t *testing.T, h http.Handler, method, target, body, bearer string) envelope {
	t.Helper()
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if bearer != "" {
		r.Header.Set(inHttp.KeyHeaderAuth, inHttp.ValueHeaderAuthBearer+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	resp := envelope{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, w.Code, resp.StatusCode)
	return resp
}

func TestMe(t *testing.T) {
	h, profiles := setup()

	resp := serve(t, h, http.MethodGet, "/users/me", "", "newcomer")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "newcomer", resp.Data.Profile.UID)
	assert.Equal(t, "newcomer@example.com", resp.Data.Profile.Email)
	assert.False(t, resp.Data.IsAdmin)
	assert.Contains(t, profiles.profiles, "newcomer")

	resp = serve(t, h, http.MethodGet, "/users/me", "", "admin")
	assert.True(t, resp.Data.IsAdmin)

	resp = serve(t, h, http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	h, _ := setup()

	assert.Equal(t, http.StatusForbidden, serve(t, h, http.MethodGet, "/users", "", "shopper").StatusCode)
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/users?limit=5", "", "admin").StatusCode)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/users?limit=x", "", "admin").StatusCode)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/users?limit=500", "", "admin").StatusCode)
}

func TestSetRoles(t *testing.T) {
	h, profiles := setup()

	resp := serve(t, h, http.MethodPatch, "/users/shopper/roles", `{"clean":true}`, "shopper")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = serve(t, h, http.MethodPatch, "/users/shopper/roles", `{}`, "admin")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = serve(t, h, http.MethodPatch, "/users/shopper/roles", `{"clean":true}`, "admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Role Updated", resp.Message)
	assert.Equal(t, auth.Roles{Clean: true}, resp.Data.Profile.Roles)
	assert.True(t, profiles.profiles["shopper"].IsAdmin())

	profiles.writeErr = errors.New("unavailable")
	resp = serve(t, h, http.MethodPatch, "/users/shopper/roles", `{"admin":true}`, "admin")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, auth.Roles{Clean: true}, resp.Data.Profile.Roles)

	profiles.writeErr = nil
	resp = serve(t, h, http.MethodPatch, "/users/nobody/roles", `{"admin":true}`, "admin")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOverview(t *testing.T) {
	h, _ := setup()

	assert.Equal(t, http.StatusUnauthorized, serve(t, h, http.MethodGet, "/users/overview", "", "").StatusCode)
	assert.Equal(t, http.StatusForbidden, serve(t, h, http.MethodGet, "/users/overview", "", "shopper").StatusCode)

	resp := serve(t, h, http.MethodGet, "/users/overview", "", "admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, response.Overview{ProductCount: 7, UserCount: 2}, resp.Data.Overview)
}
