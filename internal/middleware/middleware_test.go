package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
)

type fakeVerifier struct {
	tokens map[string]*firebaseauth.Token
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	token, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("bad token")
	}
	return token, nil
}

type fakeProfiles struct {
	profiles map[string]auth.Profile
}

func (f fakeProfiles) Get(_ context.Context, uid string) (auth.Profile, error) {
	p, ok := f.profiles[uid]
	if !ok {
		return auth.Profile{}, auth.ErrProfileNotFound
	}
	return p, nil
}

func (f fakeProfiles) Ensure(c context.Context, identity auth.Identity) (auth.Profile, error) {
	return f.Get(c, identity.UID)
}

func (f fakeProfiles) List(context.Context, int, string) ([]auth.Profile, error) {
	return nil, nil
}

func (f fakeProfiles) SetRoles(context.Context, string, auth.Roles) error {
	return nil
}

func TestSession(t *testing.T) {
	secret := "secret"
	existing := uuid.New()
	validToken, err := internal.IssueSessionToken(secret, existing, time.Hour)
	require.NoError(t, err)

	testCases := []struct {
		name        string
		setup       func(r *http.Request)
		wantSession func(t *testing.T, got uuid.UUID)
		wantIssued  bool
	}{
		{
			name:  "new session when no token",
			setup: func(r *http.Request) {},
			wantSession: func(t *testing.T, got uuid.UUID) {
				assert.NotEqual(t, uuid.Nil, got)
				assert.NotEqual(t, existing, got)
			},
			wantIssued: true,
		},
		{
			name: "header token resumes session",
			setup: func(r *http.Request) {
				r.Header.Set(inHttp.KeyHeaderCartSession, validToken)
			},
			wantSession: func(t *testing.T, got uuid.UUID) { assert.Equal(t, existing, got) },
		},
		{
			name: "cookie token resumes session",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: constants.CookieCartSession, Value: validToken})
			},
			wantSession: func(t *testing.T, got uuid.UUID) { assert.Equal(t, existing, got) },
		},
		{
			name: "invalid token starts a new session",
			setup: func(r *http.Request) {
				r.Header.Set(inHttp.KeyHeaderCartSession, "garbage")
			},
			wantSession: func(t *testing.T, got uuid.UUID) {
				assert.NotEqual(t, uuid.Nil, got)
				assert.NotEqual(t, existing, got)
			},
			wantIssued: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got uuid.UUID
			handler := Session(secret, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := internal.SessionIDFromContext(r.Context())
				require.True(t, ok)
				got = id
			}))

			r := httptest.NewRequest(http.MethodGet, "/carts", nil)
			tc.setup(r)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			tc.wantSession(t, got)
			issued := w.Header().Get(inHttp.KeyHeaderCartSession)
			if tc.wantIssued {
				require.NotEmpty(t, issued)
				id, err := internal.VerifySessionToken(context.Background(), secret, issued)
				require.NoError(t, err)
				assert.Equal(t, got, id)
			} else {
				assert.Empty(t, issued)
			}
		})
	}
}

func TestAuthAndRequireAdmin(t *testing.T) {
	verifier := fakeVerifier{tokens: map[string]*firebaseauth.Token{
		"admin-token": {UID: "admin"},
		"clean-token": {UID: "cleaner"},
		"user-token":  {UID: "user"},
		"ghost-token": {UID: "ghost"},
	}}
	profiles := fakeProfiles{profiles: map[string]auth.Profile{
		"admin":   {UID: "admin", Roles: auth.Roles{Admin: true}},
		"cleaner": {UID: "cleaner", Roles: auth.Roles{Clean: true}},
		"user":    {UID: "user"},
	}}

	testCases := []struct {
		name          string
		authorization string
		wantStatus    int
	}{
		{name: "missing header", authorization: "", wantStatus: http.StatusUnauthorized},
		{name: "not a bearer", authorization: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", authorization: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "admin passes", authorization: "Bearer admin-token", wantStatus: http.StatusNoContent},
		{name: "clean passes", authorization: "bearer clean-token", wantStatus: http.StatusNoContent},
		{name: "plain user is forbidden", authorization: "Bearer user-token", wantStatus: http.StatusForbidden},
		{name: "unknown profile is forbidden", authorization: "Bearer ghost-token", wantStatus: http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := Auth(verifier)(RequireAdmin(profiles)(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					_, ok := auth.IdentityFromContext(r.Context())
					assert.True(t, ok)
					w.WriteHeader(http.StatusNoContent)
				},
			)))

			r := httptest.NewRequest(http.MethodGet, "/products/popular", nil)
			if tc.authorization != "" {
				r.Header.Set(inHttp.KeyHeaderAuth, tc.authorization)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	handler := RecoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
}
