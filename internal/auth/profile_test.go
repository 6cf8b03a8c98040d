package auth

import (
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestProfileFromDocument(t *testing.T) {
	testCases := []struct {
		name      string
		doc       profileDocument
		wantRoles Roles
		wantAdmin bool
	}{
		{
			name:      "missing roles means no roles",
			doc:       profileDocument{},
			wantRoles: Roles{},
			wantAdmin: false,
		},
		{
			name:      "admin role",
			doc:       profileDocument{Roles: &rolesDocument{Admin: true, Clean: boolPtr(false)}},
			wantRoles: Roles{Admin: true},
			wantAdmin: true,
		},
		{
			name:      "clean role grants admin",
			doc:       profileDocument{Roles: &rolesDocument{Clean: boolPtr(true)}},
			wantRoles: Roles{Clean: true},
			wantAdmin: true,
		},
		{
			name:      "legacy top level clean is honoured",
			doc:       profileDocument{Clean: boolPtr(true)},
			wantRoles: Roles{Clean: true},
			wantAdmin: true,
		},
		{
			name:      "roles clean wins over legacy flag",
			doc:       profileDocument{Roles: &rolesDocument{Clean: boolPtr(false)}, Clean: boolPtr(true)},
			wantRoles: Roles{},
			wantAdmin: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := profileFromDocument("uid-1", tc.doc)
			assert.Equal(t, "uid-1", p.UID)
			assert.Equal(t, tc.wantRoles, p.Roles)
			assert.Equal(t, tc.wantAdmin, p.IsAdmin())
		})
	}
}

func TestNewProfileDocument(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := newProfileDocument(Identity{UID: "u", DisplayName: "Ana", Email: "ana@example.com"}, now)

	p := profileFromDocument("u", doc)
	assert.Equal(t, "Ana", p.DisplayName)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, Roles{}, p.Roles)
	assert.False(t, p.IsAdmin())
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestIdentityFromToken(t *testing.T) {
	token := &firebaseauth.Token{
		UID: "uid-42",
		Claims: map[string]interface{}{
			"name":    "Ivan",
			"email":   "ivan@example.com",
			"picture": "https://example.com/p.png",
		},
	}
	assert.Equal(t, Identity{
		UID:         "uid-42",
		DisplayName: "Ivan",
		Email:       "ivan@example.com",
		PhotoURL:    "https://example.com/p.png",
	}, IdentityFromToken(token))

	assert.Equal(t, Identity{UID: "x"}, IdentityFromToken(&firebaseauth.Token{UID: "x"}))
}
