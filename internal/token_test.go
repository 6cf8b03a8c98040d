package internal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken(t *testing.T) {
	secret := "test-secret"
	sessionID := uuid.New()

	testCases := []struct {
		name    string
		token   func(t *testing.T) string
		secret  string
		want    uuid.UUID
		wantErr bool
	}{
		{
			name: "valid token round trips the session id",
			token: func(t *testing.T) string {
				token, err := IssueSessionToken(secret, sessionID, time.Hour)
				require.NoError(t, err)
				return token
			},
			secret: secret,
			want:   sessionID,
		},
		{
			name: "token signed with another secret is rejected",
			token: func(t *testing.T) string {
				token, err := IssueSessionToken("other-secret", sessionID, time.Hour)
				require.NoError(t, err)
				return token
			},
			secret:  secret,
			want:    uuid.Nil,
			wantErr: true,
		},
		{
			name: "expired token is rejected",
			token: func(t *testing.T) string {
				token, err := IssueSessionToken(secret, sessionID, -time.Minute)
				require.NoError(t, err)
				return token
			},
			secret:  secret,
			want:    uuid.Nil,
			wantErr: true,
		},
		{
			name:    "garbage is rejected",
			token:   func(t *testing.T) string { return "not-a-jwt" },
			secret:  secret,
			want:    uuid.Nil,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := VerifySessionToken(context.Background(), tc.secret, tc.token(t))
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSessionIDContext(t *testing.T) {
	_, ok := SessionIDFromContext(context.Background())
	assert.False(t, ok)

	id := uuid.New()
	got, ok := SessionIDFromContext(AttachSessionID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
