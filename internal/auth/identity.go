package auth

import (
	"context"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// Identity is the signed-in user as asserted by a verified ID token.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

// TokenVerifier is satisfied by *firebaseauth.Client.
type TokenVerifier interface {
	VerifyIDToken(c context.Context, idToken string) (*firebaseauth.Token, error)
}

func IdentityFromToken(token *firebaseauth.Token) Identity {
	claim := func(key string) string {
		v, _ := token.Claims[key].(string)
		return v
	}
	return Identity{
		UID:         token.UID,
		DisplayName: claim("name"),
		Email:       claim("email"),
		PhotoURL:    claim("picture"),
	}
}

type identityKey struct{}

func AttachIdentity(c context.Context, identity Identity) context.Context {
	return context.WithValue(c, identityKey{}, identity)
}

func IdentityFromContext(c context.Context) (Identity, bool) {
	identity, ok := c.Value(identityKey{}).(Identity)
	return identity, ok
}
