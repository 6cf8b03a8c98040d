package auth

import (
	"context"
	"errors"
	"time"
)

var ErrProfileNotFound = errors.New("profile not found")

type Roles struct {
	Admin bool `json:"admin"`
	Clean bool `json:"clean"`
}

type Profile struct {
	UID         string    `json:"uid"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	PhotoURL    string    `json:"photoURL"`
	Roles       Roles     `json:"roles"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsAdmin grants admin capabilities to both the admin and clean roles.
func (p Profile) IsAdmin() bool {
	return p.Roles.Admin || p.Roles.Clean
}

type ProfileRepository interface {
	Get(c context.Context, uid string) (Profile, error)
	// Ensure returns the stored profile, creating it with no roles on first sign-in.
	Ensure(c context.Context, identity Identity) (Profile, error)
	List(c context.Context, limit int, startAfter string) ([]Profile, error)
	SetRoles(c context.Context, uid string, roles Roles) error
}
