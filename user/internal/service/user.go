package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/catalog"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	userErrors "github.com/Alturino/storefront/user/internal/errors"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

// UserService keeps a directory of the profiles it has seen. Role changes are applied
// to the directory first and reverted to the last known good profile when the write fails.
type UserService struct {
	profiles auth.ProfileRepository
	counter  Counter

	mu        sync.Mutex
	directory map[string]auth.Profile
}

// Counter reports the number of documents in a collection.
type Counter interface {
	Count(c context.Context, collection string) (int64, error)
}

func NewUserService(profiles auth.ProfileRepository, counter Counter) *UserService {
	return &UserService{profiles: profiles, counter: counter, directory: map[string]auth.Profile{}}
}

func (u *UserService) remember(profiles ...auth.Profile) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, p := range profiles {
		u.directory[p.UID] = p
	}
}

// Me returns the caller's profile, creating it on first sign-in.
func (u *UserService) Me(c context.Context, identity auth.Identity) (auth.Profile, error) {
	c, span := otel.Tracer.Start(c, "UserService Me")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "UserService Me").
		Str(log.KeyUserID, identity.UID).
		Str(log.KeyProcess, "ensuring profile").
		Logger()

	logger.Trace().Msg("ensuring profile")
	c = logger.WithContext(c)
	profile, err := u.profiles.Ensure(c, identity)
	if err != nil {
		err = fmt.Errorf("failed ensuring profile with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return auth.Profile{}, err
	}
	u.remember(profile)
	logger.Trace().Msg("ensured profile")

	return profile, nil
}

func (u *UserService) ListUsers(c context.Context, param request.ListUsers) (response.UserPage, error) {
	c, span := otel.Tracer.Start(c, "UserService ListUsers")
	defer span.End()

	limit := param.Limit
	if limit <= 0 {
		limit = request.DefaultPageSize
	}
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "UserService ListUsers").
		Int("limit", limit).
		Str("startAfter", param.StartAfter).
		Str(log.KeyProcess, "listing users").
		Logger()

	logger.Trace().Msg("listing users")
	c = logger.WithContext(c)
	profiles, err := u.profiles.List(c, limit, param.StartAfter)
	if err != nil {
		err = fmt.Errorf("failed listing users with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.UserPage{}, err
	}
	u.remember(profiles...)
	logger.Trace().Int("count", len(profiles)).Msg("listed users")

	page := response.UserPage{Users: profiles}
	if len(profiles) == limit {
		page.Next = profiles[len(profiles)-1].UID
	}
	return page, nil
}

// SetRoles applies the requested role changes. On a failed write the directory entry is
// reverted and the error returned.
func (u *UserService) SetRoles(c context.Context, uid string, param request.SetRoles) (auth.Profile, error) {
	c, span := otel.Tracer.Start(c, "UserService SetRoles")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "UserService SetRoles").
		Str(log.KeyUserID, uid).
		Logger()
	c = logger.WithContext(c)

	if uid == "" {
		return auth.Profile{}, userErrors.ErrEmptyUserID
	}

	u.mu.Lock()
	previous, known := u.directory[uid]
	u.mu.Unlock()
	if !known {
		logger = logger.With().Str(log.KeyProcess, "getting profile").Logger()
		logger.Trace().Msg("getting profile")
		profile, err := u.profiles.Get(c, uid)
		if err != nil {
			err = fmt.Errorf("failed getting profile with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Info().Err(err).Msg(err.Error())
			return auth.Profile{}, err
		}
		previous = profile
	}

	updated := previous
	if param.Admin != nil {
		updated.Roles.Admin = *param.Admin
	}
	if param.Clean != nil {
		updated.Roles.Clean = *param.Clean
	}

	u.mu.Lock()
	u.directory[uid] = updated
	u.mu.Unlock()

	logger = logger.With().
		Str(log.KeyProcess, "writing roles").
		Any(log.KeyRole, updated.Roles).
		Logger()
	logger.Info().Msg("writing roles")
	if err := u.profiles.SetRoles(c, uid, updated.Roles); err != nil {
		u.mu.Lock()
		if current, ok := u.directory[uid]; ok && current.Roles == updated.Roles {
			u.directory[uid] = previous
		}
		u.mu.Unlock()

		err = fmt.Errorf("failed writing roles with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return previous, err
	}
	logger.Info().Msg("wrote roles")

	return updated, nil
}

// Directory returns the known profiles ordered by uid.
func (u *UserService) Directory() []auth.Profile {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]auth.Profile, 0, len(u.directory))
	for _, p := range u.directory {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// Overview counts products and users for the admin dashboard.
func (u *UserService) Overview(c context.Context) (response.Overview, error) {
	c, span := otel.Tracer.Start(c, "UserService Overview")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "UserService Overview").
		Str(log.KeyProcess, "counting collections").
		Logger()

	logger.Trace().Msg("counting collections")
	overview := response.Overview{}
	g, gc := errgroup.WithContext(logger.WithContext(c))
	g.Go(func() (err error) {
		overview.ProductCount, err = u.counter.Count(gc, catalog.ProductsCollection)
		return err
	})
	g.Go(func() (err error) {
		overview.UserCount, err = u.counter.Count(gc, auth.UsersCollection)
		return err
	})
	if err := g.Wait(); err != nil {
		err = fmt.Errorf("failed counting collections with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Overview{}, err
	}
	logger.Trace().
		Int64("productCount", overview.ProductCount).
		Int64("userCount", overview.UserCount).
		Msg("counted collections")

	return overview, nil
}
