package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const UsersCollection = "users"

type rolesDocument struct {
	Admin bool  `firestore:"admin"`
	Clean *bool `firestore:"clean,omitempty"`
}

type profileDocument struct {
	DisplayName string         `firestore:"displayName"`
	Email       string         `firestore:"email"`
	PhotoURL    string         `firestore:"photoURL"`
	Roles       *rolesDocument `firestore:"roles,omitempty"`
	// Clean is the legacy top-level role flag written before roles existed.
	Clean     *bool     `firestore:"clean,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func profileFromDocument(uid string, doc profileDocument) Profile {
	p := Profile{
		UID:         uid,
		DisplayName: doc.DisplayName,
		Email:       doc.Email,
		PhotoURL:    doc.PhotoURL,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if doc.Roles != nil {
		p.Roles.Admin = doc.Roles.Admin
		if doc.Roles.Clean != nil {
			p.Roles.Clean = *doc.Roles.Clean
		}
	}
	if (doc.Roles == nil || doc.Roles.Clean == nil) && doc.Clean != nil {
		p.Roles.Clean = *doc.Clean
	}
	return p
}

func newProfileDocument(identity Identity, now time.Time) profileDocument {
	clean := false
	return profileDocument{
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		PhotoURL:    identity.PhotoURL,
		Roles:       &rolesDocument{Admin: false, Clean: &clean},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type FirestoreProfileRepository struct {
	client *firestore.Client
	now    func() time.Time
}

func NewFirestoreProfileRepository(client *firestore.Client) *FirestoreProfileRepository {
	return &FirestoreProfileRepository{client: client, now: time.Now}
}

func (r *FirestoreProfileRepository) Get(c context.Context, uid string) (Profile, error) {
	c, span := otel.Tracer.Start(c, "FirestoreProfileRepository Get")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "FirestoreProfileRepository Get").
		Str(log.KeyUserID, uid).
		Str(log.KeyProcess, "getting profile").
		Logger()

	logger.Trace().Msg("getting profile")
	snap, err := r.client.Collection(UsersCollection).Doc(uid).Get(c)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Profile{}, ErrProfileNotFound
		}
		err = fmt.Errorf("failed getting profile uid=%s with error=%w", uid, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Profile{}, err
	}

	doc := profileDocument{}
	if err = snap.DataTo(&doc); err != nil {
		err = fmt.Errorf("failed decoding profile uid=%s with error=%w", uid, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Profile{}, err
	}
	logger.Trace().Msg("got profile")

	return profileFromDocument(uid, doc), nil
}

func (r *FirestoreProfileRepository) Ensure(c context.Context, identity Identity) (Profile, error) {
	c, span := otel.Tracer.Start(c, "FirestoreProfileRepository Ensure")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "FirestoreProfileRepository Ensure").
		Str(log.KeyUserID, identity.UID).
		Logger()

	c = logger.WithContext(c)
	profile, err := r.Get(c, identity.UID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		otel.RecordError(err, span)
		return Profile{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "creating profile").Logger()
	logger.Info().Msg("creating profile")
	doc := newProfileDocument(identity, r.now())
	_, err = r.client.Collection(UsersCollection).Doc(identity.UID).Create(c, doc)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return r.Get(c, identity.UID)
		}
		err = fmt.Errorf("failed creating profile uid=%s with error=%w", identity.UID, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Profile{}, err
	}
	logger.Info().Msg("created profile")

	return profileFromDocument(identity.UID, doc), nil
}

func (r *FirestoreProfileRepository) List(
	c context.Context,
	limit int,
	startAfter string,
) ([]Profile, error) {
	c, span := otel.Tracer.Start(c, "FirestoreProfileRepository List")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "FirestoreProfileRepository List").
		Int("limit", limit).
		Str("startAfter", startAfter).
		Logger()

	q := r.client.Collection(UsersCollection).OrderBy(firestore.DocumentID, firestore.Asc)
	if startAfter != "" {
		q = q.StartAfter(startAfter)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	profiles := []Profile{}
	it := q.Documents(c)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			err = fmt.Errorf("failed iterating profiles with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		doc := profileDocument{}
		if err = snap.DataTo(&doc); err != nil {
			logger.Warn().Err(err).Str(log.KeyUserID, snap.Ref.ID).Msg("skipping undecodable profile")
			continue
		}
		profiles = append(profiles, profileFromDocument(snap.Ref.ID, doc))
	}

	return profiles, nil
}

func (r *FirestoreProfileRepository) SetRoles(c context.Context, uid string, roles Roles) error {
	c, span := otel.Tracer.Start(c, "FirestoreProfileRepository SetRoles")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "FirestoreProfileRepository SetRoles").
		Str(log.KeyUserID, uid).
		Any(log.KeyRole, roles).
		Logger()

	logger.Info().Msg("updating roles")
	_, err := r.client.Collection(UsersCollection).Doc(uid).Update(c, []firestore.Update{
		{Path: "roles.admin", Value: roles.Admin},
		{Path: "roles.clean", Value: roles.Clean},
		{Path: "updatedAt", Value: r.now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrProfileNotFound
		}
		err = fmt.Errorf("failed updating roles uid=%s with error=%w", uid, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("updated roles")

	return nil
}
