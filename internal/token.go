package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// IssueSessionToken signs a cart session token whose subject is the session id.
func IssueSessionToken(secret string, sessionID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID.String(),
		Issuer:    constants.AppCartService,
		Audience:  jwt.ClaimStrings{constants.AudienceCartSession},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed signing session token with error=%w", err)
	}
	return token, nil
}

func VerifySessionToken(c context.Context, secret string, token string) (uuid.UUID, error) {
	c, span := otel.Tracer.Start(c, "VerifySessionToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifySessionToken").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing claims").Logger()
	logger.Trace().Msg("parsing claims")
	jwtToken, err := jwt.ParseWithClaims(token,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithAudience(constants.AudienceCartSession),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.AppCartService),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", err)
		otel.RecordError(err, span)
		logger.Debug().Err(err).Msg(err.Error())
		return uuid.Nil, err
	}
	if !jwtToken.Valid {
		otel.RecordError(errors.ErrTokenInvalid, span)
		return uuid.Nil, errors.ErrTokenInvalid
	}
	logger.Trace().Msg("parsed claims")

	logger = logger.With().Str(log.KeyProcess, "parsing subject").Logger()
	subject, err := jwtToken.Claims.GetSubject()
	if err != nil || subject == "" {
		otel.RecordError(errors.ErrEmptySubject, span)
		return uuid.Nil, errors.ErrEmptySubject
	}
	sessionID, err := uuid.Parse(subject)
	if err != nil {
		err = fmt.Errorf("failed parsing subject=%s with error=%w", subject, err)
		otel.RecordError(err, span)
		logger.Debug().Err(err).Msg(err.Error())
		return uuid.Nil, err
	}
	logger.Trace().Str(log.KeySessionID, sessionID.String()).Msg("parsed subject as sessionId")

	return sessionID, nil
}

type sessionIDKey struct{}

func AttachSessionID(c context.Context, id uuid.UUID) context.Context {
	return context.WithValue(c, sessionIDKey{}, id)
}

func SessionIDFromContext(c context.Context) (uuid.UUID, bool) {
	id, ok := c.Value(sessionIDKey{}).(uuid.UUID)
	return id, ok
}
