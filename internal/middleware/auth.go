package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Auth verifies the bearer ID token and attaches the caller identity.
func Auth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware Auth")
			defer span.End()

			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware Auth").Logger()

			authorization := r.Header.Get(inHttp.KeyHeaderAuth)
			if len(authorization) <= len(inHttp.ValueHeaderAuthBearer) ||
				!strings.EqualFold(authorization[:len(inHttp.ValueHeaderAuthBearer)], inHttp.ValueHeaderAuthBearer) {
				otel.RecordError(inErrors.ErrEmptyAuth, span)
				logger.Info().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrEmptyAuth)
				return
			}

			logger = logger.With().Str(log.KeyProcess, "verifying id token").Logger()
			token, err := verifier.VerifyIDToken(c, authorization[len(inHttp.ValueHeaderAuthBearer):])
			if err != nil {
				err = fmt.Errorf("failed verifying id token with error=%w", err)
				otel.RecordError(err, span)
				logger.Info().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrTokenInvalid)
				return
			}

			identity := auth.IdentityFromToken(token)
			logger = logger.With().Str(log.KeyUserID, identity.UID).Logger()
			logger.Trace().Msg("verified id token")

			c = auth.AttachIdentity(c, identity)
			c = logger.WithContext(c)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

// RequireAdmin rejects callers whose profile holds neither the admin nor the clean role.
func RequireAdmin(profiles auth.ProfileRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware RequireAdmin")
			defer span.End()

			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware RequireAdmin").Logger()

			identity, ok := auth.IdentityFromContext(c)
			if !ok {
				otel.RecordError(inErrors.ErrIdentityMissing, span)
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrIdentityMissing)
				return
			}

			profile, err := profiles.Get(c, identity.UID)
			if err != nil && !errors.Is(err, auth.ErrProfileNotFound) {
				err = fmt.Errorf("failed getting profile with error=%w", err)
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusBadGateway, err)
				return
			}
			if !profile.IsAdmin() {
				otel.RecordError(inErrors.ErrForbidden, span)
				logger.Info().Str(log.KeyUserID, identity.UID).Msg(inErrors.ErrForbidden.Error())
				inHttp.WriteFailed(c, w, http.StatusForbidden, inErrors.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
