package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func sessionTokenFromRequest(r *http.Request) string {
	if token := r.Header.Get(inHttp.KeyHeaderCartSession); token != "" {
		return token
	}
	if cookie, err := r.Cookie(constants.CookieCartSession); err == nil {
		return cookie.Value
	}
	return ""
}

// Session resolves the cart session from the session token, starting a new session
// when the token is absent or no longer valid.
func Session(secret string, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware Session")
			defer span.End()

			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware Session").Logger()

			logger = logger.With().Str(log.KeyProcess, "verifying session token").Logger()
			c = logger.WithContext(c)
			sessionID := uuid.Nil
			if token := sessionTokenFromRequest(r); token != "" {
				id, err := internal.VerifySessionToken(c, secret, token)
				if err != nil {
					logger.Info().Err(err).Msg("discarding invalid session token")
				} else {
					sessionID = id
				}
			}

			if sessionID == uuid.Nil {
				logger = logger.With().Str(log.KeyProcess, "issuing session token").Logger()
				sessionID = uuid.New()
				token, err := internal.IssueSessionToken(secret, sessionID, ttl)
				if err != nil {
					otel.RecordError(err, span)
					logger.Error().Err(err).Msg(err.Error())
					inHttp.WriteFailed(c, w, http.StatusInternalServerError, err)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     constants.CookieCartSession,
					Value:    token,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				w.Header().Set(inHttp.KeyHeaderCartSession, token)
				logger.Info().Str(log.KeySessionID, sessionID.String()).Msg("issued session token")
			}

			logger = logger.With().Str(log.KeySessionID, sessionID.String()).Logger()
			c = internal.AttachSessionID(c, sessionID)
			c = logger.WithContext(c)

			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
