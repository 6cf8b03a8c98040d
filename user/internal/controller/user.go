package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/i18n"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/internal/service"
	"github.com/Alturino/storefront/user/pkg/request"
)

type UserController struct {
	service    *service.UserService
	translator i18n.Translator
	validate   *validator.Validate
}

func AttachUserController(
	mux *mux.Router,
	service *service.UserService,
	translator i18n.Translator,
	verifier auth.TokenVerifier,
	profiles auth.ProfileRepository,
) {
	controller := UserController{
		service:    service,
		translator: translator,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}

	signedIn := middleware.Auth(verifier)
	admin := func(h http.HandlerFunc) http.Handler {
		return signedIn(middleware.RequireAdmin(profiles)(h))
	}

	router := mux.PathPrefix("/users").Subrouter()
	router.Handle("/me", signedIn(http.HandlerFunc(controller.Me))).Methods(http.MethodGet)
	router.Handle("", admin(controller.ListUsers)).Methods(http.MethodGet)
	router.Handle("/overview", admin(controller.Overview)).Methods(http.MethodGet)
	router.Handle("/{uid}/roles", admin(controller.SetRoles)).Methods(http.MethodPatch)
}

func (u UserController) language(r *http.Request) i18n.Language {
	return u.translator.Negotiate(r.Header.Get(inHttp.KeyHeaderAcceptLang))
}

func (u UserController) Me(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Me")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController Me").Logger()

	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		inOtel.RecordError(inErrors.ErrIdentityMissing, span)
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrIdentityMissing)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "getting profile").Str(log.KeyUserID, identity.UID).Logger()
	logger.Info().Msg("getting profile")
	c = logger.WithContext(c)
	profile, err := u.service.Me(c, identity)
	if err != nil {
		err = fmt.Errorf("failed getting profile with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadGateway, err)
		return
	}
	logger.Info().Msg("got profile")

	inHttp.WriteSuccess(c, w, http.StatusOK, "profile found", map[string]interface{}{
		"profile": profile,
		"isAdmin": profile.IsAdmin(),
	})
}

func (u UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController ListUsers")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController ListUsers").Logger()

	logger = logger.With().Str(log.KeyProcess, "validating query").Logger()
	query := r.URL.Query()
	param := request.ListUsers{StartAfter: query.Get("startAfter")}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			err = fmt.Errorf("failed parsing limit=%s with error=%w", raw, err)
			inOtel.RecordError(err, span)
			logger.Info().Err(err).Msg(err.Error())
			inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
			return
		}
		param.Limit = limit
	}
	if err := u.validate.StructCtx(c, param); err != nil {
		err = fmt.Errorf("failed validating query with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "listing users").Logger()
	logger.Info().Msg("listing users")
	c = logger.WithContext(c)
	page, err := u.service.ListUsers(c, param)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     inHttp.StatusFailed,
			"statusCode": http.StatusBadGateway,
			"message":    u.translator.T(i18n.KeyErrorFetchingUsers, u.language(r), nil),
			"error":      err.Error(),
		})
		return
	}
	logger.Info().Int("count", len(page.Users)).Msg("listed users")

	inHttp.WriteSuccess(c, w, http.StatusOK, "users found", map[string]interface{}{"page": page})
}

func (u UserController) Overview(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Overview")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "UserController Overview").
		Str(log.KeyProcess, "counting collections").
		Logger()

	logger.Info().Msg("counting collections")
	c = logger.WithContext(c)
	overview, err := u.service.Overview(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailed(c, w, http.StatusBadGateway, err)
		return
	}
	logger.Info().Msg("counted collections")

	inHttp.WriteSuccess(c, w, http.StatusOK, "overview found", map[string]interface{}{"overview": overview})
}

func (u UserController) SetRoles(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController SetRoles")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "UserController SetRoles").Logger()
	lang := u.language(r)
	uid := mux.Vars(r)["uid"]
	logger = logger.With().Str(log.KeyUserID, uid).Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.SetRoles{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	if err := u.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "setting roles").Logger()
	logger.Info().Msg("setting roles")
	c = logger.WithContext(c)
	profile, err := u.service.SetRoles(c, uid, reqBody)
	if err != nil {
		statusCode := http.StatusBadGateway
		if errors.Is(err, auth.ErrProfileNotFound) {
			statusCode = http.StatusNotFound
		}
		inOtel.RecordError(err, span)
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     inHttp.StatusFailed,
			"statusCode": statusCode,
			"message":    u.translator.T(i18n.KeyErrorUpdatingRoleDesc, lang, nil),
			"error":      err.Error(),
			"data":       map[string]interface{}{"profile": profile},
		})
		return
	}
	logger.Info().Msg("set roles")

	inHttp.WriteSuccess(c, w, http.StatusOK, u.translator.T(i18n.KeyRoleUpdatedSuccess, lang, nil),
		map[string]interface{}{"profile": profile})
}
