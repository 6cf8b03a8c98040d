package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/internal/session"
	"github.com/Alturino/storefront/cart/internal/share"
	"github.com/Alturino/storefront/cart/internal/view"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/internal"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/i18n"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

type CartController struct {
	service    service.CartService
	translator i18n.Translator
	validate   *validator.Validate
}

func AttachCartController(mux *mux.Router, service service.CartService, translator i18n.Translator) {
	controller := CartController{
		service:    service,
		translator: translator,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}

	router := mux.PathPrefix("/carts").Subrouter()
	router.HandleFunc("", controller.FindCart).Methods(http.MethodGet)
	router.HandleFunc("", controller.ReplaceItems).Methods(http.MethodPut)
	router.HandleFunc("", controller.ClearCart).Methods(http.MethodDelete)
	router.HandleFunc("/summary", controller.Summary).Methods(http.MethodGet)
	router.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	router.HandleFunc("/items/{productId}", controller.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/items/{productId}", controller.RemoveItem).Methods(http.MethodDelete)
	router.HandleFunc("/share", controller.ShareCart).Methods(http.MethodGet)
	router.HandleFunc("/share/confirm", controller.ConfirmShared).Methods(http.MethodPost)
	router.HandleFunc("/share/cancel", controller.CancelShared).Methods(http.MethodPost)
}

func (t CartController) language(r *http.Request) i18n.Language {
	return t.translator.Negotiate(r.Header.Get(inHttp.KeyHeaderAcceptLang))
}

// failure maps a cart error to its status code and user-facing message key.
func failure(err error) (int, string) {
	var decodeErr *share.DecodeError
	var validationErr *domain.ValidationError
	var resolutionErr *view.ResolutionError
	switch {
	case errors.As(err, &decodeErr):
		return http.StatusBadRequest, i18n.KeyInvalidSharedCartLink
	case errors.Is(err, share.ErrEmptyCart):
		return http.StatusBadRequest, i18n.KeyCannotShareEmptyCart
	case errors.Is(err, share.ErrUnencodableProductID):
		return http.StatusUnprocessableEntity, i18n.KeyError
	case errors.As(err, &validationErr),
		errors.Is(err, domain.ErrEmptyProductID),
		errors.Is(err, domain.ErrNonPositiveQuantity),
		errors.Is(err, domain.ErrQuantityTooLarge),
		errors.Is(err, domain.ErrInvalidProductID):
		return http.StatusBadRequest, i18n.KeyError
	case errors.Is(err, share.ErrNothingPending):
		return http.StatusConflict, i18n.KeyNothingPending
	case errors.As(err, &resolutionErr):
		return http.StatusBadGateway, i18n.KeyErrorFetchingCartDetails
	case errors.Is(err, view.ErrStale), errors.Is(err, session.ErrRegistryClosed):
		return http.StatusServiceUnavailable, i18n.KeyErrorFetchingCartDetails
	default:
		return http.StatusInternalServerError, i18n.KeyError
	}
}

func (t CartController) writeError(
	w http.ResponseWriter,
	r *http.Request,
	span trace.Span,
	logger zerolog.Logger,
	err error,
) {
	inOtel.RecordError(err, span)
	statusCode, key := failure(err)
	if statusCode >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg(err.Error())
	} else {
		logger.Info().Err(err).Msg(err.Error())
	}
	c := logger.WithContext(r.Context())
	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusFailed,
		"statusCode": statusCode,
		"message":    t.translator.T(key, t.language(r), nil),
		"error":      err.Error(),
	})
}

func (t CartController) sessionID(
	w http.ResponseWriter,
	r *http.Request,
	span trace.Span,
	logger zerolog.Logger,
) (uuid.UUID, bool) {
	sessionID, ok := internal.SessionIDFromContext(r.Context())
	if !ok {
		err := inErrors.ErrSessionUnavailable
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(r.Context(), w, http.StatusInternalServerError, err)
		return uuid.Nil, false
	}
	return sessionID, true
}

func (t CartController) FindCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController FindCart").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}
	lang := t.language(r)
	sharedItems := r.URL.Query().Get(share.Param)

	logger = logger.With().
		Str(log.KeyProcess, "finding cart").
		Str(log.KeyLocale, string(lang)).
		Logger()
	logger.Info().Msg("finding cart")
	c = logger.WithContext(c)
	cart, err := t.service.FindCart(c, sessionID, sharedItems, lang)
	var decodeErr *share.DecodeError
	if err != nil && !errors.As(err, &decodeErr) {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		t.writeError(w, r.WithContext(c), span, logger, err)
		return
	}
	logger.Info().Msg("found cart")

	data := map[string]interface{}{"cart": cart}
	message := t.translator.T(i18n.KeyLoadCart, lang, nil)
	switch {
	case decodeErr != nil:
		inOtel.RecordError(decodeErr, span)
		logger.Info().Err(decodeErr).Msg("rejected shared cart link")
		message = t.translator.T(i18n.KeyInvalidSharedCartLink, lang, nil)
		data["sharedItemsRejected"] = share.Rejected
	case cart.Share.Token != "":
		message = t.translator.T(i18n.KeyLoadSharedCartDesc, lang, nil)
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, message, data)
}

func (t CartController) Summary(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Summary")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController Summary").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}
	c = logger.WithContext(c)
	summary, err := t.service.Summary(c, sessionID)
	if err != nil {
		t.writeError(w, r, span, logger, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "cart summary", map[string]interface{}{"summary": summary})
}

func (t CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController AddItem").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	reqBody := request.AddItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Trace().Msg("validating request body")
	if err := t.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "adding item").
		Str(log.KeyProductID, reqBody.ProductID).
		Int(log.KeyQuantity, reqBody.Quantity).
		Logger()
	logger.Info().Msg("adding item")
	c = logger.WithContext(c)
	if err := t.service.AddItem(c, sessionID, reqBody); err != nil {
		err = fmt.Errorf("failed adding item with error=%w", err)
		t.writeError(w, r, span, logger, err)
		return
	}
	logger.Info().Msg("added item")

	inHttp.WriteSuccess(c, w, http.StatusOK, t.translator.T(i18n.KeyItemAddedToCart, t.language(r), nil), nil)
}

func (t CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController UpdateItem").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}
	pathValues := mux.Vars(r)
	productID := pathValues["productId"]
	logger = logger.With().Any(log.KeyPathValues, pathValues).Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.UpdateItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	if err := t.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "updating item").
		Str(log.KeyProductID, productID).
		Int(log.KeyQuantity, *reqBody.Quantity).
		Logger()
	logger.Info().Msg("updating item")
	c = logger.WithContext(c)
	if err := t.service.UpdateItem(c, sessionID, productID, *reqBody.Quantity); err != nil {
		err = fmt.Errorf("failed updating item with error=%w", err)
		t.writeError(w, r, span, logger, err)
		return
	}
	logger.Info().Msg("updated item")

	key := i18n.KeyCartUpdated
	if *reqBody.Quantity <= 0 {
		key = i18n.KeyItemRemovedFromCart
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, t.translator.T(key, t.language(r), nil), nil)
}

func (t CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController RemoveItem").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}
	productID := mux.Vars(r)["productId"]

	logger = logger.With().
		Str(log.KeyProcess, "removing item").
		Str(log.KeyProductID, productID).
		Logger()
	logger.Info().Msg("removing item")
	c = logger.WithContext(c)
	if err := t.service.RemoveItem(c, sessionID, productID); err != nil {
		err = fmt.Errorf("failed removing item with error=%w", err)
		t.writeError(w, r, span, logger, err)
		return
	}
	logger.Info().Msg("removed item")

	inHttp.WriteSuccess(c, w, http.StatusOK, t.translator.T(i18n.KeyItemRemovedFromCart, t.language(r), nil), nil)
}

func (t CartController) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ReplaceItems")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController ReplaceItems").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.ReplaceItems{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	if err := t.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "replacing items").Int(log.KeyCartLines, len(reqBody.Items)).Logger()
	logger.Info().Msg("replacing items")
	c = logger.WithContext(c)
	if err := t.service.ReplaceItems(c, sessionID, reqBody); err != nil {
		err = fmt.Errorf("failed replacing items with error=%w", err)
		t.writeError(w, r, span, logger, err)
		return
	}
	logger.Info().Msg("replaced items")

	inHttp.WriteSuccess(c, w, http.StatusOK, t.translator.T(i18n.KeyCartUpdated, t.language(r), nil), nil)
}

func (t CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController ClearCart").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
	logger.Info().Msg("clearing cart")
	c = logger.WithContext(c)
	if err := t.service.ClearCart(c, sessionID); err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		t.writeError(w, r, span, logger, err)
		return
	}
	logger.Info().Msg("cleared cart")

	inHttp.WriteSuccess(c, w, http.StatusOK, t.translator.T(i18n.KeyCartCleared, t.language(r), nil), nil)
}

func (t CartController) ShareCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ShareCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController ShareCart").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "sharing cart").Logger()
	logger.Info().Msg("sharing cart")
	c = logger.WithContext(c)
	link, err := t.service.ShareCart(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed sharing cart with error=%w", err)
		t.writeError(w, r, span, logger, err)
		return
	}
	logger.Info().Str(log.KeyShareToken, link.Token).Msg("shared cart")

	inHttp.WriteSuccess(
		c,
		w,
		http.StatusOK,
		t.translator.T(i18n.KeyCartLinkCopiedDesc, t.language(r), nil),
		map[string]interface{}{"share": link},
	)
}

func (t CartController) ConfirmShared(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ConfirmShared")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController ConfirmShared").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "confirming shared cart").Logger()
	logger.Info().Msg("confirming shared cart")
	c = logger.WithContext(c)
	lines, err := t.service.ConfirmShared(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed confirming shared cart with error=%w", err)
		t.writeError(w, r, span, logger, err)
		return
	}
	logger.Info().Int(log.KeyCartLines, len(lines)).Msg("confirmed shared cart")

	inHttp.WriteSuccess(
		c,
		w,
		http.StatusOK,
		t.translator.T(i18n.KeySharedCartLoadedDesc, t.language(r), nil),
		map[string]interface{}{"items": lines},
	)
}

func (t CartController) CancelShared(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController CancelShared")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController CancelShared").Logger()

	sessionID, ok := t.sessionID(w, r, span, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "cancelling shared cart").Logger()
	c = logger.WithContext(c)
	if err := t.service.CancelShared(c, sessionID); err != nil {
		err = fmt.Errorf("failed cancelling shared cart with error=%w", err)
		t.writeError(w, r, span, logger, err)
		return
	}
	logger.Info().Msg("cancelled shared cart")

	inHttp.WriteSuccess(c, w, http.StatusOK, t.translator.T(i18n.KeySharedCartDismissed, t.language(r), nil), nil)
}
